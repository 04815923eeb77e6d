package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"golang.org/x/term"
)

// terminalPrompter satisfies both bypass.Prompter and superadmin.Prompter
// against the real controlling terminal. It is the only concrete
// implementation of those interfaces in the module; every other caller
// goes through a test double.
type terminalPrompter struct{}

func (terminalPrompter) CheckTTY() bool {
	return term.IsTerminal(int(os.Stdin.Fd())) && term.IsTerminal(int(os.Stdout.Fd()))
}

func (terminalPrompter) PromptPassphrase(timeout time.Duration) (string, error) {
	fmt.Fprint(os.Stderr, "Passphrase: ")
	return readWithTimeout(timeout, func() (string, error) {
		raw, err := term.ReadPassword(int(os.Stdin.Fd()))
		fmt.Fprintln(os.Stderr)
		return string(raw), err
	})
}

func (terminalPrompter) PromptTOTPCode(timeout time.Duration) (string, error) {
	fmt.Fprint(os.Stderr, "TOTP code: ")
	return readWithTimeout(timeout, func() (string, error) {
		reader := bufio.NewReader(os.Stdin)
		line, err := reader.ReadString('\n')
		return strings.TrimSpace(line), err
	})
}

func (terminalPrompter) HasBiometric() bool {
	return false // no platform biometric probe on this CLI; falls back to TOTP
}

func (terminalPrompter) ProbeBiometric(timeout time.Duration) (bool, error) {
	return false, fmt.Errorf("wowguard: biometric probe not supported on this platform")
}

// promptSecret asks for a single masked line on the real terminal,
// outside the bypass/superadmin Prompter contracts — used by
// reset-passphrase, which needs two independently labelled prompts.
func promptSecret(label string) (string, error) {
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return "", fmt.Errorf("wowguard: no TTY attached for interactive prompt")
	}
	fmt.Fprint(os.Stderr, label)
	raw, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

// readWithTimeout runs read on its own goroutine and races it against
// timeout, so a hung stdin (e.g. a piped/backgrounded invocation that
// slipped past CheckTTY) can't wedge the process indefinitely.
func readWithTimeout(timeout time.Duration, read func() (string, error)) (string, error) {
	type result struct {
		val string
		err error
	}
	ch := make(chan result, 1)
	go func() {
		v, err := read()
		ch <- result{v, err}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	select {
	case r := <-ch:
		return r.val, r.err
	case <-ctx.Done():
		return "", fmt.Errorf("wowguard: prompt timed out after %s", timeout)
	}
}
