// Package authcommon implements the pieces shared by the Bypass and
// SuperAdmin authentication cores: passphrase hashing, v2 token
// issuance/verification, the escalating-delay failure counter, atomic
// file helpers, and script-integrity checksum manifests. Neither
// concrete auth core imports the other; both import this package.
package authcommon

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha512"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"regexp"
	"strings"
)

// HashLineRe matches a well-formed "salt:hash" line: 32 hex chars of
// 128-bit salt, a colon, then 128 hex chars of a SHA-512 digest.
var HashLineRe = regexp.MustCompile(`^[a-f0-9]{32}:[a-f0-9]{128}$`)

// HashPassphrase generates a fresh 128-bit salt and returns the
// "salt:hash" line for passphrase pp, where hash is
// SHA-512(salt||passphrase) in lower-case hex. Two invocations on the
// same pp always differ, since the salt is drawn from a CSPRNG.
func HashPassphrase(pp string) (string, error) {
	salt := make([]byte, 16) // 128 bits
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("authcommon: generate salt: %w", err)
	}
	saltHex := hex.EncodeToString(salt)
	return saltHex + ":" + digest(saltHex, pp), nil
}

func digest(saltHex, pp string) string {
	sum := sha512.Sum512([]byte(saltHex + pp))
	return hex.EncodeToString(sum[:])
}

// VerifyPassphrase reports whether pp hashes (with line's embedded salt)
// to line's stored digest, using a constant-time comparison on the hash
// portion so timing does not leak how many leading bytes matched.
func VerifyPassphrase(pp, line string) bool {
	salt, wantHash, ok := splitHashLine(line)
	if !ok {
		return false
	}
	gotHash := digest(salt, pp)
	return subtle.ConstantTimeCompare([]byte(gotHash), []byte(wantHash)) == 1
}

func splitHashLine(line string) (salt, hash string, ok bool) {
	trimmed := strings.TrimSpace(line)
	if !HashLineRe.MatchString(trimmed) {
		return "", "", false
	}
	parts := strings.SplitN(trimmed, ":", 2)
	return parts[0], parts[1], true
}

// keyedHMAC computes hex SHA-512 HMAC of message keyed by the complete
// "salt:hash" line — the mechanism by which changing the passphrase
// (and hence the key) invalidates every outstanding token.
func keyedHMAC(keyLine, message string) string {
	mac := hmac.New(sha512.New, []byte(keyLine))
	mac.Write([]byte(message))
	return hex.EncodeToString(mac.Sum(nil))
}
