package policy

// Default returns the guard's built-in pattern catalogue, loaded when no
// policy configuration file is present — matching the teacher's
// graceful-fallback-to-hardcoded-defaults convention. Patterns are
// deliberately conservative: a command must look unambiguously
// destructive to land in CRITICAL or ALWAYS-BLOCK; anything merely
// credential-adjacent is WARN.
func Default() *Catalogue {
	c := NewCatalogue()

	c.AddCritical(
		Match("fork-bomb", `:\(\)\s*\{\s*:\s*\|\s*:\s*&\s*\}\s*;\s*:`),
		Match("disk-wipe", `\b(dd)\b.*\bof=/dev/(sd|hd|nvme|xvd)[a-z0-9]*\b`),
		Match("mkfs-block-device", `\bmkfs(\.\w+)?\s+/dev/(sd|hd|nvme|xvd)[a-z0-9]*\b`),
		Match("rm-rf-root", `\brm\s+-[a-zA-Z]*[rf][a-zA-Z]*\s+(/|/\*|/bin|/boot|/etc|/usr|/var|/sys|/proc)(\s|$)`),
		Match("shadow-write", `>\s*/etc/(shadow|gshadow)\b`),
		Match("sudoers-write", `>\s*/etc/sudoers\b`),
		Match("cloud-metadata-ssrf", `\b(curl|wget)\b.*\b(169\.254\.169\.254|metadata\.google\.internal)\b`),
	)

	c.AddAlwaysBlock(
		Match("force-push-protected", `\bgit\s+push\s+.*--force\b.*\b(main|master|production)\b`),
		Match("chmod-777-root", `\bchmod\s+(-R\s+)?777\s+/(\s|$)`),
		Match("curl-pipe-shell", `\b(curl|wget)\b[^|]*\|\s*(sudo\s+)?(bash|sh|zsh)\b`),
	)

	c.AddWarn(
		Match("credential-env-pattern", `(?i)\b(api[_-]?key|secret|password|passwd|token)\s*=\s*['"]?[A-Za-z0-9/+_=-]{8,}`),
		Match("private-key-literal", `(?i)BEGIN\s+(RSA|OPENSSH|EC|DSA)?\s*PRIVATE KEY`),
		Match("connection-string", `(?i)\b(postgres|postgresql|mysql|mongodb)://[^@]+@`),
	)

	return c
}

// HookSelfProtection returns SUPERADMIN-REQUIRED patterns for the
// guard's own files other than the hook entrypoint (the entrypoint
// itself is CRITICAL, handled separately via zone.Classifier.
// IsHookEntrypoint since it depends on the configured data directory,
// not a fixed literal).
func HookSelfProtection(dataDirEscaped string) []Pattern {
	return []Pattern{
		Match("wow-self-policy-file", dataDirEscaped+`/policy/`),
		Match("wow-self-bypass-dir", dataDirEscaped+`/bypass/`),
		Match("wow-self-superadmin-dir", dataDirEscaped+`/superadmin/`),
	}
}
