package authcommon

import (
	"crypto/subtle"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// TokenVersion is the only token format this guard issues or accepts.
const TokenVersion = 2

// Token is a parsed v2 token: version:created:expires:hmac.
type Token struct {
	Created time.Time
	Expires time.Time
}

// IssueToken creates a v2 token string bound to keyLine (the complete
// "salt:hash" passphrase-hash line), expiring after maxDuration.
func IssueToken(keyLine string, now time.Time, maxDuration time.Duration) string {
	created := now.Unix()
	expires := now.Add(maxDuration).Unix()
	body := fmt.Sprintf("%d:%d:%d", TokenVersion, created, expires)
	mac := keyedHMAC(keyLine, body)
	return body + ":" + mac
}

// VerifyToken parses and validates tokenStr against keyLine at instant
// now. It returns the parsed Token on success. Validity requires the
// HMAC to recompute AND now to be strictly before Expires; callers are
// responsible for also checking the activity file for inactivity
// timeout, since that is orthogonal to the token's own cryptographic
// validity.
func VerifyToken(tokenStr, keyLine string, now time.Time) (Token, error) {
	parts := strings.SplitN(tokenStr, ":", 4)
	if len(parts) != 4 {
		return Token{}, fmt.Errorf("authcommon: malformed token")
	}
	version, created, expires, mac := parts[0], parts[1], parts[2], parts[3]

	if version != strconv.Itoa(TokenVersion) {
		return Token{}, fmt.Errorf("authcommon: unsupported token version %q", version)
	}
	createdUnix, err := strconv.ParseInt(created, 10, 64)
	if err != nil {
		return Token{}, fmt.Errorf("authcommon: malformed created timestamp: %w", err)
	}
	expiresUnix, err := strconv.ParseInt(expires, 10, 64)
	if err != nil {
		return Token{}, fmt.Errorf("authcommon: malformed expires timestamp: %w", err)
	}

	body := fmt.Sprintf("%s:%s:%s", version, created, expires)
	wantMAC := keyedHMAC(keyLine, body)
	if subtle.ConstantTimeCompare([]byte(mac), []byte(wantMAC)) != 1 {
		return Token{}, fmt.Errorf("authcommon: tampered token (hmac mismatch)")
	}

	tok := Token{Created: time.Unix(createdUnix, 0), Expires: time.Unix(expiresUnix, 0)}
	if !now.Before(tok.Expires) {
		return tok, fmt.Errorf("authcommon: expired token")
	}
	return tok, nil
}
