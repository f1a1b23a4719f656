package membership

import (
	"crypto/rand"
	"fmt"
	"io"
	"strings"
	"time"
)

const (
	invitationPrefix   = "SW-"
	invitationLength   = 6
	invitationAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

	authorizationPrefix    = "SW-0"
	authorizationFallback  = "8888"
	authorizationDateStamp = "060102"
)

// CodeGenerator issues invitation codes. The zero value reads from crypto/rand.
type CodeGenerator struct {
	// Rand overrides the entropy source, mainly for tests.
	Rand io.Reader
}

// GenerateInvitationCode returns "SW-" followed by six characters from [A-Z0-9].
// Codes are random, not guaranteed unique; callers needing uniqueness must
// check them against their account registry.
func (g *CodeGenerator) GenerateInvitationCode() (string, error) {
	src := io.Reader(rand.Reader)
	if g != nil && g.Rand != nil {
		src = g.Rand
	}

	// Bytes at or above the largest multiple of the alphabet size are
	// discarded so every character is equally likely.
	limit := byte(256 - 256%len(invitationAlphabet))
	code := make([]byte, 0, invitationLength)
	buf := make([]byte, invitationLength)
	for len(code) < invitationLength {
		if _, err := io.ReadFull(src, buf); err != nil {
			return "", fmt.Errorf("read invitation entropy: %w", err)
		}
		for _, b := range buf {
			if b >= limit {
				continue
			}
			code = append(code, invitationAlphabet[int(b)%len(invitationAlphabet)])
			if len(code) == invitationLength {
				break
			}
		}
	}
	return invitationPrefix + string(code), nil
}

// GenerateAuthorizationCode builds the free-tier binding code
// SW-0-{last four phone digits}-{trading account}-{YYMMDD}. Phones shorter
// than four characters use 8888. The date is the UTC calendar day of issueDate.
func GenerateAuthorizationCode(phone, tradingAccountID string, issueDate time.Time) (string, error) {
	tradingAccountID = strings.TrimSpace(tradingAccountID)
	if !isDigits(tradingAccountID) {
		return "", ErrMissingAccountID
	}

	suffix := authorizationFallback
	if len(phone) >= 4 {
		suffix = phone[len(phone)-4:]
	}

	return strings.Join([]string{
		authorizationPrefix,
		suffix,
		tradingAccountID,
		issueDate.UTC().Format(authorizationDateStamp),
	}, "-"), nil
}

// isDigits reports whether s is non-empty and made only of ASCII digits.
func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
