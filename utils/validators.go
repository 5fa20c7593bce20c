// utils/validators.go
package utils

import (
	"crypto/rand"
	"regexp"
	"strings"
)

var (
	evmAddressRe      = regexp.MustCompile(`^0x[a-fA-F0-9]{40}$`)
	tweetURLRe        = regexp.MustCompile(`^https?://(www\.)?(twitter|x)\.com/\w+/status/\d+`)
	mobileTweetURLRe  = regexp.MustCompile(`^https?://mobile\.(twitter|x)\.com/\w+/status/\d+`)
	tweetIDRe         = regexp.MustCompile(`(?:twitter\.com|x\.com)/\w+/status/(\d+)`)
	twitterUsernameRe = regexp.MustCompile(`^[a-zA-Z0-9_]{1,15}$`)
	referralCodeRe    = regexp.MustCompile(`^[A-Z0-9]{8}$`)
	zeroAddressRe     = regexp.MustCompile(`^0x0+$`)
	maxAddressRe      = regexp.MustCompile(`^0xf+$`)

	botUserAgentRe = regexp.MustCompile(`(?i)bot|crawler|spider|curl|wget|python|httpx`)
)

// MaxSanitizedLength is the default cap applied by SanitizeString.
const MaxSanitizedLength = 500

// secureCodeAlphabet drops 0/O and 1/I.
const secureCodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

func IsValidEvmAddress(address string) bool {
	return evmAddressRe.MatchString(address)
}

// NormalizeAddress is the canonical form used for storage and rate-limit keys.
func NormalizeAddress(address string) string {
	return strings.ToLower(strings.TrimSpace(address))
}

// WalletShortID is the fragment a user must put in a tweet: address chars 2..8, lower-case.
func WalletShortID(address string) string {
	a := NormalizeAddress(address)
	if len(a) < 8 {
		return a
	}
	return a[2:8]
}

func IsValidTwitterURL(url string) bool {
	if url == "" {
		return false
	}
	return tweetURLRe.MatchString(url) || mobileTweetURLRe.MatchString(url)
}

// ExtractTweetID returns the numeric status id, or "" when the URL has none.
func ExtractTweetID(url string) string {
	m := tweetIDRe.FindStringSubmatch(url)
	if len(m) < 2 {
		return ""
	}
	return m[1]
}

func IsValidTwitterUsername(username string) bool {
	return twitterUsernameRe.MatchString(username) && !strings.Contains(username, "__")
}

func IsValidReferralCode(code string) bool {
	return referralCodeRe.MatchString(code)
}

// SanitizeString trims, truncates to maxLength runes and strips angle brackets.
func SanitizeString(input string, maxLength int) string {
	if maxLength <= 0 {
		maxLength = MaxSanitizedLength
	}
	s := []rune(strings.TrimSpace(input))
	if len(s) > maxLength {
		s = s[:maxLength]
	}
	return strings.NewReplacer("<", "", ">", "").Replace(string(s))
}

// DetectSuspiciousActivity returns the reasons a request looks automated or bogus.
func DetectSuspiciousActivity(walletAddress, userAgent string) []string {
	var reasons []string
	if userAgent != "" && botUserAgentRe.MatchString(userAgent) {
		reasons = append(reasons, "Bot-like user agent")
	}
	if walletAddress != "" {
		addr := strings.ToLower(walletAddress)
		if zeroAddressRe.MatchString(addr) || maxAddressRe.MatchString(addr) {
			reasons = append(reasons, "Suspicious wallet address pattern")
		}
	}
	return reasons
}

// GenerateSecureCode draws length characters from the unambiguous alphabet.
func GenerateSecureCode(length int) (string, error) {
	buf := make([]byte, length)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	out := make([]byte, length)
	for i, b := range buf {
		out[i] = secureCodeAlphabet[int(b)%len(secureCodeAlphabet)]
	}
	return string(out), nil
}

// ShortAddress is for log lines only.
func ShortAddress(address string) string {
	if len(address) <= 10 {
		return address
	}
	return address[:10] + "..."
}
