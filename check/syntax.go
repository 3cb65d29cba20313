package check

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/optimode/bulkverify/internal/parse"
)

// RFC 5321 size limits.
const (
	MaxAddressLength = 254
	MaxLocalLength   = 64
	MaxDomainLength  = 253
)

// shapePattern is the coarse local@domain.tld test run before the RFC rules.
var shapePattern = regexp.MustCompile(`^.+@[^\s@]+\.[^\s@]+$`)

// SyntaxChecker validates email syntax according to RFC 5321/5322
// with RFC 6531 (SMTPUTF8) and IDNA2008 internationalization support.
type SyntaxChecker struct{}

func NewSyntaxChecker() *SyntaxChecker {
	return &SyntaxChecker{}
}

// Check returns ok=true for a well-formed address, otherwise the reason it was rejected.
func (c *SyntaxChecker) Check(addr parse.Address) (reason string, ok bool) {
	if addr.Trimmed == "" {
		return "empty email address", false
	}
	if !utf8.ValidString(addr.Trimmed) || !addr.Valid || !shapePattern.MatchString(addr.Trimmed) {
		return "invalid email syntax", false
	}

	if len(addr.Trimmed) > MaxAddressLength {
		return "email address exceeds 254 characters", false
	}
	if len(addr.Local) > MaxLocalLength {
		return "local part exceeds 64 characters", false
	}
	if len(addr.Domain) > MaxDomainLength {
		return "domain exceeds 253 characters", false
	}

	// net/mail strips the quotes, so look at the input.
	if !hasQuotedLocal(addr.Trimmed) {
		if msg := validateLocal(addr.Local); msg != "" {
			return msg, false
		}
	}

	// IDNA2008 was already applied while parsing; the Unicode form gives readable messages.
	if msg := validateDomain(addr.DomainUnicode); msg != "" {
		return msg, false
	}
	return "", true
}

func hasQuotedLocal(raw string) bool {
	atIdx := strings.LastIndex(raw, "@")
	if atIdx < 1 {
		return false
	}
	local := raw[:atIdx]
	return len(local) >= 2 && strings.HasPrefix(local, `"`) && strings.HasSuffix(local, `"`)
}

// validateLocal checks an unquoted local part. Returns error text, or "" if ok.
func validateLocal(local string) string {
	if local == "" {
		return "local part is empty"
	}

	const asciiSpecial = "!#$%&'*+/=?^_`{|}~-."
	for _, ch := range local {
		if ch > 127 {
			// RFC 6531 allows non-ASCII, but not control characters.
			if unicode.IsControl(ch) {
				return "local part contains control character"
			}
			continue
		}
		if (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z') || (ch >= '0' && ch <= '9') {
			continue
		}
		if !strings.ContainsRune(asciiSpecial, ch) {
			return "local part contains invalid character: " + string(ch)
		}
	}

	if strings.HasPrefix(local, ".") || strings.HasSuffix(local, ".") {
		return "local part cannot start or end with a dot"
	}
	if strings.Contains(local, "..") {
		return "local part cannot contain consecutive dots"
	}
	return ""
}

// validateDomain checks the Unicode form of a domain. Returns error text, or "" if ok.
func validateDomain(domain string) string {
	if domain == "" {
		return "domain is empty"
	}

	labels := strings.Split(domain, ".")
	if len(labels) < 2 {
		return "domain must have at least two labels"
	}

	for _, label := range labels {
		if label == "" {
			return "domain contains empty label (consecutive dots)"
		}
		if len(label) > 63 {
			return "domain label exceeds 63 characters"
		}
		if strings.HasPrefix(label, "-") || strings.HasSuffix(label, "-") {
			return "domain label cannot start or end with a hyphen"
		}
		for _, ch := range label {
			if !unicode.IsLetter(ch) && !unicode.IsDigit(ch) && !unicode.IsMark(ch) && ch != '-' {
				return "domain label contains invalid character: " + string(ch)
			}
		}
	}

	tld := labels[len(labels)-1]
	if strings.IndexFunc(tld, func(r rune) bool { return !unicode.IsDigit(r) }) < 0 {
		return "TLD cannot be all digits"
	}
	return ""
}
