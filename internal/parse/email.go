// Package parse splits raw address strings into their working parts.
package parse

import (
	"net/mail"
	"strings"

	"golang.org/x/net/idna"
)

// Address is the parsed working copy of a raw input address.
// The raw input is never modified; Trimmed keeps the original casing.
type Address struct {
	Raw           string // the input exactly as received
	Trimmed       string // Raw without surrounding whitespace, casing preserved
	Local         string // the part before the last @
	Domain        string // lower-cased ASCII/Punycode form (for DNS)
	DomainUnicode string // lower-cased Unicode form (for display/typo detection)
	Valid         bool   // false if Trimmed cannot be split into local@domain
}

// Key returns the comparison key used for duplicate detection.
func (a Address) Key() string {
	return Key(a.Raw)
}

// Key trims and case-folds a raw address.
func Key(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}

// NewAddress parses the given address. Display-name forms such as
// "Jane <jane@example.com>" are not accepted: list entries must be bare addresses.
// If parsing fails, Valid=false but Raw and Trimmed are always populated.
func NewAddress(raw string) Address {
	trimmed := strings.TrimSpace(raw)
	base := Address{Raw: raw, Trimmed: trimmed}
	if trimmed == "" || strings.ContainsAny(trimmed, "<>") {
		return base
	}

	// Angle form keeps net/mail from treating anything as a display name.
	// It handles quoted local parts; everything else goes through the manual split.
	if addr, err := mail.ParseAddress("<" + trimmed + ">"); err == nil {
		at := strings.LastIndex(addr.Address, "@")
		if at > 0 && at < len(addr.Address)-1 {
			return build(base, addr.Address[:at], addr.Address[at+1:])
		}
	}

	at := strings.LastIndex(trimmed, "@")
	if at < 1 || at >= len(trimmed)-1 {
		return base
	}
	return build(base, trimmed[:at], trimmed[at+1:])
}

// DomainOf returns the lower-cased text after the last @, or "" when there is none.
// It does no validation and is meant for classifying rejected addresses.
func DomainOf(raw string) string {
	raw = strings.TrimSpace(raw)
	at := strings.LastIndex(raw, "@")
	if at < 0 || at == len(raw)-1 {
		return ""
	}
	return strings.ToLower(raw[at+1:])
}

func build(base Address, local, domain string) Address {
	ascii, unicode, ok := convertDomain(strings.ToLower(domain))
	if !ok {
		return base
	}
	base.Local = local
	base.Domain = ascii
	base.DomainUnicode = unicode
	base.Valid = true
	return base
}

// convertDomain converts a domain to both ASCII/Punycode and Unicode forms.
// ok is false if the domain contains non-ASCII characters that fail IDNA2008 validation.
func convertDomain(domain string) (ascii, unicode string, ok bool) {
	for _, r := range domain {
		if r > 127 {
			a, err := idna.Lookup.ToASCII(domain)
			if err != nil {
				return "", "", false
			}
			return a, domain, true
		}
	}

	// Existing Punycode like xn--mnchen-3ya.de gets a readable form.
	u, err := idna.Display.ToUnicode(domain)
	if err != nil {
		u = domain
	}
	return domain, u, true
}
