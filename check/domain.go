package check

import (
	"strings"

	"github.com/optimode/bulkverify/internal/disposable"
	"github.com/optimode/bulkverify/internal/freemail"
	"github.com/optimode/bulkverify/internal/parse"
	"github.com/optimode/bulkverify/internal/typo"
	"github.com/optimode/bulkverify/types"
)

// DomainConfig is the domain checker configuration.
type DomainConfig struct {
	// Disposable is the throwaway-domain list. nil uses the embedded list.
	Disposable *disposable.Set
	// TypoThreshold is the largest edit distance still suggested. 0 uses typo.DefaultThreshold.
	TypoThreshold int
	// Providers overrides the typo dictionary. nil uses the public provider list.
	Providers []string
}

// DomainChecker answers the offline domain questions: disposable membership,
// public vs pro, and likely typos of well-known providers.
type DomainChecker struct {
	disposable *disposable.Set
	suggester  *typo.Suggester
}

func NewDomainChecker(cfg DomainConfig) *DomainChecker {
	set := cfg.Disposable
	if set == nil {
		set = disposable.Default()
	}
	providers := cfg.Providers
	if providers == nil {
		providers = freemail.Providers()
	}
	return &DomainChecker{
		disposable: set,
		suggester:  typo.NewSuggester(providers, cfg.TypoThreshold),
	}
}

// IsDisposable checks the ASCII form, which is what the list holds.
func (c *DomainChecker) IsDisposable(addr parse.Address) bool {
	return c.disposable.Contains(addr.Domain)
}

// Type classifies the domain of a raw address. Unparseable input is pro.
func (c *DomainChecker) Type(raw string) types.DomainType {
	if freemail.IsPublic(parse.DomainOf(raw)) {
		return types.TypePublic
	}
	return types.TypePro
}

// Suggest returns the address rewritten onto the closest known provider, or "".
// The Unicode domain is compared, so an IDN typo still reads naturally.
func (c *DomainChecker) Suggest(addr parse.Address) string {
	if !addr.Valid {
		return ""
	}
	fixed, ok := c.suggester.SuggestDomain(addr.DomainUnicode)
	if !ok {
		return ""
	}
	at := strings.LastIndex(addr.Trimmed, "@")
	return addr.Trimmed[:at] + "@" + fixed
}
