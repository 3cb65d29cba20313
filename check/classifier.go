package check

import (
	"context"

	"github.com/optimode/bulkverify/internal/parse"
	"github.com/optimode/bulkverify/types"
)

// Reasons attached to verdicts that are not syntax failures.
const (
	ReasonDisposable     = "disposable email domain"
	ReasonNoMX           = "no MX records found for domain"
	ReasonDeliverable    = "MX records found"
	ReasonDeliverableSPF = "MX and SPF records found"
)

// Classifier turns one raw address into a Verdict. Steps run in order and the
// first conclusive one wins: syntax, disposable, then DNS.
type Classifier struct {
	syntax *SyntaxChecker
	domain *DomainChecker
	dns    *DNSChecker
}

func NewClassifier(domain *DomainChecker, dns *DNSChecker) *Classifier {
	return &Classifier{
		syntax: NewSyntaxChecker(),
		domain: domain,
		dns:    dns,
	}
}

// Classify never fails; problems are expressed in the verdict.
func (c *Classifier) Classify(ctx context.Context, raw string) types.Verdict {
	addr := parse.NewAddress(raw)
	v := types.Verdict{
		Email: addr.Trimmed,
		Type:  c.domain.Type(addr.Trimmed),
	}

	if reason, ok := c.syntax.Check(addr); !ok {
		v.Result, v.Score, v.Reason = types.ResultInvalidFormat, types.ScoreRejected, reason
		return v
	}

	v.TypoSuggestion = c.domain.Suggest(addr)

	if c.domain.IsDisposable(addr) {
		v.Result, v.Score, v.Reason = types.ResultDisposable, types.ScoreRejected, ReasonDisposable
		return v
	}

	hasMX, hasSPF := c.dns.Check(ctx, addr)
	switch {
	case !hasMX:
		v.Result, v.Score, v.Reason = types.ResultUndeliverable, types.ScoreUndeliverable, ReasonNoMX
	case hasSPF:
		v.Result, v.Score, v.Reason = types.ResultDeliverable, types.ScoreDeliverableSPF, ReasonDeliverableSPF
	default:
		v.Result, v.Score, v.Reason = types.ResultDeliverable, types.ScoreDeliverable, ReasonDeliverable
	}
	return v
}
