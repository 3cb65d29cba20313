package bulkverify

import (
	"context"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/optimode/bulkverify/internal/freemail"
	"github.com/optimode/bulkverify/internal/logging"
	"github.com/optimode/bulkverify/internal/parse"
	"github.com/optimode/bulkverify/types"
)

// run classifies addrs in consecutive windows of at most size addresses and
// hands each settled window, in input order, to emit. start is the index of
// the window's first address. A window starts only after the previous one was
// emitted, and pause is waited between windows.
//
// Classification runs on a context detached from ctx, so lookups already in
// flight finish and populate the cache. ctx only decides whether another
// window starts.
func (v *Validator) run(ctx context.Context, addrs []string, size int, pause time.Duration, emit func(start int, window []Verdict) error) error {
	work := context.WithoutCancel(ctx)

	for start := 0; start < len(addrs); start += size {
		if start > 0 && pause > 0 {
			timer := time.NewTimer(pause)
			select {
			case <-timer.C:
			case <-ctx.Done():
				timer.Stop()
			}
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		end := min(start+size, len(addrs))
		verdicts := make([]Verdict, end-start)
		filled := make([]bool, end-start)

		var g errgroup.Group
		g.SetLimit(size)
		for i, raw := range addrs[start:end] {
			g.Go(func() error {
				verdicts[i] = v.classifyOne(work, raw)
				filled[i] = true
				return nil
			})
		}
		_ = g.Wait()

		for i, ok := range filled {
			if !ok {
				v.logger.Error("verdict slot left empty", "index", start+i)
				return fmt.Errorf("%w: no verdict for index %d", ErrInternal, start+i)
			}
		}
		if err := emit(start, verdicts); err != nil {
			return err
		}
	}
	return nil
}

// classifyOne isolates a single address: a panic becomes an error verdict for
// that address only.
func (v *Validator) classifyOne(ctx context.Context, raw string) (verdict Verdict) {
	defer func() {
		p := recover()
		if p == nil {
			return
		}
		v.logger.Error("classification failed", logging.Email(raw), "panic", p)
		domainType := types.TypePro
		if freemail.IsPublic(parse.DomainOf(raw)) {
			domainType = types.TypePublic
		}
		verdict = Verdict{
			Email:  strings.TrimSpace(raw),
			Result: ResultError,
			Type:   domainType,
			Score:  types.ScoreRejected,
			Reason: fmt.Sprint(p),
		}
	}()
	return v.classifier.Classify(ctx, raw)
}
