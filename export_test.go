package bulkverify

import "context"

type classifyFunc func(ctx context.Context, raw string) Verdict

func (f classifyFunc) Classify(ctx context.Context, raw string) Verdict { return f(ctx, raw) }

// WithClassifyFunc replaces the classifier.
func (v *Validator) WithClassifyFunc(fn func(ctx context.Context, raw string) Verdict) *Validator {
	v.classifier = classifyFunc(fn)
	return v
}

// NormalizeOptions applies the defaults and clamps used by New.
func NormalizeOptions(o Options) Options { return o.withDefaults() }
