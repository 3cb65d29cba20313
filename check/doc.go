// Package check holds the individual address checks and the Classifier that
// chains them into a single Verdict. The checks are usable on their own, but
// callers normally go through the Validator in github.com/optimode/bulkverify.
package check
