// Package merge implements the enrichment passes that attach auxiliary data to
// a previously built document by exact key correspondence.
//
// Every merge works on a clone of its primary input and returns a Report. A
// key matching several auxiliary records where one is required is always an
// AmbiguousMergeError. Primary records left without a match fail the merge with
// an UnmatchedKeyError unless Options.AllowUnmatched is set, in which case they
// are reported and logged.
package merge

import (
	"fmt"

	"github.com/versekit/versekit/core/errors"
	"github.com/versekit/versekit/core/verse"
	"github.com/versekit/versekit/internal/logging"
)

// Options controls unmatched-key handling.
type Options struct {
	// AllowUnmatched lets a merge finish when some primary records found no
	// auxiliary record. They are listed in Report.Unmatched.
	AllowUnmatched bool
}

// Report summarizes a merge.
type Report struct {
	Document  string
	Matched   int
	Unmatched []verse.Key
}

// Index groups auxiliary records by key.
type Index[K comparable, R any] struct {
	document string
	byKey    map[K][]R
}

// NewIndex indexes records by the key returned from keyFn. document names the
// auxiliary source in errors.
func NewIndex[K comparable, R any](document string, records []R, keyFn func(R) (K, error)) (*Index[K, R], error) {
	ix := &Index[K, R]{
		document: document,
		byKey:    make(map[K][]R, len(records)),
	}
	for i, r := range records {
		k, err := keyFn(r)
		if err != nil {
			return nil, errors.NewMalformed(document, 0, "record %d: %v", i+1, err)
		}
		ix.byKey[k] = append(ix.byKey[k], r)
	}
	return ix, nil
}

// One returns the single record stored under key.
func (ix *Index[K, R]) One(key K) (R, error) {
	matches := ix.byKey[key]
	switch len(matches) {
	case 1:
		return matches[0], nil
	case 0:
		var zero R
		return zero, errors.NewUnmatched(ix.document, fmt.Sprint(key), 1)
	default:
		var zero R
		return zero, errors.NewAmbiguous(ix.document, fmt.Sprint(key), len(matches))
	}
}

// All returns every record stored under key, in input order.
func (ix *Index[K, R]) All(key K) []R {
	return ix.byKey[key]
}

// tracker accumulates match outcomes for a Report.
type tracker struct {
	report Report
}

func newTracker(document string) *tracker {
	return &tracker{report: Report{Document: document}}
}

func (t *tracker) matched() {
	t.report.Matched++
}

func (t *tracker) unmatched(key verse.Key) {
	t.report.Unmatched = append(t.report.Unmatched, key)
}

// lookup resolves key through ix, recording an unmatched key instead of
// failing. Ambiguous keys are returned as errors.
func lookup[R any](t *tracker, ix *Index[verse.Key, R], key verse.Key) (R, bool, error) {
	r, err := ix.One(key)
	if err == nil {
		t.matched()
		return r, true, nil
	}
	if errors.Is(err, errors.ErrUnmatchedKey) {
		t.unmatched(key)
		return r, false, nil
	}
	return r, false, err
}

// finish turns the accumulated outcome into the merge result.
func (t *tracker) finish(opts Options) (Report, error) {
	n := len(t.report.Unmatched)
	if n == 0 {
		return t.report, nil
	}
	first := t.report.Unmatched[0].String()
	if !opts.AllowUnmatched {
		return t.report, errors.NewUnmatched(t.report.Document, first, n)
	}
	logging.MergeDiagnostic(t.report.Document, t.report.Matched, n, first)
	return t.report, nil
}
