// Package classify decides subscriber presence from switch output by ordered
// case-insensitive substring matching against two pattern lists.
package classify

import "strings"

type Verdict string

const (
	VerdictFound     Verdict = "found"
	VerdictNotFound  Verdict = "not_found"
	VerdictAmbiguous Verdict = "ambiguous"
)

// Found reports whether the verdict counts as a hit. Ambiguous output counts
// as a miss: when neither list matches we assume the subscriber is absent.
func (v Verdict) Found() bool {
	return v == VerdictFound
}

type Result struct {
	Verdict  Verdict
	Evidence string // the normalized text the verdict was derived from
}

type Classifier struct {
	notFound []string
	found    []string
}

// New builds a classifier from the "definitely absent" and "definitely
// present" pattern lists. Patterns are matched case-insensitively, in order.
func New(notFound, found []string) *Classifier {
	return &Classifier{
		notFound: upperAll(notFound),
		found:    upperAll(found),
	}
}

// Classify checks the absent list before the present list, so an absent
// marker wins even if a present marker also appears in the same output.
func (c *Classifier) Classify(text string) Result {
	upper := strings.ToUpper(text)

	for _, p := range c.notFound {
		if strings.Contains(upper, p) {
			return Result{Verdict: VerdictNotFound, Evidence: text}
		}
	}
	for _, p := range c.found {
		if strings.Contains(upper, p) {
			return Result{Verdict: VerdictFound, Evidence: text}
		}
	}
	return Result{Verdict: VerdictAmbiguous, Evidence: text}
}

// Matches reports whether any of patterns occurs in text, ignoring case.
// Used by the session layer to spot abort markers in a single response.
func Matches(text string, patterns []string) bool {
	upper := strings.ToUpper(text)
	for _, p := range patterns {
		if strings.Contains(upper, strings.ToUpper(p)) {
			return true
		}
	}
	return false
}

func upperAll(in []string) []string {
	out := make([]string, len(in))
	for i, s := range in {
		out[i] = strings.ToUpper(s)
	}
	return out
}
