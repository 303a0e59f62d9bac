// Package classify evaluates a canonical score record against the program
// catalog and buckets each program into an admission-likelihood band.
package classify

import (
	"github.com/edunav/admitscore/internal/program"
)

// Band is an ordered admission-likelihood classification; lower is safer.
type Band int

const (
	BandSafe Band = iota
	BandAppropriate
	BandReach
	BandStretch
	BandDifficult
)

var bandNames = [...]string{"safe", "appropriate", "reach", "stretch", "difficult"}

func (b Band) String() string {
	if b < BandSafe || b > BandDifficult {
		return "unknown"
	}
	return bandNames[b]
}

// ParseBand resolves a band filter value; second return is false for
// unrecognized names.
func ParseBand(s string) (Band, bool) {
	for i, n := range bandNames {
		if n == s {
			return Band(i), true
		}
	}
	return 0, false
}

// Classify buckets a composite score against the entry's thresholds, checked
// strictly in safe → challenge order. A nil threshold never satisfies, so an
// entry with only a challenge cutoff can still classify every score.
func Classify(score float64, c program.Cutoffs) Band {
	reached := func(t *float64) bool { return t != nil && score >= *t }
	switch {
	case reached(c.Safe):
		return BandSafe
	case reached(c.Appropriate):
		return BandAppropriate
	case reached(c.Expected):
		return BandReach
	case reached(c.Challenge):
		return BandStretch
	default:
		return BandDifficult
	}
}
