// Package program holds the admission program catalog: one entry per
// (institution, department, admission group), with the formula reference and
// published cutoff thresholds.
package program

import (
	"fmt"
	"strings"

	"github.com/edunav/admitscore/internal/subject"
)

// Cutoffs are the four admission-likelihood thresholds. A nil threshold was
// not published by the institution and is treated as unreachable, never as
// zero.
type Cutoffs struct {
	Safe        *float64 `json:"safe,omitempty"`
	Appropriate *float64 `json:"appropriate,omitempty"`
	Expected    *float64 `json:"expected,omitempty"`
	Challenge   *float64 `json:"challenge,omitempty"`
}

// Entry is one admission program. Entries are immutable after catalog load.
type Entry struct {
	Institution string        `json:"institution"`
	Department  string        `json:"department"`
	Group       string        `json:"group"` // admission group label (가/나/다)
	Track       subject.Track `json:"track,omitempty"`
	FormulaID   string        `json:"formula_id"`
	Cutoffs     Cutoffs       `json:"cutoffs"`
}

// Validate checks the entry is complete and its published thresholds are
// ordered safe >= appropriate >= expected >= challenge.
func (e *Entry) Validate() error {
	if e.Institution == "" || e.Department == "" {
		return fmt.Errorf("program %s/%s: institution and department required", e.Institution, e.Department)
	}
	if e.FormulaID == "" {
		return fmt.Errorf("program %s/%s: formula id required", e.Institution, e.Department)
	}
	prev := (*float64)(nil)
	for _, t := range []*float64{e.Cutoffs.Safe, e.Cutoffs.Appropriate, e.Cutoffs.Expected, e.Cutoffs.Challenge} {
		if t == nil {
			continue
		}
		if prev != nil && *t > *prev {
			return fmt.Errorf("program %s/%s: cutoffs out of order", e.Institution, e.Department)
		}
		prev = t
	}
	return nil
}

// ResolvedTrack returns the entry's track, inferring one from the department
// name when the catalog left it blank.
func (e *Entry) ResolvedTrack() subject.Track {
	if e.Track != "" {
		return e.Track
	}
	return subject.InferTrack(e.Department)
}

// nameNoise lists suffixes and fillers stripped before matching, so formal
// and colloquial institution names ("서울대학교" / "서울대") both match.
var nameNoise = []string{
	"대학교", "대학", "학과", "학부", "전공", "캠퍼스",
	"university", "univ", "college", "department", "dept", "school of",
}

// NormalizeName lowercases, strips spaces, punctuation and legal/organizational
// suffixes. Matching is substring containment over this normal form.
func NormalizeName(s string) string {
	n := strings.ToLower(strings.TrimSpace(s))
	for _, suf := range nameNoise {
		n = strings.ReplaceAll(n, suf, "")
	}
	var b strings.Builder
	for _, r := range n {
		switch r {
		case ' ', '\t', '.', ',', '-', '_', '(', ')', '·':
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// NameMatches reports whether a filter term matches a catalog name, in
// either containment direction after normalization.
func NameMatches(name, filter string) bool {
	nn, nf := NormalizeName(name), NormalizeName(filter)
	if nf == "" {
		return true
	}
	if nn == "" {
		return false
	}
	return strings.Contains(nn, nf) || strings.Contains(nf, nn)
}
