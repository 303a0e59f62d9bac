// Package scale converts partial score observations (raw score, standard
// score, percentile or grade) into fully populated canonical score records,
// using per-subject lookup tables and grade-cut tables for elective subjects.
package scale

import (
	"fmt"
	"math"
	"sort"

	"github.com/edunav/admitscore/internal/subject"
)

// Provenance records how a canonical value was obtained.
type Provenance string

const (
	ProvExact           Provenance = "exact"
	ProvInterpolated    Provenance = "interpolated"
	ProvExtrapolatedLow Provenance = "extrapolated_low"
	ProvFromGrade       Provenance = "estimated_from_grade"
	ProvFromPeers       Provenance = "estimated_from_peers"
)

// Row is one entry of a score table: a standard score with its published
// percentile and grade.
type Row struct {
	Std        float64 `json:"std"`
	Percentile float64 `json:"percentile"`
	Grade      int     `json:"grade"`
}

// ScoreTable maps one subject's standard-score axis to percentile and grade.
// Rows are kept sorted by descending standard score.
type ScoreTable struct {
	Subject subject.ID `json:"subject"`
	Rows    []Row      `json:"rows"`
}

func (t *ScoreTable) sortRows() {
	sort.Slice(t.Rows, func(i, j int) bool { return t.Rows[i].Std > t.Rows[j].Std })
}

// Validate checks the table is usable: non-empty, grades legal, and both
// standard score and percentile monotone in table order.
func (t *ScoreTable) Validate() error {
	if len(t.Rows) == 0 {
		return fmt.Errorf("score table %s: no rows", t.Subject)
	}
	t.sortRows()
	for i, r := range t.Rows {
		if !subject.ValidGrade(r.Grade) {
			return fmt.Errorf("score table %s: row %d: grade %d out of range", t.Subject, i, r.Grade)
		}
		if r.Percentile < 0 || r.Percentile > 100 {
			return fmt.Errorf("score table %s: row %d: percentile %.2f out of range", t.Subject, i, r.Percentile)
		}
		if i > 0 && r.Percentile > t.Rows[i-1].Percentile {
			return fmt.Errorf("score table %s: row %d: percentile not monotone", t.Subject, i)
		}
	}
	return nil
}

// ByStandard returns the row whose standard score equals v exactly.
func (t *ScoreTable) ByStandard(v float64) (Row, bool) {
	for _, r := range t.Rows {
		if r.Std == v {
			return r, true
		}
	}
	return Row{}, false
}

// ByPercentile returns the row whose percentile equals p exactly.
func (t *ScoreTable) ByPercentile(p float64) (Row, bool) {
	for _, r := range t.Rows {
		if r.Percentile == p {
			return r, true
		}
	}
	return Row{}, false
}

// nearest picks the row minimizing |axis(row)-v|. Ties go to the row whose
// percentile is closest to the table center (50), then to the lower standard
// score, so the result never depends on row order.
func (t *ScoreTable) nearest(v float64, axis func(Row) float64) Row {
	best := t.Rows[0]
	bestDiff := math.Abs(axis(best) - v)
	for _, r := range t.Rows[1:] {
		d := math.Abs(axis(r) - v)
		switch {
		case d < bestDiff:
			best, bestDiff = r, d
		case d == bestDiff:
			cb := math.Abs(best.Percentile - 50)
			cr := math.Abs(r.Percentile - 50)
			if cr < cb || (cr == cb && r.Std < best.Std) {
				best = r
			}
		}
	}
	return best
}

// NearestByStandard returns the row with the closest standard score.
func (t *ScoreTable) NearestByStandard(v float64) Row {
	return t.nearest(v, func(r Row) float64 { return r.Std })
}

// NearestByPercentile returns the row with the closest percentile.
func (t *ScoreTable) NearestByPercentile(p float64) Row {
	return t.nearest(p, func(r Row) float64 { return r.Percentile })
}

// GradeCut is one raw-score breakpoint of a grade-cut table: the minimum raw
// score for a grade, with that boundary's standard score and percentile.
type GradeCut struct {
	Grade      int     `json:"grade"`
	RawCut     float64 `json:"raw_cut"`
	Std        float64 `json:"std"`
	Percentile float64 `json:"percentile"`
}

// GradeCutTable holds the published grade cuts for one elective of an
// elective-bearing subject, ordered by descending raw cut (grade 1 first).
type GradeCutTable struct {
	Subject  subject.ID       `json:"subject"`
	Elective subject.Elective `json:"elective"`
	Cuts     []GradeCut       `json:"cuts"`
}

func (t *GradeCutTable) sortCuts() {
	sort.Slice(t.Cuts, func(i, j int) bool { return t.Cuts[i].RawCut > t.Cuts[j].RawCut })
}

// Validate checks ordering and ranges. Raw cuts must strictly decrease as
// grades worsen; grades must be a run starting at 1.
func (t *GradeCutTable) Validate() error {
	if len(t.Cuts) == 0 {
		return fmt.Errorf("grade cuts %s/%s: no cuts", t.Subject, t.Elective)
	}
	t.sortCuts()
	for i, c := range t.Cuts {
		if c.Grade != i+1 {
			return fmt.Errorf("grade cuts %s/%s: cut %d has grade %d, want %d", t.Subject, t.Elective, i, c.Grade, i+1)
		}
		if c.Percentile < 0 || c.Percentile > 100 {
			return fmt.Errorf("grade cuts %s/%s: grade %d percentile out of range", t.Subject, t.Elective, c.Grade)
		}
		if i > 0 && c.RawCut >= t.Cuts[i-1].RawCut {
			return fmt.Errorf("grade cuts %s/%s: raw cuts not strictly decreasing at grade %d", t.Subject, t.Elective, c.Grade)
		}
	}
	return nil
}

// lerp maps x from [x0,x1] onto [y0,y1] linearly.
func lerp(x, x0, x1, y0, y1 float64) float64 {
	if x1 == x0 {
		return y0
	}
	return y0 + (x-x0)*(y1-y0)/(x1-x0)
}

// Resolve converts a raw score to (grade, std, percentile, provenance) using
// the cut table.
//
//   - At or above the top cut: top band, exact values of the grade-1 cut.
//   - Exactly on any cut: that cut's grade and values.
//   - Between two cuts: std and percentile interpolate linearly; the grade is
//     the lower (worse) grade of the bracket, since the upper grade's cut was
//     not reached.
//   - Below the lowest cut: one grade below the lowest tabulated grade
//     (capped at 9), at the lowest cut's values, tagged extrapolated-low.
func (t *GradeCutTable) Resolve(raw float64) (Row, Provenance) {
	top := t.Cuts[0]
	if raw >= top.RawCut {
		return Row{Std: top.Std, Percentile: top.Percentile, Grade: top.Grade}, ProvExact
	}
	for i := 1; i < len(t.Cuts); i++ {
		upper, lower := t.Cuts[i-1], t.Cuts[i]
		if raw == lower.RawCut {
			return Row{Std: lower.Std, Percentile: lower.Percentile, Grade: lower.Grade}, ProvExact
		}
		if raw > lower.RawCut {
			return Row{
				Std:        lerp(raw, lower.RawCut, upper.RawCut, lower.Std, upper.Std),
				Percentile: lerp(raw, lower.RawCut, upper.RawCut, lower.Percentile, upper.Percentile),
				Grade:      lower.Grade,
			}, ProvInterpolated
		}
	}
	bottom := t.Cuts[len(t.Cuts)-1]
	g := bottom.Grade + 1
	if g > 9 {
		g = 9
	}
	return Row{Std: bottom.Std, Percentile: bottom.Percentile, Grade: g}, ProvExtrapolatedLow
}
