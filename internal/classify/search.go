package classify

import (
	"errors"
	"runtime"
	"sort"
	"sync"

	"github.com/edunav/admitscore/internal/formula"
	"github.com/edunav/admitscore/internal/program"
	"github.com/edunav/admitscore/internal/scale"
	"github.com/edunav/admitscore/internal/subject"
)

// Filters narrow a reverse search. Name filters are substring-matched on
// normalized names; an unmatched filter yields an empty result set.
type Filters struct {
	Institutions []string      `json:"institutions,omitempty"`
	Departments  []string      `json:"departments,omitempty"`
	Group        string        `json:"group,omitempty"`
	Track        subject.Track `json:"track,omitempty"`
	Band         *Band         `json:"band,omitempty"`
}

// Ranked is one scored and classified program.
type Ranked struct {
	Entry     program.Entry     `json:"entry"`
	Composite formula.Composite `json:"composite"`
	Band      Band              `json:"band"`
	BandName  string            `json:"band_name"`
}

// Excluded reports a program that could not be scored against this record.
type Excluded struct {
	Institution string `json:"institution"`
	Department  string `json:"department"`
	Reason      string `json:"reason"`
}

// SearchResult is the ordered result set plus the entries dropped along the
// way, so callers can disclose what was skipped and why.
type SearchResult struct {
	Results  []Ranked   `json:"results"`
	Excluded []Excluded `json:"excluded,omitempty"`
}

// Engine runs reverse searches over an immutable formula and program
// catalog. Safe for concurrent use; a search holds no state.
type Engine struct {
	formulas *formula.Catalog
	programs []program.Entry
}

// NewEngine builds a search engine over validated catalogs.
func NewEngine(formulas *formula.Catalog, programs []program.Entry) *Engine {
	return &Engine{formulas: formulas, programs: programs}
}

// Programs exposes the catalog entries (read-only) for listing endpoints.
func (e *Engine) Programs() []program.Entry { return e.programs }

func matchesAny(name string, filters []string) bool {
	if len(filters) == 0 {
		return true
	}
	for _, f := range filters {
		if program.NameMatches(name, f) {
			return true
		}
	}
	return false
}

func (e *Engine) accepts(entry *program.Entry, f Filters) bool {
	if !matchesAny(entry.Institution, f.Institutions) {
		return false
	}
	if !matchesAny(entry.Department, f.Departments) {
		return false
	}
	if f.Group != "" && entry.Group != f.Group {
		return false
	}
	if f.Track != "" && entry.ResolvedTrack() != f.Track {
		return false
	}
	return true
}

// Search scores every catalog entry passing the filters, classifies it, and
// returns results ordered by (band, score desc, institution, department).
// Entries are scored independently across worker goroutines; the final sort
// keys never include catalog order, so results are stable across restarts.
func (e *Engine) Search(rec scale.Record, f Filters) SearchResult {
	candidates := make([]*program.Entry, 0, len(e.programs))
	for i := range e.programs {
		if e.accepts(&e.programs[i], f) {
			candidates = append(candidates, &e.programs[i])
		}
	}

	workers := runtime.GOMAXPROCS(0)
	if workers > len(candidates) {
		workers = len(candidates)
	}
	if workers < 1 {
		workers = 1
	}

	type shard struct {
		ranked   []Ranked
		excluded []Excluded
	}
	shards := make([]shard, workers)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := w; i < len(candidates); i += workers {
				entry := candidates[i]
				comp, err := e.formulas.Score(entry.FormulaID, rec)
				if err != nil {
					shards[w].excluded = append(shards[w].excluded, Excluded{
						Institution: entry.Institution,
						Department:  entry.Department,
						Reason:      exclusionReason(err),
					})
					continue
				}
				b := Classify(comp.Final, entry.Cutoffs)
				shards[w].ranked = append(shards[w].ranked, Ranked{
					Entry: *entry, Composite: comp, Band: b, BandName: b.String(),
				})
			}
		}(w)
	}
	wg.Wait()

	var out SearchResult
	for _, s := range shards {
		out.Results = append(out.Results, s.ranked...)
		out.Excluded = append(out.Excluded, s.excluded...)
	}
	if f.Band != nil {
		kept := out.Results[:0]
		for _, r := range out.Results {
			if r.Band == *f.Band {
				kept = append(kept, r)
			}
		}
		out.Results = kept
	}

	sort.Slice(out.Results, func(i, j int) bool {
		a, b := out.Results[i], out.Results[j]
		if a.Band != b.Band {
			return a.Band < b.Band
		}
		if a.Composite.Final != b.Composite.Final {
			return a.Composite.Final > b.Composite.Final
		}
		if a.Entry.Institution != b.Entry.Institution {
			return a.Entry.Institution < b.Entry.Institution
		}
		return a.Entry.Department < b.Entry.Department
	})
	sort.Slice(out.Excluded, func(i, j int) bool {
		a, b := out.Excluded[i], out.Excluded[j]
		if a.Institution != b.Institution {
			return a.Institution < b.Institution
		}
		return a.Department < b.Department
	})
	return out
}

func exclusionReason(err error) string {
	var missing *formula.MissingSubjectError
	switch {
	case errors.As(err, &missing):
		return "missing subject: " + string(missing.Subject)
	case errors.Is(err, formula.ErrUnknownFormula):
		return "unknown formula"
	default:
		return err.Error()
	}
}
