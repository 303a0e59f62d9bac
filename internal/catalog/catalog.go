// Package catalog loads the versioned data bundle (score tables, grade
// cuts, formulas, program entries), validates it exhaustively, and exposes
// it as an immutable snapshot that can be hot-swapped atomically.
package catalog

import (
	"encoding/json"
	"fmt"
	"os"
	"sync/atomic"

	"github.com/edunav/admitscore/internal/classify"
	"github.com/edunav/admitscore/internal/formula"
	"github.com/edunav/admitscore/internal/program"
	"github.com/edunav/admitscore/internal/scale"
)

// Bundle is the on-disk catalog format: one self-describing JSON document
// per admissions year.
type Bundle struct {
	Version   string                `json:"version"`
	Year      int                   `json:"year"`
	Tables    []scale.ScoreTable    `json:"tables"`
	GradeCuts []scale.GradeCutTable `json:"grade_cuts"`
	Formulas  []formula.Definition  `json:"formulas"`
	Programs  []program.Entry       `json:"programs"`
}

// Snapshot is a fully validated, immutable catalog. All requests in flight
// share one snapshot; a reload builds a new one and swaps the pointer.
type Snapshot struct {
	Version   string
	Year      int
	Converter *scale.Converter
	Formulas  *formula.Catalog
	Engine    *classify.Engine
}

// LoadError is fatal: a bundle that fails validation must block startup (or
// leave the previous snapshot serving, on reload).
type LoadError struct {
	Version string
	Err     error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("catalog %q: %v", e.Version, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// Build validates every part of the bundle and assembles the snapshot.
// Validation is exhaustive: one bad formula or program entry fails the whole
// bundle rather than being skipped silently.
func Build(b *Bundle) (*Snapshot, error) {
	fail := func(err error) (*Snapshot, error) {
		return nil, &LoadError{Version: b.Version, Err: err}
	}
	if len(b.Tables) == 0 {
		return fail(fmt.Errorf("no score tables"))
	}
	conv, err := scale.NewConverter(b.Tables, b.GradeCuts)
	if err != nil {
		return fail(err)
	}
	formulas, err := formula.NewCatalog(b.Formulas)
	if err != nil {
		return fail(err)
	}
	for i := range b.Programs {
		e := &b.Programs[i]
		if err := e.Validate(); err != nil {
			return fail(err)
		}
		if _, ok := formulas.Get(e.FormulaID); !ok {
			return fail(fmt.Errorf("program %s/%s: references unknown formula %q", e.Institution, e.Department, e.FormulaID))
		}
	}
	return &Snapshot{
		Version:   b.Version,
		Year:      b.Year,
		Converter: conv,
		Formulas:  formulas,
		Engine:    classify.NewEngine(formulas, b.Programs),
	}, nil
}

// LoadFile reads and builds a bundle from a JSON file.
func LoadFile(path string) (*Snapshot, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, &LoadError{Version: path, Err: err}
	}
	var b Bundle
	if err := json.Unmarshal(raw, &b); err != nil {
		return nil, &LoadError{Version: path, Err: fmt.Errorf("parse: %w", err)}
	}
	return Build(&b)
}

// Holder publishes the current snapshot. Swap is atomic: readers either see
// the old fully built snapshot or the new one, never a partial load.
type Holder struct {
	p atomic.Pointer[Snapshot]
}

// NewHolder starts with an initial snapshot.
func NewHolder(s *Snapshot) *Holder {
	h := &Holder{}
	h.p.Store(s)
	return h
}

// Current returns the serving snapshot.
func (h *Holder) Current() *Snapshot { return h.p.Load() }

// Swap publishes a new snapshot.
func (h *Holder) Swap(s *Snapshot) { h.p.Store(s) }
