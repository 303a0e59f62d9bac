// Package formula holds the composite-score formula catalog and the engine
// that applies one formula to a canonical score record.
package formula

import (
	"errors"
	"fmt"
	"math"

	"github.com/edunav/admitscore/internal/subject"
)

// Kind is the closed set of formula shapes. Adding an institution means
// adding a catalog entry with one of these kinds, not a new code branch.
type Kind string

const (
	// KindLinear is a plain weighted sum of standard scores.
	KindLinear Kind = "linear"
	// KindLinearTransform is a weighted sum followed by an affine transform.
	KindLinearTransform Kind = "linear_transform"
	// KindPickMax evaluates every variant and keeps the highest final score.
	KindPickMax Kind = "pick_max"
)

// Coefficients are the per-subject weights of one variant. Pass/fail
// subjects never carry coefficients; they enter through deductions.
type Coefficients struct {
	Korean   float64 `json:"korean"`
	Math     float64 `json:"math"`
	Inquiry1 float64 `json:"inquiry1"`
	Inquiry2 float64 `json:"inquiry2"`
}

// Transform is the optional final affine step: final = raw*A + B.
type Transform struct {
	A float64 `json:"a"`
	B float64 `json:"b"`
}

// Variant is one scoring alternative of a formula. Linear kinds have exactly
// one; pick-max kinds have two or more.
type Variant struct {
	Coeff        Coefficients `json:"coeff"`
	InquiryCount int          `json:"inquiry_count"` // 1 or 2
	Transform    *Transform   `json:"transform,omitempty"`
}

// Definition is one catalog formula. Deductions index pass/fail subjects to
// a 9-entry table of grade penalties (index 0 = grade 1).
type Definition struct {
	ID         string                    `json:"id"`
	Kind       Kind                      `json:"kind"`
	Variants   []Variant                 `json:"variants"`
	Bonus      float64                   `json:"bonus,omitempty"`
	Deductions map[subject.ID][9]float64 `json:"deductions,omitempty"`
}

func finite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }

// Validate rejects any definition that could not be scored for some grade
// 1-9. A formula that fails here must never be served; the catalog load
// aborts instead.
func (d *Definition) Validate() error {
	if d.ID == "" {
		return errors.New("formula: empty id")
	}
	switch d.Kind {
	case KindLinear, KindLinearTransform:
		if len(d.Variants) != 1 {
			return fmt.Errorf("formula %s: kind %s wants exactly 1 variant, has %d", d.ID, d.Kind, len(d.Variants))
		}
	case KindPickMax:
		if len(d.Variants) < 2 {
			return fmt.Errorf("formula %s: kind pick_max wants >=2 variants, has %d", d.ID, len(d.Variants))
		}
	default:
		return fmt.Errorf("formula %s: unknown kind %q", d.ID, d.Kind)
	}
	for i, v := range d.Variants {
		for _, c := range []float64{v.Coeff.Korean, v.Coeff.Math, v.Coeff.Inquiry1, v.Coeff.Inquiry2} {
			if !finite(c) {
				return fmt.Errorf("formula %s: variant %d: invalid coefficient", d.ID, i)
			}
		}
		if v.InquiryCount != 1 && v.InquiryCount != 2 {
			return fmt.Errorf("formula %s: variant %d: inquiry count %d (want 1 or 2)", d.ID, i, v.InquiryCount)
		}
		if v.InquiryCount == 1 && v.Coeff.Inquiry2 != 0 {
			return fmt.Errorf("formula %s: variant %d: inquiry2 coefficient with inquiry count 1", d.ID, i)
		}
		if v.Transform != nil {
			if !finite(v.Transform.A) || !finite(v.Transform.B) {
				return fmt.Errorf("formula %s: variant %d: invalid transform", d.ID, i)
			}
			if d.Kind == KindLinear {
				return fmt.Errorf("formula %s: variant %d: transform on linear kind", d.ID, i)
			}
		} else if d.Kind == KindLinearTransform {
			return fmt.Errorf("formula %s: kind linear_transform without transform", d.ID)
		}
	}
	if !finite(d.Bonus) {
		return fmt.Errorf("formula %s: invalid bonus", d.ID)
	}
	for sub, table := range d.Deductions {
		if !subject.IsPassFail(sub) {
			return fmt.Errorf("formula %s: deduction table for non pass/fail subject %s", d.ID, sub)
		}
		for g := 0; g < 9; g++ {
			if !finite(table[g]) || table[g] < 0 {
				return fmt.Errorf("formula %s: %s deduction for grade %d invalid", d.ID, sub, g+1)
			}
			if g > 0 && table[g] < table[g-1] {
				return fmt.Errorf("formula %s: %s deductions decrease at grade %d", d.ID, sub, g+1)
			}
		}
	}
	return nil
}

// Catalog is the immutable, validated formula registry.
type Catalog struct {
	defs map[string]*Definition
}

// NewCatalog validates every definition up front. Any invalid formula fails
// the whole load.
func NewCatalog(defs []Definition) (*Catalog, error) {
	c := &Catalog{defs: make(map[string]*Definition, len(defs))}
	for i := range defs {
		d := &defs[i]
		if err := d.Validate(); err != nil {
			return nil, err
		}
		if _, dup := c.defs[d.ID]; dup {
			return nil, fmt.Errorf("formula %s: duplicate id", d.ID)
		}
		c.defs[d.ID] = d
	}
	return c, nil
}

// Get returns a definition by id.
func (c *Catalog) Get(id string) (*Definition, bool) {
	d, ok := c.defs[id]
	return d, ok
}

// Len returns the number of formulas.
func (c *Catalog) Len() int { return len(c.defs) }
