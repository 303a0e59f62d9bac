package formula

import (
	"errors"
	"fmt"

	"github.com/edunav/admitscore/internal/scale"
	"github.com/edunav/admitscore/internal/subject"
)

// ErrUnknownFormula is returned when a formula id is absent from the catalog.
var ErrUnknownFormula = errors.New("unknown formula")

// MissingSubjectError reports a subject the formula requires but the record
// lacks.
type MissingSubjectError struct {
	FormulaID string
	Subject   subject.ID
}

func (e *MissingSubjectError) Error() string {
	return fmt.Sprintf("formula %s: missing required subject %s", e.FormulaID, e.Subject)
}

// Composite is one scored result with every intermediate quantity preserved
// for display: per-subject contributions, bonus, deductions, the
// pre-transform raw value and the final value.
type Composite struct {
	FormulaID     string                 `json:"formula_id"`
	Contributions map[subject.ID]float64 `json:"contributions"`
	Bonus         float64                `json:"bonus"`
	Deductions    map[subject.ID]float64 `json:"deductions,omitempty"`
	Raw           float64                `json:"raw"`
	Final         float64                `json:"final"`
	Variant       int                    `json:"variant"`
}

// Score applies the formula to a canonical record. Evaluation is pure and
// deterministic: addition follows the declared subject order, so identical
// inputs yield bit-identical output.
func (c *Catalog) Score(id string, rec scale.Record) (Composite, error) {
	d, ok := c.defs[id]
	if !ok {
		return Composite{}, fmt.Errorf("%w: %s", ErrUnknownFormula, id)
	}

	best := Composite{}
	for i, v := range d.Variants {
		comp, err := d.evalVariant(i, v, rec)
		if err != nil {
			return Composite{}, err
		}
		if i == 0 || comp.Final > best.Final {
			best = comp
		}
	}
	return best, nil
}

// ordered pairs each scored subject with its variant coefficient accessor.
var ordered = []struct {
	id    subject.ID
	coeff func(Coefficients) float64
}{
	{subject.Korean, func(c Coefficients) float64 { return c.Korean }},
	{subject.Math, func(c Coefficients) float64 { return c.Math }},
	{subject.Inquiry1, func(c Coefficients) float64 { return c.Inquiry1 }},
	{subject.Inquiry2, func(c Coefficients) float64 { return c.Inquiry2 }},
}

func (d *Definition) evalVariant(idx int, v Variant, rec scale.Record) (Composite, error) {
	comp := Composite{
		FormulaID:     d.ID,
		Contributions: make(map[subject.ID]float64, 4),
		Bonus:         d.Bonus,
		Variant:       idx,
	}

	sum := 0.0
	for _, s := range ordered {
		w := s.coeff(v.Coeff)
		if s.id == subject.Inquiry2 && v.InquiryCount == 1 {
			continue
		}
		if w == 0 {
			continue
		}
		val, ok := rec[s.id]
		if !ok || val.Std == nil {
			return Composite{}, &MissingSubjectError{FormulaID: d.ID, Subject: s.id}
		}
		contrib := *val.Std * w
		comp.Contributions[s.id] = contrib
		sum += contrib
	}

	sum += d.Bonus

	if len(d.Deductions) > 0 {
		comp.Deductions = make(map[subject.ID]float64, len(d.Deductions))
		// fixed order: English before History
		for _, sub := range []subject.ID{subject.English, subject.History} {
			table, ok := d.Deductions[sub]
			if !ok {
				continue
			}
			val, ok := rec[sub]
			if !ok || !subject.ValidGrade(val.Grade) {
				return Composite{}, &MissingSubjectError{FormulaID: d.ID, Subject: sub}
			}
			ded := table[val.Grade-1]
			comp.Deductions[sub] = ded
			sum -= ded
		}
	}

	comp.Raw = sum
	comp.Final = sum
	if v.Transform != nil {
		comp.Final = sum*v.Transform.A + v.Transform.B
	}
	return comp, nil
}
