package scale

import (
	"errors"
	"fmt"

	"github.com/edunav/admitscore/internal/subject"
)

// Observation is one partial score input for a single subject. Exactly one
// of Raw, Std, Percentile, Grade must be set.
type Observation struct {
	Subject    string           `json:"subject"`
	Elective   subject.Elective `json:"elective,omitempty"`
	Raw        *float64         `json:"raw,omitempty"`
	Std        *float64         `json:"std,omitempty"`
	Percentile *float64         `json:"percentile,omitempty"`
	Grade      *int             `json:"grade,omitempty"`
}

// Value is the canonical per-subject score. Std and Percentile stay nil for
// pass/fail subjects, which carry only a grade.
type Value struct {
	Subject    subject.ID `json:"subject"`
	Grade      int        `json:"grade"`
	Std        *float64   `json:"std,omitempty"`
	Percentile *float64   `json:"percentile,omitempty"`
	Raw        *float64   `json:"raw,omitempty"`
	Provenance Provenance `json:"provenance"`
}

// Record is a full canonical score record, one Value per resolved subject.
type Record map[subject.ID]Value

// SubjectError tags a rejected observation; the batch keeps going.
type SubjectError struct {
	Subject string `json:"subject"`
	Reason  string `json:"reason"`
}

func (e SubjectError) Error() string { return fmt.Sprintf("%s: %s", e.Subject, e.Reason) }

// Result pairs the converted record with the per-subject errors collected
// along the way.
type Result struct {
	Record Record         `json:"record"`
	Errors []SubjectError `json:"errors,omitempty"`
}

// ErrNoTable is returned when a subject has no score table in the catalog.
var ErrNoTable = errors.New("no score table for subject")

type cutKey struct {
	sub      subject.ID
	elective subject.Elective
}

// Converter resolves observations against an immutable set of score tables
// and grade-cut tables. Safe for concurrent use.
type Converter struct {
	tables map[subject.ID]*ScoreTable
	cuts   map[cutKey]*GradeCutTable
}

// NewConverter builds a converter over validated tables.
func NewConverter(tables []ScoreTable, cuts []GradeCutTable) (*Converter, error) {
	c := &Converter{
		tables: make(map[subject.ID]*ScoreTable, len(tables)),
		cuts:   make(map[cutKey]*GradeCutTable, len(cuts)),
	}
	for i := range tables {
		t := &tables[i]
		if err := t.Validate(); err != nil {
			return nil, err
		}
		if _, dup := c.tables[t.Subject]; dup {
			return nil, fmt.Errorf("duplicate score table for %s", t.Subject)
		}
		c.tables[t.Subject] = t
	}
	for i := range cuts {
		t := &cuts[i]
		if err := t.Validate(); err != nil {
			return nil, err
		}
		k := cutKey{t.Subject, t.Elective}
		if _, dup := c.cuts[k]; dup {
			return nil, fmt.Errorf("duplicate grade cuts for %s/%s", t.Subject, t.Elective)
		}
		c.cuts[k] = t
	}
	return c, nil
}

func axisCount(o Observation) int {
	n := 0
	if o.Raw != nil {
		n++
	}
	if o.Std != nil {
		n++
	}
	if o.Percentile != nil {
		n++
	}
	if o.Grade != nil {
		n++
	}
	return n
}

// Convert resolves each observation to a canonical value, then estimates any
// still-missing mandatory subject from the mean percentile of the resolved
// ones. Malformed observations become entries in Result.Errors, never a
// returned error.
func (c *Converter) Convert(obs []Observation) Result {
	res := Result{Record: Record{}}
	for _, o := range obs {
		id, err := subject.Parse(o.Subject)
		if err != nil {
			res.Errors = append(res.Errors, SubjectError{Subject: o.Subject, Reason: "unknown subject"})
			continue
		}
		if _, seen := res.Record[id]; seen {
			res.Errors = append(res.Errors, SubjectError{Subject: o.Subject, Reason: "duplicate observation"})
			continue
		}
		v, serr := c.convertOne(id, o)
		if serr != nil {
			res.Errors = append(res.Errors, *serr)
			continue
		}
		res.Record[id] = v
	}
	c.estimateMissing(&res)
	return res
}

func (c *Converter) convertOne(id subject.ID, o Observation) (Value, *SubjectError) {
	switch n := axisCount(o); {
	case n == 0:
		return Value{}, &SubjectError{Subject: string(id), Reason: "no score axis set"}
	case n > 1:
		return Value{}, &SubjectError{Subject: string(id), Reason: "multiple score axes set"}
	}

	if subject.IsPassFail(id) {
		if o.Grade == nil {
			return Value{}, &SubjectError{Subject: string(id), Reason: "pass/fail subject accepts grade only"}
		}
		if !subject.ValidGrade(*o.Grade) {
			return Value{}, &SubjectError{Subject: string(id), Reason: fmt.Sprintf("grade %d out of range", *o.Grade)}
		}
		return Value{Subject: id, Grade: *o.Grade, Provenance: ProvExact}, nil
	}

	switch {
	case o.Raw != nil:
		return c.fromRaw(id, o.Elective, *o.Raw)
	case o.Std != nil:
		return c.fromTable(id, *o.Std, false)
	case o.Percentile != nil:
		if *o.Percentile < 0 || *o.Percentile > 100 {
			return Value{}, &SubjectError{Subject: string(id), Reason: "percentile out of range"}
		}
		return c.fromTable(id, *o.Percentile, true)
	default: // grade
		if !subject.ValidGrade(*o.Grade) {
			return Value{}, &SubjectError{Subject: string(id), Reason: fmt.Sprintf("grade %d out of range", *o.Grade)}
		}
		v, serr := c.fromTable(id, subject.MidPercentile(*o.Grade), true)
		if serr != nil {
			return Value{}, serr
		}
		v.Grade = *o.Grade
		v.Provenance = ProvFromGrade
		return v, nil
	}
}

// fromRaw resolves a raw score through the grade-cut table of the subject's
// elective (or its domain default when unspecified).
func (c *Converter) fromRaw(id subject.ID, el subject.Elective, raw float64) (Value, *SubjectError) {
	if el == subject.ElectiveNone {
		el = subject.DefaultElective(id)
	}
	cut, ok := c.cuts[cutKey{id, el}]
	if !ok {
		return Value{}, &SubjectError{Subject: string(id), Reason: fmt.Sprintf("no grade-cut table for elective %q", el)}
	}
	row, prov := cut.Resolve(raw)
	std, pct, r := row.Std, row.Percentile, raw
	return Value{Subject: id, Grade: row.Grade, Std: &std, Percentile: &pct, Raw: &r, Provenance: prov}, nil
}

// fromTable resolves a standard score (byPercentile=false) or percentile
// (byPercentile=true) against the subject's score table, exact first then
// nearest-neighbor.
func (c *Converter) fromTable(id subject.ID, v float64, byPercentile bool) (Value, *SubjectError) {
	t, ok := c.tables[id]
	if !ok {
		return Value{}, &SubjectError{Subject: string(id), Reason: ErrNoTable.Error()}
	}
	var row Row
	prov := ProvExact
	if byPercentile {
		if row, ok = t.ByPercentile(v); !ok {
			row = t.NearestByPercentile(v)
			prov = ProvInterpolated
		}
	} else {
		if row, ok = t.ByStandard(v); !ok {
			row = t.NearestByStandard(v)
			prov = ProvInterpolated
		}
	}
	std, pct := row.Std, row.Percentile
	return Value{Subject: id, Grade: row.Grade, Std: &std, Percentile: &pct, Provenance: prov}, nil
}

// estimateMissing fills absent mandatory subjects from the mean percentile of
// the subjects that resolved. With no resolvable percentile the subject is
// left unset so downstream scoring fails loud instead of inventing a value.
func (c *Converter) estimateMissing(res *Result) {
	// fixed iteration order keeps the float sum reproducible
	var sum float64
	var n int
	for _, id := range subject.All {
		if v, ok := res.Record[id]; ok && v.Percentile != nil {
			sum += *v.Percentile
			n++
		}
	}
	if n == 0 {
		return
	}
	mean := sum / float64(n)

	for _, id := range subject.Mandatory {
		if _, ok := res.Record[id]; ok {
			continue
		}
		if subject.IsPassFail(id) {
			res.Record[id] = Value{Subject: id, Grade: subject.GradeForPercentile(mean), Provenance: ProvFromPeers}
			continue
		}
		v, serr := c.fromTable(id, mean, true)
		if serr != nil {
			res.Errors = append(res.Errors, *serr)
			continue
		}
		v.Provenance = ProvFromPeers
		res.Record[id] = v
	}
}
