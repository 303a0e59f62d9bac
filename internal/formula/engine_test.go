package formula_test

import (
	"errors"
	"math"
	"reflect"
	"testing"

	"github.com/edunav/admitscore/internal/formula"
	"github.com/edunav/admitscore/internal/scale"
	"github.com/edunav/admitscore/internal/subject"
)

func fp(v float64) *float64 { return &v }

// record mirrors the worked example: Korean 140, Math 135, English grade 1,
// History grade 1, Inquiry 70/66.
func sampleRecord() scale.Record {
	rec := scale.Record{}
	std := map[subject.ID]float64{
		subject.Korean:   140,
		subject.Math:     135,
		subject.Inquiry1: 70,
		subject.Inquiry2: 66,
	}
	for id, v := range std {
		rec[id] = scale.Value{Subject: id, Grade: 1, Std: fp(v), Percentile: fp(98), Provenance: scale.ProvExact}
	}
	rec[subject.English] = scale.Value{Subject: subject.English, Grade: 1, Provenance: scale.ProvExact}
	rec[subject.History] = scale.Value{Subject: subject.History, Grade: 1, Provenance: scale.ProvExact}
	return rec
}

func linearDef(id string) formula.Definition {
	return formula.Definition{
		ID:   id,
		Kind: formula.KindLinear,
		Variants: []formula.Variant{{
			Coeff:        formula.Coefficients{Korean: 1, Math: 1.2, Inquiry1: 0.8, Inquiry2: 0.8},
			InquiryCount: 2,
		}},
	}
}

func newCatalog(t *testing.T, defs ...formula.Definition) *formula.Catalog {
	t.Helper()
	c, err := formula.NewCatalog(defs)
	if err != nil {
		t.Fatalf("NewCatalog: %v", err)
	}
	return c
}

func TestScoreHandComputed(t *testing.T) {
	c := newCatalog(t, linearDef("f1"))
	comp, err := c.Score("f1", sampleRecord())
	if err != nil {
		t.Fatalf("Score: %v", err)
	}
	// 140*1 + 135*1.2 + 70*0.8 + 66*0.8 = 410.80
	want := 410.80
	if math.Abs(comp.Final-want) > 0.005 {
		t.Errorf("final = %.4f, want %.2f", comp.Final, want)
	}
	if comp.Raw != comp.Final {
		t.Errorf("linear formula: raw %.4f != final %.4f", comp.Raw, comp.Final)
	}
	if got := comp.Contributions[subject.Math]; math.Abs(got-162) > 0.005 {
		t.Errorf("math contribution = %.4f, want 162.00", got)
	}
}

func TestScoreDeterministic(t *testing.T) {
	c := newCatalog(t, linearDef("f1"))
	rec := sampleRecord()
	a, err := c.Score("f1", rec)
	if err != nil {
		t.Fatal(err)
	}
	b, err := c.Score("f1", rec)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(a, b) {
		t.Errorf("identical inputs produced different outputs:\n%+v\n%+v", a, b)
	}
}

func TestScoreUnknownFormula(t *testing.T) {
	c := newCatalog(t, linearDef("f1"))
	_, err := c.Score("nope", sampleRecord())
	if !errors.Is(err, formula.ErrUnknownFormula) {
		t.Fatalf("want ErrUnknownFormula, got %v", err)
	}
}

func TestScoreMissingRequiredSubject(t *testing.T) {
	c := newCatalog(t, linearDef("f1"))
	rec := sampleRecord()
	delete(rec, subject.Math)
	_, err := c.Score("f1", rec)
	var missing *formula.MissingSubjectError
	if !errors.As(err, &missing) || missing.Subject != subject.Math {
		t.Fatalf("want MissingSubjectError{math}, got %v", err)
	}
}

func TestScoreInquiryCountOne(t *testing.T) {
	d := linearDef("f1")
	d.Variants[0].InquiryCount = 1
	d.Variants[0].Coeff.Inquiry2 = 0
	c := newCatalog(t, d)

	rec := sampleRecord()
	delete(rec, subject.Inquiry2) // not required when count is 1
	comp, err := c.Score("f1", rec)
	if err != nil {
		t.Fatalf("Score: %v", err)
	}
	want := 140 + 135*1.2 + 70*0.8
	if math.Abs(comp.Final-want) > 0.005 {
		t.Errorf("final = %.4f, want %.2f", comp.Final, want)
	}
	if _, ok := comp.Contributions[subject.Inquiry2]; ok {
		t.Error("inquiry2 must not contribute when inquiry count is 1")
	}
}

func TestScoreBonusDeductionsTransformOrder(t *testing.T) {
	d := formula.Definition{
		ID:   "f2",
		Kind: formula.KindLinearTransform,
		Variants: []formula.Variant{{
			Coeff:        formula.Coefficients{Korean: 1, Math: 1, Inquiry1: 1, Inquiry2: 1},
			InquiryCount: 2,
			Transform:    &formula.Transform{A: 2, B: 10},
		}},
		Bonus: 5,
		Deductions: map[subject.ID][9]float64{
			subject.English: {0, 2, 4, 6, 8, 10, 12, 14, 16},
		},
	}
	c := newCatalog(t, d)

	rec := sampleRecord()
	ev := rec[subject.English]
	ev.Grade = 3
	rec[subject.English] = ev

	comp, err := c.Score("f2", rec)
	if err != nil {
		t.Fatalf("Score: %v", err)
	}
	// raw = 140+135+70+66 + 5 - 4 = 412; final = 412*2 + 10 = 834
	if comp.Raw != 412 {
		t.Errorf("raw = %.2f, want 412 (bonus and deductions pre-transform)", comp.Raw)
	}
	if comp.Final != 834 {
		t.Errorf("final = %.2f, want 834 (transform applied last)", comp.Final)
	}
	if comp.Deductions[subject.English] != 4 {
		t.Errorf("english deduction = %.2f, want 4", comp.Deductions[subject.English])
	}
}

func TestScoreDeductionNeedsGrade(t *testing.T) {
	d := linearDef("f1")
	d.Deductions = map[subject.ID][9]float64{subject.History: {0, 0, 1, 2, 3, 4, 5, 6, 7}}
	c := newCatalog(t, d)

	rec := sampleRecord()
	delete(rec, subject.History)
	_, err := c.Score("f1", rec)
	if err == nil {
		t.Fatal("penalized subject without a grade should fail")
	}
}

func TestScorePickMaxKeepsBestVariant(t *testing.T) {
	d := formula.Definition{
		ID:   "f3",
		Kind: formula.KindPickMax,
		Variants: []formula.Variant{
			{Coeff: formula.Coefficients{Korean: 1, Math: 1}, InquiryCount: 1},
			{Coeff: formula.Coefficients{Korean: 1.5, Inquiry1: 1}, InquiryCount: 1},
		},
	}
	c := newCatalog(t, d)
	comp, err := c.Score("f3", sampleRecord())
	if err != nil {
		t.Fatalf("Score: %v", err)
	}
	// variant 0: 140+135=275; variant 1: 210+70=280
	if comp.Variant != 1 || comp.Final != 280 {
		t.Errorf("got variant %d final %.2f, want variant 1 final 280", comp.Variant, comp.Final)
	}
}

func TestValidateRejectsBadDefinitions(t *testing.T) {
	cases := []struct {
		name string
		def  formula.Definition
	}{
		{"empty id", formula.Definition{Kind: formula.KindLinear, Variants: []formula.Variant{{InquiryCount: 1}}}},
		{"unknown kind", formula.Definition{ID: "x", Kind: "magic", Variants: []formula.Variant{{InquiryCount: 1}}}},
		{"no variants", formula.Definition{ID: "x", Kind: formula.KindLinear}},
		{"pick_max single variant", formula.Definition{ID: "x", Kind: formula.KindPickMax, Variants: []formula.Variant{{InquiryCount: 1}}}},
		{"nan coefficient", formula.Definition{ID: "x", Kind: formula.KindLinear,
			Variants: []formula.Variant{{Coeff: formula.Coefficients{Korean: math.NaN()}, InquiryCount: 1}}}},
		{"bad inquiry count", formula.Definition{ID: "x", Kind: formula.KindLinear,
			Variants: []formula.Variant{{InquiryCount: 3}}}},
		{"inquiry2 weight with count 1", formula.Definition{ID: "x", Kind: formula.KindLinear,
			Variants: []formula.Variant{{Coeff: formula.Coefficients{Inquiry2: 1}, InquiryCount: 1}}}},
		{"transform missing", formula.Definition{ID: "x", Kind: formula.KindLinearTransform,
			Variants: []formula.Variant{{InquiryCount: 1}}}},
		{"deduction on scored subject", formula.Definition{ID: "x", Kind: formula.KindLinear,
			Variants:   []formula.Variant{{InquiryCount: 1}},
			Deductions: map[subject.ID][9]float64{subject.Korean: {}}}},
		{"decreasing deductions", formula.Definition{ID: "x", Kind: formula.KindLinear,
			Variants:   []formula.Variant{{InquiryCount: 1}},
			Deductions: map[subject.ID][9]float64{subject.English: {5, 4, 3, 2, 1, 0, 0, 0, 0}}}},
	}
	for _, tc := range cases {
		if _, err := formula.NewCatalog([]formula.Definition{tc.def}); err == nil {
			t.Errorf("%s: accepted", tc.name)
		}
	}
	// duplicate ids across the catalog
	if _, err := formula.NewCatalog([]formula.Definition{linearDef("dup"), linearDef("dup")}); err == nil {
		t.Error("duplicate id accepted")
	}
}
