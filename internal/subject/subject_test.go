package subject

import "testing"

func TestParseAliases(t *testing.T) {
	cases := map[string]ID{
		"korean":   Korean,
		"국어":       Korean,
		" Math ":   Math,
		"영어":       English,
		"한국사":      History,
		"inq1":     Inquiry1,
		"inquiry2": Inquiry2,
	}
	for in, want := range cases {
		got, err := Parse(in)
		if err != nil {
			t.Fatalf("Parse(%q): %v", in, err)
		}
		if got != want {
			t.Errorf("Parse(%q) = %s, want %s", in, got, want)
		}
	}
	if _, err := Parse("philosophy"); err == nil {
		t.Error("Parse(unknown) should fail")
	}
}

func TestGradeBandsCoverPercentileRange(t *testing.T) {
	// every percentile 0..100 maps to exactly one grade, and the grade's
	// midpoint maps back to the same grade
	for p := 0.0; p <= 100; p += 0.5 {
		g := GradeForPercentile(p)
		if !ValidGrade(g) {
			t.Fatalf("percentile %.1f: grade %d out of range", p, g)
		}
	}
	for g := 1; g <= 9; g++ {
		mid := MidPercentile(g)
		if mid < 0 || mid > 100 {
			t.Fatalf("grade %d: midpoint %.1f out of range", g, mid)
		}
		if got := GradeForPercentile(mid); got != g {
			t.Errorf("grade %d midpoint %.1f maps back to grade %d", g, mid, got)
		}
	}
	if MidPercentile(0) != -1 || MidPercentile(10) != -1 {
		t.Error("MidPercentile outside 1-9 should be -1")
	}
}

func TestGradeForPercentileBoundaries(t *testing.T) {
	if g := GradeForPercentile(100); g != 1 {
		t.Errorf("percentile 100 = grade %d, want 1", g)
	}
	if g := GradeForPercentile(96.01); g != 1 {
		t.Errorf("percentile 96.01 = grade %d, want 1", g)
	}
	if g := GradeForPercentile(96); g != 2 {
		t.Errorf("percentile 96 = grade %d, want 2", g)
	}
	if g := GradeForPercentile(0); g != 9 {
		t.Errorf("percentile 0 = grade %d, want 9", g)
	}
}

func TestInferTrack(t *testing.T) {
	cases := map[string]Track{
		"컴퓨터공학부":                TrackSciences,
		"의예과":                   TrackMedical,
		"간호학과":                  TrackMedical,
		"국어국문학과":                TrackHumanities,
		"시각디자인학과":               TrackArts,
		"Department of Physics": TrackSciences,
		"경영학과":                  TrackHumanities, // fallback
	}
	for dept, want := range cases {
		if got := InferTrack(dept); got != want {
			t.Errorf("InferTrack(%q) = %s, want %s", dept, got, want)
		}
	}
}

func TestDefaultElective(t *testing.T) {
	if DefaultElective(Korean) != SpeechWriting {
		t.Error("korean default elective should be speech_writing")
	}
	if DefaultElective(Math) != ProbStats {
		t.Error("math default elective should be prob_stats")
	}
	if DefaultElective(English) != ElectiveNone {
		t.Error("english has no electives")
	}
}
