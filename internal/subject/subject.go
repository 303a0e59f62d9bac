// Package subject defines the fixed CSAT subject domain: subject identifiers,
// elective tracks, the grade/percentile band table, and admission-track
// inference from department names.
package subject

import (
	"fmt"
	"strings"
)

// ID identifies one of the six scored CSAT subjects.
type ID string

const (
	Korean   ID = "korean"
	Math     ID = "math"
	English  ID = "english"
	History  ID = "history" // Korean History
	Inquiry1 ID = "inquiry1"
	Inquiry2 ID = "inquiry2"
)

// All lists every subject in declared scoring order. Formula evaluation and
// estimation iterate in this order so results are reproducible.
var All = []ID{Korean, Math, English, History, Inquiry1, Inquiry2}

// Mandatory lists the five subjects a complete score record must carry.
// Korean History is graded but optional for most composite formulas.
var Mandatory = []ID{Korean, Math, English, Inquiry1, Inquiry2}

// IsPassFail reports whether a subject is absolutely graded (grade 1-9 only,
// no standard score or percentile is published for it).
func IsPassFail(id ID) bool { return id == English || id == History }

var aliases = map[string]ID{
	"korean": Korean, "kor": Korean, "국어": Korean,
	"math": Math, "maths": Math, "수학": Math,
	"english": English, "eng": English, "영어": English,
	"history": History, "korean_history": History, "한국사": History,
	"inquiry1": Inquiry1, "inq1": Inquiry1, "탐구1": Inquiry1,
	"inquiry2": Inquiry2, "inq2": Inquiry2, "탐구2": Inquiry2,
}

// Parse resolves a free-form subject name (the upstream extractor emits both
// English keys and Korean names) to a canonical ID.
func Parse(s string) (ID, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	if id, ok := aliases[key]; ok {
		return id, nil
	}
	return "", fmt.Errorf("unknown subject %q", s)
}

// Elective names an alternative syllabus for an elective-bearing subject.
type Elective string

const (
	ElectiveNone Elective = ""

	// Korean electives.
	SpeechWriting Elective = "speech_writing" // 화법과 작문
	LanguageMedia Elective = "language_media" // 언어와 매체

	// Math electives.
	ProbStats Elective = "prob_stats" // 확률과 통계
	Calculus  Elective = "calculus"   // 미적분
	Geometry  Elective = "geometry"   // 기하
)

// DefaultElective returns the elective assumed when a raw score arrives for
// an elective-bearing subject without one. Zero value means the subject has
// no elective tracks.
func DefaultElective(id ID) Elective {
	switch id {
	case Korean:
		return SpeechWriting
	case Math:
		return ProbStats
	default:
		return ElectiveNone
	}
}

// HasElectives reports whether the subject offers elective syllabi.
func HasElectives(id ID) bool { return id == Korean || id == Math }

// band is one grade's percentile range. Bands follow the stanine cut ratios
// used for CSAT relative grading: 4/7/12/17/20/17/12/7/4 percent.
type band struct {
	grade  int
	lo, hi float64 // percentile range (lo, hi], hi inclusive at 100
	mid    float64 // documented representative percentile
}

var bands = []band{
	{1, 96, 100, 98},
	{2, 89, 96, 92.5},
	{3, 77, 89, 83},
	{4, 60, 77, 68.5},
	{5, 40, 60, 50},
	{6, 23, 40, 31.5},
	{7, 11, 23, 17},
	{8, 4, 11, 7.5},
	{9, 0, 4, 2},
}

// GradeForPercentile maps a percentile (0-100) to its grade band.
func GradeForPercentile(p float64) int {
	for _, b := range bands {
		if p > b.lo {
			return b.grade
		}
	}
	return 9
}

// MidPercentile returns the representative percentile for a grade, used when
// only a grade was observed. Grades outside 1-9 return -1.
func MidPercentile(grade int) float64 {
	for _, b := range bands {
		if b.grade == grade {
			return b.mid
		}
	}
	return -1
}

// ValidGrade reports whether g is a legal CSAT grade.
func ValidGrade(g int) bool { return g >= 1 && g <= 9 }
