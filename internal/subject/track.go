package subject

import "strings"

// Track is an institution-family admission track category.
type Track string

const (
	TrackHumanities Track = "humanities"
	TrackSciences   Track = "sciences"
	TrackMedical    Track = "medical"
	TrackArts       Track = "arts"
)

var trackKeywords = []struct {
	track Track
	words []string
}{
	{TrackMedical, []string{"의예", "의학", "치의", "한의", "수의", "약학", "간호", "medicine", "medical", "dentistry", "pharmacy", "nursing"}},
	{TrackSciences, []string{"공학", "컴퓨터", "소프트웨어", "전자", "기계", "화학", "물리", "생명", "수학과", "통계", "반도체", "인공지능", "데이터", "engineering", "computer", "software", "physics", "chemistry", "biology", "statistics"}},
	{TrackArts, []string{"음악", "미술", "디자인", "체육", "무용", "연극", "영화", "music", "design", "art", "sports", "film"}},
}

// InferTrack maps a department name to a track category. Departments that
// match no keyword group fall back to humanities, the catch-all track in the
// source admissions data.
func InferTrack(department string) Track {
	name := strings.ToLower(strings.TrimSpace(department))
	for _, g := range trackKeywords {
		for _, w := range g.words {
			if strings.Contains(name, w) {
				return g.track
			}
		}
	}
	return TrackHumanities
}
