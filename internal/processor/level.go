package processor

// 候选人级别
const (
	LevelUnknown      = "Unknown"
	LevelFresher      = "Fresher"
	LevelIntermediate = "Intermediate"
	LevelExperienced  = "Experienced"
)

// CandidateLevel 按简历页数估计候选人级别
func CandidateLevel(pageCount int) string {
	switch {
	case pageCount <= 0:
		return LevelUnknown
	case pageCount == 1:
		return LevelFresher
	case pageCount == 2:
		return LevelIntermediate
	default:
		return LevelExperienced
	}
}
