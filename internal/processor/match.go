package processor

import (
	"strings"

	"smart-resume-analyzer/internal/types"
)

// Match 大小写不敏感地比较提取技能与推荐技能。
// matched 保持提取顺序（含重复），missing 保持推荐顺序。
func Match(extracted, recommended []string) ([]string, []string) {
	recommendedSet := make(map[string]struct{}, len(recommended))
	for _, r := range recommended {
		recommendedSet[strings.ToLower(r)] = struct{}{}
	}
	extractedSet := make(map[string]struct{}, len(extracted))
	for _, e := range extracted {
		extractedSet[strings.ToLower(e)] = struct{}{}
	}

	matched := make([]string, 0)
	for _, e := range extracted {
		if _, ok := recommendedSet[strings.ToLower(e)]; ok {
			matched = append(matched, e)
		}
	}
	missing := make([]string, 0)
	for _, r := range recommended {
		if _, ok := extractedSet[strings.ToLower(r)]; !ok {
			missing = append(missing, r)
		}
	}
	return matched, missing
}

// SkillRadar 雷达图数据：matched 在前、missing 在后，去重后保留首次出现
func SkillRadar(matched, missing []string) []types.RadarPoint {
	seen := make(map[string]struct{}, len(matched)+len(missing))
	points := make([]types.RadarPoint, 0, len(matched)+len(missing))
	add := func(skill string, ok bool) {
		if _, dup := seen[skill]; dup {
			return
		}
		seen[skill] = struct{}{}
		points = append(points, types.RadarPoint{Skill: skill, Matched: ok})
	}
	for _, s := range matched {
		add(s, true)
	}
	for _, s := range missing {
		add(s, false)
	}
	return points
}
