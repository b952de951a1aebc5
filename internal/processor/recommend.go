package processor

import (
	"math/rand"
	"strings"

	"smart-resume-analyzer/internal/catalog"
	"smart-resume-analyzer/internal/constants"
	"smart-resume-analyzer/internal/types"
)

// DetectField 按技能的提取顺序找到第一个属于某方向识别关键词的技能，
// 由它决定推荐方向。只看 Keywords，不看置信度关键词。
// 没有命中或目录无效时返回空方向与 nil。
func DetectField(skills []string, c *catalog.Catalog) (string, []string) {
	if c == nil {
		return "", nil
	}
	for _, skill := range skills {
		field, ok, err := c.FieldForKeyword(strings.ToLower(strings.TrimSpace(skill)))
		if err != nil {
			return "", nil
		}
		if !ok {
			continue
		}
		recommended := make([]string, len(field.RecommendedSkills))
		copy(recommended, field.RecommendedSkills)
		return field.Name, recommended
	}
	return "", nil
}

// ClampCourseCount 把课程数量限制在 [MinCourseCount, MaxCourseCount]
func ClampCourseCount(count int) int {
	if count < constants.MinCourseCount {
		return constants.MinCourseCount
	}
	if count > constants.MaxCourseCount {
		return constants.MaxCourseCount
	}
	return count
}

// SampleCourses 对课程列表做均匀随机排列后截取前 count 个，不放回、不修改入参。
// count 先被限制在 [1,10]，再按目录大小截断；同一种子产生同样的顺序。
func SampleCourses(courses []types.Course, count int, rng *rand.Rand) []types.Course {
	if len(courses) == 0 {
		return []types.Course{}
	}
	count = ClampCourseCount(count)
	if count > len(courses) {
		count = len(courses)
	}

	var perm []int
	if rng != nil {
		perm = rng.Perm(len(courses))
	} else {
		perm = rand.Perm(len(courses))
	}

	out := make([]types.Course, 0, count)
	for _, idx := range perm[:count] {
		out = append(out, courses[idx])
	}
	return out
}

// FieldConfidence 计算每个方向在提取技能中的命中数与置信度关键词覆盖度。
// 同一关键词只计一次覆盖，命中数按技能计。
func FieldConfidence(skills []string, c *catalog.Catalog) []types.FieldScore {
	if c == nil {
		return nil
	}
	lowered := make([]string, 0, len(skills))
	for _, s := range skills {
		lowered = append(lowered, strings.ToLower(strings.TrimSpace(s)))
	}

	scores := make([]types.FieldScore, 0, len(c.Fields))
	for _, f := range c.Fields {
		chart := f.ChartKeywords()
		keywords := make(map[string]struct{}, len(chart))
		for _, kw := range chart {
			keywords[strings.ToLower(kw)] = struct{}{}
		}

		matched := 0
		covered := make(map[string]struct{})
		for _, s := range lowered {
			if _, ok := keywords[s]; ok {
				matched++
				covered[s] = struct{}{}
			}
		}

		confidence := 0
		if len(keywords) > 0 {
			confidence = len(covered) * 100 / len(keywords)
		}
		scores = append(scores, types.FieldScore{
			Field:      f.Name,
			Matched:    matched,
			Confidence: confidence,
		})
	}
	return scores
}
