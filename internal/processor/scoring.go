package processor

import (
	"strings"

	"smart-resume-analyzer/internal/catalog"
)

// ComputeScore 按评分表检查简历文本中是否出现各段落关键词。
// 出现则累加权重，未出现则把展示名称加入 missing。
// 空文本得 0 分，所有段落都记为缺失。
func ComputeScore(rawText string, sections []catalog.Section) (int, []string) {
	lower := strings.ToLower(rawText)
	score := 0
	missing := make([]string, 0)
	for _, s := range sections {
		key := strings.ToLower(s.Key)
		if lower != "" && key != "" && strings.Contains(lower, key) {
			score += s.Weight
			continue
		}
		missing = append(missing, s.Label)
	}
	return score, missing
}

// ScoreFeedback 分数对应的评价
func ScoreFeedback(score int) string {
	switch {
	case score >= 90:
		return "Outstanding! Your resume covers all major sections."
	case score >= 70:
		return "Good work! A few more additions can make your resume excellent."
	case score >= 50:
		return "Decent start. Consider strengthening key areas for better results."
	default:
		return "Needs improvement. Add important sections to make your resume recruiter-friendly."
	}
}
