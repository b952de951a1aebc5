package parser

import (
	"context"
	"errors"
	"regexp"
	"sort"
	"strings"

	"smart-resume-analyzer/internal/types"

	"github.com/nyaruka/phonenumbers"
)

var (
	emailRegex     = regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`)
	phoneRegex     = regexp.MustCompile(`\+?\(?\d[\d \t().-]{7,}\d`)
	nameWordRegex  = regexp.MustCompile(`^[A-Za-z][A-Za-z'.-]*$`)
	nonDigitRegex  = regexp.MustCompile(`\D`)
	whitespaceExpr = regexp.MustCompile(`\s+`)
)

// 姓名只在前几行中查找
const nameSearchLines = 5

// 常见的标题行，不会是姓名
var headingWords = map[string]struct{}{
	"resume":           {},
	"curriculum":       {},
	"vitae":            {},
	"cv":               {},
	"profile":          {},
	"objective":        {},
	"summary":          {},
	"contact":          {},
	"experience":       {},
	"education":        {},
	"skills":           {},
	"projects":         {},
	"achievements":     {},
	"certifications":   {},
	"personal":         {},
	"details":          {},
	"information":      {},
	"career":           {},
	"professional":     {},
	"work":             {},
	"technical":        {},
	"declaration":      {},
	"references":       {},
	"responsibilities": {},
}

// ErrNoStructuredData 文本中没有任何可识别的字段
var ErrNoStructuredData = errors.New("未识别到姓名、邮箱、电话或技能")

type skillPattern struct {
	display string
	re      *regexp.Regexp
}

// ResumeFieldParser 基于正则与技能词表的简历字段解析器
type ResumeFieldParser struct {
	skills      []skillPattern
	phoneRegion string
}

// NewResumeFieldParser 使用技能词表创建解析器，phoneRegion 为无国际区号时的默认地区
func NewResumeFieldParser(skills []string, phoneRegion string) *ResumeFieldParser {
	seen := make(map[string]struct{}, len(skills))
	patterns := make([]skillPattern, 0, len(skills))
	for _, s := range skills {
		s = strings.TrimSpace(s)
		key := strings.ToLower(s)
		if s == "" {
			continue
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		// 技能两侧不能紧挨字母、数字、+ 或 #，避免 "Java" 命中 "JavaScript"
		expr := `(?i)(?:^|[^A-Za-z0-9+#])(` + regexp.QuoteMeta(s) + `)(?:$|[^A-Za-z0-9+#])`
		patterns = append(patterns, skillPattern{display: s, re: regexp.MustCompile(expr)})
	}
	if phoneRegion == "" {
		phoneRegion = "US"
	}
	return &ResumeFieldParser{skills: patterns, phoneRegion: strings.ToUpper(phoneRegion)}
}

// Parse 解析姓名、邮箱、电话、页数与技能
func (p *ResumeFieldParser) Parse(ctx context.Context, doc *types.ExtractedDocument) (*types.ResumeRecord, error) {
	if doc == nil || strings.TrimSpace(doc.Text) == "" {
		return nil, ErrNoStructuredData
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	text := doc.Text
	record := &types.ResumeRecord{
		Name:      extractName(text),
		Email:     emailRegex.FindString(text),
		Phone:     p.extractPhone(text),
		PageCount: doc.PageCount,
		Skills:    p.extractSkills(text),
		RawText:   text,
	}
	if record.Name == "" && record.Email == "" && record.Phone == "" && len(record.Skills) == 0 {
		return nil, ErrNoStructuredData
	}
	return record, nil
}

// extractName 前几行中由 2 到 4 个英文单词组成、不含邮箱和数字的第一行
func extractName(text string) string {
	lines := strings.Split(text, "\n")
	checked := 0
	for _, line := range lines {
		line = strings.TrimSpace(whitespaceExpr.ReplaceAllString(line, " "))
		if line == "" {
			continue
		}
		checked++
		if checked > nameSearchLines {
			break
		}
		if strings.Contains(line, "@") || strings.ContainsAny(line, "0123456789:|/") {
			continue
		}

		words := strings.Fields(line)
		if len(words) < 2 || len(words) > 4 {
			continue
		}
		ok := true
		for _, w := range words {
			if _, heading := headingWords[strings.ToLower(strings.Trim(w, ".,"))]; heading {
				ok = false
				break
			}
			if len(w) < 2 || !nameWordRegex.MatchString(w) {
				ok = false
				break
			}
		}
		if ok {
			return line
		}
	}
	return ""
}

// extractPhone 返回第一个合法号码的 E.164 形式；都不合法时返回第一个 10-15 位的数字串
func (p *ResumeFieldParser) extractPhone(text string) string {
	candidates := phoneRegex.FindAllString(text, -1)
	fallback := ""
	for _, c := range candidates {
		c = strings.TrimSpace(c)
		digits := nonDigitRegex.ReplaceAllString(c, "")
		if len(digits) < 7 || len(digits) > 15 {
			continue
		}
		num, err := phonenumbers.Parse(c, p.phoneRegion)
		if err == nil && phonenumbers.IsValidNumber(num) {
			return phonenumbers.Format(num, phonenumbers.E164)
		}
		if fallback == "" && len(digits) >= 10 {
			fallback = digits
			if strings.HasPrefix(c, "+") {
				fallback = "+" + digits
			}
		}
	}
	return fallback
}

// extractSkills 按在文本中首次出现的位置排序，大小写不敏感去重，输出词表中的写法
func (p *ResumeFieldParser) extractSkills(text string) []string {
	type hit struct {
		pos   int
		skill string
	}
	hits := make([]hit, 0)
	for _, sp := range p.skills {
		loc := sp.re.FindStringSubmatchIndex(text)
		if loc == nil {
			continue
		}
		hits = append(hits, hit{pos: loc[2], skill: sp.display})
	}
	sort.SliceStable(hits, func(i, j int) bool {
		if hits[i].pos != hits[j].pos {
			return hits[i].pos < hits[j].pos
		}
		// 同一位置较长的技能优先，例如 "React js" 先于 "React"
		return len(hits[i].skill) > len(hits[j].skill)
	})

	skills := make([]string, 0, len(hits))
	for _, h := range hits {
		skills = append(skills, h.skill)
	}
	return skills
}
