package catalog

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"

	"smart-resume-analyzer/internal/types"

	"gopkg.in/yaml.v3"
)

//go:embed default_catalog.yaml
var defaultCatalogYAML []byte

// ErrInvalidCatalog 目录校验失败
var ErrInvalidCatalog = errors.New("分析目录无效")

// Section 评分表中的一项
type Section struct {
	Key    string `yaml:"key"`    // 大小写不敏感的匹配关键词
	Label  string `yaml:"label"`  // 缺失时展示的名称
	Weight int    `yaml:"weight"` // 分值
}

// Field 职业方向。Keywords 决定方向识别；ConfidenceKeywords 只用于置信度图表，
// 可以比 Keywords 多（例如 javascript），为空时沿用 Keywords
type Field struct {
	Name               string         `yaml:"name"`
	Keywords           []string       `yaml:"keywords"`
	ConfidenceKeywords []string       `yaml:"confidence_keywords"`
	RecommendedSkills  []string       `yaml:"recommended_skills"`
	Courses            []types.Course `yaml:"courses"`
}

// ChartKeywords 置信度图表使用的关键词
func (f *Field) ChartKeywords() []string {
	if len(f.ConfidenceKeywords) > 0 {
		return f.ConfidenceKeywords
	}
	return f.Keywords
}

// Catalog 评分、方向识别、课程推荐共用的数据
type Catalog struct {
	Sections        []Section     `yaml:"sections"`
	Fields          []Field       `yaml:"fields"`
	ResumeVideos    []types.Video `yaml:"resume_videos"`
	InterviewVideos []types.Video `yaml:"interview_videos"`
	Skills          []string      `yaml:"skills"`

	indexOnce    sync.Once
	keywordIndex map[string]int
	indexErr     error
}

// Default 返回内置目录
func Default() (*Catalog, error) {
	return Parse(defaultCatalogYAML)
}

// Load 从文件加载目录，path 为空时使用内置目录
func Load(path string) (*Catalog, error) {
	if path == "" {
		return Default()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("读取分析目录失败: %w", err)
	}
	return Parse(data)
}

// Parse 解析并校验目录
func Parse(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("解析分析目录失败: %w", err)
	}
	if _, err := c.index(); err != nil {
		return nil, err
	}
	return &c, nil
}

// index 关键词到方向下标的映射，只在第一次调用时校验并构建，之后只读
func (c *Catalog) index() (map[string]int, error) {
	c.indexOnce.Do(func() {
		if err := c.Validate(); err != nil {
			c.indexErr = err
			return
		}
		c.keywordIndex = c.buildKeywordIndex()
	})
	return c.keywordIndex, c.indexErr
}

// Ready 校验目录并构建索引，目录被多个请求共享前调用
func (c *Catalog) Ready() error {
	_, err := c.index()
	return err
}

func (c *Catalog) buildKeywordIndex() map[string]int {
	index := make(map[string]int)
	for i, f := range c.Fields {
		for _, kw := range f.Keywords {
			index[strings.ToLower(strings.TrimSpace(kw))] = i
		}
	}
	return index
}

// Validate 检查权重总和、方向唯一性、识别关键词互斥与课程列表。不修改目录
func (c *Catalog) Validate() error {
	if len(c.Sections) == 0 {
		return fmt.Errorf("%w: 评分表为空", ErrInvalidCatalog)
	}
	total := 0
	seenSection := make(map[string]struct{}, len(c.Sections))
	for _, s := range c.Sections {
		key := strings.ToLower(strings.TrimSpace(s.Key))
		if key == "" || s.Label == "" {
			return fmt.Errorf("%w: 评分项缺少 key 或 label", ErrInvalidCatalog)
		}
		if s.Weight <= 0 {
			return fmt.Errorf("%w: 评分项 %q 权重必须为正数", ErrInvalidCatalog, s.Key)
		}
		if _, dup := seenSection[key]; dup {
			return fmt.Errorf("%w: 评分项 %q 重复", ErrInvalidCatalog, s.Key)
		}
		seenSection[key] = struct{}{}
		total += s.Weight
	}
	if total != 100 {
		return fmt.Errorf("%w: 评分权重总和为 %d，应为 100", ErrInvalidCatalog, total)
	}

	if len(c.Fields) == 0 {
		return fmt.Errorf("%w: 职业方向为空", ErrInvalidCatalog)
	}
	index := make(map[string]int)
	seenField := make(map[string]struct{}, len(c.Fields))
	for i, f := range c.Fields {
		if f.Name == "" {
			return fmt.Errorf("%w: 第 %d 个职业方向缺少名称", ErrInvalidCatalog, i+1)
		}
		if _, dup := seenField[f.Name]; dup {
			return fmt.Errorf("%w: 职业方向 %q 重复", ErrInvalidCatalog, f.Name)
		}
		seenField[f.Name] = struct{}{}

		if len(f.Keywords) == 0 {
			return fmt.Errorf("%w: 职业方向 %q 没有关键词", ErrInvalidCatalog, f.Name)
		}
		for _, kw := range f.Keywords {
			kw = strings.ToLower(strings.TrimSpace(kw))
			if kw == "" {
				return fmt.Errorf("%w: 职业方向 %q 含空关键词", ErrInvalidCatalog, f.Name)
			}
			if owner, exists := index[kw]; exists && owner != i {
				return fmt.Errorf("%w: 关键词 %q 同时属于 %q 和 %q",
					ErrInvalidCatalog, kw, c.Fields[owner].Name, f.Name)
			}
			index[kw] = i
		}
		for _, kw := range f.ConfidenceKeywords {
			if strings.TrimSpace(kw) == "" {
				return fmt.Errorf("%w: 职业方向 %q 含空置信度关键词", ErrInvalidCatalog, f.Name)
			}
		}

		if len(f.Courses) == 0 {
			return fmt.Errorf("%w: 职业方向 %q 没有课程", ErrInvalidCatalog, f.Name)
		}
		seenCourse := make(map[string]struct{}, len(f.Courses))
		for _, course := range f.Courses {
			if course.Name == "" {
				return fmt.Errorf("%w: 职业方向 %q 含空课程名", ErrInvalidCatalog, f.Name)
			}
			if _, dup := seenCourse[course.Name]; dup {
				return fmt.Errorf("%w: 课程 %q 重复", ErrInvalidCatalog, course.Name)
			}
			seenCourse[course.Name] = struct{}{}
		}
	}

	return nil
}

// FieldForKeyword 按识别关键词查找方向，关键词需已转小写。
// 目录未通过校验时返回错误
func (c *Catalog) FieldForKeyword(keyword string) (*Field, bool, error) {
	index, err := c.index()
	if err != nil {
		return nil, false, err
	}
	i, ok := index[keyword]
	if !ok {
		return nil, false, nil
	}
	return &c.Fields[i], true, nil
}

// FieldByName 按名称查找方向
func (c *Catalog) FieldByName(name string) (*Field, bool) {
	for i := range c.Fields {
		if c.Fields[i].Name == name {
			return &c.Fields[i], true
		}
	}
	return nil, false
}
