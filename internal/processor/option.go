package processor

import (
	"time"

	"smart-resume-analyzer/internal/catalog"
)

// ComponentOpt 组件选项类型，仅改变 Components 结构体内的字段
type ComponentOpt func(*Components)

// SettingOpt 设置选项类型，仅改变 Settings 结构体内的字段
type SettingOpt func(*Settings)

// Components 聚合分析流程依赖的组件，便于集中管理和测试替换
type Components struct {
	Catalog    *catalog.Catalog // 评分表、方向与课程
	Extractor  TextExtractor    // PDF 文本提取
	Parser     FieldParser      // 结构化字段解析
	Summarizer Summarizer       // 可选，摘要

	// 存储层依赖，均可为空
	Store   AnalysisStore
	Objects ObjectStore
	Metrics MetricsRecorder
}

// Settings 纯配置项，不包含任何业务逻辑组件
type Settings struct {
	DefaultCourseCount int              // 请求未指定时推荐的课程数
	ObjectPrefix       string           // 原始简历对象键前缀
	RandomSeed         int64            // 0 表示按时间播种
	TimeLocation       *time.Location   // Timestamp 列使用的时区
	Clock              func() time.Time // 测试替换
}

// NewComponents 按选项组装组件
func NewComponents(opts ...ComponentOpt) *Components {
	c := &Components{}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ----- 组件选项 -----

// WithCatalog 设置分析目录
func WithCatalog(c *catalog.Catalog) ComponentOpt {
	return func(comp *Components) {
		comp.Catalog = c
	}
}

// WithExtractor 设置PDF提取器组件
func WithExtractor(extractor TextExtractor) ComponentOpt {
	return func(comp *Components) {
		comp.Extractor = extractor
	}
}

// WithParser 设置字段解析器
func WithParser(parser FieldParser) ComponentOpt {
	return func(comp *Components) {
		comp.Parser = parser
	}
}

func WithSummarizer(summarizer Summarizer) ComponentOpt {
	return func(comp *Components) {
		comp.Summarizer = summarizer
	}
}

// WithStore 设置分析结果存储
func WithStore(store AnalysisStore) ComponentOpt {
	return func(comp *Components) {
		comp.Store = store
	}
}

// WithObjects 设置原始简历存储
func WithObjects(objects ObjectStore) ComponentOpt {
	return func(comp *Components) {
		comp.Objects = objects
	}
}

func WithMetrics(metrics MetricsRecorder) ComponentOpt {
	return func(comp *Components) {
		comp.Metrics = metrics
	}
}

// ----- 设置选项 -----

// WithDefaultCourseCount 设置默认推荐课程数
func WithDefaultCourseCount(count int) SettingOpt {
	return func(s *Settings) {
		s.DefaultCourseCount = count
	}
}

// WithObjectPrefix 设置对象键前缀
func WithObjectPrefix(prefix string) SettingOpt {
	return func(s *Settings) {
		s.ObjectPrefix = prefix
	}
}

// WithRandomSeed 固定随机种子，课程抽样与视频选择可复现
func WithRandomSeed(seed int64) SettingOpt {
	return func(s *Settings) {
		s.RandomSeed = seed
	}
}

// WithTimeLocation 设置时区
func WithTimeLocation(loc *time.Location) SettingOpt {
	return func(s *Settings) {
		if loc != nil {
			s.TimeLocation = loc
		} else {
			s.TimeLocation = time.Local
		}
	}
}

// WithClock 替换时钟
func WithClock(clock func() time.Time) SettingOpt {
	return func(s *Settings) {
		s.Clock = clock
	}
}
