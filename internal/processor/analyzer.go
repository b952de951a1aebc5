package processor

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"net/http"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"smart-resume-analyzer/internal/catalog"
	"smart-resume-analyzer/internal/constants"
	"smart-resume-analyzer/internal/logger"
	"smart-resume-analyzer/internal/tracing"
	"smart-resume-analyzer/internal/types"
	"smart-resume-analyzer/pkg/utils"

	"github.com/gofrs/uuid/v5"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// AnalyzeRequest 一次上传
type AnalyzeRequest struct {
	FileName    string // 客户端提供的文件名，只用于展示与生成对象键
	Data        []byte
	CourseCount int // 0 表示使用默认值
}

// Analyzer 单次上传的同步分析流程：
// 保存原件 → 提取 → 评分/方向/课程/技能匹配 → 落库
type Analyzer struct {
	catalog    *catalog.Catalog
	extractor  TextExtractor
	parser     FieldParser
	summarizer Summarizer
	store      AnalysisStore
	objects    ObjectStore
	metrics    MetricsRecorder

	settings Settings
	tracer   trace.Tracer
	log      zerolog.Logger

	mu  sync.Mutex // 保护 rng
	rng *rand.Rand
}

// NewAnalyzer 根据组件与设置创建分析器
func NewAnalyzer(comp *Components, set *Settings, opts ...SettingOpt) (*Analyzer, error) {
	if comp == nil {
		return nil, errors.New("components 不能为空")
	}
	if set == nil {
		set = &Settings{}
	}
	for _, opt := range opts {
		opt(set)
	}

	if comp.Catalog == nil {
		return nil, errors.New("分析目录未初始化")
	}
	if err := comp.Catalog.Ready(); err != nil {
		return nil, fmt.Errorf("分析目录无效: %w", err)
	}
	if comp.Extractor == nil || comp.Parser == nil {
		return nil, errors.New("提取器与字段解析器不能为空")
	}
	if set.DefaultCourseCount == 0 {
		set.DefaultCourseCount = constants.DefaultCourseCount
	}
	if set.TimeLocation == nil {
		set.TimeLocation = time.Local
	}
	if set.Clock == nil {
		set.Clock = time.Now
	}
	seed := set.RandomSeed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	metrics := comp.Metrics
	if metrics == nil {
		metrics = nopMetrics{}
	}

	a := &Analyzer{
		catalog:    comp.Catalog,
		extractor:  comp.Extractor,
		parser:     comp.Parser,
		summarizer: comp.Summarizer,
		store:      comp.Store,
		objects:    comp.Objects,
		metrics:    metrics,
		settings:   *set,
		tracer:     otel.Tracer(constants.ServiceName),
		log:        logger.Component("analyzer"),
		rng:        rand.New(rand.NewSource(seed)),
	}
	if a.store == nil {
		a.log.Warn().Msg("Analyzer 未配置存储，分析结果不会落库")
	}
	return a, nil
}

// Catalog 返回分析器使用的目录
func (a *Analyzer) Catalog() *catalog.Catalog {
	return a.catalog
}

// Close 释放提取器资源
func (a *Analyzer) Close() error {
	if a.extractor == nil {
		return nil
	}
	return a.extractor.Close()
}

// ValidateUpload 只接受扩展名为 .pdf 且内容为 PDF 的文件
func ValidateUpload(fileName string, data []byte) error {
	if len(data) == 0 {
		return NewInvalidUploadError(fileName, "文件为空")
	}
	if !strings.EqualFold(filepath.Ext(fileName), ".pdf") {
		return NewInvalidUploadError(fileName, "仅支持 PDF 文件")
	}
	if http.DetectContentType(data) != constants.PDFContentType {
		return NewInvalidUploadError(fileName, "文件内容不是 PDF")
	}
	return nil
}

// ObjectKey 生成原件对象键：<prefix>/<uuidv7>_<清洗后的文件名>
func ObjectKey(prefix, fileName string) (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", fmt.Errorf("生成UUIDv7失败: %w", err)
	}
	key := id.String() + "_" + utils.SanitizeFilename(fileName)
	prefix = strings.Trim(prefix, "/")
	if prefix == "" {
		return key, nil
	}
	return prefix + "/" + key, nil
}

// Analyze 执行完整分析流程。
// 只有上传无效或提取失败会返回错误；摘要、原件保存与落库失败记入报告。
func (a *Analyzer) Analyze(ctx context.Context, req AnalyzeRequest) (*types.AnalysisReport, error) {
	start := a.settings.Clock()
	ctx, span := a.tracer.Start(ctx, "Analyzer.Analyze",
		trace.WithAttributes(
			attribute.String("resume.filename", tracing.SafeFilename(req.FileName)),
			attribute.Int("resume.size", len(req.Data)),
		))
	defer span.End()

	log := a.log.With().Str("filename", req.FileName).Logger()

	if err := ValidateUpload(req.FileName, req.Data); err != nil {
		tracing.RecordError(span, err, tracing.ErrorTypeValidation)
		return nil, err
	}

	report := &types.AnalysisReport{}

	// 1. 保存原件
	if a.objects != nil {
		key, err := ObjectKey(a.settings.ObjectPrefix, req.FileName)
		if err == nil {
			err = a.objects.PutResume(ctx, key, req.Data, constants.PDFContentType)
		}
		if err != nil {
			uploadErr := NewUploadError(req.FileName, err.Error())
			a.metrics.IncUploadFailure()
			tracing.RecordError(span, uploadErr, tracing.ErrorTypeObjectStore)
			log.Warn().Err(err).Msg("保存原始简历失败，继续分析")
			report.Warnings = append(report.Warnings, uploadErr.Error())
		} else {
			report.ObjectKey = key
			log.Debug().Str("object_key", key).Str("md5", utils.CalculateMD5(req.Data)).Msg("原始简历已保存")
		}
	}

	// 2. 提取
	record, err := a.extract(ctx, req)
	if err != nil {
		a.metrics.IncExtractionFailure()
		tracing.RecordError(span, err, tracing.ErrorTypeExtraction)
		log.Warn().Err(err).Msg("简历提取失败")
		return nil, err
	}

	// 3. 评分、方向、课程、技能匹配
	courseCount := req.CourseCount
	if courseCount == 0 {
		courseCount = a.settings.DefaultCourseCount
	}
	result := a.evaluate(record, courseCount)
	report.Result = *result
	report.ScoreFeedback = ScoreFeedback(result.ResumeScore)
	report.FieldConfidence = FieldConfidence(record.Skills, a.catalog)
	report.SkillRadar = SkillRadar(result.MatchedSkills, result.MissingSkills)
	report.ResumeVideo, report.InterviewVideo = a.pickVideos()

	// 4. 摘要
	if a.summarizer != nil {
		summary, err := a.summarizer.Summarize(ctx, record.RawText)
		if err != nil {
			var pe *ResumeProcessError
			if !errors.As(err, &pe) {
				err = NewSummaryError(req.FileName, err.Error())
			}
			log.Warn().Err(err).Msg("生成摘要失败")
			report.SummaryError = err.Error()
		} else {
			report.Summary = summary
		}
	}

	// 5. 落库
	if a.store != nil {
		saved, err := a.store.SaveAnalysis(ctx, result)
		if err != nil {
			storageErr := NewStorageError(req.FileName, err.Error())
			a.metrics.IncStorageFailure()
			tracing.RecordError(span, storageErr, tracing.ErrorTypeDB)
			log.Error().Err(err).Msg("分析结果落库失败")
			report.Warnings = append(report.Warnings, storageErr.Error())
		} else if saved != nil {
			report.RecordID = saved.RecordID
			report.Truncations = saved.Truncations
			for _, tr := range saved.Truncations {
				report.Warnings = append(report.Warnings,
					fmt.Sprintf("列 %s 超出长度限制，已从 %d 截断为 %d", tr.Column, tr.Original, tr.Stored))
			}
		}
	}

	report.Duration = a.settings.Clock().Sub(start)
	a.metrics.ObserveAnalysis(result.DetectedField, result.CandidateLevel, report.Duration)

	span.SetAttributes(
		attribute.Int("resume.score", result.ResumeScore),
		attribute.String("resume.field", result.DetectedField),
		attribute.Int("resume.pages", record.PageCount),
		attribute.String("resume.email", tracing.SafeAttributeValue("resume.email", record.Email, tracing.DefaultMaxLength)),
	)
	log.Info().
		Str("email", tracing.MaskPII(record.Email)).
		Int("score", result.ResumeScore).
		Str("field", result.DetectedField).
		Str("level", result.CandidateLevel).
		Int("courses", len(result.RecommendedCourses)).
		Dur("duration", report.Duration).
		Msg("简历分析完成")

	return report, nil
}

// extract 文本提取与字段解析，任何一步失败都归为 ExtractionError
func (a *Analyzer) extract(ctx context.Context, req AnalyzeRequest) (*types.ResumeRecord, error) {
	doc, err := a.extractor.Extract(ctx, req.Data, req.FileName)
	if err != nil {
		return nil, NewExtractionError(req.FileName, err.Error())
	}
	if doc == nil || strings.TrimSpace(doc.Text) == "" {
		return nil, NewExtractionError(req.FileName, "未提取到文本")
	}

	record, err := a.parser.Parse(ctx, doc)
	if err != nil {
		return nil, NewExtractionError(req.FileName, err.Error())
	}
	if record == nil {
		return nil, NewExtractionError(req.FileName, "未解析到结构化字段")
	}
	if record.RawText == "" {
		record.RawText = doc.Text
	}
	if record.PageCount == 0 {
		record.PageCount = doc.PageCount
	}
	if record.Skills == nil {
		record.Skills = make([]string, 0)
	}
	return record, nil
}

// evaluate 纯计算部分，不访问外部依赖
func (a *Analyzer) evaluate(record *types.ResumeRecord, courseCount int) *types.AnalysisResult {
	score, missing := ComputeScore(record.RawText, a.catalog.Sections)
	field, recommended := DetectField(record.Skills, a.catalog)

	courses := make([]types.Course, 0)
	if field != "" {
		if f, ok := a.catalog.FieldByName(field); ok {
			a.mu.Lock()
			courses = SampleCourses(f.Courses, courseCount, a.rng)
			a.mu.Unlock()
		}
	}
	if recommended == nil {
		recommended = make([]string, 0)
	}
	matched, missingSkills := Match(record.Skills, recommended)

	return &types.AnalysisResult{
		Record:             *record,
		ResumeScore:        score,
		MissingSections:    missing,
		DetectedField:      field,
		RecommendedSkills:  recommended,
		MatchedSkills:      matched,
		MissingSkills:      missingSkills,
		RecommendedCourses: courses,
		CandidateLevel:     CandidateLevel(record.PageCount),
		Timestamp:          a.settings.Clock().In(a.settings.TimeLocation).Format(constants.TimestampLayout),
	}
}

// pickVideos 随机选择一个简历视频与一个面试视频
func (a *Analyzer) pickVideos() (*types.Video, *types.Video) {
	a.mu.Lock()
	defer a.mu.Unlock()

	pick := func(videos []types.Video) *types.Video {
		if len(videos) == 0 {
			return nil
		}
		v := videos[a.rng.Intn(len(videos))]
		return &v
	}
	return pick(a.catalog.ResumeVideos), pick(a.catalog.InterviewVideos)
}
