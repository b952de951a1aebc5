package processor

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"smart-resume-analyzer/internal/catalog"
	"smart-resume-analyzer/internal/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var samplePDF = []byte("%PDF-1.4\n1 0 obj\n<< /Type /Catalog >>\nendobj\n%%EOF")

// mockExtractor 模拟PDF提取器
type mockExtractor struct {
	doc    *types.ExtractedDocument
	err    error
	closed bool
}

func (m *mockExtractor) Extract(ctx context.Context, data []byte, uri string) (*types.ExtractedDocument, error) {
	return m.doc, m.err
}

func (m *mockExtractor) Close() error {
	m.closed = true
	return nil
}

// mockParser 模拟字段解析器
type mockParser struct {
	record *types.ResumeRecord
	err    error
}

func (m *mockParser) Parse(ctx context.Context, doc *types.ExtractedDocument) (*types.ResumeRecord, error) {
	if m.err != nil {
		return nil, m.err
	}
	r := *m.record
	return &r, nil
}

type mockSummarizer struct {
	err error
}

func (m *mockSummarizer) Summarize(ctx context.Context, text string) ([]string, error) {
	if m.err != nil {
		return nil, m.err
	}
	return []string{"summary sentence"}, nil
}

// mockStore 记录落库的结果
type mockStore struct {
	mu      sync.Mutex
	saved   []*types.AnalysisResult
	err     error
	report  *types.SaveReport
	counter uint64
}

func (m *mockStore) SaveAnalysis(ctx context.Context, result *types.AnalysisResult) (*types.SaveReport, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	m.saved = append(m.saved, result)
	m.counter++
	if m.report != nil {
		return m.report, nil
	}
	return &types.SaveReport{RecordID: m.counter}, nil
}

type mockObjects struct {
	mu   sync.Mutex
	keys []string
	err  error
}

func (m *mockObjects) PutResume(ctx context.Context, key string, data []byte, contentType string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.keys = append(m.keys, key)
	return nil
}

type mockMetrics struct {
	mu                 sync.Mutex
	analyses           int
	extractionFailures int
	storageFailures    int
	uploadFailures     int
}

func (m *mockMetrics) ObserveAnalysis(string, string, time.Duration) {
	m.mu.Lock()
	m.analyses++
	m.mu.Unlock()
}
func (m *mockMetrics) IncExtractionFailure() { m.extractionFailures++ }
func (m *mockMetrics) IncStorageFailure()    { m.storageFailures++ }
func (m *mockMetrics) IncUploadFailure()     { m.uploadFailures++ }

const resumeText = "Jane Doe\njane@example.com\nObjective: build ML systems\nExperience at Acme\nSkills: Python, TensorFlow, SQL\nProjects\n"

type analyzerFixture struct {
	analyzer  *Analyzer
	extractor *mockExtractor
	parser    *mockParser
	store     *mockStore
	objects   *mockObjects
	metrics   *mockMetrics
}

func newAnalyzerFixture(t *testing.T, opts ...SettingOpt) *analyzerFixture {
	t.Helper()
	f := &analyzerFixture{
		extractor: &mockExtractor{doc: &types.ExtractedDocument{Text: resumeText, PageCount: 2}},
		parser: &mockParser{record: &types.ResumeRecord{
			Name:   "Jane Doe",
			Email:  "jane@example.com",
			Phone:  "+919876543210",
			Skills: []string{"Python", "TensorFlow", "SQL"},
		}},
		store:   &mockStore{},
		objects: &mockObjects{},
		metrics: &mockMetrics{},
	}

	comp := NewComponents(
		WithCatalog(defaultCatalog(t)),
		WithExtractor(f.extractor),
		WithParser(f.parser),
		WithSummarizer(&mockSummarizer{}),
		WithStore(f.store),
		WithObjects(f.objects),
		WithMetrics(f.metrics),
	)
	fixed := time.Date(2024, 3, 5, 14, 7, 9, 0, time.UTC)
	set := &Settings{}
	opts = append([]SettingOpt{
		WithRandomSeed(99),
		WithObjectPrefix("resumes"),
		WithTimeLocation(time.UTC),
		WithClock(func() time.Time { return fixed }),
	}, opts...)

	a, err := NewAnalyzer(comp, set, opts...)
	require.NoError(t, err)
	f.analyzer = a
	return f
}

func TestAnalyzeHappyPath(t *testing.T) {
	f := newAnalyzerFixture(t)

	report, err := f.analyzer.Analyze(context.Background(), AnalyzeRequest{
		FileName: "../Jane Doe.pdf",
		Data:     samplePDF,
	})
	require.NoError(t, err)

	r := report.Result
	assert.Equal(t, "Data Science", r.DetectedField)
	assert.Equal(t, []string{"Keras", "TensorFlow", "Pandas", "Deep learning"}, r.RecommendedSkills)
	assert.Equal(t, []string{"TensorFlow"}, r.MatchedSkills)
	assert.Equal(t, []string{"Keras", "Pandas", "Deep learning"}, r.MissingSkills)
	assert.Len(t, r.RecommendedCourses, 4, "未指定数量时使用默认值")
	assert.Equal(t, 18+20+14+18, r.ResumeScore)
	assert.ElementsMatch(t, []string{"Achievements Section", "Certifications"}, r.MissingSections)
	assert.Equal(t, LevelIntermediate, r.CandidateLevel)
	assert.Equal(t, "2024-03-05_14:07:09", r.Timestamp)
	assert.Equal(t, 2, r.Record.PageCount, "页数来自提取结果")
	assert.Equal(t, resumeText, r.Record.RawText)

	assert.Contains(t, report.ScoreFeedback, "Good work")
	assert.Len(t, report.FieldConfidence, 5)
	assert.Equal(t, []string{"summary sentence"}, report.Summary)
	assert.NotNil(t, report.ResumeVideo)
	assert.NotNil(t, report.InterviewVideo)
	assert.Equal(t, uint64(1), report.RecordID)
	assert.Empty(t, report.Warnings)

	require.Len(t, f.objects.keys, 1)
	key := f.objects.keys[0]
	assert.Equal(t, key, report.ObjectKey)
	assert.True(t, strings.HasPrefix(key, "resumes/"))
	assert.True(t, strings.HasSuffix(key, "_Jane_Doe.pdf"), "对象键使用清洗后的文件名: %s", key)
	assert.NotContains(t, strings.TrimPrefix(key, "resumes/"), "/")

	require.Len(t, f.store.saved, 1)
	assert.Equal(t, 1, f.metrics.analyses)
}

func TestAnalyzeCourseCount(t *testing.T) {
	f := newAnalyzerFixture(t)

	report, err := f.analyzer.Analyze(context.Background(), AnalyzeRequest{FileName: "cv.pdf", Data: samplePDF, CourseCount: 7})
	require.NoError(t, err)
	assert.Len(t, report.Result.RecommendedCourses, 7)

	report, err = f.analyzer.Analyze(context.Background(), AnalyzeRequest{FileName: "cv.pdf", Data: samplePDF, CourseCount: 25})
	require.NoError(t, err)
	assert.Len(t, report.Result.RecommendedCourses, 10)
}

func TestAnalyzeSameSeedSameCourses(t *testing.T) {
	a := newAnalyzerFixture(t)
	b := newAnalyzerFixture(t)

	ra, err := a.analyzer.Analyze(context.Background(), AnalyzeRequest{FileName: "cv.pdf", Data: samplePDF})
	require.NoError(t, err)
	rb, err := b.analyzer.Analyze(context.Background(), AnalyzeRequest{FileName: "cv.pdf", Data: samplePDF})
	require.NoError(t, err)
	assert.Equal(t, ra.Result.RecommendedCourses, rb.Result.RecommendedCourses)
	assert.Equal(t, ra.ResumeVideo, rb.ResumeVideo)
}

func TestAnalyzeNoFieldSkipsCourses(t *testing.T) {
	f := newAnalyzerFixture(t)
	f.parser.record.Skills = []string{"SQL", "Excel"}

	report, err := f.analyzer.Analyze(context.Background(), AnalyzeRequest{FileName: "cv.pdf", Data: samplePDF})
	require.NoError(t, err)
	assert.Empty(t, report.Result.DetectedField)
	assert.Empty(t, report.Result.RecommendedCourses)
	assert.Empty(t, report.Result.RecommendedSkills)
	assert.Empty(t, report.Result.MatchedSkills)
	assert.Empty(t, report.Result.MissingSkills)
}

func TestAnalyzeRejectsInvalidUpload(t *testing.T) {
	f := newAnalyzerFixture(t)

	_, err := f.analyzer.Analyze(context.Background(), AnalyzeRequest{FileName: "cv.docx", Data: samplePDF})
	assert.ErrorIs(t, err, ErrInvalidUpload)

	_, err = f.analyzer.Analyze(context.Background(), AnalyzeRequest{FileName: "cv.pdf", Data: []byte("plain text")})
	assert.ErrorIs(t, err, ErrInvalidUpload)

	_, err = f.analyzer.Analyze(context.Background(), AnalyzeRequest{FileName: "cv.pdf"})
	assert.ErrorIs(t, err, ErrInvalidUpload)

	assert.Empty(t, f.objects.keys, "无效上传不应保存原件")
}

func TestAnalyzeExtractionErrors(t *testing.T) {
	cases := []struct {
		name  string
		setup func(f *analyzerFixture)
	}{
		{"提取器报错", func(f *analyzerFixture) { f.extractor.err = errors.New("corrupt pdf") }},
		{"空白文本", func(f *analyzerFixture) { f.extractor.doc = &types.ExtractedDocument{Text: "  \n\t "} }},
		{"提取结果为空", func(f *analyzerFixture) { f.extractor.doc = nil }},
		{"解析器报错", func(f *analyzerFixture) { f.parser.err = errors.New("no fields") }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newAnalyzerFixture(t)
			tc.setup(f)

			report, err := f.analyzer.Analyze(context.Background(), AnalyzeRequest{FileName: "cv.pdf", Data: samplePDF})
			require.Error(t, err)
			assert.Nil(t, report)
			assert.ErrorIs(t, err, ErrExtractionFailed)

			var pe *ResumeProcessError
			require.True(t, errors.As(err, &pe))
			assert.Equal(t, "extract", pe.Op)
			assert.Empty(t, f.store.saved, "提取失败不应落库")
			assert.Equal(t, 1, f.metrics.extractionFailures)
		})
	}
}

func TestAnalyzeStorageFailureIsWarning(t *testing.T) {
	f := newAnalyzerFixture(t)
	f.store.err = errors.New("connection refused")

	report, err := f.analyzer.Analyze(context.Background(), AnalyzeRequest{FileName: "cv.pdf", Data: samplePDF})
	require.NoError(t, err, "存储失败不影响分析结果返回")
	require.Len(t, report.Warnings, 1)
	assert.Contains(t, report.Warnings[0], ErrStorageFailed.Error())
	assert.Zero(t, report.RecordID)
	assert.Equal(t, 1, f.metrics.storageFailures)
}

func TestAnalyzeUploadFailureIsWarning(t *testing.T) {
	f := newAnalyzerFixture(t)
	f.objects.err = errors.New("bucket missing")

	report, err := f.analyzer.Analyze(context.Background(), AnalyzeRequest{FileName: "cv.pdf", Data: samplePDF})
	require.NoError(t, err)
	assert.Empty(t, report.ObjectKey)
	require.Len(t, report.Warnings, 1)
	assert.Contains(t, report.Warnings[0], ErrUploadFailed.Error())
	assert.Equal(t, 1, f.metrics.uploadFailures)
}

func TestAnalyzeReportsTruncations(t *testing.T) {
	f := newAnalyzerFixture(t)
	f.store.report = &types.SaveReport{
		RecordID:    9,
		Truncations: []types.Truncation{{Column: "Name", Original: 140, Stored: 100}},
	}

	report, err := f.analyzer.Analyze(context.Background(), AnalyzeRequest{FileName: "cv.pdf", Data: samplePDF})
	require.NoError(t, err)
	assert.Equal(t, uint64(9), report.RecordID)
	require.Len(t, report.Truncations, 1)
	require.Len(t, report.Warnings, 1)
	assert.Contains(t, report.Warnings[0], "Name")
}

func TestAnalyzeSummaryFailureContinues(t *testing.T) {
	f := newAnalyzerFixture(t)
	f.analyzer.summarizer = &mockSummarizer{err: errors.New("tokenizer exploded")}

	report, err := f.analyzer.Analyze(context.Background(), AnalyzeRequest{FileName: "cv.pdf", Data: samplePDF})
	require.NoError(t, err)
	assert.Empty(t, report.Summary)
	assert.Contains(t, report.SummaryError, ErrSummaryFailed.Error())
	assert.Len(t, f.store.saved, 1, "摘要失败后仍然落库")
}

func TestAnalyzeConcurrent(t *testing.T) {
	f := newAnalyzerFixture(t)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			report, err := f.analyzer.Analyze(context.Background(), AnalyzeRequest{FileName: "cv.pdf", Data: samplePDF})
			assert.NoError(t, err)
			assert.Len(t, report.Result.RecommendedCourses, 4)
		}()
	}
	wg.Wait()
	assert.Len(t, f.store.saved, 16)
}

func TestNewAnalyzerValidation(t *testing.T) {
	_, err := NewAnalyzer(nil, nil)
	assert.Error(t, err)

	_, err = NewAnalyzer(NewComponents(WithExtractor(&mockExtractor{})), nil)
	assert.Error(t, err, "缺少目录")

	_, err = NewAnalyzer(NewComponents(WithCatalog(defaultCatalog(t))), nil)
	assert.Error(t, err, "缺少提取器")

	_, err = NewAnalyzer(NewComponents(WithCatalog(&catalog.Catalog{})), nil)
	assert.ErrorIs(t, err, catalog.ErrInvalidCatalog)
}

func TestAnalyzerClose(t *testing.T) {
	f := newAnalyzerFixture(t)
	require.NoError(t, f.analyzer.Close())
	assert.True(t, f.extractor.closed)
}

func TestObjectKey(t *testing.T) {
	key, err := ObjectKey("/resumes/", "../../etc/passwd.pdf")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(key, "resumes/"))
	assert.True(t, strings.HasSuffix(key, "_passwd.pdf"))
	assert.NotContains(t, key, "..")

	key, err = ObjectKey("", "cv.pdf")
	require.NoError(t, err)
	assert.NotContains(t, key, "/")
}
