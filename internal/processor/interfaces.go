package processor

import (
	"context"
	"time"

	"smart-resume-analyzer/internal/types"
)

//
// 提取相关接口
//

// TextExtractor PDF 文本提取器接口
type TextExtractor interface {
	// Extract 从 PDF 字节提取全文与页数
	// - uri: 资源标识符，仅用于日志或元数据
	Extract(ctx context.Context, data []byte, uri string) (*types.ExtractedDocument, error)

	// Close 释放提取器持有的资源
	Close() error
}

// FieldParser 从提取结果中解析姓名、邮箱、电话与技能
type FieldParser interface {
	Parse(ctx context.Context, doc *types.ExtractedDocument) (*types.ResumeRecord, error)
}

// Summarizer 简历摘要
type Summarizer interface {
	Summarize(ctx context.Context, text string) ([]string, error)
}

//
// 存储相关接口
//

// AnalysisStore 分析结果持久化
type AnalysisStore interface {
	SaveAnalysis(ctx context.Context, result *types.AnalysisResult) (*types.SaveReport, error)
}

// ObjectStore 原始简历存储
type ObjectStore interface {
	PutResume(ctx context.Context, key string, data []byte, contentType string) error
}

// MetricsRecorder 分析流程指标
type MetricsRecorder interface {
	ObserveAnalysis(field, level string, elapsed time.Duration)
	IncExtractionFailure()
	IncStorageFailure()
	IncUploadFailure()
}

type nopMetrics struct{}

func (nopMetrics) ObserveAnalysis(string, string, time.Duration) {}
func (nopMetrics) IncExtractionFailure()                         {}
func (nopMetrics) IncStorageFailure()                            {}
func (nopMetrics) IncUploadFailure()                             {}
