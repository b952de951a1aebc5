package parser

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"smart-resume-analyzer/internal/logger"
	"smart-resume-analyzer/internal/types"

	"github.com/cloudwego/eino-ext/components/document/parser/pdf"
	einoParser "github.com/cloudwego/eino/components/document/parser"
	"github.com/rs/zerolog"
)

// EinoPDFTextExtractor 使用 Eino PDF Parser 提取文本
type EinoPDFTextExtractor struct {
	parser  *pdf.PDFParser
	timeout time.Duration
	log     zerolog.Logger
}

// EinoPDFOption PDF提取器的配置选项
type EinoPDFOption func(*EinoPDFTextExtractor)

// WithEinoTimeout 单次解析超时
func WithEinoTimeout(timeout time.Duration) EinoPDFOption {
	return func(e *EinoPDFTextExtractor) {
		if timeout > 0 {
			e.timeout = timeout
		}
	}
}

// NewEinoPDFTextExtractor 初始化 Eino PDF 文本提取器
// 按页拆分文档，文档数即页数
func NewEinoPDFTextExtractor(ctx context.Context, options ...EinoPDFOption) (*EinoPDFTextExtractor, error) {
	p, err := pdf.NewPDFParser(ctx, &pdf.Config{
		ToPages: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Eino PDF parser: %w", err)
	}

	extractor := &EinoPDFTextExtractor{
		parser:  p,
		timeout: 30 * time.Second,
		log:     logger.Component("eino-pdf"),
	}

	for _, option := range options {
		option(extractor)
	}

	return extractor, nil
}

// Extract 从字节数组提取文本内容与页数
func (e *EinoPDFTextExtractor) Extract(ctx context.Context, data []byte, uri string) (*types.ExtractedDocument, error) {
	startTime := time.Now()

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	extraMeta := map[string]any{
		"source_file_path": uri,
		"extraction_time":  startTime.Format(time.RFC3339),
	}
	docs, err := e.parser.Parse(ctx, bytes.NewReader(data),
		einoParser.WithURI(uri),
		einoParser.WithExtraMeta(extraMeta),
	)
	duration := time.Since(startTime)
	if err != nil {
		e.log.Warn().Err(err).Str("uri", uri).Dur("duration", duration).Msg("从字节提取PDF失败")
		return nil, fmt.Errorf("eino PDF parser failed for URI %s: %w", uri, err)
	}
	if len(docs) == 0 {
		return nil, fmt.Errorf("eino PDF parser returned no documents for URI %s", uri)
	}

	pages := make([]string, 0, len(docs))
	for _, doc := range docs {
		pages = append(pages, doc.Content)
	}
	text := strings.Join(pages, "\n")

	metadata := make(map[string]interface{}, len(extraMeta)+3)
	if docs[0].MetaData != nil {
		for k, v := range docs[0].MetaData {
			metadata[k] = v
		}
	}
	for k, v := range extraMeta {
		metadata[k] = v
	}
	metadata["processing_duration_ms"] = duration.Milliseconds()
	metadata["document_count"] = len(docs)
	metadata["text_length"] = len(text)

	e.log.Debug().
		Str("uri", uri).
		Int("chars", len(text)).
		Int("pages", len(docs)).
		Dur("duration", duration).
		Msg("PDF提取完成")

	return &types.ExtractedDocument{Text: text, PageCount: len(docs), Metadata: metadata}, nil
}

// Close eino 解析器不持有外部资源
func (e *EinoPDFTextExtractor) Close() error {
	return nil
}
