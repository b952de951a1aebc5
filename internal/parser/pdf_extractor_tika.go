package parser

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"smart-resume-analyzer/internal/config"
	"smart-resume-analyzer/internal/constants"
	"smart-resume-analyzer/internal/logger"
	"smart-resume-analyzer/internal/types"

	"github.com/rs/zerolog"
	"github.com/sony/gobreaker/v2"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// tikaPageCountKey Tika 元数据中的页数字段
const tikaPageCountKey = "xmpTPg:NPages"

// TikaPDFExtractor 是基于Apache Tika的PDF解析器
type TikaPDFExtractor struct {
	// Tika服务器地址，例如 http://localhost:9998
	ServerURL string
	// HTTP客户端，可配置超时等参数
	Client *http.Client
	// 是否保留完整元数据
	extractFullMetadata bool

	breaker *gobreaker.CircuitBreaker[*types.ExtractedDocument]
	log     zerolog.Logger
}

// TikaOption 定义配置选项函数
type TikaOption func(*TikaPDFExtractor)

// WithFullMetadata 配置是否保留完整元数据
func WithFullMetadata(extract bool) TikaOption {
	return func(e *TikaPDFExtractor) {
		e.extractFullMetadata = extract
	}
}

// WithTimeout 配置HTTP客户端超时时间
func WithTimeout(timeout time.Duration) TikaOption {
	return func(e *TikaPDFExtractor) {
		if timeout > 0 {
			e.Client.Timeout = timeout
		}
	}
}

// WithBreaker 配置熔断器
func WithBreaker(cfg config.BreakerConfig) TikaOption {
	return func(e *TikaPDFExtractor) {
		e.breaker = NewExtractionBreaker[*types.ExtractedDocument]("tika", cfg)
	}
}

// NewTikaPDFExtractor 创建一个新的Tika PDF解析器
func NewTikaPDFExtractor(serverURL string, options ...TikaOption) *TikaPDFExtractor {
	client := &http.Client{
		Timeout:   60 * time.Second,
		Transport: otelhttp.NewTransport(http.DefaultTransport),
	}

	extractor := &TikaPDFExtractor{
		ServerURL: strings.TrimRight(serverURL, "/"),
		Client:    client,
		log:       logger.Component("tika"),
	}

	for _, option := range options {
		option(extractor)
	}

	return extractor
}

// Extract 提取文本与页数，配置了熔断器时经熔断器调用
func (e *TikaPDFExtractor) Extract(ctx context.Context, data []byte, uri string) (*types.ExtractedDocument, error) {
	if e.breaker == nil {
		return e.extract(ctx, data, uri)
	}
	doc, err := e.breaker.Execute(func() (*types.ExtractedDocument, error) {
		return e.extract(ctx, data, uri)
	})
	if err != nil {
		return nil, fmt.Errorf("tika 提取失败(熔断器 %s): %w", e.breaker.State(), err)
	}
	return doc, nil
}

// Close 释放空闲连接
func (e *TikaPDFExtractor) Close() error {
	e.Client.CloseIdleConnections()
	return nil
}

func (e *TikaPDFExtractor) extract(ctx context.Context, data []byte, uri string) (*types.ExtractedDocument, error) {
	startTime := time.Now()

	textBytes, err := e.put(ctx, "/tika", "text/plain", data, uri)
	if err != nil {
		return nil, err
	}
	text := string(textBytes)

	metadata := map[string]interface{}{
		"extraction_time":  startTime.Format(time.RFC3339),
		"source_file_path": uri,
		"text_length":      len(text),
	}

	pageCount := 0
	rawMetadata, err := e.extractMetadata(ctx, data, uri)
	if err != nil {
		// 页数缺失不影响文本分析
		e.log.Warn().Err(err).Str("uri", uri).Msg("元数据提取失败，继续使用基本元数据")
	} else {
		pageCount = parsePageCount(rawMetadata[tikaPageCountKey])
		for k, v := range rawMetadata {
			if e.extractFullMetadata || isImportantMetadata(k) {
				metadata[k] = v
			}
		}
	}
	metadata["processing_duration_ms"] = time.Since(startTime).Milliseconds()

	e.log.Debug().
		Str("uri", uri).
		Int("chars", len(text)).
		Int("pages", pageCount).
		Dur("duration", time.Since(startTime)).
		Msg("PDF文本提取完成")

	return &types.ExtractedDocument{Text: text, PageCount: pageCount, Metadata: metadata}, nil
}

// extractMetadata 提取文档元数据
func (e *TikaPDFExtractor) extractMetadata(ctx context.Context, data []byte, uri string) (map[string]interface{}, error) {
	metadataBytes, err := e.put(ctx, "/meta", "application/json", data, uri)
	if err != nil {
		return nil, err
	}

	var metadata map[string]interface{}
	if err := json.Unmarshal(metadataBytes, &metadata); err != nil {
		return nil, fmt.Errorf("解析元数据JSON失败: %w", err)
	}
	return metadata, nil
}

func (e *TikaPDFExtractor) put(ctx context.Context, path, accept string, data []byte, uri string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, e.ServerURL+path, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("创建HTTP请求失败: %w", err)
	}
	req.Header.Set("Content-Type", constants.PDFContentType)
	req.Header.Set("Accept", accept)
	if uri != "" {
		req.Header.Set("X-Tika-Resource-Name", uri)
	}

	resp, err := e.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("发送请求到Tika服务器失败: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("tika服务器返回错误状态码: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("读取Tika响应失败: %w", err)
	}
	return body, nil
}

// 判断元数据字段是否重要
func isImportantMetadata(key string) bool {
	importantKeys := map[string]bool{
		"pdf:PDFVersion":    true,
		tikaPageCountKey:    true,
		"dcterms:created":   true,
		"language":          true,
		"dc:title":          true,
		"Content-Type":      true,
		"pdf:docinfo:title": true,
	}
	return importantKeys[key]
}

// parsePageCount Tika 可能返回数字、字符串或字符串数组
func parsePageCount(v interface{}) int {
	switch val := v.(type) {
	case float64:
		return int(val)
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(val))
		if err != nil {
			return 0
		}
		return n
	case []interface{}:
		if len(val) > 0 {
			return parsePageCount(val[0])
		}
	}
	return 0
}
