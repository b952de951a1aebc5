package parser

import (
	"context"
	"fmt"
	"time"

	"smart-resume-analyzer/internal/config"
	"smart-resume-analyzer/internal/types"
)

// Extractor 文本提取器，由调用方负责 Close
type Extractor interface {
	Extract(ctx context.Context, data []byte, uri string) (*types.ExtractedDocument, error)
	Close() error
}

var (
	_ Extractor = (*TikaPDFExtractor)(nil)
	_ Extractor = (*EinoPDFTextExtractor)(nil)
)

// NewExtractor 按配置创建提取器："tika" 使用 Tika 服务器，其余使用 eino
func NewExtractor(ctx context.Context, cfg config.TikaConfig) (Extractor, error) {
	timeout := time.Duration(cfg.Timeout) * time.Second
	switch cfg.Type {
	case "tika":
		if cfg.ServerURL == "" {
			return nil, fmt.Errorf("tika.server_url 未配置")
		}
		return NewTikaPDFExtractor(cfg.ServerURL,
			WithTimeout(timeout),
			WithBreaker(cfg.Breaker),
		), nil
	case "", "eino":
		return NewEinoPDFTextExtractor(ctx, WithEinoTimeout(timeout))
	default:
		return nil, fmt.Errorf("未知的解析器类型: %s", cfg.Type)
	}
}
