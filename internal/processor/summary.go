package processor

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/neurosnap/sentences"
	"github.com/neurosnap/sentences/english"
)

// 摘要句子长度范围（字符数，不含边界）
const (
	summaryMinSentenceLen = 40
	summaryMaxSentenceLen = 200
)

// SentenceSummarizer 基于英文分句器的摘要：取前 N 个长度适中的句子
type SentenceSummarizer struct {
	tokenizer    *sentences.DefaultSentenceTokenizer
	maxSentences int
}

// NewSentenceSummarizer 创建摘要器，maxSentences<=0 时取 4
func NewSentenceSummarizer(maxSentences int) (*SentenceSummarizer, error) {
	tokenizer, err := english.NewSentenceTokenizer(nil)
	if err != nil {
		return nil, fmt.Errorf("初始化英文分句器失败: %w", err)
	}
	if maxSentences <= 0 {
		maxSentences = 4
	}
	return &SentenceSummarizer{tokenizer: tokenizer, maxSentences: maxSentences}, nil
}

// Summarize 返回摘要句子。分句过程中的 panic 转为 SummaryError
func (s *SentenceSummarizer) Summarize(ctx context.Context, text string) (summary []string, err error) {
	defer func() {
		if r := recover(); r != nil {
			summary = nil
			err = NewSummaryError("", fmt.Sprintf("分句异常: %v", r))
		}
	}()

	if err := ctx.Err(); err != nil {
		return nil, NewSummaryError("", err.Error())
	}
	if s == nil || s.tokenizer == nil {
		return nil, NewSummaryError("", "分句器未初始化")
	}

	summary = make([]string, 0, s.maxSentences)
	for _, sent := range s.tokenizer.Tokenize(text) {
		// PDF 文本的句内换行合并为单个空格
		trimmed := strings.Join(strings.Fields(sent.Text), " ")
		n := utf8.RuneCountInString(trimmed)
		if n <= summaryMinSentenceLen || n >= summaryMaxSentenceLen {
			continue
		}
		summary = append(summary, trimmed)
		if len(summary) == s.maxSentences {
			break
		}
	}
	return summary, nil
}
