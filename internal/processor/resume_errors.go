package processor

import (
	"errors"
	"fmt"
)

// 定义基础错误类型
var (
	ErrExtractionFailed = errors.New("简历内容提取失败")
	ErrSummaryFailed    = errors.New("简历摘要生成失败")
	ErrStorageFailed    = errors.New("分析结果存储失败")
	ErrUploadFailed     = errors.New("原始简历保存失败")
	ErrInvalidUpload    = errors.New("上传文件无效")
)

// ResumeProcessError 包含详细错误信息的自定义错误
type ResumeProcessError struct {
	FileName string
	Op       string
	BaseErr  error
	Detail   string
}

func (e *ResumeProcessError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s (操作:%s, 文件:%s): %s", e.BaseErr, e.Op, e.FileName, e.Detail)
	}
	return fmt.Sprintf("%s (操作:%s, 文件:%s)", e.BaseErr, e.Op, e.FileName)
}

func (e *ResumeProcessError) Unwrap() error {
	return e.BaseErr
}

// Is 实现 errors.Is 接口以支持错误比较
func (e *ResumeProcessError) Is(target error) bool {
	return errors.Is(e.BaseErr, target)
}

// 错误构造函数

// NewExtractionError 文本或结构化字段无法提取，本次上传的流程终止
func NewExtractionError(fileName, detail string) error {
	return &ResumeProcessError{
		FileName: fileName,
		Op:       "extract",
		BaseErr:  ErrExtractionFailed,
		Detail:   detail,
	}
}

// NewSummaryError 摘要失败不影响后续流程
func NewSummaryError(fileName, detail string) error {
	return &ResumeProcessError{
		FileName: fileName,
		Op:       "summary",
		BaseErr:  ErrSummaryFailed,
		Detail:   detail,
	}
}

func NewStorageError(fileName, detail string) error {
	return &ResumeProcessError{
		FileName: fileName,
		Op:       "store",
		BaseErr:  ErrStorageFailed,
		Detail:   detail,
	}
}

func NewUploadError(fileName, detail string) error {
	return &ResumeProcessError{
		FileName: fileName,
		Op:       "upload",
		BaseErr:  ErrUploadFailed,
		Detail:   detail,
	}
}

func NewInvalidUploadError(fileName, detail string) error {
	return &ResumeProcessError{
		FileName: fileName,
		Op:       "validate",
		BaseErr:  ErrInvalidUpload,
		Detail:   detail,
	}
}
