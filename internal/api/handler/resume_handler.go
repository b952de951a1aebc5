package handler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"

	"smart-resume-analyzer/internal/constants"
	"smart-resume-analyzer/internal/logger"
	"smart-resume-analyzer/internal/processor"
	"smart-resume-analyzer/internal/types"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
	"github.com/rs/zerolog"
)

// ResumeAnalyzer *processor.Analyzer 实现了该接口
type ResumeAnalyzer interface {
	Analyze(ctx context.Context, req processor.AnalyzeRequest) (*types.AnalysisReport, error)
}

// ResumeHandler 简历上传与分析
type ResumeHandler struct {
	analyzer ResumeAnalyzer
	maxSize  int64
	log      zerolog.Logger
}

// NewResumeHandler maxSizeBytes <= 0 表示不限制
func NewResumeHandler(analyzer ResumeAnalyzer, maxSizeBytes int64) *ResumeHandler {
	return &ResumeHandler{
		analyzer: analyzer,
		maxSize:  maxSizeBytes,
		log:      logger.Component("resume_handler"),
	}
}

// AnalyzeResponse 分析成功的响应
type AnalyzeResponse struct {
	Success bool                  `json:"success"`
	Report  *types.AnalysisReport `json:"report"`
}

// HandleAnalyze POST /api/v1/resume/analyze
// 表单字段: file (PDF), course_count (可选, 1-10)
func (h *ResumeHandler) HandleAnalyze(ctx context.Context, c *app.RequestContext) {
	courseCount, err := parseCourseCount(c.PostForm("course_count"))
	if err != nil {
		writeError(c, consts.StatusBadRequest, err.Error())
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		writeError(c, consts.StatusBadRequest, "文件未找到")
		return
	}
	if h.maxSize > 0 && fileHeader.Size > h.maxSize {
		writeError(c, consts.StatusRequestEntityTooLarge, fmt.Sprintf("文件超过 %d 字节上限", h.maxSize))
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		writeError(c, consts.StatusInternalServerError, "打开文件失败")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		writeError(c, consts.StatusInternalServerError, "读取文件失败")
		return
	}

	report, err := h.analyzer.Analyze(ctx, processor.AnalyzeRequest{
		FileName:    fileHeader.Filename,
		Data:        data,
		CourseCount: courseCount,
	})
	if err != nil {
		status := analyzeErrorStatus(err)
		if status >= consts.StatusInternalServerError {
			h.log.Error().Err(err).Str("filename", fileHeader.Filename).Msg("简历分析失败")
		} else {
			h.log.Info().Err(err).Str("filename", fileHeader.Filename).Msg("简历被拒绝")
		}
		writeError(c, status, err.Error())
		return
	}

	c.JSON(consts.StatusOK, AnalyzeResponse{Success: true, Report: report})
}

// parseCourseCount 空字符串返回 0，由分析器使用默认值
func parseCourseCount(raw string) (int, error) {
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("course_count 必须是整数: %q", raw)
	}
	if n < constants.MinCourseCount || n > constants.MaxCourseCount {
		return 0, fmt.Errorf("course_count 必须在 %d 到 %d 之间", constants.MinCourseCount, constants.MaxCourseCount)
	}
	return n, nil
}

func analyzeErrorStatus(err error) int {
	switch {
	case errors.Is(err, processor.ErrInvalidUpload):
		return consts.StatusBadRequest
	case errors.Is(err, processor.ErrExtractionFailed):
		return consts.StatusUnprocessableEntity
	case errors.Is(err, context.DeadlineExceeded):
		return consts.StatusGatewayTimeout
	default:
		return consts.StatusInternalServerError
	}
}
