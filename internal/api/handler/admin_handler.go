package handler

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strconv"

	"smart-resume-analyzer/internal/auth"
	"smart-resume-analyzer/internal/export"
	"smart-resume-analyzer/internal/logger"
	"smart-resume-analyzer/internal/metrics"
	"smart-resume-analyzer/internal/storage/models"
	"smart-resume-analyzer/internal/types"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/common/utils"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
	"github.com/rs/zerolog"
)

const maxPageSize = 1000

// RecordReader *storage.AnalysisRepository 实现了该接口
type RecordReader interface {
	ListRecords(ctx context.Context, limit, offset int) ([]models.AnalysisRecord, error)
	ListAnalyses(ctx context.Context, limit, offset int) ([]types.StoredAnalysis, error)
	CountRecords(ctx context.Context) (int64, error)
	CountByColumn(ctx context.Context, column string) ([]types.LabelCount, error)
}

// LoginLimiter 按客户端 IP 限制登录频率
type LoginLimiter interface {
	Allow(key string) bool
}

// LoginRecorder 登录结果计数
type LoginRecorder interface {
	IncLogin(outcome string)
}

type nopLoginRecorder struct{}

func (nopLoginRecorder) IncLogin(string) {}

// AdminHandler 管理员登录与数据导出
type AdminHandler struct {
	authenticator auth.Authenticator
	sessions      auth.SessionStore
	records       RecordReader
	limiter       LoginLimiter
	metrics       LoginRecorder
	log           zerolog.Logger
}

// NewAdminHandler limiter 与 recorder 可为 nil
func NewAdminHandler(authenticator auth.Authenticator, sessions auth.SessionStore, records RecordReader,
	limiter LoginLimiter, recorder LoginRecorder) *AdminHandler {
	if recorder == nil {
		recorder = nopLoginRecorder{}
	}
	return &AdminHandler{
		authenticator: authenticator,
		sessions:      sessions,
		records:       records,
		limiter:       limiter,
		metrics:       recorder,
		log:           logger.Component("admin_handler"),
	}
}

// LoginRequest 登录请求体
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// HandleLogin POST /api/v1/admin/login
func (h *AdminHandler) HandleLogin(ctx context.Context, c *app.RequestContext) {
	if h.limiter != nil && !h.limiter.Allow(c.ClientIP()) {
		h.metrics.IncLogin(metrics.LoginRateLimited)
		writeError(c, consts.StatusTooManyRequests, "登录尝试过于频繁，请稍后再试")
		return
	}

	var req LoginRequest
	if err := c.BindJSON(&req); err != nil || req.Username == "" || req.Password == "" {
		writeError(c, consts.StatusBadRequest, "请求体需要 username 与 password")
		return
	}

	if err := h.authenticator.Authenticate(ctx, req.Username, req.Password); err != nil {
		h.metrics.IncLogin(metrics.LoginFailure)
		h.log.Warn().Str("client_ip", c.ClientIP()).Msg("管理员登录失败")
		writeError(c, consts.StatusUnauthorized, auth.ErrInvalidCredentials.Error())
		return
	}

	sess, err := h.sessions.Create(ctx, req.Username)
	if err != nil {
		h.log.Error().Err(err).Msg("创建会话失败")
		writeError(c, consts.StatusInternalServerError, "创建会话失败")
		return
	}
	h.metrics.IncLogin(metrics.LoginSuccess)
	h.log.Info().Str("user", req.Username).Msg("管理员登录")

	writeOK(c, consts.StatusOK, utils.H{
		"token":      sess.Token,
		"expires_at": sess.ExpiresAt,
	})
}

// HandleLogout POST /api/v1/admin/logout
func (h *AdminHandler) HandleLogout(ctx context.Context, c *app.RequestContext) {
	err := h.sessions.Revoke(ctx, auth.TokenFromContext(c))
	if errors.Is(err, auth.ErrSessionNotFound) {
		writeError(c, consts.StatusUnauthorized, err.Error())
		return
	}
	if err != nil {
		h.log.Error().Err(err).Msg("注销会话失败")
		writeError(c, consts.StatusInternalServerError, "注销失败")
		return
	}
	writeOK(c, consts.StatusOK, utils.H{})
}

// HandleListRecords GET /api/v1/admin/records?limit=&offset=
func (h *AdminHandler) HandleListRecords(ctx context.Context, c *app.RequestContext) {
	limit, offset, err := parsePaging(c.Query("limit"), c.Query("offset"))
	if err != nil {
		writeError(c, consts.StatusBadRequest, err.Error())
		return
	}

	total, err := h.records.CountRecords(ctx)
	if err != nil {
		h.log.Error().Err(err).Msg("统计记录失败")
		writeError(c, consts.StatusInternalServerError, "查询失败")
		return
	}
	rows, err := h.records.ListAnalyses(ctx, limit, offset)
	if err != nil {
		h.log.Error().Err(err).Msg("查询记录失败")
		writeError(c, consts.StatusInternalServerError, "查询失败")
		return
	}

	writeOK(c, consts.StatusOK, utils.H{
		"total":   total,
		"limit":   limit,
		"offset":  offset,
		"records": rows,
	})
}

// HandleExportCSV GET /api/v1/admin/records/export.csv[?encoding=base64]
func (h *AdminHandler) HandleExportCSV(ctx context.Context, c *app.RequestContext) {
	records, err := h.records.ListRecords(ctx, 0, 0)
	if err != nil {
		h.log.Error().Err(err).Msg("导出查询失败")
		writeError(c, consts.StatusInternalServerError, "导出失败")
		return
	}

	switch encoding := c.Query("encoding"); encoding {
	case "base64":
		file, err := export.EncodeCSV(records)
		if err != nil {
			writeError(c, consts.StatusInternalServerError, "导出失败")
			return
		}
		writeOK(c, consts.StatusOK, utils.H{"filename": file.Filename, "data": file.Data})
	case "":
		data, err := export.CSVBytes(records)
		if err != nil {
			writeError(c, consts.StatusInternalServerError, "导出失败")
			return
		}
		c.Header("Content-Disposition", attachment(export.CSVFilename))
		c.Data(consts.StatusOK, "text/csv; charset=utf-8", data)
	default:
		writeError(c, consts.StatusBadRequest, fmt.Sprintf("不支持的 encoding: %s", encoding))
	}
}

// HandleExportXLSX GET /api/v1/admin/records/export.xlsx
func (h *AdminHandler) HandleExportXLSX(ctx context.Context, c *app.RequestContext) {
	records, err := h.records.ListRecords(ctx, 0, 0)
	if err != nil {
		h.log.Error().Err(err).Msg("导出查询失败")
		writeError(c, consts.StatusInternalServerError, "导出失败")
		return
	}
	var buf bytes.Buffer
	if err := export.WriteXLSX(&buf, records); err != nil {
		h.log.Error().Err(err).Msg("生成 xlsx 失败")
		writeError(c, consts.StatusInternalServerError, "导出失败")
		return
	}
	c.Header("Content-Disposition", attachment(export.XLSXFilename))
	c.Data(consts.StatusOK, export.XLSXContentType, buf.Bytes())
}

// HandleStats GET /api/v1/admin/stats，两张饼图的数据
func (h *AdminHandler) HandleStats(ctx context.Context, c *app.RequestContext) {
	total, err := h.records.CountRecords(ctx)
	if err != nil {
		h.log.Error().Err(err).Msg("统计记录失败")
		writeError(c, consts.StatusInternalServerError, "统计失败")
		return
	}
	fields, err := h.records.CountByColumn(ctx, models.ColumnPredictedField)
	if err != nil {
		h.log.Error().Err(err).Msg("按方向统计失败")
		writeError(c, consts.StatusInternalServerError, "统计失败")
		return
	}
	levels, err := h.records.CountByColumn(ctx, models.ColumnUserLevel)
	if err != nil {
		h.log.Error().Err(err).Msg("按级别统计失败")
		writeError(c, consts.StatusInternalServerError, "统计失败")
		return
	}
	writeOK(c, consts.StatusOK, utils.H{
		"total":           total,
		"predicted_field": fields,
		"user_level":      levels,
	})
}

func attachment(filename string) string {
	return fmt.Sprintf(`attachment; filename="%s"`, filename)
}

// parsePaging 空值表示全部；limit 上限 maxPageSize
func parsePaging(rawLimit, rawOffset string) (int, int, error) {
	limit, offset := 0, 0
	var err error
	if rawLimit != "" {
		if limit, err = strconv.Atoi(rawLimit); err != nil || limit < 0 {
			return 0, 0, fmt.Errorf("limit 必须是非负整数")
		}
		if limit > maxPageSize {
			limit = maxPageSize
		}
	}
	if rawOffset != "" {
		if offset, err = strconv.Atoi(rawOffset); err != nil || offset < 0 {
			return 0, 0, fmt.Errorf("offset 必须是非负整数")
		}
	}
	return limit, offset, nil
}
