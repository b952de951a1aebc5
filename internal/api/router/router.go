package router

import (
	"smart-resume-analyzer/internal/api/handler"
	"smart-resume-analyzer/internal/auth"

	"github.com/cloudwego/hertz/pkg/app/server"
)

// RegisterRoutes 注册 API 路由；admin 为 nil 时不注册管理接口
func RegisterRoutes(h *server.Hertz, resumeHandler *handler.ResumeHandler, adminHandler *handler.AdminHandler, sessions auth.SessionStore) {
	h.GET("/health", handler.HandleHealth)

	api := h.Group("/api/v1")
	api.POST("/resume/analyze", resumeHandler.HandleAnalyze)

	if adminHandler == nil || sessions == nil {
		return
	}
	api.POST("/admin/login", adminHandler.HandleLogin)

	admin := api.Group("/admin", auth.Middleware(sessions))
	admin.POST("/logout", adminHandler.HandleLogout)
	admin.GET("/records", adminHandler.HandleListRecords)
	admin.GET("/records/export.csv", adminHandler.HandleExportCSV)
	admin.GET("/records/export.xlsx", adminHandler.HandleExportXLSX)
	admin.GET("/stats", adminHandler.HandleStats)
}
