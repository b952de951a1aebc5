package handler

import (
	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/common/utils"
)

// ErrorResponse 统一错误响应
type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

func writeError(c *app.RequestContext, status int, msg string) {
	c.JSON(status, ErrorResponse{Success: false, Error: msg})
}

func writeOK(c *app.RequestContext, status int, data utils.H) {
	data["success"] = true
	c.JSON(status, data)
}
