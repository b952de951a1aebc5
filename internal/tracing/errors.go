package tracing

import (
	"net/http"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// ErrorType span 上 error.type 的取值，按失败的依赖分类
type ErrorType string

const (
	ErrorTypeHTTP        ErrorType = "http"
	ErrorTypeValidation  ErrorType = "validation"
	ErrorTypeExtraction  ErrorType = "extraction"
	ErrorTypeObjectStore ErrorType = "object_store"
	ErrorTypeDB          ErrorType = "db"
	ErrorTypeRedis       ErrorType = "redis"
	ErrorTypeRabbitMQ    ErrorType = "rabbitmq"
)

// RecordError 把 span 标为失败。attrs 用于补充定位信息，例如行 ID
func RecordError(span trace.Span, err error, errorType ErrorType, attrs ...attribute.KeyValue) {
	if span == nil || err == nil {
		return
	}
	span.RecordError(err)
	span.SetAttributes(
		attribute.String("error.type", string(errorType)),
		attribute.String("error.message", TruncateString(err.Error(), DefaultMaxLength)),
	)
	if len(attrs) > 0 {
		span.SetAttributes(attrs...)
	}
	span.SetStatus(codes.Error, err.Error())
}

// HTTPErrorCategory 4xx 为 client_error，5xx 为 server_error，其余返回空串
func HTTPErrorCategory(statusCode int) string {
	switch {
	case statusCode >= 500:
		return "server_error"
	case statusCode >= 400:
		return "client_error"
	default:
		return ""
	}
}

// RecordHTTPStatus 在服务端 span 上标注失败响应。
// 4xx 只加分类属性；5xx 同时把 span 状态置为 Error
func RecordHTTPStatus(span trace.Span, statusCode int, path string) {
	category := HTTPErrorCategory(statusCode)
	if span == nil || category == "" {
		return
	}
	span.SetAttributes(
		attribute.String("error.type", string(ErrorTypeHTTP)),
		attribute.String("error.category", category),
		attribute.Int("http.response.status_code", statusCode),
		attribute.String("url.path", TruncateString(path, DefaultMaxLength)),
	)
	if statusCode >= 500 {
		span.SetStatus(codes.Error, http.StatusText(statusCode))
	}
}

// RecordPublishUnconfirmed 发布的消息没有拿到 broker 的 ack。
// waitErr 为 nil 表示收到 nack，否则是等待确认本身失败（通常是超时）
func RecordPublishUnconfirmed(span trace.Span, deliveryTag uint64, waitErr error) {
	if span == nil {
		return
	}
	kind, msg := "nack", "message not acknowledged by broker"
	if waitErr != nil {
		kind, msg = "timeout", "waiting for confirm: "+waitErr.Error()
	}
	span.SetAttributes(
		attribute.String("error.type", string(ErrorTypeRabbitMQ)),
		attribute.String("error.message", msg),
		attribute.Int64("messaging.rabbitmq.delivery_tag", int64(deliveryTag)),
		attribute.String("messaging.error_type", kind),
		attribute.Bool("messaging.rabbitmq.confirmed", false),
	)
	span.SetStatus(codes.Error, msg)
}
