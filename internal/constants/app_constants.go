package constants

const (
	// ServiceName 服务名，用于日志和链路追踪
	ServiceName = "smart-resume-analyzer"

	// TimestampLayout user_data.Timestamp 列的写入格式
	TimestampLayout = "2006-01-02_15:04:05"

	// 推荐课程数量范围
	MinCourseCount     = 1
	MaxCourseCount     = 10
	DefaultCourseCount = 4

	// EventAnalysisCompleted 分析结果落库后写入 outbox 的事件类型
	EventAnalysisCompleted = "analysis.completed"

	// PDFContentType 唯一接受的上传类型
	PDFContentType = "application/pdf"
)
