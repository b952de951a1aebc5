package constants

// Redis Key 前缀和格式常量
// 使用统一的命名规范: app:{module}:{entity}:{unique_id}
const (
	// AppPrefix 是所有Redis Key的统一应用前缀
	AppPrefix = "sra"

	// AdminModulePrefix 管理后台模块
	AdminModulePrefix = "admin"

	// EntitySession 会话实体
	EntitySession = "session"

	// KeyAdminSession 管理员会话 (STRING, 值为用户名, 带 TTL)
	// 格式: sra:admin:session:{token}
	KeyAdminSession = AppPrefix + ":" + AdminModulePrefix + ":" + EntitySession + ":%s"
)
