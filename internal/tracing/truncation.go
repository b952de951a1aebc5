package tracing

import (
	"strings"
)

// span 属性长度上限（按 rune 计）
const (
	DefaultMaxLength  = 200
	MaxSQLLength      = 500
	MaxRedisLength    = 100
	MaxFilenameLength = 128
)

// 属性名包含这些片段时按个人信息处理。简历里的姓名、邮箱、手机号都属于这一类
var piiNameFragments = []string{
	"name",
	"email",
	"mail",
	"phone",
	"mobile",
	"address",
	"password",
	"token",
	"姓名",
	"邮箱",
	"电话",
	"地址",
}

// SafeAttributeValue 属性名命中个人信息片段时掩码，否则只截断到 maxLength
func SafeAttributeValue(name, value string, maxLength int) string {
	lower := strings.ToLower(name)
	for _, frag := range piiNameFragments {
		if strings.Contains(lower, frag) {
			return MaskPII(value)
		}
	}
	return TruncateString(value, maxLength)
}

// MaskPII 保留首尾少量字符，中间换成 *。
// 不超过 4 个字符时首尾各留 1 个（两个字符只留首字），更长时各留 2 个
func MaskPII(value string) string {
	runes := []rune(value)
	n := len(runes)
	switch {
	case n == 0:
		return ""
	case n == 1:
		return "*"
	case n == 2:
		return string(runes[0]) + "*"
	case n <= 4:
		return string(runes[0]) + strings.Repeat("*", n-2) + string(runes[n-1])
	default:
		return string(runes[:2]) + strings.Repeat("*", n-4) + string(runes[n-2:])
	}
}

// TruncateString 超长时保留首尾两段，中间以 ... 连接；maxLength <= 3 时直接截断
func TruncateString(s string, maxLength int) string {
	if maxLength < 0 {
		maxLength = 0
	}
	runes := []rune(s)
	if len(runes) <= maxLength {
		return s
	}
	if maxLength <= 3 {
		return string(runes[:maxLength])
	}
	keep := max((maxLength-3)/2, 1)
	return string(runes[:keep]) + "..." + string(runes[len(runes)-keep:])
}

// SafeSQL db.statement 属性
func SafeSQL(sql string) string { return TruncateString(sql, MaxSQLLength) }

// SafeRedisKey db.redis.key_prefix 属性
func SafeRedisKey(key string) string { return TruncateString(key, MaxRedisLength) }

// SafeFilename 上传文件名与对象键
func SafeFilename(name string) string { return TruncateString(name, MaxFilenameLength) }
