package utils

import (
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"path/filepath"
	"strings"
	"unicode"

	"gorm.io/datatypes"
)

// maxFilenameRunes 清洗后文件名的最大长度
const maxFilenameRunes = 100

// maxExtRunes 截断时保留的扩展名最大长度（含点）
const maxExtRunes = 16

// CalculateMD5 computes the MD5 hash of a byte slice.
func CalculateMD5(data []byte) string {
	hasher := md5.New()
	hasher.Write(data)
	return hex.EncodeToString(hasher.Sum(nil))
}

// ConvertArrayToJSON 辅助函数: 将字符串数组转换为JSON
func ConvertArrayToJSON(arr []string) datatypes.JSON {
	if len(arr) == 0 {
		return datatypes.JSON("[]")
	}

	jsonBytes, err := json.Marshal(arr)
	if err != nil {
		return datatypes.JSON("[]")
	}

	return datatypes.JSON(jsonBytes)
}

// ConvertJSONToArray ConvertArrayToJSON 的逆操作，非法 JSON 返回空切片
func ConvertJSONToArray(data datatypes.JSON) []string {
	out := make([]string, 0)
	if len(data) == 0 {
		return out
	}
	if err := json.Unmarshal(data, &out); err != nil {
		return make([]string, 0)
	}
	return out
}

// SanitizeFilename 只保留客户端文件名的最后一段，并把字母、数字、点、横线、下划线以外的字符替换为下划线。
// 结果不含路径分隔符，不以点开头，空结果返回 "resume.pdf"。
func SanitizeFilename(name string) string {
	name = strings.ReplaceAll(name, "\\", "/")
	name = filepath.Base(name)

	var b strings.Builder
	for _, r := range name {
		switch {
		case r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)):
			b.WriteRune(r)
		case r == '.' || r == '-' || r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}

	cleaned := strings.TrimLeft(b.String(), ".")
	if cleaned == "" || strings.Trim(cleaned, "_") == "" {
		return "resume.pdf"
	}
	runes := []rune(cleaned)
	if len(runes) > maxFilenameRunes {
		// 扩展名过长时不单独保留，整体截断
		ext := []rune(filepath.Ext(cleaned))
		if len(ext) > maxExtRunes {
			ext = nil
		}
		keep := maxFilenameRunes - len(ext)
		cleaned = string(runes[:keep]) + string(ext)
	}
	return cleaned
}
