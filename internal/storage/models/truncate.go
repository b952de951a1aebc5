package models

import (
	"unicode/utf8"

	"smart-resume-analyzer/internal/types"
	"smart-resume-analyzer/pkg/utils"

	"gorm.io/datatypes"
)

type truncator struct {
	truncations []types.Truncation
}

// scalar 按字符数截断
func (t *truncator) scalar(column, value string, width int) string {
	n := utf8.RuneCountInString(value)
	if n <= width {
		return value
	}
	stored := string([]rune(value)[:width])
	t.truncations = append(t.truncations, types.Truncation{Column: column, Original: n, Stored: width})
	return stored
}

// list 从末尾整项丢弃，直到 JSON 数组放得下，结果始终是合法 JSON
func (t *truncator) list(column string, items []string, width int) datatypes.JSON {
	full := utils.ConvertArrayToJSON(items)
	n := utf8.RuneCount(full)
	if n <= width {
		return full
	}

	kept := items
	encoded := full
	for len(kept) > 0 && utf8.RuneCount(encoded) > width {
		kept = kept[:len(kept)-1]
		encoded = utils.ConvertArrayToJSON(kept)
	}
	t.truncations = append(t.truncations, types.Truncation{
		Column:   column,
		Original: n,
		Stored:   utf8.RuneCount(encoded),
	})
	return encoded
}
