// Package export 将 user_data 全表导出为 CSV 或 Excel
package export

import (
	"bytes"
	"encoding/base64"
	"encoding/csv"
	"fmt"
	"io"

	"smart-resume-analyzer/internal/storage/models"
)

// CSVFilename 下载时使用的文件名
const CSVFilename = "User_Data.csv"

// EncodedFile 以 base64 内联下发的文件
type EncodedFile struct {
	Filename string `json:"filename"`
	Data     string `json:"data"`
}

// WriteCSV 首行为列名，其余每条记录一行
func WriteCSV(w io.Writer, records []models.AnalysisRecord) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(models.Columns); err != nil {
		return fmt.Errorf("写入 CSV 表头失败: %w", err)
	}
	for i := range records {
		if err := cw.Write(records[i].Values()); err != nil {
			return fmt.Errorf("写入 CSV 第 %d 行失败: %w", i+1, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// CSVBytes 返回完整 CSV 内容
func CSVBytes(records []models.AnalysisRecord) ([]byte, error) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, records); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// EncodeCSV CSV 内容做标准 base64 编码
func EncodeCSV(records []models.AnalysisRecord) (*EncodedFile, error) {
	data, err := CSVBytes(records)
	if err != nil {
		return nil, err
	}
	return &EncodedFile{
		Filename: CSVFilename,
		Data:     base64.StdEncoding.EncodeToString(data),
	}, nil
}
