package export

import (
	"fmt"
	"io"

	"smart-resume-analyzer/internal/storage/models"

	"github.com/xuri/excelize/v2"
)

const (
	// XLSXFilename 下载时使用的文件名
	XLSXFilename = "User_Data.xlsx"
	// XLSXContentType xlsx 的 MIME 类型
	XLSXContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

	sheetName = "User Data"
)

// WriteXLSX 与 CSV 导出相同的表头和行，写成单个工作表
func WriteXLSX(w io.Writer, records []models.AnalysisRecord) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return fmt.Errorf("重命名工作表失败: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return fmt.Errorf("创建表头样式失败: %w", err)
	}

	header := make([]interface{}, len(models.Columns))
	for i, col := range models.Columns {
		header[i] = col
	}
	if err := f.SetSheetRow(sheetName, "A1", &header); err != nil {
		return fmt.Errorf("写入表头失败: %w", err)
	}
	lastCol, err := excelize.ColumnNumberToName(len(models.Columns))
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(sheetName, "A1", lastCol+"1", headerStyle); err != nil {
		return fmt.Errorf("设置表头样式失败: %w", err)
	}

	for i := range records {
		values := records[i].Values()
		row := make([]interface{}, len(values))
		for j, v := range values {
			row[j] = v
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheetName, cell, &row); err != nil {
			return fmt.Errorf("写入第 %d 行失败: %w", i+1, err)
		}
	}

	// 列宽
	_ = f.SetColWidth(sheetName, "A", "A", 8)
	_ = f.SetColWidth(sheetName, "B", lastCol, 20)

	if err := f.Write(w); err != nil {
		return fmt.Errorf("写出 xlsx 失败: %w", err)
	}
	return nil
}
