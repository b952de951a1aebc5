package export

import (
	"bytes"
	"encoding/base64"
	"encoding/csv"
	"testing"

	"smart-resume-analyzer/internal/storage/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"gorm.io/datatypes"
)

func sampleRecords() []models.AnalysisRecord {
	return []models.AnalysisRecord{
		{
			ID:                 1,
			Name:               "Jane Doe",
			Email:              "jane@example.com",
			ResumeScore:        "87",
			Timestamp:          "2024-03-01_10:20:30",
			PageNo:             "2",
			PredictedField:     "Data Science",
			UserLevel:          "Intermediate",
			ActualSkills:       datatypes.JSON(`["Python","SQL"]`),
			RecommendedSkills:  datatypes.JSON(`["Pandas","Keras"]`),
			RecommendedCourses: datatypes.JSON(`["ML Crash Course"]`),
		},
		{
			ID:                 2,
			Name:               "Doe, John",
			Email:              "john@example.com",
			ResumeScore:        "40",
			Timestamp:          "2024-03-02_11:00:00",
			PageNo:             "1",
			PredictedField:     "",
			UserLevel:          "Fresher",
			ActualSkills:       datatypes.JSON(`[]`),
			RecommendedSkills:  datatypes.JSON(`[]`),
			RecommendedCourses: datatypes.JSON(`[]`),
		},
	}
}

func TestWriteCSV(t *testing.T) {
	data, err := CSVBytes(sampleRecords())
	require.NoError(t, err)

	rows, err := csv.NewReader(bytes.NewReader(data)).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, models.Columns, rows[0])
	assert.Equal(t, "Jane Doe", rows[1][1])
	assert.Equal(t, `["Python","SQL"]`, rows[1][8])
	// 含逗号的字段经 CSV 转义后原样读回
	assert.Equal(t, "Doe, John", rows[2][1])
}

func TestWriteCSVEmptyTable(t *testing.T) {
	data, err := CSVBytes(nil)
	require.NoError(t, err)

	rows, err := csv.NewReader(bytes.NewReader(data)).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 1, "空表只有表头")
}

func TestEncodeCSV(t *testing.T) {
	file, err := EncodeCSV(sampleRecords())
	require.NoError(t, err)
	assert.Equal(t, CSVFilename, file.Filename)

	decoded, err := base64.StdEncoding.DecodeString(file.Data)
	require.NoError(t, err)
	raw, err := CSVBytes(sampleRecords())
	require.NoError(t, err)
	assert.Equal(t, raw, decoded)
}

func TestWriteXLSX(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteXLSX(&buf, sampleRecords()))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(sheetName)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, models.Columns, rows[0])
	assert.Equal(t, "jane@example.com", rows[1][2])
	assert.Equal(t, "Fresher", rows[2][7])
}
