package models

import (
	"strconv"

	"smart-resume-analyzer/internal/types"
	"smart-resume-analyzer/pkg/utils"

	"gorm.io/datatypes"
)

// user_data 各列宽度（字符数）
const (
	NameWidth               = 100
	EmailWidth              = 50
	ResumeScoreWidth        = 8
	TimestampWidth          = 50
	PageNoWidth             = 5
	PredictedFieldWidth     = 25
	UserLevelWidth          = 30
	ActualSkillsWidth       = 300
	RecommendedSkillsWidth  = 300
	RecommendedCoursesWidth = 600
)

// 列名，导出与统计共用
const (
	ColumnID                 = "ID"
	ColumnName               = "Name"
	ColumnEmail              = "Email_ID"
	ColumnResumeScore        = "resume_score"
	ColumnTimestamp          = "Timestamp"
	ColumnPageNo             = "Page_no"
	ColumnPredictedField     = "Predicted_Field"
	ColumnUserLevel          = "User_level"
	ColumnActualSkills       = "Actual_skills"
	ColumnRecommendedSkills  = "Recommended_skills"
	ColumnRecommendedCourses = "Recommended_courses"
)

// Columns user_data 的列顺序
var Columns = []string{
	ColumnID,
	ColumnName,
	ColumnEmail,
	ColumnResumeScore,
	ColumnTimestamp,
	ColumnPageNo,
	ColumnPredictedField,
	ColumnUserLevel,
	ColumnActualSkills,
	ColumnRecommendedSkills,
	ColumnRecommendedCourses,
}

// AnalysisRecord user_data 表，每次分析追加一行
type AnalysisRecord struct {
	ID                 uint64         `gorm:"column:ID;primaryKey;autoIncrement"`
	Name               string         `gorm:"column:Name;type:varchar(100);not null"`
	Email              string         `gorm:"column:Email_ID;type:varchar(50);not null"`
	ResumeScore        string         `gorm:"column:resume_score;type:varchar(8);not null"`
	Timestamp          string         `gorm:"column:Timestamp;type:varchar(50);not null"`
	PageNo             string         `gorm:"column:Page_no;type:varchar(5);not null"`
	PredictedField     string         `gorm:"column:Predicted_Field;type:varchar(25);not null"`
	UserLevel          string         `gorm:"column:User_level;type:varchar(30);not null"`
	ActualSkills       datatypes.JSON `gorm:"column:Actual_skills;type:varchar(300);not null"`
	RecommendedSkills  datatypes.JSON `gorm:"column:Recommended_skills;type:varchar(300);not null"`
	RecommendedCourses datatypes.JSON `gorm:"column:Recommended_courses;type:varchar(600);not null"`
}

func (AnalysisRecord) TableName() string {
	return "user_data"
}

// NewAnalysisRecord 将分析结果映射为一行，超出列宽的值按确定规则截断并逐列报告
func NewAnalysisRecord(result *types.AnalysisResult) (*AnalysisRecord, []types.Truncation) {
	t := &truncator{}
	record := &AnalysisRecord{
		Name:               t.scalar(ColumnName, result.Record.Name, NameWidth),
		Email:              t.scalar(ColumnEmail, result.Record.Email, EmailWidth),
		ResumeScore:        t.scalar(ColumnResumeScore, strconv.Itoa(result.ResumeScore), ResumeScoreWidth),
		Timestamp:          t.scalar(ColumnTimestamp, result.Timestamp, TimestampWidth),
		PageNo:             t.scalar(ColumnPageNo, strconv.Itoa(result.Record.PageCount), PageNoWidth),
		PredictedField:     t.scalar(ColumnPredictedField, result.DetectedField, PredictedFieldWidth),
		UserLevel:          t.scalar(ColumnUserLevel, result.CandidateLevel, UserLevelWidth),
		ActualSkills:       t.list(ColumnActualSkills, result.Record.Skills, ActualSkillsWidth),
		RecommendedSkills:  t.list(ColumnRecommendedSkills, result.RecommendedSkills, RecommendedSkillsWidth),
		RecommendedCourses: t.list(ColumnRecommendedCourses, result.CourseNames(), RecommendedCoursesWidth),
	}
	return record, t.truncations
}

// ToStoredAnalysis 读回一行；数值列无法解析时记为 0
func (r *AnalysisRecord) ToStoredAnalysis() types.StoredAnalysis {
	score, _ := strconv.Atoi(r.ResumeScore)
	pages, _ := strconv.Atoi(r.PageNo)
	return types.StoredAnalysis{
		ID:                 r.ID,
		Name:               r.Name,
		Email:              r.Email,
		ResumeScore:        score,
		Timestamp:          r.Timestamp,
		PageCount:          pages,
		PredictedField:     r.PredictedField,
		UserLevel:          r.UserLevel,
		ActualSkills:       utils.ConvertJSONToArray(r.ActualSkills),
		RecommendedSkills:  utils.ConvertJSONToArray(r.RecommendedSkills),
		RecommendedCourses: utils.ConvertJSONToArray(r.RecommendedCourses),
	}
}

// Values 按 Columns 顺序返回各列的原始字符串
func (r *AnalysisRecord) Values() []string {
	return []string{
		strconv.FormatUint(r.ID, 10),
		r.Name,
		r.Email,
		r.ResumeScore,
		r.Timestamp,
		r.PageNo,
		r.PredictedField,
		r.UserLevel,
		string(r.ActualSkills),
		string(r.RecommendedSkills),
		string(r.RecommendedCourses),
	}
}
