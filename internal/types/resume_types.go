package types

import "time"

// ExtractedDocument PDF 文本提取结果
type ExtractedDocument struct {
	Text      string                 // 全文纯文本
	PageCount int                    // 页数
	Metadata  map[string]interface{} // 解析器元数据
}

// ResumeRecord 一次上传提取出的结构化简历信息，提取后不再修改
type ResumeRecord struct {
	Name      string   `json:"name"`
	Email     string   `json:"email"`
	Phone     string   `json:"phone"`
	PageCount int      `json:"page_count"`
	Skills    []string `json:"skills"`
	RawText   string   `json:"-"`
}

// Course 课程条目
type Course struct {
	Name string `json:"name" yaml:"name"`
	URL  string `json:"url" yaml:"url"`
}

// Video 简历/面试视频条目
type Video struct {
	Title string `json:"title" yaml:"title"`
	URL   string `json:"url" yaml:"url"`
}

// FieldScore 某个职业方向的关键词命中情况
type FieldScore struct {
	Field      string `json:"field"`
	Matched    int    `json:"matched"`    // 命中的技能数
	Confidence int    `json:"confidence"` // 关键词覆盖度 (0-100)
}

// RadarPoint 技能雷达图的一个维度
type RadarPoint struct {
	Skill   string `json:"skill"`
	Matched bool   `json:"matched"`
}

// AnalysisResult 一次分析的完整结果，落库后不再修改
type AnalysisResult struct {
	Record             ResumeRecord `json:"record"`
	ResumeScore        int          `json:"resume_score"`
	MissingSections    []string     `json:"missing_sections"`
	DetectedField      string       `json:"detected_field"`
	RecommendedSkills  []string     `json:"recommended_skills"`
	MatchedSkills      []string     `json:"matched_skills"`
	MissingSkills      []string     `json:"missing_skills"`
	RecommendedCourses []Course     `json:"recommended_courses"`
	CandidateLevel     string       `json:"candidate_level"`
	Timestamp          string       `json:"timestamp"`
}

// CourseNames 返回推荐课程名称列表
func (r *AnalysisResult) CourseNames() []string {
	names := make([]string, 0, len(r.RecommendedCourses))
	for _, c := range r.RecommendedCourses {
		names = append(names, c.Name)
	}
	return names
}

// Truncation 记录一次列宽截断
type Truncation struct {
	Column   string `json:"column"`
	Original int    `json:"original_length"`
	Stored   int    `json:"stored_length"`
}

// SaveReport 落库结果
type SaveReport struct {
	RecordID    uint64       `json:"record_id"`
	Truncations []Truncation `json:"truncations,omitempty"`
}

// AnalysisReport 返回给调用方的完整报告，包含图表所需数据
type AnalysisReport struct {
	Result          AnalysisResult `json:"result"`
	ScoreFeedback   string         `json:"score_feedback"`
	FieldConfidence []FieldScore   `json:"field_confidence"`
	SkillRadar      []RadarPoint   `json:"skill_radar"`
	Summary         []string       `json:"summary"`
	SummaryError    string         `json:"summary_error,omitempty"`
	ResumeVideo     *Video         `json:"resume_video,omitempty"`
	InterviewVideo  *Video         `json:"interview_video,omitempty"`
	ObjectKey       string         `json:"object_key,omitempty"`
	RecordID        uint64         `json:"record_id,omitempty"`
	Truncations     []Truncation   `json:"truncations,omitempty"`
	Warnings        []string       `json:"warnings,omitempty"`
	Duration        time.Duration  `json:"-"`
}

// StoredAnalysis 从 user_data 表读回的一行
type StoredAnalysis struct {
	ID                 uint64   `json:"id"`
	Name               string   `json:"name"`
	Email              string   `json:"email"`
	ResumeScore        int      `json:"resume_score"`
	Timestamp          string   `json:"timestamp"`
	PageCount          int      `json:"page_count"`
	PredictedField     string   `json:"predicted_field"`
	UserLevel          string   `json:"user_level"`
	ActualSkills       []string `json:"actual_skills"`
	RecommendedSkills  []string `json:"recommended_skills"`
	RecommendedCourses []string `json:"recommended_courses"`
}

// LabelCount 饼图的一个扇区
type LabelCount struct {
	Label string `json:"label"`
	Count int64  `json:"count"`
}

// AnalysisEvent 分析完成事件，经 outbox 发布到消息队列
type AnalysisEvent struct {
	RecordID       uint64 `json:"record_id"`
	PredictedField string `json:"predicted_field"`
	UserLevel      string `json:"user_level"`
	ResumeScore    int    `json:"resume_score"`
	Timestamp      string `json:"timestamp"`
}
