package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"sync"
	"testing"

	"smart-resume-analyzer/internal/api/handler"
	"smart-resume-analyzer/internal/api/router"
	"smart-resume-analyzer/internal/processor"
	"smart-resume-analyzer/internal/types"

	"github.com/cloudwego/hertz/pkg/app/server"
	"github.com/cloudwego/hertz/pkg/common/ut"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var samplePDF = []byte("%PDF-1.4\n1 0 obj\n<<>>\nendobj\ntrailer\n<<>>\n%%EOF\n")

type fakeAnalyzer struct {
	mu   sync.Mutex
	err  error
	reqs []processor.AnalyzeRequest
}

func (f *fakeAnalyzer) Analyze(_ context.Context, req processor.AnalyzeRequest) (*types.AnalysisReport, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reqs = append(f.reqs, req)
	if f.err != nil {
		return nil, f.err
	}
	return &types.AnalysisReport{
		Result: types.AnalysisResult{
			Record:        types.ResumeRecord{Name: "Jane Doe", PageCount: 1},
			ResumeScore:   68,
			DetectedField: "Data Science",
		},
		ScoreFeedback: "Decent",
		RecordID:      7,
	}, nil
}

func newResumeEngine(t *testing.T, analyzer handler.ResumeAnalyzer, maxSize int64) *server.Hertz {
	t.Helper()
	h := server.New(server.WithHostPorts("127.0.0.1:0"))
	router.RegisterRoutes(h, handler.NewResumeHandler(analyzer, maxSize), nil, nil)
	return h
}

// createMultipartForm 构造上传表单；fileName 为空时不附带文件
func createMultipartForm(t *testing.T, fileName string, data []byte, courseCount string) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	if fileName != "" {
		part, err := writer.CreateFormFile("file", fileName)
		require.NoError(t, err)
		_, err = part.Write(data)
		require.NoError(t, err)
	}
	if courseCount != "" {
		require.NoError(t, writer.WriteField("course_count", courseCount))
	}
	require.NoError(t, writer.Close())
	return body, writer.FormDataContentType()
}

func postAnalyze(h *server.Hertz, body *bytes.Buffer, contentType string) *ut.ResponseRecorder {
	return ut.PerformRequest(h.Engine, "POST", "/api/v1/resume/analyze",
		&ut.Body{Body: body, Len: body.Len()},
		ut.Header{Key: "Content-Type", Value: contentType},
	)
}

func decodeError(t *testing.T, resp *ut.ResponseRecorder) handler.ErrorResponse {
	t.Helper()
	var errResp handler.ErrorResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &errResp))
	assert.False(t, errResp.Success)
	return errResp
}

func TestHandleAnalyze_Success(t *testing.T) {
	analyzer := &fakeAnalyzer{}
	h := newResumeEngine(t, analyzer, 1<<20)

	body, ct := createMultipartForm(t, "jane.pdf", samplePDF, "6")
	resp := postAnalyze(h, body, ct)
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	var out handler.AnalyzeResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &out))
	assert.True(t, out.Success)
	require.NotNil(t, out.Report)
	assert.Equal(t, 68, out.Report.Result.ResumeScore)
	assert.Equal(t, uint64(7), out.Report.RecordID)

	require.Len(t, analyzer.reqs, 1)
	assert.Equal(t, "jane.pdf", analyzer.reqs[0].FileName)
	assert.Equal(t, samplePDF, analyzer.reqs[0].Data)
	assert.Equal(t, 6, analyzer.reqs[0].CourseCount)
}

func TestHandleAnalyze_DefaultCourseCount(t *testing.T) {
	analyzer := &fakeAnalyzer{}
	h := newResumeEngine(t, analyzer, 0)

	body, ct := createMultipartForm(t, "jane.pdf", samplePDF, "")
	resp := postAnalyze(h, body, ct)
	require.Equal(t, http.StatusOK, resp.Code)
	require.Len(t, analyzer.reqs, 1)
	assert.Zero(t, analyzer.reqs[0].CourseCount, "未提供时交给分析器取默认值")
}

func TestHandleAnalyze_BadRequests(t *testing.T) {
	cases := []struct {
		name        string
		fileName    string
		courseCount string
	}{
		{name: "缺少文件", fileName: ""},
		{name: "course_count 非整数", fileName: "a.pdf", courseCount: "four"},
		{name: "course_count 过小", fileName: "a.pdf", courseCount: "0"},
		{name: "course_count 过大", fileName: "a.pdf", courseCount: "11"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			analyzer := &fakeAnalyzer{}
			h := newResumeEngine(t, analyzer, 0)
			body, ct := createMultipartForm(t, tc.fileName, samplePDF, tc.courseCount)
			resp := postAnalyze(h, body, ct)
			assert.Equal(t, http.StatusBadRequest, resp.Code)
			decodeError(t, resp)
			assert.Empty(t, analyzer.reqs)
		})
	}
}

func TestHandleAnalyze_TooLarge(t *testing.T) {
	analyzer := &fakeAnalyzer{}
	h := newResumeEngine(t, analyzer, 16)

	body, ct := createMultipartForm(t, "big.pdf", samplePDF, "")
	resp := postAnalyze(h, body, ct)
	assert.Equal(t, http.StatusRequestEntityTooLarge, resp.Code)
	assert.Empty(t, analyzer.reqs)
}

func TestHandleAnalyze_ErrorMapping(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
	}{
		{"无效上传", processor.NewInvalidUploadError("a.pdf", "仅支持 PDF 文件"), http.StatusBadRequest},
		{"提取失败", processor.NewExtractionError("a.pdf", "no text"), http.StatusUnprocessableEntity},
		{"其他错误", context.Canceled, http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h := newResumeEngine(t, &fakeAnalyzer{err: tc.err}, 0)
			body, ct := createMultipartForm(t, "a.pdf", samplePDF, "")
			resp := postAnalyze(h, body, ct)
			assert.Equal(t, tc.status, resp.Code)
			errResp := decodeError(t, resp)
			assert.Equal(t, tc.err.Error(), errResp.Error)
		})
	}
}

func TestHealth(t *testing.T) {
	h := newResumeEngine(t, &fakeAnalyzer{}, 0)
	resp := ut.PerformRequest(h.Engine, "GET", "/health", nil)
	assert.Equal(t, http.StatusOK, resp.Code)
	assert.JSONEq(t, `{"status":"ok"}`, resp.Body.String())
}
