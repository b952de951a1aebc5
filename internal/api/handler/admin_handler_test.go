package handler_test

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/csv"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"smart-resume-analyzer/internal/api/handler"
	"smart-resume-analyzer/internal/api/router"
	"smart-resume-analyzer/internal/auth"
	"smart-resume-analyzer/internal/config"
	"smart-resume-analyzer/internal/export"
	"smart-resume-analyzer/internal/storage"
	"smart-resume-analyzer/internal/storage/models"
	"smart-resume-analyzer/internal/types"
	"smart-resume-analyzer/pkg/ratelimit"

	"github.com/alicebob/miniredis/v2"
	"github.com/cloudwego/hertz/pkg/app/server"
	"github.com/cloudwego/hertz/pkg/common/ut"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/datatypes"
)

const (
	testAdminUser     = "admin"
	testAdminPassword = "correct horse"
)

type fakeRecords struct {
	records []models.AnalysisRecord
}

func (f *fakeRecords) ListRecords(_ context.Context, limit, offset int) ([]models.AnalysisRecord, error) {
	if offset >= len(f.records) {
		return []models.AnalysisRecord{}, nil
	}
	out := f.records[offset:]
	if limit > 0 && limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeRecords) ListAnalyses(ctx context.Context, limit, offset int) ([]types.StoredAnalysis, error) {
	records, _ := f.ListRecords(ctx, limit, offset)
	out := make([]types.StoredAnalysis, 0, len(records))
	for i := range records {
		out = append(out, records[i].ToStoredAnalysis())
	}
	return out, nil
}

func (f *fakeRecords) CountRecords(context.Context) (int64, error) {
	return int64(len(f.records)), nil
}

func (f *fakeRecords) CountByColumn(_ context.Context, column string) ([]types.LabelCount, error) {
	if column == models.ColumnPredictedField {
		return []types.LabelCount{{Label: "Data Science", Count: 2}, {Label: "Web Development", Count: 1}}, nil
	}
	return []types.LabelCount{{Label: "Fresher", Count: 3}}, nil
}

type loginCounter struct {
	outcomes []string
}

func (l *loginCounter) IncLogin(outcome string) { l.outcomes = append(l.outcomes, outcome) }

func testRecord(id uint64, name, field string) models.AnalysisRecord {
	return models.AnalysisRecord{
		ID:                 id,
		Name:               name,
		Email:              name + "@example.com",
		ResumeScore:        "55",
		Timestamp:          "2024-05-01_09:00:00",
		PageNo:             "1",
		PredictedField:     field,
		UserLevel:          "Fresher",
		ActualSkills:       datatypes.JSON(`["Python"]`),
		RecommendedSkills:  datatypes.JSON(`["Keras"]`),
		RecommendedCourses: datatypes.JSON(`["ML Crash Course"]`),
	}
}

type adminFixture struct {
	h        *server.Hertz
	counter  *loginCounter
	sessions *auth.RedisSessionStore
}

func newAdminFixture(t *testing.T, loginBurst int) *adminFixture {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	rdb, err := storage.NewRedisFromClient(client, &config.RedisConfig{Address: mr.Addr()})
	require.NoError(t, err)
	t.Cleanup(func() { rdb.Close() })
	sessions := auth.NewRedisSessionStore(rdb, time.Minute)

	hash, err := bcrypt.GenerateFromPassword([]byte(testAdminPassword), bcrypt.MinCost)
	require.NoError(t, err)
	authenticator, err := auth.NewBcryptAuthenticator(testAdminUser, string(hash))
	require.NoError(t, err)

	limiter := ratelimit.NewLimiterManager(1, loginBurst)
	t.Cleanup(limiter.Stop)

	records := &fakeRecords{records: []models.AnalysisRecord{
		testRecord(1, "alice", "Data Science"),
		testRecord(2, "bob", "Web Development"),
		testRecord(3, "carol", "Data Science"),
	}}
	counter := &loginCounter{}

	h := server.New(server.WithHostPorts("127.0.0.1:0"))
	router.RegisterRoutes(h,
		handler.NewResumeHandler(&fakeAnalyzer{}, 0),
		handler.NewAdminHandler(authenticator, sessions, records, limiter, counter),
		sessions,
	)
	return &adminFixture{h: h, counter: counter, sessions: sessions}
}

func (f *adminFixture) login(t *testing.T, username, password string) *ut.ResponseRecorder {
	t.Helper()
	payload, err := json.Marshal(handler.LoginRequest{Username: username, Password: password})
	require.NoError(t, err)
	return ut.PerformRequest(f.h.Engine, "POST", "/api/v1/admin/login",
		&ut.Body{Body: bytes.NewReader(payload), Len: len(payload)},
		ut.Header{Key: "Content-Type", Value: "application/json"},
	)
}

func (f *adminFixture) token(t *testing.T) string {
	t.Helper()
	resp := f.login(t, testAdminUser, testAdminPassword)
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	var out struct {
		Success   bool      `json:"success"`
		Token     string    `json:"token"`
		ExpiresAt time.Time `json:"expires_at"`
	}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &out))
	require.True(t, out.Success)
	require.NotEmpty(t, out.Token)
	assert.True(t, out.ExpiresAt.After(time.Now()))
	return out.Token
}

func (f *adminFixture) get(path, token string) *ut.ResponseRecorder {
	if token == "" {
		return ut.PerformRequest(f.h.Engine, "GET", path, nil)
	}
	return ut.PerformRequest(f.h.Engine, "GET", path, nil,
		ut.Header{Key: "Authorization", Value: "Bearer " + token})
}

func TestAdminLogin(t *testing.T) {
	f := newAdminFixture(t, 10)

	resp := f.login(t, testAdminUser, "wrong")
	assert.Equal(t, http.StatusUnauthorized, resp.Code)

	resp = ut.PerformRequest(f.h.Engine, "POST", "/api/v1/admin/login",
		&ut.Body{Body: bytes.NewReader([]byte("{")), Len: 1},
		ut.Header{Key: "Content-Type", Value: "application/json"},
	)
	assert.Equal(t, http.StatusBadRequest, resp.Code)

	f.token(t)
	assert.Equal(t, []string{"failure", "success"}, f.counter.outcomes)
}

func TestAdminLoginRateLimited(t *testing.T) {
	f := newAdminFixture(t, 2)

	assert.Equal(t, http.StatusUnauthorized, f.login(t, testAdminUser, "x").Code)
	assert.Equal(t, http.StatusUnauthorized, f.login(t, testAdminUser, "y").Code)
	// 突发额度用完，即使密码正确也被拒绝
	assert.Equal(t, http.StatusTooManyRequests, f.login(t, testAdminUser, testAdminPassword).Code)
	assert.Contains(t, f.counter.outcomes, "rate_limited")
}

func TestAdminRoutesRequireToken(t *testing.T) {
	f := newAdminFixture(t, 10)
	for _, path := range []string{
		"/api/v1/admin/records",
		"/api/v1/admin/records/export.csv",
		"/api/v1/admin/records/export.xlsx",
		"/api/v1/admin/stats",
	} {
		assert.Equal(t, http.StatusUnauthorized, f.get(path, "").Code, path)
	}
}

func TestAdminListRecords(t *testing.T) {
	f := newAdminFixture(t, 10)
	token := f.token(t)

	resp := f.get("/api/v1/admin/records?limit=2&offset=1", token)
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	var out struct {
		Total   int64                  `json:"total"`
		Records []types.StoredAnalysis `json:"records"`
	}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &out))
	assert.Equal(t, int64(3), out.Total)
	require.Len(t, out.Records, 2)
	assert.Equal(t, "bob", out.Records[0].Name)
	assert.Equal(t, []string{"Python"}, out.Records[0].ActualSkills)
	assert.Equal(t, 55, out.Records[0].ResumeScore)

	assert.Equal(t, http.StatusBadRequest, f.get("/api/v1/admin/records?limit=-1", token).Code)
	assert.Equal(t, http.StatusBadRequest, f.get("/api/v1/admin/records?offset=abc", token).Code)
}

func TestAdminExportCSV(t *testing.T) {
	f := newAdminFixture(t, 10)
	token := f.token(t)

	resp := f.get("/api/v1/admin/records/export.csv", token)
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, string(resp.Header().ContentType()), "text/csv")
	assert.Contains(t, resp.Header().Get("Content-Disposition"), export.CSVFilename)

	rows, err := csv.NewReader(bytes.NewReader(resp.Body.Bytes())).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, models.Columns, rows[0])

	resp = f.get("/api/v1/admin/records/export.csv?encoding=base64", token)
	require.Equal(t, http.StatusOK, resp.Code)
	var encoded struct {
		Filename string `json:"filename"`
		Data     string `json:"data"`
	}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &encoded))
	assert.Equal(t, "User_Data.csv", encoded.Filename)
	decoded, err := base64.StdEncoding.DecodeString(encoded.Data)
	require.NoError(t, err)
	decodedRows, err := csv.NewReader(bytes.NewReader(decoded)).ReadAll()
	require.NoError(t, err)
	assert.Equal(t, rows, decodedRows)

	assert.Equal(t, http.StatusBadRequest, f.get("/api/v1/admin/records/export.csv?encoding=hex", token).Code)
}

func TestAdminExportXLSX(t *testing.T) {
	f := newAdminFixture(t, 10)
	token := f.token(t)

	resp := f.get("/api/v1/admin/records/export.xlsx", token)
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, export.XLSXContentType, string(resp.Header().ContentType()))

	book, err := excelize.OpenReader(bytes.NewReader(resp.Body.Bytes()))
	require.NoError(t, err)
	defer book.Close()
	rows, err := book.GetRows(book.GetSheetName(0))
	require.NoError(t, err)
	assert.Len(t, rows, 4)
}

func TestAdminStats(t *testing.T) {
	f := newAdminFixture(t, 10)
	token := f.token(t)

	resp := f.get("/api/v1/admin/stats", token)
	require.Equal(t, http.StatusOK, resp.Code)

	var out struct {
		Total          int64              `json:"total"`
		PredictedField []types.LabelCount `json:"predicted_field"`
		UserLevel      []types.LabelCount `json:"user_level"`
	}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &out))
	assert.Equal(t, int64(3), out.Total)
	require.Len(t, out.PredictedField, 2)
	assert.Equal(t, types.LabelCount{Label: "Data Science", Count: 2}, out.PredictedField[0])
	assert.Equal(t, []types.LabelCount{{Label: "Fresher", Count: 3}}, out.UserLevel)
}

func TestAdminLogout(t *testing.T) {
	f := newAdminFixture(t, 10)
	token := f.token(t)

	resp := ut.PerformRequest(f.h.Engine, "POST", "/api/v1/admin/logout", nil,
		ut.Header{Key: "Authorization", Value: "Bearer " + token})
	require.Equal(t, http.StatusOK, resp.Code)

	_, err := f.sessions.Validate(context.Background(), token)
	assert.ErrorIs(t, err, auth.ErrSessionNotFound)
	assert.Equal(t, http.StatusUnauthorized, f.get("/api/v1/admin/stats", token).Code)
}
