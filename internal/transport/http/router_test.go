package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"codenest/internal/application/usecase"
	"codenest/internal/application/verifier"
	"codenest/internal/domain"
	"codenest/internal/infrastructure/cache"
	"codenest/internal/infrastructure/repository"
	"codenest/internal/infrastructure/security"
	"codenest/internal/infrastructure/tutor"
	"codenest/internal/platform/logger"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeExecutor struct {
	fn func(req domain.ExecutionRequest) (*domain.ExecutionResult, error)
}

func (f *fakeExecutor) Execute(_ context.Context, req domain.ExecutionRequest) (*domain.ExecutionResult, error) {
	return f.fn(req)
}

type fakeTutor struct {
	reply string
	err   error
}

func (f *fakeTutor) Chat(context.Context, string, []tutor.Message, ...tutor.Option) (string, error) {
	return f.reply, f.err
}

func (f *fakeTutor) GenerateJSON(_ context.Context, _ string, out interface{}, _ ...tutor.Option) error {
	if f.err != nil {
		return f.err
	}
	return tutor.DecodeJSON(f.reply, out)
}

type testServer struct {
	router   *gin.Engine
	exec     *fakeExecutor
	tutor    *fakeTutor
	progress *repository.ProgressRepository
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	log := logger.Nop()

	db, err := repository.Open(repository.DBConfig{
		Driver: "sqlite",
		Path:   fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString()),
	})
	require.NoError(t, err)
	require.NoError(t, repository.AutoMigrate(db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	users := repository.NewUserRepository(db)
	progressRepo := repository.NewProgressRepository(db)
	topics := repository.NewTopicRepository(db, cache.NewRoadmapCache(rdb, time.Minute, log))
	require.NoError(t, topics.ReplaceRoadmap(context.Background(), domain.LanguagePython, []domain.Topic{
		{Order: 1, Title: "Variables", TestCases: []domain.TestCase{
			{Input: "1", ExpectedOutput: "365"},
			{Input: "5", ExpectedOutput: "1825"},
			{Input: "10", ExpectedOutput: "3650"},
		}},
		{Order: 2, Title: "Loops", TestCases: []domain.TestCase{{Input: "4", ExpectedOutput: "Even"}}},
	}))

	exec := &fakeExecutor{fn: func(req domain.ExecutionRequest) (*domain.ExecutionResult, error) {
		return &domain.ExecutionResult{Stdout: "hello\n", Kind: domain.ErrorKindNone, TimeMs: 5}, nil
	}}
	ft := &fakeTutor{}

	authUC := usecase.NewAuthUseCase(users, cache.NewTokenCache(rdb),
		security.NewPasswordHasherWithCost(bcrypt.MinCost), security.NewTokenManager("a", "r"), log)
	progressUC := usecase.NewProgressUseCase(progressRepo, topics, users, log)
	projectUC := usecase.NewProjectUseCase(repository.NewProjectRepository(db), log)
	execUC := usecase.NewExecutionUseCase(exec, progressUC, log).WithProjects(projectUC)
	submitUC := usecase.NewSubmissionUseCase(verifier.New(exec, time.Second, log), progressUC, topics, log)
	tutorUC := usecase.NewTutorUseCase(ft, progressUC, log)

	r := NewRouter(RouterConfig{
		ServiceName:    "codenest-test",
		AllowedOrigins: []string{"http://localhost:5173"},
		Log:            log,
		Auth:           NewAuthHandler(authUC, "", false),
		Execution:      NewExecutionHandler(execUC),
		Submission:     NewSubmissionHandler(submitUC),
		Progress:       NewProgressHandler(progressUC),
		Tutor:          NewTutorHandler(tutorUC),
		Projects:       NewProjectHandler(projectUC),
		Access:         authUC,
		Health: map[string]HealthCheck{
			"redis": func(ctx context.Context) error { return rdb.Ping(ctx).Err() },
		},
	})
	return &testServer{router: r, exec: exec, tutor: ft, progress: progressRepo}
}

func (s *testServer) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

// signup регистрирует пользователя и возвращает access-токен
func (s *testServer) signup(t *testing.T, name string) (string, uuid.UUID) {
	t.Helper()
	w := s.do(t, http.MethodPost, "/api/v1/auth/register", "", gin.H{
		"email": name + "@example.com", "username": name, "password": "secret1",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var reg struct {
		UserID uuid.UUID `json:"userId"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &reg))

	w = s.do(t, http.MethodPost, "/api/v1/auth/login", "", gin.H{
		"email": name + "@example.com", "password": "secret1",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var login struct {
		AccessToken string `json:"accessToken"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &login))
	return login.AccessToken, reg.UserID
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func TestAuthFlow(t *testing.T) {
	s := newTestServer(t)
	token, _ := s.signup(t, "alice")

	w := s.do(t, http.MethodPost, "/api/v1/auth/register", "", gin.H{
		"email": "alice@example.com", "username": "alice", "password": "secret1",
	})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "already_exists", decode(t, w)["code"])

	w = s.do(t, http.MethodPost, "/api/v1/auth/login", "", gin.H{"email": "alice@example.com", "password": "nope"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "invalid_credentials", decode(t, w)["code"])

	w = s.do(t, http.MethodPost, "/api/v1/auth/register", "", gin.H{"email": "bad", "username": "x", "password": "1"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "validation", decode(t, w)["code"])

	w = s.do(t, http.MethodGet, "/api/v1/progress/completed", token, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"success":true,"completedTopics":[]}`, w.Body.String())

	w = s.do(t, http.MethodGet, "/api/v1/progress/completed", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRefreshCookieRotation(t *testing.T) {
	s := newTestServer(t)
	s.signup(t, "alice")

	w := s.do(t, http.MethodPost, "/api/v1/auth/login", "", gin.H{"email": "alice@example.com", "password": "secret1"})
	require.Equal(t, http.StatusOK, w.Code)
	cookies := w.Result().Cookies()
	require.NotEmpty(t, cookies)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/refresh", nil)
	req.AddCookie(cookies[0])
	rw := httptest.NewRecorder()
	s.router.ServeHTTP(rw, req)
	assert.Equal(t, http.StatusOK, rw.Code)

	// старый cookie больше не работает
	req = httptest.NewRequest(http.MethodPost, "/api/v1/auth/refresh", nil)
	req.AddCookie(cookies[0])
	rw = httptest.NewRecorder()
	s.router.ServeHTTP(rw, req)
	assert.Equal(t, http.StatusUnauthorized, rw.Code)

	rw = s.do(t, http.MethodPost, "/api/v1/auth/refresh", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rw.Code)
}

func TestExecuteEndpoint(t *testing.T) {
	s := newTestServer(t)
	token, _ := s.signup(t, "alice")

	w := s.do(t, http.MethodPost, "/api/v1/execute", token, gin.H{"code": "print('hello')", "language": "python"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	body := decode(t, w)
	assert.Equal(t, "hello", body["output"])
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "none", body["errorKind"])
	assert.Nil(t, body["error"])
	assert.EqualValues(t, 10, body["xpGained"])
	assert.EqualValues(t, 10, body["newXP"])
	assert.EqualValues(t, 1, body["newLevel"])

	w = s.do(t, http.MethodPost, "/api/v1/execute", token, gin.H{"code": "x", "language": "rust"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodPost, "/api/v1/execute", token, gin.H{"code": "   ", "language": "python"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "empty_code", decode(t, w)["code"])

	s.exec.fn = func(domain.ExecutionRequest) (*domain.ExecutionResult, error) {
		return nil, fmt.Errorf("%w: connection refused", domain.ErrExecutionUnavailable)
	}
	w = s.do(t, http.MethodPost, "/api/v1/execute", token, gin.H{"code": "x", "language": "python"})
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	s.exec.fn = func(domain.ExecutionRequest) (*domain.ExecutionResult, error) {
		return nil, domain.ErrExecutionTimeout
	}
	w = s.do(t, http.MethodPost, "/api/v1/execute", token, gin.H{"code": "x", "language": "python"})
	assert.Equal(t, http.StatusGatewayTimeout, w.Code)
	assert.Equal(t, "execution_timeout", decode(t, w)["code"])

	w = s.do(t, http.MethodGet, "/api/v1/execute/languages", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"c++"`)
}

func TestSubmissionEndpoint(t *testing.T) {
	s := newTestServer(t)
	token, userID := s.signup(t, "alice")
	_, err := s.progress.Update(context.Background(), userID, func(p *domain.Progress) error {
		_, err := p.AddXP(480)
		return err
	})
	require.NoError(t, err)

	w := s.do(t, http.MethodPost, "/api/v1/submissions", token, gin.H{"code": "x", "language": "python", "topicOrder": 2})
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "topic_locked", decode(t, w)["code"])

	s.exec.fn = func(req domain.ExecutionRequest) (*domain.ExecutionResult, error) {
		days := map[string]string{"1": "365", "5": "1825", "10": "3650"}
		return &domain.ExecutionResult{Stdout: days[req.Stdin] + "\n", Kind: domain.ErrorKindNone}, nil
	}
	w = s.do(t, http.MethodPost, "/api/v1/submissions", token, gin.H{"code": "x", "language": "python", "topicOrder": 1})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	body := decode(t, w)
	assert.Equal(t, true, body["allPassed"])
	assert.EqualValues(t, 530, body["newXP"])
	assert.EqualValues(t, 2, body["newLevel"])
	assert.Equal(t, true, body["leveledUp"])
	results := body["results"].([]interface{})
	require.Len(t, results, 3)
	first := results[0].(map[string]interface{})
	assert.EqualValues(t, 1, first["caseIndex"])
	assert.Equal(t, "365", first["expected"])
	assert.Equal(t, "365", first["actual"])

	w = s.do(t, http.MethodGet, "/api/v1/topics/python", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"unlocked":true,"completed":false`)

	w = s.do(t, http.MethodGet, "/api/v1/topics/python/2", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, decode(t, w)["unlocked"])

	w = s.do(t, http.MethodGet, "/api/v1/topics/python/9", token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = s.do(t, http.MethodGet, "/api/v1/topics/cobol", token, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCompleteEndpointIdempotent(t *testing.T) {
	s := newTestServer(t)
	token, _ := s.signup(t, "alice")

	w := s.do(t, http.MethodPost, "/api/v1/progress/complete", token, gin.H{"topicOrder": 1, "topicTitle": "Variables"})
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.EqualValues(t, 50, body["xpGained"])
	assert.Equal(t, "Completed: Variables", body["message"])

	w = s.do(t, http.MethodPost, "/api/v1/progress/complete", token, gin.H{"topicOrder": 1, "topicTitle": "Variables"})
	require.Equal(t, http.StatusOK, w.Code)
	body = decode(t, w)
	assert.Equal(t, true, body["alreadyCompleted"])
	assert.Nil(t, body["xpGained"])

	w = s.do(t, http.MethodPost, "/api/v1/progress/complete", token, gin.H{"topicOrder": 0, "topicTitle": "x"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAnalyticsEndpoints(t *testing.T) {
	s := newTestServer(t)
	token, _ := s.signup(t, "alice")
	s.signup(t, "bob")

	w := s.do(t, http.MethodPost, "/api/v1/analytics/badge", token, gin.H{"name": "First Run", "icon": "rocket"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, decode(t, w)["awarded"])

	w = s.do(t, http.MethodPost, "/api/v1/analytics/badge", token, gin.H{"name": "First Run", "icon": "rocket"})
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, false, body["awarded"])
	assert.Len(t, body["badges"], 1)

	w = s.do(t, http.MethodPut, "/api/v1/analytics/skills", token, gin.H{"syntax": 250, "logic": 7})
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"syntax":100,"logic":7,"dataStructures":0,"optimization":0}`, w.Body.String())

	w = s.do(t, http.MethodGet, "/api/v1/analytics", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	user := decode(t, w)["user"].(map[string]interface{})
	assert.Equal(t, "alice", user["username"])

	w = s.do(t, http.MethodGet, "/api/v1/analytics/leaderboard?limit=1", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var board []map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &board))
	assert.Len(t, board, 1)
}

func TestTutorEndpoints(t *testing.T) {
	s := newTestServer(t)
	token, _ := s.signup(t, "alice")

	s.tutor.reply = "no json, sorry"
	w := s.do(t, http.MethodPost, "/api/v1/ai/explain-error", token, gin.H{"code": "x", "error": "NameError"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, decode(t, w)["fallback"])

	w = s.do(t, http.MethodPost, "/api/v1/ai/analyze-complexity", token, gin.H{"code": "x", "language": "python"})
	assert.Equal(t, http.StatusBadGateway, w.Code)

	s.tutor.reply = "```json\n{\"timeComplexity\":\"O(1)\"}\n```"
	w = s.do(t, http.MethodPost, "/api/v1/ai/analyze-complexity", token, gin.H{"code": "x", "language": "python"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.Contains(w.Body.String(), `"timeComplexity":"O(1)"`))

	s.tutor.err = domain.ErrContentUnavailable
	w = s.do(t, http.MethodPost, "/api/v1/ai/hint", token, gin.H{"question": "how?"})
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	w = s.do(t, http.MethodPost, "/api/v1/ai/chat", token, gin.H{
		"userMessage": "hi", "chatHistory": []gin.H{{"role": "robot", "content": "x"}},
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHealthAndMetrics(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok","checks":{"redis":"ok"}}`, w.Body.String())

	w = s.do(t, http.MethodGet, "/metrics", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "codenest_http_requests_total")
}

func TestProjectEndpoints(t *testing.T) {
	s := newTestServer(t)
	alice, _ := s.signup(t, "alice")
	bob, _ := s.signup(t, "bob")

	w := s.do(t, http.MethodGet, "/api/v1/projects", alice, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())

	w = s.do(t, http.MethodPost, "/api/v1/projects", alice, gin.H{"name": "Demo", "language": "java"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := decode(t, w)
	id, _ := created["id"].(string)
	require.NotEmpty(t, id)
	assert.Equal(t, "Main.java", created["activeFile"])
	files := created["files"].([]interface{})
	require.Len(t, files, 1)
	assert.Equal(t, "java", files[0].(map[string]interface{})["language"])

	w = s.do(t, http.MethodPost, "/api/v1/projects", alice, gin.H{"description": "no name"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w = s.do(t, http.MethodPost, "/api/v1/projects", alice, gin.H{"name": "x", "language": "rust"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// чужой и несуществующий проект отвечают одинаково
	for _, path := range []string{"/api/v1/projects/" + id, "/api/v1/projects/" + uuid.NewString(), "/api/v1/projects/not-a-uuid"} {
		w = s.do(t, http.MethodGet, path, bob, nil)
		assert.Equal(t, http.StatusNotFound, w.Code, path)
		assert.Equal(t, "not_found", decode(t, w)["code"])
	}
	w = s.do(t, http.MethodPut, "/api/v1/projects/"+id, bob, gin.H{"name": "stolen"})
	assert.Equal(t, http.StatusNotFound, w.Code)
	w = s.do(t, http.MethodDelete, "/api/v1/projects/"+id, bob, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	w = s.do(t, http.MethodPost, "/api/v1/projects/"+id+"/execution", bob, gin.H{"fileName": "Main.java"})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = s.do(t, http.MethodPut, "/api/v1/projects/"+id, alice, gin.H{
		"files": []gin.H{
			{"name": "Main.java", "content": "class Main {}", "language": "java"},
			{"name": "Util.java", "content": "class Util {}", "language": "java"},
		},
		"activeFile":  "Util.java",
		"description": "two files",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	updated := decode(t, w)
	assert.Equal(t, "Demo", updated["name"])
	assert.Equal(t, "Util.java", updated["activeFile"])
	assert.Equal(t, "two files", updated["description"])
	assert.Len(t, updated["files"], 2)

	w = s.do(t, http.MethodPut, "/api/v1/projects/"+id, alice, gin.H{"files": []gin.H{{"name": ""}}})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodPost, "/api/v1/projects/"+id+"/execution", alice, gin.H{
		"fileName": "Main.java", "language": "java", "executionTime": 35, "memoryUsage": 2.5, "complexity": "O(1)",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	history := decode(t, w)["executionHistory"].([]interface{})
	require.Len(t, history, 1)
	rec := history[0].(map[string]interface{})
	assert.Equal(t, "Main.java", rec["fileName"])
	assert.EqualValues(t, 35, rec["executionTime"])
	assert.EqualValues(t, 2.5, rec["memoryUsage"])

	w = s.do(t, http.MethodPost, "/api/v1/projects/"+id+"/execution", alice, gin.H{"language": "java"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// запуск из проекта попадает в историю и даёт обычную награду
	w = s.do(t, http.MethodPost, "/api/v1/execute", alice, gin.H{
		"code": "class Main {}", "language": "java", "projectId": id, "fileName": "Util.java",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.EqualValues(t, 10, decode(t, w)["xpGained"])
	w = s.do(t, http.MethodPost, "/api/v1/execute", bob, gin.H{"code": "x", "language": "java", "projectId": id})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = s.do(t, http.MethodGet, "/api/v1/projects", alice, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var list []map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	require.Len(t, list, 1)
	runs := list[0]["executionHistory"].([]interface{})
	require.Len(t, runs, 2)
	assert.Equal(t, "Util.java", runs[1].(map[string]interface{})["fileName"])

	w = s.do(t, http.MethodDelete, "/api/v1/projects/"+id, alice, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"message":"Project deleted successfully"}`, w.Body.String())
	w = s.do(t, http.MethodGet, "/api/v1/projects/"+id, alice, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = s.do(t, http.MethodGet, "/api/v1/projects", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
