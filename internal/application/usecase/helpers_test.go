package usecase

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"codenest/internal/application/verifier"
	"codenest/internal/domain"
	"codenest/internal/infrastructure/repository"
	"codenest/internal/platform/logger"
)

// echoExecutor печатает результат функции от stdin
type echoExecutor struct {
	mu    sync.Mutex
	calls int
	fn    func(req domain.ExecutionRequest) (*domain.ExecutionResult, error)
}

func (e *echoExecutor) Execute(_ context.Context, req domain.ExecutionRequest) (*domain.ExecutionResult, error) {
	e.mu.Lock()
	e.calls++
	e.mu.Unlock()
	return e.fn(req)
}

func (e *echoExecutor) Calls() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.calls
}

func stdout(s string) *domain.ExecutionResult {
	return &domain.ExecutionResult{Stdout: s, Kind: domain.ErrorKindNone, TimeMs: 12}
}

type env struct {
	db         *gorm.DB
	users      *repository.UserRepository
	progress   *repository.ProgressRepository
	topics     *repository.TopicRepository
	executor   *echoExecutor
	progressUC *ProgressUseCase
	execUC     *ExecutionUseCase
	submitUC   *SubmissionUseCase
	projectUC  *ProjectUseCase
	now        time.Time
}

func newEnv(t *testing.T) *env {
	t.Helper()
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

	e := &env{
		db:       db,
		users:    repository.NewUserRepository(db),
		progress: repository.NewProgressRepository(db),
		topics:   repository.NewTopicRepository(db, nil),
		executor: &echoExecutor{fn: func(req domain.ExecutionRequest) (*domain.ExecutionResult, error) {
			return stdout(req.Stdin), nil
		}},
		now: time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC),
	}
	log := logger.Nop()
	e.progressUC = NewProgressUseCase(e.progress, e.topics, e.users, log)
	e.progressUC.now = func() time.Time { return e.now }
	e.projectUC = NewProjectUseCase(repository.NewProjectRepository(db), log)
	e.projectUC.now = func() time.Time { return e.now }
	e.execUC = NewExecutionUseCase(e.executor, e.progressUC, log).WithProjects(e.projectUC)
	e.submitUC = NewSubmissionUseCase(verifier.New(e.executor, time.Second, log), e.progressUC, e.topics, log)
	return e
}

func (e *env) user(t *testing.T, name string) uuid.UUID {
	t.Helper()
	u := &domain.User{ID: uuid.New(), Email: name + "@example.com", Username: name, Password: "x"}
	require.NoError(t, e.users.Create(context.Background(), u))
	return u.ID
}

func (e *env) giveXP(t *testing.T, userID uuid.UUID, xp int) {
	t.Helper()
	_, err := e.progress.Update(context.Background(), userID, func(p *domain.Progress) error {
		_, err := p.AddXP(xp)
		return err
	})
	require.NoError(t, err)
}

// Темы: ответ на каждый тест равен входу, но в верхнем регистре
func (e *env) seed(t *testing.T) {
	t.Helper()
	topics := []domain.Topic{
		{Order: 1, Title: "Basics", TestCases: []domain.TestCase{
			{Input: "a", ExpectedOutput: "A"},
			{Input: "b", ExpectedOutput: "B\n"},
			{Input: "c", ExpectedOutput: " C "},
		}},
		{Order: 2, Title: "Loops", TestCases: []domain.TestCase{
			{Input: "x", ExpectedOutput: "X"},
		}},
	}
	require.NoError(t, e.topics.ReplaceRoadmap(context.Background(), domain.LanguagePython, topics))
}

func upper(req domain.ExecutionRequest) (*domain.ExecutionResult, error) {
	return stdout(strings.ToUpper(req.Stdin) + "\n"), nil
}
