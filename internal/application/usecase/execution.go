package usecase

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"codenest/internal/application/verifier"
	"codenest/internal/domain"
	"codenest/internal/platform/logger"
)

type ExecutionOutput struct {
	Output          string           `json:"output"`
	Error           *string          `json:"error"`
	ErrorKind       domain.ErrorKind `json:"errorKind"`
	ExecutionTimeMs int64            `json:"executionTimeMs"`
	MemoryMB        float64          `json:"memoryMb"`
	Success         bool             `json:"success"`
	Reward
}

type ExecutionUseCase struct {
	executor verifier.Executor
	progress *ProgressUseCase
	projects *ProjectUseCase
	log      *logger.Logger
}

func NewExecutionUseCase(executor verifier.Executor, progress *ProgressUseCase, log *logger.Logger) *ExecutionUseCase {
	return &ExecutionUseCase{executor: executor, progress: progress, log: log}
}

// WithProjects включает запись запусков в историю проекта
func (uc *ExecutionUseCase) WithProjects(projects *ProjectUseCase) *ExecutionUseCase {
	uc.projects = projects
	return uc
}

// Execute запускает код в песочнице. Награда начисляется только если песочница
// вернула результат (даже с ошибкой компиляции или выполнения).
func (uc *ExecutionUseCase) Execute(ctx context.Context, userID uuid.UUID, req domain.ExecutionRequest) (*ExecutionOutput, error) {
	if strings.TrimSpace(req.Code) == "" {
		return nil, domain.ErrEmptyCode
	}
	lang, err := domain.ParseLanguage(string(req.Language))
	if err != nil {
		return nil, err
	}
	req.Language = lang

	res, err := uc.executor.Execute(ctx, req)
	if err != nil {
		uc.log.Warn("execution failed", "user_id", userID, "language", lang, "error", err)
		return nil, err
	}

	out := &ExecutionOutput{
		Output:          res.Output(),
		ErrorKind:       res.Kind,
		ExecutionTimeMs: res.TimeMs,
		MemoryMB:        res.MemoryMB(req.Code),
		Success:         res.Success(),
	}
	if out.ErrorKind == "" {
		out.ErrorKind = domain.ErrorKindNone
	}
	if msg := res.ErrorMessage(); msg != "" {
		out.Error = &msg
	}

	// Результат уже получен: награду начисляем даже если клиент отключился
	reward, err := uc.progress.OnExecution(context.WithoutCancel(ctx), userID, lang)
	if err != nil {
		return nil, err
	}
	out.Reward = reward
	return out, nil
}

// ExecuteInProject: обычный запуск плюс запись в историю проекта. Чужой проект
// отклоняется до запуска, а сбой записи истории на ответ не влияет.
func (uc *ExecutionUseCase) ExecuteInProject(ctx context.Context, userID, projectID uuid.UUID, fileName string, req domain.ExecutionRequest) (*ExecutionOutput, error) {
	if uc.projects == nil {
		return uc.Execute(ctx, userID, req)
	}
	project, err := uc.projects.Get(ctx, userID, projectID)
	if err != nil {
		return nil, err
	}
	if fileName == "" {
		fileName = project.ActiveFile
	}

	out, err := uc.Execute(ctx, userID, req)
	if err != nil {
		return nil, err
	}

	_, err = uc.projects.RecordExecution(context.WithoutCancel(ctx), userID, projectID, domain.ExecutionRecord{
		FileName:        fileName,
		Language:        req.Language,
		ExecutionTimeMs: out.ExecutionTimeMs,
		MemoryMB:        out.MemoryMB,
	})
	if err != nil {
		uc.log.Warn("execution history not saved", "user_id", userID, "project_id", projectID, "error", err)
	}
	return out, nil
}
