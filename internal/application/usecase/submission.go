package usecase

import (
	"context"

	"github.com/google/uuid"

	"codenest/internal/application/verifier"
	"codenest/internal/domain"
	"codenest/internal/platform/logger"
)

type SubmissionInput struct {
	Code       string
	Language   domain.Language
	TopicOrder int
}

type SubmissionOutput struct {
	Results          []verifier.CaseResult `json:"results"`
	AllPassed        bool                  `json:"allPassed"`
	XPGained         *int                  `json:"xpGained,omitempty"`
	NewXP            *int                  `json:"newXP,omitempty"`
	NewLevel         *int                  `json:"newLevel,omitempty"`
	LeveledUp        *bool                 `json:"leveledUp,omitempty"`
	AlreadyCompleted *bool                 `json:"alreadyCompleted,omitempty"`
}

type SubmissionUseCase struct {
	verifier *verifier.Verifier
	progress *ProgressUseCase
	topics   TopicRepository
	log      *logger.Logger
}

func NewSubmissionUseCase(v *verifier.Verifier, progress *ProgressUseCase, topics TopicRepository, log *logger.Logger) *SubmissionUseCase {
	return &SubmissionUseCase{verifier: v, progress: progress, topics: topics, log: log}
}

// Submit прогоняет решение по тестам темы. Любой прогон обновляет серию и активность,
// тема засчитывается только при полном прохождении.
func (uc *SubmissionUseCase) Submit(ctx context.Context, userID uuid.UUID, in SubmissionInput) (*SubmissionOutput, error) {
	lang, err := domain.ParseLanguage(string(in.Language))
	if err != nil {
		return nil, err
	}
	if in.TopicOrder <= 0 {
		return nil, domain.ErrInvalidTopicOrder
	}

	topic, roadmap, err := uc.topics.Get(ctx, lang, in.TopicOrder)
	if err != nil {
		return nil, err
	}
	p, err := uc.progress.Progress(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !domain.IsUnlocked(topic.Order, p.CompletedSet(), roadmap) {
		return nil, domain.ErrTopicLocked
	}

	run, err := uc.verifier.RunTestSuite(ctx, in.Code, lang, topic.TestCases)
	if err != nil {
		return nil, err
	}

	out := &SubmissionOutput{Results: run.Results, AllPassed: run.AllPassed}

	// Прогон состоялся: серию и активность обновляем даже если клиент ушёл
	res, err := uc.progress.OnSubmission(context.WithoutCancel(ctx), userID, topic, run)
	if err != nil {
		return nil, err
	}
	if res == nil {
		return out, nil
	}
	already := res.AlreadyCompleted
	out.AlreadyCompleted = &already
	if !already {
		out.XPGained = &res.XPGained
		out.NewXP = &res.NewXP
		out.NewLevel = &res.NewLevel
		out.LeveledUp = &res.LeveledUp
	}
	return out, nil
}
