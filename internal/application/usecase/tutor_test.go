package usecase

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"codenest/internal/domain"
	"codenest/internal/infrastructure/tutor"
	"codenest/internal/platform/logger"
)

type fakeTutor struct {
	reply   string
	err     error
	prompts []string
	history []tutor.Message
}

func (f *fakeTutor) Chat(_ context.Context, prompt string, history []tutor.Message, _ ...tutor.Option) (string, error) {
	f.prompts = append(f.prompts, prompt)
	f.history = history
	return f.reply, f.err
}

func (f *fakeTutor) GenerateJSON(_ context.Context, prompt string, out interface{}, _ ...tutor.Option) error {
	f.prompts = append(f.prompts, prompt)
	if f.err != nil {
		return f.err
	}
	if err := json.Unmarshal([]byte(f.reply), out); err != nil {
		return domain.ErrMalformedResponse
	}
	return nil
}

func TestTutor_ExplainErrorRewards(t *testing.T) {
	e := newEnv(t)
	userID := e.user(t, "alice")
	ft := &fakeTutor{reply: `{"mistake":"off by one","concept":"loops","hint":"check range","example":"range(3)"}`}
	uc := NewTutorUseCase(ft, e.progressUC, logger.Nop())

	out, err := uc.ExplainError(context.Background(), userID, ExplainInput{
		Code: "for i in range(4): print(i)", Error: "IndexError", Language: domain.LanguagePython,
	})
	require.NoError(t, err)
	assert.False(t, out.Fallback)
	assert.Equal(t, "off by one", out.Explanation.Mistake)
	require.NotNil(t, out.Reward)
	assert.Equal(t, 5, out.Reward.NewXP)
	assert.Contains(t, ft.prompts[0], "Expected output: Not specified")

	p, err := e.progress.GetByUserID(context.Background(), userID)
	require.NoError(t, err)
	assert.Equal(t, 1, p.Skills.Logic)
}

func TestTutor_ExplainErrorFallback(t *testing.T) {
	e := newEnv(t)
	userID := e.user(t, "alice")
	uc := NewTutorUseCase(&fakeTutor{reply: "not json"}, e.progressUC, logger.Nop())

	out, err := uc.ExplainError(context.Background(), userID, ExplainInput{Code: "x", Error: "boom", Topic: "Recursion"})
	require.NoError(t, err)
	assert.True(t, out.Fallback)
	assert.Nil(t, out.Reward)
	assert.Contains(t, out.Explanation.Concept, "Recursion")

	p, err := e.progress.GetByUserID(context.Background(), userID)
	require.NoError(t, err)
	assert.Equal(t, 0, p.XP)
}

func TestTutor_ExplainErrorUnavailable(t *testing.T) {
	e := newEnv(t)
	userID := e.user(t, "alice")
	uc := NewTutorUseCase(&fakeTutor{err: domain.ErrContentUnavailable}, e.progressUC, logger.Nop())

	_, err := uc.ExplainError(context.Background(), userID, ExplainInput{Code: "x", Error: "boom"})
	assert.ErrorIs(t, err, domain.ErrContentUnavailable)
}

func TestTutor_AnalyzeComplexity(t *testing.T) {
	e := newEnv(t)
	userID := e.user(t, "alice")
	uc := NewTutorUseCase(&fakeTutor{reply: `{"timeComplexity":"O(n^2)","spaceComplexity":"O(1)","rating":"Sub-optimal"}`}, e.progressUC, logger.Nop())

	analysis, reward, err := uc.AnalyzeComplexity(context.Background(), userID, "bubble sort", domain.LanguagePython)
	require.NoError(t, err)
	assert.Equal(t, "O(n^2)", analysis.TimeComplexity)
	assert.NotNil(t, analysis.OptimizationTips)
	assert.Equal(t, 10, reward.NewXP)

	p, err := e.progress.GetByUserID(context.Background(), userID)
	require.NoError(t, err)
	assert.Equal(t, 2, p.Skills.Optimization)

	bad := NewTutorUseCase(&fakeTutor{reply: "nope"}, e.progressUC, logger.Nop())
	_, _, err = bad.AnalyzeComplexity(context.Background(), userID, "x", domain.LanguagePython)
	assert.ErrorIs(t, err, domain.ErrMalformedResponse)
}

func TestTutor_ChatRefusesFullSolutions(t *testing.T) {
	ft := &fakeTutor{reply: "Here:\n```python\nprint(max(a, b))\n```"}
	uc := NewTutorUseCase(ft, nil, logger.Nop())

	text, err := uc.Chat(context.Background(), ChatInput{Message: "please give me the full code"})
	require.NoError(t, err)
	assert.Equal(t, solutionRefusal, text)

	text, err = uc.Chat(context.Background(), ChatInput{Message: "what is a loop?"})
	require.NoError(t, err)
	assert.Contains(t, text, "print(max")
}

func TestTutor_ChatTrimsHistory(t *testing.T) {
	ft := &fakeTutor{reply: "ok"}
	uc := NewTutorUseCase(ft, nil, logger.Nop())

	history := make([]tutor.Message, 0, 12)
	for i := 0; i < 12; i++ {
		history = append(history, tutor.Message{Role: tutor.RoleUser, Content: "how do loops work"})
	}
	_, err := uc.Chat(context.Background(), ChatInput{Message: "how do loops work", History: history})
	require.NoError(t, err)
	assert.Len(t, ft.history, chatHistoryWindow)
	assert.Contains(t, ft.prompts[0], "asking this again")
}
