package usecase

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"

	"codenest/internal/domain"
	"codenest/internal/infrastructure/tutor"
	"codenest/internal/platform/logger"
)

const chatHistoryWindow = 8

type TutorClient interface {
	Chat(ctx context.Context, prompt string, history []tutor.Message, opts ...tutor.Option) (string, error)
	GenerateJSON(ctx context.Context, prompt string, out interface{}, opts ...tutor.Option) error
}

type ErrorExplanation struct {
	Mistake string `json:"mistake"`
	Concept string `json:"concept"`
	Hint    string `json:"hint"`
	Example string `json:"example"`
}

type ComplexityAnalysis struct {
	TimeComplexity   string   `json:"timeComplexity"`
	SpaceComplexity  string   `json:"spaceComplexity"`
	Explanation      string   `json:"explanation"`
	OptimizationTips []string `json:"optimizationTips"`
	Rating           string   `json:"rating"`
}

type ExplainInput struct {
	Code           string
	Error          string
	ExpectedOutput string
	Topic          string
	Language       domain.Language
}

type ExplainOutput struct {
	Explanation ErrorExplanation `json:"data"`
	// Модель ответила мусором, показываем заготовку
	Fallback bool    `json:"fallback"`
	Reward   *Reward `json:"reward,omitempty"`
}

type ChatInput struct {
	Message  string
	Topic    string
	Code     string
	Language domain.Language
	History  []tutor.Message
}

var solutionRequest = regexp.MustCompile(`(?i)give.*code|write.*solution|full.*code|complete.*code|do.*for.*me`)

const solutionRefusal = "I understand you're looking for code, but my job is to help you learn rather than hand over a full solution. " +
	"Tell me which part of the logic is giving you trouble and we'll work through it together."

type TutorUseCase struct {
	client   TutorClient
	progress *ProgressUseCase
	log      *logger.Logger
}

func NewTutorUseCase(client TutorClient, progress *ProgressUseCase, log *logger.Logger) *TutorUseCase {
	return &TutorUseCase{client: client, progress: progress, log: log}
}

func fallbackExplanation(in ExplainInput) ErrorExplanation {
	concept := in.Topic
	if concept == "" {
		concept = "the current topic"
	}
	return ErrorExplanation{
		Mistake: "The program did not produce the expected result. Read the error message from the top and find the first line of your code it points to.",
		Concept: "Review " + concept + ".",
		Hint:    "Run the code with a tiny input and print intermediate values to see where the behaviour changes.",
		Example: "Add a print statement before the failing line to inspect the values involved.",
	}
}

// ExplainError объясняет ошибку без готового решения. За успешный ответ +5 XP и +1 к логике.
func (uc *TutorUseCase) ExplainError(ctx context.Context, userID uuid.UUID, in ExplainInput) (*ExplainOutput, error) {
	if strings.TrimSpace(in.Code) == "" {
		return nil, domain.ErrEmptyCode
	}
	topic := in.Topic
	if topic == "" {
		topic = "General Coding"
	}
	expected := in.ExpectedOutput
	if expected == "" {
		expected = "Not specified"
	}

	prompt := fmt.Sprintf(`You are a coding tutor helping a beginner understand a mistake.
Topic: %s
Language: %s
Student code:
%s
Error or output: %s
Expected output: %s

Explain why the code failed without writing the corrected code.
Reply with JSON only:
{"mistake": "...", "concept": "...", "hint": "...", "example": "..."}`,
		topic, in.Language, fence(in.Language, in.Code), in.Error, expected)

	var explanation ErrorExplanation
	err := uc.client.GenerateJSON(ctx, prompt, &explanation, tutor.WithTemperature(0.7), tutor.WithMaxTokens(1024))
	if errors.Is(err, domain.ErrMalformedResponse) {
		uc.log.Warn("explain-error fell back to static content", "user_id", userID)
		return &ExplainOutput{Explanation: fallbackExplanation(in), Fallback: true}, nil
	}
	if err != nil {
		return nil, err
	}

	reward, err := uc.progress.Grant(context.WithoutCancel(ctx), userID, domain.ExplainErrorXP, domain.SkillLogic, 1)
	if err != nil {
		return nil, err
	}
	return &ExplainOutput{Explanation: explanation, Reward: &reward}, nil
}

// AnalyzeComplexity: +10 XP и +2 к оптимизации за успешный разбор
func (uc *TutorUseCase) AnalyzeComplexity(ctx context.Context, userID uuid.UUID, code string, language domain.Language) (*ComplexityAnalysis, *Reward, error) {
	if strings.TrimSpace(code) == "" {
		return nil, nil, domain.ErrEmptyCode
	}
	prompt := fmt.Sprintf(`Analyze the time and space complexity of this %s code.
%s
Reply with JSON only:
{"timeComplexity": "O(n)", "spaceComplexity": "O(1)", "explanation": "...", "optimizationTips": ["..."], "rating": "Optimal|Sub-optimal|Inefficient"}`,
		language, fence(language, code))

	var analysis ComplexityAnalysis
	if err := uc.client.GenerateJSON(ctx, prompt, &analysis, tutor.WithTemperature(0.3), tutor.WithMaxTokens(1024)); err != nil {
		return nil, nil, err
	}
	if analysis.OptimizationTips == nil {
		analysis.OptimizationTips = []string{}
	}

	reward, err := uc.progress.Grant(context.WithoutCancel(ctx), userID, domain.ComplexityXP, domain.SkillOptimization, 2)
	if err != nil {
		return nil, nil, err
	}
	return &analysis, &reward, nil
}

// Chat: наставник. Готовые решения на прямую просьбу не выдаём.
func (uc *TutorUseCase) Chat(ctx context.Context, in ChatInput) (string, error) {
	history := in.History
	if len(history) > chatHistoryWindow {
		history = history[len(history)-chatHistoryWindow:]
	}
	topic := in.Topic
	if topic == "" {
		topic = "General Programming"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Current topic: %s\n", topic)
	if strings.TrimSpace(in.Code) != "" {
		fmt.Fprintf(&b, "Student's current code:\n%s\n", fence(in.Language, in.Code))
	}
	if isRepeated(history, in.Message) {
		b.WriteString("The student is asking this again. Try a different, more concrete explanation with a small snippet.\n")
	}
	b.WriteString("Student: " + in.Message)

	system := "You are a patient programming mentor. Explain concepts with small examples (2-3 lines), " +
		"break problems into steps and never write the student's whole program."
	text, err := uc.client.Chat(ctx, b.String(), history,
		tutor.WithSystem(system), tutor.WithTemperature(0.8), tutor.WithMaxTokens(2048))
	if err != nil {
		return "", err
	}
	if solutionRequest.MatchString(in.Message) && strings.Contains(text, "```") {
		return solutionRefusal, nil
	}
	return text, nil
}

func (uc *TutorUseCase) Hint(ctx context.Context, code, question string, language domain.Language) (string, error) {
	prompt := fmt.Sprintf(`Give a brief hint (1-2 sentences) for this coding question. Do not solve it.
Language: %s
Code so far:
%s
Question: %s`, language, fence(language, code), question)
	return uc.client.Chat(ctx, prompt, nil, tutor.WithTemperature(0.7), tutor.WithMaxTokens(256))
}

func isRepeated(history []tutor.Message, message string) bool {
	if len(history) < 2 {
		return false
	}
	prefix := strings.ToLower(message)
	if len(prefix) > 20 {
		prefix = prefix[:20]
	}
	for _, m := range history[len(history)-2:] {
		if m.Role == tutor.RoleUser && strings.Contains(strings.ToLower(m.Content), prefix) {
			return true
		}
	}
	return false
}

func fence(language domain.Language, code string) string {
	return "```" + string(language) + "\n" + code + "\n```"
}
