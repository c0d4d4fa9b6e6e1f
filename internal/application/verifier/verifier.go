package verifier

import (
	"context"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"codenest/internal/domain"
	"codenest/internal/observability"
	"codenest/internal/platform/logger"
)

const DefaultCaseTimeout = 15 * time.Second

// Executor: внешняя песочница (Piston)
type Executor interface {
	Execute(ctx context.Context, req domain.ExecutionRequest) (*domain.ExecutionResult, error)
}

type CaseResult struct {
	CaseIndex      int    `json:"caseIndex"`
	Input          string `json:"input"`
	ExpectedOutput string `json:"expected"`
	ActualOutput   string `json:"actual"`
	Passed         bool   `json:"passed"`
	Description    string `json:"description,omitempty"`
}

type SuiteResult struct {
	Results   []CaseResult `json:"results"`
	AllPassed bool         `json:"allPassed"`
}

func (r *SuiteResult) PassedCount() int {
	n := 0
	for _, c := range r.Results {
		if c.Passed {
			n++
		}
	}
	return n
}

type Verifier struct {
	executor    Executor
	caseTimeout time.Duration
	log         *logger.Logger
}

func New(executor Executor, caseTimeout time.Duration, log *logger.Logger) *Verifier {
	if caseTimeout <= 0 {
		caseTimeout = DefaultCaseTimeout
	}
	return &Verifier{executor: executor, caseTimeout: caseTimeout, log: log}
}

// RunTestSuite прогоняет код по всем тестам строго по очереди. Падение одного теста
// не останавливает остальные. Прогресс пользователя здесь не меняется.
func (v *Verifier) RunTestSuite(ctx context.Context, code string, language domain.Language, cases []domain.TestCase) (*SuiteResult, error) {
	if strings.TrimSpace(code) == "" {
		return nil, domain.ErrEmptyCode
	}
	if _, err := domain.ParseLanguage(string(language)); err != nil {
		return nil, err
	}
	if len(cases) == 0 {
		return nil, domain.ErrNoTestCases
	}

	ctx, span := otel.Tracer("codenest/verifier").Start(ctx, "verifier.RunTestSuite")
	defer span.End()
	span.SetAttributes(
		attribute.String("language", string(language)),
		attribute.Int("cases", len(cases)),
	)

	result := &SuiteResult{Results: make([]CaseResult, 0, len(cases)), AllPassed: true}
	for i, tc := range cases {
		// Клиент ушёл: новые запуски не начинаем, результат никому не нужен
		if err := ctx.Err(); err != nil {
			span.SetStatus(codes.Error, "canceled")
			return nil, err
		}

		cr := v.runCase(ctx, i+1, code, language, tc)
		if !cr.Passed {
			result.AllPassed = false
		}
		result.Results = append(result.Results, cr)
	}
	if err := ctx.Err(); err != nil {
		span.SetStatus(codes.Error, "canceled")
		return nil, err
	}

	span.SetAttributes(attribute.Bool("all_passed", result.AllPassed))
	observability.ObserveTestSuite(result.AllPassed)
	v.log.Debug("test suite finished",
		"language", language,
		"cases", len(cases),
		"passed", result.PassedCount(),
		"all_passed", result.AllPassed,
	)
	return result, nil
}

func (v *Verifier) runCase(ctx context.Context, index int, code string, language domain.Language, tc domain.TestCase) CaseResult {
	cr := CaseResult{
		CaseIndex:      index,
		Input:          tc.Input,
		ExpectedOutput: strings.TrimSpace(tc.ExpectedOutput),
		Description:    tc.Description,
	}

	// Уже отправленный запуск доводим до конца даже при отмене запроса,
	// чтобы не бросать ресурсы песочницы
	callCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), v.caseTimeout)
	defer cancel()

	res, err := v.executor.Execute(callCtx, domain.ExecutionRequest{
		Code:     code,
		Language: language,
		Stdin:    tc.Input,
	})
	if err != nil {
		cr.ActualOutput = err.Error()
		observability.ObserveTestCase("error")
		v.log.Warn("test case execution failed", "case", index, "error", err)
		return cr
	}

	if res.Success() {
		cr.ActualOutput = strings.TrimSpace(res.Stdout)
		cr.Passed = Matches(res.Stdout, tc.ExpectedOutput)
	} else {
		cr.ActualOutput = res.Output()
	}

	if cr.Passed {
		observability.ObserveTestCase("passed")
	} else {
		observability.ObserveTestCase("failed")
	}
	return cr
}

// Matches: точное сравнение после обрезки пробелов по краям, без допусков для чисел
func Matches(actual, expected string) bool {
	return strings.TrimSpace(actual) == strings.TrimSpace(expected)
}
