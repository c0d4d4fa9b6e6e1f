package verifier

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"codenest/internal/domain"
	"codenest/internal/platform/logger"
)

// scriptedExecutor отвечает по stdin заранее заданными результатами
type scriptedExecutor struct {
	mu      sync.Mutex
	results map[string]*domain.ExecutionResult
	errs    map[string]error
	calls   []domain.ExecutionRequest
	onCall  func(n int)
}

func (e *scriptedExecutor) Execute(ctx context.Context, req domain.ExecutionRequest) (*domain.ExecutionResult, error) {
	e.mu.Lock()
	e.calls = append(e.calls, req)
	n := len(e.calls)
	e.mu.Unlock()
	if e.onCall != nil {
		e.onCall(n)
	}
	if err, ok := e.errs[req.Stdin]; ok {
		return nil, err
	}
	if res, ok := e.results[req.Stdin]; ok {
		return res, nil
	}
	return &domain.ExecutionResult{Kind: domain.ErrorKindNone}, nil
}

func stdout(s string) *domain.ExecutionResult {
	return &domain.ExecutionResult{Stdout: s, Kind: domain.ErrorKindNone}
}

func ageCases() []domain.TestCase {
	return []domain.TestCase{
		{Input: "1", ExpectedOutput: "365"},
		{Input: "5", ExpectedOutput: "1825"},
		{Input: "10", ExpectedOutput: "3650\n"},
	}
}

func newVerifier(exec Executor) *Verifier {
	return New(exec, time.Second, logger.Nop())
}

func TestRunTestSuite_AllPass(t *testing.T) {
	exec := &scriptedExecutor{results: map[string]*domain.ExecutionResult{
		"1":  stdout("365\n"),
		"5":  stdout("1825"),
		"10": stdout("  3650  "),
	}}

	res, err := newVerifier(exec).RunTestSuite(context.Background(), "print(x*365)", domain.LanguagePython, ageCases())
	require.NoError(t, err)

	assert.True(t, res.AllPassed)
	require.Len(t, res.Results, 3)
	for i, r := range res.Results {
		assert.Equal(t, i+1, r.CaseIndex)
		assert.True(t, r.Passed)
	}
	assert.Equal(t, "3650", res.Results[2].ExpectedOutput)
	assert.Equal(t, 3, res.PassedCount())
}

func TestRunTestSuite_NoShortCircuit(t *testing.T) {
	exec := &scriptedExecutor{results: map[string]*domain.ExecutionResult{
		"1":  stdout("364"),
		"5":  stdout("1825"),
		"10": stdout("3650"),
	}}

	res, err := newVerifier(exec).RunTestSuite(context.Background(), "code", domain.LanguagePython, ageCases())
	require.NoError(t, err)

	assert.False(t, res.AllPassed)
	require.Len(t, res.Results, 3)
	assert.False(t, res.Results[0].Passed)
	assert.True(t, res.Results[1].Passed)
	assert.True(t, res.Results[2].Passed)
	assert.Len(t, exec.calls, 3)
}

func TestRunTestSuite_RunsSequentiallyInOrder(t *testing.T) {
	exec := &scriptedExecutor{}

	_, err := newVerifier(exec).RunTestSuite(context.Background(), "code", domain.LanguageJava, ageCases())
	require.NoError(t, err)

	require.Len(t, exec.calls, 3)
	assert.Equal(t, "1", exec.calls[0].Stdin)
	assert.Equal(t, "5", exec.calls[1].Stdin)
	assert.Equal(t, "10", exec.calls[2].Stdin)
	assert.Equal(t, domain.LanguageJava, exec.calls[0].Language)
}

func TestRunTestSuite_CollaboratorFailureFailsCase(t *testing.T) {
	exec := &scriptedExecutor{
		results: map[string]*domain.ExecutionResult{"1": stdout("365"), "10": stdout("3650")},
		errs:    map[string]error{"5": fmt.Errorf("piston: %w", domain.ErrExecutionUnavailable)},
	}

	res, err := newVerifier(exec).RunTestSuite(context.Background(), "code", domain.LanguagePython, ageCases())
	require.NoError(t, err)

	assert.False(t, res.AllPassed)
	assert.False(t, res.Results[1].Passed)
	assert.Contains(t, res.Results[1].ActualOutput, "execution service unavailable")
	assert.True(t, res.Results[2].Passed, "later cases still run")
}

func TestRunTestSuite_RuntimeErrorFailsCase(t *testing.T) {
	exec := &scriptedExecutor{results: map[string]*domain.ExecutionResult{
		"1": {Stdout: "365", Stderr: "Traceback", Kind: domain.ErrorKindRuntime},
	}}

	res, err := newVerifier(exec).RunTestSuite(context.Background(), "code", domain.LanguagePython, ageCases()[:1])
	require.NoError(t, err)

	assert.False(t, res.Results[0].Passed)
	assert.Equal(t, "Runtime Error:\nTraceback", res.Results[0].ActualOutput)
}

func TestRunTestSuite_EmptyCodeFailsFast(t *testing.T) {
	exec := &scriptedExecutor{}

	for _, code := range []string{"", "   ", "\n\t"} {
		_, err := newVerifier(exec).RunTestSuite(context.Background(), code, domain.LanguagePython, ageCases())
		assert.ErrorIs(t, err, domain.ErrEmptyCode)
	}
	assert.Empty(t, exec.calls)
}

func TestRunTestSuite_Validation(t *testing.T) {
	exec := &scriptedExecutor{}
	v := newVerifier(exec)

	_, err := v.RunTestSuite(context.Background(), "code", domain.Language("brainfuck"), ageCases())
	assert.ErrorIs(t, err, domain.ErrUnsupportedLanguage)

	_, err = v.RunTestSuite(context.Background(), "code", domain.LanguagePython, nil)
	assert.ErrorIs(t, err, domain.ErrNoTestCases)
	assert.Empty(t, exec.calls)
}

func TestRunTestSuite_Deterministic(t *testing.T) {
	exec := &scriptedExecutor{results: map[string]*domain.ExecutionResult{
		"1": stdout("365"), "5": stdout("0"), "10": stdout("3650"),
	}}
	v := newVerifier(exec)

	first, err := v.RunTestSuite(context.Background(), "code", domain.LanguagePython, ageCases())
	require.NoError(t, err)
	second, err := v.RunTestSuite(context.Background(), "code", domain.LanguagePython, ageCases())
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestRunTestSuite_CanceledStopsIssuingCases(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	exec := &scriptedExecutor{onCall: func(n int) {
		if n == 1 {
			cancel()
		}
	}}

	res, err := newVerifier(exec).RunTestSuite(ctx, "code", domain.LanguagePython, ageCases())

	assert.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, res)
	assert.Len(t, exec.calls, 1, "in-flight call completes, no new calls are issued")
}

func TestMatches(t *testing.T) {
	assert.True(t, Matches("5", "5\n"))
	assert.True(t, Matches("\n 5 \n", "5"))
	assert.False(t, Matches("5", "6"))
	assert.False(t, Matches("5.0", "5"), "no numeric tolerance")
	assert.False(t, Matches("a  b", "a b"), "inner whitespace is significant")
}
