package executor

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"codenest/internal/domain"
	"codenest/internal/observability"
	"codenest/internal/platform/logger"
)

const (
	DefaultBaseURL = "https://emkc.org/api/v2/piston"

	compileTimeoutMs = 10000
	runTimeoutMs     = 3000
)

// Runtime: язык и версия в терминах Piston
type Runtime struct {
	ID       domain.Language `json:"id"`
	Name     string          `json:"name"`
	Language string          `json:"language"`
	Version  string          `json:"version"`
}

var runtimes = map[domain.Language]Runtime{
	domain.LanguageJava:       {ID: domain.LanguageJava, Name: "Java", Language: "java", Version: "15.0.2"},
	domain.LanguagePython:     {ID: domain.LanguagePython, Name: "Python", Language: "python", Version: "3.10.0"},
	domain.LanguageJavaScript: {ID: domain.LanguageJavaScript, Name: "Javascript", Language: "javascript", Version: "18.15.0"},
	domain.LanguageCpp:        {ID: domain.LanguageCpp, Name: "Cpp", Language: "c++", Version: "10.2.0"},
	domain.LanguageC:          {ID: domain.LanguageC, Name: "C", Language: "c", Version: "10.2.0"},
}

// Runtimes в порядке domain.SupportedLanguages
func Runtimes() []Runtime {
	out := make([]Runtime, 0, len(domain.SupportedLanguages))
	for _, l := range domain.SupportedLanguages {
		out = append(out, runtimes[l])
	}
	return out
}

type Config struct {
	BaseURL string
	// Запросов в секунду к публичному API; <= 0 без ограничения
	RPS     float64
	Timeout time.Duration
}

type PistonClient struct {
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
	log     *logger.Logger
}

func NewPistonClient(cfg Config, log *logger.Logger) *PistonClient {
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	limiter := rate.NewLimiter(rate.Inf, 1)
	if cfg.RPS > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RPS), 1)
	}
	return &PistonClient{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
		limiter: limiter,
		log:     log,
	}
}

type pistonFile struct {
	Name    string `json:"name"`
	Content string `json:"content"`
}

type executeRequest struct {
	Language           string       `json:"language"`
	Version            string       `json:"version"`
	Files              []pistonFile `json:"files"`
	Stdin              string       `json:"stdin"`
	Args               []string     `json:"args"`
	CompileTimeout     int          `json:"compile_timeout"`
	RunTimeout         int          `json:"run_timeout"`
	CompileMemoryLimit int          `json:"compile_memory_limit"`
	RunMemoryLimit     int          `json:"run_memory_limit"`
}

type stage struct {
	Stdout string  `json:"stdout"`
	Stderr string  `json:"stderr"`
	Output string  `json:"output"`
	Code   *int    `json:"code"`
	Signal *string `json:"signal"`
	Time   float64 `json:"time"`
	Memory int64   `json:"memory"`
}

type executeResponse struct {
	Language string `json:"language"`
	Version  string `json:"version"`
	Run      *stage `json:"run"`
	Compile  *stage `json:"compile"`
	Message  string `json:"message"`
}

func fileName(l domain.Language) string {
	if l == domain.LanguageJava {
		return "Main.java"
	}
	return "main." + string(l)
}

func (c *PistonClient) Execute(ctx context.Context, req domain.ExecutionRequest) (*domain.ExecutionResult, error) {
	rt, ok := runtimes[req.Language]
	if !ok {
		return nil, domain.ErrUnsupportedLanguage
	}

	if err := c.limiter.Wait(ctx); err != nil {
		if ctx.Err() == nil {
			// очередь длиннее оставшегося дедлайна
			return nil, fmt.Errorf("%w: %v", domain.ErrExecutionTimeout, err)
		}
		return nil, c.transportError(ctx, err)
	}

	body, err := json.Marshal(executeRequest{
		Language:           rt.Language,
		Version:            rt.Version,
		Files:              []pistonFile{{Name: fileName(req.Language), Content: req.Code}},
		Stdin:              req.Stdin,
		Args:               []string{},
		CompileTimeout:     compileTimeoutMs,
		RunTimeout:         runTimeoutMs,
		CompileMemoryLimit: -1,
		RunMemoryLimit:     -1,
	})
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/execute", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.http.Do(httpReq)
	if err != nil {
		observability.ObserveExecution(string(req.Language), "unavailable", time.Since(start))
		return nil, c.transportError(ctx, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, c.transportError(ctx, err)
	}

	var out executeResponse
	if resp.StatusCode != http.StatusOK {
		_ = json.Unmarshal(raw, &out)
		observability.ObserveExecution(string(req.Language), "unavailable", time.Since(start))
		c.log.Warn("piston rejected request", "status", resp.StatusCode, "message", out.Message)
		return nil, fmt.Errorf("%w: status %d: %s", domain.ErrExecutionUnavailable, resp.StatusCode, out.Message)
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("%w: decode response: %v", domain.ErrExecutionUnavailable, err)
	}

	result := toResult(&out)
	observability.ObserveExecution(string(req.Language), string(result.Kind), time.Since(start))
	return result, nil
}

func toResult(out *executeResponse) *domain.ExecutionResult {
	res := &domain.ExecutionResult{Kind: domain.ErrorKindNone}

	if out.Compile != nil {
		if hasFailed(out.Compile) {
			res.Kind = domain.ErrorKindCompile
			res.CompileError = firstNonEmpty(out.Compile.Stderr, out.Compile.Output)
			res.ExitCode = exitCode(out.Compile)
			res.TimeMs = int64(out.Compile.Time + 0.5)
			return res
		}
		res.TimeMs = int64(out.Compile.Time + 0.5)
	}

	run := out.Run
	if run == nil {
		return res
	}
	res.Stdout = run.Stdout
	res.Stderr = run.Stderr
	res.ExitCode = exitCode(run)
	res.MemoryBytes = run.Memory
	res.TimeMs = int64(run.Time + 0.5)

	switch {
	case run.Signal != nil && *run.Signal == "SIGKILL":
		// Piston убивает процесс по run_timeout
		res.Kind = domain.ErrorKindTimeout
	case hasFailed(run):
		res.Kind = domain.ErrorKindRuntime
		if strings.TrimSpace(res.Stderr) == "" {
			res.Stderr = fmt.Sprintf("process exited with code %d", res.ExitCode)
		}
	}
	return res
}

func hasFailed(s *stage) bool {
	if s.Code != nil && *s.Code != 0 {
		return true
	}
	return strings.TrimSpace(s.Stderr) != ""
}

func exitCode(s *stage) int {
	if s.Code == nil {
		return 0
	}
	return *s.Code
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

func (c *PistonClient) transportError(ctx context.Context, err error) error {
	if errors.Is(ctx.Err(), context.Canceled) {
		return ctx.Err()
	}
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return fmt.Errorf("%w: %v", domain.ErrExecutionTimeout, err)
	}
	c.log.Warn("piston call failed", "error", err)
	return fmt.Errorf("%w: %v", domain.ErrExecutionUnavailable, err)
}
