package domain

import (
	"strings"
)

type Language string

const (
	LanguagePython     Language = "python"
	LanguageJava       Language = "java"
	LanguageJavaScript Language = "javascript"
	LanguageCpp        Language = "cpp"
	LanguageC          Language = "c"
)

var SupportedLanguages = []Language{
	LanguagePython,
	LanguageJava,
	LanguageJavaScript,
	LanguageCpp,
	LanguageC,
}

func ParseLanguage(s string) (Language, error) {
	l := Language(strings.ToLower(strings.TrimSpace(s)))
	for _, supported := range SupportedLanguages {
		if l == supported {
			return l, nil
		}
	}
	return "", ErrUnsupportedLanguage
}

// ErrorKind приходит структурно из песочницы, а не угадывается по тексту вывода
type ErrorKind string

const (
	ErrorKindNone    ErrorKind = "none"
	ErrorKindCompile ErrorKind = "compile"
	ErrorKindRuntime ErrorKind = "runtime"
	ErrorKindTimeout ErrorKind = "timeout"
)

const noOutputMessage = "Program executed successfully with no output."

type ExecutionRequest struct {
	Code     string
	Language Language
	Stdin    string
}

type ExecutionResult struct {
	Stdout       string
	Stderr       string
	CompileError string
	ExitCode     int
	Kind         ErrorKind
	TimeMs       int64
	MemoryBytes  int64
}

func (r *ExecutionResult) Success() bool {
	return r.Kind == "" || r.Kind == ErrorKindNone
}

// ErrorMessage: текст ошибки для пользователя, пусто при успешном запуске
func (r *ExecutionResult) ErrorMessage() string {
	switch r.Kind {
	case ErrorKindCompile:
		return r.CompileError
	case ErrorKindRuntime:
		return r.Stderr
	case ErrorKindTimeout:
		if r.Stderr != "" {
			return r.Stderr
		}
		return "time limit exceeded"
	}
	return ""
}

// Output: то, что показываем в консоли
func (r *ExecutionResult) Output() string {
	var out string
	switch r.Kind {
	case ErrorKindCompile:
		out = "Compilation Error:\n" + r.CompileError
	case ErrorKindRuntime:
		out = "Runtime Error:\n" + r.Stderr
	case ErrorKindTimeout:
		out = "Time Limit Exceeded:\n" + r.ErrorMessage()
	default:
		out = r.Stdout
		if strings.TrimSpace(out) == "" {
			out = noOutputMessage
		}
	}
	return strings.TrimSpace(out)
}

// MemoryMB: если песочница не вернула память, оцениваем по размеру кода
func (r *ExecutionResult) MemoryMB(code string) float64 {
	bytes := r.MemoryBytes
	if bytes <= 0 {
		bytes = int64(len(code))
	}
	mb := float64(bytes) / (1024 * 1024)
	return float64(int64(mb*100+0.5)) / 100
}
