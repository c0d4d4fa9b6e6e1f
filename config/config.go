package config

import (
	"errors"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Port     string `mapstructure:"PORT"`
	GRPCPort string `mapstructure:"GRPC_PORT"`

	DBDriver   string `mapstructure:"DB_DRIVER"`
	DBHost     string `mapstructure:"DB_HOST"`
	DBPort     string `mapstructure:"DB_PORT"`
	DBUser     string `mapstructure:"DB_USER"`
	DBPassword string `mapstructure:"DB_PASSWORD"`
	DBName     string `mapstructure:"DB_NAME"`
	DBPath     string `mapstructure:"DB_PATH"`

	RedisAddr       string        `mapstructure:"REDIS_ADDR"`
	RoadmapCacheTTL time.Duration `mapstructure:"ROADMAP_CACHE_TTL"`

	AccessSecret   string   `mapstructure:"ACCESS_SECRET"`
	RefreshSecret  string   `mapstructure:"REFRESH_SECRET"`
	AllowedOrigins []string `mapstructure:"ALLOWED_ORIGINS"`
	CookieDomain   string   `mapstructure:"COOKIE_DOMAIN"`
	CookieSecure   bool     `mapstructure:"COOKIE_SECURE"`

	PistonURL        string        `mapstructure:"PISTON_URL"`
	PistonRPS        float64       `mapstructure:"PISTON_RPS"`
	ExecutionTimeout time.Duration `mapstructure:"EXECUTION_TIMEOUT"`
	CaseTimeout      time.Duration `mapstructure:"CASE_TIMEOUT"`

	GroqAPIKey  string `mapstructure:"GROQ_API_KEY"`
	GroqBaseURL string `mapstructure:"GROQ_BASE_URL"`
	GroqModel   string `mapstructure:"GROQ_MODEL"`

	LogMode         string  `mapstructure:"LOG_MODE"`
	OtelEnabled     bool    `mapstructure:"OTEL_ENABLED"`
	OtelSampleRatio float64 `mapstructure:"OTEL_SAMPLE_RATIO"`
}

var defaults = map[string]interface{}{
	"PORT":              ":8080",
	"GRPC_PORT":         ":50051",
	"DB_DRIVER":         "postgres",
	"DB_HOST":           "localhost",
	"DB_PORT":           "5432",
	"DB_NAME":           "codenest",
	"DB_PATH":           "codenest.db",
	"REDIS_ADDR":        "localhost:6379",
	"ROADMAP_CACHE_TTL": "10m",
	"ALLOWED_ORIGINS":   "http://localhost:5173",
	"COOKIE_SECURE":     false,
	"PISTON_URL":        "https://emkc.org/api/v2/piston",
	"PISTON_RPS":        5.0,
	"EXECUTION_TIMEOUT": "20s",
	"CASE_TIMEOUT":      "15s",
	"GROQ_BASE_URL":     "https://api.groq.com/openai/v1",
	"GROQ_MODEL":        "llama-3.3-70b-versatile",
	"LOG_MODE":          "development",
	"OTEL_ENABLED":      false,
	"OTEL_SAMPLE_RATIO": 1.0,
}

// Без этих ключей сервис не поднимаем
var required = []string{"ACCESS_SECRET", "REFRESH_SECRET"}

func LoadConfig(path string) (config Config, err error) {
	v := viper.New()
	v.AddConfigPath(path)
	v.SetConfigName("app")
	v.SetConfigType("env")

	v.AutomaticEnv()

	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	// Явно биндим переменные, чтобы Viper их видел без файла
	for _, key := range append(required, "DB_USER", "DB_PASSWORD", "COOKIE_DOMAIN", "GROQ_API_KEY") {
		_ = v.BindEnv(key)
	}

	// Файла может не быть, тогда работаем на ENV
	if err = v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return
		}
		err = nil
	}

	if err = v.Unmarshal(&config); err != nil {
		return
	}
	config.AllowedOrigins = splitOrigins(config.AllowedOrigins)

	for _, key := range required {
		if strings.TrimSpace(v.GetString(key)) == "" {
			err = errors.New("config: " + key + " is required")
			return
		}
	}
	return
}

// ALLOWED_ORIGINS приходит строкой через запятую
func splitOrigins(in []string) []string {
	out := make([]string, 0, len(in))
	for _, item := range in {
		for _, o := range strings.Split(item, ",") {
			if o = strings.TrimSpace(o); o != "" {
				out = append(out, o)
			}
		}
	}
	return out
}
