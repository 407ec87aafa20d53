// Package config loads readease settings from struct defaults, optional
// dotenv files and the process environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

const EnvPrefix = "READEASE_"

type Config struct {
	HTTP     HTTPConfig     `koanf:"http"`
	LLM      LLMConfig      `koanf:"llm"`
	Redis    RedisConfig    `koanf:"redis"`
	OCR      OCRConfig      `koanf:"ocr"`
	Pipeline PipelineConfig `koanf:"pipeline"`
	Log      LogConfig      `koanf:"log"`
}

type HTTPConfig struct {
	Port           string `koanf:"port" validate:"required"`
	MaxUploadBytes int64  `koanf:"max_upload_bytes" validate:"gt=0"`
}

// LLMConfig configures the optional remote model. With no API key and ADC
// disabled the pipeline runs local-only.
type LLMConfig struct {
	APIKey     string        `koanf:"api_key"`
	Model      string        `koanf:"model" validate:"required"`
	Endpoint   string        `koanf:"endpoint" validate:"omitempty,url"`
	UseADC     bool          `koanf:"use_adc"`
	Timeout    time.Duration `koanf:"timeout" validate:"gt=0"`
	MaxRetries int           `koanf:"max_retries" validate:"gte=0,lte=10"`
}

func (c LLMConfig) Enabled() bool {
	return strings.TrimSpace(c.APIKey) != "" || c.UseADC
}

// RedisConfig configures the model response cache. An empty URL disables it.
type RedisConfig struct {
	URL      string        `koanf:"url"`
	Password string        `koanf:"password"`
	DB       int           `koanf:"db" validate:"gte=0"`
	TTL      time.Duration `koanf:"ttl" validate:"gte=0"`
}

type OCRConfig struct {
	DefaultLang  string  `koanf:"default_lang" validate:"required"`
	Pdftoppm     string  `koanf:"pdftoppm" validate:"required"`
	Scale        float64 `koanf:"scale" validate:"gt=0"`
	MinTextLayer int     `koanf:"min_text_layer" validate:"gte=0"`
}

type PipelineConfig struct {
	MaxSentences      int `koanf:"max_sentences" validate:"gte=1"`
	CondenseThreshold int `koanf:"condense_threshold" validate:"gte=0"`
	DefaultLevel      int `koanf:"default_level" validate:"gte=1,lte=5"`
}

type LogConfig struct {
	Level       string `koanf:"level" validate:"oneof=debug info warn error"`
	Development bool   `koanf:"development"`
}

func Default() Config {
	return Config{
		HTTP: HTTPConfig{
			Port:           "8080",
			MaxUploadBytes: 25 << 20,
		},
		LLM: LLMConfig{
			Model:      "gemini-2.0-flash",
			Timeout:    30 * time.Second,
			MaxRetries: 2,
		},
		Redis: RedisConfig{
			TTL: 24 * time.Hour,
		},
		OCR: OCRConfig{
			DefaultLang:  "eng",
			Pdftoppm:     "pdftoppm",
			Scale:        1.6,
			MinTextLayer: 30,
		},
		Pipeline: PipelineConfig{
			MaxSentences:      8,
			CondenseThreshold: 420,
			DefaultLevel:      3,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// envKeys maps environment variables (after the prefix) to config paths.
// Explicit entries keep keys containing underscores unambiguous.
var envKeys = map[string]string{
	"PORT":                        "http.port",
	"HTTP_PORT":                   "http.port",
	"HTTP_MAX_UPLOAD_BYTES":       "http.max_upload_bytes",
	"LLM_API_KEY":                 "llm.api_key",
	"LLM_MODEL":                   "llm.model",
	"LLM_ENDPOINT":                "llm.endpoint",
	"LLM_USE_ADC":                 "llm.use_adc",
	"LLM_TIMEOUT":                 "llm.timeout",
	"LLM_MAX_RETRIES":             "llm.max_retries",
	"REDIS_URL":                   "redis.url",
	"REDIS_PASSWORD":              "redis.password",
	"REDIS_DB":                    "redis.db",
	"REDIS_TTL":                   "redis.ttl",
	"OCR_DEFAULT_LANG":            "ocr.default_lang",
	"OCR_PDFTOPPM":                "ocr.pdftoppm",
	"OCR_SCALE":                   "ocr.scale",
	"OCR_MIN_TEXT_LAYER":          "ocr.min_text_layer",
	"PIPELINE_MAX_SENTENCES":      "pipeline.max_sentences",
	"PIPELINE_CONDENSE_THRESHOLD": "pipeline.condense_threshold",
	"PIPELINE_DEFAULT_LEVEL":      "pipeline.default_level",
	"LOG_LEVEL":                   "log.level",
	"LOG_DEVELOPMENT":             "log.development",
}

// apiKeyAliases are read when READEASE_LLM_API_KEY is unset.
var apiKeyAliases = []string{"GEMINI_API_KEY", "VITE_GEMINI_API_KEY"}

// DotenvFiles are loaded, when present, before the environment is read.
// Variables already set in the process environment win.
var DotenvFiles = []string{".env.local", ".env"}

// Load reads defaults, dotenv files and the environment, then validates.
func Load() (Config, error) {
	for _, f := range DotenvFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("load %s: %w", f, err)
		}
	}

	k := koanf.New(".")
	if err := k.Load(structs.Provider(Default(), "koanf"), nil); err != nil {
		return Config{}, fmt.Errorf("load defaults: %w", err)
	}

	err := k.Load(env.Provider(".", env.Opt{
		Prefix: EnvPrefix,
		TransformFunc: func(key, value string) (string, any) {
			path, ok := envKeys[strings.TrimPrefix(key, EnvPrefix)]
			if !ok {
				return "", nil
			}
			return path, value
		},
	}), nil)
	if err != nil {
		return Config{}, fmt.Errorf("load environment: %w", err)
	}

	if !k.Exists("llm.api_key") || k.String("llm.api_key") == "" {
		for _, alias := range apiKeyAliases {
			if v := os.Getenv(alias); v != "" {
				if err := k.Set("llm.api_key", v); err != nil {
					return Config{}, fmt.Errorf("set api key: %w", err)
				}
				break
			}
		}
	}

	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

var validate = validator.New()

func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}
