package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"reflect"
	"strconv"
	"strings"
	"sync"
	"unicode"

	"stats-loader/internal/logger"
	"stats-loader/internal/utils"

	"github.com/joho/godotenv"
)

type Config struct {
	AppPort                string
	AppName                string
	ProductsBaseURL        string
	ProductsPath           string
	LoaderTimeoutMs        int64
	TraceStdout            bool
	RemoteLogHttpURI       string
	RemoteTraceRpcURI      string
	RemoteProfilingHttpURI string
}

// SafeConfig is the subset of Config that is safe to log.
type SafeConfig struct {
	AppPort                string `json:"app_port"`
	AppName                string `json:"app_name"`
	ProductsBaseURL        string `json:"products_base_url"`
	ProductsPath           string `json:"products_path"`
	LoaderTimeoutMs        int64  `json:"loader_timeout_ms"`
	TraceStdout            bool   `json:"trace_stdout"`
	RemoteLogHttpURI       string `json:"remote_log_http_uri"`
	RemoteTraceRpcURI      string `json:"remote_trace_rpc_uri"`
	RemoteProfilingHttpURI string `json:"remote_profiling_http_uri"`
}

var ErrMissingEnv = errors.New("missing required environment variables")

func toSnake(s string) string {
	var out strings.Builder
	for i, r := range s {
		if unicode.IsUpper(r) {
			if i > 0 && s[i-1] != '_' {
				out.WriteRune('_')
			}
			out.WriteRune(unicode.ToLower(r))
		} else {
			out.WriteRune(r)
		}
	}
	return out.String()
}

// StructAttrs("data", cfg) ➜ []slog.Attr{ slog.String("data.app_port", "8080"), ... }
func StructAttrs(prefix string, s any) []slog.Attr {
	v := reflect.ValueOf(s)
	if v.Kind() == reflect.Pointer {
		v = v.Elem()
	}
	t := v.Type()

	attrs := make([]slog.Attr, 0, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		key := prefix + "." + jsonKey(f)

		switch v.Field(i).Kind() {
		case reflect.String:
			attrs = append(attrs, slog.String(key, v.Field(i).String()))
		case reflect.Int, reflect.Int64, reflect.Int32:
			attrs = append(attrs, slog.Int64(key, v.Field(i).Int()))
		case reflect.Bool:
			attrs = append(attrs, slog.Bool(key, v.Field(i).Bool()))
		default:
			attrs = append(attrs, slog.Any(key, v.Field(i).Interface()))
		}
	}
	return attrs
}

// jsonKey uses the `json:"..."` tag when present, camelCase->snake otherwise.
func jsonKey(f reflect.StructField) string {
	if tag := f.Tag.Get("json"); tag != "" {
		return strings.Split(tag, ",")[0]
	}
	return toSnake(f.Name)
}

func (c *Config) ToSafeConfig() SafeConfig {
	return SafeConfig{
		AppPort:                c.AppPort,
		AppName:                c.AppName,
		ProductsBaseURL:        c.ProductsBaseURL,
		ProductsPath:           c.ProductsPath,
		LoaderTimeoutMs:        c.LoaderTimeoutMs,
		TraceStdout:            c.TraceStdout,
		RemoteLogHttpURI:       c.RemoteLogHttpURI,
		RemoteTraceRpcURI:      c.RemoteTraceRpcURI,
		RemoteProfilingHttpURI: c.RemoteProfilingHttpURI,
	}
}

var log = logger.Instance()
var (
	configInstance *Config
	configOnce     sync.Once
)

func parseInt64(varName string, fallback int64) (int64, error) {
	val := os.Getenv(varName)
	if val == "" {
		return fallback, nil
	}

	num, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return fallback, fmt.Errorf("invalid %s: %w", varName, err)
	}
	if num < 0 {
		return fallback, fmt.Errorf("invalid %s: must not be negative", varName)
	}
	return num, nil
}

func parseBool(varName string) (bool, error) {
	val := os.Getenv(varName)
	if val == "" {
		return false, nil
	}
	b, err := strconv.ParseBool(val)
	if err != nil {
		return false, fmt.Errorf("invalid %s: %w", varName, err)
	}
	return b, nil
}

// Load reads the process environment (after an optional .env file) into a Config.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Warn("No .env file found, using system environment variables")
	}

	cfg := &Config{
		AppPort:                utils.EnvOr("APP_PORT", "8080"),
		AppName:                utils.EnvOr("APP_NAME", "stats-loader"),
		ProductsBaseURL:        os.Getenv("PRODUCTS_BASE_URL"),
		ProductsPath:           utils.EnvOr("PRODUCTS_PATH", "/products"),
		RemoteLogHttpURI:       os.Getenv("REMOTE_LOG_HTTP_URI"),
		RemoteTraceRpcURI:      os.Getenv("REMOTE_TRACE_RPC_URI"),
		RemoteProfilingHttpURI: os.Getenv("REMOTE_PROFILING_HTTP_URI"),
	}

	var err error
	if cfg.LoaderTimeoutMs, err = parseInt64("LOADER_TIMEOUT_MS", 0); err != nil {
		return nil, err
	}
	if cfg.TraceStdout, err = parseBool("TRACE_STDOUT"); err != nil {
		return nil, err
	}

	if cfg.RemoteLogHttpURI == "" {
		log.Warn("Missing REMOTE_LOG_HTTP_URI will skip sending log")
	}
	if cfg.RemoteTraceRpcURI == "" {
		log.Warn("Missing REMOTE_TRACE_RPC_URI will skip sending trace")
	}
	if cfg.RemoteProfilingHttpURI == "" {
		log.Warn("Missing REMOTE_PROFILING_HTTP_URI will skip sending profiling")
	}

	var missing []string
	if cfg.ProductsBaseURL == "" {
		missing = append(missing, "PRODUCTS_BASE_URL")
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrMissingEnv, strings.Join(missing, ", "))
	}

	return cfg, nil
}

// Instance loads the configuration once and exits the process when it is invalid.
func Instance() *Config {
	configOnce.Do(func() {
		cfg, err := Load()
		if err != nil {
			log.Error("Invalid configuration", slog.String("error", err.Error()))
			os.Exit(1)
		}
		configInstance = cfg

		attrs := StructAttrs("data", configInstance.ToSafeConfig())
		anyAttrs := make([]any, len(attrs))
		for i, a := range attrs {
			anyAttrs[i] = a
		}
		log.Info("Configuration loaded successfully", anyAttrs...)
	})

	return configInstance
}
