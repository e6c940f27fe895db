// Пакет config — загрузка и валидация конфигурации Manual Console
// из переменных окружения.
package config

import (
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

// Версия приложения, задаётся при сборке через -ldflags.
var Version = "dev"

// DefaultHTMXURL — адрес htmx по умолчанию.
const DefaultHTMXURL = "https://unpkg.com/htmx.org@2.0.4/dist/htmx.min.js"

// Config содержит все параметры конфигурации Manual Console.
type Config struct {
	// --- Сервер ---

	// Порт HTTP-сервера
	Port int
	// Уровень логирования (debug, info, warn, error)
	LogLevel slog.Level
	// Формат логов (json, text)
	LogFormat string

	// --- Manuals API ---

	// Базовый URL сервиса руководств (без суффикса /api)
	APIBaseURL string
	// Путь к CA-сертификату для TLS-соединений с API (опционально)
	APICACertPath string
	// Таймаут одного запроса к API
	APITimeout time.Duration
	// Путь health endpoint API для мониторинга зависимостей
	APIHealthPath string

	// --- Сессии и рабочие пространства ---

	// Секрет шифрования session cookie (пустой — случайный ключ)
	SessionSecret string
	// Максимальное количество рабочих пространств в памяти
	WorkspaceCacheSize int
	// Время жизни неиспользуемого рабочего пространства
	WorkspaceTTL time.Duration

	// --- Загрузка файлов ---

	// Максимальное количество файлов в одной загрузке
	UploadMaxFiles int
	// Максимальный объём multipart-формы в памяти (байты)
	UploadMaxMemory int64
	// Максимальный размер тела запроса загрузки и суммарный объём
	// файлов в форме (байты)
	UploadMaxSize int64

	// --- Веб-интерфейс ---

	// URL скрипта htmx (CDN или путь на сервере)
	HTMXURL string

	// --- Мониторинг зависимостей ---

	// Имя группы в метриках topologymetrics
	DephealthGroup string
	// Интервал проверки зависимостей
	DephealthCheckInterval time.Duration

	// --- Graceful shutdown ---

	// Таймаут graceful shutdown HTTP-сервера
	ShutdownTimeout time.Duration
}

// Load загружает конфигурацию из переменных окружения, валидирует
// обязательные поля и возвращает Config или ошибку.
func Load() (*Config, error) {
	cfg := &Config{}
	var err error

	// --- Сервер ---

	// MC_PORT — порт HTTP-сервера (по умолчанию 8080)
	cfg.Port, err = getEnvInt("MC_PORT", 8080)
	if err != nil {
		return nil, fmt.Errorf("MC_PORT: %w", err)
	}
	if cfg.Port < 1024 || cfg.Port > 65535 {
		return nil, fmt.Errorf("MC_PORT: значение %d вне допустимого диапазона 1024-65535", cfg.Port)
	}

	// MC_LOG_LEVEL — уровень логирования (по умолчанию info)
	cfg.LogLevel, err = parseLogLevel(getEnvDefault("MC_LOG_LEVEL", "info"))
	if err != nil {
		return nil, fmt.Errorf("MC_LOG_LEVEL: %w", err)
	}

	// MC_LOG_FORMAT — формат логов (по умолчанию json)
	cfg.LogFormat = getEnvDefault("MC_LOG_FORMAT", "json")
	if cfg.LogFormat != "json" && cfg.LogFormat != "text" {
		return nil, fmt.Errorf("MC_LOG_FORMAT: недопустимое значение %q, допустимые: json, text", cfg.LogFormat)
	}

	// --- Manuals API ---

	// MC_API_BASE_URL — обязательный
	cfg.APIBaseURL, err = getEnvRequired("MC_API_BASE_URL")
	if err != nil {
		return nil, err
	}
	parsed, parseErr := url.Parse(cfg.APIBaseURL)
	if parseErr != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
		return nil, fmt.Errorf("MC_API_BASE_URL: некорректный URL %q", cfg.APIBaseURL)
	}
	// Убираем trailing slash
	cfg.APIBaseURL = strings.TrimRight(cfg.APIBaseURL, "/")

	// MC_API_CA_CERT_PATH — путь к CA-сертификату API (опционально)
	cfg.APICACertPath = getEnvDefault("MC_API_CA_CERT_PATH", "")

	// MC_API_TIMEOUT — таймаут запроса к API (по умолчанию 30s)
	cfg.APITimeout, err = getEnvDuration("MC_API_TIMEOUT", 30*time.Second)
	if err != nil {
		return nil, fmt.Errorf("MC_API_TIMEOUT: %w", err)
	}

	// MC_API_HEALTH_PATH — путь health endpoint API (по умолчанию /)
	cfg.APIHealthPath = getEnvDefault("MC_API_HEALTH_PATH", "/")
	if !strings.HasPrefix(cfg.APIHealthPath, "/") {
		return nil, fmt.Errorf("MC_API_HEALTH_PATH: путь должен начинаться с /: %q", cfg.APIHealthPath)
	}

	// --- Сессии и рабочие пространства ---

	// MC_SESSION_SECRET — секрет session cookie (опционально)
	cfg.SessionSecret = getEnvDefault("MC_SESSION_SECRET", "")

	// MC_WORKSPACE_CACHE_SIZE — размер кэша рабочих пространств (по умолчанию 1024)
	cfg.WorkspaceCacheSize, err = getEnvInt("MC_WORKSPACE_CACHE_SIZE", 1024)
	if err != nil {
		return nil, fmt.Errorf("MC_WORKSPACE_CACHE_SIZE: %w", err)
	}
	if cfg.WorkspaceCacheSize < 1 || cfg.WorkspaceCacheSize > 100000 {
		return nil, fmt.Errorf("MC_WORKSPACE_CACHE_SIZE: значение %d вне допустимого диапазона 1-100000", cfg.WorkspaceCacheSize)
	}

	// MC_WORKSPACE_TTL — время жизни рабочего пространства (по умолчанию 30m)
	cfg.WorkspaceTTL, err = getEnvDuration("MC_WORKSPACE_TTL", 30*time.Minute)
	if err != nil {
		return nil, fmt.Errorf("MC_WORKSPACE_TTL: %w", err)
	}

	// --- Загрузка файлов ---

	// MC_UPLOAD_MAX_FILES — максимум файлов в одной загрузке (по умолчанию 10)
	cfg.UploadMaxFiles, err = getEnvInt("MC_UPLOAD_MAX_FILES", 10)
	if err != nil {
		return nil, fmt.Errorf("MC_UPLOAD_MAX_FILES: %w", err)
	}
	if cfg.UploadMaxFiles < 1 || cfg.UploadMaxFiles > 100 {
		return nil, fmt.Errorf("MC_UPLOAD_MAX_FILES: значение %d вне допустимого диапазона 1-100", cfg.UploadMaxFiles)
	}

	// MC_UPLOAD_MAX_MEMORY — лимит multipart-формы в памяти (по умолчанию 32 MiB)
	maxMemory, err := getEnvInt("MC_UPLOAD_MAX_MEMORY", 32<<20)
	if err != nil {
		return nil, fmt.Errorf("MC_UPLOAD_MAX_MEMORY: %w", err)
	}
	if maxMemory < 1<<20 {
		return nil, fmt.Errorf("MC_UPLOAD_MAX_MEMORY: значение %d меньше 1 MiB", maxMemory)
	}
	cfg.UploadMaxMemory = int64(maxMemory)

	// MC_UPLOAD_MAX_SIZE — лимит размера загрузки (по умолчанию 100 MiB)
	maxSize, err := getEnvInt("MC_UPLOAD_MAX_SIZE", 100<<20)
	if err != nil {
		return nil, fmt.Errorf("MC_UPLOAD_MAX_SIZE: %w", err)
	}
	if maxSize < 1<<20 {
		return nil, fmt.Errorf("MC_UPLOAD_MAX_SIZE: значение %d меньше 1 MiB", maxSize)
	}
	cfg.UploadMaxSize = int64(maxSize)

	// --- Веб-интерфейс ---

	// MC_HTMX_URL — адрес скрипта htmx
	cfg.HTMXURL = getEnvDefault("MC_HTMX_URL", DefaultHTMXURL)
	if !strings.HasPrefix(cfg.HTMXURL, "/") {
		htmxURL, parseErr := url.Parse(cfg.HTMXURL)
		if parseErr != nil || (htmxURL.Scheme != "http" && htmxURL.Scheme != "https") || htmxURL.Host == "" {
			return nil, fmt.Errorf("MC_HTMX_URL: некорректный URL %q", cfg.HTMXURL)
		}
	}

	// --- Мониторинг зависимостей ---

	// MC_DEPHEALTH_GROUP — группа в метриках (по умолчанию manuals)
	cfg.DephealthGroup = getEnvDefault("MC_DEPHEALTH_GROUP", "manuals")

	// MC_DEPHEALTH_CHECK_INTERVAL — интервал проверки зависимостей (по умолчанию 15s)
	cfg.DephealthCheckInterval, err = getEnvDuration("MC_DEPHEALTH_CHECK_INTERVAL", 15*time.Second)
	if err != nil {
		return nil, fmt.Errorf("MC_DEPHEALTH_CHECK_INTERVAL: %w", err)
	}

	// --- Graceful shutdown ---

	// MC_SHUTDOWN_TIMEOUT — таймаут graceful shutdown (по умолчанию 5s)
	cfg.ShutdownTimeout, err = getEnvDuration("MC_SHUTDOWN_TIMEOUT", 5*time.Second)
	if err != nil {
		return nil, fmt.Errorf("MC_SHUTDOWN_TIMEOUT: %w", err)
	}

	return cfg, nil
}

// APIURL возвращает базовый адрес REST API (с суффиксом /api).
func (c *Config) APIURL() string {
	return c.APIBaseURL + "/api"
}

// SecureCookie сообщает, нужно ли выставлять Secure flag для cookie.
// true, если API работает по https.
func (c *Config) SecureCookie() bool {
	return strings.HasPrefix(c.APIBaseURL, "https")
}

// SetupLogger настраивает глобальный slog-логгер на основе конфигурации.
func SetupLogger(cfg *Config) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}

	var handler slog.Handler
	if cfg.LogFormat == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}

// --- Вспомогательные функции ---

// getEnvRequired возвращает значение переменной окружения или ошибку, если она не задана.
func getEnvRequired(key string) (string, error) {
	val := os.Getenv(key)
	if val == "" {
		return "", fmt.Errorf("%s: обязательная переменная окружения не задана", key)
	}
	return val, nil
}

// getEnvDefault возвращает значение переменной окружения или значение по умолчанию.
func getEnvDefault(key, defaultVal string) string {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	return val
}

// getEnvInt возвращает целочисленное значение переменной окружения или значение по умолчанию.
func getEnvInt(key string, defaultVal int) (int, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return 0, fmt.Errorf("некорректное целое число: %q", val)
	}
	return n, nil
}

// getEnvDuration возвращает time.Duration из переменной окружения или значение по умолчанию.
func getEnvDuration(key string, defaultVal time.Duration) (time.Duration, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return 0, fmt.Errorf("некорректная длительность: %q (используйте формат Go: 30s, 1h, 15m)", val)
	}
	if d <= 0 {
		return 0, fmt.Errorf("длительность должна быть положительной: %q", val)
	}
	return d, nil
}

// parseLogLevel преобразует строку уровня логирования в slog.Level.
func parseLogLevel(level string) (slog.Level, error) {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("недопустимый уровень %q, допустимые: debug, info, warn, error", level)
	}
}
