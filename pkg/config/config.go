package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// AppConfig — корневая структура конфигурации.
// Она зеркалит структуру config.yaml.
type AppConfig struct {
	Models          ModelsConfig    `yaml:"models"`
	Posture         PostureConfig   `yaml:"posture"`
	ImageProcessing ImageProcConfig `yaml:"image_processing"`
	Pose            PoseConfig      `yaml:"pose"`
	Planner         PlannerConfig   `yaml:"planner"`
	Fetcher         FetcherConfig   `yaml:"fetcher"`
	Storage         StorageConfig   `yaml:"storage"`
	S3              S3Config        `yaml:"s3"`
	Server          ServerConfig    `yaml:"server"`
	App             AppSpecific     `yaml:"app"`
}

// ModelsConfig — настройки AI моделей.
type ModelsConfig struct {
	DefaultInterpretation string              `yaml:"default_interpretation"` // Алиас для клинической интерпретации углов
	DefaultPlanner        string              `yaml:"default_planner"`        // Алиас для генерации плана (tool calling)
	Definitions           map[string]ModelDef `yaml:"definitions"`            // Словарь определений моделей
}

// ModelDef — параметры конкретной модели.
type ModelDef struct {
	Provider    string        `yaml:"provider"`   // "openai", "zai", "deepseek", "gemini"
	ModelName   string        `yaml:"model_name"` // Реальное имя в API
	APIKey      string        `yaml:"api_key"`    // Поддерживает ${VAR}
	BaseURL     string        `yaml:"base_url"`
	MaxTokens   int           `yaml:"max_tokens"`
	Temperature float64       `yaml:"temperature"`
	Timeout     time.Duration `yaml:"timeout"` // Go умеет парсить строки вида "60s", "1m"
}

// PostureConfig — настройки анализа осанки.
type PostureConfig struct {
	PromptsDir     string `yaml:"prompts_dir"`
	PromptSource   string `yaml:"prompt_source"`   // "file" или "s3"
	AnalysisPrompt string `yaml:"analysis_prompt"` // Имя шаблона без расширения
	GeometryMode   string `yaml:"geometry_mode"`   // "3d", "2d", "auto"
}

// GetDefaults возвращает дефолтные значения для незаполненных полей.
func (c *PostureConfig) GetDefaults() PostureConfig {
	result := *c

	if result.PromptsDir == "" {
		result.PromptsDir = "./prompts"
	}
	if result.PromptSource == "" {
		result.PromptSource = "file"
	}
	if result.AnalysisPrompt == "" {
		result.AnalysisPrompt = "postural_analysis"
	}
	if result.GeometryMode == "" {
		result.GeometryMode = "3d"
	}

	return result
}

// ImageProcConfig — настройки обработки изображений.
type ImageProcConfig struct {
	MaxEdge int `yaml:"max_edge"` // Максимальная длина большей стороны в пикселях
	Quality int `yaml:"quality"`
}

// GetDefaults возвращает дефолтные значения для незаполненных полей.
func (c *ImageProcConfig) GetDefaults() ImageProcConfig {
	result := *c
	if result.MaxEdge == 0 {
		result.MaxEdge = 800
	}
	if result.Quality == 0 {
		result.Quality = 90
	}
	return result
}

// PoseConfig — адрес сервиса оценки позы (sidecar).
type PoseConfig struct {
	Endpoint string        `yaml:"endpoint"`
	Timeout  time.Duration `yaml:"timeout"`
}

// GetDefaults возвращает дефолтные значения для незаполненных полей.
func (c *PoseConfig) GetDefaults() PoseConfig {
	result := *c
	if result.Endpoint == "" {
		result.Endpoint = "http://localhost:8500"
	}
	if result.Timeout == 0 {
		result.Timeout = 30 * time.Second
	}
	return result
}

// PlannerConfig — параметры оркестратора плана упражнений.
type PlannerConfig struct {
	PreviewChars int  `yaml:"preview_chars"` // Длина превью сырого ответа в ошибке
	DebugTraces  bool `yaml:"debug_traces"`  // Сохранять JSON трейсы запусков
}

// GetDefaults возвращает дефолтные значения для незаполненных полей.
func (c *PlannerConfig) GetDefaults() PlannerConfig {
	result := *c
	if result.PreviewChars == 0 {
		result.PreviewChars = 300
	}
	return result
}

// FetcherConfig — настройки инструмента fetch_pilates_exercises.
type FetcherConfig struct {
	URLs          []string      `yaml:"urls"`            // Страницы по умолчанию
	MaxChars      int           `yaml:"max_chars"`       // Общий лимит текста
	MaxLines      int           `yaml:"max_lines"`       // Лимит строк на одну страницу
	MinLineLength int           `yaml:"min_line_length"` // Более короткие строки отбрасываются
	Timeout       time.Duration `yaml:"timeout"`
	UserAgent     string        `yaml:"user_agent"`
	RateLimit     int           `yaml:"rate_limit"`  // Запросов в минуту на хост
	BurstLimit    int           `yaml:"burst_limit"` // Burst для rate limiter
}

// DefaultFetchURLs — справочные страницы упражнений пилатеса.
var DefaultFetchURLs = []string{
	"https://blogpilates.com.br/34-exercicios-originais-de-pilates/",
	"https://blogpilates.com.br/lista-exercicios-de-pilates/",
}

// GetDefaults возвращает дефолтные значения для незаполненных полей.
func (c *FetcherConfig) GetDefaults() FetcherConfig {
	result := *c // Копируем текущие значения

	if len(result.URLs) == 0 {
		result.URLs = append([]string(nil), DefaultFetchURLs...)
	}
	if result.MaxChars == 0 {
		result.MaxChars = 14000
	}
	if result.MaxLines == 0 {
		result.MaxLines = 90
	}
	if result.MinLineLength == 0 {
		result.MinLineLength = 20
	}
	if result.Timeout == 0 {
		result.Timeout = 20 * time.Second
	}
	if result.UserAgent == "" {
		result.UserAgent = "PilatesVisionProgressBot/1.0"
	}
	if result.RateLimit == 0 {
		result.RateLimit = 30 // запросов в минуту
	}
	if result.BurstLimit == 0 {
		result.BurstLimit = 2
	}

	return result
}

// StorageConfig — настройки sqlite хранилища студентов.
type StorageConfig struct {
	DBPath string `yaml:"db_path"`
}

// GetDefaults возвращает дефолтные значения для незаполненных полей.
func (c *StorageConfig) GetDefaults() StorageConfig {
	result := *c
	if result.DBPath == "" {
		result.DBPath = "./pilates.db"
	}
	return result
}

// S3Config — настройки объектного хранилища (опционально, для шаблонов промптов).
type S3Config struct {
	Endpoint  string `yaml:"endpoint"`
	Region    string `yaml:"region"`
	Bucket    string `yaml:"bucket"`
	AccessKey string `yaml:"access_key"` // Поддерживает ${VAR}
	SecretKey string `yaml:"secret_key"` // Поддерживает ${VAR}
	UseSSL    bool   `yaml:"use_ssl"`
}

// ServerConfig — настройки HTTP API.
type ServerConfig struct {
	Port string `yaml:"port"`
}

// GetDefaults возвращает дефолтные значения для незаполненных полей.
func (c *ServerConfig) GetDefaults() ServerConfig {
	result := *c
	if result.Port == "" {
		result.Port = "8000"
	}
	return result
}

// AppSpecific — общие настройки приложения.
type AppSpecific struct {
	Debug   bool   `yaml:"debug"`
	LogsDir string `yaml:"logs_dir"`
}

// LoadEnv подгружает .env файл, если он есть. Отсутствие файла не ошибка.
func LoadEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if _, err := os.Stat(p); os.IsNotExist(err) {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			return fmt.Errorf("failed to load env file %s: %w", p, err)
		}
	}
	return nil
}

// Load читает YAML файл, подставляет ENV переменные и возвращает готовую структуру.
func Load(path string) (*AppConfig, error) {
	// 1. Проверяем существование файла
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file not found at: %s", path)
	}

	// 2. Читаем файл целиком
	rawBytes, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	return Parse(rawBytes)
}

// Parse разбирает YAML из памяти: подстановка ENV, дефолты, валидация.
func Parse(rawBytes []byte) (*AppConfig, error) {
	// os.ExpandEnv заменяет ${VAR} или $VAR на значение из системы.
	contentWithEnv := os.ExpandEnv(string(rawBytes))

	var cfg AppConfig
	if err := yaml.Unmarshal([]byte(contentWithEnv), &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse yaml: %w", err)
	}

	cfg.applyDefaults()

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

func (c *AppConfig) applyDefaults() {
	c.Posture = c.Posture.GetDefaults()
	c.ImageProcessing = c.ImageProcessing.GetDefaults()
	c.Pose = c.Pose.GetDefaults()
	c.Planner = c.Planner.GetDefaults()
	c.Fetcher = c.Fetcher.GetDefaults()
	c.Storage = c.Storage.GetDefaults()
	c.Server = c.Server.GetDefaults()
	if c.App.LogsDir == "" {
		c.App.LogsDir = "./logs"
	}
}

// validate проверяет обязательные поля.
func (c *AppConfig) validate() error {
	for _, alias := range []string{c.Models.DefaultInterpretation, c.Models.DefaultPlanner} {
		if alias == "" {
			continue
		}
		def, ok := c.Models.Definitions[alias]
		if !ok {
			return fmt.Errorf("model '%s' is not defined in definitions", alias)
		}
		if def.APIKey == "" {
			return fmt.Errorf("model '%s': api_key is required", alias)
		}
	}

	switch c.Posture.GeometryMode {
	case "3d", "2d", "auto":
	default:
		return fmt.Errorf("posture.geometry_mode must be one of 3d, 2d, auto, got %q", c.Posture.GeometryMode)
	}

	switch c.Posture.PromptSource {
	case "file":
	case "s3":
		if c.S3.Bucket == "" || c.S3.Endpoint == "" {
			return fmt.Errorf("s3.bucket and s3.endpoint are required for prompt_source=s3")
		}
	default:
		return fmt.Errorf("posture.prompt_source must be file or s3, got %q", c.Posture.PromptSource)
	}

	return nil
}

// Helper методы для удобства доступа (Syntactic sugar)

// GetModel возвращает конфигурацию модели по имени.
// Пустое имя означает модель интерпретации по умолчанию.
func (c *AppConfig) GetModel(name string) (ModelDef, bool) {
	if name == "" {
		name = c.Models.DefaultInterpretation
	}
	m, ok := c.Models.Definitions[name]
	return m, ok
}

// GetPlannerModel возвращает модель для генерации плана.
// Если default_planner не задан, используется модель интерпретации.
func (c *AppConfig) GetPlannerModel() (ModelDef, bool) {
	name := c.Models.DefaultPlanner
	if name == "" {
		name = c.Models.DefaultInterpretation
	}
	m, ok := c.Models.Definitions[name]
	return m, ok
}
