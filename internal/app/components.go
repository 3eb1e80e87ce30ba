// Package app собирает компоненты приложения из конфигурации.
//
// Одна точка инициализации для сервера и CLI: хранилище, промпты,
// LLM провайдеры, конвейер анализа, оркестратор плана и сервисы.
// Все ошибки возвращаются, никаких panic.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/ilkoid/pilates-vision/internal/service"
	"github.com/ilkoid/pilates-vision/internal/store"
	"github.com/ilkoid/pilates-vision/pkg/clinical"
	"github.com/ilkoid/pilates-vision/pkg/config"
	"github.com/ilkoid/pilates-vision/pkg/debug"
	"github.com/ilkoid/pilates-vision/pkg/factory"
	"github.com/ilkoid/pilates-vision/pkg/llm"
	"github.com/ilkoid/pilates-vision/pkg/planner"
	"github.com/ilkoid/pilates-vision/pkg/pose"
	"github.com/ilkoid/pilates-vision/pkg/posture"
	"github.com/ilkoid/pilates-vision/pkg/prompts"
	"github.com/ilkoid/pilates-vision/pkg/s3storage"
	"github.com/ilkoid/pilates-vision/pkg/tools"
	"github.com/ilkoid/pilates-vision/pkg/tools/std"
	"github.com/ilkoid/pilates-vision/pkg/utils"
	"github.com/ilkoid/pilates-vision/pkg/webfetch"
)

// Components содержит собранные компоненты приложения.
type Components struct {
	Config   *config.AppConfig
	Store    *store.SQLiteStore
	Pipeline *clinical.Pipeline
	Planner  *planner.Orchestrator
	Analysis *service.AnalysisService
	Plans    *service.PlanService

	closers []io.Closer
}

// Options — необязательные параметры сборки.
type Options struct {
	// Estimator заменяет HTTP клиент pose сервиса (например, FileEstimator в CLI).
	Estimator pose.Estimator
	// SkipStore не открывает sqlite (CLI работает без базы).
	SkipStore bool
}

// ConfigPathFinder определяет стратегию поиска пути к config.yaml.
type ConfigPathFinder interface {
	FindConfigPath() string
}

// DefaultConfigPathFinder ищет config.yaml.
//
// Порядок поиска:
// 1. Флаг -config (если указан)
// 2. Текущая директория (./config.yaml)
// 3. Директория бинарника
// 4. Родительские директории (для запуска из cmd/<name>/)
type DefaultConfigPathFinder struct {
	ConfigFlag string
}

// FindConfigPath находит путь к config.yaml.
func (f *DefaultConfigPathFinder) FindConfigPath() string {
	if f.ConfigFlag != "" {
		return resolveAbsPath(f.ConfigFlag)
	}

	if _, err := os.Stat("config.yaml"); err == nil {
		return resolveAbsPath("config.yaml")
	}

	if execPath, err := os.Executable(); err == nil {
		cfgPath := filepath.Join(filepath.Dir(execPath), "config.yaml")
		if _, err := os.Stat(cfgPath); err == nil {
			return cfgPath
		}
	}

	for _, p := range []string{
		filepath.Join("..", "..", "config.yaml"),
		filepath.Join("..", "config.yaml"),
	} {
		if _, err := os.Stat(p); err == nil {
			return resolveAbsPath(p)
		}
	}

	// Возвращаем дефолтный путь (даже если не существует)
	return resolveAbsPath("config.yaml")
}

// InitializeConfig подгружает .env рядом с конфигом и загружает config.yaml.
func InitializeConfig(finder ConfigPathFinder) (*config.AppConfig, string, error) {
	cfgPath := finder.FindConfigPath()

	if err := config.LoadEnv(filepath.Join(filepath.Dir(cfgPath), ".env"), ".env"); err != nil {
		return nil, "", err
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, "", fmt.Errorf("failed to load config from %s: %w", cfgPath, err)
	}

	return cfg, cfgPath, nil
}

// Initialize создаёт и связывает все компоненты.
//
// Промпт анализа загружается один раз здесь. Отсутствующий шаблон
// или модель — ошибка конфигурации, приложение не стартует.
func Initialize(ctx context.Context, cfg *config.AppConfig, opts Options) (*Components, error) {
	c := &Components{Config: cfg}

	fail := func(err error) (*Components, error) {
		c.Close()
		return nil, err
	}

	// 1. Хранилище студентов
	if !opts.SkipStore {
		st, err := store.NewSQLite(cfg.Storage.DBPath)
		if err != nil {
			utils.Error("Store init failed", "error", err)
			return fail(fmt.Errorf("failed to open store: %w", err))
		}
		c.Store = st
		c.closers = append(c.closers, st)
		utils.Info("Store initialized", "path", cfg.Storage.DBPath)
	}

	// 2. S3 клиент нужен только для prompt_source=s3
	var s3Client s3storage.ClientInterface
	if cfg.Posture.PromptSource == "s3" {
		client, err := s3storage.New(cfg.S3)
		if err != nil {
			utils.Error("S3 client creation failed", "error", err)
			return fail(fmt.Errorf("failed to create S3 client: %w", err))
		}
		s3Client = client
		utils.Info("S3 client initialized", "bucket", cfg.S3.Bucket)
	}

	// 3. Реестр промптов
	registry, err := prompts.CreateSourceRegistry(cfg, s3Client)
	if err != nil {
		return fail(fmt.Errorf("failed to create prompt registry: %w", err))
	}

	// 4. LLM провайдеры
	interpModel, ok := cfg.GetModel("")
	if !ok {
		return fail(fmt.Errorf("default_interpretation model '%s' not found in definitions", cfg.Models.DefaultInterpretation))
	}
	interpLLM, err := c.provider(ctx, interpModel)
	if err != nil {
		return fail(err)
	}

	planModel, ok := cfg.GetPlannerModel()
	if !ok {
		return fail(fmt.Errorf("planner model not found in definitions"))
	}
	planLLM := interpLLM
	if planModel != interpModel {
		if planLLM, err = c.provider(ctx, planModel); err != nil {
			return fail(err)
		}
	}

	// 5. Конвейер анализа
	mode, err := posture.ParseMode(cfg.Posture.GeometryMode)
	if err != nil {
		return fail(err)
	}
	interpreter, err := clinical.LoadInterpreter(ctx, interpLLM, registry, cfg.Posture.AnalysisPrompt)
	if err != nil {
		utils.Error("Analysis prompt load failed", "prompt", cfg.Posture.AnalysisPrompt, "error", err)
		return fail(err)
	}
	estimator := opts.Estimator
	if estimator == nil {
		estimator = pose.NewHTTPEstimator(cfg.Pose)
	}
	c.Pipeline = clinical.NewPipeline(estimator, posture.NewEngine(mode), interpreter, cfg.ImageProcessing)

	// 6. Инструменты и оркестратор плана
	toolRegistry := tools.NewRegistry()
	fetcher := webfetch.NewFromConfig(cfg.Fetcher)
	if err := toolRegistry.Register(std.NewFetchPilatesTool(fetcher, cfg.Fetcher)); err != nil {
		return fail(fmt.Errorf("failed to register tools: %w", err))
	}

	var plannerOpts []planner.Option
	if cfg.Planner.DebugTraces {
		plannerOpts = append(plannerOpts, planner.WithDebugTraces(debug.RecorderConfig{
			LogsDir:            filepath.Join(cfg.App.LogsDir, "traces"),
			IncludeToolArgs:    true,
			IncludeToolResults: true,
			MaxResultSize:      4000,
		}))
	}
	c.Planner, err = planner.New(planLLM, toolRegistry, cfg.Planner, plannerOpts...)
	if err != nil {
		return fail(fmt.Errorf("failed to create planner: %w", err))
	}

	// 7. Сервисы поверх хранилища
	if c.Store != nil {
		c.Analysis = service.NewAnalysisService(c.Store, c.Pipeline)
		c.Plans = service.NewPlanService(c.Store, c.Planner)
	}

	utils.Info("Components initialized",
		"interpretation_model", interpModel.ModelName,
		"planner_model", planModel.ModelName,
		"geometry_mode", mode,
		"debug_traces", cfg.Planner.DebugTraces)

	return c, nil
}

// provider создаёт LLM провайдера и запоминает его для Close, если нужно.
func (c *Components) provider(ctx context.Context, def config.ModelDef) (llm.Provider, error) {
	p, err := factory.NewLLMProvider(ctx, def)
	if err != nil {
		utils.Error("LLM provider creation failed", "provider", def.Provider, "error", err)
		return nil, fmt.Errorf("failed to create LLM provider: %w", err)
	}
	if closer, ok := p.(io.Closer); ok {
		c.closers = append(c.closers, closer)
	}
	utils.Info("LLM provider created", "provider", def.Provider, "model", def.ModelName)
	return p, nil
}

// Close освобождает ресурсы в обратном порядке создания.
func (c *Components) Close() error {
	var errs []error
	for i := len(c.closers) - 1; i >= 0; i-- {
		if err := c.closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	c.closers = nil
	return errors.Join(errs...)
}

func resolveAbsPath(p string) string {
	if abs, err := filepath.Abs(p); err == nil {
		return abs
	}
	return p
}
