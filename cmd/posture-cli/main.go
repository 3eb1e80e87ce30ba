// posture-cli — локальный анализ осанки и генерация плана без HTTP сервера.
//
// Примеры:
//
//	posture-cli -image photo.jpg -lang pt
//	posture-cli -landmarks detection.json -plan-profile student.json
//	posture-cli -plan-profile student.json -json
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/ilkoid/pilates-vision/internal/app"
	"github.com/ilkoid/pilates-vision/internal/service"
	"github.com/ilkoid/pilates-vision/pkg/clinical"
	"github.com/ilkoid/pilates-vision/pkg/planner"
	"github.com/ilkoid/pilates-vision/pkg/pose"
	"github.com/ilkoid/pilates-vision/pkg/posture"
	"github.com/ilkoid/pilates-vision/pkg/utils"
)

var (
	configFlag    = flag.String("config", "", "Path to config.yaml")
	imageFlag     = flag.String("image", "", "Photo to analyze (sent to the pose endpoint)")
	landmarksFlag = flag.String("landmarks", "", "Pre-computed detection JSON instead of -image")
	langFlag      = flag.String("lang", "en", "Output language: en or pt")
	profileFlag   = flag.String("plan-profile", "", "Student profile JSON; generates a workout plan")
	jsonFlag      = flag.Bool("json", false, "Print raw JSON instead of formatted output")
	timeoutFlag   = flag.Duration("timeout", 5*time.Minute, "Overall timeout")
)

// cliOutput — результат для режима -json.
type cliOutput struct {
	Analysis *clinical.Result `json:"analysis,omitempty"`
	Plan     *planner.Plan    `json:"plan,omitempty"`
}

func main() {
	flag.Parse()

	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, renderError(err))
		os.Exit(1)
	}
}

func run() error {
	if *imageFlag == "" && *landmarksFlag == "" && *profileFlag == "" {
		flag.Usage()
		return errors.New("one of -image, -landmarks or -plan-profile is required")
	}
	lang := posture.ParseLanguage(*langFlag)

	cfg, _, err := app.InitializeConfig(&app.DefaultConfigPathFinder{ConfigFlag: *configFlag})
	if err != nil {
		return err
	}

	// Логи только в файл, stdout занят результатом
	if err := utils.InitLogger(utils.LoggerOptions{Dir: cfg.App.LogsDir, Debug: cfg.App.Debug, Quiet: true}); err != nil {
		return fmt.Errorf("logger init: %w", err)
	}

	ctx, shutdown := utils.SetupGracefulShutdownWithContext()
	defer shutdown()
	ctx, cancel := context.WithTimeout(ctx, *timeoutFlag)
	defer cancel()

	opts := app.Options{SkipStore: true}
	if *landmarksFlag != "" {
		opts.Estimator = pose.NewFileEstimator(*landmarksFlag)
	}
	components, err := app.Initialize(ctx, cfg, opts)
	if err != nil {
		return err
	}
	defer components.Close()

	var out cliOutput

	if *imageFlag != "" || *landmarksFlag != "" {
		if out.Analysis, err = analyze(ctx, components, lang); err != nil {
			return err
		}
	}

	if *profileFlag != "" {
		if out.Plan, err = generatePlan(ctx, components, out.Analysis, lang); err != nil {
			return err
		}
	}

	if *jsonFlag {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		enc.SetEscapeHTML(false)
		return enc.Encode(out)
	}

	if out.Analysis != nil {
		fmt.Println(renderAnalysis(out.Analysis, lang))
	}
	if out.Analysis != nil && out.Plan != nil {
		fmt.Println(divider())
	}
	if out.Plan != nil {
		fmt.Println(renderPlan(out.Plan))
	}
	return nil
}

func analyze(ctx context.Context, c *app.Components, lang posture.Language) (*clinical.Result, error) {
	// Готовая детекция: изображение не нужно
	if *imageFlag == "" {
		det, err := pose.NewFileEstimator(*landmarksFlag).Estimate(ctx, nil)
		if err != nil {
			return nil, err
		}
		return c.Pipeline.Analyze(ctx, *det, lang)
	}

	image, err := os.ReadFile(*imageFlag)
	if err != nil {
		return nil, fmt.Errorf("read image: %w", err)
	}
	return c.Pipeline.Run(ctx, image, lang)
}

func generatePlan(ctx context.Context, c *app.Components, analysis *clinical.Result, lang posture.Language) (*planner.Plan, error) {
	raw, err := os.ReadFile(*profileFlag)
	if err != nil {
		return nil, fmt.Errorf("read profile: %w", err)
	}

	var profile map[string]any
	if err := json.Unmarshal(raw, &profile); err != nil {
		return nil, fmt.Errorf("parse profile: %w", err)
	}

	// Свежий анализ важнее сохранённого в профиле
	text, deviations := "", []string(nil)
	if analysis != nil {
		text, deviations = analysis.ClinicalAnalysis, analysis.DetectedDeviations
		profile["latest_detected_deviations"] = deviations
		profile["latest_clinical_analysis"] = text
	} else {
		text, _ = profile["latest_clinical_analysis"].(string)
		if list, ok := profile["latest_detected_deviations"].([]any); ok {
			for _, v := range list {
				if s, ok := v.(string); ok {
					deviations = append(deviations, s)
				}
			}
		}
	}

	name, _ := profile["name"].(string)
	return c.Planner.Generate(ctx, planner.Request{
		Profile:          profile,
		ClinicalAnalysis: service.ClinicalText(text, deviations),
		Language:         lang,
		Subject:          name,
	})
}
