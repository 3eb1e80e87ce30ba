package clinical

import (
	"context"
	"fmt"

	"github.com/ilkoid/pilates-vision/pkg/config"
	"github.com/ilkoid/pilates-vision/pkg/pose"
	"github.com/ilkoid/pilates-vision/pkg/posture"
	"github.com/ilkoid/pilates-vision/pkg/utils"
)

// Result — итог анализа одного изображения.
type Result struct {
	Status             string                    `json:"status"`
	DetectedDeviations []string                  `json:"detected_deviations"`
	ClinicalAnalysis   string                    `json:"clinical_analysis"`
	Angles             posture.AngleSet          `json:"angles"`
	Landmarks2D        []posture.LandmarkPayload `json:"landmarks_2d"`
	Landmarks3D        []posture.LandmarkPayload `json:"landmarks_3d"`
}

// Pipeline: изображение → точки → углы → интерпретация.
//
// Один вызов Run — одна последовательная операция без общего состояния.
type Pipeline struct {
	estimator   pose.Estimator
	engine      *posture.Engine
	interpreter *Interpreter
	imageCfg    config.ImageProcConfig
}

// NewPipeline собирает конвейер анализа.
func NewPipeline(estimator pose.Estimator, engine *posture.Engine, interpreter *Interpreter, imageCfg config.ImageProcConfig) *Pipeline {
	return &Pipeline{
		estimator:   estimator,
		engine:      engine,
		interpreter: interpreter,
		imageCfg:    imageCfg,
	}
}

// Run анализирует изображение.
//
// Ошибки ввода (posture.IsInputError) возвращаются без обёртки в
// сетевые или LLM ошибки, чтобы вызывающий мог отличить их.
func (p *Pipeline) Run(ctx context.Context, image []byte, lang posture.Language) (*Result, error) {
	prepared, err := pose.Preprocess(image, p.imageCfg)
	if err != nil {
		return nil, err
	}

	det, err := p.estimator.Estimate(ctx, prepared)
	if err != nil {
		return nil, fmt.Errorf("estimate pose: %w", err)
	}

	return p.Analyze(ctx, *det, lang)
}

// Analyze анализирует готовую детекцию (без изображения).
func (p *Pipeline) Analyze(ctx context.Context, det posture.Detection, lang posture.Language) (*Result, error) {
	geom, err := p.engine.Compute(det)
	if err != nil {
		utils.Warn("Posture geometry rejected", "error", err)
		return nil, err
	}

	interp, err := p.interpreter.Interpret(ctx, geom.Angles, lang)
	if err != nil {
		return nil, err
	}

	return &Result{
		Status:             "success",
		DetectedDeviations: interp.DetectedDeviations,
		ClinicalAnalysis:   interp.ClinicalAnalysis,
		Angles:             geom.Angles,
		Landmarks2D:        geom.Landmarks2D,
		Landmarks3D:        geom.Landmarks3D,
	}, nil
}
