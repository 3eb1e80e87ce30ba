// Package service связывает хранилище студентов с конвейером анализа
// и оркестратором плана.
package service

import (
	"context"

	"github.com/ilkoid/pilates-vision/pkg/clinical"
	"github.com/ilkoid/pilates-vision/pkg/planner"
	"github.com/ilkoid/pilates-vision/pkg/posture"
)

// Analyzer — конвейер анализа изображения (реализуется clinical.Pipeline).
type Analyzer interface {
	Run(ctx context.Context, image []byte, lang posture.Language) (*clinical.Result, error)
}

// PlanGenerator — генератор плана (реализуется planner.Orchestrator).
type PlanGenerator interface {
	Generate(ctx context.Context, req planner.Request) (*planner.Plan, error)
}

var (
	_ Analyzer      = (*clinical.Pipeline)(nil)
	_ PlanGenerator = (*planner.Orchestrator)(nil)
)
