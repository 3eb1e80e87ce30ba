package service

import (
	"context"
	"fmt"
	"time"

	"github.com/ilkoid/pilates-vision/internal/store"
	"github.com/ilkoid/pilates-vision/pkg/clinical"
	"github.com/ilkoid/pilates-vision/pkg/posture"
	"github.com/ilkoid/pilates-vision/pkg/utils"
)

// AnalysisService анализирует фото студента и сохраняет результат в профиль.
type AnalysisService struct {
	repo     store.Repository
	analyzer Analyzer
}

// NewAnalysisService создаёт сервис анализа.
func NewAnalysisService(repo store.Repository, analyzer Analyzer) *AnalysisService {
	return &AnalysisService{repo: repo, analyzer: analyzer}
}

// Analyze запускает конвейер для изображения и сохраняет отклонения и
// клинический анализ в профиле студента. Изображение не сохраняется.
//
// Неизвестный студент → store.ErrNotFound. Ошибки ввода проходят
// без изменений (posture.IsInputError).
func (s *AnalysisService) Analyze(ctx context.Context, studentID int64, image []byte, lang posture.Language) (*clinical.Result, error) {
	start := time.Now()

	if _, err := s.repo.Get(ctx, studentID); err != nil {
		return nil, err
	}

	result, err := s.analyzer.Run(ctx, image, lang)
	if err != nil {
		return nil, err
	}

	if err := s.repo.SaveAnalysis(ctx, studentID, result.DetectedDeviations, result.ClinicalAnalysis); err != nil {
		return nil, fmt.Errorf("save analysis: %w", err)
	}

	utils.Info("Posture analysis saved",
		"student_id", studentID,
		"deviations", len(result.DetectedDeviations),
		"duration_ms", time.Since(start).Milliseconds())

	return result, nil
}
