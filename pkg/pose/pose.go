// Package pose — граница с моделью оценки позы.
//
// Сама модель работает вне процесса (sidecar с HTTP API). Пакет готовит
// изображение (декодирование, уменьшение до max_edge, JPEG) и возвращает
// posture.Detection. Изображения не сохраняются.
package pose

import (
	"context"
	"fmt"

	"github.com/ilkoid/pilates-vision/pkg/config"
	"github.com/ilkoid/pilates-vision/pkg/posture"
	"github.com/ilkoid/pilates-vision/pkg/utils"
)

// Estimator возвращает 2-D и 3-D точки тела для изображения.
//
// Пустые списки точек — нормальный результат (человек не найден),
// его интерпретирует posture.Engine.
type Estimator interface {
	Estimate(ctx context.Context, image []byte) (*posture.Detection, error)
}

// Preprocess декодирует изображение и уменьшает его так, чтобы большая
// сторона не превышала cfg.MaxEdge. Результат всегда JPEG.
//
// Пустое или недекодируемое изображение — posture.ErrInvalidImage.
func Preprocess(image []byte, cfg config.ImageProcConfig) ([]byte, error) {
	cfg = cfg.GetDefaults()

	out, size, err := utils.ResizeImage(image, cfg.MaxEdge, cfg.Quality)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", posture.ErrInvalidImage, err)
	}

	utils.Debug("Image preprocessed",
		"input_bytes", len(image),
		"output_bytes", len(out),
		"width", size.X,
		"height", size.Y)

	return out, nil
}
