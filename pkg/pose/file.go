package pose

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/ilkoid/pilates-vision/pkg/posture"
)

// FileEstimator возвращает заранее сохранённую детекцию из JSON файла.
// Изображение игнорируется. Используется CLI и для офлайн проверки углов.
type FileEstimator struct {
	path string
}

var _ Estimator = (*FileEstimator)(nil)

// NewFileEstimator создаёт FileEstimator для файла path.
func NewFileEstimator(path string) *FileEstimator {
	return &FileEstimator{path: path}
}

// Estimate читает детекцию из файла.
func (e *FileEstimator) Estimate(ctx context.Context, _ []byte) (*posture.Detection, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	raw, err := os.ReadFile(e.path)
	if err != nil {
		return nil, fmt.Errorf("read landmarks file: %w", err)
	}

	var det posture.Detection
	if err := json.Unmarshal(raw, &det); err != nil {
		return nil, fmt.Errorf("parse landmarks file %s: %w", e.path, err)
	}
	return &det, nil
}
