package pose

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/ilkoid/pilates-vision/pkg/config"
	"github.com/ilkoid/pilates-vision/pkg/posture"
	"github.com/ilkoid/pilates-vision/pkg/utils"
)

// HTTPClient интерфейс для выполнения HTTP запросов.
// Стандартный *http.Client реализует этот интерфейс.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// HTTPEstimator обращается к sidecar сервису оценки позы.
//
// Протокол: POST {endpoint}/v1/pose, тело — JPEG (Content-Type: image/jpeg),
// ответ — {"landmarks_2d": [...], "landmarks_3d": [...]}.
type HTTPEstimator struct {
	endpoint   string
	httpClient HTTPClient
}

var _ Estimator = (*HTTPEstimator)(nil)

// NewHTTPEstimator создаёт клиент sidecar из конфигурации.
func NewHTTPEstimator(cfg config.PoseConfig) *HTTPEstimator {
	cfg = cfg.GetDefaults()
	return &HTTPEstimator{
		endpoint:   strings.TrimRight(cfg.Endpoint, "/"),
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}
}

// WithHTTPClient подменяет HTTP клиент (для тестов).
func (e *HTTPEstimator) WithHTTPClient(c HTTPClient) *HTTPEstimator {
	e.httpClient = c
	return e
}

// Estimate отправляет изображение в sidecar и разбирает ответ.
func (e *HTTPEstimator) Estimate(ctx context.Context, image []byte) (*posture.Detection, error) {
	start := time.Now()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.endpoint+"/v1/pose", bytes.NewReader(image))
	if err != nil {
		return nil, fmt.Errorf("build pose request: %w", err)
	}
	req.Header.Set("Content-Type", "image/jpeg")
	req.Header.Set("Accept", "application/json")

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("pose estimator request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read pose response: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusUnprocessableEntity:
		// sidecar не смог декодировать изображение
		return nil, fmt.Errorf("%w: %s", posture.ErrInvalidImage, strings.TrimSpace(string(body)))
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("pose estimator error: status %d, body: %s", resp.StatusCode, string(body))
	}

	var det posture.Detection
	if err := json.Unmarshal(body, &det); err != nil {
		return nil, fmt.Errorf("unmarshal pose response: %w", err)
	}

	utils.Info("Pose estimated",
		"landmarks_2d", len(det.Landmarks2D),
		"landmarks_3d", len(det.Landmarks3D),
		"duration_ms", time.Since(start).Milliseconds())

	return &det, nil
}
