// "Тупой" клиент объектного хранилища. Используется для шаблонов промптов.

package s3storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/ilkoid/pilates-vision/pkg/config"
)

// ErrObjectNotFound возвращается, если ключа нет в бакете.
var ErrObjectNotFound = errors.New("object not found")

// ClientInterface определяет интерфейс для S3 клиента.
// Используется для мокания в тестах и внедрения зависимостей.
type ClientInterface interface {
	DownloadFile(ctx context.Context, key string) ([]byte, error)
}

type Client struct {
	api    *minio.Client
	bucket string
}

// Проверка что Client реализует ClientInterface
var _ ClientInterface = (*Client)(nil)

// New создает клиент, используя наш конфиг
func New(cfg config.S3Config) (*Client, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("s3.bucket is required")
	}

	minioClient, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}

	return &Client{
		api:    minioClient,
		bucket: cfg.Bucket,
	}, nil
}

// DownloadFile скачивает объект целиком в память.
// Отсутствующий ключ — ErrObjectNotFound.
func (c *Client) DownloadFile(ctx context.Context, key string) ([]byte, error) {
	obj, err := c.api.GetObject(ctx, c.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, classify(key, err)
	}
	defer obj.Close()

	// GetObject ленивый: ошибка доступа приходит при первом чтении
	buf := new(bytes.Buffer)
	if _, err := io.Copy(buf, obj); err != nil {
		return nil, classify(key, err)
	}

	return buf.Bytes(), nil
}

func classify(key string, err error) error {
	if minio.ToErrorResponse(err).Code == "NoSuchKey" {
		return fmt.Errorf("%w: %s", ErrObjectNotFound, key)
	}
	return fmt.Errorf("download %s: %w", key, err)
}
