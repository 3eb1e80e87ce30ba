package sources

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/ilkoid/pilates-vision/pkg/s3storage"
)

// S3Source — загрузка промптов из объектного хранилища.
//
// Ключ: <prefix><name>.txt, затем <prefix><name>.yaml.
type S3Source struct {
	client s3storage.ClientInterface
	prefix string
}

// NewS3Source создаёт S3Source.
func NewS3Source(client s3storage.ClientInterface, prefix string) *S3Source {
	return &S3Source{client: client, prefix: prefix}
}

// Load загружает текст шаблона из бакета.
func (s *S3Source) Load(ctx context.Context, name string) (string, error) {
	for _, ext := range []string{".txt", ".yaml"} {
		key := path.Join(s.prefix, name+ext)

		data, err := s.client.DownloadFile(ctx, key)
		if errors.Is(err, s3storage.ErrObjectNotFound) {
			continue
		}
		if err != nil {
			return "", fmt.Errorf("s3 prompt %s: %w", key, err)
		}

		if strings.HasSuffix(key, ".yaml") {
			return parseYAML(data)
		}
		return string(data), nil
	}

	return "", fmt.Errorf("%w: %s%s", ErrNotFound, s.prefix, name)
}
