// Package utils предоставляет утилиты для обработки изображений.
package utils

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png" // Регистрируем PNG декодер

	"github.com/nfnt/resize"
)

// ErrEmptyImage возвращается для пустого буфера изображения.
var ErrEmptyImage = errors.New("empty image")

// ResizeImage уменьшает изображение так, чтобы большая сторона не превышала maxEdge.
//
// Параметры:
//   - data: байты исходного изображения (JPEG, PNG)
//   - maxEdge: предел большей стороны в пикселях. Если 0 или изображение меньше — ресайз не применяется.
//   - quality: качество JPEG при кодировании (1-100).
//
// Возвращает байты JPEG изображения и итоговые размеры.
func ResizeImage(data []byte, maxEdge int, quality int) ([]byte, image.Point, error) {
	if len(data) == 0 {
		return nil, image.Point{}, ErrEmptyImage
	}

	// 1. Декодируем изображение
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, image.Point{}, fmt.Errorf("decode image: %w", err)
	}

	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()

	// 2. Ресайз только если большая сторона превышает предел
	if maxEdge > 0 && (width > maxEdge || height > maxEdge) {
		longest := max(width, height)
		newW := uint(max(1, width*maxEdge/longest))
		newH := uint(max(1, height*maxEdge/longest))

		// Lanczos3 - качественный алгоритм
		img = resize.Resize(newW, newH, img, resize.Lanczos3)
	}

	// 3. Кодируем в JPEG для консистентности
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
		return nil, image.Point{}, fmt.Errorf("encode to jpeg: %w", err)
	}

	return buf.Bytes(), img.Bounds().Size(), nil
}
