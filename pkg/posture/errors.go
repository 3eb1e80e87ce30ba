package posture

import "errors"

// Ошибки входных данных: изображение или детекция не пригодны для анализа.
// Повторять запрос с тем же изображением бессмысленно.
var (
	// ErrNoPoseDetected — модель не нашла человека на изображении.
	ErrNoPoseDetected = errors.New("no human posture landmarks were detected in the image")

	// ErrNo3DLandmarks — нет 3-D точек, а режим требует их.
	ErrNo3DLandmarks = errors.New("no 3D posture landmarks were detected in the image")

	// ErrIncompleteLandmarks — список точек короче словаря модели.
	ErrIncompleteLandmarks = errors.New("landmark list does not cover the required body points")

	// ErrInvalidImage — пустое или недекодируемое изображение.
	ErrInvalidImage = errors.New("could not decode uploaded image")
)

// IsInputError сообщает, относится ли ошибка к отклонённому вводу.
func IsInputError(err error) bool {
	return errors.Is(err, ErrNoPoseDetected) ||
		errors.Is(err, ErrNo3DLandmarks) ||
		errors.Is(err, ErrIncompleteLandmarks) ||
		errors.Is(err, ErrInvalidImage)
}
