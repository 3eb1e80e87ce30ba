// Package posture вычисляет углы осанки по ключевым точкам тела.
//
// Вход — списки 2-D (нормализованные координаты кадра) и 3-D (мировые
// координаты в метрах, начало в середине таза) точек от модели оценки позы.
// Выход — AngleSet с фиксированным набором метрик и payload точек,
// округлённый до двух знаков.
package posture

// LandmarkID — индекс ключевой точки в словаре модели оценки позы.
type LandmarkID int

// Используемые анатомические точки. Единственная таблица индексов в пакете.
const (
	Nose          LandmarkID = 0
	LeftEar       LandmarkID = 7
	RightEar      LandmarkID = 8
	LeftShoulder  LandmarkID = 11
	RightShoulder LandmarkID = 12
	LeftHip       LandmarkID = 23
	RightHip      LandmarkID = 24
)

// requiredLandmarks — минимальная длина списка точек, покрывающая все индексы выше.
const requiredLandmarks = int(RightHip) + 1

// Landmark — одна ключевая точка.
//
// Для 2-D списка X/Y нормализованы к размеру кадра, Z — относительная глубина.
// Для 3-D списка X/Y/Z в метрах.
type Landmark struct {
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	Z          float64 `json:"z"`
	Visibility float64 `json:"visibility"`
}

// Detection — результат модели оценки позы для одного кадра.
type Detection struct {
	Landmarks2D []Landmark `json:"landmarks_2d"`
	Landmarks3D []Landmark `json:"landmarks_3d"`
}

// LandmarkPayload — точка в ответе API, координаты округлены.
// Z заполнен только для 3-D точек.
type LandmarkPayload struct {
	ID         int     `json:"id"`
	X          Fixed2  `json:"x"`
	Y          Fixed2  `json:"y"`
	Z          *Fixed2 `json:"z,omitempty"`
	Visibility Fixed2  `json:"visibility"`
}

func payload2D(lms []Landmark) []LandmarkPayload {
	out := make([]LandmarkPayload, len(lms))
	for i, lm := range lms {
		out[i] = LandmarkPayload{
			ID:         i,
			X:          Fixed2(Round2(lm.X)),
			Y:          Fixed2(Round2(lm.Y)),
			Visibility: Fixed2(Round2(lm.Visibility)),
		}
	}
	return out
}

func payload3D(lms []Landmark) []LandmarkPayload {
	out := make([]LandmarkPayload, len(lms))
	for i, lm := range lms {
		z := Fixed2(Round2(lm.Z))
		out[i] = LandmarkPayload{
			ID:         i,
			X:          Fixed2(Round2(lm.X)),
			Y:          Fixed2(Round2(lm.Y)),
			Z:          &z,
			Visibility: Fixed2(Round2(lm.Visibility)),
		}
	}
	return out
}

func at(lms []Landmark, id LandmarkID) Vec3 {
	lm := lms[id]
	return Vec3{lm.X, lm.Y, lm.Z}
}
