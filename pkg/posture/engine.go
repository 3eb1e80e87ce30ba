package posture

import (
	"fmt"
	"math"

	"github.com/ilkoid/pilates-vision/pkg/utils"
)

// Mode — режим геометрии.
type Mode string

const (
	// Mode3D считает углы по мировым 3-D точкам. Без них — ошибка.
	Mode3D Mode = "3d"
	// Mode2D считает приближённые углы по точкам кадра.
	Mode2D Mode = "2d"
	// ModeAuto использует 3-D, если есть, иначе 2-D.
	ModeAuto Mode = "auto"
)

// ParseMode разбирает режим из конфигурации. Пустая строка — Mode3D.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case "", Mode3D:
		return Mode3D, nil
	case Mode2D:
		return Mode2D, nil
	case ModeAuto:
		return ModeAuto, nil
	default:
		return "", fmt.Errorf("unknown geometry mode %q", s)
	}
}

// Result — углы осанки и округлённые точки одного изображения.
type Result struct {
	Mode        Mode              `json:"mode"`
	Angles      AngleSet          `json:"angles"`
	Landmarks2D []LandmarkPayload `json:"landmarks_2d"`
	Landmarks3D []LandmarkPayload `json:"landmarks_3d"`
}

// Engine — вычислитель углов. Без состояния, безопасен для конкурентного использования.
type Engine struct {
	mode Mode
}

// NewEngine создаёт Engine в заданном режиме.
func NewEngine(mode Mode) *Engine {
	if mode == "" {
		mode = Mode3D
	}
	return &Engine{mode: mode}
}

// Mode возвращает режим геометрии.
func (e *Engine) Mode() Mode { return e.mode }

// Compute считает AngleSet по детекции.
//
// Ошибки ErrNoPoseDetected, ErrNo3DLandmarks и ErrIncompleteLandmarks
// означают непригодный ввод (см. IsInputError).
func (e *Engine) Compute(d Detection) (*Result, error) {
	if len(d.Landmarks2D) == 0 {
		return nil, ErrNoPoseDetected
	}

	mode := e.mode
	if mode == ModeAuto {
		mode = Mode3D
		if len(d.Landmarks3D) == 0 {
			mode = Mode2D
		}
	}

	var (
		angles AngleSet
		err    error
	)
	switch mode {
	case Mode3D:
		if len(d.Landmarks3D) == 0 {
			return nil, ErrNo3DLandmarks
		}
		angles, err = Angles3D(d.Landmarks3D)
	case Mode2D:
		angles, err = Angles2D(d.Landmarks2D)
	default:
		return nil, fmt.Errorf("unknown geometry mode %q", mode)
	}
	if err != nil {
		return nil, err
	}

	utils.Debug("Posture angles computed",
		"mode", string(mode),
		"landmarks_2d", len(d.Landmarks2D),
		"landmarks_3d", len(d.Landmarks3D))

	return &Result{
		Mode:        mode,
		Angles:      angles,
		Landmarks2D: payload2D(d.Landmarks2D),
		Landmarks3D: payload3D(d.Landmarks3D),
	}, nil
}

// Angles3D считает метрики по мировым точкам (метры).
//
// Каждый угол отсчитывается от единичной оси, приложенной к анатомической
// точке, и сворачивается в [0, 90]. Ротации и глубины переводятся в см.
func Angles3D(lms []Landmark) (AngleSet, error) {
	if len(lms) < requiredLandmarks {
		return nil, fmt.Errorf("%w: got %d 3D points, need %d", ErrIncompleteLandmarks, len(lms), requiredLandmarks)
	}

	leftShoulder := at(lms, LeftShoulder)
	rightShoulder := at(lms, RightShoulder)
	leftHip := at(lms, LeftHip)
	rightHip := at(lms, RightHip)
	nose := at(lms, Nose)

	shoulderMid := leftShoulder.Mid(rightShoulder)
	hipMid := leftHip.Mid(rightHip)
	earMid := at(lms, LeftEar).Mid(at(lms, RightEar))

	shoulderTilt := Angle(leftShoulder, rightShoulder, rightShoulder.Add(axisX))
	pelvicTilt := Angle(leftHip, rightHip, rightHip.Add(axisX))
	trunkInclination := Angle(shoulderMid, hipMid, hipMid.Add(axisY))
	headProtraction := Angle(nose, shoulderMid, shoulderMid.Add(axisZ))
	headTilt := Angle(nose, shoulderMid, shoulderMid.Add(axisY))

	return AngleSet{
		{ShoulderTiltDeg, Round2(AcuteFold(shoulderTilt))},
		{PelvicTiltDeg, Round2(AcuteFold(pelvicTilt))},
		{ShoulderRotationCm, Round2(math.Abs(leftShoulder.Z-rightShoulder.Z) * 100)},
		{PelvicRotationCm, Round2(math.Abs(leftHip.Z-rightHip.Z) * 100)},
		{HeadProtractionDeg, Round2(AcuteFold(headProtraction))},
		{HeadTiltDeg, Round2(AcuteFold(headTilt))},
		{TrunkInclinationDeg, Round2(AcuteFold(trunkInclination))},
		{ShoulderMidDepthCm, Round2(shoulderMid.Z * 100)},
		{EarMidDepthCm, Round2(earMid.Z * 100)},
	}, nil
}
