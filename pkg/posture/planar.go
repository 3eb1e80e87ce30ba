package posture

import (
	"fmt"
	"math"
)

// planarEpsilon заменяет нулевую ширину плеч в знаменателе.
const planarEpsilon = 1e-6

// Angles2D считает приближённые метрики по точкам кадра.
//
// Наклоны считаются как угол линии к горизонтали или вертикали кадра,
// протракция головы — как atan отношения горизонтального выноса носа
// к ширине плеч. Значения head_protraction_deg в 2-D и 3-D режимах
// не сопоставимы между собой.
func Angles2D(lms []Landmark) (AngleSet, error) {
	if len(lms) < requiredLandmarks {
		return nil, fmt.Errorf("%w: got %d 2D points, need %d", ErrIncompleteLandmarks, len(lms), requiredLandmarks)
	}

	leftShoulder := at(lms, LeftShoulder)
	rightShoulder := at(lms, RightShoulder)
	leftHip := at(lms, LeftHip)
	rightHip := at(lms, RightHip)
	nose := at(lms, Nose)

	shoulderMid := leftShoulder.Mid(rightShoulder)
	hipMid := leftHip.Mid(rightHip)
	earMid := at(lms, LeftEar).Mid(at(lms, RightEar))

	shoulderWidth := math.Hypot(leftShoulder.X-rightShoulder.X, leftShoulder.Y-rightShoulder.Y)
	if shoulderWidth < planarEpsilon {
		shoulderWidth = planarEpsilon
	}
	headProtraction := math.Atan(math.Abs(nose.X-shoulderMid.X)/shoulderWidth) * 180 / math.Pi

	return AngleSet{
		{ShoulderTiltDeg, Round2(fromHorizontal(rightShoulder, leftShoulder))},
		{PelvicTiltDeg, Round2(fromHorizontal(rightHip, leftHip))},
		{ShoulderRotationCm, Round2(math.Abs(leftShoulder.Z-rightShoulder.Z) * 100)},
		{PelvicRotationCm, Round2(math.Abs(leftHip.Z-rightHip.Z) * 100)},
		{HeadProtractionDeg, Round2(headProtraction)},
		{HeadTiltDeg, Round2(fromVertical(shoulderMid, nose))},
		{TrunkInclinationDeg, Round2(fromVertical(hipMid, shoulderMid))},
		{ShoulderMidDepthCm, Round2(shoulderMid.Z * 100)},
		{EarMidDepthCm, Round2(earMid.Z * 100)},
	}, nil
}

// fromHorizontal — угол линии a-b к горизонтали кадра, [0, 90].
func fromHorizontal(a, b Vec3) float64 {
	deg := math.Abs(math.Atan2(b.Y-a.Y, b.X-a.X)) * 180 / math.Pi
	return AcuteFold(deg)
}

// fromVertical — угол линии a-b к вертикали кадра, [0, 90].
func fromVertical(a, b Vec3) float64 {
	deg := math.Abs(math.Atan2(b.X-a.X, b.Y-a.Y)) * 180 / math.Pi
	return AcuteFold(deg)
}
