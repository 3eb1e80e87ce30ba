package posture

import (
	"math"
	"strconv"
)

// degenerateNorm — длина луча, ниже которой угол считается нулевым.
const degenerateNorm = 1e-9

// Vec3 — вектор в трёхмерном пространстве.
type Vec3 struct {
	X, Y, Z float64
}

var (
	axisX = Vec3{1, 0, 0}
	axisY = Vec3{0, 1, 0}
	axisZ = Vec3{0, 0, 1}
)

func (v Vec3) Add(o Vec3) Vec3 { return Vec3{v.X + o.X, v.Y + o.Y, v.Z + o.Z} }

func (v Vec3) Sub(o Vec3) Vec3 { return Vec3{v.X - o.X, v.Y - o.Y, v.Z - o.Z} }

func (v Vec3) Dot(o Vec3) float64 { return v.X*o.X + v.Y*o.Y + v.Z*o.Z }

func (v Vec3) Norm() float64 { return math.Sqrt(v.Dot(v)) }

// Mid возвращает середину отрезка v-o.
func (v Vec3) Mid(o Vec3) Vec3 {
	return Vec3{(v.X + o.X) / 2, (v.Y + o.Y) / 2, (v.Z + o.Z) / 2}
}

// Angle возвращает угол ABC в градусах, [0, 180].
// Если один из лучей BA или BC короче 1e-9, угол равен 0.
func Angle(a, b, c Vec3) float64 {
	ba := a.Sub(b)
	bc := c.Sub(b)

	baNorm, bcNorm := ba.Norm(), bc.Norm()
	if baNorm < degenerateNorm || bcNorm < degenerateNorm {
		return 0
	}

	cos := ba.Dot(bc) / (baNorm * bcNorm)
	cos = math.Max(-1, math.Min(1, cos))
	return math.Acos(cos) * 180 / math.Pi
}

// AcuteFold сворачивает угол [0, 180] в [0, 90]: min(x, 180-x).
// Линия тела не имеет направления, поэтому x и 180-x эквивалентны.
func AcuteFold(deg float64) float64 {
	return math.Min(deg, 180-deg)
}

// Round2 округляет до двух знаков после запятой (половина от нуля).
func Round2(v float64) float64 {
	r := math.Round(v*100) / 100
	if r == 0 {
		return 0 // без -0
	}
	return r
}

// Fixed2 — число, которое в JSON всегда печатается с двумя знаками.
type Fixed2 float64

// MarshalJSON печатает значение в формате 12.30.
func (f Fixed2) MarshalJSON() ([]byte, error) {
	return strconv.AppendFloat(nil, Round2(float64(f)), 'f', 2, 64), nil
}
