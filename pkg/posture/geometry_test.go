package posture

import (
	"encoding/json"
	"math/rand"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAngle(t *testing.T) {
	tests := []struct {
		name    string
		a, b, c Vec3
		want    float64
	}{
		{name: "right angle", a: Vec3{1, 0, 0}, b: Vec3{}, c: Vec3{0, 1, 0}, want: 90},
		{name: "straight line", a: Vec3{-1, 0, 0}, b: Vec3{}, c: Vec3{1, 0, 0}, want: 180},
		{name: "same direction", a: Vec3{2, 0, 0}, b: Vec3{}, c: Vec3{1, 0, 0}, want: 0},
		{name: "45 degrees off vertex", a: Vec3{2, 1, 1}, b: Vec3{1, 1, 1}, c: Vec3{2, 2, 1}, want: 45},
		{name: "collapsed ray BA", a: Vec3{1, 1, 1}, b: Vec3{1, 1, 1}, c: Vec3{2, 2, 2}, want: 0},
		{name: "collapsed ray BC", a: Vec3{0, 0, 0}, b: Vec3{1, 0, 0}, c: Vec3{1, 0, 1e-12}, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, Angle(tt.a, tt.b, tt.c), 1e-9)
		})
	}
}

func TestAngle_RangeOnRandomTriples(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	point := func() Vec3 {
		return Vec3{rng.Float64()*2 - 1, rng.Float64()*2 - 1, rng.Float64()*2 - 1}
	}

	for i := 0; i < 5000; i++ {
		got := Angle(point(), point(), point())
		require.GreaterOrEqual(t, got, 0.0)
		require.LessOrEqual(t, got, 180.0)
	}
}

func TestAcuteFold(t *testing.T) {
	for x := 0.0; x <= 180; x += 0.25 {
		once := AcuteFold(x)
		assert.GreaterOrEqual(t, once, 0.0)
		assert.LessOrEqual(t, once, 90.0)
		assert.Equal(t, once, AcuteFold(once), "fold must be idempotent at %v", x)
	}

	assert.Equal(t, 30.0, AcuteFold(150))
	assert.Equal(t, 90.0, AcuteFold(90))
}

func TestRound2(t *testing.T) {
	assert.Equal(t, 1.23, Round2(1.234))
	assert.Equal(t, 1.24, Round2(1.2351))
	assert.Equal(t, -12.5, Round2(-12.499))
	assert.Equal(t, "0", strconv.FormatFloat(Round2(-0.001), 'f', -1, 64))
}

func TestFixed2_MarshalJSON(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{1.5, "1.50"},
		{0, "0.00"},
		{-3.14159, "-3.14"},
		{89.999, "90.00"},
	}
	for _, tt := range tests {
		out, err := json.Marshal(Fixed2(tt.in))
		require.NoError(t, err)
		assert.Equal(t, tt.want, string(out))
	}
}

func TestPayload_TwoDecimals(t *testing.T) {
	p := payload3D([]Landmark{{X: 0.123456, Y: 1, Z: -0.5, Visibility: 0.999}})

	out, err := json.Marshal(p)
	require.NoError(t, err)
	assert.Equal(t, `[{"id":0,"x":0.12,"y":1.00,"z":-0.50,"visibility":1.00}]`, string(out))

	p2 := payload2D([]Landmark{{X: 0.5, Y: 0.25, Z: 0.7, Visibility: 0.5}})
	out, err = json.Marshal(p2)
	require.NoError(t, err)
	assert.False(t, strings.Contains(string(out), `"z"`))
}
