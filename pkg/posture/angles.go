package posture

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// Ключи метрик в порядке вывода.
const (
	ShoulderTiltDeg     = "shoulder_tilt_deg"
	PelvicTiltDeg       = "pelvic_tilt_deg"
	ShoulderRotationCm  = "shoulder_rotation_cm"
	PelvicRotationCm    = "pelvic_rotation_cm"
	HeadProtractionDeg  = "head_protraction_deg"
	HeadTiltDeg         = "head_tilt_deg"
	TrunkInclinationDeg = "trunk_inclination_deg"
	ShoulderMidDepthCm  = "shoulder_mid_z_cm"
	EarMidDepthCm       = "ear_mid_z_cm"
)

// MetricOrder — канонический порядок метрик.
var MetricOrder = []string{
	ShoulderTiltDeg,
	PelvicTiltDeg,
	ShoulderRotationCm,
	PelvicRotationCm,
	HeadProtractionDeg,
	HeadTiltDeg,
	TrunkInclinationDeg,
	ShoulderMidDepthCm,
	EarMidDepthCm,
}

// Metric — одна пара ключ/значение в AngleSet.
type Metric struct {
	Key   string
	Value float64
}

// AngleSet — упорядоченный набор метрик осанки.
//
// Порядок ключей сохраняется при сериализации, каждое значение
// печатается с двумя знаками после запятой.
type AngleSet []Metric

// Get возвращает значение метрики по ключу.
func (s AngleSet) Get(key string) (float64, bool) {
	for _, m := range s {
		if m.Key == key {
			return m.Value, true
		}
	}
	return 0, false
}

// Map возвращает копию набора в виде map (порядок теряется).
func (s AngleSet) Map() map[string]float64 {
	out := make(map[string]float64, len(s))
	for _, m := range s {
		out[m.Key] = m.Value
	}
	return out
}

// MarshalJSON сериализует набор как JSON объект с исходным порядком ключей.
func (s AngleSet) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, m := range s {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(m.Key)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.WriteString(strconv.FormatFloat(Round2(m.Value), 'f', 2, 64))
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON читает JSON объект, сохраняя порядок ключей.
// Значения null пропускаются.
func (s *AngleSet) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if tok == nil {
		*s = nil
		return nil
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("angle set: expected object, got %v", tok)
	}

	var out AngleSet
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		key, _ := keyTok.(string)

		var num *json.Number
		if err := dec.Decode(&num); err != nil {
			return fmt.Errorf("angle set: field %q: %w", key, err)
		}
		if num == nil {
			continue
		}
		v, err := num.Float64()
		if err != nil {
			return fmt.Errorf("angle set: field %q: %w", key, err)
		}
		out = append(out, Metric{Key: key, Value: v})
	}
	if _, err := dec.Token(); err != nil {
		return err
	}

	*s = out
	return nil
}
