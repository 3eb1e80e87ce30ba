package clinical

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeInterpretation(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    Interpretation
	}{
		{
			name:    "well formed",
			content: `{"detected_deviations":["Forward head","Pelvic tilt"],"clinical_analysis":"Mild."}`,
			want:    Interpretation{DetectedDeviations: []string{"Forward head", "Pelvic tilt"}, ClinicalAnalysis: "Mild."},
		},
		{
			name:    "empty output is an empty object",
			content: "",
			want:    Interpretation{DetectedDeviations: []string{}},
		},
		{
			name:    "deviations not a list",
			content: `{"detected_deviations":"Forward head","clinical_analysis":"ok"}`,
			want:    Interpretation{DetectedDeviations: []string{}, ClinicalAnalysis: "ok"},
		},
		{
			name:    "analysis not a string",
			content: `{"detected_deviations":["a"],"clinical_analysis":{"text":"x"}}`,
			want:    Interpretation{DetectedDeviations: []string{"a"}},
		},
		{
			name:    "non-string list items dropped",
			content: `{"detected_deviations":["a", 3, null, {"b":1}, "c"]}`,
			want:    Interpretation{DetectedDeviations: []string{"a", "c"}},
		},
		{
			name:    "blank labels kept as is",
			content: `{"detected_deviations":["a", "", "  ", " Forward head "]}`,
			want:    Interpretation{DetectedDeviations: []string{"a", "", "  ", " Forward head "}},
		},
		{
			name:    "fenced output",
			content: "```json\n{\"clinical_analysis\":\"fenced\"}\n```",
			want:    Interpretation{DetectedDeviations: []string{}, ClinicalAnalysis: "fenced"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodeInterpretation(tt.content)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDecodeInterpretation_NotJSON(t *testing.T) {
	_, err := DecodeInterpretation("the patient looks fine")
	assert.Error(t, err)

	_, err = DecodeInterpretation(`["a","b"]`)
	assert.Error(t, err)
}
