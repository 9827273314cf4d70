package gemini

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDetections(t *testing.T) {
	response := "Here is what I found:\n" +
		`[{"name": "harmful_text", "confidence": 0.92, "xmin": 10, "ymin": 20, "xmax": 300, "ymax": 120}]` +
		"\nLet me know if you need more."

	dets, err := parseDetections(response)
	require.NoError(t, err)
	require.Len(t, dets, 1)
	assert.Equal(t, "harmful_text", dets[0].Name)
	assert.Equal(t, 0.92, dets[0].Confidence)
	assert.Equal(t, 10.0, dets[0].XMin)
}

func TestParseDetectionsEmptyArray(t *testing.T) {
	dets, err := parseDetections("[]")
	require.NoError(t, err)
	assert.Empty(t, dets)
}

func TestParseDetectionsClampsConfidence(t *testing.T) {
	dets, err := parseDetections(`[{"name": "a", "confidence": 1.7}, {"name": "b", "confidence": -0.2}]`)
	require.NoError(t, err)
	require.Len(t, dets, 2)
	assert.Equal(t, 1.0, dets[0].Confidence)
	assert.Equal(t, 0.0, dets[1].Confidence)
}

func TestParseDetectionsNoJSON(t *testing.T) {
	_, err := parseDetections("I could not analyze this image.")
	assert.Error(t, err)
}

func TestParseDetectionsMalformedJSON(t *testing.T) {
	_, err := parseDetections(`[{"name": }]`)
	assert.Error(t, err)
}
