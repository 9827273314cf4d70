package weights

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveLocalPathPassesThrough(t *testing.T) {
	path, err := Resolve("./models/yolov5s.onnx")
	require.NoError(t, err)
	assert.Equal(t, "./models/yolov5s.onnx", path)
}

func TestParseS3URL(t *testing.T) {
	bucket, key, err := parseS3URL("s3://models/checkpoints/yolov5s.onnx")
	require.NoError(t, err)
	assert.Equal(t, "models", bucket)
	assert.Equal(t, "checkpoints/yolov5s.onnx", key)
}

func TestParseS3URLInvalid(t *testing.T) {
	for _, raw := range []string{"s3://", "s3://bucket", "s3://bucket/", "s3:///key"} {
		_, _, err := parseS3URL(raw)
		assert.Error(t, err, raw)
	}
}
