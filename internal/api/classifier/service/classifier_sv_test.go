package classifierService

import (
	"bytes"
	"encoding/base64"
	"errors"
	"image"
	"image/png"
	"math/rand"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/context"

	"MemeShield/internal/api/classifier"
	"MemeShield/internal/entity"
	"MemeShield/pkg/detector"
	"MemeShield/pkg/log"
	"MemeShield/pkg/response"
	"MemeShield/pkg/utils"
)

type fakeDetector struct {
	detections []entity.Detection
	err        error
	gotPath    string
	gotBytes   []byte
}

func (f *fakeDetector) Detect(_ context.Context, in detector.Input) ([]entity.Detection, error) {
	f.gotPath = in.Path
	f.gotBytes = in.Bytes
	if f.err != nil {
		return nil, f.err
	}
	return f.detections, nil
}

func (f *fakeDetector) Name() string {
	return "fake"
}

func newTestService(det detector.Detector, threshold float64) IClassifierService {
	os.Setenv("APP_ENV", "test")
	return New(log.NewLogger(), det, utils.New(), threshold)
}

func pngBytes(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 8, 8))
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestAggregateEmptyList(t *testing.T) {
	result := aggregate(nil)

	assert.False(t, result.Harmful)
	assert.Equal(t, 0.0, result.Confidence)
	assert.Equal(t, "normal", result.Classification)
	assert.NotNil(t, result.Detections)
	assert.Empty(t, result.Detections)
}

func TestAggregateAllNormalLabels(t *testing.T) {
	result := aggregate([]entity.Detection{
		{Name: "normal_meme", Confidence: 0.95},
		{Name: "Normal_Background", Confidence: 0.80},
	})

	assert.False(t, result.Harmful)
	assert.Equal(t, 0.0, result.Confidence)
	assert.Equal(t, "normal", result.Classification)
}

func TestAggregateHarmfulLabelDominates(t *testing.T) {
	result := aggregate([]entity.Detection{
		{Name: "harmful_sticker", Confidence: 0.9},
		{Name: "background", Confidence: 0.4},
	})

	assert.True(t, result.Harmful)
	assert.Equal(t, "harmful", result.Classification)
	// ambiguous "background" contributes 0.4*0.7=0.28, must not lower the max
	assert.Equal(t, 0.9, result.Confidence)
}

func TestAggregateAmbiguousLabelDampened(t *testing.T) {
	result := aggregate([]entity.Detection{
		{Name: "sticker", Confidence: 0.8},
	})

	assert.True(t, result.Harmful)
	assert.Equal(t, "harmful", result.Classification)
	assert.InDelta(t, 0.56, result.Confidence, 1e-9)
}

func TestAggregateCaseInsensitive(t *testing.T) {
	result := aggregate([]entity.Detection{
		{Name: "HARMFUL_TEXT", Confidence: 0.7},
	})

	assert.True(t, result.Harmful)
	assert.Equal(t, 0.7, result.Confidence)
}

func TestAggregateHarmfulConfidenceAtLeastDetection(t *testing.T) {
	dets := []entity.Detection{
		{Name: "normal_face", Confidence: 0.99},
		{Name: "harmful_symbol", Confidence: 0.62},
		{Name: "text", Confidence: 0.5},
	}

	result := aggregate(dets)

	assert.True(t, result.Harmful)
	assert.GreaterOrEqual(t, result.Confidence, 0.62)
}

func TestAggregateOrderInvariant(t *testing.T) {
	dets := []entity.Detection{
		{Name: "harmful_sticker", Confidence: 0.9},
		{Name: "background", Confidence: 0.4},
		{Name: "normal_meme", Confidence: 0.99},
		{Name: "blob", Confidence: 0.95},
	}

	want := aggregate(dets)

	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 20; i++ {
		shuffled := make([]entity.Detection, len(dets))
		copy(shuffled, dets)
		rng.Shuffle(len(shuffled), func(a, b int) {
			shuffled[a], shuffled[b] = shuffled[b], shuffled[a]
		})

		got := aggregate(shuffled)
		assert.Equal(t, want.Harmful, got.Harmful)
		assert.Equal(t, want.Confidence, got.Confidence)
		assert.Equal(t, want.Classification, got.Classification)
	}
}

func TestFilterByConfidence(t *testing.T) {
	dets := []entity.Detection{
		{Name: "harmful_a", Confidence: 0.9},
		{Name: "harmful_b", Confidence: 0.3},
		{Name: "normal_c", Confidence: 0.5},
	}

	filtered := filterByConfidence(dets, 0.5)

	require.Len(t, filtered, 2)
	assert.Equal(t, "harmful_a", filtered[0].Name)
	assert.Equal(t, "normal_c", filtered[1].Name)
}

func TestClassifyBytesModelNotLoaded(t *testing.T) {
	svc := newTestService(nil, 0.5)

	_, err := svc.ClassifyBytes(context.Background(), pngBytes(t))

	require.Error(t, err)
	assert.ErrorIs(t, err, classifier.ErrModelNotLoaded)
	assert.Equal(t, "Model not loaded", err.Error())
}

func TestClassifyBytesInvalidImage(t *testing.T) {
	svc := newTestService(&fakeDetector{}, 0.5)

	_, err := svc.ClassifyBytes(context.Background(), []byte("not an image"))

	require.Error(t, err)
	var respErr *response.Error
	require.ErrorAs(t, err, &respErr)
	assert.Equal(t, 400, respErr.Code)
}

func TestClassifyBase64InvalidEncoding(t *testing.T) {
	svc := newTestService(&fakeDetector{}, 0.5)

	_, err := svc.ClassifyBase64(context.Background(), "!!!not-base64!!!")

	require.Error(t, err)
	var respErr *response.Error
	require.ErrorAs(t, err, &respErr)
	assert.Equal(t, 400, respErr.Code)
}

func TestClassifyBytesStagesAndCleansUpTempFile(t *testing.T) {
	det := &fakeDetector{detections: []entity.Detection{
		{Name: "harmful_text", Confidence: 0.88},
	}}
	svc := newTestService(det, 0.5)

	result, err := svc.ClassifyBytes(context.Background(), pngBytes(t))
	require.NoError(t, err)

	assert.True(t, result.Harmful)
	assert.Equal(t, 0.88, result.Confidence)

	require.NotEmpty(t, det.gotPath)
	require.NotEmpty(t, det.gotBytes)
	_, statErr := os.Stat(det.gotPath)
	assert.True(t, os.IsNotExist(statErr), "staged file must be removed after classification")
}

func TestClassifyBytesCleansUpTempFileOnDetectorError(t *testing.T) {
	det := &fakeDetector{err: errors.New("inference exploded")}
	svc := newTestService(det, 0.5)

	_, err := svc.ClassifyBytes(context.Background(), pngBytes(t))
	require.Error(t, err)

	var respErr *response.Error
	require.ErrorAs(t, err, &respErr)
	assert.Equal(t, 500, respErr.Code)
	assert.Equal(t, "inference exploded", err.Error())

	require.NotEmpty(t, det.gotPath)
	_, statErr := os.Stat(det.gotPath)
	assert.True(t, os.IsNotExist(statErr), "staged file must be removed on failure paths too")
}

func TestClassifyBytesDetectorTimeout(t *testing.T) {
	det := &fakeDetector{err: context.DeadlineExceeded}
	svc := newTestService(det, 0.5)

	_, err := svc.ClassifyBytes(context.Background(), pngBytes(t))

	require.Error(t, err)
	assert.ErrorIs(t, err, classifier.ErrDetectorTimeout)
}

func TestClassifyBytesAppliesThresholdBeforeAggregation(t *testing.T) {
	det := &fakeDetector{detections: []entity.Detection{
		{Name: "harmful_text", Confidence: 0.2},
		{Name: "normal_meme", Confidence: 0.9},
	}}
	svc := newTestService(det, 0.5)

	result, err := svc.ClassifyBytes(context.Background(), pngBytes(t))
	require.NoError(t, err)

	// the harmful detection is below the threshold, only normal survives
	assert.False(t, result.Harmful)
	assert.Equal(t, "normal", result.Classification)
	assert.Len(t, result.Detections, 1)
}

func TestClassifyBase64MatchesClassifyBytes(t *testing.T) {
	det := &fakeDetector{detections: []entity.Detection{
		{Name: "harmful_sticker", Confidence: 0.9},
	}}
	svc := newTestService(det, 0.5)

	raw := pngBytes(t)

	fromBytes, err := svc.ClassifyBytes(context.Background(), raw)
	require.NoError(t, err)

	fromBase64, err := svc.ClassifyBase64(context.Background(), base64.StdEncoding.EncodeToString(raw))
	require.NoError(t, err)

	assert.Equal(t, fromBytes, fromBase64)
}
