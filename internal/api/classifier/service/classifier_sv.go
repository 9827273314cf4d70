package classifierService

import (
	"errors"
	"math"
	"net/http"
	"strings"

	"golang.org/x/net/context"

	"MemeShield/internal/api/classifier"
	"MemeShield/internal/entity"
	"MemeShield/pkg/detector"
	"MemeShield/pkg/log"
	"MemeShield/pkg/response"
)

func (s *classifierService) ClassifyBase64(ctx context.Context, base64Image string) (*entity.ClassificationResult, error) {
	raw, err := s.utils.DecodeBase64Image(base64Image)
	if err != nil {
		return nil, response.NewError(http.StatusBadRequest, err.Error())
	}

	return s.ClassifyBytes(ctx, raw)
}

func (s *classifierService) ClassifyBytes(ctx context.Context, raw []byte) (*entity.ClassificationResult, error) {
	if s.detector == nil {
		return nil, classifier.ErrModelNotLoaded
	}

	img, err := s.utils.NormalizeImage(raw)
	if err != nil {
		return nil, response.NewError(http.StatusBadRequest, err.Error())
	}

	jpegBytes, err := s.utils.EncodeJPEG(img)
	if err != nil {
		return nil, response.NewError(http.StatusInternalServerError, err.Error())
	}

	path, release, err := s.utils.StageImage(img)
	if err != nil {
		return nil, response.NewError(http.StatusInternalServerError, err.Error())
	}
	defer release()

	bounds := img.Bounds()
	detections, err := s.detector.Detect(ctx, detector.Input{
		Path:   path,
		Bytes:  jpegBytes,
		Width:  bounds.Dx(),
		Height: bounds.Dy(),
	})
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, classifier.ErrDetectorTimeout
		}
		return nil, response.NewError(http.StatusInternalServerError, err.Error())
	}

	detections = filterByConfidence(detections, s.confidenceThreshold)

	s.log.WithFields(log.Fields{
		"detector":   s.detector.Name(),
		"detections": len(detections),
	}).Debug("Inference complete")

	result := aggregate(detections)
	return &result, nil
}

// aggregate reduces a detection list to the binary verdict. A label
// containing "harmful" counts at full confidence; a label containing
// neither "harmful" nor "normal" is treated as suspicious at 0.7 of its
// confidence. Pure max-reduction, so the result does not depend on the
// order the detector emitted the boxes in.
func aggregate(detections []entity.Detection) entity.ClassificationResult {
	harmful := false
	confidence := 0.0

	for _, d := range detections {
		name := strings.ToLower(d.Name)
		switch {
		case strings.Contains(name, "harmful"):
			harmful = true
			confidence = math.Max(confidence, d.Confidence)
		case !strings.Contains(name, "normal"):
			harmful = true
			confidence = math.Max(confidence, d.Confidence*0.7)
		}
	}

	classification := "normal"
	if harmful {
		classification = "harmful"
	}

	if detections == nil {
		detections = []entity.Detection{}
	}

	return entity.ClassificationResult{
		Harmful:        harmful,
		Confidence:     confidence,
		Classification: classification,
		Detections:     detections,
	}
}

func filterByConfidence(detections []entity.Detection, threshold float64) []entity.Detection {
	filtered := make([]entity.Detection, 0, len(detections))
	for _, d := range detections {
		if d.Confidence >= threshold {
			filtered = append(filtered, d)
		}
	}
	return filtered
}
