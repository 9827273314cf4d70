package classifierService

import (
	"github.com/sirupsen/logrus"
	"golang.org/x/net/context"

	"MemeShield/internal/entity"
	"MemeShield/pkg/detector"
	"MemeShield/pkg/utils"
)

type IClassifierService interface {
	ClassifyBase64(ctx context.Context, base64Image string) (*entity.ClassificationResult, error)
	ClassifyBytes(ctx context.Context, raw []byte) (*entity.ClassificationResult, error)
	ModelLoaded() bool
	ConfidenceThreshold() float64
	DetectorName() string
}

type classifierService struct {
	log                 *logrus.Logger
	detector            detector.Detector
	utils               utils.IUtils
	confidenceThreshold float64
}

// New builds the classification service. det may be nil when the detector
// failed to initialize at startup; the service then rejects predictions
// with ErrModelNotLoaded while the rest of the API keeps serving.
func New(
	log *logrus.Logger,
	det detector.Detector,
	utils utils.IUtils,
	confidenceThreshold float64,
) IClassifierService {
	return &classifierService{
		log:                 log,
		detector:            det,
		utils:               utils,
		confidenceThreshold: confidenceThreshold,
	}
}

func (s *classifierService) ModelLoaded() bool {
	return s.detector != nil
}

func (s *classifierService) ConfidenceThreshold() float64 {
	return s.confidenceThreshold
}

func (s *classifierService) DetectorName() string {
	if s.detector == nil {
		return "none"
	}
	return s.detector.Name()
}
