package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"

	classifierHandler "MemeShield/internal/api/classifier/handler"
	classifierService "MemeShield/internal/api/classifier/service"
	"MemeShield/internal/middleware"
	"MemeShield/pkg/detector"
	geminiDetector "MemeShield/pkg/detector/gemini"
	remoteDetector "MemeShield/pkg/detector/remote"
	yoloDetector "MemeShield/pkg/detector/yolo"
	"MemeShield/pkg/utils"
	"MemeShield/pkg/weights"
)

const (
	defaultPort                = "5000"
	defaultModelPath           = "yolov5s.onnx"
	defaultConfidenceThreshold = 0.5
)

type ServerOption func(*Server) error

type Server struct {
	engine              *fiber.App
	log                 *logrus.Logger
	middleware          middleware.Middleware
	validator           *validator.Validate
	utils               utils.IUtils
	handlers            []handler
	detector            detector.Detector
	confidenceThreshold float64
}

type handler interface {
	Start(srv fiber.Router)
}

func NewServer(options ...ServerOption) (*Server, error) {
	server := &Server{}

	for _, option := range options {
		if err := option(server); err != nil {
			return nil, fmt.Errorf("failed to apply option: %w", err)
		}
	}

	if server.engine == nil {
		return nil, fmt.Errorf("fiber app is required")
	}
	if server.log == nil {
		return nil, fmt.Errorf("logger is required")
	}

	return server, nil
}

func WithFiber(fiberApp *fiber.App) ServerOption {
	return func(s *Server) error {
		s.engine = fiberApp
		return nil
	}
}

func WithLogger(logger *logrus.Logger) ServerOption {
	return func(s *Server) error {
		s.log = logger
		return nil
	}
}

func WithValidator(validator *validator.Validate) ServerOption {
	return func(s *Server) error {
		s.validator = validator
		return nil
	}
}

func WithMiddleware() ServerOption {
	return func(s *Server) error {
		if s.log == nil {
			return fmt.Errorf("logger must be initialized before middleware")
		}
		s.middleware = middleware.New(s.log)
		return nil
	}
}

func WithUtils() ServerOption {
	return func(s *Server) error {
		s.utils = utils.New()
		return nil
	}
}

// WithDetector initializes the configured detection backend. Failure is not
// fatal: the handle stays unset, /health reports model_loaded:false and
// /predict answers "Model not loaded" until the process is restarted with a
// working backend.
func WithDetector() ServerOption {
	return func(s *Server) error {
		s.confidenceThreshold = confidenceThresholdFromEnv()

		backend := os.Getenv("DETECTOR_BACKEND")
		if backend == "" {
			backend = "yolo"
		}

		det, err := buildDetector(backend, s.confidenceThreshold)
		if err != nil {
			if s.log != nil {
				s.log.Errorf("Failed to load detector backend %q: %v. Starting without model - predictions will fail", backend, err)
			}
			return nil
		}

		if s.log != nil {
			s.log.Infof("Detector backend %q loaded successfully", det.Name())
		}
		s.detector = det
		return nil
	}
}

func buildDetector(backend string, confidenceThreshold float64) (detector.Detector, error) {
	switch backend {
	case "yolo":
		modelPath := os.Getenv("MODEL_PATH")
		if modelPath == "" {
			modelPath = defaultModelPath
		}

		localPath, err := weights.Resolve(modelPath)
		if err != nil {
			return nil, err
		}

		return yoloDetector.New(yoloDetector.Config{
			ModelPath:           localPath,
			Names:               classNamesFromEnv(),
			ConfidenceThreshold: confidenceThreshold,
		})
	case "remote":
		return remoteDetector.New()
	case "gemini":
		return geminiDetector.New()
	default:
		return nil, fmt.Errorf("unknown detector backend %q", backend)
	}
}

func confidenceThresholdFromEnv() float64 {
	raw := os.Getenv("CONFIDENCE_THRESHOLD")
	if raw == "" {
		return defaultConfidenceThreshold
	}

	threshold, err := strconv.ParseFloat(raw, 64)
	if err != nil || threshold < 0 || threshold > 1 {
		return defaultConfidenceThreshold
	}
	return threshold
}

func classNamesFromEnv() []string {
	raw := os.Getenv("MODEL_CLASSES")
	if raw == "" {
		return nil
	}

	var names []string
	for _, name := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(name); trimmed != "" {
			names = append(names, trimmed)
		}
	}
	return names
}

func (s *Server) RegisterHandler() {
	classifierServices := classifierService.New(s.log, s.detector, s.utils, s.confidenceThreshold)
	classifierHandlers := classifierHandler.New(s.log, s.validator, s.middleware, classifierServices, s.utils)

	s.handlers = append(s.handlers, classifierHandlers)
}

func (s *Server) Run() error {
	s.engine.Use(s.middleware.NewRequestIDMiddleware())
	s.engine.Use(middleware.LoggerConfig())

	for _, h := range s.handlers {
		h.Start(s.engine)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = defaultPort
	}

	return s.engine.Listen(fmt.Sprintf(":%s", port))
}
