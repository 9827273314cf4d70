package classifierHandler

import (
	"io"
	"time"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/net/context"

	"MemeShield/internal/api/classifier"
	"MemeShield/internal/entity"
	contextPkg "MemeShield/pkg/context"
	"MemeShield/pkg/handlerUtil"
	"MemeShield/pkg/log"
	"MemeShield/pkg/response"
)

const predictTimeout = 30 * time.Second

func (h *ClassifierHandler) Predict(ctx *fiber.Ctx) error {
	requestID := h.middleware.GetRequestID(ctx)
	c, cancel := context.WithTimeout(contextPkg.FromFiberCtx(ctx), predictTimeout)
	defer cancel()

	errHandler := handlerUtil.New(h.log)

	h.log.WithFields(log.Fields{
		"request_id": requestID,
		"path":       ctx.Path(),
	}).Debug("Processing meme classification request")

	var result *entity.ClassificationResult

	file, err := ctx.FormFile("image")
	if err == nil {
		h.log.WithFields(log.Fields{
			"request_id": requestID,
			"path":       ctx.Path(),
			"file_name":  file.Filename,
			"file_size":  file.Size,
		}).Debug("Processing file upload")

		if err := h.utils.ValidateImageFile(file); err != nil {
			return errHandler.Handle(ctx, requestID,
				response.NewError(fiber.StatusBadRequest, err.Error()), ctx.Path(), "validate_image_file")
		}

		fileContent, err := file.Open()
		if err != nil {
			return errHandler.Handle(ctx, requestID, err, ctx.Path(), "open_file")
		}
		defer fileContent.Close()

		raw, err := io.ReadAll(fileContent)
		if err != nil {
			return errHandler.Handle(ctx, requestID, err, ctx.Path(), "read_file")
		}

		result, err = h.classifierService.ClassifyBytes(c, raw)
		if err != nil {
			return errHandler.Handle(ctx, requestID, err, ctx.Path(), "classify_upload")
		}
	} else {
		h.log.WithFields(log.Fields{
			"request_id": requestID,
			"path":       ctx.Path(),
		}).Debug("Processing JSON request")

		var req classifier.PredictRequest
		if err := ctx.BodyParser(&req); err != nil {
			return errHandler.Handle(ctx, requestID, classifier.ErrNoImageProvided, ctx.Path(), "parse_request_body")
		}

		if err := h.validator.Struct(req); err != nil {
			return errHandler.Handle(ctx, requestID, classifier.ErrNoImageProvided, ctx.Path(), "validate_request_body")
		}

		result, err = h.classifierService.ClassifyBase64(c, req.Image)
		if err != nil {
			return errHandler.Handle(ctx, requestID, err, ctx.Path(), "classify_base64")
		}
	}

	select {
	case <-c.Done():
		return errHandler.HandleRequestTimeout(ctx)
	default:
		h.log.WithFields(log.Fields{
			"request_id":     requestID,
			"path":           ctx.Path(),
			"classification": result.Classification,
			"confidence":     result.Confidence,
			"detections":     len(result.Detections),
		}).Info("Meme classification successful")
		return errHandler.HandleSuccess(ctx, fiber.StatusOK, classifier.PredictResponse{
			Harmful:        result.Harmful,
			Confidence:     result.Confidence,
			Classification: result.Classification,
			Detections:     result.Detections,
			Message:        "Meme classified successfully",
		})
	}
}

// Health never fails; a detector that did not load is reported, not an error.
func (h *ClassifierHandler) Health(ctx *fiber.Ctx) error {
	return ctx.Status(fiber.StatusOK).JSON(classifier.HealthResponse{
		Status:      "healthy",
		ModelLoaded: h.classifierService.ModelLoaded(),
		Version:     classifier.Version,
	})
}

func (h *ClassifierHandler) Info(ctx *fiber.Ctx) error {
	return ctx.Status(fiber.StatusOK).JSON(classifier.InfoResponse{
		Model:               classifier.ModelName,
		Version:             classifier.Version,
		Description:         classifier.Description,
		ConfidenceThreshold: h.classifierService.ConfidenceThreshold(),
		Classes:             classifier.Classes,
		Endpoints: map[string]string{
			"/health":     "Health check",
			"/predict":    "Predict meme classification (POST)",
			"/predict/ws": "Streaming meme classification (WebSocket)",
			"/info":       "Model information (GET)",
		},
	})
}

func (h *ClassifierHandler) Index(ctx *fiber.Ctx) error {
	return ctx.Status(fiber.StatusOK).JSON(classifier.IndexResponse{
		Title:       "Harmful Meme Detection API",
		Description: "YOLOv5-based API for detecting harmful memes",
		Usage: classifier.Usage{
			Endpoint: "/predict",
			Method:   "POST",
			Body: classifier.UsageBody{
				Option1: `JSON with base64 image: {"image": "base64_string"}`,
				Option2: "Multipart form with image file upload",
			},
		},
		Response: map[string]string{
			"harmful":        "boolean",
			"confidence":     "float (0-1)",
			"classification": "string (harmful/normal)",
			"detections":     "array of detected objects",
		},
	})
}
