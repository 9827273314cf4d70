package classifierHandler

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/sirupsen/logrus"

	classifierService "MemeShield/internal/api/classifier/service"
	"MemeShield/internal/middleware"
	"MemeShield/pkg/utils"
)

type ClassifierHandler struct {
	log               *logrus.Logger
	validator         *validator.Validate
	middleware        middleware.Middleware
	classifierService classifierService.IClassifierService
	utils             utils.IUtils
}

func New(
	log *logrus.Logger,
	validator *validator.Validate,
	middleware middleware.Middleware,
	cs classifierService.IClassifierService,
	utils utils.IUtils,
) *ClassifierHandler {
	return &ClassifierHandler{
		classifierService: cs,
		log:               log,
		validator:         validator,
		middleware:        middleware,
		utils:             utils,
	}
}

func (h *ClassifierHandler) Start(srv fiber.Router) {
	wsMiddleware := func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	}

	srv.Get("/", h.Index)
	srv.Get("/health", h.Health)
	srv.Get("/info", h.Info)

	srv.Post("/predict", h.middleware.NewRateLimiter, h.Predict)

	srv.Use("/predict/ws", wsMiddleware)
	srv.Get("/predict/ws", websocket.New(h.handlePredictWebSocket))
}
