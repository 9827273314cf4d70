package classifier

import "MemeShield/internal/entity"

const (
	Version     = "1.0.0"
	ModelName   = "YOLOv5 Harmful Meme Detector"
	Description = "Detects whether a meme is harmful or normal"
)

// Classes the detector is expected to report, in wire order.
var Classes = []string{"harmful", "normal"}

type PredictRequest struct {
	Image string `json:"image" validate:"required"`
}

type PredictResponse struct {
	Harmful        bool               `json:"harmful"`
	Confidence     float64            `json:"confidence"`
	Classification string             `json:"classification"`
	Detections     []entity.Detection `json:"detections"`
	Message        string             `json:"message"`
}

type HealthResponse struct {
	Status      string `json:"status"`
	ModelLoaded bool   `json:"model_loaded"`
	Version     string `json:"version"`
}

type InfoResponse struct {
	Model               string            `json:"model"`
	Version             string            `json:"version"`
	Description         string            `json:"description"`
	ConfidenceThreshold float64           `json:"confidence_threshold"`
	Classes             []string          `json:"classes"`
	Endpoints           map[string]string `json:"endpoints"`
}

type UsageBody struct {
	Option1 string `json:"option1"`
	Option2 string `json:"option2"`
}

type Usage struct {
	Endpoint string    `json:"endpoint"`
	Method   string    `json:"method"`
	Body     UsageBody `json:"body"`
}

type IndexResponse struct {
	Title       string            `json:"title"`
	Description string            `json:"description"`
	Usage       Usage             `json:"usage"`
	Response    map[string]string `json:"response"`
}
