package gemini

import (
	"encoding/json"
	"errors"
	"os"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"golang.org/x/net/context"
	"google.golang.org/api/option"

	"MemeShield/internal/entity"
	"MemeShield/pkg/detector"
)

const detectionPrompt = `
Analyze this meme image for harmful content (hate speech, violence, explicit
imagery, targeted harassment). Report every region you detect as an entry in
a JSON array. Label a region "harmful_<kind>" when it is harmful and
"normal_<kind>" when it is benign.

Desired output format:
[
	{"name": "harmful_text", "confidence": 0.92, "xmin": 10, "ymin": 20, "xmax": 300, "ymax": 120},
	{"name": "normal_background", "confidence": 0.80, "xmin": 0, "ymin": 0, "xmax": 640, "ymax": 480}
]

Confidence must be between 0 and 1 and coordinates must be pixel values.
Return ONLY the JSON array, no extra text. Return [] if nothing is detected.
`

// Detector asks Gemini vision for a labeled detection list. It fills the
// same capability as the local YOLO backend for deployments without model
// weights on disk.
type Detector struct {
	client    *genai.Client
	modelName string
}

func New() (*Detector, error) {
	apiKey := os.Getenv("GEMINI_API_KEY")
	if apiKey == "" {
		return nil, errors.New("gemini API key is required")
	}

	modelName := os.Getenv("GEMINI_MODEL_NAME")
	if modelName == "" {
		modelName = "gemini-pro-vision"
	}

	client, err := genai.NewClient(context.Background(), option.WithAPIKey(apiKey))
	if err != nil {
		return nil, err
	}

	return &Detector{
		client:    client,
		modelName: modelName,
	}, nil
}

func (d *Detector) Name() string {
	return "gemini"
}

func (d *Detector) Detect(ctx context.Context, in detector.Input) ([]entity.Detection, error) {
	model := d.client.GenerativeModel(d.modelName)

	img := genai.ImageData("image/jpeg", in.Bytes)
	res, err := model.GenerateContent(ctx, genai.Text(detectionPrompt), img)
	if err != nil {
		return nil, err
	}

	if len(res.Candidates) == 0 || len(res.Candidates[0].Content.Parts) == 0 {
		return nil, errors.New("no response from Gemini API")
	}

	text, ok := res.Candidates[0].Content.Parts[0].(genai.Text)
	if !ok {
		return nil, errors.New("unexpected response format from Gemini API")
	}

	return parseDetections(string(text))
}

func parseDetections(response string) ([]entity.Detection, error) {
	jsonStart := strings.Index(response, "[")
	jsonEnd := strings.LastIndex(response, "]")

	if jsonStart == -1 || jsonEnd == -1 || jsonEnd <= jsonStart {
		return nil, errors.New("cannot find valid JSON in response")
	}

	var detections []entity.Detection
	if err := json.Unmarshal([]byte(response[jsonStart:jsonEnd+1]), &detections); err != nil {
		return nil, err
	}

	for i := range detections {
		if detections[i].Confidence < 0 {
			detections[i].Confidence = 0
		}
		if detections[i].Confidence > 1 {
			detections[i].Confidence = 1
		}
	}

	return detections, nil
}

func (d *Detector) Close() {
	if d.client != nil {
		d.client.Close()
	}
}
