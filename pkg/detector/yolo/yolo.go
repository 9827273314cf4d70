package yolo

import (
	"errors"
	"fmt"
	"image"
	"os"
	"sync"

	"gocv.io/x/gocv"
	"golang.org/x/net/context"

	"MemeShield/internal/entity"
	"MemeShield/pkg/detector"
)

const (
	inputSize              = 640
	defaultNmsIouThreshold = 0.45
)

type Config struct {
	ModelPath           string
	Names               []string
	ConfidenceThreshold float64
	NmsIouThreshold     float64
}

// Detector runs a YOLOv5 ONNX checkpoint through the OpenCV DNN module.
// Forward passes are serialized; gocv.Net is not safe for concurrent use.
type Detector struct {
	cfg Config
	net gocv.Net
	mu  sync.Mutex
}

func New(cfg Config) (*Detector, error) {
	if cfg.ModelPath == "" {
		return nil, errors.New("model path is required")
	}
	if len(cfg.Names) == 0 {
		cfg.Names = []string{"harmful", "normal"}
	}
	if cfg.NmsIouThreshold == 0 {
		cfg.NmsIouThreshold = defaultNmsIouThreshold
	}

	if _, err := os.Stat(cfg.ModelPath); err != nil {
		return nil, fmt.Errorf("model weights not found at %s: %w", cfg.ModelPath, err)
	}

	net := gocv.ReadNetFromONNX(cfg.ModelPath)
	if net.Empty() {
		return nil, fmt.Errorf("failed to load ONNX model from %s", cfg.ModelPath)
	}

	if err := net.SetPreferableBackend(gocv.NetBackendDefault); err != nil {
		net.Close()
		return nil, err
	}
	if err := net.SetPreferableTarget(gocv.NetTargetCPU); err != nil {
		net.Close()
		return nil, err
	}

	return &Detector{cfg: cfg, net: net}, nil
}

func (d *Detector) Name() string {
	return "yolo"
}

func (d *Detector) Close() error {
	return d.net.Close()
}

func (d *Detector) Detect(ctx context.Context, in detector.Input) ([]entity.Detection, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	img := gocv.IMRead(in.Path, gocv.IMReadColor)
	if img.Empty() {
		return nil, fmt.Errorf("cannot read staged image at %s", in.Path)
	}
	defer img.Close()

	origW := img.Cols()
	origH := img.Rows()

	blob := gocv.BlobFromImage(img, 1.0/255.0, image.Pt(inputSize, inputSize),
		gocv.NewScalar(0, 0, 0, 0), true, false)
	defer blob.Close()

	d.mu.Lock()
	d.net.SetInput(blob, "")
	output := d.net.Forward("")
	d.mu.Unlock()
	defer output.Close()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := output.DataPtrFloat32()
	if err != nil {
		return nil, fmt.Errorf("unexpected network output: %w", err)
	}

	dims := output.Size()
	if len(dims) != 3 {
		return nil, fmt.Errorf("unexpected network output shape %v", dims)
	}

	preds := decodePredictions(data, dims[1], dims[2], origW, origH,
		d.cfg.Names, d.cfg.ConfidenceThreshold)

	return nonMaxSuppression(preds, d.cfg.NmsIouThreshold), nil
}
