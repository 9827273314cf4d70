package detector

import (
	"MemeShield/internal/entity"

	"golang.org/x/net/context"
)

// Input is one staged image in the two forms backends consume: a transient
// JPEG on disk and the same encoded bytes in memory. The file is owned by
// the calling request and is gone once the request returns.
type Input struct {
	Path   string
	Bytes  []byte
	Width  int
	Height int
}

// Detector is the opaque detection capability: one image in, zero or more
// labeled, scored, localized objects out. Concrete backends are local ONNX
// weights, a remote inference sidecar, Gemini vision, or a test fake.
type Detector interface {
	Detect(ctx context.Context, in Input) ([]entity.Detection, error)
	Name() string
}
