package entity

// Detection is one labeled, scored, localized object returned by the
// detector for a single image. Field names follow the YOLOv5 record layout
// so the wire format stays compatible with existing clients.
type Detection struct {
	Name       string  `json:"name"`
	Class      int     `json:"class"`
	Confidence float64 `json:"confidence"`
	XMin       float64 `json:"xmin"`
	YMin       float64 `json:"ymin"`
	XMax       float64 `json:"xmax"`
	YMax       float64 `json:"ymax"`
}

// ClassificationResult is the binary verdict derived from a detection list.
// It lives for one request/response cycle and is never persisted.
type ClassificationResult struct {
	Harmful        bool        `json:"harmful"`
	Confidence     float64     `json:"confidence"`
	Classification string      `json:"classification"`
	Detections     []Detection `json:"detections"`
}
