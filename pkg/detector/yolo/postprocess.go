package yolo

import (
	"fmt"
	"sort"

	"MemeShield/internal/entity"
)

// decodePredictions turns the raw [rows x step] YOLOv5 output tensor into
// detections in original-image coordinates. Each row is
// [cx, cy, w, h, objectness, class scores...] in network input space.
func decodePredictions(data []float32, rows, step, origW, origH int, names []string, confThreshold float64) []entity.Detection {
	if step < 6 || len(data) < rows*step {
		return nil
	}

	scaleX := float64(origW) / float64(inputSize)
	scaleY := float64(origH) / float64(inputSize)

	var out []entity.Detection
	for i := 0; i < rows; i++ {
		row := data[i*step : (i+1)*step]

		obj := float64(row[4])
		if obj <= 0 {
			continue
		}

		best := 0
		bestScore := float64(row[5])
		for c := 1; c < step-5; c++ {
			if float64(row[5+c]) > bestScore {
				best = c
				bestScore = float64(row[5+c])
			}
		}

		conf := obj * bestScore
		if conf < confThreshold {
			continue
		}

		cx := float64(row[0]) * scaleX
		cy := float64(row[1]) * scaleY
		w := float64(row[2]) * scaleX
		h := float64(row[3]) * scaleY

		out = append(out, entity.Detection{
			Name:       className(names, best),
			Class:      best,
			Confidence: conf,
			XMin:       clamp(cx-w/2, 0, float64(origW)),
			YMin:       clamp(cy-h/2, 0, float64(origH)),
			XMax:       clamp(cx+w/2, 0, float64(origW)),
			YMax:       clamp(cy+h/2, 0, float64(origH)),
		})
	}

	return out
}

// nonMaxSuppression greedily keeps the highest-confidence detection and
// drops any same-class box overlapping it beyond iouThreshold.
func nonMaxSuppression(dets []entity.Detection, iouThreshold float64) []entity.Detection {
	if len(dets) < 2 {
		return dets
	}

	sorted := make([]entity.Detection, len(dets))
	copy(sorted, dets)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Confidence > sorted[j].Confidence
	})

	var kept []entity.Detection
	suppressed := make([]bool, len(sorted))
	for i := range sorted {
		if suppressed[i] {
			continue
		}
		kept = append(kept, sorted[i])
		for j := i + 1; j < len(sorted); j++ {
			if suppressed[j] || sorted[j].Class != sorted[i].Class {
				continue
			}
			if iou(sorted[i], sorted[j]) > iouThreshold {
				suppressed[j] = true
			}
		}
	}

	return kept
}

func iou(a, b entity.Detection) float64 {
	interW := min(a.XMax, b.XMax) - max(a.XMin, b.XMin)
	interH := min(a.YMax, b.YMax) - max(a.YMin, b.YMin)
	if interW <= 0 || interH <= 0 {
		return 0
	}

	inter := interW * interH
	areaA := (a.XMax - a.XMin) * (a.YMax - a.YMin)
	areaB := (b.XMax - b.XMin) * (b.YMax - b.YMin)

	return inter / (areaA + areaB - inter)
}

func className(names []string, class int) string {
	if class >= 0 && class < len(names) {
		return names[class]
	}
	return fmt.Sprintf("class_%d", class)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
