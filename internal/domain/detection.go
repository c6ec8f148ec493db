package domain

// RawDetection is a single box returned by the defect detector.
type RawDetection struct {
	ClassName  string  `json:"class_name"`
	Confidence float64 `json:"confidence"`
	BBox       []int   `json:"bbox"`
}

// Defect is a detection mapped onto a problem type.
type Defect struct {
	Type       ProblemType `json:"type"`
	Confidence float64     `json:"confidence"`
	BBox       []int       `json:"bbox"`
	ClassName  string      `json:"class_name"`
}

// ImageAnalysis summarizes all defects found in one image.
type ImageAnalysis struct {
	Defects       []Defect      `json:"defects"`
	DetectedTypes []ProblemType `json:"detected_types"`
	DominantType  *ProblemType  `json:"dominant_type"`
	Confidence    *float64      `json:"confidence"`
}
