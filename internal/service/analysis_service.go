package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/roadguard/internal/detection"
	"github.com/spec-kit/roadguard/internal/domain"
	apperrors "github.com/spec-kit/roadguard/pkg/util"
)

// AnalysisCache stores analysis results by image digest.
type AnalysisCache interface {
	Get(ctx context.Context, key string) (*domain.ImageAnalysis, bool, error)
	Set(ctx context.Context, key string, analysis *domain.ImageAnalysis) error
}

var classTypes = map[string]domain.ProblemType{
	"D00": domain.ProblemTypeLongCrack,
	"D10": domain.ProblemTypeTransverseCrack,
	"D20": domain.ProblemTypeAlligatorCrack,
	"D40": domain.ProblemTypePothole,
}

// AnalysisService classifies road photos through the detector.
type AnalysisService struct {
	detector detection.Detector
	cache    AnalysisCache
	logger   *zap.Logger
}

// NewAnalysisService constructs the service. detector and cache may be nil.
func NewAnalysisService(detector detection.Detector, cache AnalysisCache, logger *zap.Logger) *AnalysisService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AnalysisService{detector: detector, cache: cache, logger: logger}
}

// Available reports whether a detector is configured.
func (s *AnalysisService) Available() bool {
	return s.detector != nil
}

// Analyze detects defects in image and summarizes them.
func (s *AnalysisService) Analyze(ctx context.Context, image detection.Image) (*domain.ImageAnalysis, error) {
	if !strings.HasPrefix(image.ContentType, "image/") {
		return nil, apperrors.NewValidationError("file must be an image", nil)
	}
	if len(image.Data) == 0 {
		return nil, apperrors.NewValidationError("file is empty", nil)
	}
	if s.detector == nil {
		return nil, apperrors.NewUnavailable("image analysis is temporarily unavailable", nil)
	}

	key := imageDigest(image.Data)
	if s.cache != nil {
		cached, ok, err := s.cache.Get(ctx, key)
		if err != nil {
			s.logger.Warn("analysis cache read failed", zap.Error(err))
		} else if ok {
			return cached, nil
		}
	}

	detections, err := s.detector.Analyze(ctx, image)
	if err != nil {
		if errors.Is(err, detection.ErrUnavailable) {
			s.logger.Warn("detector call failed", zap.Error(err))
			return nil, apperrors.NewUnavailable("image analysis is temporarily unavailable", err)
		}
		return nil, apperrors.NewInternalError(err)
	}

	analysis := Summarize(detections)
	if s.cache != nil {
		if err := s.cache.Set(ctx, key, analysis); err != nil {
			s.logger.Warn("analysis cache write failed", zap.Error(err))
		}
	}
	return analysis, nil
}

// ClassifyDefect maps a detector class name onto a problem type.
func ClassifyDefect(className string) domain.ProblemType {
	if problemType, ok := classTypes[className]; ok {
		return problemType
	}
	return domain.ProblemTypeOther
}

// Summarize maps detections onto defects. The dominant type is the most
// frequent one, ties going to the type seen first; confidence is that of the
// first defect.
func Summarize(detections []domain.RawDetection) *domain.ImageAnalysis {
	analysis := &domain.ImageAnalysis{
		Defects:       make([]domain.Defect, 0, len(detections)),
		DetectedTypes: []domain.ProblemType{},
	}
	counts := make(map[domain.ProblemType]int)
	for _, d := range detections {
		problemType := ClassifyDefect(d.ClassName)
		analysis.Defects = append(analysis.Defects, domain.Defect{
			Type:       problemType,
			Confidence: d.Confidence,
			BBox:       d.BBox,
			ClassName:  d.ClassName,
		})
		if counts[problemType] == 0 {
			analysis.DetectedTypes = append(analysis.DetectedTypes, problemType)
		}
		counts[problemType]++
	}
	if len(analysis.Defects) == 0 {
		return analysis
	}

	dominant := analysis.DetectedTypes[0]
	for _, problemType := range analysis.DetectedTypes[1:] {
		if counts[problemType] > counts[dominant] {
			dominant = problemType
		}
	}
	confidence := analysis.Defects[0].Confidence
	analysis.DominantType = &dominant
	analysis.Confidence = &confidence
	return analysis
}

func imageDigest(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
