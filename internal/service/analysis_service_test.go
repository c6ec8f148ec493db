package service

import (
	"context"
	"net/http"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/roadguard/internal/detection"
	"github.com/spec-kit/roadguard/internal/domain"
	apperrors "github.com/spec-kit/roadguard/pkg/util"
)

type stubDetector struct {
	calls      int
	detections []domain.RawDetection
	err        error
}

func (d *stubDetector) Analyze(context.Context, detection.Image) ([]domain.RawDetection, error) {
	d.calls++
	return d.detections, d.err
}

type mapCache struct {
	mu    sync.Mutex
	items map[string]*domain.ImageAnalysis
}

func (c *mapCache) Get(_ context.Context, key string) (*domain.ImageAnalysis, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	a, ok := c.items[key]
	return a, ok, nil
}

func (c *mapCache) Set(_ context.Context, key string, a *domain.ImageAnalysis) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items[key] = a
	return nil
}

func TestClassifyDefect(t *testing.T) {
	assert.Equal(t, domain.ProblemTypeLongCrack, ClassifyDefect("D00"))
	assert.Equal(t, domain.ProblemTypeTransverseCrack, ClassifyDefect("D10"))
	assert.Equal(t, domain.ProblemTypeAlligatorCrack, ClassifyDefect("D20"))
	assert.Equal(t, domain.ProblemTypePothole, ClassifyDefect("D40"))
	assert.Equal(t, domain.ProblemTypeOther, ClassifyDefect("D43"))
}

func TestSummarize(t *testing.T) {
	empty := Summarize(nil)
	assert.Empty(t, empty.Defects)
	assert.Empty(t, empty.DetectedTypes)
	assert.Nil(t, empty.DominantType)
	assert.Nil(t, empty.Confidence)

	analysis := Summarize([]domain.RawDetection{
		{ClassName: "D00", Confidence: 0.5, BBox: []int{0, 0, 1, 1}},
		{ClassName: "D40", Confidence: 0.9},
		{ClassName: "D40", Confidence: 0.8},
		{ClassName: "X", Confidence: 0.4},
	})
	require.Len(t, analysis.Defects, 4)
	assert.Equal(t, []domain.ProblemType{
		domain.ProblemTypeLongCrack, domain.ProblemTypePothole, domain.ProblemTypeOther,
	}, analysis.DetectedTypes)
	require.NotNil(t, analysis.DominantType)
	assert.Equal(t, domain.ProblemTypePothole, *analysis.DominantType)
	require.NotNil(t, analysis.Confidence)
	assert.Equal(t, 0.5, *analysis.Confidence)

	tie := Summarize([]domain.RawDetection{
		{ClassName: "D20", Confidence: 0.7},
		{ClassName: "D10", Confidence: 0.6},
	})
	assert.Equal(t, domain.ProblemTypeAlligatorCrack, *tie.DominantType)
}

func TestAnalyzeValidationAndAvailability(t *testing.T) {
	ctx := context.Background()

	unavailable := NewAnalysisService(nil, nil, nil)
	assert.False(t, unavailable.Available())
	_, err := unavailable.Analyze(ctx, detection.Image{ContentType: "image/png", Data: []byte("x")})
	assert.Equal(t, http.StatusServiceUnavailable, apperrors.StatusOf(err))

	svc := NewAnalysisService(&stubDetector{}, nil, nil)
	_, err = svc.Analyze(ctx, detection.Image{ContentType: "text/plain", Data: []byte("x")})
	assert.Equal(t, http.StatusBadRequest, apperrors.StatusOf(err))

	_, err = svc.Analyze(ctx, detection.Image{ContentType: "image/png"})
	assert.Equal(t, http.StatusBadRequest, apperrors.StatusOf(err))

	failing := NewAnalysisService(&stubDetector{err: detection.ErrUnavailable}, nil, nil)
	_, err = failing.Analyze(ctx, detection.Image{ContentType: "image/png", Data: []byte("x")})
	assert.Equal(t, http.StatusServiceUnavailable, apperrors.StatusOf(err))
}

func TestAnalyzeUsesCache(t *testing.T) {
	ctx := context.Background()
	detector := &stubDetector{detections: []domain.RawDetection{{ClassName: "D40", Confidence: 0.9}}}
	svc := NewAnalysisService(detector, &mapCache{items: map[string]*domain.ImageAnalysis{}}, nil)

	image := detection.Image{Filename: "a.jpg", ContentType: "image/jpeg", Data: []byte("same-bytes")}
	first, err := svc.Analyze(ctx, image)
	require.NoError(t, err)
	second, err := svc.Analyze(ctx, image)
	require.NoError(t, err)

	assert.Equal(t, 1, detector.calls)
	assert.Equal(t, first, second)

	_, err = svc.Analyze(ctx, detection.Image{ContentType: "image/jpeg", Data: []byte("other-bytes")})
	require.NoError(t, err)
	assert.Equal(t, 2, detector.calls)
}
