package handlers

import (
	"fmt"
	"io"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/roadguard/internal/detection"
	"github.com/spec-kit/roadguard/internal/service"
	apperrors "github.com/spec-kit/roadguard/pkg/util"
)

// AnalysisHandler exposes the image classification endpoint.
type AnalysisHandler struct {
	service  *service.AnalysisService
	maxBytes int64
}

// NewAnalysisHandler constructs handler.
func NewAnalysisHandler(analysisService *service.AnalysisService, maxBytes int) *AnalysisHandler {
	return &AnalysisHandler{service: analysisService, maxBytes: int64(maxBytes)}
}

// AnalyzeImage POST /api/analyze-image.
func (h *AnalysisHandler) AnalyzeImage(c *fiber.Ctx) error {
	header, err := c.FormFile("file")
	if err != nil {
		return apperrors.NewValidationError("multipart field \"file\" is required", nil)
	}
	if h.maxBytes > 0 && header.Size > h.maxBytes {
		return apperrors.NewValidationError(fmt.Sprintf("file exceeds %d bytes", h.maxBytes), nil)
	}

	file, err := header.Open()
	if err != nil {
		return apperrors.NewValidationError("unreadable file", nil)
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return apperrors.NewValidationError("unreadable file", nil)
	}

	analysis, err := h.service.Analyze(c.UserContext(), detection.Image{
		Filename:    header.Filename,
		ContentType: header.Header.Get(fiber.HeaderContentType),
		Data:        data,
	})
	if err != nil {
		return err
	}
	return c.JSON(analysis)
}
