// Package detection talks to the external road-defect detection model server.
package detection

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/roadguard/internal/domain"
)

// ErrUnavailable is returned when the model server cannot be reached or fails.
var ErrUnavailable = errors.New("detector unavailable")

// Image is an uploaded picture to analyze.
type Image struct {
	Filename    string
	ContentType string
	Data        []byte
}

// Detector finds defects in an image.
type Detector interface {
	Analyze(ctx context.Context, image Image) ([]domain.RawDetection, error)
}

// Client calls a model server that accepts a multipart "file" upload and
// answers {"detections": [...]}.
type Client struct {
	url       string
	timeout   time.Duration
	threshold float64
}

// NewClient builds a client for the model server at url.
func NewClient(url string, timeout time.Duration, threshold float64) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{url: url, timeout: timeout, threshold: threshold}
}

type detectResponse struct {
	Detections []domain.RawDetection `json:"detections"`
}

// Analyze uploads image and returns detections at or above the confidence threshold.
func (c *Client) Analyze(ctx context.Context, image Image) ([]domain.RawDetection, error) {
	timeout := c.timeout
	if deadline, ok := ctx.Deadline(); ok {
		if remaining := time.Until(deadline); remaining < timeout {
			timeout = remaining
		}
	}
	if timeout <= 0 {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, context.DeadlineExceeded)
	}

	agent := fiber.Post(c.url)
	agent.Timeout(timeout)
	agent.QueryString("conf=" + strconv.FormatFloat(c.threshold, 'f', -1, 64))
	agent.FileData(&fiber.FormFile{
		Fieldname: "file",
		Name:      image.Filename,
		Content:   image.Data,
	})
	agent.MultipartForm(nil)

	status, body, errs := agent.Bytes()
	if len(errs) > 0 {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, errors.Join(errs...))
	}
	if status != fiber.StatusOK {
		return nil, fmt.Errorf("%w: status %d", ErrUnavailable, status)
	}

	var resp detectResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("%w: decode response: %v", ErrUnavailable, err)
	}

	detections := make([]domain.RawDetection, 0, len(resp.Detections))
	for _, d := range resp.Detections {
		if d.Confidence < c.threshold {
			continue
		}
		detections = append(detections, d)
	}
	return detections, nil
}
