package tryonapi

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Hitansu2004/AI-TryOn-Studio/internal/domain"
)

type jobPayload struct {
	JobID                          string `json:"jobId"`
	Status                         string `json:"status"`
	ResultImageURL                 string `json:"resultImageUrl,omitempty"`
	SourceProductID                string `json:"sourceProductId,omitempty"`
	Prompt                         string `json:"prompt,omitempty"`
	ErrorMessage                   string `json:"errorMessage,omitempty"`
	CreatedAt                      string `json:"createdAt"`
	CompletedAt                    string `json:"completedAt,omitempty"`
	EstimatedProcessingTimeSeconds *int   `json:"estimatedProcessingTimeSeconds,omitempty"`
}

func (p jobPayload) toDomain() (*domain.TryOnJob, error) {
	id := strings.TrimSpace(p.JobID)
	if id == "" {
		return nil, errors.New("tryonapi: job payload without jobId")
	}
	status, err := domain.ParseJobStatus(p.Status)
	if err != nil {
		return nil, fmt.Errorf("tryonapi: job %s: %w", id, err)
	}
	estimate := 0
	if p.EstimatedProcessingTimeSeconds != nil && *p.EstimatedProcessingTimeSeconds > 0 {
		estimate = *p.EstimatedProcessingTimeSeconds
	}
	state, err := domain.NewJobState(status, p.ResultImageURL, p.ErrorMessage, estimate)
	if err != nil {
		return nil, fmt.Errorf("tryonapi: job %s: %w", id, err)
	}
	job := &domain.TryOnJob{
		ID:                         id,
		State:                      state,
		SourceProductID:            strings.TrimSpace(p.SourceProductID),
		Prompt:                     p.Prompt,
		EstimatedProcessingSeconds: estimate,
		CreatedAt:                  parseTimestamp(p.CreatedAt),
	}
	if status.Terminal() {
		if completed := parseTimestamp(p.CompletedAt); !completed.IsZero() {
			job.CompletedAt = &completed
		}
	}
	return job, nil
}

type productPayload struct {
	ID               string   `json:"id"`
	Name             string   `json:"name"`
	SKU              string   `json:"sku"`
	Color            string   `json:"color,omitempty"`
	Description      string   `json:"description,omitempty"`
	Price            float64  `json:"price,omitempty"`
	Category         string   `json:"category,omitempty"`
	Sizes            []string `json:"sizes,omitempty"`
	Colors           []string `json:"colors,omitempty"`
	ImageURL         string   `json:"imageUrl"`
	OriginalFilename string   `json:"originalFilename"`
	CreatedAt        string   `json:"createdAt"`
	UpdatedAt        string   `json:"updatedAt"`
}

func (p productPayload) toDomain() domain.Product {
	return domain.Product{
		ID:               p.ID,
		Name:             p.Name,
		SKU:              p.SKU,
		Color:            p.Color,
		Description:      p.Description,
		Price:            p.Price,
		Category:         p.Category,
		Sizes:            p.Sizes,
		Colors:           p.Colors,
		ImageURL:         p.ImageURL,
		OriginalFilename: p.OriginalFilename,
		CreatedAt:        parseTimestamp(p.CreatedAt),
		UpdatedAt:        parseTimestamp(p.UpdatedAt),
	}
}

// The backend serializes LocalDateTime values without a zone.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

func parseTimestamp(raw string) time.Time {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t
		}
	}
	return time.Time{}
}
