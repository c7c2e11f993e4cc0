package handlers

import (
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/Hitansu2004/AI-TryOn-Studio/internal/domain"
	"github.com/Hitansu2004/AI-TryOn-Studio/internal/session"
	"github.com/Hitansu2004/AI-TryOn-Studio/internal/tryon"
	"github.com/Hitansu2004/AI-TryOn-Studio/internal/wishlist"
)

type productDTO struct {
	ID               string     `json:"id"`
	Name             string     `json:"name"`
	DisplayName      string     `json:"displayName"`
	SKU              string     `json:"sku,omitempty"`
	Color            string     `json:"color,omitempty"`
	Description      string     `json:"description,omitempty"`
	Price            float64    `json:"price"`
	Category         string     `json:"category,omitempty"`
	Sizes            []string   `json:"sizes,omitempty"`
	Colors           []string   `json:"colors,omitempty"`
	ImageURL         string     `json:"imageUrl,omitempty"`
	OriginalFilename string     `json:"originalFilename,omitempty"`
	CreatedAt        *time.Time `json:"createdAt,omitempty"`
	UpdatedAt        *time.Time `json:"updatedAt,omitempty"`
}

func toProductDTO(p domain.Product, locale string) productDTO {
	return productDTO{
		ID:               p.ID,
		Name:             p.Name,
		DisplayName:      cases.Title(localeTag(locale)).String(p.Name),
		SKU:              p.SKU,
		Color:            p.Color,
		Description:      p.Description,
		Price:            p.Price,
		Category:         p.Category,
		Sizes:            p.Sizes,
		Colors:           p.Colors,
		ImageURL:         p.ImageURL,
		OriginalFilename: p.OriginalFilename,
		CreatedAt:        optionalTime(p.CreatedAt),
		UpdatedAt:        optionalTime(p.UpdatedAt),
	}
}

func toProductDTOs(products []domain.Product, locale string) []productDTO {
	out := make([]productDTO, 0, len(products))
	for _, p := range products {
		out = append(out, toProductDTO(p, locale))
	}
	return out
}

type jobDTO struct {
	JobID                      string     `json:"jobId"`
	Status                     string     `json:"status"`
	ResultImageURL             string     `json:"resultImageUrl,omitempty"`
	ErrorMessage               string     `json:"errorMessage,omitempty"`
	EstimatedProcessingSeconds int        `json:"estimatedProcessingSeconds,omitempty"`
	SourceProductID            string     `json:"sourceProductId,omitempty"`
	Prompt                     string     `json:"prompt,omitempty"`
	CreatedAt                  *time.Time `json:"createdAt,omitempty"`
	CompletedAt                *time.Time `json:"completedAt,omitempty"`
}

func toJobDTO(j *domain.TryOnJob) *jobDTO {
	if j == nil {
		return nil
	}
	dto := &jobDTO{
		JobID:                      j.ID,
		Status:                     string(j.Status()),
		EstimatedProcessingSeconds: j.Estimate(),
		SourceProductID:            j.SourceProductID,
		Prompt:                     j.Prompt,
		CreatedAt:                  optionalTime(j.CreatedAt),
		CompletedAt:                j.CompletedAt,
	}
	if url, ok := j.ResultURL(); ok {
		dto.ResultImageURL = url
	}
	if msg, ok := j.ErrorMessage(); ok {
		dto.ErrorMessage = msg
	}
	return dto
}

type viewDTO struct {
	SessionID      string  `json:"sessionId"`
	Phase          string  `json:"phase"`
	Job            *jobDTO `json:"job"`
	ElapsedSeconds int     `json:"elapsedSeconds"`
	Elapsed        string  `json:"elapsed"`
	Progress       float64 `json:"progress"`
	Message        string  `json:"message,omitempty"`
	CanSubmit      bool    `json:"canSubmit"`
	CanRetry       bool    `json:"canRetry"`
}

func toViewDTO(s *session.Session, v tryon.View) viewDTO {
	return viewDTO{
		SessionID:      s.ID,
		Phase:          string(v.Phase),
		Job:            toJobDTO(v.Job),
		ElapsedSeconds: v.ElapsedSeconds,
		Elapsed:        tryon.FormatElapsed(v.ElapsedSeconds),
		Progress:       v.Progress,
		Message:        tryon.StatusMessage(s.Locale, v.Job),
		CanSubmit:      !s.Controller.Busy(),
		CanRetry:       s.Controller.CanSubmit(s.Inputs()),
	}
}

type wishlistDTO struct {
	Items       []productDTO `json:"items"`
	Compare     []productDTO `json:"compare"`
	CompareFull bool         `json:"compareFull"`
}

func toWishlistDTO(st wishlist.State, locale string) wishlistDTO {
	return wishlistDTO{
		Items:       toProductDTOs(st.Items, locale),
		Compare:     toProductDTOs(st.Compare, locale),
		CompareFull: st.CompareFull(),
	}
}

func localeTag(locale string) language.Tag {
	if tag, err := language.Parse(locale); err == nil {
		return tag
	}
	return language.English
}

func optionalTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
