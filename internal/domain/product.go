package domain

import (
	"strings"
	"time"
)

// Product is a catalog entry as served by the backend.
type Product struct {
	ID               string
	Name             string
	SKU              string
	Color            string
	Description      string
	Price            float64
	Category         string
	Sizes            []string
	Colors           []string
	ImageURL         string
	OriginalFilename string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// ImageFile is a validated image ready to be uploaded.
type ImageFile struct {
	Name string
	MIME string
	Data []byte
}

// Empty reports whether the file carries no bytes.
func (f *ImageFile) Empty() bool {
	return f == nil || len(f.Data) == 0
}

// ProductSource identifies the garment to try on: a catalog product or an
// uploaded product photo. Exactly one must be set.
type ProductSource struct {
	ProductID    string
	ProductImage *ImageFile
}

// SubmitRequest carries everything needed to create a try-on job.
type SubmitRequest struct {
	UserImage *ImageFile
	Product   ProductSource
	// Prompt is optional; the backend generates one when empty.
	Prompt string
}

// Validate enforces the submission preconditions: a user image and exactly
// one resolvable product source.
func (r SubmitRequest) Validate() error {
	if r.UserImage.Empty() {
		return &ValidationError{Field: "userImage", Reason: "user image is required"}
	}
	hasID := strings.TrimSpace(r.Product.ProductID) != ""
	hasImage := !r.Product.ProductImage.Empty()
	switch {
	case !hasID && !hasImage:
		return &ValidationError{Field: "product", Reason: "either product ID or product image is required"}
	case hasID && hasImage:
		return &ValidationError{Field: "product", Reason: "provide product ID or product image, not both"}
	}
	return nil
}
