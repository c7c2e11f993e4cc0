package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"path"
	"strings"

	"github.com/Hitansu2004/AI-TryOn-Studio/internal/capture"
	"github.com/Hitansu2004/AI-TryOn-Studio/internal/domain"
	"github.com/Hitansu2004/AI-TryOn-Studio/internal/session"
	"github.com/Hitansu2004/AI-TryOn-Studio/internal/storage"
	"github.com/Hitansu2004/AI-TryOn-Studio/pkg/zip"
)

// SubmitTryOn accepts multipart fields userImage, productId or productImage,
// and an optional prompt.
func (a *App) SubmitTryOn(w http.ResponseWriter, r *http.Request) {
	s, ok := a.session(w, r)
	if !ok {
		return
	}
	limit := a.maxUploadBytes()
	r.Body = http.MaxBytesReader(w, r.Body, 2*limit+(1<<20))
	if err := r.ParseMultipartForm(limit); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid multipart payload")
		return
	}
	defer r.MultipartForm.RemoveAll()

	req, err := a.submitRequest(r.MultipartForm, limit)
	if err != nil {
		a.submitError(w, err)
		return
	}
	if a.Tracker != nil {
		a.Tracker.ImageUploaded(req.Product.ProductID, len(req.UserImage.Data))
	}

	if _, err := s.Controller.Submit(r.Context(), req); err != nil {
		a.submitError(w, err)
		return
	}
	s.RememberInputs(req)
	a.json(w, http.StatusAccepted, toViewDTO(s, s.Controller.View()))
}

func (a *App) submitRequest(form *multipart.Form, limit int64) (domain.SubmitRequest, error) {
	req := domain.SubmitRequest{
		Product: domain.ProductSource{ProductID: strings.TrimSpace(formValue(form, "productId"))},
		Prompt:  strings.TrimSpace(formValue(form, "prompt")),
	}
	if fh := formFile(form, "userImage"); fh != nil {
		img, err := capture.FromMultipart(fh, limit)
		if err != nil {
			return req, err
		}
		req.UserImage = img
	}
	if fh := formFile(form, "productImage"); fh != nil {
		img, err := capture.FromMultipart(fh, limit)
		if err != nil {
			var verr *domain.ValidationError
			if errors.As(err, &verr) {
				verr.Field = "productImage"
			}
			return req, err
		}
		req.Product.ProductImage = img
	}
	return req, req.Validate()
}

func (a *App) submitError(w http.ResponseWriter, err error) {
	var verr *domain.ValidationError
	var subErr *domain.SubmissionError
	switch {
	case errors.As(err, &verr):
		a.json(w, http.StatusBadRequest, map[string]string{
			"error":   "validation",
			"field":   verr.Field,
			"message": verr.Reason,
		})
	case errors.Is(err, domain.ErrSuperseded):
		a.error(w, http.StatusConflict, "superseded", "a newer try-on request replaced this one")
	case errors.Is(err, domain.ErrClosed):
		a.error(w, http.StatusGone, "session_closed", "session has ended")
	case errors.As(err, &subErr):
		code := http.StatusBadGateway
		if subErr.Status >= 400 && subErr.Status < 500 {
			code = subErr.Status
		}
		a.error(w, code, "submission_failed", subErr.UserMessage())
	default:
		a.Logger.Error().Err(err).Msg("handlers: submit try-on")
		a.error(w, http.StatusInternalServerError, "internal", "Failed to start visualization")
	}
}

func (a *App) TryOnView(w http.ResponseWriter, r *http.Request) {
	s, ok := a.session(w, r)
	if !ok {
		return
	}
	a.json(w, http.StatusOK, toViewDTO(s, s.Controller.View()))
}

// RetryTryOn resubmits the inputs of the session's previous submission.
func (a *App) RetryTryOn(w http.ResponseWriter, r *http.Request) {
	s, ok := a.session(w, r)
	if !ok {
		return
	}
	req := s.Inputs()
	if !s.Controller.CanSubmit(req) {
		a.error(w, http.StatusConflict, "cannot_retry", "no previous try-on to resubmit")
		return
	}
	if _, err := s.Controller.Submit(r.Context(), req); err != nil {
		a.submitError(w, err)
		return
	}
	a.json(w, http.StatusAccepted, toViewDTO(s, s.Controller.View()))
}

func (a *App) ResetTryOn(w http.ResponseWriter, r *http.Request) {
	s, ok := a.session(w, r)
	if !ok {
		return
	}
	s.Controller.Reset()
	s.RememberInputs(domain.SubmitRequest{})
	a.json(w, http.StatusOK, toViewDTO(s, s.Controller.View()))
}

// TryOnResult downloads a bundle with the result image, the submitted images
// and the job snapshot.
func (a *App) TryOnResult(w http.ResponseWriter, r *http.Request) {
	s, ok := a.session(w, r)
	if !ok {
		return
	}
	job := s.Controller.Job()
	if job == nil || job.Status() != domain.JobStatusSucceeded {
		a.error(w, http.StatusConflict, "not_ready", "try-on result is not available")
		return
	}
	location, _ := job.ResultURL()
	if location == "" {
		a.error(w, http.StatusNotFound, "not_found", "try-on result has no image")
		return
	}
	data, mime, err := a.Catalog.DownloadResult(r.Context(), location)
	if err != nil {
		a.backendError(w, r, err, "result")
		return
	}
	ext := resultExtension(location, mime)
	a.persistResult(r.Context(), job.ID, ext, data)

	archive, err := zip.ArchiveAssets(bundleAssets(job, s, data, mime, ext))
	if err != nil {
		a.Logger.Error().Err(err).Str("job_id", job.ID).Msg("handlers: build result bundle")
		a.error(w, http.StatusInternalServerError, "internal", "failed to build result bundle")
		return
	}
	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=tryon-%s.zip", job.ID))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(archive)
}

func (a *App) persistResult(ctx context.Context, jobID, ext string, data []byte) {
	if a.Store == nil {
		return
	}
	if _, err := a.Store.Write(ctx, storage.ResultKey(jobID, ext), data); err != nil {
		a.Logger.Warn().Err(err).Str("job_id", jobID).Msg("handlers: persist result")
	}
}

func bundleAssets(job *domain.TryOnJob, s *session.Session, result []byte, mime, ext string) []zip.Asset {
	meta, _ := json.MarshalIndent(toJobDTO(job), "", "  ")
	assets := []zip.Asset{
		{Filename: "result" + ext, MIME: mime, Data: result},
		{Filename: "job.json", MIME: "application/json", Data: meta},
	}
	inputs := s.Inputs()
	if inputs.UserImage != nil {
		assets = append(assets, zip.Asset{Filename: "user-" + inputs.UserImage.Name, MIME: inputs.UserImage.MIME, Data: inputs.UserImage.Data})
	}
	if img := inputs.Product.ProductImage; img != nil {
		assets = append(assets, zip.Asset{Filename: "product-" + img.Name, MIME: img.MIME, Data: img.Data})
	}
	return assets
}

func resultExtension(location, mime string) string {
	switch mime {
	case "image/png":
		return ".png"
	case "image/webp":
		return ".webp"
	case "image/jpeg":
		return ".jpg"
	}
	if ext := path.Ext(strings.SplitN(location, "?", 2)[0]); ext != "" && len(ext) <= 5 {
		return strings.ToLower(ext)
	}
	return ".jpg"
}

func formValue(form *multipart.Form, key string) string {
	if form == nil || len(form.Value[key]) == 0 {
		return ""
	}
	return form.Value[key][0]
}

func formFile(form *multipart.Form, key string) *multipart.FileHeader {
	if form == nil || len(form.File[key]) == 0 {
		return nil
	}
	return form.File[key][0]
}

