package tryonapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/Hitansu2004/AI-TryOn-Studio/internal/domain"
	"github.com/Hitansu2004/AI-TryOn-Studio/internal/infra"
)

const (
	defaultBaseURL          = "http://localhost:8080"
	defaultMaxResponseBytes = 32 << 20
	networkErrorMessage     = "Network error. Please check your connection."
)

// Options configures the try-on backend client.
type Options struct {
	BaseURL          string
	HTTPClient       *http.Client
	Logger           *infra.Logger
	RequestTimeout   time.Duration
	MaxResponseBytes int64
}

// Client performs HTTP calls against the try-on backend REST API.
type Client struct {
	baseURL  string
	http     *http.Client
	logger   *infra.Logger
	maxBytes int64
}

// APIError is the normalized error returned by the backend. Status is 0 for
// transport failures.
type APIError struct {
	Status    int
	Message   string
	Timestamp string
}

func (e *APIError) Error() string {
	if e.Status == 0 {
		return "tryonapi: " + e.Message
	}
	return fmt.Sprintf("tryonapi: %s (status %d)", e.Message, e.Status)
}

type errorResponse struct {
	Status    int    `json:"status"`
	Error     string `json:"error"`
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
}

// NewClient constructs a client with sane defaults and injected dependencies.
func NewClient(opts Options) *Client {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.RequestTimeout
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	baseURL := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	maxBytes := opts.MaxResponseBytes
	if maxBytes <= 0 {
		maxBytes = defaultMaxResponseBytes
	}
	logger := opts.Logger
	if logger == nil {
		discard := zerolog.New(io.Discard)
		l := infra.Logger(discard)
		logger = &l
	}
	return &Client{baseURL: baseURL, http: httpClient, logger: logger, maxBytes: maxBytes}
}

// BaseURL returns the configured backend root.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Submit creates a try-on job for req. Failures are reported as
// *domain.SubmissionError.
func (c *Client) Submit(ctx context.Context, req domain.SubmitRequest) (*domain.TryOnJob, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	var (
		job *domain.TryOnJob
		err error
	)
	if id := strings.TrimSpace(req.Product.ProductID); id != "" {
		job, err = c.SubmitWithProduct(ctx, id, req.UserImage, req.Prompt)
	} else {
		job, err = c.SubmitWithImage(ctx, req.Product.ProductImage, req.UserImage, req.Prompt)
	}
	if err != nil {
		subErr := &domain.SubmissionError{Err: err}
		var apiErr *APIError
		if errors.As(err, &apiErr) {
			subErr.Status = apiErr.Status
			subErr.Message = apiErr.Message
		}
		return nil, subErr
	}
	return job, nil
}

// SubmitWithProduct submits a try-on job for an existing catalog product.
func (c *Client) SubmitWithProduct(ctx context.Context, productID string, userImage *domain.ImageFile, prompt string) (*domain.TryOnJob, error) {
	fields := []formField{
		{name: "productId", value: productID},
		{name: "userImage", file: userImage},
		{name: "prompt", value: prompt},
	}
	return c.postJob(ctx, fields)
}

// SubmitWithImage submits a try-on job with an uploaded product photo.
func (c *Client) SubmitWithImage(ctx context.Context, productImage, userImage *domain.ImageFile, prompt string) (*domain.TryOnJob, error) {
	fields := []formField{
		{name: "productImage", file: productImage},
		{name: "userImage", file: userImage},
		{name: "prompt", value: prompt},
	}
	return c.postJob(ctx, fields)
}

// JobStatus fetches the current snapshot of a job.
func (c *Client) JobStatus(ctx context.Context, jobID string) (*domain.TryOnJob, error) {
	jobID = strings.TrimSpace(jobID)
	if jobID == "" {
		return nil, errors.New("tryonapi: job id is required")
	}
	var payload jobPayload
	if err := c.getJSON(ctx, "/api/tryon/"+url.PathEscape(jobID), &payload); err != nil {
		return nil, err
	}
	return payload.toDomain()
}

// ListJobs returns every job known to the backend (admin endpoint).
func (c *Client) ListJobs(ctx context.Context) ([]domain.TryOnJob, error) {
	var payloads []jobPayload
	if err := c.getJSON(ctx, "/api/tryon/jobs", &payloads); err != nil {
		return nil, err
	}
	jobs := make([]domain.TryOnJob, 0, len(payloads))
	for _, p := range payloads {
		job, err := p.toDomain()
		if err != nil {
			c.logger.Warn().Err(err).Str("job_id", p.JobID).Msg("tryonapi: skipping malformed job")
			continue
		}
		jobs = append(jobs, *job)
	}
	return jobs, nil
}

// Product fetches a single catalog product.
func (c *Client) Product(ctx context.Context, id string) (*domain.Product, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, errors.New("tryonapi: product id is required")
	}
	var payload productPayload
	if err := c.getJSON(ctx, "/api/products/"+url.PathEscape(id), &payload); err != nil {
		return nil, err
	}
	product := payload.toDomain()
	return &product, nil
}

// ListProducts returns the catalog.
func (c *Client) ListProducts(ctx context.Context) ([]domain.Product, error) {
	var payloads []productPayload
	if err := c.getJSON(ctx, "/api/products", &payloads); err != nil {
		return nil, err
	}
	products := make([]domain.Product, 0, len(payloads))
	for _, p := range payloads {
		products = append(products, p.toDomain())
	}
	return products, nil
}

// DownloadResult fetches the bytes behind a result image location. Relative
// locations are resolved against the backend base URL.
func (c *Client) DownloadResult(ctx context.Context, location string) ([]byte, string, error) {
	target, err := c.resolve(location)
	if err != nil {
		return nil, "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, "", fmt.Errorf("tryonapi: build download request: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("tryonapi: download result: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return nil, "", fmt.Errorf("tryonapi: download status %d", resp.StatusCode)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBytes))
	if err != nil {
		return nil, "", fmt.Errorf("tryonapi: read result: %w", err)
	}
	format := resp.Header.Get("Content-Type")
	if format == "" {
		format = http.DetectContentType(data)
	}
	return data, format, nil
}

func (c *Client) resolve(location string) (string, error) {
	location = strings.TrimSpace(location)
	if location == "" {
		return "", errors.New("tryonapi: empty result location")
	}
	parsed, err := url.Parse(location)
	if err != nil {
		return "", fmt.Errorf("tryonapi: invalid result location %q: %w", location, err)
	}
	if parsed.IsAbs() {
		return parsed.String(), nil
	}
	base, err := url.Parse(c.baseURL + "/")
	if err != nil {
		return "", fmt.Errorf("tryonapi: invalid base url: %w", err)
	}
	return base.ResolveReference(parsed).String(), nil
}

type formField struct {
	name  string
	value string
	file  *domain.ImageFile
}

func (c *Client) postJob(ctx context.Context, fields []formField) (*domain.TryOnJob, error) {
	body := &bytes.Buffer{}
	mw := multipart.NewWriter(body)
	for _, f := range fields {
		if f.file == nil {
			if err := mw.WriteField(f.name, f.value); err != nil {
				return nil, fmt.Errorf("tryonapi: encode field %s: %w", f.name, err)
			}
			continue
		}
		part, err := mw.CreatePart(fileHeader(f.name, f.file))
		if err != nil {
			return nil, fmt.Errorf("tryonapi: encode file %s: %w", f.name, err)
		}
		if _, err := part.Write(f.file.Data); err != nil {
			return nil, fmt.Errorf("tryonapi: write file %s: %w", f.name, err)
		}
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("tryonapi: close form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/tryon", body)
	if err != nil {
		return nil, fmt.Errorf("tryonapi: build request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Accept", "application/json")

	var payload jobPayload
	if err := c.do(req, &payload); err != nil {
		return nil, err
	}
	job, err := payload.toDomain()
	if err != nil {
		return nil, err
	}
	c.logger.Debug().
		Str("job_id", job.ID).
		Str("status", string(job.Status())).
		Msg("tryonapi: job submitted")
	return job, nil
}

func fileHeader(field string, file *domain.ImageFile) textproto.MIMEHeader {
	name := strings.TrimSpace(file.Name)
	if name == "" {
		name = field + ".jpg"
	}
	mime := file.MIME
	if mime == "" {
		mime = "application/octet-stream"
	}
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`, field, escapeQuotes(name)))
	h.Set("Content-Type", mime)
	return h
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func escapeQuotes(s string) string {
	return quoteEscaper.Replace(s)
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("tryonapi: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out any) error {
	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		if ctxErr := req.Context().Err(); ctxErr != nil {
			return ctxErr
		}
		c.logger.Debug().Err(err).Str("endpoint", req.URL.Path).Msg("tryonapi: transport error")
		return &APIError{Status: 0, Message: networkErrorMessage, Timestamp: time.Now().UTC().Format(time.RFC3339)}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBytes))
	if err != nil {
		return fmt.Errorf("tryonapi: read response: %w", err)
	}
	c.logger.Debug().
		Str("method", req.Method).
		Str("endpoint", req.URL.Path).
		Int("status", resp.StatusCode).
		Dur("elapsed", time.Since(start)).
		Msg("tryonapi: response")

	if resp.StatusCode >= 300 {
		return decodeAPIError(resp, raw)
	}
	if out == nil || resp.StatusCode == http.StatusNoContent || len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("tryonapi: decode response: %w", err)
	}
	return nil
}

func decodeAPIError(resp *http.Response, raw []byte) error {
	apiErr := &APIError{
		Status:    resp.StatusCode,
		Message:   http.StatusText(resp.StatusCode),
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
	var detail errorResponse
	if err := json.Unmarshal(raw, &detail); err == nil {
		if msg := strings.TrimSpace(detail.Message); msg != "" {
			apiErr.Message = msg
		} else if msg := strings.TrimSpace(detail.Error); msg != "" {
			apiErr.Message = msg
		}
		if detail.Timestamp != "" {
			apiErr.Timestamp = detail.Timestamp
		}
	}
	if apiErr.Message == "" {
		apiErr.Message = "An error occurred"
	}
	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("%w: %w", domain.ErrNotFound, apiErr)
	}
	return apiErr
}
