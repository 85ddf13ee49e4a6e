package analyzer

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/sirupsen/logrus"

	"scamshield/internal/logger"
)

// Failure taxonomy for analyzer calls. Callers branch on these with
// errors.Is to pick user messaging.
var (
	ErrTimeout            = errors.New("analyzer: request timed out")
	ErrServiceUnavailable = errors.New("analyzer: service unavailable")
	ErrMalformedResult    = errors.New("analyzer: malformed result")
)

const requestTimeout = 30 * time.Second

// AnalyzeOptions selects the analyzer-side ASR mode and model.
type AnalyzeOptions struct {
	ASRMode string `json:"asr_mode"`
	Model   string `json:"model"`
}

// Client talks to the remote speech analyzer over HTTP.
type Client struct {
	baseURL    string
	httpClient *http.Client
	log        *logrus.Entry
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: requestTimeout},
		log:        logger.Component("analyzer"),
	}
}

// CheckHealth reports whether the analyzer answers at all. Failures are
// expected when running offline, so this never returns an error.
func (c *Client) CheckHealth(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/healthz", nil)
	if err != nil {
		return false
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.WithError(err).Debug("health check failed")
		return false
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)
	return resp.StatusCode < 300
}

// Upload sends one audio blob and returns the analyzer file id.
func (c *Client) Upload(ctx context.Context, filename string, audio []byte) (string, error) {
	var b bytes.Buffer
	w := multipart.NewWriter(&b)
	part, err := w.CreateFormFile("file", filename)
	if err != nil {
		return "", fmt.Errorf("build upload form: %w", err)
	}
	if _, err := part.Write(audio); err != nil {
		return "", fmt.Errorf("build upload form: %w", err)
	}
	_ = w.Close()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/upload", &b)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", w.FormDataContentType())

	var resp UploadResponse
	if err := c.doJSON(req, &resp); err != nil {
		return "", err
	}
	if resp.Error != "" {
		return "", fmt.Errorf("%w: %s", ErrServiceUnavailable, resp.Detail)
	}
	if resp.FileID == "" {
		return "", fmt.Errorf("%w: upload response missing file_id", ErrMalformedResult)
	}
	return resp.FileID, nil
}

// Analyze runs the full risk analysis on a previously uploaded file.
func (c *Client) Analyze(ctx context.Context, fileID string, opts AnalyzeOptions) (Result, error) {
	if opts.ASRMode == "" {
		opts.ASRMode = "local"
	}
	if opts.Model == "" {
		opts.Model = "tiny"
	}
	body, _ := json.Marshal(struct {
		FileID string `json:"file_id"`
		AnalyzeOptions
	}{FileID: fileID, AnalyzeOptions: opts})

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/analyze", bytes.NewReader(body))
	if err != nil {
		return Result{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	var res Result
	if err := c.doJSON(req, &res); err != nil {
		return Result{}, err
	}
	c.log.WithFields(logrus.Fields{
		"file_id":     fileID,
		"duration_ms": time.Since(start).Milliseconds(),
	}).Debug("analysis finished")
	if res.Error != "" {
		return Result{}, fmt.Errorf("%w: %s", ErrServiceUnavailable, res.Error)
	}
	return res, nil
}

// doJSON runs the request with retry on transient failures and decodes
// the body into target.
func (c *Client) doJSON(req *http.Request, target interface{}) error {
	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = requestTimeout
	var lastErr error
	attempt := 0
	op := func() error {
		if attempt > 0 && req.GetBody != nil {
			body, err := req.GetBody()
			if err != nil {
				return backoff.Permanent(err)
			}
			req.Body = body
		}
		attempt++
		resp, err := c.httpClient.Do(req)
		if err != nil {
			if errors.Is(err, context.DeadlineExceeded) {
				lastErr = fmt.Errorf("%w: %v", ErrTimeout, err)
				return backoff.Permanent(lastErr)
			}
			lastErr = fmt.Errorf("%w: %v", ErrServiceUnavailable, err)
			return lastErr
		}
		defer resp.Body.Close()
		body, _ := io.ReadAll(resp.Body)
		if resp.StatusCode >= 500 {
			lastErr = fmt.Errorf("%w: status %d", ErrServiceUnavailable, resp.StatusCode)
			return lastErr
		}
		if resp.StatusCode >= 400 {
			lastErr = fmt.Errorf("%w: status %d body=%s", ErrServiceUnavailable, resp.StatusCode, string(body))
			return backoff.Permanent(lastErr)
		}
		if err := json.Unmarshal(body, target); err != nil {
			lastErr = fmt.Errorf("%w: %v", ErrMalformedResult, err)
			return backoff.Permanent(lastErr)
		}
		return nil
	}
	if err := backoff.Retry(op, backoff.WithContext(bo, req.Context())); err != nil {
		if lastErr != nil {
			return lastErr
		}
		return err
	}
	return nil
}
