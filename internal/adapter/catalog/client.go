package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"path"
	"strconv"
	"time"

	domainErrors "github.com/mwangikib/coursepay/internal/domain/errors"
	"github.com/mwangikib/coursepay/internal/domain/model"
)

// Client exposes the narrow slice of the course catalog that settlement
// needs: price/title lookup and a best-effort enrolled-count increment.
type Client interface {
	Course(ctx context.Context, courseID int64) (*model.Course, error)
	IncrementEnrolled(ctx context.Context, courseID int64) error
}

// HTTPClient implements Client against the catalog service HTTP API.
type HTTPClient struct {
	baseURL    *url.URL
	httpClient *http.Client
	logger     *slog.Logger
}

type courseResponse struct {
	ID    int64   `json:"id"`
	Title string  `json:"title"`
	Price float64 `json:"price"`
}

// NewHTTPClient creates a catalog client with a bounded request timeout.
func NewHTTPClient(baseURL string, logger *slog.Logger) (*HTTPClient, error) {
	parsed, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse catalog url: %w", err)
	}
	if !parsed.IsAbs() {
		return nil, fmt.Errorf("catalog url must be absolute")
	}
	return &HTTPClient{
		baseURL: parsed,
		logger:  logger,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}, nil
}

// Course fetches the catalog record for a course.
func (c *HTTPClient) Course(ctx context.Context, courseID int64) (*model.Course, error) {
	endpoint := *c.baseURL
	endpoint.Path = path.Join(endpoint.Path, "/api/courses/", strconv.FormatInt(courseID, 10))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, err
		}
		var data courseResponse
		if err := json.Unmarshal(body, &data); err != nil {
			return nil, err
		}
		return &model.Course{ID: data.ID, Title: data.Title, BasePrice: data.Price}, nil
	case http.StatusNotFound:
		return nil, domainErrors.ErrNotFound
	default:
		body, _ := io.ReadAll(resp.Body)
		c.logger.Error("catalog request failed", slog.Int("status", resp.StatusCode), slog.String("body", string(body)))
		return nil, fmt.Errorf("catalog error: %s", resp.Status)
	}
}

// IncrementEnrolled asks the catalog to bump the course's enrolled count.
func (c *HTTPClient) IncrementEnrolled(ctx context.Context, courseID int64) error {
	endpoint := *c.baseURL
	endpoint.Path = path.Join(endpoint.Path, "/api/courses/", strconv.FormatInt(courseID, 10), "/enrollments")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint.String(), bytes.NewReader(nil))
	if err != nil {
		return err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusMultipleChoices {
		return fmt.Errorf("catalog enrollment increment failed: %s", resp.Status)
	}
	return nil
}
