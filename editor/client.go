package editor

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"klinika/models"
)

// APIError is a non-2xx answer from the API. Fields holds per-field validation messages.
type APIError struct {
	Status  int
	Message string
	Fields  map[string]string
}

func (e *APIError) Error() string {
	if len(e.Fields) == 0 {
		return fmt.Sprintf("api error %d: %s", e.Status, e.Message)
	}
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return fmt.Sprintf("api error %d: %s (%s)", e.Status, e.Message, strings.Join(parts, "; "))
}

// IsNotFound reports whether err is a 404 from the API.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound
}

// Client talks to the clinic REST API. It is safe for concurrent use once the token is set.
type Client struct {
	baseURL    string
	httpClient *http.Client
	token      string
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

func (c *Client) SetToken(token string) {
	c.token = token
}

// Login exchanges admin credentials for a bearer token and keeps it for later calls.
func (c *Client) Login(ctx context.Context, email, password string) error {
	var resp struct {
		Token string `json:"token"`
	}
	body := map[string]string{"email": email, "password": password}
	if err := c.do(ctx, http.MethodPost, "/api/auth/login", body, &resp); err != nil {
		return err
	}
	c.token = resp.Token
	return nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request body: %w", err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return decodeError(resp)
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func decodeError(resp *http.Response) error {
	apiErr := &APIError{Status: resp.StatusCode}
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))

	var envelope struct {
		Error  string            `json:"error"`
		Errors map[string]string `json:"errors"`
	}
	if err := json.Unmarshal(raw, &envelope); err == nil && envelope.Error != "" {
		apiErr.Message = envelope.Error
		apiErr.Fields = envelope.Errors
	} else {
		apiErr.Message = strings.TrimSpace(string(raw))
	}
	if apiErr.Message == "" {
		apiErr.Message = http.StatusText(resp.StatusCode)
	}
	return apiErr
}

func idPath(base string, id uint) string {
	return base + "/" + strconv.FormatUint(uint64(id), 10)
}

func withParent(base, param string, id uint) string {
	if id == 0 {
		return base
	}
	return base + "?" + url.Values{param: {strconv.FormatUint(uint64(id), 10)}}.Encode()
}

// save creates rec when it has no id yet and replaces it otherwise.
func save[T any, PT interface {
	*T
	models.Record
}](ctx context.Context, c *Client, base string, rec PT) (PT, error) {
	out := PT(new(T))
	var err error
	if id := rec.Meta().ID; id == 0 {
		err = c.do(ctx, http.MethodPost, base, rec, out)
	} else {
		err = c.do(ctx, http.MethodPut, idPath(base, id), rec, out)
	}
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) ListServices(ctx context.Context) ([]models.Service, error) {
	var out []models.Service
	err := c.do(ctx, http.MethodGet, "/api/services", nil, &out)
	return out, err
}

func (c *Client) SaveService(ctx context.Context, rec *models.Service) (*models.Service, error) {
	return save(ctx, c, "/api/services", rec)
}

func (c *Client) DeleteService(ctx context.Context, id uint) error {
	return c.do(ctx, http.MethodDelete, idPath("/api/services", id), nil, nil)
}

func (c *Client) ListSubServices(ctx context.Context, serviceID uint) ([]models.SubService, error) {
	var out []models.SubService
	err := c.do(ctx, http.MethodGet, withParent("/api/sub-services", "serviceId", serviceID), nil, &out)
	return out, err
}

func (c *Client) SaveSubService(ctx context.Context, rec *models.SubService) (*models.SubService, error) {
	return save(ctx, c, "/api/sub-services", rec)
}

func (c *Client) DeleteSubService(ctx context.Context, id uint) error {
	return c.do(ctx, http.MethodDelete, idPath("/api/sub-services", id), nil, nil)
}

func (c *Client) ListSubSubServices(ctx context.Context, subServiceID uint) ([]models.SubSubService, error) {
	var out []models.SubSubService
	err := c.do(ctx, http.MethodGet, withParent("/api/sub-sub-services", "subServiceId", subServiceID), nil, &out)
	return out, err
}

func (c *Client) SaveSubSubService(ctx context.Context, rec *models.SubSubService) (*models.SubSubService, error) {
	return save(ctx, c, "/api/sub-sub-services", rec)
}

func (c *Client) DeleteSubSubService(ctx context.Context, id uint) error {
	return c.do(ctx, http.MethodDelete, idPath("/api/sub-sub-services", id), nil, nil)
}

// ListFAQ returns the FAQ of a sub-service, or of a sub-sub-service when subSub is true.
func (c *Client) ListFAQ(ctx context.Context, parentID uint, subSub bool) ([]models.FAQItem, error) {
	param := "subServiceId"
	if subSub {
		param = "subSubServiceId"
	}
	var out []models.FAQItem
	err := c.do(ctx, http.MethodGet, withParent("/api/faq", param, parentID), nil, &out)
	return out, err
}

func (c *Client) SaveFAQ(ctx context.Context, rec *models.FAQItem) (*models.FAQItem, error) {
	return save(ctx, c, "/api/faq", rec)
}

func (c *Client) DeleteFAQ(ctx context.Context, id uint) error {
	return c.do(ctx, http.MethodDelete, idPath("/api/faq", id), nil, nil)
}
