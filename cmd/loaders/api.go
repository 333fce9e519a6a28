package loaders

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// wrapperKeys are tried in order when the API returns an object
// instead of a bare array
var wrapperKeys = []string{"data", "results", "items", "rows"}

// APILoader loads a dataset from an HTTP endpoint returning a JSON
// array of objects, directly or under a conventional wrapper key
type APILoader struct {
	cfg    SourceConfig
	logger *slog.Logger
	client *http.Client
}

// NewAPILoader creates an API loader
func NewAPILoader(cfg SourceConfig, logger *slog.Logger) *APILoader {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 60 * time.Second
	}
	return &APILoader{
		cfg:    cfg,
		logger: logger,
		client: &http.Client{Timeout: timeout},
	}
}

// Load performs the request and decodes the response into row maps
func (l *APILoader) Load(ctx context.Context) ([]map[string]interface{}, []string, error) {
	method := strings.ToUpper(l.cfg.Method)
	if method == "" {
		method = http.MethodGet
	}

	var body io.Reader
	if l.cfg.Body != "" {
		body = strings.NewReader(l.cfg.Body)
	}

	req, err := http.NewRequestWithContext(ctx, method, l.cfg.URL, body)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to build API request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if l.cfg.Body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for key, value := range l.cfg.Headers {
		req.Header.Set(key, value)
	}

	l.logger.Debug("🌐 Calling API", "method", method, "url", l.cfg.URL)
	resp, err := l.client.Do(req)
	if err != nil {
		return nil, nil, fmt.Errorf("API request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, nil, fmt.Errorf("API returned status %d", resp.StatusCode)
	}

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read API response: %w", err)
	}

	rows, err := decodeRows(payload)
	if err != nil {
		return nil, nil, err
	}
	return rows, nil, nil
}

// decodeRows accepts either a bare JSON array of objects or an
// object wrapping one under a conventional key
func decodeRows(payload []byte) ([]map[string]interface{}, error) {
	var rows []map[string]interface{}
	if err := json.Unmarshal(payload, &rows); err == nil {
		return rows, nil
	}

	var wrapper map[string]json.RawMessage
	if err := json.Unmarshal(payload, &wrapper); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAPIResponseShape, err)
	}
	for _, key := range wrapperKeys {
		raw, ok := wrapper[key]
		if !ok {
			continue
		}
		if err := json.Unmarshal(raw, &rows); err == nil {
			return rows, nil
		}
	}
	return nil, ErrAPIResponseShape
}
