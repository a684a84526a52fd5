package finbert

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/Veraticus/finlens/internal/common"
)

// Logit is one raw class score as returned by the model server.
type Logit struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

// Scorer produces raw two-class logits for each input, in input order.
type Scorer interface {
	Logits(ctx context.Context, inputs []string) ([][]Logit, error)
}

// ModelInfo is the subset of the model server's /info response we check.
type ModelInfo struct {
	ModelID string `json:"model_id"`
}

// httpScorer talks to a text-embeddings-inference compatible server
// hosting a sequence-classification model.
type httpScorer struct {
	httpClient *http.Client
	baseURL    string
}

// newHTTPScorer creates a scorer for the server at baseURL.
func newHTTPScorer(baseURL string, timeout time.Duration) *httpScorer {
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	return &httpScorer{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
}

// Info fetches the model server's metadata.
func (s *httpScorer) Info(ctx context.Context) (ModelInfo, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"/info", nil)
	if err != nil {
		return ModelInfo{}, fmt.Errorf("failed to create request: %w", err)
	}

	body, err := s.do(req)
	if err != nil {
		return ModelInfo{}, err
	}

	var info ModelInfo
	if err := json.Unmarshal(body, &info); err != nil {
		return ModelInfo{}, fmt.Errorf("failed to parse model info: %w", err)
	}
	return info, nil
}

// Logits implements Scorer.
func (s *httpScorer) Logits(ctx context.Context, inputs []string) ([][]Logit, error) {
	requestBody := map[string]any{
		"inputs":     inputs,
		"raw_scores": true,
		"truncate":   true,
	}

	jsonBody, err := json.Marshal(requestBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/predict", bytes.NewReader(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	body, err := s.do(req)
	if err != nil {
		return nil, err
	}

	var logits [][]Logit
	if err := json.Unmarshal(body, &logits); err != nil {
		return nil, fmt.Errorf("failed to parse predictions: %w", err)
	}
	return logits, nil
}

func (s *httpScorer) do(req *http.Request) ([]byte, error) {
	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrModelUnavailable, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("model server error (status %d): %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return body, nil
}
