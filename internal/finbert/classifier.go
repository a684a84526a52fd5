// Package finbert classifies terms as financial or not with a pretrained
// two-class sequence-classification model served over HTTP.
package finbert

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/Veraticus/finlens/internal/model"
)

// DefaultThreshold is the class-1 probability at or above which a term is financial.
const DefaultThreshold = 0.42

var (
	// ErrModelMismatch is returned when the server hosts a different model than configured.
	ErrModelMismatch = errors.New("model server hosts a different model")
	// ErrBadLogits is returned for predictions that do not hold exactly two class scores.
	ErrBadLogits = errors.New("expected two class logits")
)

// Config holds configuration for the local classifier.
type Config struct {
	URL       string
	Model     string
	Threshold float64
	Timeout   time.Duration
}

// Classifier maps model logits to financial/non-financial verdicts.
// It is safe for concurrent use.
type Classifier struct {
	scorer    Scorer
	logger    *slog.Logger
	threshold float64
}

// Load connects to the model server once, verifies it serves cfg.Model and
// returns a ready classifier.
func Load(ctx context.Context, cfg Config, logger *slog.Logger) (*Classifier, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("model server URL is required")
	}

	scorer := newHTTPScorer(cfg.URL, cfg.Timeout)
	info, err := scorer.Info(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to reach model server: %w", err)
	}
	if cfg.Model != "" && info.ModelID != "" && info.ModelID != cfg.Model {
		return nil, fmt.Errorf("%w: want %s, got %s", ErrModelMismatch, cfg.Model, info.ModelID)
	}

	logger.Info("local classifier ready",
		"model", info.ModelID,
		"url", cfg.URL,
		"threshold", cfg.Threshold)

	return New(scorer, cfg.Threshold, logger), nil
}

// New creates a classifier over an arbitrary scorer. A negative threshold
// selects DefaultThreshold; zero is kept and marks every term financial.
func New(scorer Scorer, threshold float64, logger *slog.Logger) *Classifier {
	if threshold < 0 {
		threshold = DefaultThreshold
	}
	return &Classifier{
		scorer:    scorer,
		threshold: threshold,
		logger:    logger,
	}
}

// Threshold returns the configured decision threshold.
func (c *Classifier) Threshold() float64 {
	return c.threshold
}

// ClassifyTerm classifies a single term. Inference failures are returned as errors.
func (c *Classifier) ClassifyTerm(ctx context.Context, term string) (model.Classification, error) {
	return c.ClassifyTermWithThreshold(ctx, term, c.threshold)
}

// ClassifyTermWithThreshold classifies a single term against an explicit threshold.
func (c *Classifier) ClassifyTermWithThreshold(ctx context.Context, term string, threshold float64) (model.Classification, error) {
	logits, err := c.scorer.Logits(ctx, []string{term})
	if err != nil {
		return model.Classification{}, fmt.Errorf("inference failed: %w", err)
	}
	if len(logits) == 0 {
		return model.Classification{}, fmt.Errorf("inference failed: empty prediction")
	}

	p, err := financialProbability(logits[0])
	if err != nil {
		return model.Classification{}, fmt.Errorf("inference failed: %w", err)
	}

	return model.Classification{
		Term:        term,
		IsFinancial: p >= threshold,
	}, nil
}

// ClassifyBatch classifies every term in one inference call. The result has
// one entry per input in input order; items whose prediction is unusable carry
// an Error instead of failing the batch.
func (c *Classifier) ClassifyBatch(ctx context.Context, terms []string) ([]model.Classification, error) {
	return c.ClassifyBatchWithThreshold(ctx, terms, c.threshold)
}

// ClassifyBatchWithThreshold is ClassifyBatch against an explicit threshold.
func (c *Classifier) ClassifyBatchWithThreshold(ctx context.Context, terms []string, threshold float64) ([]model.Classification, error) {
	if len(terms) == 0 {
		return []model.Classification{}, nil
	}

	logits, err := c.scorer.Logits(ctx, terms)
	if err != nil {
		return nil, fmt.Errorf("batch inference failed: %w", err)
	}

	results := make([]model.Classification, len(terms))
	for i, term := range terms {
		results[i] = model.Classification{Term: term}

		if i >= len(logits) {
			results[i].Error = "no prediction returned for term"
			continue
		}

		p, err := financialProbability(logits[i])
		if err != nil {
			c.logger.Warn("unusable prediction in batch",
				"term", term,
				"index", i,
				"error", err)
			results[i].Error = err.Error()
			continue
		}
		results[i].IsFinancial = p >= threshold
	}

	return results, nil
}

// financialProbability orders the logits by class index and returns the
// softmax probability of class 1.
func financialProbability(logits []Logit) (float64, error) {
	if len(logits) != 2 {
		return 0, fmt.Errorf("%w, got %d", ErrBadLogits, len(logits))
	}

	ordered := make([]Logit, len(logits))
	copy(ordered, logits)

	indices := make([]int, len(ordered))
	for i, l := range ordered {
		idx, err := labelIndex(l.Label)
		if err != nil {
			return 0, err
		}
		indices[i] = idx
	}
	sort.SliceStable(ordered, func(a, b int) bool {
		ia, _ := labelIndex(ordered[a].Label)
		ib, _ := labelIndex(ordered[b].Label)
		return ia < ib
	})
	if indices[0] == indices[1] {
		return 0, fmt.Errorf("%w: duplicate label %q", ErrBadLogits, logits[0].Label)
	}

	probs := softmax([]float64{ordered[0].Score, ordered[1].Score})
	return probs[1], nil
}

// labelIndex parses labels of the form "LABEL_<n>" or a bare "<n>".
func labelIndex(label string) (int, error) {
	raw := strings.TrimPrefix(strings.ToUpper(strings.TrimSpace(label)), "LABEL_")
	idx, err := strconv.Atoi(raw)
	if err != nil || idx < 0 || idx > 1 {
		return 0, fmt.Errorf("%w: unexpected label %q", ErrBadLogits, label)
	}
	return idx, nil
}

// softmax is numerically stable: logits are shifted by their maximum.
func softmax(logits []float64) []float64 {
	maxLogit := math.Inf(-1)
	for _, l := range logits {
		if l > maxLogit {
			maxLogit = l
		}
	}

	out := make([]float64, len(logits))
	var sum float64
	for i, l := range logits {
		out[i] = math.Exp(l - maxLogit)
		sum += out[i]
	}
	for i := range out {
		out[i] /= sum
	}
	return out
}
