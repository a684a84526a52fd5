package llm

import (
	"context"
	"errors"
	"fmt"

	"github.com/Veraticus/finlens/internal/common"
	"github.com/Veraticus/finlens/internal/model"
)

// ErrTermMismatch is returned when the model answers about a different term
// than the one asked for.
var ErrTermMismatch = errors.New("LLM echoed a different term")

const msgTermMismatch = "the model answered about a different term"

// Classifier decides with the LLM whether terms are financial.
type Classifier struct {
	svc *Service
}

// NewClassifier creates a classifier on top of svc.
func NewClassifier(svc *Service) *Classifier {
	return &Classifier{svc: svc}
}

type classificationReply struct {
	Term        *string `json:"term"`
	IsFinancial *bool   `json:"is_financial"`
}

func (r classificationReply) valid() bool {
	return r.Term != nil && r.IsFinancial != nil
}

// ClassifyTerm classifies one term.
func (c *Classifier) ClassifyTerm(ctx context.Context, term string) (model.Classification, error) {
	req := Request{
		System:      classifySystemPrompt(),
		Messages:    []Message{UserText(classifyPrompt(term))},
		Schema:      classificationSchema,
		Temperature: classifyTemperature,
	}

	var result model.Classification
	err := c.svc.generate(ctx, "classify term", "classify:"+term, req, func(raw string) error {
		var reply classificationReply
		if err := parseJSON(raw, &reply); err != nil {
			return err
		}
		if !reply.valid() {
			return fmt.Errorf("%w: term and is_financial are required", ErrInvalidResponse)
		}
		if *reply.Term != term {
			return common.NewUserError(msgTermMismatch,
				fmt.Errorf("%w: asked %q, got %q", ErrTermMismatch, term, *reply.Term))
		}
		result = model.Classification{Term: term, IsFinancial: *reply.IsFinancial}
		return nil
	})
	if err != nil {
		return model.Classification{}, err
	}

	c.svc.logger.Debug("term classified by LLM",
		"term", term,
		"is_financial", result.IsFinancial)
	return result, nil
}

// ClassifyBatch classifies terms in one request. It returns one result per
// input in input order; terms the model skipped default to non-financial.
func (c *Classifier) ClassifyBatch(ctx context.Context, terms []string) ([]model.Classification, error) {
	switch len(terms) {
	case 0:
		return []model.Classification{}, nil
	case 1:
		result, err := c.ClassifyTerm(ctx, terms[0])
		if err != nil {
			return nil, err
		}
		return []model.Classification{result}, nil
	}

	req := Request{
		System:      classifySystemPrompt(),
		Messages:    []Message{UserText(batchClassifyPrompt(terms))},
		Schema:      batchClassificationSchema,
		Temperature: classifyTemperature,
	}

	var verdicts map[string]bool
	err := c.svc.generate(ctx, "classify batch", "", req, func(raw string) error {
		var reply struct {
			Results *[]classificationReply `json:"results"`
		}
		if err := parseJSON(raw, &reply); err != nil {
			return err
		}
		if reply.Results == nil {
			return fmt.Errorf("%w: results are required", ErrInvalidResponse)
		}

		verdicts = make(map[string]bool, len(*reply.Results))
		for _, r := range *reply.Results {
			if !r.valid() {
				continue
			}
			verdicts[*r.Term] = *r.IsFinancial
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	results := make([]model.Classification, len(terms))
	missing := 0
	for i, term := range terms {
		isFinancial, ok := verdicts[term]
		if !ok {
			missing++
		}
		results[i] = model.Classification{Term: term, IsFinancial: isFinancial}
	}

	c.svc.logger.Debug("batch classified by LLM",
		"terms", len(terms),
		"missing", missing)
	return results, nil
}
