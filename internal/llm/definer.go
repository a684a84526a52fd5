package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Veraticus/finlens/internal/common"
	"github.com/Veraticus/finlens/internal/model"
)

// ErrUnrecognizable is returned when the model finds no readable text in an image.
var ErrUnrecognizable = errors.New("no recognizable text in image")

const msgUnrecognizable = "no recognizable text was found in the image"

// Definer generates plain-language definitions with the LLM.
type Definer struct {
	svc *Service
}

// NewDefiner creates a definer on top of svc.
func NewDefiner(svc *Service) *Definer {
	return &Definer{svc: svc}
}

func decodeDefinition(raw string) (model.Definition, error) {
	var def model.Definition
	if err := parseJSON(raw, &def); err != nil {
		return model.Definition{}, err
	}
	if !def.Complete() {
		return model.Definition{}, fmt.Errorf("%w: every definition field is required", ErrInvalidResponse)
	}
	return def, nil
}

// DefineText explains term. The reply must be about exactly that term.
func (d *Definer) DefineText(ctx context.Context, term string) (model.Definition, error) {
	req := Request{
		System:      defineSystemPrompt(d.svc.language),
		Messages:    []Message{UserText(defineTextPrompt(term))},
		Schema:      definitionSchema,
		Temperature: defineTemperature,
	}

	var def model.Definition
	err := d.svc.generate(ctx, "define term", "define:"+term, req, func(raw string) error {
		parsed, err := decodeDefinition(raw)
		if err != nil {
			return err
		}
		if parsed.Term != term {
			return common.NewUserError(msgTermMismatch,
				fmt.Errorf("%w: asked %q, got %q", ErrTermMismatch, term, parsed.Term))
		}
		def = parsed
		return nil
	})
	if err != nil {
		return model.Definition{}, err
	}

	d.svc.logger.Debug("term defined by LLM", "term", term, "category", def.Category)
	return def, nil
}

// DefineImage explains the most salient text in a base64 screenshot.
func (d *Definer) DefineImage(ctx context.Context, encoded string) (model.Definition, error) {
	img, err := DecodeImage(encoded)
	if err != nil {
		return model.Definition{}, err
	}
	return d.DefineImageData(ctx, img)
}

// DefineImageData is DefineImage for already decoded image bytes.
func (d *Definer) DefineImageData(ctx context.Context, img *Image) (model.Definition, error) {
	req := Request{
		System: defineSystemPrompt(d.svc.language),
		Messages: []Message{{
			Role:  RoleUser,
			Text:  defineImagePrompt(),
			Image: img,
		}},
		Schema:      definitionSchema,
		Temperature: defineTemperature,
	}

	var def model.Definition
	err := d.svc.generate(ctx, "define image", "", req, func(raw string) error {
		parsed, err := decodeDefinition(raw)
		if err != nil {
			return err
		}
		def = parsed
		return nil
	})
	if err != nil {
		return model.Definition{}, err
	}

	if isUnrecognized(def.Term) {
		return model.Definition{}, common.NewUserError(msgUnrecognizable, ErrUnrecognizable)
	}

	d.svc.logger.Debug("image text defined by LLM",
		"term", def.Term,
		"mime", img.MIMEType,
		"bytes", len(img.Data))
	return def, nil
}

func isUnrecognized(term string) bool {
	t := strings.TrimSpace(term)
	return strings.EqualFold(t, unrecognizedTerm) || t == "인식 불가"
}
