package llm

import (
	"context"
	"errors"
	"fmt"

	"github.com/Veraticus/finlens/internal/model"
)

var (
	// ErrUnknownCategory is returned when the model picks a category outside the menu tree.
	ErrUnknownCategory = errors.New("LLM chose an unknown category")
	// ErrUnknownMenu is returned when the model picks a menu outside the chosen category.
	ErrUnknownMenu = errors.New("LLM chose an unknown menu")
	// ErrNoMenus is returned when there is no menu to choose from.
	ErrNoMenus = errors.New("menu tree is empty")
)

// MenuTree is the read-only view of the banking menu the finder needs.
type MenuTree interface {
	Empty() bool
	Categories() []string
	SubMenus(category string) []string
	HasCategory(name string) bool
	HasSubMenu(category, menu string) bool
}

// MenuFinder recommends a banking menu for a free-text request in two steps:
// first a top-level category, then one of that category's menus.
type MenuFinder struct {
	svc  *Service
	tree MenuTree
}

// NewMenuFinder creates a menu finder over tree.
func NewMenuFinder(svc *Service, tree MenuTree) *MenuFinder {
	return &MenuFinder{svc: svc, tree: tree}
}

type categoryChoice struct {
	Category    string
	Description string
}

// Recommend picks the menu best matching request. Every returned menu name
// belongs to the returned category.
func (f *MenuFinder) Recommend(ctx context.Context, request string) (model.MenuRecommendation, error) {
	if f.tree.Empty() {
		return model.MenuRecommendation{}, ErrNoMenus
	}
	categories := f.tree.Categories()

	system := menuSystemPrompt(f.svc.language)
	first := UserText(categoryPrompt(request, categories))

	choice, err := f.chooseCategory(ctx, system, first)
	if err != nil {
		return model.MenuRecommendation{}, err
	}

	rec, err := f.chooseMenu(ctx, system, first, choice)
	if err != nil {
		return model.MenuRecommendation{}, err
	}

	f.svc.logger.Info("menu recommended",
		"category", rec.Category,
		"selected_menu", rec.SelectedMenu,
		"candidates", len(rec.CandidateMenus))
	return rec, nil
}

func (f *MenuFinder) chooseCategory(ctx context.Context, system string, prompt Message) (categoryChoice, error) {
	req := Request{
		System:      system,
		Messages:    []Message{prompt},
		Schema:      categorySchema,
		Temperature: menuTemperature,
	}

	var choice categoryChoice
	err := f.svc.generate(ctx, "choose category", "", req, func(raw string) error {
		var reply struct {
			Category    *string `json:"category"`
			Description *string `json:"description"`
		}
		if err := parseJSON(raw, &reply); err != nil {
			return err
		}
		if err := requireString("category", reply.Category); err != nil {
			return err
		}
		if err := requireString("description", reply.Description); err != nil {
			return err
		}
		if !f.tree.HasCategory(*reply.Category) {
			return fmt.Errorf("%w: %q", ErrUnknownCategory, *reply.Category)
		}
		choice = categoryChoice{Category: *reply.Category, Description: *reply.Description}
		return nil
	})
	return choice, err
}

func (f *MenuFinder) chooseMenu(ctx context.Context, system string, first Message, choice categoryChoice) (model.MenuRecommendation, error) {
	subMenus := f.tree.SubMenus(choice.Category)
	if len(subMenus) == 0 {
		return model.MenuRecommendation{}, fmt.Errorf("%w: category %q has no menus", ErrUnknownMenu, choice.Category)
	}

	req := Request{
		System: system,
		Messages: []Message{
			first,
			ModelText(categoryReply(choice.Category, choice.Description)),
			UserText(menuPrompt(choice.Category, subMenus)),
		},
		Schema:      menuSchema,
		Temperature: menuTemperature,
	}

	var rec model.MenuRecommendation
	err := f.svc.generate(ctx, "choose menu", "", req, func(raw string) error {
		var reply struct {
			SelectedMenu   *string  `json:"selected_menu"`
			Description    *string  `json:"description"`
			CandidateMenus []string `json:"candidate_menus"`
		}
		if err := parseJSON(raw, &reply); err != nil {
			return err
		}
		if err := requireString("selected_menu", reply.SelectedMenu); err != nil {
			return err
		}
		if err := requireString("description", reply.Description); err != nil {
			return err
		}
		if !f.tree.HasSubMenu(choice.Category, *reply.SelectedMenu) {
			return fmt.Errorf("%w: %q", ErrUnknownMenu, *reply.SelectedMenu)
		}

		candidates := make([]string, 0, len(reply.CandidateMenus))
		for _, m := range reply.CandidateMenus {
			if !f.tree.HasSubMenu(choice.Category, m) {
				return fmt.Errorf("%w: candidate %q", ErrUnknownMenu, m)
			}
			candidates = append(candidates, m)
		}

		rec = model.MenuRecommendation{
			Category:       choice.Category,
			SelectedMenu:   *reply.SelectedMenu,
			Description:    *reply.Description,
			CandidateMenus: candidates,
		}
		return nil
	})
	return rec, err
}
