// Package menu loads the static banking menu tree.
package menu

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"

	"github.com/Veraticus/finlens/internal/model"
)

// Tree is the read-only banking menu. Only depth-0 nodes are categories;
// their direct children are the selectable menus.
type Tree struct {
	subMenus   map[string][]string
	categories []string
}

// Load reads a JSON array of menu nodes from path. A missing file yields an
// empty tree and a warning.
func Load(path string, logger *slog.Logger) (*Tree, error) {
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		logger.Warn("menu file not found, menu recommendations are disabled", "path", path)
		return New(nil), nil
	}
	if err != nil {
		return nil, fmt.Errorf("open menu: %w", err)
	}
	defer func() { _ = f.Close() }()

	tree, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("parse menu %s: %w", path, err)
	}

	menus := 0
	for _, subs := range tree.subMenus {
		menus += len(subs)
	}
	logger.Info("menu loaded",
		"path", path,
		"categories", len(tree.categories),
		"menus", menus)
	return tree, nil
}

// Parse decodes a JSON array of menu nodes.
func Parse(r io.Reader) (*Tree, error) {
	var nodes []model.MenuNode
	if err := json.NewDecoder(r).Decode(&nodes); err != nil {
		return nil, err
	}
	return New(nodes), nil
}

// New indexes nodes. When a category name repeats, the first node with
// children wins.
func New(nodes []model.MenuNode) *Tree {
	t := &Tree{subMenus: make(map[string][]string)}

	for _, n := range nodes {
		if n.Depth != 0 {
			continue
		}
		if _, seen := t.subMenus[n.Text]; !seen {
			t.categories = append(t.categories, n.Text)
			t.subMenus[n.Text] = nil
		}
		if len(n.Children) == 0 || len(t.subMenus[n.Text]) > 0 {
			continue
		}
		subs := make([]string, 0, len(n.Children))
		for _, c := range n.Children {
			subs = append(subs, c.Text)
		}
		t.subMenus[n.Text] = subs
	}
	return t
}

// Empty reports whether the tree has no categories.
func (t *Tree) Empty() bool {
	return len(t.categories) == 0
}

// Categories returns the top-level category names in file order.
func (t *Tree) Categories() []string {
	return append([]string(nil), t.categories...)
}

// SubMenus returns the selectable menus under category, or nil.
func (t *Tree) SubMenus(category string) []string {
	return append([]string(nil), t.subMenus[category]...)
}

// HasCategory reports whether name is a top-level category.
func (t *Tree) HasCategory(name string) bool {
	_, ok := t.subMenus[name]
	return ok
}

// HasSubMenu reports whether menu is a direct child of category.
func (t *Tree) HasSubMenu(category, menu string) bool {
	for _, m := range t.subMenus[category] {
		if m == menu {
			return true
		}
	}
	return false
}
