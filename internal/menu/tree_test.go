package menu

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const menuJSON = `[
  {"text": "조회", "depth": 0, "children": [
    {"text": "계좌조회", "depth": 1},
    {"text": "거래내역조회", "depth": 1}
  ]},
  {"text": "이체", "depth": 0, "children": [
    {"text": "계좌이체", "depth": 1},
    {"text": "예약이체", "depth": 1},
    {"text": "자동이체", "depth": 1}
  ]},
  {"text": "고객센터", "depth": 0},
  {"text": "숨김", "depth": 1, "children": [{"text": "비밀메뉴", "depth": 2}]}
]`

func TestParse(t *testing.T) {
	tree, err := Parse(strings.NewReader(menuJSON))
	require.NoError(t, err)

	assert.False(t, tree.Empty())
	assert.Equal(t, []string{"조회", "이체", "고객센터"}, tree.Categories())
	assert.Equal(t, []string{"계좌이체", "예약이체", "자동이체"}, tree.SubMenus("이체"))
	assert.Empty(t, tree.SubMenus("고객센터"))
	assert.Nil(t, tree.SubMenus("없는카테고리"))
	assert.Equal(t, []string{"계좌조회", "거래내역조회"}, tree.SubMenus("조회"))
}

func TestMembership(t *testing.T) {
	tree, err := Parse(strings.NewReader(menuJSON))
	require.NoError(t, err)

	tests := []struct {
		name     string
		category string
		menu     string
		want     bool
	}{
		{name: "child of category", category: "이체", menu: "예약이체", want: true},
		{name: "child of other category", category: "조회", menu: "예약이체", want: false},
		{name: "non-top-level node", category: "숨김", menu: "비밀메뉴", want: false},
		{name: "unknown category", category: "대출", menu: "계좌조회", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tree.HasSubMenu(tt.category, tt.menu))
		})
	}

	assert.True(t, tree.HasCategory("고객센터"))
	assert.False(t, tree.HasCategory("숨김"))
}

func TestSubMenus_ReturnsCopy(t *testing.T) {
	tree, err := Parse(strings.NewReader(menuJSON))
	require.NoError(t, err)

	subs := tree.SubMenus("조회")
	subs[0] = "changed"
	assert.Equal(t, "계좌조회", tree.SubMenus("조회")[0])
}

func TestParse_Invalid(t *testing.T) {
	_, err := Parse(strings.NewReader(`{"text": "not a list"}`))
	require.Error(t, err)
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "menu.json")
	require.NoError(t, os.WriteFile(path, []byte(menuJSON), 0o600))

	tree, err := Load(path, slog.Default())
	require.NoError(t, err)
	assert.Len(t, tree.Categories(), 3)

	empty, err := Load(filepath.Join(dir, "missing.json"), slog.Default())
	require.NoError(t, err)
	assert.True(t, empty.Empty())
	assert.Empty(t, empty.Categories())
}
