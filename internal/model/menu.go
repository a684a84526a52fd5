package model

// MenuNode is one entry of the static banking menu tree.
// Depth 0 marks a top-level category.
type MenuNode struct {
	Text     string     `json:"text"`
	Children []MenuNode `json:"children,omitempty"`
	Depth    int        `json:"depth"`
}

// MenuRecommendation is the menu chosen for a user request.
type MenuRecommendation struct {
	Category       string   `json:"category"`
	SelectedMenu   string   `json:"selected_menu"`
	Description    string   `json:"description"`
	CandidateMenus []string `json:"candidate_menus"`
}
