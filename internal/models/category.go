package models

// Category is a global expense label. Expenses reference it by name.
type Category struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color"` // #RRGGBB
}
