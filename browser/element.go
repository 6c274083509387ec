// Package browser manages Chrome lifecycle through Rod and exposes the
// page-driving capability set the rest of browser-mcp consumes: navigate,
// click, type, screenshot, accessibility-style snapshots, and script
// evaluation.
package browser

// Role classifies a snapshotted element.
type Role string

const (
	RoleLink     Role = "link"
	RoleButton   Role = "button"
	RoleTextbox  Role = "textbox"
	RoleCombobox Role = "combobox"
	RoleHeading  Role = "heading"
	RoleImage    Role = "image"
	RoleText     Role = "text"
)

// Rect is an element's bounding box in CSS pixels.
type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Element is a normalized, page-agnostic description of one visible
// interactive or content element, as seen at snapshot time. Selectors use
// descendant notation with bracketed sibling indexes where a part is
// ambiguous (e.g. "div.post[1] h3"); they are resolvable through the
// driver but may be fragile across page loads.
//
// Elements are constructed fresh on every Snapshot call and never mutated.
type Element struct {
	Role     Role   `json:"role"`
	Name     string `json:"name"`
	Selector string `json:"selector"`
	Bounds   Rect   `json:"bounds"`
	Text     string `json:"text,omitempty"`
	Value    string `json:"value,omitempty"`
}
