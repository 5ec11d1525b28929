package clinote

import "github.com/crimson-sun/clinote/internal/engine/labelmap"

// Unknown is the description of any label outside the mapping table.
const Unknown = labelmap.Unknown

// Label is one row of the label to disease-category table.
type Label struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Labels returns the mapping table ordered by label name. Read-only;
// callers get a fresh copy.
func Labels() []Label {
	entries := labelmap.Entries()
	out := make([]Label, len(entries))
	for i, e := range entries {
		out[i] = Label{Name: e.Label, Description: e.Description}
	}
	return out
}

// Describe maps a raw model label to its disease category, or Unknown.
func Describe(label string) string {
	return labelmap.Lookup(label)
}
