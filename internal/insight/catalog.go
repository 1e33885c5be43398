// Package insight serves the static research-insight catalog. The content
// ships embedded in the binary; there is no authoring or persistence path.
package insight

import (
	_ "embed"
	"encoding/json"
	"fmt"
)

//go:embed insights.json
var catalogJSON []byte

// Insight is a single research card. Body is the premium portion, returned
// only to entitled users.
type Insight struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Category string `json:"category"`
	Summary  string `json:"summary"`
	Body     string `json:"body,omitempty"`
}

// Catalog is an in-memory index over the embedded cards.
type Catalog struct {
	insights []Insight
	byID     map[string]Insight
}

// NewCatalog parses the embedded catalog.
func NewCatalog() (*Catalog, error) {
	var insights []Insight
	if err := json.Unmarshal(catalogJSON, &insights); err != nil {
		return nil, fmt.Errorf("parse insight catalog: %w", err)
	}
	byID := make(map[string]Insight, len(insights))
	for _, ins := range insights {
		if ins.ID == "" {
			return nil, fmt.Errorf("insight %q missing id", ins.Title)
		}
		if _, dup := byID[ins.ID]; dup {
			return nil, fmt.Errorf("duplicate insight id %q", ins.ID)
		}
		byID[ins.ID] = ins
	}
	return &Catalog{insights: insights, byID: byID}, nil
}

// List returns every card without its premium body.
func (c *Catalog) List() []Insight {
	out := make([]Insight, len(c.insights))
	for i, ins := range c.insights {
		ins.Body = ""
		out[i] = ins
	}
	return out
}

// Get returns the card by id. When entitled is false the premium body is
// stripped. The second return is false for an unknown id.
func (c *Catalog) Get(id string, entitled bool) (Insight, bool) {
	ins, ok := c.byID[id]
	if !ok {
		return Insight{}, false
	}
	if !entitled {
		ins.Body = ""
	}
	return ins, true
}

// Len returns the number of cards.
func (c *Catalog) Len() int {
	return len(c.insights)
}
