package recipe

// Recipe is one persisted workflow definition. Interactions lists the
// handler names the recipe dispatches to; Events lists the event names it
// may emit through the engine.
type Recipe struct {
	ID           string   `json:"id" yaml:"id"`
	Name         string   `json:"name" yaml:"name"`
	Version      string   `json:"version" yaml:"version"`
	Interactions []string `json:"interactions" yaml:"interactions"`
	Events       []string `json:"events" yaml:"events"`

	// Raw preserves the normalized source document for API listing.
	Raw []byte `json:"-" yaml:"-"`
}
