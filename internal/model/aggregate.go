package model

// Aggregate is the deduplicated result of one pipeline run.
type Aggregate struct {
	Nodes  []Node
	Groups []Group
	Rules  []string

	// Stats describes how the aggregate was built. It is never rendered.
	Stats Stats
}

type Stats struct {
	Sources int // distinct source references
	Fetched int // sources that produced text
	Skipped int // sources dropped because fetch failed or returned nothing

	// Formats counts classifier verdicts by name.
	Formats map[string]int
}

// Names returns node names in aggregate order.
func (a Aggregate) Names() []string {
	out := make([]string, 0, len(a.Nodes))
	for _, n := range a.Nodes {
		out = append(out, n.Name)
	}
	return out
}
