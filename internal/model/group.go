package model

// Group is a proxy group of the rendered document.
type Group struct {
	Name string
	Type string // "select" | "fallback"

	Proxies []string // node names, in aggregate order
}
