package types

// Event is a structured notification produced by a state mutation. Attributes
// are stringly typed so downstream indexers can consume them without schema
// coordination.
type Event struct {
	Type       string            `json:"type"`
	Attributes map[string]string `json:"attributes"`
}
