package entity

// Details is the full record of one entity as returned by GetDetails.
type Details struct {
	ID     string         `json:"id"`
	Type   string         `json:"type"`
	Fields map[string]any `json:"fields"`
}
