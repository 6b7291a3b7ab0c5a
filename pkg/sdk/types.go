package reconciler

// Query is one reconciliation request.
type Query struct {
	// ID keys the result; empty IDs become q0, q1, ... by position.
	ID    string
	Text  string
	Type  string
	Limit int
	// Properties are scalar evidence values such as lat, lon, isbn or place.
	Properties map[string]string
}

// Candidate is one ranked match.
type Candidate struct {
	ID          string
	Name        string
	Score       float64 // 0-100
	Match       bool
	Types       []string
	DistanceKm  *float64
	Description string
}

// Result holds the candidates of one query.
type Result struct {
	QueryID    string
	Candidates []Candidate
}

// Property is a query property an entity type understands.
type Property struct {
	ID          string
	Name        string
	Description string
}

// EntityType describes one registered entity type.
type EntityType struct {
	Key        string
	Name       string
	TypePath   string
	Properties []Property
}

// Entity is the stored record of one entity.
type Entity struct {
	ID     string
	Type   string
	Fields map[string]any
}

// Manifest is the service identity published to reconciliation clients.
type Manifest struct {
	Name            string
	IdentifierSpace string
	SchemaSpace     string
}
