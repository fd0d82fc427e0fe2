package types

// Natspec holds the structured user and developer documentation a compiler emitted for one contract.
// Both documents are opaque JSON-compatible structures; they are stored and exported verbatim, never
// interpreted.
type Natspec struct {
	// Userdoc describes the user-facing documentation of a contract.
	Userdoc any `json:"userdoc"`

	// Devdoc describes the developer-facing documentation of a contract.
	Devdoc any `json:"devdoc"`
}

// NewNatspec returns a Natspec for the given documents. Nil documents are replaced with empty objects so
// exports always carry a JSON object for each bucket.
func NewNatspec(userdoc any, devdoc any) Natspec {
	if userdoc == nil {
		userdoc = map[string]any{}
	}
	if devdoc == nil {
		devdoc = map[string]any{}
	}
	return Natspec{
		Userdoc: userdoc,
		Devdoc:  devdoc,
	}
}
