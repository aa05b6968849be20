package service

import (
	"travelchat/internal/catalog"
)

// DisplayNameResolver turns column identifiers into the labels shown to
// users.
type DisplayNameResolver struct {
	schema *catalog.Schema
}

func NewDisplayNameResolver(schema *catalog.Schema) *DisplayNameResolver {
	return &DisplayNameResolver{schema: schema}
}

// Resolve maps each identifier to its label, keeping order and length.
// Identifiers without a label are returned unchanged.
func (r *DisplayNameResolver) Resolve(columns []string) []string {
	out := make([]string, len(columns))
	for i, c := range columns {
		if r.schema == nil {
			out[i] = c
			continue
		}
		out[i] = r.schema.Label(c)
	}
	return out
}
