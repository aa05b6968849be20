package model

import (
	"bytes"
	"encoding/json"
)

// ChatRequest is the body of POST /chat
type ChatRequest struct {
	Query string `json:"query"`
}

// ChatResponse is the response envelope. Filters and Listings are always
// serialized, as [] when empty.
type ChatResponse struct {
	Filters  []string        `json:"filters"`
	Listings []PublicListing `json:"listings"`
	Error    *ErrorBody      `json:"error,omitempty"`
}

// ErrorBody describes a failed request. Clients key off Type; Message is
// informational.
type ErrorBody struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// Field is one public attribute of a listing
type Field struct {
	Name  string
	Value any
}

// PublicListing is a projected listing. It marshals to a JSON object whose
// keys keep the projection order.
type PublicListing []Field

// Get returns the value of a public field.
func (l PublicListing) Get(name string) (any, bool) {
	for _, f := range l {
		if f.Name == name {
			return f.Value, true
		}
	}
	return nil, false
}

// MarshalJSON writes the fields in order without HTML escaping.
func (l PublicListing) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	encode := func(v any) ([]byte, error) {
		buf.Reset()
		if err := enc.Encode(v); err != nil {
			return nil, err
		}
		return bytes.TrimRight(buf.Bytes(), "\n"), nil
	}

	out := bytes.NewBuffer(make([]byte, 0, 64*len(l)))
	out.WriteByte('{')
	for i, f := range l {
		if i > 0 {
			out.WriteByte(',')
		}
		key, err := encode(f.Name)
		if err != nil {
			return nil, err
		}
		out.Write(key)
		out.WriteByte(':')
		val, err := encode(f.Value)
		if err != nil {
			return nil, err
		}
		out.Write(val)
	}
	out.WriteByte('}')
	return out.Bytes(), nil
}
