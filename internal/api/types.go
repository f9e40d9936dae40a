package api

import (
	json "github.com/goccy/go-json"

	"github.com/samcharles93/graft/internal/schema"
	"github.com/samcharles93/graft/pkg/layout"
)

// DecodeRequest asks the service to decode Data against Schema.
//
// Schema is either a schema object or a string holding the YAML form. Layout
// spells out a complete layout instead of naming a Profile; setting both is
// an error. Without Record the
// schema's sequence is decoded and the input must be consumed exactly.
// Data may be compressed as a whole; see Compression.
type DecodeRequest struct {
	Profile string          `json:"profile,omitempty"`
	Layout  *layout.Config  `json:"layout,omitempty"`
	Schema  json.RawMessage `json:"schema"`
	Record  string          `json:"record,omitempty"`
	Data    []byte          `json:"data"`

	// Compression is none (the default), auto, gzip, zstd or s2.
	Compression string `json:"compression,omitempty"`
	Exhaustive  bool   `json:"exhaustive,omitempty"`
}

type DecodeResponse struct {
	ID     string        `json:"id"`
	Object string        `json:"object"`
	Record string        `json:"record,omitempty"`
	Size   uint32        `json:"size,omitempty"`
	Offset int64         `json:"offset"`
	Values schema.Values `json:"values"`
}

type SizeRequest struct {
	Profile string          `json:"profile,omitempty"`
	Layout  *layout.Config  `json:"layout,omitempty"`
	Schema  json.RawMessage `json:"schema"`
	Record  string          `json:"record"`
}

type SizeResponse struct {
	Object string `json:"object"`
	Record string `json:"record"`
	Size   uint32 `json:"size"`
}

type ProfileList struct {
	Object string           `json:"object"`
	Data   []layout.Profile `json:"data"`
}

type ResponseError struct {
	Message string `json:"message,omitempty"`
	Type    string `json:"type,omitempty"`
	Param   string `json:"param,omitempty"`
}
