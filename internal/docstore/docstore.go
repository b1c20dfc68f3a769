// Package docstore defines the contract of the hosted document backend: paths,
// documents, filters and field transforms shared by every gateway
// implementation and by the stores that consume them.
package docstore

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Path addresses a single document: alternating collection / id segments,
// e.g. entries/P1T0/comments/17-u1.
type Path string

// Doc builds a document path from collection/id segment pairs.
func Doc(segments ...string) Path {
	return Path(strings.Join(segments, "/"))
}

// ID returns the last segment.
func (p Path) ID() string {
	s := string(p)
	if i := strings.LastIndexByte(s, '/'); i >= 0 {
		return s[i+1:]
	}
	return s
}

// Collection returns the collection path that holds the document.
func (p Path) Collection() CollectionPath {
	s := string(p)
	if i := strings.LastIndexByte(s, '/'); i >= 0 {
		return CollectionPath(s[:i])
	}
	return ""
}

// Valid reports whether the path has an even, non-zero number of non-empty segments.
func (p Path) Valid() bool {
	parts := strings.Split(string(p), "/")
	if len(parts) == 0 || len(parts)%2 != 0 {
		return false
	}
	for _, part := range parts {
		if part == "" {
			return false
		}
	}
	return true
}

func (p Path) String() string { return string(p) }

// CollectionPath addresses a collection: entries, or entries/P1T0/comments.
type CollectionPath string

// Collection builds a collection path; segments must have odd length.
func Collection(segments ...string) CollectionPath {
	return CollectionPath(strings.Join(segments, "/"))
}

// Doc returns the path of the document id inside c.
func (c CollectionPath) Doc(id string) Path {
	return Path(string(c) + "/" + id)
}

func (c CollectionPath) String() string { return string(c) }

// Document is a stored record. Data is the JSON object body.
type Document struct {
	Path      Path
	Data      json.RawMessage
	Version   int64
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ID returns the document id.
func (d Document) ID() string { return d.Path.ID() }

// DataTo decodes the document body into v.
func (d Document) DataTo(v any) error {
	if err := json.Unmarshal(d.Data, v); err != nil {
		return fmt.Errorf("decode %s: %w", d.Path, err)
	}
	return nil
}

// Encode marshals v into a document body. v must encode to a JSON object.
func Encode(v any) (json.RawMessage, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode document: %w", err)
	}
	if len(data) == 0 || data[0] != '{' {
		return nil, fmt.Errorf("encode document: %T is not an object", v)
	}
	return data, nil
}

// Filter is an equality predicate on a top-level field.
type Filter struct {
	Field string
	Value string
}

// Where builds an equality filter.
func Where(field, value string) Filter {
	return Filter{Field: field, Value: value}
}

// Fields is a partial update. Values are plain JSON-encodable values or
// field transforms (ArrayUnion, ArrayRemove).
type Fields map[string]any
