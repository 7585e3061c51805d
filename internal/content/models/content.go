package models

import (
	"time"

	dErrors "namereg/pkg/domain-errors"
)

// Kind distinguishes the content stores attached to a registered name.
type Kind string

const (
	KindMetadata Kind = "metadata"
	KindMarkdown Kind = "markdown"
	KindFileRef  Kind = "fileref"
)

// Valid reports whether k is a known content kind.
func (k Kind) Valid() bool {
	switch k {
	case KindMetadata, KindMarkdown, KindFileRef:
		return true
	default:
		return false
	}
}

// ParseKind parses a content kind from request paths.
func ParseKind(raw string) (Kind, error) {
	k := Kind(raw)
	if !k.Valid() {
		return "", dErrors.Newf(dErrors.CodeBadRequest, "unknown content kind %q", raw)
	}
	return k, nil
}

// Entry is one piece of content keyed by name and kind. The stores enforce
// no invariants; the core only touches the owning name record's UpdatedAt
// when an entry changes.
type Entry struct {
	Name      string    `json:"name"`
	Kind      Kind      `json:"kind"`
	Body      string    `json:"body"`
	UpdatedAt time.Time `json:"updated_at"`
}
