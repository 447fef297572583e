// Package ident generates the short opaque identifiers used for connectors
// and tracked extensions.
package ident

import (
	"strings"

	"github.com/google/uuid"
)

// Length of generated identifiers
const Length = 8

// New returns a random identifier of Length lowercase hex characters
func New() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:Length]
}
