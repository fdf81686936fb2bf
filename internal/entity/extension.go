package entity

import (
	"fmt"
	"strings"

	"github.com/jgivc/vsxsync/internal/common"
)

const idSeparator = "."

// ExtensionID is the structured form of a "publisher.name" identifier.
// It is built exactly once, by ParseExtensionID, where an id enters the
// system; downstream code works with the pair and never re-splits the
// string form.
type ExtensionID struct {
	Publisher string
	Name      string
}

// ParseExtensionID parses s as "publisher.name": exactly one separator,
// both parts non-empty. Anything else fails with
// common.ErrInvalidExtensionID.
func ParseExtensionID(s string) (ExtensionID, error) {
	if strings.Count(s, idSeparator) != 1 {
		return ExtensionID{}, fmt.Errorf("%w: %q", common.ErrInvalidExtensionID, s)
	}

	publisher, name, _ := strings.Cut(s, idSeparator)
	if publisher == "" || name == "" {
		return ExtensionID{}, fmt.Errorf("%w: %q", common.ErrInvalidExtensionID, s)
	}

	return ExtensionID{Publisher: publisher, Name: name}, nil
}

func (id ExtensionID) String() string {
	return id.Publisher + idSeparator + id.Name
}

// ExtensionRef identifies a declared extension. Identity is ID
// ("publisher.name"); UUID is an optional marketplace alias coming from
// the manifest. Immutable once parsed.
type ExtensionRef struct {
	ID   string `yaml:"id" json:"id"`
	UUID string `yaml:"uuid,omitempty" json:"uuid,omitempty"`
}

// ResolvedExtension is an ExtensionRef the registry resolved to a
// direct download URL.
type ResolvedExtension struct {
	ID   string `json:"id"`
	UUID string `json:"uuid,omitempty"`
	URL  string `json:"url"`
}

// Results is the availability partition produced by one reconciliation
// run. An id appears in at most one of the two lists; both keep
// manifest order. A run replaces the whole snapshot, it is never merged
// with a previous one.
type Results struct {
	Available   []ResolvedExtension `json:"available"`
	Unavailable []ExtensionRef      `json:"unavailable"`
}
