package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jgivc/vsxsync/internal/common"
)

func TestParseExtensionID(t *testing.T) {
	id, err := ParseExtensionID("ms-python.python")
	require.NoError(t, err)

	assert.Equal(t, "ms-python", id.Publisher)
	assert.Equal(t, "python", id.Name)
	assert.Equal(t, "ms-python.python", id.String())
}

func TestParseExtensionIDInvalid(t *testing.T) {
	for _, s := range []string{"nodot", "too.many.dots", "", ".name", "publisher."} {
		_, err := ParseExtensionID(s)
		assert.ErrorIs(t, err, common.ErrInvalidExtensionID, "id %q", s)
	}
}
