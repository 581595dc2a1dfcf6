package version

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetVersion(t *testing.T) {
	original := Version
	defer func() { Version = original }()

	assert.Equal(t, "dev", GetVersion())

	Version = "v0.2.0"
	assert.Equal(t, "v0.2.0", GetVersion())
}
