package cs

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUnknown(t *testing.T) {
	u := Unknown()
	assert.True(t, u.IsUnknown())
	assert.Equal(t, "*unknown", u.String())

	var nilCS *CoordinateSystem
	assert.True(t, nilCS.IsUnknown())
	assert.Equal(t, "*unknown", nilCS.String())
	assert.True(t, (&CoordinateSystem{}).IsUnknown())
}

func TestNamed(t *testing.T) {
	c := &CoordinateSystem{Name: "WGS 84 / UTM zone 15N", Units: "m"}
	assert.False(t, c.IsUnknown())
	assert.Equal(t, "WGS 84 / UTM zone 15N", c.String())
}
