package codec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type payload struct {
	Name  string  `json:"name"`
	Count int     `json:"count"`
	Ratio float64 `json:"ratio"`
}

func TestJSONRoundTrip(t *testing.T) {
	in := payload{Name: "survey", Count: 3, Ratio: 0.25}

	data, err := JSON{}.Marshal(in)
	require.NoError(t, err)

	var out payload
	require.NoError(t, JSON{}.Unmarshal(data, &out))
	assert.Equal(t, in, out)
}

func TestByName(t *testing.T) {
	c, ok := ByName("json")
	require.True(t, ok)
	assert.Equal(t, "json", c.Name())

	_, ok = ByName("cbor")
	assert.False(t, ok)
}

func TestDefault(t *testing.T) {
	require.NotNil(t, Default)
	assert.Equal(t, "json", Default.Name())
}

func TestMustMarshal(t *testing.T) {
	data := MustMarshal(nil, payload{Name: "x"})
	assert.Contains(t, string(data), `"name":"x"`)

	assert.Panics(t, func() {
		MustMarshal(JSON{}, make(chan int))
	})
}
