package fields

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLookup(t *testing.T) {
	d, ok := Lookup("brandName")
	require.True(t, ok)
	assert.Equal(t, BrandName, d.Name)
	assert.Equal(t, "brand_name", d.Column)

	_, ok = Lookup("brand_name") // column names are not logical names
	assert.False(t, ok)

	_, ok = Lookup("")
	assert.False(t, ok)
}

func TestAllIsStable(t *testing.T) {
	a := All()
	b := All()
	require.Equal(t, len(a), len(b))
	for i := range a {
		assert.Equal(t, a[i].Name, b[i].Name)
	}
	// Sorted ascending by name.
	for i := 1; i < len(a); i++ {
		assert.Less(t, string(a[i-1].Name), string(a[i].Name))
	}
}

func TestEncodeValue(t *testing.T) {
	s, err := EncodeValue("plain text")
	require.NoError(t, err)
	assert.Equal(t, "plain text", s)

	s, err = EncodeValue(nil)
	require.NoError(t, err)
	assert.Equal(t, "", s)

	s, err = EncodeValue([]string{"a", "b"})
	require.NoError(t, err)
	assert.JSONEq(t, `["a","b"]`, s)

	s, err = EncodeValue(map[string]any{"primary": "#102030"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"primary":"#102030"}`, s)
}
