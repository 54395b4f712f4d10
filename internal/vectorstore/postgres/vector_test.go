package postgres

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docuchat/internal/apperr"
)

func TestVector_String(t *testing.T) {
	assert.Equal(t, "[0.5,-1.25,3]", Vector{0.5, -1.25, 3}.String())
	assert.Equal(t, "[]", Vector{}.String())
}

func TestVector_RoundTrip(t *testing.T) {
	in := Vector{0.25, -0.5, 1, 42.125}
	val, err := in.Value()
	require.NoError(t, err)

	var out Vector
	require.NoError(t, out.Scan(val))
	assert.Equal(t, in, out)
}

func TestVector_ScanBytes(t *testing.T) {
	var v Vector
	require.NoError(t, v.Scan([]byte("[1, 2.5 ,3]")))
	assert.Equal(t, Vector{1, 2.5, 3}, v)
}

func TestVector_ScanNil(t *testing.T) {
	v := Vector{1}
	require.NoError(t, v.Scan(nil))
	assert.Nil(t, v)
}

func TestVector_ScanInvalid(t *testing.T) {
	var v Vector
	assert.Error(t, v.Scan("[1,banana]"))
	assert.Error(t, v.Scan(42))
}

func TestNew_DimensionMustMatchSchema(t *testing.T) {
	_, err := New(nil, 768)
	var mismatch *apperr.ConfigMismatchError
	require.ErrorAs(t, err, &mismatch)
	assert.Equal(t, indexDimensions, mismatch.Want)
	assert.Equal(t, 768, mismatch.Got)
}
