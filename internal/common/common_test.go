package common

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMakeRandHexString(t *testing.T) {
	s1, err := MakeRandHexString(16)
	require.NoError(t, err)
	assert.Len(t, s1, 32)

	s2, err := MakeRandHexString(16)
	require.NoError(t, err)
	assert.NotEqual(t, s1, s2)
}

func TestWipeByteArray(t *testing.T) {
	b := []byte("123456")
	WipeByteArray(b)
	for _, v := range b {
		assert.Zero(t, v)
	}

	assert.NotPanics(t, func() { WipeByteArray(nil) })
}
