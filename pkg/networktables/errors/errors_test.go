package errors

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindString(t *testing.T) {
	cases := []struct {
		kind Kind
		want string
	}{
		{UnsupportedType, "UnsupportedType"},
		{StringConversionError, "StringConversionError"},
		{KeyAlreadyExists, "KeyAlreadyExists"},
		{IdAlreadyExists, "IdAlreadyExists"},
		{IdDoesntExist, "IdDoesntExist"},
		{OutOfOrderSequenceNumbers, "OutOfOrderSequenceNumbers"},
		{NetworkProblem, "NetworkProblem"},
		{Kind(99), "Unknown(99)"},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, c.kind.String())
	}
}

func TestNtErrorMessages(t *testing.T) {
	t.Run("UnsupportedType", func(t *testing.T) {
		assert.Equal(t, "unsupported entry type 0x10", NewUnsupportedType(0x10).Error())
	})
	t.Run("StringConversionError", func(t *testing.T) {
		assert.Equal(t, "error parsing string: invalid utf-8", NewStringConversionError().Error())
	})
	t.Run("KeyAlreadyExists", func(t *testing.T) {
		assert.Equal(t, `key "/x" already exists`, NewKeyAlreadyExists("/x").Error())
	})
	t.Run("IdAlreadyExists", func(t *testing.T) {
		assert.Equal(t, "id 7 already exists", NewIdAlreadyExists(7).Error())
	})
	t.Run("IdDoesntExist", func(t *testing.T) {
		assert.Equal(t, "id 7 doesn't exist", NewIdDoesntExist(7).Error())
	})
	t.Run("OutOfOrderSequenceNumbers", func(t *testing.T) {
		assert.Equal(t, "out of order sequence numbers: old=2 new=1", NewOutOfOrderSequenceNumbers(2, 1).Error())
	})
	t.Run("NetworkProblem", func(t *testing.T) {
		cause := errors.New("connection reset")
		err := NewNetworkProblem(cause)
		assert.Equal(t, "network problem: connection reset", err.Error())
		assert.ErrorIs(t, err, cause)
	})
}

func TestIsFatal(t *testing.T) {
	assert.True(t, IsFatal(NetworkProblem))
	assert.True(t, IsFatal(IdDoesntExist))
	assert.False(t, IsFatal(KeyAlreadyExists))
	assert.False(t, IsFatal(IdAlreadyExists))
	assert.False(t, IsFatal(OutOfOrderSequenceNumbers))
	assert.False(t, IsFatal(UnsupportedType))
	assert.False(t, IsFatal(StringConversionError))
}
