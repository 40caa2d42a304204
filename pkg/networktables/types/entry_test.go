package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValueConstructorsAndWireType(t *testing.T) {
	t.Run("Boolean", func(t *testing.T) {
		v := Boolean(true)
		assert.Equal(t, KindBoolean, v.Kind)
		assert.True(t, v.Bool)
		assert.Equal(t, TypeBoolean, v.WireType())
	})
	t.Run("Number", func(t *testing.T) {
		v := Number(3.5)
		assert.Equal(t, KindNumber, v.Kind)
		assert.Equal(t, 3.5, v.Number)
		assert.Equal(t, TypeNumber, v.WireType())
	})
	t.Run("String", func(t *testing.T) {
		v := String("hello")
		assert.Equal(t, KindString, v.Kind)
		assert.Equal(t, "hello", v.Str)
		assert.Equal(t, TypeString, v.WireType())
	})
	t.Run("UnknownKindPanics", func(t *testing.T) {
		v := Value{Kind: ValueKind(99)}
		assert.Panics(t, func() { v.WireType() })
	})
}

func TestEntryIsPendingCreation(t *testing.T) {
	assert.True(t, Entry{Id: ClientRequestID}.IsPendingCreation())
	assert.False(t, Entry{Id: 7}.IsPendingCreation())
}

func TestEntryClone(t *testing.T) {
	e := Entry{Name: "/x", Id: 7, Sequence: SequenceNumber(1), Value: Number(3.5)}
	clone := e.Clone()
	assert.Equal(t, e, clone)
}
