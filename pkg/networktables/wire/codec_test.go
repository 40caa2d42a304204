package wire

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	nterrors "github.com/nt2go/ntclient/pkg/networktables/errors"
	"github.com/nt2go/ntclient/pkg/networktables/types"
)

func TestWriteHelloIsExactlyThreeBytes(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteHello(&buf))
	assert.Equal(t, []byte{0x01, 0x02, 0x00}, buf.Bytes())
}

func TestWriteKeepAlive(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteKeepAlive(&buf))
	assert.Equal(t, []byte{0x00}, buf.Bytes())
}

// Scenario B from the protocol's testable properties: an assignment for
// "/x" = 3.5 at id 7, sequence 1.
func TestParseAssignmentScenarioB(t *testing.T) {
	body := []byte{
		0x00, 0x02, 0x2F, 0x78, // name length=2, "/x"
		0x01,       // type = number
		0x00, 0x07, // id = 7
		0x00, 0x01, // sequence = 1
		0x40, 0x0C, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, // 3.5 as big-endian f64
	}

	entry, err := ParseAssignment(bytes.NewReader(body))
	require.NoError(t, err)
	assert.Equal(t, "/x", entry.Name)
	assert.Equal(t, uint16(7), entry.Id)
	assert.Equal(t, types.SequenceNumber(1), entry.Sequence)
	assert.Equal(t, types.KindNumber, entry.Value.Kind)
	assert.Equal(t, 3.5, entry.Value.Number)
}

// Scenario D: a local set_bool("/new", true) producing a pending-creation
// entry, encoded as an ENTRY_ASSIGNMENT with the client-request sentinel id.
func TestWriteAssignmentScenarioD(t *testing.T) {
	entry := types.Entry{
		Name:     "/new",
		Id:       types.ClientRequestID,
		Sequence: types.SequenceNumber(1),
		Value:    types.Boolean(true),
	}

	var buf bytes.Buffer
	require.NoError(t, WriteAssignment(&buf, entry))

	expected := []byte{
		0x10,                   // ENTRY_ASSIGNMENT
		0x00, 0x04, 0x2F, 0x6E, 0x65, 0x77, // name length=4, "/new"
		0x00,       // type = boolean
		0xFF, 0xFF, // id = client request sentinel
		0x00, 0x01, // sequence = 1
		0x01, // true
	}
	assert.Equal(t, expected, buf.Bytes())
}

// Scenario C: a local update to an existing entry, encoded as an
// ENTRY_UPDATE.
func TestWriteUpdateScenarioC(t *testing.T) {
	entry := types.Entry{
		Name:     "/x",
		Id:       7,
		Sequence: types.SequenceNumber(2),
		Value:    types.Number(4.5),
	}

	var buf bytes.Buffer
	require.NoError(t, WriteUpdate(&buf, entry))

	expected := []byte{
		0x11,       // ENTRY_UPDATE
		0x00, 0x07, // id = 7
		0x00, 0x02, // sequence = 2
		0x40, 0x12, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, // 4.5 as big-endian f64
	}
	assert.Equal(t, expected, buf.Bytes())
}

func TestParseUpdateResolvesTypeByID(t *testing.T) {
	body := []byte{
		0x00, 0x07, // id = 7
		0x00, 0x02, // sequence = 2
		0x40, 0x12, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, // 4.5
	}

	resolver := func(id uint16) (string, types.Value, bool) {
		if id != 7 {
			return "", types.Value{}, false
		}
		return "/x", types.Number(0), true
	}

	entry, err := ParseUpdate(bytes.NewReader(body), resolver)
	require.NoError(t, err)
	assert.Equal(t, "/x", entry.Name)
	assert.Equal(t, uint16(7), entry.Id)
	assert.Equal(t, types.SequenceNumber(2), entry.Sequence)
	assert.Equal(t, 4.5, entry.Value.Number)
}

// Scenario E: an update for an unknown id is an IdDoesntExist error.
func TestParseUpdateUnknownIDScenarioE(t *testing.T) {
	body := []byte{0x00, 0x42, 0x00, 0x01, 0x00}

	resolver := func(id uint16) (string, types.Value, bool) {
		return "", types.Value{}, false
	}

	_, err := ParseUpdate(bytes.NewReader(body), resolver)
	require.Error(t, err)

	var ntErr *nterrors.NtError
	require.ErrorAs(t, err, &ntErr)
	assert.Equal(t, nterrors.IdDoesntExist, ntErr.Kind)
	assert.Equal(t, uint16(0x42), ntErr.Id)
}

func TestParseAssignmentUnsupportedType(t *testing.T) {
	body := []byte{
		0x00, 0x01, 0x61, // name "a"
		0x10,       // boolean-array tag, not supported
		0x00, 0x01, // id
		0x00, 0x01, // sequence
	}

	_, err := ParseAssignment(bytes.NewReader(body))
	require.Error(t, err)

	var ntErr *nterrors.NtError
	require.ErrorAs(t, err, &ntErr)
	assert.Equal(t, nterrors.UnsupportedType, ntErr.Kind)
	assert.Equal(t, uint8(0x10), ntErr.Type)
}

func TestParseAssignmentInvalidUTF8(t *testing.T) {
	body := []byte{
		0x00, 0x02, 0xFF, 0xFE, // invalid utf-8 bytes as the name
	}

	_, err := ParseAssignment(bytes.NewReader(body))
	require.Error(t, err)

	var ntErr *nterrors.NtError
	require.ErrorAs(t, err, &ntErr)
	assert.Equal(t, nterrors.StringConversionError, ntErr.Kind)
}

func TestParseAssignmentShortRead(t *testing.T) {
	body := []byte{0x00, 0x05, 0x61} // claims 5 bytes of name, only has 1

	_, err := ParseAssignment(bytes.NewReader(body))
	require.Error(t, err)

	var ntErr *nterrors.NtError
	require.ErrorAs(t, err, &ntErr)
	assert.Equal(t, nterrors.NetworkProblem, ntErr.Kind)
}

// Round-trip property: for every supported entry, write then parse recovers
// name/id/sequence/value.
func TestAssignmentRoundTrip(t *testing.T) {
	cases := []types.Entry{
		{Name: "/bool", Id: 1, Sequence: 5, Value: types.Boolean(true)},
		{Name: "/num", Id: 2, Sequence: 6, Value: types.Number(-1.25)},
		{Name: "/str", Id: 3, Sequence: 7, Value: types.String("hello")},
		{Name: "", Id: types.ClientRequestID, Sequence: 1, Value: types.Boolean(false)},
	}

	for _, entry := range cases {
		var buf bytes.Buffer
		require.NoError(t, WriteAssignment(&buf, entry))

		// Drop the leading type tag, which the receive loop consumes
		// before dispatching to ParseAssignment.
		buf.ReadByte()

		got, err := ParseAssignment(&buf)
		require.NoError(t, err)
		assert.Equal(t, entry.Name, got.Name)
		assert.Equal(t, entry.Id, got.Id)
		assert.Equal(t, entry.Sequence, got.Sequence)
		assert.Equal(t, entry.Value, got.Value)
	}
}

func TestUpdateRoundTrip(t *testing.T) {
	entry := types.Entry{Name: "/x", Id: 9, Sequence: 42, Value: types.String("payload")}

	var buf bytes.Buffer
	require.NoError(t, WriteUpdate(&buf, entry))
	buf.ReadByte() // drop leading ENTRY_UPDATE tag

	resolver := func(id uint16) (string, types.Value, bool) {
		return entry.Name, types.String(""), id == entry.Id
	}

	got, err := ParseUpdate(&buf, resolver)
	require.NoError(t, err)
	assert.Equal(t, entry.Name, got.Name)
	assert.Equal(t, entry.Id, got.Id)
	assert.Equal(t, entry.Sequence, got.Sequence)
	assert.Equal(t, entry.Value, got.Value)
}
