package pagination

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCursorRoundTrip(t *testing.T) {
	c := Cursor{
		SortDate:  time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC),
		CreatedAt: time.Date(2024, 1, 15, 14, 30, 45, 123456789, time.UTC),
		ID:        "0b8f5b7e-6a55-4d7e-9b1a-1f0e2f0c9a11",
	}
	token := c.Encode()
	assert.NotEmpty(t, token)

	decoded, err := DecodeCursor(token)
	require.NoError(t, err)
	assert.Equal(t, c, decoded)
}

func TestDecodeCursorErrors(t *testing.T) {
	_, err := DecodeCursor("this is not base64!")
	assert.ErrorContains(t, err, "base64 decode")

	_, err = DecodeCursor(Cursor{}.Encode())
	assert.ErrorContains(t, err, "split")

	bad := "bm90YWRhdGV8MjAyNC0wMS0xNVQxNDozMDo0NVp8aWQ=" // "notadate|2024-01-15T14:30:45Z|id"
	_, err = DecodeCursor(bad)
	assert.ErrorContains(t, err, "sort date parse")
}

func TestNextToken(t *testing.T) {
	last := Cursor{SortDate: time.Now().UTC(), CreatedAt: time.Now().UTC(), ID: "x"}
	assert.Nil(t, NextToken(3, 20, last))
	token := NextToken(20, 20, last)
	require.NotNil(t, token)
	decoded, err := DecodeCursor(*token)
	require.NoError(t, err)
	assert.Equal(t, "x", decoded.ID)
}

func TestClampLimit(t *testing.T) {
	assert.Equal(t, 20, ClampLimit(0, 20, 100))
	assert.Equal(t, 100, ClampLimit(500, 20, 100))
	assert.Equal(t, 7, ClampLimit(7, 20, 100))
}
