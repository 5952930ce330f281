package pagination

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeLimit(t *testing.T) {
	assert.Equal(t, DefaultLimit, NormalizeLimit(0))
	assert.Equal(t, DefaultLimit, NormalizeLimit(-3))
	assert.Equal(t, 10, NormalizeLimit(10))
	assert.Equal(t, MaxLimit, NormalizeLimit(MaxLimit+50))
}

func TestLimitWithBuffer(t *testing.T) {
	assert.Equal(t, DefaultLimit+1, LimitWithBuffer(0))
	assert.Equal(t, 11, LimitWithBuffer(10))
}

func TestCursorRoundTrip(t *testing.T) {
	want := Cursor{
		CreatedAt: time.Date(2026, 3, 14, 9, 26, 53, 589793000, time.UTC),
		ID:        uuid.New(),
	}

	got, err := ParseCursor(EncodeCursor(want))
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.True(t, want.CreatedAt.Equal(got.CreatedAt))
	assert.Equal(t, want.ID, got.ID)
}

func TestParseCursorEmptyIsNil(t *testing.T) {
	got, err := ParseCursor("   ")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestParseCursorRejectsGarbage(t *testing.T) {
	for _, value := range []string{
		"not-base64!!!",
		"bm90LWEtY3Vyc29y",
		"MjAyNi0wMy0xNFQwOToyNjo1M1p8bm90LWEtdXVpZA",
	} {
		_, err := ParseCursor(value)
		assert.Error(t, err, "cursor %q", value)
	}
}
