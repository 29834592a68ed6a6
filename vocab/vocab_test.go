package vocab

import (
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// smallRawIndex mimics the shape of the corpus word index: codes start at 1,
// no reserved entries.
func smallRawIndex() map[string]int {
	return map[string]int{
		"the":   1,
		"movie": 2,
		"was":   3,
		"great": 4,
		"awful": 5,
	}
}

func TestNewReservesSentinels(t *testing.T) {
	idx, err := New(smallRawIndex())
	require.NoError(t, err)

	for _, s := range []struct {
		token string
		code  int
	}{
		{TokenPad, 0},
		{TokenStart, 1},
		{TokenUnk, 2},
		{TokenUnused, 3},
	} {
		code, err := idx.EncodeToken(s.token)
		require.NoError(t, err)
		assert.Equal(t, s.code, code)
		token, found := idx.Token(s.code)
		assert.True(t, found)
		assert.Equal(t, s.token, token)
	}

	// Sentinels are reserved even for an empty raw index.
	empty, err := New(nil)
	require.NoError(t, err)
	assert.Equal(t, 4, empty.Len())
}

func TestNewShiftsRawCodes(t *testing.T) {
	raw := smallRawIndex()
	idx, err := New(raw)
	require.NoError(t, err)
	assert.Equal(t, len(raw)+4, idx.Len())

	for token, rawCode := range raw {
		code, err := idx.EncodeToken(token)
		require.NoError(t, err)
		assert.Equal(t, rawCode+3, code, "token %q", token)
	}
}

func TestNewRejectsMalformedRawIndex(t *testing.T) {
	var dupErr *DuplicateCodeError

	_, err := New(map[string]int{"good": 7, "bad": 7})
	require.Error(t, err)
	require.True(t, errors.As(err, &dupErr))
	assert.Equal(t, 10, dupErr.Code)

	_, err = New(map[string]int{"negative": -1})
	require.Error(t, err)
	assert.True(t, errors.As(err, &dupErr))

	// Raw code 0 shifts onto the <UNUSED> sentinel.
	_, err = New(map[string]int{"zero": 0})
	require.Error(t, err)
	assert.True(t, errors.As(err, &dupErr))

	// A raw token spelled like a sentinel cannot overwrite the reserved entry.
	_, err = New(map[string]int{TokenPad: 9})
	require.Error(t, err)
	assert.True(t, errors.As(err, &dupErr))
}

func TestDecode(t *testing.T) {
	idx, err := New(smallRawIndex())
	require.NoError(t, err)

	testCases := []struct {
		name     string
		codes    []int
		expected string
	}{
		{"empty", nil, ""},
		{"single", []int{4}, "the"},
		{"sentence", []int{1, 4, 5, 6, 7}, "<START> the movie was great"},
		{"unknown codes become placeholder", []int{4, 999, 5}, "the ? movie"},
		{"padding decodes literally", []int{4, 0, 0}, "the <PAD> <PAD>"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, idx.Decode(tc.codes))
		})
	}
}

func TestDecodeIsDeterministic(t *testing.T) {
	idx, err := New(smallRawIndex())
	require.NoError(t, err)
	codes := []int{1, 4, 999, 8, 0}
	assert.Equal(t, idx.Decode(codes), idx.Decode(codes))
}

func TestDecodeEncodeRoundTrip(t *testing.T) {
	idx, err := New(smallRawIndex())
	require.NoError(t, err)

	// All codes present in the index: decoding and re-encoding each word must
	// reproduce the original sequence exactly.
	original := []int{4, 5, 6, 7, 4, 8}
	decoded := idx.Decode(original)
	var roundTrip []int
	for _, word := range strings.Split(decoded, " ") {
		code, err := idx.EncodeToken(word)
		require.NoError(t, err)
		roundTrip = append(roundTrip, code)
	}
	assert.Equal(t, original, roundTrip)
}

func TestEncodeToken(t *testing.T) {
	idx, err := New(smallRawIndex())
	require.NoError(t, err)

	_, err = idx.EncodeToken("nonexistent")
	require.Error(t, err)
	var unkErr *UnknownTokenError
	require.True(t, errors.As(err, &unkErr))
	assert.Equal(t, "nonexistent", unkErr.Token)
}

func TestEncodeText(t *testing.T) {
	idx, err := New(smallRawIndex())
	require.NoError(t, err)

	codes := idx.Encode("The movie was GREAT")
	assert.Equal(t, []int{StartCode, 4, 5, 6, 7}, codes)

	// Out-of-vocabulary words map to <UNK>, not an error.
	codes = idx.Encode("the movie was transcendent")
	assert.Equal(t, []int{StartCode, 4, 5, 6, UnkCode}, codes)
}
