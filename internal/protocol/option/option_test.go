package option

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCutStopsAtFirstNull(t *testing.T) {
	s, rest, ok := Cut([]byte("octet\x00blksize\x00"))
	require.True(t, ok)
	assert.Equal(t, "octet", s)
	assert.Equal(t, []byte("blksize\x00"), rest)

	_, rest, ok = Cut([]byte("octet"))
	assert.False(t, ok)
	assert.Equal(t, []byte("octet"), rest)
}

func TestParsePairsEmptyBlock(t *testing.T) {
	pairs, err := ParsePairs(nil)
	require.NoError(t, err)
	assert.Empty(t, pairs)
}

func TestParsePairsKeepsWireOrder(t *testing.T) {
	b := []byte("tsize\x000\x00blksize\x001024\x00timeout\x005\x00")
	pairs, err := ParsePairs(b)
	require.NoError(t, err)
	assert.Equal(t, []Pair{
		{Name: TransferSize, Value: "0"},
		{Name: BlockSize, Value: "1024"},
		{Name: Timeout, Value: "5"},
	}, pairs)
}

func TestParsePairsAllowsEmptyValue(t *testing.T) {
	pairs, err := ParsePairs([]byte("x\x00\x00"))
	require.NoError(t, err)
	assert.Equal(t, []Pair{{Name: "x", Value: ""}}, pairs)
}

func TestParsePairsMalformed(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want error
	}{
		{"name without terminator", "blksize", ErrMissingTerminator},
		{"value without terminator", "blksize\x001024", ErrMissingTerminator},
		{"odd fragment after pair", "blksize\x001024\x00tsize", ErrMissingTerminator},
		{"dangling name", "blksize\x001024\x00tsize\x00", ErrMissingTerminator},
		{"duplicate", "blksize\x00512\x00blksize\x001024\x00", ErrDuplicateName},
		{"duplicate folded", "blksize\x00512\x00BLKSIZE\x001024\x00", ErrDuplicateName},
		{"empty name", "\x00512\x00", ErrEmptyName},
		{"non ascii", "blk\xffsize\x00512\x00", ErrInvalidString},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParsePairs([]byte(tc.in))
			require.Error(t, err)
			assert.True(t, errors.Is(err, tc.want), "got %v", err)
		})
	}
}

func TestParsePairsReportsDuplicateOffset(t *testing.T) {
	_, err := ParsePairs([]byte("a\x001\x00a\x002\x00"))
	var pe *PairError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, 4, pe.Offset)
	assert.Equal(t, "a", pe.Name)
}

func TestAppendPairsMatchesPairsLen(t *testing.T) {
	pairs := []Pair{{Name: BlockSize, Value: "1024"}, {Name: TransferSize, Value: "0"}}
	out := AppendPairs(nil, pairs)
	assert.Equal(t, []byte("blksize\x001024\x00tsize\x000\x00"), out)
	assert.Len(t, out, PairsLen(pairs))
}

func TestNewListRejectsDuplicates(t *testing.T) {
	_, err := NewList(Pair{Name: "blksize", Value: "512"}, Pair{Name: "BlkSize", Value: "8"})
	assert.ErrorIs(t, err, ErrDuplicateName)
}

func TestListLookupFoldsCase(t *testing.T) {
	l, err := NewList(Pair{Name: "BlkSize", Value: "1428"})
	require.NoError(t, err)
	v, ok := l.Get(BlockSize)
	assert.True(t, ok)
	assert.Equal(t, "1428", v)
	assert.True(t, l.Has("BLKSIZE"))
	assert.False(t, l.Has(Timeout))
}

func TestListEqualIgnoresOrder(t *testing.T) {
	a, err := NewList(Pair{Name: "blksize", Value: "1024"}, Pair{Name: "tsize", Value: "0"})
	require.NoError(t, err)
	b, err := NewList(Pair{Name: "tsize", Value: "0"}, Pair{Name: "blksize", Value: "1024"})
	require.NoError(t, err)
	c, err := NewList(Pair{Name: "tsize", Value: "1"}, Pair{Name: "blksize", Value: "1024"})
	require.NoError(t, err)

	assert.True(t, a.Equal(b))
	assert.False(t, a.Equal(c))
	assert.False(t, a.Equal(List{}))
	assert.True(t, List{}.Equal(List{}))
}

func TestListPairsIsACopy(t *testing.T) {
	l, err := NewList(Pair{Name: "blksize", Value: "1024"})
	require.NoError(t, err)
	pairs := l.Pairs()
	pairs[0].Value = "8"
	v, _ := l.Get("blksize")
	assert.Equal(t, "1024", v)
}

func TestFromMapIsSorted(t *testing.T) {
	l, err := FromMap(map[string]string{"tsize": "0", "blksize": "1024", "timeout": "3"})
	require.NoError(t, err)
	assert.Equal(t, []string{"blksize", "timeout", "tsize"}, l.Names())
	assert.Equal(t, "[blksize=1024 timeout=3 tsize=0]", l.String())
}
