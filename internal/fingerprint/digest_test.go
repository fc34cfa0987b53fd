package fingerprint

import (
	"bytes"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSum_KnownVector(t *testing.T) {
	// SHA-256("abc")
	d := Sum([]byte("abc"))
	assert.Equal(t, "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad", d.String())
	assert.Equal(t, "ba7816bf8f", d.Prefix(DefaultPrefixLength))
}

func TestSum_Deterministic(t *testing.T) {
	data := []byte("訂單編號,A1\n")
	assert.Equal(t, Sum(data), Sum(append([]byte(nil), data...)))
}

func TestSum_ByteDifference(t *testing.T) {
	a := Sum([]byte("order A1"))
	b := Sum([]byte("order A2"))
	assert.NotEqual(t, a, b)
	assert.NotEqual(t, a.Prefix(DefaultPrefixLength), b.Prefix(DefaultPrefixLength))
}

func TestSumFile_IgnoresName(t *testing.T) {
	dir := t.TempDir()
	content := []byte("same bytes, different names")
	p1 := filepath.Join(dir, "orders_SH0001_a.xlsx")
	p2 := filepath.Join(dir, "renamed copy.xlsx")
	require.NoError(t, os.WriteFile(p1, content, 0644))
	require.NoError(t, os.WriteFile(p2, content, 0644))

	d1, err := SumFile(p1)
	require.NoError(t, err)
	d2, err := SumFile(p2)
	require.NoError(t, err)

	assert.Equal(t, d1, d2)
	assert.Equal(t, Sum(content), d1)
}

func TestSumFile_Missing(t *testing.T) {
	_, err := SumFile(filepath.Join(t.TempDir(), "nope.xlsx"))
	require.Error(t, err)
	assert.ErrorIs(t, err, fs.ErrNotExist)
}

func TestSumReader_LargeInput(t *testing.T) {
	data := bytes.Repeat([]byte("0123456789abcdef"), 64*1024)
	d, err := SumReader(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, Sum(data), d)
}

func TestPrefix_Clamped(t *testing.T) {
	d := Sum([]byte("x"))
	assert.Len(t, d.Prefix(0), MinPrefixLength)
	assert.Len(t, d.Prefix(1000), MaxPrefixLength)
	assert.Equal(t, d.String(), d.Prefix(MaxPrefixLength))
}

func TestValidPrefix(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"ab93f1c2a3", true},
		{"ef41aa90bc", true},
		{"AB93F1C2A3", false},
		{"ab93f", false},
		{"ab93f1c2ag", false},
		{strings.Repeat("a", 65), false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ValidPrefix(tt.in))
		})
	}
}

func TestIsZero(t *testing.T) {
	assert.True(t, Digest{}.IsZero())
	assert.False(t, Sum(nil).IsZero())
}
