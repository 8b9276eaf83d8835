package qrimage

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPNG_WritesPNGSignature(t *testing.T) {
	t.Parallel()

	b, err := PNG("2@abc,def,ghi", 0)
	require.NoError(t, err)
	require.True(t, bytes.HasPrefix(b, []byte("\x89PNG\r\n\x1a\n")))
}

func TestTerminal_NonEmpty(t *testing.T) {
	t.Parallel()

	s, err := Terminal("2@abc,def,ghi")
	require.NoError(t, err)
	require.NotEmpty(t, s)
}

func TestEmptyContentFails(t *testing.T) {
	t.Parallel()

	_, err := PNG("  ", 100)
	require.Error(t, err)
	_, err = Terminal("")
	require.Error(t, err)
}
