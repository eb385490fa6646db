package region

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCreateAndAttachShareBytes(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pool.region")

	created, err := Create(path, 4096)
	require.NoError(t, err)
	defer created.Close()

	created.Bytes()[0] = 0x42

	attached, err := Attach(path)
	require.NoError(t, err)
	defer attached.Close()

	require.Equal(t, byte(0x42), attached.Bytes()[0])
}

func TestNewMemIsZeroed(t *testing.T) {
	r := NewMem(1024)
	require.Len(t, r.Bytes(), 1024)
	for _, b := range r.Bytes() {
		require.EqualValues(t, 0, b)
	}
	require.NoError(t, r.Close())
}
