package hashindex

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHeaderPage_InitAndDirectoryIndex(t *testing.T) {
	buf := make([]byte, 4096)
	h := NewHeaderPage(buf)
	h.Init(2) // 2^2 = 4 slots

	require.False(t, h.IsInit(0))

	h.SetDirectoryPageID(0, 5)
	require.True(t, h.IsInit(0))
	require.Equal(t, int32(5), h.GetDirectoryPageID(0))

	// top 2 bits of a 32-bit hash select the directory slot.
	idx := h.HashToDirectoryIndex(0xC0000000)
	require.Equal(t, uint32(3), idx)
}

func TestHeaderPage_MaxSize(t *testing.T) {
	buf := make([]byte, 4096)
	h := NewHeaderPage(buf)
	h.Init(9)
	require.Equal(t, uint32(512), h.MaxSize())
}
