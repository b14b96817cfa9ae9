package localtable

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hemashushu/xiaoxuan-core-assembly-sub000/image"
)

func TestSentinelAtIndexZero(t *testing.T) {
	b := New()
	require.Len(t, b.Entries(), 1)
	require.Empty(t, b.Entries()[0].Slots)
}

func TestInternDeduplicates(t *testing.T) {
	b := New()
	slots := []image.LocalSlot{{Class: image.StorageI32, Length: 4, Alignment: 4}}
	i1 := b.Intern(slots)
	i2 := b.Intern(append([]image.LocalSlot(nil), slots...))

	require.Equal(t, i1, i2)
	require.Len(t, b.Entries(), 2)
}

func TestInternDoesNotReorder(t *testing.T) {
	b := New()
	slots := []image.LocalSlot{
		{Class: image.StorageI32, Length: 4, Alignment: 4},
		{Class: image.StorageI64, Length: 8, Alignment: 8},
	}
	idx := b.Intern(slots)
	require.Equal(t, slots, b.Entries()[idx].Slots)
}
