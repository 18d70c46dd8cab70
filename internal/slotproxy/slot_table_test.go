package slotproxy

import (
	"io"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSlotTable_AdmitFillsCapacity(t *testing.T) {
	table := NewSlotTable(3)
	for i := uint64(1); i <= 3; i++ {
		admitted, evicted := table.Admit(&Slot{ConnID: i, P: float64(i)})
		require.True(t, admitted)
		require.Nil(t, evicted)
	}
	assert.Equal(t, 3, table.Len())
}

func TestSlotTable_AdmitRejectsWhenNotBetter(t *testing.T) {
	table := NewSlotTable(2)
	table.Admit(&Slot{ConnID: 1, P: 0.1})
	table.Admit(&Slot{ConnID: 2, P: 0.2})

	admitted, evicted := table.Admit(&Slot{ConnID: 3, P: 0.2})
	assert.False(t, admitted)
	assert.Nil(t, evicted)
	assert.Equal(t, 2, table.Len())
}

func TestSlotTable_AdmitDisplacesWorst(t *testing.T) {
	table := NewSlotTable(2)
	table.Admit(&Slot{ConnID: 1, P: 0.9})
	table.Admit(&Slot{ConnID: 2, P: 0.5})

	admitted, evicted := table.Admit(&Slot{ConnID: 3, P: 0.1})
	require.True(t, admitted)
	require.NotNil(t, evicted)
	assert.Equal(t, uint64(1), evicted.ConnID)
	assert.Equal(t, 2, table.Len())
}

func TestSlotTable_UpdatePAndMaybeEvictSelf_OnlyAtCapacity(t *testing.T) {
	table := NewSlotTable(2)
	table.Admit(&Slot{ConnID: 1, P: 0.1})

	self := table.UpdatePAndMaybeEvictSelf(1, 5.0)
	assert.Nil(t, self, "table is not at capacity, self-eviction must not fire")

	table.Admit(&Slot{ConnID: 2, P: 0.2})
	self = table.UpdatePAndMaybeEvictSelf(1, 5.0)
	require.NotNil(t, self)
	assert.Equal(t, uint64(1), self.ConnID)
	assert.Equal(t, 2, table.Len(), "UpdatePAndMaybeEvictSelf must not remove the slot itself")
}

func TestSlotTable_UpdatePAndMaybeEvictSelf_NotWorst(t *testing.T) {
	table := NewSlotTable(2)
	table.Admit(&Slot{ConnID: 1, P: 0.1})
	table.Admit(&Slot{ConnID: 2, P: 0.9})

	self := table.UpdatePAndMaybeEvictSelf(1, 0.2)
	assert.Nil(t, self, "connection 1 is still better than connection 2")
}

func TestSlotTable_Release(t *testing.T) {
	table := NewSlotTable(2)
	front, _ := net.Pipe()
	table.Admit(&Slot{ConnID: 1, P: 0.1, Front: front})

	removed := table.Release(1)
	assert.True(t, removed)
	assert.Equal(t, 0, table.Len())

	assert.False(t, table.Release(1), "releasing twice must be a no-op the second time")
}

func TestSlotTable_Evict_RemovesAndClosesFront(t *testing.T) {
	table := NewSlotTable(1)
	front, peer := net.Pipe()
	slot := &Slot{ConnID: 1, P: 0.1, Front: front}
	table.Admit(slot)

	go table.Evict(slot)

	buf := make([]byte, len(serviceUnavailable))
	n, err := io.ReadFull(peer, buf)
	require.NoError(t, err)
	assert.Equal(t, serviceUnavailable, string(buf[:n]))
	assert.Equal(t, 0, table.Len())

	_, err = peer.Read(buf)
	assert.ErrorIs(t, err, io.EOF, "Evict must close the slot's front connection")
}
