package reactor

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSlice_PushAppendsAndGrowsLength(t *testing.T) {
	s := NewSlice(1, 2)
	s.Push(3)

	assert.Equal(t, 3, s.Len())
	assert.Equal(t, 3, s.Get(2))
}

func TestSlice_PushTriggersLengthReaderButNotUnrelatedIndexReader(t *testing.T) {
	s := NewSlice(1, 2)

	lenRuns, idxRuns := 0, 0
	NewEffect(func() { lenRuns++; s.Len() })
	NewEffect(func() { idxRuns++; s.Get(0) })

	s.Push(3)
	NextTick(nil).Wait()

	assert.Equal(t, 2, lenRuns)
	assert.Equal(t, 1, idxRuns)
}

func TestSlice_ShrinkingLengthRerunsReadersOfDroppedIndices(t *testing.T) {
	s := NewSlice(1, 2, 3)

	lastRuns := 0
	NewEffect(func() {
		lastRuns++
		s.Get(2)
	})

	s.SetLen(1)
	NextTick(nil).Wait()

	assert.Equal(t, 2, lastRuns)
}

func TestSlice_GrowingLengthDoesNotRerunUntouchedIndexReader(t *testing.T) {
	s := NewSlice(1, 2)

	runs := 0
	NewEffect(func() {
		runs++
		s.Get(0)
	})

	s.SetLen(5)
	NextTick(nil).Wait()

	assert.Equal(t, 1, runs)
}

func TestSlice_SnapshotReturnsElementsInOrder(t *testing.T) {
	s := NewSlice(3, 1, 2)
	assert.Equal(t, []int{3, 1, 2}, s.Snapshot())
}

func TestSlice_ClearResetsLengthToZero(t *testing.T) {
	s := NewSlice(1, 2, 3)
	s.Clear()
	assert.Equal(t, 0, s.Len())
}
