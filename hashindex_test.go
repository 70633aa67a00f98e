package logpi

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHashIndexInsertUniqueFirstWriterWins(t *testing.T) {
	idx := NewHashIndex(2, ResizeLoadFactor, MaxEntries)

	e1, created1, err := idx.InsertUnique("10.0.0.1", AddressIPv4)
	require.NoError(t, err)
	require.True(t, created1)

	e2, created2, err := idx.InsertUnique("10.0.0.1", AddressIPv4)
	require.NoError(t, err)
	require.False(t, created2)
	require.Same(t, e1, e2)

	require.EqualValues(t, 1, idx.Count())
}

func TestHashIndexLookupMiss(t *testing.T) {
	idx := NewHashIndex(2, ResizeLoadFactor, MaxEntries)
	_, ok := idx.Lookup("nowhere")
	require.False(t, ok)
}

func TestHashIndexConcurrentInsertSameKey(t *testing.T) {
	idx := NewHashIndex(4, ResizeLoadFactor, MaxEntries)
	var wg sync.WaitGroup
	results := make([]*AddressEntry, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			e, _, err := idx.InsertUnique("shared-key", AddressMAC)
			require.NoError(t, err)
			results[i] = e
		}(i)
	}
	wg.Wait()
	for i := 1; i < len(results); i++ {
		require.Same(t, results[0], results[i])
	}
	require.EqualValues(t, 1, idx.Count())
}

func TestHashIndexResizeGrowsBuckets(t *testing.T) {
	idx := NewHashIndex(1, 0.5, MaxEntries)
	initialBuckets := len(idx.buckets)

	for i := 0; i < initialBuckets; i++ {
		_, _, err := idx.InsertUnique(fmt.Sprintf("key-%d", i), AddressIPv4)
		require.NoError(t, err)
	}
	require.NoError(t, idx.ResizeIfOverfull())
	require.Greater(t, len(idx.buckets), initialBuckets)

	// Every key must still be reachable after rehash.
	for i := 0; i < initialBuckets; i++ {
		_, ok := idx.Lookup(fmt.Sprintf("key-%d", i))
		require.True(t, ok)
	}
}

func TestHashIndexResizeNoOpUnderThreshold(t *testing.T) {
	idx := NewHashIndex(1, 0.99, MaxEntries)
	initialBuckets := len(idx.buckets)
	_, _, err := idx.InsertUnique("only-one", AddressIPv4)
	require.NoError(t, err)
	require.NoError(t, idx.ResizeIfOverfull())
	require.Equal(t, initialBuckets, len(idx.buckets))
}

func TestHashIndexInsertUniqueCapExceeded(t *testing.T) {
	idx := NewHashIndex(1, ResizeLoadFactor, 1)
	_, _, err := idx.InsertUnique("a", AddressIPv4)
	require.NoError(t, err)

	_, _, err = idx.InsertUnique("b", AddressIPv4)
	require.Error(t, err)
	var capErr CapExceededError
	require.ErrorAs(t, err, &capErr)
}

func TestAddressEntryAppendAccumulatesAcrossWorkers(t *testing.T) {
	idx := NewHashIndex(2, ResizeLoadFactor, MaxEntries)
	e, _, err := idx.InsertUnique("10.0.0.1", AddressIPv4)
	require.NoError(t, err)

	e.Append(0, Location{Line: 1, Field: 1})
	e.Append(1, Location{Line: 2, Field: 1})
	e.Append(0, Location{Line: 3, Field: 1})

	require.EqualValues(t, 3, e.Total())
	slots := e.SortedSlots()
	require.Len(t, slots, 2)
}
