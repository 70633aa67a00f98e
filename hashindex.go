package logpi

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/boljen/go-bitmap"
	"github.com/dchest/siphash"
)

// siphash keys: fixed, arbitrary constants. The index only needs a stable,
// well-distributed hash for bucket placement, not a keyed MAC, so a fixed
// key pair is fine — every logpi process hashes the same way.
const (
	hashKey0 = 0x6c6f677069000001
	hashKey1 = 0x6c6f677069000002
)

func keyHash(key string) uint64 {
	return siphash.Hash(hashKey0, hashKey1, []byte(key))
}

// AddressEntry is one unique address's bookkeeping (§3): the canonical key,
// one location slot per worker, and the running total across all of them.
type AddressEntry struct {
	Key       string
	Type      AddressType
	slots     []*LocationArray // one per worker, indexed by worker id
	total     uint64           // atomic
	firstSeen time.Time
	next      *AddressEntry // intra-bucket chain
}

// Total returns the current total-occurrence count (sum of per-worker
// counters, maintained monotonically per §3's invariant).
func (e *AddressEntry) Total() uint64 { return atomic.LoadUint64(&e.total) }

// slot returns (creating if necessary) this entry's per-worker location
// array. Only ever called by the worker that owns workerID, or by the
// Indexer performing the first append on a worker's behalf (§4.3) — never
// concurrently for the same workerID, so no locking is needed here.
func (e *AddressEntry) slot(workerID int) *LocationArray {
	if e.slots[workerID] == nil {
		e.slots[workerID] = newLocationArray()
	}
	return e.slots[workerID]
}

// Append records one occurrence in this worker's slot and bumps the total.
func (e *AddressEntry) Append(workerID int, loc Location) {
	e.slot(workerID).Append(loc)
	atomic.AddUint64(&e.total, 1)
}

// SortedSlots returns every worker's slot, each individually sorted ascending
// by (line, field), ready for the Emitter's k-way merge (§4.4).
func (e *AddressEntry) SortedSlots() [][]Location {
	out := make([][]Location, 0, len(e.slots))
	for _, s := range e.slots {
		if s.Len() > 0 {
			out = append(out, s.SortedCopy())
		}
	}
	return out
}

// HashIndex is the global, shared, chained-bucket address index (§3/§4.3).
// Workers take the read lock for lookups; only the Indexer ever takes the
// write lock, for each insert and for a rehash, so a lookup can wait behind
// either. Entries are never deleted during ingest;
// the whole index is dropped after emission (§3 Lifecycle).
type HashIndex struct {
	mu               sync.RWMutex
	buckets          []*AddressEntry
	occupied         bitmap.Bitmap // tracks which buckets have at least one entry
	primeOff         int
	count            uint64 // atomic, total entries
	numWorkers       int
	resizeLoadFactor float64
	maxEntries       uint64
}

// NewHashIndex creates an index sized for numWorkers worker slots per entry,
// starting at the bottom of the prime growth ladder (§9). resizeLoadFactor
// and maxEntries come from Config so a run can tune them without touching
// package-level defaults.
func NewHashIndex(numWorkers int, resizeLoadFactor float64, maxEntries uint64) *HashIndex {
	n := hashPrimes[0]
	return &HashIndex{
		buckets:          make([]*AddressEntry, n),
		occupied:         bitmap.New(int(n)),
		primeOff:         0,
		numWorkers:       numWorkers,
		resizeLoadFactor: resizeLoadFactor,
		maxEntries:       maxEntries,
	}
}

func (h *HashIndex) bucketFor(key string, numBuckets int) int {
	return int(keyHash(key) % uint64(numBuckets))
}

// Lookup performs a read-only lookup under the shared read lock (§4.2 step
//3a). It does not block other readers; it blocks while the Indexer holds the
// write lock for an insert or a rehash.
func (h *HashIndex) Lookup(key string) (*AddressEntry, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.lookupLocked(key)
}

func (h *HashIndex) lookupLocked(key string) (*AddressEntry, bool) {
	b := h.bucketFor(key, len(h.buckets))
	for e := h.buckets[b]; e != nil; e = e.next {
		if e.Key == key {
			return e, true
		}
	}
	return nil, false
}

// InsertUnique inserts a brand-new entry for key, or returns the existing
// entry if another writer raced and got there first ("first writer wins;
// loser receives the existing entry", §3). Must be called by the Indexer,
// which is the sole writer of new keys. Returns the entry actually stored
// (new or pre-existing) and whether this call created it.
func (h *HashIndex) InsertUnique(key string, addrType AddressType) (*AddressEntry, bool, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if e, ok := h.lookupLocked(key); ok {
		return e, false, nil
	}
	if atomic.LoadUint64(&h.count) >= h.maxEntries {
		return nil, false, CapExceededError{Cap: "entries", Limit: h.maxEntries}
	}
	e := &AddressEntry{
		Key:       key,
		Type:      addrType,
		slots:     make([]*LocationArray, h.numWorkers),
		firstSeen: now(),
	}
	b := h.bucketFor(key, len(h.buckets))
	e.next = h.buckets[b]
	h.buckets[b] = e
	if !h.occupied.Get(b) {
		h.occupied.Set(b, true)
	}
	atomic.AddUint64(&h.count, 1)
	return e, true, nil
}

// Count returns the current number of unique entries.
func (h *HashIndex) Count() uint64 { return atomic.LoadUint64(&h.count) }

// LoadFactor returns occupied-buckets / total-buckets. It counts the set bits
// of the go-bitmap occupancy tracker by scanning every bucket, so it costs
// O(buckets).
func (h *HashIndex) LoadFactor() float64 {
	h.mu.RLock()
	defer h.mu.RUnlock()
	occ := 0
	n := len(h.buckets)
	for i := 0; i < n; i++ {
		if h.occupied.Get(i) {
			occ++
		}
	}
	return float64(occ) / float64(n)
}

// ResizeIfOverfull rehashes into the next rung of the growth ladder if
// occupancy exceeds ResizeLoadFactor (§4.3 step 3). Acquires the write lock
// for the duration of the rehash; concurrent lookups block until it
// completes (they also wait, more briefly, while InsertUnique holds the same
// lock).
func (h *HashIndex) ResizeIfOverfull() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	occ := 0
	for i := range h.buckets {
		if h.occupied.Get(i) {
			occ++
		}
	}
	if float64(occ)/float64(len(h.buckets)) <= h.resizeLoadFactor {
		return nil
	}
	if h.primeOff >= len(hashPrimes)-1 {
		return CapExceededError{Cap: "buckets", Limit: hashPrimes[len(hashPrimes)-1]}
	}
	h.primeOff++
	newSize := hashPrimes[h.primeOff]
	newBuckets := make([]*AddressEntry, newSize)
	newOccupied := bitmap.New(int(newSize))
	for _, head := range h.buckets {
		for e := head; e != nil; {
			nextE := e.next
			nb := h.bucketFor(e.Key, int(newSize))
			e.next = newBuckets[nb]
			newBuckets[nb] = e
			newOccupied.Set(nb, true)
			e = nextE
		}
	}
	h.buckets = newBuckets
	h.occupied = newOccupied
	return nil
}

// Walk calls fn for every entry in the index. Only safe to call once ingest
// has quiesced (the Emitter's use case); it takes no lock of its own beyond
// what the caller already holds via pipeline ordering.
func (h *HashIndex) Walk(fn func(*AddressEntry)) {
	for _, head := range h.buckets {
		for e := head; e != nil; e = e.next {
			fn(e)
		}
	}
}

// now is a seam so tests can avoid depending on wall-clock time.
var now = time.Now
