package logpi

import (
	"bufio"
	"fmt"
	"io"
	"sort"
	"strconv"
)

// indexedEntry is one address's finished record, ready for sorting and
// emission (§4.4).
type indexedEntry struct {
	key   string
	total uint64
	locs  []Location
}

// Emitter walks the finished HashIndex and writes the index file (§4.4, §8).
// It runs only after the Indexer has drained, so it needs no locking of its
// own: nothing else touches the index by the time it starts.
type Emitter struct {
	index *HashIndex
}

// NewEmitter creates an Emitter over a quiesced index.
func NewEmitter(index *HashIndex) *Emitter {
	return &Emitter{index: index}
}

// Collect walks the index, merging each entry's per-worker slots into one
// ascending (line, field) stream, and returns every entry ordered by
// descending total count, then ascending key for ties (§4.4, §8).
func (em *Emitter) Collect() []indexedEntry {
	var entries []indexedEntry
	em.index.Walk(func(e *AddressEntry) {
		locs := MergeSortedSlots(e.SortedSlots())
		entries = append(entries, indexedEntry{
			key:   e.Key,
			total: e.Total(),
			locs:  locs,
		})
	})
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].total != entries[j].total {
			return entries[i].total > entries[j].total
		}
		return entries[i].key < entries[j].key
	})
	return entries
}

// WriteTo writes the finished index to w in the line grammar
// "<key>,<total>,<line>:<field>,<line>:<field>,...\n" (§4.4).
func (em *Emitter) WriteTo(w io.Writer) error {
	bw := bufio.NewWriterSize(w, 1<<20)
	for _, e := range em.Collect() {
		if err := writeEntryLine(bw, e); err != nil {
			return err
		}
	}
	return bw.Flush()
}

func writeEntryLine(bw *bufio.Writer, e indexedEntry) error {
	if _, err := bw.WriteString(e.key); err != nil {
		return err
	}
	if _, err := bw.WriteString(","); err != nil {
		return err
	}
	if _, err := bw.WriteString(strconv.FormatUint(e.total, 10)); err != nil {
		return err
	}
	for _, l := range e.locs {
		if _, err := fmt.Fprintf(bw, ",%d:%d", l.Line, l.Field); err != nil {
			return err
		}
	}
	_, err := bw.WriteString("\n")
	return err
}
