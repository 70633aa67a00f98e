package logpi

// Default tunables, matching the spec's defaults unless overridden via Config.
const (
	// DefaultChunkSize is the Reader's default read-buffer size (128MiB).
	DefaultChunkSize = 128 << 20

	// MinWorkers is the spec floor on worker count.
	MinWorkers = 2

	// DefaultChunkQueueCap is the bounded chunk queue's default capacity.
	DefaultChunkQueueCap = 16

	// DefaultOpQueueCap is the bounded op queue's default capacity.
	DefaultOpQueueCap = 50000

	// PendingBatchSize is how many new-key inserts a worker buffers locally
	// before flushing to the Indexer, chosen to minimize collision windows.
	PendingBatchSize = 5

	// ResizeCheckInterval is how often (in successful inserts) the Indexer
	// inspects load factor.
	ResizeCheckInterval = 4096

	// ResizeLoadFactor is the occupancy threshold that triggers a rehash.
	ResizeLoadFactor = 0.8

	// MaxEntries is the hard cap on total unique address entries.
	MaxEntries = 10_000_000

	// MaxOverlongLine is the implementation-chosen maximum line length;
	// longer lines are logged and truncated rather than treated as fatal.
	MaxOverlongLine = 1 << 20

	// DefaultReportInterval is the periodic throughput-reporting tick (§5).
	DefaultReportInterval = 60 // seconds

	// DefaultIndexSuffix is appended to the source path for write-auto mode.
	DefaultIndexSuffix = ".lpi"
)

// hashPrimes is the fixed growth ladder the hash index resizes through,
// carried over from the original implementation's table and extended
// geometrically up to the implementation's bucket-count cap.
var hashPrimes = []uint64{
	53, 97, 193, 389, 769, 1543, 3079,
	6151, 12289, 24593, 49157, 98317, 196613, 393241,
	786433, 1572869, 3145739, 6291469, 12582917, 25165843, 50331653,
	100663319, 201326611, 402653189, 805306457, 1610612741,
	3221225473, 6442450939, 12884901893, 25769803751,
}

// AddressType discriminates the kind of network address an extractor match
// represents. It replaces the original implementation's dynamic field-prefix
// character shared between parser and hash table with a typed value.
type AddressType uint8

const (
	// AddressIPv4 marks a dotted-quad IPv4 literal.
	AddressIPv4 AddressType = iota + 1
	// AddressIPv6 marks an IPv6 literal, possibly with an embedded IPv4 suffix.
	AddressIPv6
	// AddressMAC marks a six-octet hardware address.
	AddressMAC
)

func (t AddressType) String() string {
	switch t {
	case AddressIPv4:
		return "ipv4"
	case AddressIPv6:
		return "ipv6"
	case AddressMAC:
		return "mac"
	default:
		return "unknown"
	}
}
