package logpi

import (
	"encoding/binary"
	"net"
	"net/netip"

	"github.com/klauspost/cpuid/v2"
)

// Extraction is one address found on a line by the extractor (§4.5).
type Extraction struct {
	Type   AddressType
	Offset int // byte offset within the line
	Length int // byte length of the matched token
	Field  uint16
	Key    string // canonical key (§4.5 step 4)
}

// useFastScan gates the batched separator scan on CPU features the way
// minio/sha256-simd picks its implementation: detect once at init, fall back
// to the scalar byte loop everywhere the fast path can't help (e.g. very
// short lines). Both paths must locate the exact same candidate set; only
// throughput differs.
var useFastScan = cpuid.CPU.Supports(cpuid.SSE2)

const (
	swarLo = 0x0101010101010101
	swarHi = 0x8080808080808080
)

// hasByteSWAR is the classic "SIMD within a register" zero-byte trick,
// adapted to test for a specific byte value across all 8 lanes of a word in
// one pass instead of 8 separate comparisons.
func hasByteSWAR(w uint64, b byte) bool {
	x := w ^ (swarLo * uint64(b))
	return (x-swarLo)&^x&swarHi != 0
}

// scanSeparators locates every '.', ':' and '-' byte in buf. It is the
// extractor's single pass over the line called out in spec §4.5 step 2.
func scanSeparators(buf []byte) []int {
	if useFastScan {
		return scanSeparatorsFast(buf)
	}
	return scanSeparatorsScalar(buf)
}

func scanSeparatorsScalar(buf []byte) []int {
	var out []int
	for i, c := range buf {
		if isSeparatorByte(c) {
			out = append(out, i)
		}
	}
	return out
}

// scanSeparatorsFast skips whole 8-byte windows that contain none of the
// three candidate bytes before falling back to a byte-at-a-time scan of the
// windows that do.
func scanSeparatorsFast(buf []byte) []int {
	var out []int
	n := len(buf)
	i := 0
	for ; i+8 <= n; i += 8 {
		w := binary.LittleEndian.Uint64(buf[i : i+8])
		if hasByteSWAR(w, '.') || hasByteSWAR(w, ':') || hasByteSWAR(w, '-') {
			for j := 0; j < 8; j++ {
				if c := buf[i+j]; isSeparatorByte(c) {
					out = append(out, i+j)
				}
			}
		}
	}
	for ; i < n; i++ {
		if isSeparatorByte(buf[i]) {
			out = append(out, i)
		}
	}
	return out
}

func isSeparatorByte(c byte) bool { return c == '.' || c == ':' || c == '-' }

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func isHex(c byte) bool {
	return (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}

// field is a byte span of one whitespace/quote-separated field on a line.
type field struct {
	start, end int // [start,end) within the line, absolute offsets
	ordinal    uint16
}

// splitFields assigns a monotonically increasing field ordinal to each
// whitespace-separated field of a line (§4.5 step 1). In non-greedy mode a
// double-quote toggles a quoted span in which whitespace does not separate
// fields; in greedy mode quotes are ordinary characters.
func splitFields(line []byte, greedy bool) []field {
	var fields []field
	var ordinal uint16
	inQuotes := false
	start := -1
	for i := 0; i < len(line); i++ {
		c := line[i]
		if !greedy && c == '"' {
			inQuotes = !inQuotes
			if start == -1 {
				start = i
			}
			continue
		}
		if !inQuotes && isFieldSeparator(c) {
			if start != -1 {
				ordinal++
				fields = append(fields, field{start: start, end: i, ordinal: ordinal})
				start = -1
			}
			continue
		}
		if start == -1 {
			start = i
		}
	}
	if start != -1 {
		ordinal++
		fields = append(fields, field{start: start, end: len(line), ordinal: ordinal})
	}
	return fields
}

func isFieldSeparator(c byte) bool {
	return c == ' ' || c == '\t' || c == '\r'
}

// fieldAt returns the field containing byte offset pos, using binary search
// over the (sorted, non-overlapping) field spans.
func fieldAt(fields []field, pos int) (field, bool) {
	lo, hi := 0, len(fields)-1
	for lo <= hi {
		mid := (lo + hi) / 2
		f := fields[mid]
		switch {
		case pos < f.start:
			hi = mid - 1
		case pos >= f.end:
			lo = mid + 1
		default:
			return f, true
		}
	}
	return field{}, false
}

// ExtractAddresses is the pure, reentrant address extractor (§4.5). It is
// safe to call concurrently from any number of Readers/Workers: it neither
// reads nor writes any shared state.
func ExtractAddresses(line []byte, greedy bool) []Extraction {
	fields := splitFields(line, greedy)
	if len(fields) == 0 {
		return nil
	}
	candidates := scanSeparators(line)
	var out []Extraction
	consumedUntil := -1
	for _, pos := range candidates {
		if pos < consumedUntil {
			continue
		}
		f, ok := fieldAt(fields, pos)
		if !ok {
			continue
		}
		var ext *Extraction
		switch line[pos] {
		case '-':
			ext = matchMACAt(line, f, pos, '-')
		case ':':
			ext = matchMACAt(line, f, pos, ':')
			if ext == nil {
				ext = matchIPv6At(line, f, pos)
			}
		case '.':
			ext = matchIPv4At(line, f, pos)
		}
		if ext == nil {
			continue
		}
		out = append(out, *ext)
		consumedUntil = ext.Offset + ext.Length
	}
	return out
}

// runAround walks backward and forward from pos across bytes matching
// allowed, returning the maximal contiguous byte span. This realizes spec
// §4.5 step 3's "walk backwards to the field start" for the narrower case of
// an address token embedded in a larger field (e.g. `mac=aa:bb:cc:dd:ee:ff`).
func runAround(line []byte, f field, pos int, allowed func(byte) bool) (start, end int) {
	start, end = pos, pos+1
	for start > f.start && allowed(line[start-1]) {
		start--
	}
	for end < f.end && allowed(line[end]) {
		end++
	}
	return start, end
}

func matchMACAt(line []byte, f field, pos int, sep byte) *Extraction {
	allowed := func(c byte) bool { return isHex(c) || c == sep }
	start, end := runAround(line, f, pos, allowed)
	if end-start != 17 {
		return nil
	}
	tok := line[start:end]
	hw, err := net.ParseMAC(string(tok))
	if err != nil || len(hw) != 6 {
		return nil
	}
	return &Extraction{
		Type:   AddressMAC,
		Offset: start,
		Length: end - start,
		Field:  f.ordinal,
		Key:    hw.String(),
	}
}

func matchIPv6At(line []byte, f field, pos int) *Extraction {
	allowed := func(c byte) bool { return isHex(c) || c == ':' || c == '.' }
	start, end := runAround(line, f, pos, allowed)
	tok := line[start:end]
	// The token is parsed exactly as captured: a trailing '.' or ':' that
	// runAround picked up from adjacent punctuation (e.g. "fe80::1." at the
	// end of a sentence) is not trimmed, so ParseAddr rejects the token and
	// no address is extracted from it.
	addr, err := netip.ParseAddr(string(tok))
	if err != nil || !addr.Is6() {
		return nil
	}
	return &Extraction{
		Type:   AddressIPv6,
		Offset: start,
		Length: end - start,
		Field:  f.ordinal,
		Key:    addr.String(),
	}
}

func matchIPv4At(line []byte, f field, pos int) *Extraction {
	allowed := func(c byte) bool { return isDigit(c) || c == '.' }
	start, end := runAround(line, f, pos, allowed)
	tok := line[start:end]
	addr, err := netip.ParseAddr(string(tok))
	if err != nil || !addr.Is4() {
		return nil
	}
	return &Extraction{
		Type:   AddressIPv4,
		Offset: start,
		Length: end - start,
		Field:  f.ordinal,
		Key:    addr.String(),
	}
}
