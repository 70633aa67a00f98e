package logpi

import (
	"io"
	"strings"

	"github.com/klauspost/compress/gzip"
)

// openReader wraps r with transparent gzip decompression when path ends in
// ".gz" (§4.1). Grounded on the teacher's compress.go wrapper style: a thin
// function around one klauspost/compress codec, nothing more.
func openReader(path string, r io.Reader) (io.Reader, error) {
	if !strings.HasSuffix(path, ".gz") {
		return r, nil
	}
	gz, err := gzip.NewReader(r)
	if err != nil {
		return nil, err
	}
	return gz, nil
}
