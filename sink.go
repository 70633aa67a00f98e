package logpi

import (
	"bytes"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/folbricht/tempfile"
	minio "github.com/minio/minio-go"
	"github.com/pkg/errors"
)

// Sink is where a finished index ends up (§4.4, §6). Every sink accepts one
// Write call per run; logpi never appends to or updates an existing index.
type Sink interface {
	// Write streams the Emitter's output to the destination.
	Write(em *Emitter) error
}

// LocalFileSink writes the index atomically next to the source file: build
// the whole file in a tempfile in the destination directory, then rename
// into place, exactly as the teacher's main.go does for its own output file.
// A half-written index is never visible under the final name.
type LocalFileSink struct {
	Path string
}

func (s LocalFileSink) Write(em *Emitter) error {
	dir := filepath.Dir(s.Path)
	tmp, err := tempfile.New(dir, ".logpi-")
	if err != nil {
		return OutputError{Path: s.Path, Err: err}
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if err := em.WriteTo(tmp); err != nil {
		tmp.Close()
		return OutputError{Path: s.Path, Err: err}
	}
	if err := tmp.Close(); err != nil {
		return OutputError{Path: s.Path, Err: err}
	}
	if err := os.Rename(tmpName, s.Path); err != nil {
		return OutputError{Path: s.Path, Err: err}
	}
	return nil
}

// StreamSink writes the index straight to an io.Writer (e.g. stdout), for
// the CLI's "--sink -" stream-output mode (§6). There's no atomicity to
// offer a stream, so the caller owns that tradeoff.
type StreamSink struct {
	W io.Writer
}

func (s StreamSink) Write(em *Emitter) error {
	if err := em.WriteTo(s.W); err != nil {
		return OutputError{Path: "<stream>", Err: err}
	}
	return nil
}

// S3Sink uploads the finished index as a single object to S3-compatible
// storage. Grounded on the teacher's S3Store: same minio.New(host, key,
// secret, useSSL) construction and PutObject call, adapted from a
// chunk-at-a-time chunk store to a one-shot whole-file object put.
type S3Sink struct {
	client *minio.Client
	bucket string
	key    string
	uri    string
}

// NewS3Sink parses a uri of the form "s3+http(s)://host/bucket/key" and
// reads credentials from S3_ACCESS_KEY/S3_SECRET_KEY, matching the teacher's
// NewS3Store convention.
func NewS3Sink(uri string) (*S3Sink, error) {
	u, err := url.Parse(uri)
	if err != nil {
		return nil, errors.Wrap(err, uri)
	}
	if !strings.HasPrefix(u.Scheme, "s3+http") {
		return nil, fmt.Errorf("invalid scheme %q, expected 's3+http' or 's3+https'", u.Scheme)
	}
	useSSL := strings.HasSuffix(u.Scheme, "s")

	path := strings.Trim(u.Path, "/")
	if path == "" {
		return nil, fmt.Errorf("expected bucket/key in path of %q", uri)
	}
	parts := strings.SplitN(path, "/", 2)
	if len(parts) != 2 {
		return nil, fmt.Errorf("expected bucket/key in path of %q", uri)
	}

	accessKey := os.Getenv("S3_ACCESS_KEY")
	secretKey := os.Getenv("S3_SECRET_KEY")
	client, err := minio.New(u.Host, accessKey, secretKey, useSSL)
	if err != nil {
		return nil, errors.Wrap(err, uri)
	}
	return &S3Sink{client: client, bucket: parts[0], key: parts[1], uri: uri}, nil
}

func (s *S3Sink) Write(em *Emitter) error {
	var buf bytes.Buffer
	if err := em.WriteTo(&buf); err != nil {
		return OutputError{Path: s.uri, Err: err}
	}
	_, err := s.client.PutObject(s.bucket, s.key, &buf, int64(buf.Len()), minio.PutObjectOptions{
		ContentType: "text/plain",
	})
	if err != nil {
		return OutputError{Path: s.uri, Err: errors.Wrap(err, s.uri)}
	}
	return nil
}

// MultiSink fans the same finished index out to several sinks, e.g. writing
// the local .lpi file and streaming a copy to stdout in one run. Grounded on
// the teacher's StoreRouter, inverted: the router tries stores in order
// until one succeeds, MultiSink writes to every sink and reports every
// failure.
type MultiSink struct {
	Sinks []Sink
}

func (m MultiSink) Write(em *Emitter) error {
	var firstErr error
	for _, s := range m.Sinks {
		if err := s.Write(em); err != nil {
			Log.WithError(err).Warn("sink write failed")
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}
