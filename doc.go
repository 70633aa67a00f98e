/*
Package logpi builds an inverted index over plain-text log files, mapping every
network address observed (IPv4, IPv6, MAC) to the (line, field) positions where
it occurs, and streams the index to a companion ".lpi" file next to the source.

The indexer runs as a four-stage pipeline tied together by two bounded queues:
a single Reader splits the source into newline-aligned chunks, a pool of
Workers extracts addresses and appends known-key occurrences to their own
per-worker location arrays, a single Indexer owns the shared hash index and
resolves new-key races, and a single Emitter sorts and writes the final index
once ingest drains.

See logpi/cmd/logpi for the command-line frontend.
*/
package logpi
