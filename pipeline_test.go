package logpi

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestPipelineEndToEndSingleIPv4(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "src.log")
	require.NoError(t, os.WriteFile(path, []byte("2024-01-01 10.0.0.1 ok\n"), 0o644))

	cfg := DefaultConfig()
	cfg.Serial = true
	p := NewPipeline(cfg, path)

	var buf bytes.Buffer
	result, err := p.Run(context.Background(), StreamSink{W: &buf})
	require.NoError(t, err)
	require.EqualValues(t, 1, result.Lines)
	require.EqualValues(t, 1, result.Entries)
	require.Equal(t, "10.0.0.1,1,1:2\n", buf.String())
}

func TestPipelineFrequencyOrdering(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "src.log")
	content := "10.0.0.1 a\n10.0.0.2 b\n10.0.0.1 c\n10.0.0.1 d\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg := DefaultConfig()
	cfg.Serial = true
	p := NewPipeline(cfg, path)

	var buf bytes.Buffer
	_, err := p.Run(context.Background(), StreamSink{W: &buf})
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	require.True(t, strings.HasPrefix(lines[0], "10.0.0.1,3,"))
	require.True(t, strings.HasPrefix(lines[1], "10.0.0.2,1,"))
}

func TestPipelineSerialAndParallelProduceIdenticalOutput(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "src.log")
	var sb strings.Builder
	for i := 0; i < 500; i++ {
		sb.WriteString("10.0.0.1 aa:bb:cc:dd:ee:ff fe80::1 noise\n")
		sb.WriteString("192.168.1.2 other line\n")
	}
	require.NoError(t, os.WriteFile(path, []byte(sb.String()), 0o644))

	serialCfg := DefaultConfig()
	serialCfg.Serial = true
	var serialOut bytes.Buffer
	_, err := NewPipeline(serialCfg, path).Run(context.Background(), StreamSink{W: &serialOut})
	require.NoError(t, err)

	parallelCfg := DefaultConfig()
	parallelCfg.Workers = 4
	var parallelOut bytes.Buffer
	_, err = NewPipeline(parallelCfg, path).Run(context.Background(), StreamSink{W: &parallelOut})
	require.NoError(t, err)

	require.Equal(t, serialOut.String(), parallelOut.String())
}

func TestPipelineMultiFieldIPv4AndMACOnSameLine(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "src.log")
	require.NoError(t, os.WriteFile(path, []byte("10.0.0.1 aa:bb:cc:dd:ee:ff\n"), 0o644))

	cfg := DefaultConfig()
	cfg.Serial = true
	var buf bytes.Buffer
	_, err := NewPipeline(cfg, path).Run(context.Background(), StreamSink{W: &buf})
	require.NoError(t, err)

	out := buf.String()
	require.Contains(t, out, "10.0.0.1,1,1:1\n")
	require.Contains(t, out, "aa:bb:cc:dd:ee:ff,1,1:2\n")
}

func TestPipelineLocalFileSinkWritesAtomically(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "src.log")
	require.NoError(t, os.WriteFile(path, []byte("10.0.0.1 x\n"), 0o644))

	cfg := DefaultConfig()
	cfg.Serial = true
	outPath := path + DefaultIndexSuffix
	_, err := NewPipeline(cfg, path).Run(context.Background(), LocalFileSink{Path: outPath})
	require.NoError(t, err)

	data, err := os.ReadFile(outPath)
	require.NoError(t, err)
	require.Equal(t, "10.0.0.1,1,1:1\n", string(data))
}

func TestPipelineRunStopsOnCancellationAndSkipsSink(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "src.log")
	var sb strings.Builder
	for i := 0; i < 5000; i++ {
		sb.WriteString("10.0.0.1 noise\n")
	}
	require.NoError(t, os.WriteFile(path, []byte(sb.String()), 0o644))

	cfg := DefaultConfig()
	cfg.Serial = true
	cfg.ChunkQueueCap = 0
	cfg.OpQueueCap = 0

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var buf bytes.Buffer
	done := make(chan error, 1)
	go func() {
		_, err := NewPipeline(cfg, path).Run(ctx, StreamSink{W: &buf})
		done <- err
	}()

	select {
	case err := <-done:
		require.Error(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("pipeline did not stop after context cancellation")
	}
	require.Empty(t, buf.String())
}
