package internal

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parafetch/parafetch/utils"
)

func segmentClient() utils.HTTPDoer {
	return utils.NewHTTPClient(utils.HTTPClientConfig{Timeout: 10 * time.Second, UserAgent: "test"})
}

func newSegmentFile(t *testing.T, size int64) *os.File {
	t.Helper()
	f, err := os.Create(filepath.Join(t.TempDir(), "segment.bin"))
	require.NoError(t, err)
	t.Cleanup(func() { f.Close() })
	require.NoError(t, f.Truncate(size))
	return f
}

// drainProgress consumes progress reports and returns a channel carrying the
// final sum once progressCh closes.
func drainProgress(progressCh <-chan int64) <-chan int64 {
	totalCh := make(chan int64, 1)
	go func() {
		var total int64
		for n := range progressCh {
			total += n
		}
		totalCh <- total
	}()
	return totalCh
}

func TestDownloadSegmentWritesAtOffset(t *testing.T) {
	data := testData(64 * 1024)
	server := newRangeServer(data, nil, nil, true)
	defer server.Close()

	outFile := newSegmentFile(t, int64(len(data)))
	rng := ByteRange{StartByte: 8192, EndByte: 24575}
	progressCh := make(chan int64)
	totalCh := drainProgress(progressCh)

	err := downloadSegment(server.URL, rng, outFile, segmentClient(), progressCh)
	close(progressCh)
	require.NoError(t, err)
	assert.Equal(t, rng.Length(), <-totalCh)

	content, err := os.ReadFile(outFile.Name())
	require.NoError(t, err)
	assert.Equal(t, data[8192:24576], content[8192:24576])
	// bytes outside the assigned range stay untouched
	for _, i := range []int{0, 8191, 24576, len(data) - 1} {
		assert.Zero(t, content[i], "byte %d", i)
	}
}

func TestDownloadSegmentFullResponse(t *testing.T) {
	data := testData(1024)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// ignore the Range header entirely
		w.Header().Set("Content-Length", strconv.Itoa(len(data)))
		w.WriteHeader(http.StatusOK)
		w.Write(data)
	}))
	defer server.Close()

	outFile := newSegmentFile(t, int64(len(data)))
	progressCh := make(chan int64)
	totalCh := drainProgress(progressCh)

	err := downloadSegment(server.URL, ByteRange{StartByte: 0, EndByte: 511}, outFile, segmentClient(), progressCh)
	close(progressCh)
	assert.ErrorIs(t, err, ErrUnexpectedFullResponse)
	assert.Zero(t, <-totalCh)

	// nothing may have been written
	content, readErr := os.ReadFile(outFile.Name())
	require.NoError(t, readErr)
	for i, b := range content {
		require.Zero(t, b, "byte %d", i)
	}
}

func TestDownloadSegmentServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	outFile := newSegmentFile(t, 1024)
	progressCh := make(chan int64)
	totalCh := drainProgress(progressCh)

	err := downloadSegment(server.URL, ByteRange{StartByte: 0, EndByte: 1023}, outFile, segmentClient(), progressCh)
	close(progressCh)
	<-totalCh
	assert.ErrorContains(t, err, "unexpected status code")
}

func TestDownloadSegmentTruncatedBody(t *testing.T) {
	data := testData(32 * 1024)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// promise the full range but deliver half, then drop the connection
		w.Header().Set("Content-Length", strconv.Itoa(len(data)))
		w.WriteHeader(http.StatusPartialContent)
		w.Write(data[:len(data)/2])
		if f, ok := w.(http.Flusher); ok {
			f.Flush()
		}
		conn, _, err := w.(http.Hijacker).Hijack()
		if err == nil {
			conn.Close()
		}
	}))
	defer server.Close()

	outFile := newSegmentFile(t, int64(len(data)))
	progressCh := make(chan int64)
	totalCh := drainProgress(progressCh)

	err := downloadSegment(server.URL, ByteRange{StartByte: 0, EndByte: int64(len(data) - 1)}, outFile, segmentClient(), progressCh)
	close(progressCh)
	<-totalCh
	assert.Error(t, err)
}
