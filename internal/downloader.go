package internal

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
	"github.com/parafetch/parafetch/utils"
)

// Download fetches one resource into req.OutputPath using req.Connections
// parallel range segments. It probes range support first, fails outright when
// the server doesn't advertise it, and joins every worker before returning.
// A failed segment never cancels its siblings, so a partial file may remain
// at the destination on failure.
func Download(req DownloadRequest, clientConfig utils.HTTPClientConfig) error {
	if err := validateRequest(req); err != nil {
		return err
	}
	log := utils.GetLogger("downloader").With().Str("jobId", uuid.New().String()).Logger()
	client := utils.NewHTTPClient(clientConfig)

	info, err := probeResource(req.URL, client)
	if err != nil {
		return err
	}
	if !info.AcceptsRanges {
		return ErrRangeRequestsNotSupported
	}

	if dir := filepath.Dir(req.OutputPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("error creating output directory: %v", err)
		}
	}
	outFile, err := os.Create(req.OutputPath)
	if err != nil {
		return fmt.Errorf("error creating output file: %v", err)
	}
	defer outFile.Close()
	// Pre-size the file so every positional write lands inside it.
	if err := outFile.Truncate(info.Size); err != nil {
		return fmt.Errorf("error pre-allocating output file: %v", err)
	}

	ranges := planRanges(info.Size, req.Connections)
	log.Debug().Int64("size", info.Size).Int("segments", len(ranges)).Msg("Download planned")
	if len(ranges) == 0 {
		log.Debug().Str("output", req.OutputPath).Msg("Zero-byte resource, nothing to fetch")
		return nil
	}

	progressManager := NewProgressManager(req.Title, info.Size)
	progressManager.StartDisplay()
	defer progressManager.Stop()

	progressCh := make(chan int64)
	var progressWg sync.WaitGroup
	progressWg.Add(1)
	go func() {
		defer progressWg.Done()
		for bytesDownloaded := range progressCh {
			progressManager.Add(bytesDownloaded)
		}
	}()

	// Fixed fan-out: one worker per planned range, all joined below.
	results := make([]SegmentResult, len(ranges))
	var wg sync.WaitGroup
	for i, rng := range ranges {
		wg.Add(1)
		go func(i int, rng ByteRange) {
			defer wg.Done()
			results[i] = SegmentResult{Range: rng, Err: downloadSegment(req.URL, rng, outFile, client, progressCh)}
		}(i, rng)
	}
	wg.Wait()
	close(progressCh)
	progressWg.Wait()
	progressManager.Stop()

	// ranges are ordered by start, so failures come out ordered too
	var failed []*SegmentError
	for _, result := range results {
		if result.Err != nil {
			log.Debug().Err(result.Err).Int64("start", result.Range.StartByte).Int64("end", result.Range.EndByte).Msg("Segment failed")
			failed = append(failed, &SegmentError{Range: result.Range, Err: result.Err})
		}
	}
	if len(failed) > 0 {
		return &AggregateError{Failed: failed}
	}
	progressManager.ShowSummary()
	log.Debug().Str("output", req.OutputPath).Msg("Download completed successfully")
	return nil
}

func validateRequest(req DownloadRequest) error {
	if req.URL == "" {
		return fmt.Errorf("%w: empty URL", ErrInvalidRequest)
	}
	if _, err := url.ParseRequestURI(req.URL); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	if req.OutputPath == "" {
		return fmt.Errorf("%w: empty output path", ErrInvalidRequest)
	}
	if req.Connections < 1 {
		return fmt.Errorf("%w: connections must be at least 1, got %d", ErrInvalidRequest, req.Connections)
	}
	return nil
}
