package internal

import (
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/parafetch/parafetch/utils"
)

// downloadSegment fetches one byte range and writes it into the shared output
// file with positional writes at a running offset. The offset never leaves the
// assigned range, so segments need no lock around the file handle.
func downloadSegment(url string, rng ByteRange, outFile *os.File, client utils.HTTPDoer, progressCh chan<- int64) error {
	log := utils.GetLogger("segment").With().Int64("start", rng.StartByte).Int64("end", rng.EndByte).Logger()
	req, err := http.NewRequest("GET", url, nil)
	if err != nil {
		return err
	}
	rangeHeader := fmt.Sprintf("bytes=%d-%d", rng.StartByte, rng.EndByte)
	req.Header.Set("Range", rangeHeader)
	req.Header.Set("Connection", "keep-alive")
	log.Debug().Str("range", rangeHeader).Msg("Sending range request")
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusOK {
		// Writing a full response at this segment's offset would corrupt the
		// file, so bail before touching it.
		return ErrUnexpectedFullResponse
	}
	if resp.StatusCode != http.StatusPartialContent {
		return fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	buffer := make([]byte, utils.DefaultBufferSize)
	offset := rng.StartByte
	for {
		bytesRead, err := resp.Body.Read(buffer)
		if bytesRead > 0 {
			if offset+int64(bytesRead) > rng.EndByte+1 {
				return fmt.Errorf("server sent more data than requested for range %s", rangeHeader)
			}
			if _, writeErr := outFile.WriteAt(buffer[:bytesRead], offset); writeErr != nil {
				return fmt.Errorf("error writing to output file at offset %d: %v", offset, writeErr)
			}
			offset += int64(bytesRead)
			progressCh <- int64(bytesRead)
		}
		if err != nil {
			if err == io.EOF {
				break
			}
			return err
		}
	}
	if written := offset - rng.StartByte; written != rng.Length() {
		return fmt.Errorf("size mismatch: expected %d bytes, got %d", rng.Length(), written)
	}
	log.Debug().Int64("written", rng.Length()).Msg("Segment download completed")
	return nil
}
