package internal

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/parafetch/parafetch/utils"
)

// probeResource issues a HEAD request and reports the resource size and
// whether the server advertises byte-range support. Range capability requires
// the literal "bytes" token in Accept-Ranges; anything else means no.
func probeResource(url string, client utils.HTTPDoer) (*ResourceInfo, error) {
	log := utils.GetLogger("probe")
	req, err := http.NewRequest("HEAD", url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProbeFailed, err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProbeFailed, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: unexpected status code %d", ErrProbeFailed, resp.StatusCode)
	}
	contentLength := resp.Header.Get("Content-Length")
	if contentLength == "" {
		return nil, ErrMissingContentLength
	}
	size, err := strconv.ParseInt(contentLength, 10, 64)
	if err != nil || size < 0 {
		return nil, fmt.Errorf("%w: %q", ErrMissingContentLength, contentLength)
	}
	info := &ResourceInfo{
		Size:          size,
		AcceptsRanges: resp.Header.Get("Accept-Ranges") == "bytes",
	}
	log.Debug().Str("url", url).Int64("size", info.Size).Bool("acceptsRanges", info.AcceptsRanges).Msg("Resource probed")
	return info, nil
}
