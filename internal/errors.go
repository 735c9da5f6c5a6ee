package internal

import (
	"errors"
	"fmt"
)

var ErrRangeRequestsNotSupported = errors.New("range requests are not supported")
var ErrMissingContentLength = errors.New("server didn't provide a valid Content-Length header")
var ErrProbeFailed = errors.New("probe request failed")
var ErrInvalidRequest = errors.New("invalid download request")
var ErrUnexpectedFullResponse = errors.New("server returned full content for a range request")

// SegmentError is the failure of a single segment, carrying the byte range it
// was assigned.
type SegmentError struct {
	Range ByteRange
	Err   error
}

func (e *SegmentError) Error() string {
	return fmt.Sprintf("segment %d-%d failed: %v", e.Range.StartByte, e.Range.EndByte, e.Err)
}

func (e *SegmentError) Unwrap() error {
	return e.Err
}

// AggregateError is returned when one or more segments failed after all
// workers finished. Failed is sorted by range start; the first entry is the
// deterministic root cause.
type AggregateError struct {
	Failed []*SegmentError
}

func (e *AggregateError) Error() string {
	first := e.Failed[0]
	return fmt.Sprintf("%d of the download segments failed, first at bytes %d-%d: %v",
		len(e.Failed), first.Range.StartByte, first.Range.EndByte, first.Err)
}

func (e *AggregateError) Unwrap() error {
	return e.Failed[0]
}

// FailedRanges reports the byte ranges that did not complete, for callers
// that want to retry just those in a later run.
func (e *AggregateError) FailedRanges() []ByteRange {
	ranges := make([]ByteRange, len(e.Failed))
	for i, f := range e.Failed {
		ranges[i] = f.Range
	}
	return ranges
}
