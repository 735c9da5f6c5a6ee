package internal

// DownloadRequest is the immutable input for one download, supplied by the
// caller (CLI or batch list).
type DownloadRequest struct {
	URL         string
	Title       string
	OutputPath  string
	Connections int
}

// ResourceInfo is the result of probing the remote resource.
type ResourceInfo struct {
	Size          int64
	AcceptsRanges bool
}

// ByteRange is a contiguous slice of the resource. StartByte and EndByte are
// both inclusive, matching the HTTP Range header convention.
type ByteRange struct {
	StartByte int64
	EndByte   int64
}

func (r ByteRange) Length() int64 {
	return r.EndByte - r.StartByte + 1
}

type SegmentResult struct {
	Range ByteRange
	Err   error
}
