package internal

// planRanges partitions [0, fileSize) into at most `connections` contiguous
// ranges. The effective range count is capped at fileSize so no range is ever
// empty; the last range absorbs the integer-division remainder.
func planRanges(fileSize int64, connections int) []ByteRange {
	if fileSize <= 0 {
		return nil
	}
	numRanges := int64(connections)
	if numRanges > fileSize {
		numRanges = fileSize
	}
	chunkSize := fileSize / numRanges
	ranges := make([]ByteRange, 0, numRanges)
	var currentPosition int64 = 0
	for i := int64(0); i < numRanges; i++ {
		startByte := currentPosition
		endByte := startByte + chunkSize - 1
		if i == numRanges-1 {
			endByte = fileSize - 1
		}
		ranges = append(ranges, ByteRange{StartByte: startByte, EndByte: endByte})
		currentPosition = endByte + 1
	}
	return ranges
}
