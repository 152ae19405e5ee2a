package dmacache

// Segment is one entry of a scatter list. PhysAddr and Length describe the memory; DMAAddress and
// DMALength are filled in by the hardware map and describe it as the device sees it.
type Segment struct {
	PhysAddr   uint64
	Length     uint32
	DMAAddress uint64
	DMALength  uint32
}

func cloneSegments(segments []Segment) []Segment {
	return append([]Segment(nil), segments...)
}

// copyDMAAddresses hands the device addresses resolved in src to the caller's dst. Copying stops at
// the first unmapped entry of src.
func copyDMAAddresses(dst, src []Segment) {
	for i := range dst {
		if i >= len(src) || src[i].DMALength == 0 {
			return
		}
		dst[i].DMAAddress = src[i].DMAAddress
		dst[i].DMALength = src[i].DMALength
	}
}
