package dmacache

// DeviceID identifies a device consuming DMA buffers
type DeviceID string

// BufferID is the identity of a shared buffer
type BufferID uintptr

// DMA is the hardware mapping layer the cache sits on. Map fills in the DMAAddress and DMALength
// of every segment it maps. A Map failure that is worth retrying should be marked with
// ErrResourceExhausted; any other failure is returned to the caller as is. Every method may block.
type DMA interface {
	Map(device DeviceID, segments []Segment, dir Direction, attrs Attrs) error
	Unmap(device DeviceID, segments []Segment, dir Direction, attrs Attrs)
	SyncForDevice(device DeviceID, segments []Segment, dir Direction)
	SyncForCPU(device DeviceID, segments []Segment, dir Direction)
}
