package dmacache

import (
	"sync/atomic"

	"github.com/cockroachdb/errors"
)

// mapping is the cached hardware mapping of one buffer for one device. Segments and physAddr are
// fixed at creation; dir and attrs are rewritten by every unmap and guarded by the owning meta's
// write lock. Refs may be raised under the meta's read lock.
type mapping struct {
	device   DeviceID
	dir      Direction
	attrs    Attrs
	segments []Segment
	physAddr uint64

	refs atomic.Int32
}

func newMapping(device DeviceID, segments []Segment, dir Direction, attrs Attrs) *mapping {
	return &mapping{
		device:   device,
		dir:      dir,
		attrs:    attrs,
		segments: segments,
		physAddr: segments[0].PhysAddr,
	}
}

// checkGeometry returns an error wrapping ErrConflictingMapping unless a request for segments,
// dir and attrs can reuse this mapping
func (m *mapping) checkGeometry(buffer BufferID, segments []Segment, dir Direction, attrs Attrs) error {
	if len(segments) == len(m.segments) &&
		dir == m.dir &&
		attrs.geometryAttrs() == m.attrs.geometryAttrs() &&
		segments[0].PhysAddr == m.physAddr {
		return nil
	}

	return errors.Wrapf(ErrConflictingMapping,
		"buffer %#x is already mapped for device %s with %d segments, direction %s, attrs %s, start %#x; "+
			"requested %d segments, direction %s, attrs %s, start %#x",
		uintptr(buffer), m.device, len(m.segments), m.dir, m.attrs, m.physAddr,
		len(segments), dir, attrs, segments[0].PhysAddr,
	)
}

func (m *mapping) Validate() error {
	if len(m.segments) == 0 {
		return errors.Newf("mapping for device %s has no segments", m.device)
	}
	if m.refs.Load() <= 0 {
		return errors.Newf("mapping for device %s is linked with %d references", m.device, m.refs.Load())
	}
	if m.segments[0].PhysAddr != m.physAddr {
		return errors.Newf("mapping for device %s starts at %#x but records %#x", m.device, m.segments[0].PhysAddr, m.physAddr)
	}
	return nil
}

// MappingInfo is a snapshot of a cached mapping
type MappingInfo struct {
	Device    DeviceID
	Direction Direction
	Attrs     Attrs
	Segments  []Segment
	PhysAddr  uint64
	Refs      int
}

func (m *mapping) info() MappingInfo {
	return MappingInfo{
		Device:    m.device,
		Direction: m.dir,
		Attrs:     m.attrs,
		Segments:  cloneSegments(m.segments),
		PhysAddr:  m.physAddr,
		Refs:      int(m.refs.Load()),
	}
}
