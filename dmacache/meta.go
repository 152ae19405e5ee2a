package dmacache

import (
	"fmt"
	"sync/atomic"

	"github.com/cockroachdb/errors"
	"github.com/freqkit/freqkit/dmacache/internal/utils"
	"github.com/launchdarkly/go-jsonstream/v3/jwriter"
)

// meta tracks every device mapping of one buffer. Its refcount is the sum of its mappings'
// refcounts plus one for every operation currently working on it; when it drops to zero the
// meta is unlinked from the index and can never be acquired again.
type meta struct {
	buffer BufferID
	mutex  utils.OptionalRWMutex
	maps   []*mapping
	freed  bool

	refs atomic.Int32
}

func newMeta(buffer BufferID, useMutex bool) *meta {
	m := &meta{
		buffer: buffer,
		mutex: utils.OptionalRWMutex{
			UseMutex: useMutex,
		},
	}
	m.refs.Store(1)
	return m
}

// tryAcquire takes a reference unless the meta is already dying
func (m *meta) tryAcquire() bool {
	for {
		refs := m.refs.Load()
		if refs <= 0 {
			return false
		}
		if m.refs.CompareAndSwap(refs, refs+1) {
			return true
		}
	}
}

// find returns the mapping for device and its position, or nil and -1.
// The caller must hold the meta's lock.
func (m *meta) find(device DeviceID) (*mapping, int) {
	for i, mp := range m.maps {
		if mp.device == device {
			return mp, i
		}
	}
	return nil, -1
}

// removeAt unlinks the mapping at index i, keeping the remaining mappings in order.
// The caller must hold the meta's write lock.
func (m *meta) removeAt(i int) {
	copy(m.maps[i:], m.maps[i+1:])
	m.maps[len(m.maps)-1] = nil
	m.maps = m.maps[:len(m.maps)-1]
}

// Validate checks the meta's invariants. The caller must hold the meta's lock.
func (m *meta) Validate() error {
	var mapRefs int32
	seen := make(map[DeviceID]struct{}, len(m.maps))

	for _, mp := range m.maps {
		if _, duplicate := seen[mp.device]; duplicate {
			return errors.Newf("buffer %#x has more than one mapping for device %s", uintptr(m.buffer), mp.device)
		}
		seen[mp.device] = struct{}{}

		if err := mp.Validate(); err != nil {
			return errors.Wrapf(err, "buffer %#x", uintptr(m.buffer))
		}
		mapRefs += mp.refs.Load()
	}

	if refs := m.refs.Load(); !m.freed && refs < mapRefs {
		return errors.Newf("buffer %#x holds %d references but its mappings hold %d", uintptr(m.buffer), refs, mapRefs)
	}

	return nil
}

func (m *meta) printParameters(json *jwriter.ObjectState) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	json.Name("Buffer").String(fmt.Sprintf("%#x", uintptr(m.buffer)))
	json.Name("Refs").Int(int(m.refs.Load()))

	maps := json.Name("Mappings").Array()
	for _, mp := range m.maps {
		o := maps.Object()
		o.Name("Device").String(string(mp.device))
		o.Name("Direction").String(mp.dir.String())
		o.Name("Attrs").String(mp.attrs.String())
		o.Name("Segments").Int(len(mp.segments))
		o.Name("Refs").Int(int(mp.refs.Load()))
		o.End()
	}
	maps.End()
}
