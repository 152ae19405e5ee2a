package dmacache

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/cockroachdb/errors"
	"github.com/dolthub/swiss"
	"github.com/freqkit/freqkit/boostutils"
	"github.com/freqkit/freqkit/dmacache/internal/utils"
	"golang.org/x/exp/slog"
	"gopkg.in/retry.v1"
)

// Cache shares hardware DMA mappings of a buffer between repeated map requests from the same
// device. The identity index and each buffer's mapping list are guarded by separate locks, and
// no lock is held across a hardware map or unmap.
type Cache struct {
	logger        *slog.Logger
	dma           DMA
	useMutex      bool
	retryStrategy retry.Strategy

	mutex utils.OptionalRWMutex
	index *swiss.Map[BufferID, *meta]

	hardwareMaps   atomic.Int64
	hardwareUnmaps atomic.Int64
	reuses         atomic.Int64
	conflicts      atomic.Int64
	retries        atomic.Int64
	orphans        atomic.Int64
}

// acquireMeta returns the live meta for buffer with a reference taken, creating it if needed
func (c *Cache) acquireMeta(buffer BufferID) *meta {
	c.mutex.RLock()
	m, ok := c.index.Get(buffer)
	if ok && m.tryAcquire() {
		c.mutex.RUnlock()
		return m
	}
	c.mutex.RUnlock()

	c.mutex.Lock()
	defer c.mutex.Unlock()

	m, ok = c.index.Get(buffer)
	if ok && m.tryAcquire() {
		return m
	}

	// Any meta still indexed here is dying; its final release only unlinks itself
	m = newMeta(buffer, c.useMutex)
	c.index.Put(buffer, m)
	return m
}

// lookupMeta returns the live meta for buffer with a reference taken, or nil
func (c *Cache) lookupMeta(buffer BufferID) *meta {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	m, ok := c.index.Get(buffer)
	if !ok || !m.tryAcquire() {
		return nil
	}
	return m
}

// release drops count references from m and unlinks it from the index when none remain
func (c *Cache) release(m *meta, count int32) {
	if m.refs.Add(-count) > 0 {
		return
	}

	c.mutex.Lock()
	defer c.mutex.Unlock()

	current, ok := c.index.Get(m.buffer)
	if ok && current == m {
		c.index.Delete(m.buffer)
	}
}

// Map maps segments of buffer for device and returns the number of mapped segments. The DMA
// addresses of segments are filled in. When the device already maps the buffer with the same
// geometry the cached mapping is reused and no hardware map is performed; a different geometry
// fails with ErrConflictingMapping and leaves the cached mapping untouched.
//
// Unless attrs contains AttrNoDelayedUnmap the cache keeps its own reference to a new mapping, so
// the hardware mapping outlives the caller's Unmap until the buffer is freed or the device's
// mappings are torn down.
func (c *Cache) Map(ctx context.Context, buffer BufferID, device DeviceID, segments []Segment, dir Direction, attrs Attrs) (int, error) {
	c.logger.Debug("Cache::Map",
		slog.Any("Buffer", buffer),
		slog.String("Device", string(device)),
		slog.Int("Segments", len(segments)))

	if len(segments) == 0 {
		return 0, errors.New("attempted to map an empty segment list")
	}

	m := c.acquireMeta(buffer)

	m.mutex.RLock()
	existing, _ := m.find(device)
	if existing != nil {
		err := c.reuse(m, existing, device, segments, dir, attrs)
		m.mutex.RUnlock()

		if err != nil {
			c.release(m, 1)
			return 0, err
		}
		return len(segments), nil
	}
	m.mutex.RUnlock()

	mapped := cloneSegments(segments)
	err := c.hardwareMap(ctx, device, mapped, dir, attrs)
	if err != nil {
		c.release(m, 1)
		return 0, err
	}

	m.mutex.Lock()
	if m.freed {
		m.mutex.Unlock()
		c.dma.Unmap(device, mapped, dir, attrs|AttrSkipCPUSync)
		c.hardwareUnmaps.Add(1)
		c.release(m, 1)
		return 0, errors.Wrapf(ErrBufferFreed, "buffer %#x", uintptr(buffer))
	}

	racing, _ := m.find(device)
	if racing != nil {
		// Another caller mapped the buffer for this device while we were mapping it
		err = c.reuse(m, racing, device, segments, dir, attrs)
		m.mutex.Unlock()

		c.dma.Unmap(device, mapped, dir, attrs|AttrSkipCPUSync)
		c.hardwareUnmaps.Add(1)
		if err != nil {
			c.release(m, 1)
			return 0, err
		}
		return len(segments), nil
	}

	mp := newMapping(device, mapped, dir, attrs)
	mp.refs.Store(1)
	if attrs&AttrNoDelayedUnmap == 0 {
		mp.refs.Add(1)
		m.refs.Add(1)
	}
	m.maps = append(m.maps, mp)
	boostutils.DebugValidate(m)
	m.mutex.Unlock()

	copyDMAAddresses(segments, mapped)
	return len(segments), nil
}

// reuse hands out an existing mapping. The caller holds the meta's lock, read or write.
// On success the caller's meta reference is transferred to the mapping.
func (c *Cache) reuse(m *meta, mp *mapping, device DeviceID, segments []Segment, dir Direction, attrs Attrs) error {
	if err := mp.checkGeometry(m.buffer, segments, dir, attrs); err != nil {
		c.conflicts.Add(1)
		return err
	}

	mp.refs.Add(1)
	copyDMAAddresses(segments, mp.segments)
	if attrs&AttrSkipCPUSync == 0 {
		c.dma.SyncForDevice(device, mp.segments, dir)
	}

	c.reuses.Add(1)
	return nil
}

// hardwareMap performs the real mapping, retrying failures marked ErrResourceExhausted
func (c *Cache) hardwareMap(ctx context.Context, device DeviceID, segments []Segment, dir Direction, attrs Attrs) error {
	var err error
	attempts := 0

	for attempt := retry.Start(c.retryStrategy, nil); attempt.Next(); {
		if ctxErr := ctx.Err(); ctxErr != nil {
			if err == nil {
				return ctxErr
			}
			return fmt.Errorf("dma map for device %s cancelled: %w: %w", device, ctxErr, err)
		}

		if attempts > 0 {
			c.retries.Add(1)
		}
		attempts++

		err = c.dma.Map(device, segments, dir, attrs)
		if err == nil {
			c.hardwareMaps.Add(1)
			return nil
		}

		if !errors.Is(err, ErrResourceExhausted) {
			return errors.Wrapf(err, "failed to map %d segments for device %s", len(segments), device)
		}

		c.logger.Warn("dma map failed, retrying",
			slog.String("Device", string(device)),
			slog.Int("Attempt", attempts),
			slog.Any("Error", err))
	}

	return errors.Wrapf(err, "gave up mapping %d segments for device %s after %d attempts", len(segments), device, attempts)
}

// Unmap gives back one reference to the mapping of buffer for device. The stored direction and
// attributes are replaced with dir and attrs. When the last reference goes the hardware mapping is
// torn down. Unmapping a buffer or device that is not mapped does nothing.
func (c *Cache) Unmap(buffer BufferID, device DeviceID, dir Direction, attrs Attrs) {
	c.logger.Debug("Cache::Unmap",
		slog.Any("Buffer", buffer),
		slog.String("Device", string(device)))

	m := c.lookupMeta(buffer)
	if m == nil {
		return
	}

	m.mutex.Lock()
	mp, index := m.find(device)
	if mp == nil {
		m.mutex.Unlock()
		c.release(m, 1)
		return
	}

	if attrs&AttrSkipCPUSync == 0 {
		c.dma.SyncForCPU(device, mp.segments, dir)
	}

	mp.dir = dir
	mp.attrs = attrs

	var destroy *mapping
	if mp.refs.Add(-1) == 0 {
		m.removeAt(index)
		destroy = mp
	}
	boostutils.DebugValidate(m)
	m.mutex.Unlock()

	if destroy != nil {
		c.destroyMapping(destroy)
	}

	c.release(m, 2)
}

// destroyMapping performs the hardware unmap of a mapping that has already been unlinked
func (c *Cache) destroyMapping(mp *mapping) {
	c.dma.Unmap(mp.device, mp.segments, mp.dir, mp.attrs|AttrSkipCPUSync)
	c.hardwareUnmaps.Add(1)
}

// UnmapAllForDevice gives back one reference to every mapping held by device, tearing down the
// ones that reach zero. Mappings that are still referenced survive and are reported with an error
// marked ErrPartialTeardown; everything else is still torn down.
func (c *Cache) UnmapAllForDevice(device DeviceID) error {
	c.logger.Debug("Cache::UnmapAllForDevice", slog.String("Device", string(device)))

	var metas []*meta
	c.mutex.RLock()
	c.index.Iter(func(_ BufferID, m *meta) bool {
		if m.tryAcquire() {
			metas = append(metas, m)
		}
		return false
	})
	c.mutex.RUnlock()

	var err error
	for _, m := range metas {
		var destroy []*mapping
		var dropped int32

		m.mutex.Lock()
		for i := 0; i < len(m.maps); {
			mp := m.maps[i]
			if mp.device != device {
				i++
				continue
			}

			dropped++
			if mp.refs.Add(-1) == 0 {
				m.removeAt(i)
				destroy = append(destroy, mp)
				continue
			}

			err = errors.CombineErrors(err, errors.Wrapf(ErrPartialTeardown,
				"mapping of buffer %#x for device %s still has %d references",
				uintptr(m.buffer), device, mp.refs.Load(),
			))
			i++
		}
		boostutils.DebugValidate(m)
		m.mutex.Unlock()

		for _, mp := range destroy {
			c.destroyMapping(mp)
		}

		c.release(m, 1+dropped)
	}

	return err
}

// BufferFreed drops every mapping of buffer once the buffer itself has been destroyed. Each
// mapping gives back the reference the cache holds for it; mappings that reach zero are torn down
// and the others are dropped from the cache without a hardware unmap. The buffer is removed from
// the index regardless.
func (c *Cache) BufferFreed(buffer BufferID) {
	c.logger.Debug("Cache::BufferFreed", slog.Any("Buffer", buffer))

	c.mutex.Lock()
	m, ok := c.index.Get(buffer)
	if ok {
		c.index.Delete(buffer)
	}
	c.mutex.Unlock()

	if !ok {
		return
	}

	var destroy []*mapping
	m.mutex.Lock()
	m.freed = true
	for _, mp := range m.maps {
		if mp.refs.Add(-1) == 0 {
			destroy = append(destroy, mp)
			continue
		}

		c.orphans.Add(1)
		c.logger.Warn("dropping dma mapping that is still referenced",
			slog.Any("Buffer", buffer),
			slog.String("Device", string(mp.device)),
			slog.Int("Refs", int(mp.refs.Load())))
	}
	m.maps = nil
	m.refs.Store(0)
	m.mutex.Unlock()

	for _, mp := range destroy {
		c.destroyMapping(mp)
	}
}

// Lookup returns a snapshot of the mapping of buffer for device
func (c *Cache) Lookup(buffer BufferID, device DeviceID) (MappingInfo, bool) {
	m := c.lookupMeta(buffer)
	if m == nil {
		return MappingInfo{}, false
	}
	defer c.release(m, 1)

	m.mutex.RLock()
	defer m.mutex.RUnlock()

	mp, _ := m.find(device)
	if mp == nil {
		return MappingInfo{}, false
	}
	return mp.info(), true
}

// Len returns the number of buffers with at least one live mapping or operation in flight
func (c *Cache) Len() int {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	return c.index.Count()
}
