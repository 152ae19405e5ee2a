package dmacache_test

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/freqkit/freqkit/dmacache"
	"github.com/stretchr/testify/require"
)

// fakeDMA tracks live hardware mappings per device and buffer start address
type fakeDMA struct {
	mutex sync.Mutex
	live  map[string]int
}

func newFakeDMA() *fakeDMA {
	return &fakeDMA{live: make(map[string]int)}
}

func fakeKey(device dmacache.DeviceID, segments []dmacache.Segment) string {
	return fmt.Sprintf("%s@%#x", device, segments[0].PhysAddr)
}

func (d *fakeDMA) Map(device dmacache.DeviceID, segments []dmacache.Segment, dir dmacache.Direction, attrs dmacache.Attrs) error {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	d.live[fakeKey(device, segments)]++
	return fillAddresses(device, segments, dir, attrs)
}

func (d *fakeDMA) Unmap(device dmacache.DeviceID, segments []dmacache.Segment, dir dmacache.Direction, attrs dmacache.Attrs) {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	key := fakeKey(device, segments)
	d.live[key]--
	if d.live[key] == 0 {
		delete(d.live, key)
	}
}

func (d *fakeDMA) SyncForDevice(device dmacache.DeviceID, segments []dmacache.Segment, dir dmacache.Direction) {}

func (d *fakeDMA) SyncForCPU(device dmacache.DeviceID, segments []dmacache.Segment, dir dmacache.Direction) {}

func (d *fakeDMA) Live() map[string]int {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	live := make(map[string]int, len(d.live))
	for key, count := range d.live {
		live[key] = count
	}
	return live
}

func TestConcurrentMapUnmap(t *testing.T) {
	const (
		workers    = 32
		iterations = 200
		buffers    = 8
	)
	devices := []dmacache.DeviceID{"kgsl-3d0", "venus", "mdss", "cam"}

	dma := newFakeDMA()
	cache, err := dmacache.New(testLogger(), dma, dmacache.CreateOptions{IndexCapacity: buffers})
	require.NoError(t, err)

	errs := make(chan error, workers)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		w := w
		wg.Add(1)
		go func() {
			defer wg.Done()

			for i := 0; i < iterations; i++ {
				buffer := dmacache.BufferID(0x1000 * (1 + (w+i)%buffers))
				deviceIndex := (w*7/3 + i) % len(devices)
				device := devices[deviceIndex]

				// Half the devices map lazily so the cache holds on to their mappings
				attrs := dmacache.AttrSkipCPUSync
				if deviceIndex%2 == 0 {
					attrs |= dmacache.AttrNoDelayedUnmap
				}

				segments := testSegments(uint64(buffer)<<16, 2)
				_, err := cache.Map(context.Background(), buffer, device, segments, dmacache.DirectionBidirectional, attrs)
				if err != nil {
					errs <- err
					return
				}
				if segments[1].DMALength == 0 {
					errs <- fmt.Errorf("segment of buffer %#x was not resolved for %s", buffer, device)
					return
				}

				cache.Unmap(buffer, device, dmacache.DirectionBidirectional, attrs)
			}
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		require.NoError(t, err)
	}

	// Only lazily held mappings survive the workers
	for key, count := range dma.Live() {
		require.Equal(t, 1, count, key)
	}

	for b := 1; b <= buffers; b++ {
		cache.BufferFreed(dmacache.BufferID(0x1000 * b))
	}

	require.Empty(t, dma.Live())
	require.Equal(t, 0, cache.Len())

	var stats dmacache.Statistics
	cache.CalculateStatistics(&stats)
	require.Equal(t, stats.HardwareMaps, stats.HardwareUnmaps)
	require.Equal(t, 0, stats.Orphans)
	require.Equal(t, 0, stats.Conflicts)
}

func TestConcurrentUnmapAllForDevice(t *testing.T) {
	dma := newFakeDMA()
	cache, err := dmacache.New(testLogger(), dma, dmacache.CreateOptions{})
	require.NoError(t, err)

	var wg sync.WaitGroup
	for w := 0; w < 16; w++ {
		w := w
		wg.Add(1)
		go func() {
			defer wg.Done()

			buffer := dmacache.BufferID(0x1000 * (1 + w))
			for i := 0; i < 100; i++ {
				_, err := cache.Map(context.Background(), buffer, "mdss", testSegments(uint64(buffer)<<16, 1), dmacache.DirectionToDevice, dmacache.AttrSkipCPUSync)
				if err != nil {
					return
				}
				cache.Unmap(buffer, "mdss", dmacache.DirectionToDevice, dmacache.AttrSkipCPUSync)
			}
		}()
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 100; i++ {
			_ = cache.UnmapAllForDevice("mdss")
		}
	}()
	wg.Wait()

	for b := 1; b <= 16; b++ {
		cache.BufferFreed(dmacache.BufferID(0x1000 * b))
	}

	require.Empty(t, dma.Live())
	require.Equal(t, 0, cache.Len())
}
