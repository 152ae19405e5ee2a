package dmacache

import "github.com/cockroachdb/errors"

// ErrResourceExhausted identifies a hardware map failure that may succeed when retried. DMA
// implementations wrap it, or mark their own error with it.
var ErrResourceExhausted error = errors.New("dma resources exhausted")

// ErrConflictingMapping is returned by Map when the device already maps the buffer with a
// different geometry
var ErrConflictingMapping error = errors.New("conflicting dma mapping")

// ErrPartialTeardown is returned by UnmapAllForDevice when some mappings still had outstanding
// references and could not be torn down
var ErrPartialTeardown error = errors.New("dma mappings still in use")

// ErrBufferFreed is returned by Map when the buffer was freed while the mapping was being created
var ErrBufferFreed error = errors.New("buffer was freed")
