package dmacache

import "github.com/freqkit/freqkit/boostutils"

// Direction is the data direction of a DMA mapping
type Direction uint8

const (
	DirectionBidirectional Direction = iota
	DirectionToDevice
	DirectionFromDevice
	DirectionNone
)

var directionNames = map[Direction]string{
	DirectionBidirectional: "Bidirectional",
	DirectionToDevice:      "ToDevice",
	DirectionFromDevice:    "FromDevice",
	DirectionNone:          "None",
}

func (d Direction) String() string {
	name, ok := directionNames[d]
	if !ok {
		return "Unknown"
	}
	return name
}

// Attrs are the DMA attribute flags of a map or unmap request
type Attrs uint32

var attrsMapping = boostutils.NewFlagStringMapping[Attrs]()

func (a Attrs) Register(str string) {
	attrsMapping.Register(a, str)
}
func (a Attrs) String() string {
	return attrsMapping.FlagsToString(a)
}

const (
	// AttrSkipCPUSync skips the cache synchronization normally performed when a cached mapping is
	// handed out or given back. It does not take part in the geometry check that decides whether a
	// cached mapping can be reused.
	AttrSkipCPUSync Attrs = 1 << iota
	// AttrNoDelayedUnmap opts out of lazy unmapping: the hardware mapping is torn down as soon as the
	// last caller unmaps it instead of being held by the cache until the buffer is freed
	AttrNoDelayedUnmap
	// AttrWriteCombine requests a write-combined mapping
	AttrWriteCombine
	// AttrPrivileged requests a mapping only accessible to privileged device contexts
	AttrPrivileged
)

// geometryAttrs masks out the attributes that do not affect reuse
func (a Attrs) geometryAttrs() Attrs {
	return a &^ AttrSkipCPUSync
}

// CreateFlags indicate specific cache behaviors to activate or deactivate
type CreateFlags uint32

var cacheCreateFlagsMapping = boostutils.NewFlagStringMapping[CreateFlags]()

func (f CreateFlags) Register(str string) {
	cacheCreateFlagsMapping.Register(f, str)
}
func (f CreateFlags) String() string {
	return cacheCreateFlagsMapping.FlagsToString(f)
}

const (
	// CacheCreateExternallySynchronized ensures that this cache will not be synchronized internally.
	// The consumer must guarantee it is used from only one goroutine at a time or is synchronized
	// by some other mechanism, but performance may improve because internal mutexes are not used.
	CacheCreateExternallySynchronized CreateFlags = 1 << iota
)

func init() {
	AttrSkipCPUSync.Register("AttrSkipCPUSync")
	AttrNoDelayedUnmap.Register("AttrNoDelayedUnmap")
	AttrWriteCombine.Register("AttrWriteCombine")
	AttrPrivileged.Register("AttrPrivileged")

	CacheCreateExternallySynchronized.Register("CacheCreateExternallySynchronized")
}
