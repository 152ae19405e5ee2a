package boostutils

import (
	"math/bits"
	"strings"
	"sync"
)

// Flags is the set of integer types that can be rendered by a FlagStringMapping
type Flags interface {
	~uint8 | ~uint16 | ~uint32 | ~int32
}

// FlagStringMapping renders bit flags as a pipe-separated list of registered names
type FlagStringMapping[T Flags] struct {
	mutex sync.RWMutex
	names map[T]string
}

func NewFlagStringMapping[T Flags]() *FlagStringMapping[T] {
	return &FlagStringMapping[T]{names: make(map[T]string)}
}

func (m *FlagStringMapping[T]) Register(flag T, name string) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	m.names[flag] = name
}

func (m *FlagStringMapping[T]) FlagsToString(value T) string {
	if value == 0 {
		return "None"
	}

	m.mutex.RLock()
	defer m.mutex.RUnlock()

	var sb strings.Builder
	remaining := uint32(value)
	for remaining != 0 {
		bit := T(1 << bits.TrailingZeros32(remaining))
		remaining &^= uint32(bit)

		if sb.Len() > 0 {
			sb.WriteRune('|')
		}

		name, ok := m.names[bit]
		if !ok {
			name = "Unknown"
		}
		sb.WriteString(name)
	}

	return sb.String()
}
