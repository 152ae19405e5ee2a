package dmacache

import (
	"time"

	"github.com/cockroachdb/errors"
	"github.com/dolthub/swiss"
	"github.com/freqkit/freqkit/dmacache/internal/utils"
	"golang.org/x/exp/slog"
	"gopkg.in/retry.v1"
)

const (
	defaultIndexCapacity   = 64
	defaultRetryInitial    = time.Millisecond
	defaultRetryMaxDelay   = 50 * time.Millisecond
	defaultRetryBackoffMul = 2
)

// CreateOptions contains optional settings when creating a cache
type CreateOptions struct {
	// Flags indicates specific cache behaviors to activate or deactivate
	Flags CreateFlags

	// IndexCapacity is the number of buffers the identity index is sized for up front
	IndexCapacity int

	// MapRetryLimit caps the number of attempts made when the hardware map fails with
	// ErrResourceExhausted. Zero retries until the map succeeds or the context is cancelled.
	MapRetryLimit int
	// MapRetryInitialDelay is the delay before the first retry. Later retries double it up to
	// MapRetryMaxDelay.
	MapRetryInitialDelay time.Duration
	MapRetryMaxDelay     time.Duration
}

// New creates a mapping cache on top of dma
func New(logger *slog.Logger, dma DMA, options CreateOptions) (*Cache, error) {
	if logger == nil {
		return nil, errors.New("logger must not be nil")
	}
	if dma == nil {
		return nil, errors.New("dma must not be nil")
	}
	if options.MapRetryLimit < 0 {
		return nil, errors.Newf("MapRetryLimit must not be negative, got %d", options.MapRetryLimit)
	}

	capacity := options.IndexCapacity
	if capacity <= 0 {
		capacity = defaultIndexCapacity
	}

	initial := options.MapRetryInitialDelay
	if initial <= 0 {
		initial = defaultRetryInitial
	}
	maxDelay := options.MapRetryMaxDelay
	if maxDelay <= 0 {
		maxDelay = defaultRetryMaxDelay
	}

	var strategy retry.Strategy = retry.Exponential{
		Initial:  initial,
		Factor:   defaultRetryBackoffMul,
		MaxDelay: maxDelay,
	}
	if options.MapRetryLimit > 0 {
		strategy = retry.LimitCount(options.MapRetryLimit, strategy)
	}

	useMutex := options.Flags&CacheCreateExternallySynchronized == 0

	cache := &Cache{
		logger:        logger,
		dma:           dma,
		useMutex:      useMutex,
		retryStrategy: strategy,
		mutex: utils.OptionalRWMutex{
			UseMutex: useMutex,
		},
		index: swiss.NewMap[BufferID, *meta](uint32(capacity)),
	}

	logger.Debug("Cache::New", slog.String("Flags", options.Flags.String()))
	return cache, nil
}

// Destroy tears down every remaining mapping as if each buffer had been freed
func (c *Cache) Destroy() {
	c.logger.Debug("Cache::Destroy")

	var buffers []BufferID
	c.mutex.WithRLock(func() {
		c.index.Iter(func(buffer BufferID, _ *meta) bool {
			buffers = append(buffers, buffer)
			return false
		})
	})

	for _, buffer := range buffers {
		c.BufferFreed(buffer)
	}
}
