package sysfs

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/freqkit/freqkit/boost"
	"github.com/freqkit/freqkit/boostutils"
	"golang.org/x/exp/slog"
)

// DefaultRoot is where sysfs is normally mounted
const DefaultRoot = "/sys"

// CPUFreqSink applies a policy to a cpufreq policy by raising its scaling_min_freq
type CPUFreqSink struct {
	logger  *slog.Logger
	minFreq *attribute
}

var _ boost.PolicySink = &CPUFreqSink{}

// NewCPUFreqSink returns a sink for the cpufreq policy that owns cpu
func NewCPUFreqSink(logger *slog.Logger, root string, cpu int) *CPUFreqSink {
	path := filepath.Join(root, "devices/system/cpu", fmt.Sprintf("cpu%d", cpu), "cpufreq/scaling_min_freq")
	return &CPUFreqSink{
		logger:  logger,
		minFreq: newAttribute(path),
	}
}

func (s *CPUFreqSink) Apply(ctx context.Context, policy boostutils.Policy) error {
	s.logger.Debug("CPUFreqSink::Apply", slog.String("Path", s.minFreq.path), slog.Uint64("Floor", uint64(policy.Floor)))
	return s.minFreq.write(int64(policy.Floor))
}

// DevfreqSink applies a policy to a devfreq device by raising its min_freq. A max boost raises
// the floor to the boost ceiling, which the policy already carries.
type DevfreqSink struct {
	logger  *slog.Logger
	minFreq *attribute
}

var _ boost.PolicySink = &DevfreqSink{}

// NewDevfreqSink returns a sink for the devfreq device named device
func NewDevfreqSink(logger *slog.Logger, root string, device string) *DevfreqSink {
	return &DevfreqSink{
		logger:  logger,
		minFreq: newAttribute(filepath.Join(devfreqPath(root, device), "min_freq")),
	}
}

func (s *DevfreqSink) Apply(ctx context.Context, policy boostutils.Policy) error {
	s.logger.Debug("DevfreqSink::Apply", slog.String("Path", s.minFreq.path), slog.Uint64("Floor", uint64(policy.Floor)))
	return s.minFreq.write(int64(policy.Floor))
}

func devfreqPath(root string, device string) string {
	return filepath.Join(root, "class/devfreq", device)
}

// KGSLSink applies a policy to an Adreno GPU by overriding its minimum power level. Lower levels
// are faster. Policies without a level leave the GPU alone.
type KGSLSink struct {
	logger      *slog.Logger
	minPwrLevel *attribute
}

var _ boost.PolicySink = &KGSLSink{}

// DefaultKGSLDevice is the KGSL device of the first GPU
const DefaultKGSLDevice = "kgsl-3d0"

// NewKGSLSink returns a sink for the KGSL device named device
func NewKGSLSink(logger *slog.Logger, root string, device string) *KGSLSink {
	return &KGSLSink{
		logger:      logger,
		minPwrLevel: newAttribute(filepath.Join(kgslPath(root, device), "min_pwrlevel")),
	}
}

func (s *KGSLSink) Apply(ctx context.Context, policy boostutils.Policy) error {
	s.logger.Debug("KGSLSink::Apply", slog.String("Path", s.minPwrLevel.path), slog.Int("Level", policy.Level))

	if policy.Level < 0 {
		// The GPU may have been reconfigured behind our back while no level was requested
		s.minPwrLevel.forget()
		return nil
	}
	return s.minPwrLevel.write(int64(policy.Level))
}

func kgslPath(root string, device string) string {
	return filepath.Join(root, "class/kgsl", device)
}
