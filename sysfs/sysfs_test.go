package sysfs

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/freqkit/freqkit/boost"
	"github.com/freqkit/freqkit/boostutils"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/slog"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, nil))
}

func writeFile(t *testing.T, path string, contents string) {
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(contents), 0644))
}

func readFile(t *testing.T, path string) string {
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return strings.TrimSpace(string(data))
}

func fakeCPU(t *testing.T, root string, cpu int, related string, minFreq, maxFreq uint32) {
	// procfs reads the offline mask before walking the policies
	writeFile(t, filepath.Join(root, "devices/system/cpu/offline"), "\n")

	dir := filepath.Join(root, "devices/system/cpu", fmt.Sprintf("cpu%d", cpu), "cpufreq")
	writeFile(t, filepath.Join(dir, "cpuinfo_min_freq"), fmt.Sprintf("%d\n", minFreq))
	writeFile(t, filepath.Join(dir, "cpuinfo_max_freq"), fmt.Sprintf("%d\n", maxFreq))
	writeFile(t, filepath.Join(dir, "related_cpus"), related+"\n")
	writeFile(t, filepath.Join(dir, "scaling_min_freq"), fmt.Sprintf("%d\n", minFreq))
}

func TestDiscoverCPUPolicies(t *testing.T) {
	root := t.TempDir()
	for cpu := 0; cpu < 4; cpu++ {
		fakeCPU(t, root, cpu, "0 1 2 3", 300000, 1785600)
	}
	for cpu := 4; cpu < 7; cpu++ {
		fakeCPU(t, root, cpu, "4 5 6", 710400, 2419200)
	}
	fakeCPU(t, root, 7, "7", 825600, 2841600)

	policies, err := DiscoverCPUPolicies(root)
	require.NoError(t, err)
	require.Len(t, policies, 3)

	require.Equal(t, boost.DomainID("cpu0"), policies[0].Domain.ID)
	require.Equal(t, boost.TierLowPower, policies[0].Domain.Tier)
	require.Equal(t, []int{0, 1, 2, 3}, policies[0].RelatedCPUs)
	require.Equal(t, boostutils.Limits{Min: 300000, Max: 1785600}, policies[0].Domain.Limits)

	require.Equal(t, boost.DomainID("cpu4"), policies[1].Domain.ID)
	require.Equal(t, boost.TierPerformance, policies[1].Domain.Tier)
	require.Equal(t, 4, policies[1].CPU)

	require.Equal(t, boost.DomainID("cpu7"), policies[2].Domain.ID)
	require.Equal(t, boost.TierPrime, policies[2].Domain.Tier)
	require.True(t, policies[2].Domain.Wakeable)

	for _, policy := range policies {
		require.NoError(t, policy.Domain.Validate())
	}
}

func TestDiscoverTwoClusters(t *testing.T) {
	root := t.TempDir()
	fakeCPU(t, root, 0, "0-1", 300000, 1785600)
	fakeCPU(t, root, 1, "0-1", 300000, 1785600)
	fakeCPU(t, root, 2, "2-3", 710400, 2419200)
	fakeCPU(t, root, 3, "2-3", 710400, 2419200)

	policies, err := DiscoverCPUPolicies(root)
	require.NoError(t, err)
	require.Len(t, policies, 2)
	require.Equal(t, boost.TierLowPower, policies[0].Domain.Tier)
	require.Equal(t, boost.TierPerformance, policies[1].Domain.Tier)
}

func TestParseCPUList(t *testing.T) {
	cpus, err := parseCPUList("0-2,5, 7")
	require.NoError(t, err)
	require.Equal(t, []int{0, 1, 2, 5, 7}, cpus)

	cpus, err = parseCPUList("")
	require.NoError(t, err)
	require.Empty(t, cpus)

	_, err = parseCPUList("3-1")
	require.Error(t, err)

	_, err = parseCPUList("a")
	require.Error(t, err)
}

func TestCPUFreqSink(t *testing.T) {
	root := t.TempDir()
	fakeCPU(t, root, 4, "4", 710400, 2419200)
	path := filepath.Join(root, "devices/system/cpu/cpu4/cpufreq/scaling_min_freq")

	sink := NewCPUFreqSink(testLogger(), root, 4)
	require.NoError(t, sink.Apply(context.Background(), boostutils.Policy{Floor: 1056000, Level: -1}))
	require.Equal(t, "1056000", readFile(t, path))

	// Unchanged policies are not rewritten
	writeFile(t, path, "710400")
	require.NoError(t, sink.Apply(context.Background(), boostutils.Policy{Floor: 1056000, Level: -1}))
	require.Equal(t, "710400", readFile(t, path))

	require.NoError(t, sink.Apply(context.Background(), boostutils.Policy{Floor: 2419200, MaxBoost: true, Level: -1}))
	require.Equal(t, "2419200", readFile(t, path))
}

func TestCPUFreqSinkMissingPolicy(t *testing.T) {
	sink := NewCPUFreqSink(testLogger(), t.TempDir(), 0)
	require.Error(t, sink.Apply(context.Background(), boostutils.Policy{Floor: 300000, Level: -1}))
}

func TestDevfreqSink(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, "class/devfreq/soc:qcom,cpubw")
	writeFile(t, filepath.Join(dir, "min_freq"), "762\n")
	writeFile(t, filepath.Join(dir, "max_freq"), "7980\n")

	info, err := DiscoverDevfreq(root, "soc:qcom,cpubw")
	require.NoError(t, err)
	require.Equal(t, boost.ClassDevfreq, info.Class)
	require.Equal(t, boostutils.Limits{Min: 762, Max: 7980}, info.Limits)
	require.True(t, info.Wakeable)

	sink := NewDevfreqSink(testLogger(), root, "soc:qcom,cpubw")
	require.NoError(t, sink.Apply(context.Background(), boostutils.Policy{Floor: 5000, Level: -1}))
	require.Equal(t, "5000", readFile(t, filepath.Join(dir, "min_freq")))
}

func TestKGSLSink(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, "class/kgsl/kgsl-3d0")
	writeFile(t, filepath.Join(dir, "min_pwrlevel"), "8\n")
	writeFile(t, filepath.Join(dir, "devfreq/min_freq"), "257000000\n")
	writeFile(t, filepath.Join(dir, "devfreq/max_freq"), "587000000\n")

	info, err := DiscoverKGSL(root, DefaultKGSLDevice)
	require.NoError(t, err)
	require.Equal(t, boost.ClassGPU, info.Class)
	require.Equal(t, boostutils.Limits{Min: 257000, Max: 587000}, info.Limits)
	require.False(t, info.Wakeable)

	sink := NewKGSLSink(testLogger(), root, DefaultKGSLDevice)
	require.NoError(t, sink.Apply(context.Background(), boostutils.Policy{Floor: 427000, Level: 5}))
	require.Equal(t, "5", readFile(t, filepath.Join(dir, "min_pwrlevel")))

	require.NoError(t, sink.Apply(context.Background(), boostutils.Policy{Floor: 300000, Level: -1}))
	require.Equal(t, "5", readFile(t, filepath.Join(dir, "min_pwrlevel")))

	writeFile(t, filepath.Join(dir, "min_pwrlevel"), "8\n")
	require.NoError(t, sink.Apply(context.Background(), boostutils.Policy{Floor: 427000, Level: 5}))
	require.Equal(t, "5", readFile(t, filepath.Join(dir, "min_pwrlevel")))
}

func TestSchedtuneBooster(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "top-app", "schedtune.boost")
	writeFile(t, path, "5\n")

	booster := NewSchedtuneBooster(testLogger(), root)

	input, err := booster.Apply("top-app", 20)
	require.NoError(t, err)
	require.Equal(t, "20", readFile(t, path))

	maxSlot, err := booster.Apply("top-app", 30)
	require.NoError(t, err)
	require.NotEqual(t, input, maxSlot)
	require.Equal(t, "30", readFile(t, path))

	require.NoError(t, booster.Revert("top-app", maxSlot))
	require.Equal(t, "20", readFile(t, path))

	require.Error(t, booster.Revert("top-app", maxSlot))

	require.NoError(t, booster.Revert("top-app", input))
	require.Equal(t, "5", readFile(t, path))

	require.Error(t, booster.Revert("background", input))

	_, err = booster.Apply("background", 10)
	require.Error(t, err)
}
