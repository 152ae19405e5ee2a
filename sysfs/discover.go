package sysfs

import (
	"fmt"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/freqkit/freqkit/boost"
	"github.com/freqkit/freqkit/boostutils"
	procsys "github.com/prometheus/procfs/sysfs"
)

// CPUPolicy is a cpufreq policy found under sysfs, described as a boost domain
type CPUPolicy struct {
	Domain boost.DomainInfo
	// CPU is the first CPU governed by the policy
	CPU int
	// RelatedCPUs lists every CPU governed by the policy
	RelatedCPUs []int
}

// DiscoverCPUPolicies groups the CPUs under root into cpufreq policies and assigns each policy a
// tier by ranking the distinct hardware maximum frequencies: the slowest policy is low-power, the
// fastest is prime when there are at least three, and everything in between is performance.
func DiscoverCPUPolicies(root string) ([]CPUPolicy, error) {
	fs, err := procsys.NewFS(root)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open sysfs at %s", root)
	}

	stats, err := fs.SystemCpufreq()
	if err != nil {
		return nil, errors.Wrap(err, "failed to read cpufreq policies")
	}

	policies := make(map[int]*CPUPolicy)
	for _, cpu := range stats {
		// CPUs without a cpufreq directory are reported as empty entries
		if cpu.Name == "" {
			continue
		}

		number, err := strconv.Atoi(cpu.Name)
		if err != nil {
			return nil, errors.Wrapf(err, "unexpected cpu name %q", cpu.Name)
		}
		if cpu.CpuinfoMinimumFrequency == nil || cpu.CpuinfoMaximumFrequency == nil {
			return nil, errors.Newf("cpu%d does not report its hardware frequency limits", number)
		}

		related, err := parseCPUList(cpu.RelatedCpus)
		if err != nil {
			return nil, errors.Wrapf(err, "cpu%d", number)
		}
		if len(related) == 0 {
			related = []int{number}
		}

		first := related[0]
		if _, ok := policies[first]; ok {
			continue
		}

		policies[first] = &CPUPolicy{
			Domain: boost.DomainInfo{
				ID:    boost.DomainID(fmt.Sprintf("cpu%d", first)),
				Class: boost.ClassCPU,
				Limits: boostutils.Limits{
					Min: uint32(*cpu.CpuinfoMinimumFrequency),
					Max: uint32(*cpu.CpuinfoMaximumFrequency),
				},
				Wakeable: true,
			},
			CPU:         first,
			RelatedCPUs: related,
		}
	}

	if len(policies) == 0 {
		return nil, errors.Newf("no cpufreq policies found under %s", root)
	}

	result := make([]CPUPolicy, 0, len(policies))
	for _, policy := range policies {
		result = append(result, *policy)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CPU < result[j].CPU
	})

	assignTiers(result)
	return result, nil
}

func assignTiers(policies []CPUPolicy) {
	var maxima []uint32
	seen := make(map[uint32]struct{})
	for _, policy := range policies {
		if _, ok := seen[policy.Domain.Limits.Max]; ok {
			continue
		}
		seen[policy.Domain.Limits.Max] = struct{}{}
		maxima = append(maxima, policy.Domain.Limits.Max)
	}
	sort.Slice(maxima, func(i, j int) bool { return maxima[i] < maxima[j] })

	for i := range policies {
		rank := sort.Search(len(maxima), func(r int) bool {
			return maxima[r] >= policies[i].Domain.Limits.Max
		})

		tier := boost.TierPerformance
		switch {
		case rank == 0:
			tier = boost.TierLowPower
		case rank == len(maxima)-1 && len(maxima) >= 3:
			tier = boost.TierPrime
		}
		policies[i].Domain.Tier = tier
	}
}

// parseCPUList parses the kernel's cpu list format, for instance "0-3,6"
func parseCPUList(list string) ([]int, error) {
	list = strings.TrimSpace(list)
	if list == "" {
		return nil, nil
	}

	var cpus []int
	for _, field := range strings.FieldsFunc(list, func(r rune) bool { return r == ',' || r == ' ' }) {
		low, high, isRange := strings.Cut(field, "-")

		first, err := strconv.Atoi(low)
		if err != nil {
			return nil, errors.Wrapf(err, "malformed cpu list %q", list)
		}

		last := first
		if isRange {
			last, err = strconv.Atoi(high)
			if err != nil {
				return nil, errors.Wrapf(err, "malformed cpu list %q", list)
			}
		}
		if last < first {
			return nil, errors.Newf("malformed cpu list %q", list)
		}

		for cpu := first; cpu <= last; cpu++ {
			cpus = append(cpus, cpu)
		}
	}

	sort.Ints(cpus)
	return cpus, nil
}

// DiscoverDevfreq describes the devfreq device named device, reading its current frequency
// bounds as the hardware limits. Devfreq devices take the wake boost on unblank.
func DiscoverDevfreq(root string, device string) (boost.DomainInfo, error) {
	limits, err := readLimits(devfreqPath(root, device), 1)
	if err != nil {
		return boost.DomainInfo{}, errors.Wrapf(err, "devfreq device %s", device)
	}

	return boost.DomainInfo{
		ID:       boost.DomainID(device),
		Class:    boost.ClassDevfreq,
		Limits:   limits,
		Wakeable: true,
	}, nil
}

// DiscoverKGSL describes the KGSL device named device. Its devfreq node reports Hz, which is
// converted to kHz.
func DiscoverKGSL(root string, device string) (boost.DomainInfo, error) {
	limits, err := readLimits(filepath.Join(kgslPath(root, device), "devfreq"), 1000)
	if err != nil {
		return boost.DomainInfo{}, errors.Wrapf(err, "kgsl device %s", device)
	}

	return boost.DomainInfo{
		ID:     "gpu",
		Class:  boost.ClassGPU,
		Limits: limits,
	}, nil
}

func readLimits(dir string, divisor uint32) (boostutils.Limits, error) {
	minFreq, err := readUint32(filepath.Join(dir, "min_freq"))
	if err != nil {
		return boostutils.Limits{}, err
	}
	maxFreq, err := readUint32(filepath.Join(dir, "max_freq"))
	if err != nil {
		return boostutils.Limits{}, err
	}

	limits := boostutils.Limits{Min: minFreq / divisor, Max: maxFreq / divisor}
	return limits, limits.Validate()
}
