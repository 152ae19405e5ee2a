// Package config reads the boost daemon's YAML configuration file
package config

import (
	"bytes"
	"io"
	"os"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/freqkit/freqkit/boost"
	"gopkg.in/yaml.v3"
)

// Frequencies are the boost targets of one CPU tier, in kHz. Zero keeps the default.
type Frequencies struct {
	Input uint32 `yaml:"input"`
	Flex  uint32 `yaml:"flex"`
	Max   uint32 `yaml:"max"`
	Idle  uint32 `yaml:"idle"`
}

type GPULevel struct {
	Frequency uint32 `yaml:"frequency"`
	Level     int    `yaml:"level"`
}

type GPU struct {
	BoostFrequency uint32     `yaml:"boost_frequency"`
	MinFrequency   uint32     `yaml:"min_frequency"`
	Extension      *Duration  `yaml:"extension"`
	Levels         []GPULevel `yaml:"levels"`
}

type Stune struct {
	Base           *int      `yaml:"base"`
	InputOffset    *int      `yaml:"input_offset"`
	MaxOffset      *int      `yaml:"max_offset"`
	FlexOffset     *int      `yaml:"flex_offset"`
	InputExtension *Duration `yaml:"input_extension"`
	MaxExtension   *Duration `yaml:"max_extension"`
}

type Durations struct {
	Input *Duration `yaml:"input"`
	Flex  *Duration `yaml:"flex"`
	Wake  *Duration `yaml:"wake"`
}

// File is the on-disk layout. Every field is optional; anything left out keeps the value of
// boost.DefaultConfig.
type File struct {
	Durations              Durations              `yaml:"durations"`
	ThreadPriority         *int                   `yaml:"thread_priority"`
	RestrictSecondaryBoost *bool                  `yaml:"restrict_secondary_boost"`
	BoostPrimeCluster      *bool                  `yaml:"boost_prime_cluster"`
	CPU                    map[string]Frequencies `yaml:"cpu"`
	GPU                    GPU                    `yaml:"gpu"`
	Devfreq                map[string]uint32      `yaml:"devfreq"`
	Stune                  Stune                  `yaml:"stune"`
}

// Duration is a time.Duration written as a Go duration string, for instance "100ms"
type Duration time.Duration

func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var text string
	if err := node.Decode(&text); err != nil {
		return errors.Wrapf(err, "line %d: expected a duration", node.Line)
	}

	parsed, err := time.ParseDuration(text)
	if err != nil {
		return errors.Wrapf(err, "line %d", node.Line)
	}
	*d = Duration(parsed)
	return nil
}

func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

var tierKeys = map[string]boost.Tier{
	"low_power":   boost.TierLowPower,
	"performance": boost.TierPerformance,
	"prime":       boost.TierPrime,
}

// Parse decodes a configuration file and applies it on top of the defaults
func Parse(data []byte) (boost.Config, error) {
	var file File

	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&file); err != nil && !errors.Is(err, io.EOF) {
		return boost.Config{}, errors.Wrap(err, "failed to parse boost configuration")
	}

	cfg := boost.DefaultConfig()
	if err := file.apply(&cfg); err != nil {
		return boost.Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return boost.Config{}, err
	}
	return cfg, nil
}

// Load reads and parses the configuration file at path
func Load(path string) (boost.Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return boost.Config{}, errors.Wrapf(err, "failed to read boost configuration %s", path)
	}

	cfg, err := Parse(data)
	if err != nil {
		return boost.Config{}, errors.Wrapf(err, "%s", path)
	}
	return cfg, nil
}

func setDuration(dst *time.Duration, src *Duration) {
	if src != nil {
		*dst = time.Duration(*src)
	}
}

func setInt(dst *int, src *int) {
	if src != nil {
		*dst = *src
	}
}

func setUint32(dst *uint32, src uint32) {
	if src != 0 {
		*dst = src
	}
}

func (f *File) apply(cfg *boost.Config) error {
	setDuration(&cfg.InputBoostDuration, f.Durations.Input)
	setDuration(&cfg.FlexBoostDuration, f.Durations.Flex)
	setDuration(&cfg.WakeBoostDuration, f.Durations.Wake)
	setInt(&cfg.ThreadPriority, f.ThreadPriority)

	if f.RestrictSecondaryBoost != nil {
		cfg.RestrictSecondaryBoost = *f.RestrictSecondaryBoost
	}
	if f.BoostPrimeCluster != nil {
		cfg.BoostPrimeCluster = *f.BoostPrimeCluster
	}

	for key, freqs := range f.CPU {
		tier, ok := tierKeys[key]
		if !ok {
			return errors.Newf("unknown cpu tier %q, expected low_power, performance or prime", key)
		}

		target := &cfg.CPU[tier]
		setUint32(&target.Input, freqs.Input)
		setUint32(&target.Flex, freqs.Flex)
		setUint32(&target.Max, freqs.Max)
		setUint32(&target.Idle, freqs.Idle)
	}

	setUint32(&cfg.GPU.BoostFrequency, f.GPU.BoostFrequency)
	setUint32(&cfg.GPU.MinFrequency, f.GPU.MinFrequency)
	setDuration(&cfg.GPUBoostExtension, f.GPU.Extension)
	if f.GPU.Levels != nil {
		cfg.GPU.Levels = make([]boost.GPULevel, 0, len(f.GPU.Levels))
		for _, entry := range f.GPU.Levels {
			cfg.GPU.Levels = append(cfg.GPU.Levels, boost.GPULevel{Frequency: entry.Frequency, Level: entry.Level})
		}
	}

	for device, frequency := range f.Devfreq {
		cfg.Devfreq[boost.DomainID(device)] = boost.DevfreqConfig{BoostFrequency: frequency}
	}

	setInt(&cfg.Stune.Base, f.Stune.Base)
	setInt(&cfg.Stune.InputOffset, f.Stune.InputOffset)
	setInt(&cfg.Stune.MaxOffset, f.Stune.MaxOffset)
	setInt(&cfg.Stune.FlexOffset, f.Stune.FlexOffset)
	setDuration(&cfg.Stune.InputExtension, f.Stune.InputExtension)
	setDuration(&cfg.Stune.MaxExtension, f.Stune.MaxExtension)

	return nil
}
