// Package workload replays synthetic allocation workloads against arenas so
// that page sizes can be compared on realistic request mixes.
package workload

import (
	"os"

	"github.com/cockroachdb/errors"
	"gopkg.in/yaml.v2"
)

// SizeClass is a range of request sizes drawn uniformly, picked with the
// given relative weight.
type SizeClass struct {
	Min    int `yaml:"min"`
	Max    int `yaml:"max"`
	Weight int `yaml:"weight"`
}

// Profile describes a workload: Units arenas are created one after another,
// each receives Requests allocations and is then destroyed.
type Profile struct {
	Name     string      `yaml:"name"`
	Seed     uint64      `yaml:"seed"`
	Units    int         `yaml:"units"`
	Requests int         `yaml:"requests"`
	Sizes    []SizeClass `yaml:"sizes"`
}

// Default is a parse-tree-like mix: mostly small nodes, some identifier and
// literal buffers, and the odd large table.
func Default() *Profile {
	return &Profile{
		Name:     "parse-tree",
		Seed:     1,
		Units:    200,
		Requests: 400,
		Sizes: []SizeClass{
			{Min: 16, Max: 48, Weight: 80},
			{Min: 1, Max: 256, Weight: 15},
			{Min: 1024, Max: 6000, Weight: 5},
		},
	}
}

// Load reads a YAML profile from path.
func Load(path string) (*Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read profile")
	}
	p, err := Parse(data)
	if err != nil {
		return nil, errors.Wrapf(err, "profile %s", path)
	}
	return p, nil
}

// Parse decodes and validates a YAML profile. Unknown fields are rejected.
func Parse(data []byte) (*Profile, error) {
	var p Profile
	if err := yaml.UnmarshalStrict(data, &p); err != nil {
		return nil, errors.Wrap(err, "decode profile")
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &p, nil
}

// Validate checks that the profile can be replayed.
func (p *Profile) Validate() error {
	if p.Units <= 0 || p.Requests <= 0 {
		return errors.Newf("units (%d) and requests (%d) must be positive", p.Units, p.Requests)
	}
	if len(p.Sizes) == 0 {
		return errors.New("no size classes")
	}
	for i, c := range p.Sizes {
		if c.Min < 0 || c.Max < c.Min {
			return errors.Newf("size class %d: invalid range [%d, %d]", i, c.Min, c.Max)
		}
		if c.Weight <= 0 {
			return errors.Newf("size class %d: weight must be positive", i)
		}
	}
	return nil
}
