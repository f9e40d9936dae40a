package layout

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"

	"golang.org/x/sys/cpu"
	"gopkg.in/yaml.v3"
)

// ByteOrder names the integer byte order of a source platform.
type ByteOrder string

const (
	LittleEndian ByteOrder = "little"
	BigEndian    ByteOrder = "big"
)

// HostByteOrder reports the byte order of the machine running the decoder.
func HostByteOrder() ByteOrder {
	if cpu.IsBigEndian {
		return BigEndian
	}
	return LittleEndian
}

// ErrUnknownProfile is returned by Lookup for names that match no profile.
var ErrUnknownProfile = errors.New("unknown layout profile")

// Profile is a named platform layout. ByteOrder, when set, takes precedence
// over Config.ReverseBytes and is resolved against the host order.
type Profile struct {
	Name        string    `yaml:"name" json:"name"`
	Description string    `yaml:"description,omitempty" json:"description,omitempty"`
	ByteOrder   ByteOrder `yaml:"byte_order,omitempty" json:"byte_order,omitempty"`
	Config      `yaml:",inline"`
}

// Layout resolves the profile into a validated Config for this host.
func (p Profile) Layout() (Config, error) {
	cfg := p.Config
	switch p.ByteOrder {
	case "":
	case LittleEndian, BigEndian:
		cfg.ReverseBytes = p.ByteOrder != HostByteOrder()
	default:
		return Config{}, fmt.Errorf("%w: profile %q: byte_order %q, want little or big", ErrInvalidConfig, p.Name, p.ByteOrder)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("profile %q: %w", p.Name, err)
	}
	return cfg, nil
}

var builtin = []Profile{
	{
		Name:        "i386",
		Description: "32-bit x86 gcc/msvc, 32-bit bitfield units packed from the LSB",
		ByteOrder:   LittleEndian,
		Config: Config{
			IntWidth: 4, PointerWidth: 4, FieldUnitWidth: 4, MemberAlign: 4,
		},
	},
	{
		Name:        "msdos",
		Description: "16-bit DOS large model, far pointers, word alignment",
		ByteOrder:   LittleEndian,
		Config: Config{
			IntWidth: 2, PointerWidth: 4, FieldUnitWidth: 2, MemberAlign: 2,
		},
	},
	{
		Name:        "m68k",
		Description: "68000 family, word aligned, 16-bit units packed from the MSB",
		ByteOrder:   BigEndian,
		Config: Config{
			IntWidth: 4, PointerWidth: 4, FieldUnitWidth: 2, MemberAlign: 2,
			FieldAlign: 2, FieldMSBFirst: true, FieldSpan: true,
		},
	},
	{
		Name:        "sparc",
		Description: "32-bit SPARC, natural alignment, bitfields from the MSB",
		ByteOrder:   BigEndian,
		Config: Config{
			IntWidth: 4, PointerWidth: 4, FieldUnitWidth: 4, MemberAlign: 4,
			FieldMSBFirst: true,
		},
	},
	{
		Name:        "ppc",
		Description: "32-bit PowerPC, natural alignment, bitfields from the MSB",
		ByteOrder:   BigEndian,
		Config: Config{
			IntWidth: 4, PointerWidth: 4, FieldUnitWidth: 4, MemberAlign: 4,
			FieldMSBFirst: true,
		},
	},
}

// Builtin returns a copy of the compiled-in profiles.
func Builtin() []Profile {
	return slices.Clone(builtin)
}

type profileFile struct {
	Profiles []Profile `yaml:"profiles"`
}

// LoadProfiles reads additional profiles from a YAML file of the form
//
//	profiles:
//	  - name: amiga
//	    byte_order: big
//	    int_width: 4
//	    ...
func LoadProfiles(path string) ([]Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var pf profileFile
	if err := yaml.Unmarshal(data, &pf); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	for i, p := range pf.Profiles {
		if strings.TrimSpace(p.Name) == "" {
			return nil, fmt.Errorf("%s: profile %d has no name", path, i)
		}
		if _, err := p.Layout(); err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
	}
	return pf.Profiles, nil
}

// Lookup finds a profile by name, preferring entries in extra over the
// built-in set so a profiles file can redefine them.
func Lookup(name string, extra []Profile) (Profile, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for _, set := range [][]Profile{extra, builtin} {
		for _, p := range set {
			if strings.ToLower(p.Name) == name {
				return p, nil
			}
		}
	}
	return Profile{}, fmt.Errorf("%w: %q", ErrUnknownProfile, name)
}

// Merge returns the built-in profiles with extra appended, replacing any
// built-in of the same name.
func Merge(extra []Profile) []Profile {
	out := make([]Profile, 0, len(builtin)+len(extra))
	for _, p := range builtin {
		if !slices.ContainsFunc(extra, func(e Profile) bool { return strings.EqualFold(e.Name, p.Name) }) {
			out = append(out, p)
		}
	}
	return append(out, extra...)
}
