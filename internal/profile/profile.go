package profile

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/AnyUserName/tgimg-decode/internal/imagesize"
)

// Target is one display box a profile decodes for.
type Target struct {
	Width  int `yaml:"width"`
	Height int `yaml:"height"`
}

// Size returns the target as an imagesize.Size.
func (t Target) Size() imagesize.Size {
	return imagesize.New(t.Width, t.Height)
}

// Profile defines decode parameters for a target platform. YAML files use
// Entry.
type Profile struct {
	Name      string
	Targets   []Target                  // display boxes to decode for
	Fit       imagesize.Fit             // fit or crop
	Scale     imagesize.ScalePolicy     // none, approximate, exact, exact-stretched
	Subsample imagesize.SubsamplePolicy // free or power-of-two
	Formats   []string                  // output formats in priority order
	Quality   int                       // encoding quality 1-100
	MaxSide   int                       // cap on the decoded raster, 0 = none
}

// Built-in profiles.
var profiles = map[string]Profile{
	"telegram-webview": {
		Name:      "telegram-webview",
		Targets:   []Target{{320, 320}, {640, 640}, {1280, 1280}},
		Fit:       imagesize.FitInside,
		Scale:     imagesize.ScaleExact,
		Subsample: imagesize.SubsamplePowerOfTwo,
		Formats:   []string{"webp", "jpeg"},
		Quality:   82,
	},
	"thumbnails": {
		Name:      "thumbnails",
		Targets:   []Target{{96, 96}, {192, 192}},
		Fit:       imagesize.Crop,
		Scale:     imagesize.ScaleExact,
		Subsample: imagesize.SubsamplePowerOfTwo,
		Formats:   []string{"jpeg"},
		Quality:   78,
	},
	"minimal": {
		Name:      "minimal",
		Targets:   []Target{{640, 640}},
		Fit:       imagesize.FitInside,
		Scale:     imagesize.ScaleApproximate,
		Subsample: imagesize.SubsampleFree,
		Formats:   []string{"jpeg"},
		Quality:   78,
	},
}

// ErrUnknownProfile is returned by Find for unregistered names.
var ErrUnknownProfile = errors.New("unknown profile")

// Find returns a copy of the named profile.
func Find(name string) (Profile, error) {
	p, ok := profiles[name]
	if !ok {
		return Profile{}, fmt.Errorf("%w %q (available: %s)", ErrUnknownProfile, name, strings.Join(Names(), ", "))
	}
	return p.clone(), nil
}

// Names lists the registered profile names, sorted.
func Names() []string {
	names := make([]string, 0, len(profiles))
	for n := range profiles {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// File is the on-disk shape of a profiles YAML file.
type File struct {
	Profiles map[string]Entry `yaml:"profiles"`
}

// Entry is one profile as written in YAML. Omitted keys take
// telegram-webview values, which is why the policies are pointers: their
// zero values are valid settings.
type Entry struct {
	Targets   []Target                   `yaml:"targets"`
	Fit       *imagesize.Fit             `yaml:"fit"`
	Scale     *imagesize.ScalePolicy     `yaml:"scale"`
	Subsample *imagesize.SubsamplePolicy `yaml:"subsample"`
	Formats   []string                   `yaml:"formats"`
	Quality   int                        `yaml:"quality"`
	MaxSide   int                        `yaml:"max_side"`
}

// Profile resolves e as the profile called name.
func (e Entry) Profile(name string) Profile {
	def := profiles["telegram-webview"]
	p := Profile{
		Name:      name,
		Targets:   e.Targets,
		Fit:       def.Fit,
		Scale:     def.Scale,
		Subsample: def.Subsample,
		Formats:   e.Formats,
		Quality:   e.Quality,
		MaxSide:   e.MaxSide,
	}
	if e.Fit != nil {
		p.Fit = *e.Fit
	}
	if e.Scale != nil {
		p.Scale = *e.Scale
	}
	if e.Subsample != nil {
		p.Subsample = *e.Subsample
	}
	return p.WithDefaults()
}

// Load reads profiles from a YAML file and registers them, overriding
// built-ins with the same name. It returns the loaded names, sorted.
func Load(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read profiles: %w", err)
	}
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse profiles: %w", err)
	}

	loaded := make([]string, 0, len(f.Profiles))
	for name, e := range f.Profiles {
		p := e.Profile(name)
		if err := p.Validate(); err != nil {
			return nil, fmt.Errorf("profile %q: %w", name, err)
		}
		profiles[name] = p
		loaded = append(loaded, name)
	}
	sort.Strings(loaded)
	return loaded, nil
}

// WithDefaults fills empty targets, formats and quality from
// telegram-webview.
func (p Profile) WithDefaults() Profile {
	def := profiles["telegram-webview"]
	if len(p.Targets) == 0 {
		p.Targets = def.Targets
	}
	if len(p.Formats) == 0 {
		p.Formats = def.Formats
	}
	if p.Quality == 0 {
		p.Quality = def.Quality
	}
	return p.clone()
}

// Validate rejects targets and qualities outside their ranges.
func (p Profile) Validate() error {
	for i, t := range p.Targets {
		if t.Width <= 0 || t.Height <= 0 {
			return fmt.Errorf("target[%d]: invalid size %dx%d", i, t.Width, t.Height)
		}
	}
	if p.Quality < 0 || p.Quality > 100 {
		return fmt.Errorf("quality %d out of range 1-100", p.Quality)
	}
	if p.MaxSide < 0 {
		return fmt.Errorf("max_side %d is negative", p.MaxSide)
	}
	return nil
}

// EffectiveTargets drops duplicate targets and those that would upscale a
// native image on both axes, keeping the native size when nothing is left.
func (p Profile) EffectiveTargets(native imagesize.Size) []imagesize.Size {
	seen := map[imagesize.Size]bool{}
	var result []imagesize.Size

	for _, t := range p.Targets {
		s := t.Size()
		if s.Width > native.Width && s.Height > native.Height {
			continue // don't upscale
		}
		if !seen[s] {
			seen[s] = true
			result = append(result, s)
		}
	}

	if len(result) == 0 && !native.IsZero() {
		result = append(result, native)
	}
	return result
}

func (p Profile) clone() Profile {
	p.Targets = append([]Target(nil), p.Targets...)
	p.Formats = append([]string(nil), p.Formats...)
	return p
}
