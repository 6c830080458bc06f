package probe

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"time"

	"gopkg.in/yaml.v3"
)

// Profile is a saved pitfall server target.
type Profile struct {
	Name     string        `yaml:"name"`
	Endpoint string        `yaml:"endpoint"`
	Timeout  time.Duration `yaml:"timeout,omitempty"`
}

// Config returns the client settings the profile pins down.
func (p Profile) Config() Config {
	return Config{Endpoint: p.Endpoint, Timeout: p.Timeout}
}

// Profiles is the probe profile file. Default names the target used when
// none is selected; when it is empty or stale the first target is used.
type Profiles struct {
	Default string    `yaml:"default,omitempty"`
	Targets []Profile `yaml:"targets"`
}

func (ps *Profiles) index(name string) int {
	return slices.IndexFunc(ps.Targets, func(p Profile) bool { return p.Name == name })
}

// Lookup returns the named target, or the selected one when name is empty.
func (ps *Profiles) Lookup(name string) (Profile, error) {
	if len(ps.Targets) == 0 {
		return Profile{}, ErrNoProfiles
	}
	if name == "" {
		return ps.Selected(), nil
	}
	if i := ps.index(name); i >= 0 {
		return ps.Targets[i], nil
	}
	return Profile{}, fmt.Errorf("%w: %s", ErrProfileNotFound, name)
}

// Selected returns the default target. It must not be called on an empty set.
func (ps *Profiles) Selected() Profile {
	if i := ps.index(ps.Default); i >= 0 {
		return ps.Targets[i]
	}
	return ps.Targets[0]
}

// IsDefault reports whether name is the target Lookup("") resolves to.
func (ps *Profiles) IsDefault(name string) bool {
	return len(ps.Targets) > 0 && ps.Selected().Name == name
}

// Put stores p, replacing a target of the same name in place. It reports
// whether p was new.
func (ps *Profiles) Put(p Profile) bool {
	if i := ps.index(p.Name); i >= 0 {
		ps.Targets[i] = p
		return false
	}
	ps.Targets = append(ps.Targets, p)
	return true
}

// Delete removes the named target. Removing the default clears Default.
func (ps *Profiles) Delete(name string) error {
	i := ps.index(name)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrProfileNotFound, name)
	}
	ps.Targets = slices.Delete(ps.Targets, i, i+1)
	if ps.Default == name {
		ps.Default = ""
	}
	return nil
}

// Use makes name the default target.
func (ps *Profiles) Use(name string) error {
	if ps.index(name) < 0 {
		return fmt.Errorf("%w: %s", ErrProfileNotFound, name)
	}
	ps.Default = name
	return nil
}

// Names lists target names in file order.
func (ps *Profiles) Names() []string {
	names := make([]string, 0, len(ps.Targets))
	for _, p := range ps.Targets {
		names = append(names, p.Name)
	}
	return names
}

// WriteFile replaces path with the encoded profiles. The file is written
// next to path first and renamed into place, so readers never see a
// partial file.
func (ps *Profiles) WriteFile(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("create profile directory: %w", err)
	}

	data, err := yaml.Marshal(ps)
	if err != nil {
		return fmt.Errorf("encode profiles: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".probe-*.yaml")
	if err != nil {
		return fmt.Errorf("write profiles: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err = tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write profiles: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("write profiles: %w", err)
	}
	if err = os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("write profiles: %w", err)
	}
	return nil
}

// ReadProfiles decodes the profile file at path.
func ReadProfiles(path string) (*Profiles, error) {
	data, err := os.ReadFile(filepath.Clean(path)) //#nosec G304 -- user-selected profile file
	if err != nil {
		return nil, fmt.Errorf("read profiles: %w", err)
	}

	var ps Profiles
	if err := yaml.Unmarshal(data, &ps); err != nil {
		return nil, fmt.Errorf("decode profiles %s: %w", path, err)
	}
	return &ps, nil
}

// ProfilesPath is ~/.pitfall/probe.yaml, or "" without a home directory.
func ProfilesPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".pitfall", "probe.yaml")
}
