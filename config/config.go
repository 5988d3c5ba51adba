// Package config resolves the project layout arbkeys works on: the source
// root holding the accessor usages and the locales directory holding the
// resource files.
//
// Settings come from three places, later ones winning:
//
//  1. built-in Flutter defaults (lib/, lib/l10n, *.dart, *.arb),
//  2. Flutter's own l10n.yaml (arb-dir) and pubspec.yaml (name),
//  3. an optional .arbkeys.yaml in the project root.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"

	"github.com/minios-linux/arbkeys/plan"
	"github.com/minios-linux/arbkeys/scan"
)

// ErrLocalesDirMissing is returned by Resolve when the locales directory
// does not exist.
var ErrLocalesDirMissing = errors.New("locales directory not found")

// Built-in defaults.
const (
	DefaultSourceDir   = "lib"
	DefaultLocalesDir  = "lib/l10n"
	DefaultSourceExt   = ".dart"
	DefaultResourceExt = ".arb"
)

// Project is a fully resolved layout with absolute paths.
type Project struct {
	// Name from pubspec.yaml, empty when unknown.
	Name string
	// Root is the absolute project root.
	Root string
	// SourceDir is the absolute source root.
	SourceDir string
	// LocalesDir is the absolute directory of the resource files.
	LocalesDir string
	// SourceExt is the extension of scanned source files.
	SourceExt string
	// ResourceExt is the extension of resource files.
	ResourceExt string
	// Factories and Identifiers define the accessor idiom.
	Factories   []string
	Identifiers []string
	// Exclude holds glob patterns relative to SourceDir.
	Exclude []string
	// Rules drives key derivation.
	Rules plan.Rules
	// ConfigFile is the .arbkeys.yaml that was applied, if any.
	ConfigFile string
}

// Resolve loads the project rooted at root from fsys. configPath may be
// empty, in which case root/.arbkeys.yaml is used when present.
func Resolve(fsys afero.Fs, root, configPath string) (*Project, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}

	p := &Project{
		Root:        absRoot,
		SourceExt:   DefaultSourceExt,
		ResourceExt: DefaultResourceExt,
		Factories:   scan.DefaultFactories,
		Identifiers: scan.DefaultIdentifiers,
	}
	sourceDir := DefaultSourceDir
	localesDir := DefaultLocalesDir
	rules := plan.DefaultRules("")

	p.Name = detectPubspecName(fsys, absRoot)
	if dir := detectArbDir(fsys, absRoot); dir != "" {
		localesDir = dir
	}

	explicit := configPath != ""
	if !explicit {
		configPath = filepath.Join(absRoot, FileName)
	} else if !filepath.IsAbs(configPath) {
		configPath = filepath.Join(absRoot, configPath)
	}
	cf, err := LoadFile(fsys, configPath)
	if err != nil {
		return nil, err
	}
	if cf == nil && explicit {
		return nil, fmt.Errorf("config file %s: %w", configPath, os.ErrNotExist)
	}
	if cf != nil {
		p.ConfigFile = configPath
		if cf.SourceDir != "" {
			sourceDir = cf.SourceDir
		}
		if cf.LocalesDir != "" {
			localesDir = cf.LocalesDir
		}
		if cf.SourceExt != "" {
			p.SourceExt = cf.SourceExt
		}
		if cf.ResourceExt != "" {
			p.ResourceExt = cf.ResourceExt
		}
		if cf.Factories != nil {
			p.Factories = cf.Factories
		}
		if cf.Accessors != nil {
			p.Identifiers = cf.Accessors
		}
		if cf.ContainerCategories != nil {
			rules.ContainerCategories = cf.ContainerCategories
		}
		if cf.ScreenFolders != nil {
			rules.ScreenFolders = cf.ScreenFolders
		}
		if cf.ScreenLabel != "" {
			rules.ScreenLabel = cf.ScreenLabel
		}
		p.Exclude = cf.Exclude
	}

	p.SourceDir = abs(absRoot, sourceDir)
	p.LocalesDir = abs(absRoot, localesDir)
	rules.SourceRoot = p.SourceDir
	p.Rules = rules

	info, err := fsys.Stat(p.LocalesDir)
	if err != nil || !info.IsDir() {
		return nil, fmt.Errorf("%w: %s", ErrLocalesDirMissing, p.LocalesDir)
	}

	return p, nil
}

// Accessor compiles the project's accessor idiom.
func (p *Project) Accessor() (*scan.Accessor, error) {
	return scan.NewAccessor(p.Factories, p.Identifiers)
}

// ResourceFiles returns the resource files in LocalesDir, sorted by name.
// Subdirectories are not searched.
func (p *Project) ResourceFiles(fsys afero.Fs) ([]string, error) {
	entries, err := afero.ReadDir(fsys, p.LocalesDir)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", p.LocalesDir, err)
	}
	var files []string
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != p.ResourceExt {
			continue
		}
		files = append(files, filepath.Join(p.LocalesDir, e.Name()))
	}
	sort.Strings(files)
	return files, nil
}

// Rel returns path relative to the project root for display.
func (p *Project) Rel(path string) string {
	if rel, err := filepath.Rel(p.Root, path); err == nil && !strings.HasPrefix(rel, "..") {
		return rel
	}
	return path
}

func abs(root, dir string) string {
	if filepath.IsAbs(dir) {
		return filepath.Clean(dir)
	}
	return filepath.Join(root, filepath.FromSlash(dir))
}

// ---------------------------------------------------------------------------
// Flutter project detection
// ---------------------------------------------------------------------------

// detectPubspecName reads the package name from pubspec.yaml.
func detectPubspecName(fsys afero.Fs, root string) string {
	data, err := afero.ReadFile(fsys, filepath.Join(root, "pubspec.yaml"))
	if err != nil {
		return ""
	}
	var pubspec struct {
		Name string `yaml:"name"`
	}
	if err := yaml.Unmarshal(data, &pubspec); err != nil {
		return ""
	}
	return pubspec.Name
}

// detectArbDir reads arb-dir from Flutter's l10n.yaml (gen_l10n settings).
func detectArbDir(fsys afero.Fs, root string) string {
	data, err := afero.ReadFile(fsys, filepath.Join(root, "l10n.yaml"))
	if err != nil {
		return ""
	}
	var l10n struct {
		ArbDir string `yaml:"arb-dir"`
	}
	if err := yaml.Unmarshal(data, &l10n); err != nil {
		return ""
	}
	return l10n.ArbDir
}
