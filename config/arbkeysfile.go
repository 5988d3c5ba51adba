package config

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"

	"github.com/minios-linux/arbkeys/scan"
)

// FileName is the default config file name.
const FileName = ".arbkeys.yaml"

// File is the .arbkeys.yaml structure. Empty fields keep their defaults;
// list fields set to an empty list clear the default.
type File struct {
	// SourceDir is the source root relative to the project root (default "lib").
	SourceDir string `yaml:"source_dir,omitempty"`
	// LocalesDir holds the resource files (default l10n.yaml arb-dir or "lib/l10n").
	LocalesDir string `yaml:"locales_dir,omitempty"`
	// SourceExt is the scanned source extension (default ".dart").
	SourceExt string `yaml:"source_ext,omitempty"`
	// ResourceExt is the resource file extension (default ".arb").
	ResourceExt string `yaml:"resource_ext,omitempty"`
	// Accessors are bare locale identifiers (default l10n, localizations).
	Accessors []string `yaml:"accessors,omitempty"`
	// Factories are classes accessed as X.of(...) (default AppLocalizations).
	Factories []string `yaml:"factories,omitempty"`
	// ContainerCategories are first path segments kept verbatim (default components).
	ContainerCategories []string `yaml:"container_categories,omitempty"`
	// ScreenFolders are top-level folders labelled ScreenLabel (default screens).
	ScreenFolders []string `yaml:"screen_folders,omitempty"`
	// ScreenLabel is the first segment for screen folders (default "screens").
	ScreenLabel string `yaml:"screen_label,omitempty"`
	// Exclude lists globs of source files to ignore, relative to SourceDir.
	Exclude []string `yaml:"exclude,omitempty"`
}

var identRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// LoadFile loads and validates a config file. Returns nil if it does not
// exist.
func LoadFile(fsys afero.Fs, path string) (*File, error) {
	data, err := afero.ReadFile(fsys, path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	if err := f.validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &f, nil
}

func (f *File) validate() error {
	for name, ext := range map[string]string{"source_ext": f.SourceExt, "resource_ext": f.ResourceExt} {
		if ext != "" && !strings.HasPrefix(ext, ".") {
			return fmt.Errorf("%s %q must start with '.'", name, ext)
		}
	}
	for _, id := range append(append([]string{}, f.Accessors...), f.Factories...) {
		if !identRe.MatchString(id) {
			return fmt.Errorf("accessor %q is not an identifier", id)
		}
	}
	if f.Accessors != nil && f.Factories != nil && len(f.Accessors)+len(f.Factories) == 0 {
		return fmt.Errorf("accessors and factories cannot both be empty")
	}
	if _, err := scan.CompileGlobs(f.Exclude); err != nil {
		return err
	}
	return nil
}
