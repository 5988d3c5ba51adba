// Package apply turns a key mapping into concrete file changes, reports
// them, and writes them with optional backups.
package apply

import (
	"bytes"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/afero"

	"github.com/minios-linux/arbkeys/arbfile"
	"github.com/minios-linux/arbkeys/plan"
	"github.com/minios-linux/arbkeys/rewrite"
	"github.com/minios-linux/arbkeys/scan"
)

// BackupSuffix is appended to a file's path to form its backup path.
const BackupSuffix = ".bak"

// Kind tells resource changes from source changes.
type Kind string

const (
	KindResource Kind = "resource"
	KindSource   Kind = "source"
)

// Change is the full new content of one file.
type Change struct {
	Path   string
	Kind   Kind
	Before []byte
	After  []byte
	// Entries is the number of top-level entries of a rewritten resource
	// file, metadata included. Zero for sources.
	Entries int
	// Locale is the "@@locale" of a resource file, if it declares one.
	Locale string
}

// Resource is a loaded resource file together with its bytes on disk.
type Resource struct {
	Path     string
	Original []byte
	File     *arbfile.File
}

// BackupPath returns the backup location of path.
func BackupPath(path string) string { return path + BackupSuffix }

// LoadResources reads and parses every path. A file that cannot be parsed
// is reported through onParseError and treated as empty; read errors abort.
func LoadResources(fsys afero.Fs, paths []string, onParseError func(path string, err error)) ([]Resource, error) {
	resources := make([]Resource, 0, len(paths))
	for _, path := range paths {
		data, err := afero.ReadFile(fsys, path)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", path, err)
		}
		f, err := arbfile.Parse(data)
		if err != nil {
			if onParseError != nil {
				onParseError(path, err)
			}
			f = arbfile.New()
		}
		resources = append(resources, Resource{Path: path, Original: data, File: f})
	}
	return resources, nil
}

// Changes computes every file change implied by m: resource files first
// (in the given order), then sources in traversal order. Files whose new
// content equals the current content are left out.
func Changes(fsys afero.Fs, m *plan.Mapping, acc *scan.Accessor, resources []Resource) ([]Change, error) {
	var changes []Change

	for _, r := range resources {
		out, ok, err := rewrite.Resource(m, r.File)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", r.Path, err)
		}
		if !ok {
			slog.Debug("resource has no mapped keys", "path", r.Path)
			continue
		}
		data, err := out.Marshal()
		if err != nil {
			return nil, fmt.Errorf("serializing %s: %w", r.Path, err)
		}
		if bytes.Equal(data, r.Original) {
			slog.Debug("resource already up to date", "path", r.Path)
			continue
		}
		changes = append(changes, Change{
			Path:    r.Path,
			Kind:    KindResource,
			Before:  r.Original,
			After:   data,
			Entries: out.Len(),
			Locale:  r.File.Locale(),
		})
	}

	for _, path := range m.Files() {
		data, err := afero.ReadFile(fsys, path)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", path, err)
		}
		text, changed := rewrite.Source(m, acc, string(data))
		if !changed {
			continue
		}
		changes = append(changes, Change{
			Path:   path,
			Kind:   KindSource,
			Before: data,
			After:  []byte(text),
		})
	}

	return changes, nil
}

// Options controls Apply.
type Options struct {
	// Backup copies each file to BackupPath before overwriting it.
	Backup bool
	// OnWrite, when set, is called after each successful write. backup is
	// empty when no backup was made.
	OnWrite func(c Change, backup string)
}

// Apply writes every change in order. The first failure stops the run;
// files written before it stay written.
func Apply(fsys afero.Fs, changes []Change, opts Options) error {
	for _, c := range changes {
		perm := os.FileMode(0644)
		if info, err := fsys.Stat(c.Path); err == nil {
			perm = info.Mode().Perm()
		}

		backup := ""
		if opts.Backup {
			backup = BackupPath(c.Path)
			if err := copyFile(fsys, c.Path, backup, perm); err != nil {
				return fmt.Errorf("backing up %s: %w", c.Path, err)
			}
		}

		if err := afero.WriteFile(fsys, c.Path, c.After, perm); err != nil {
			return fmt.Errorf("writing %s: %w", c.Path, err)
		}
		slog.Info("file rewritten", "path", c.Path, "kind", string(c.Kind), "backup", backup)
		if opts.OnWrite != nil {
			opts.OnWrite(c, backup)
		}
	}
	return nil
}

// copyFile copies src as it is on disk now.
func copyFile(fsys afero.Fs, src, dst string, perm os.FileMode) error {
	data, err := afero.ReadFile(fsys, src)
	if err != nil {
		return err
	}
	return afero.WriteFile(fsys, dst, data, perm)
}
