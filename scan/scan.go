// Package scan finds localization key references in source files.
//
// A reference is a locale accessor expression followed by a member access:
//
//	AppLocalizations.of(context)!.header
//	l10n.header
//	localizations .header
//
// Only plain identifier-after-dot access is recognized. Computed lookups
// (l10n['header']), aliases and nested accessors are invisible.
package scan

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/gobwas/glob"
	"github.com/spf13/afero"
)

// DefaultFactories are classes whose X.of(...) call yields the locale object.
var DefaultFactories = []string{"AppLocalizations"}

// DefaultIdentifiers are bare variable names holding the locale object.
var DefaultIdentifiers = []string{"l10n", "localizations"}

// skipDirs contains directory names never descended into.
var skipDirs = map[string]bool{
	".git":         true,
	".hg":          true,
	".svn":         true,
	".dart_tool":   true,
	".idea":        true,
	"build":        true,
	"node_modules": true,
	".pub-cache":   true,
}

// Accessor is a compiled accessor idiom.
type Accessor struct {
	re *regexp.Regexp
}

// Match is one accessor occurrence inside a text. Offsets are byte
// positions: [Start, End) covers the whole expression and
// [KeyStart, KeyEnd) the trailing key identifier.
type Match struct {
	Key      string
	Start    int
	End      int
	KeyStart int
	KeyEnd   int
}

// Usage records that Key is referenced in File.
type Usage struct {
	Key  string
	File string
}

// DefaultAccessor returns the accessor for the default Flutter idioms.
func DefaultAccessor() *Accessor {
	acc, err := NewAccessor(DefaultFactories, DefaultIdentifiers)
	if err != nil {
		panic(err)
	}
	return acc
}

// NewAccessor builds an accessor recognizing Factory.of(...) calls for every
// factory and word-bounded bare identifiers, each optionally followed by a
// "!" non-null assertion, then "." and the key.
func NewAccessor(factories, identifiers []string) (*Accessor, error) {
	var alts []string
	for _, f := range factories {
		if f == "" {
			continue
		}
		alts = append(alts, regexp.QuoteMeta(f)+`\.of\([^)]*\)`)
	}
	for _, id := range identifiers {
		if id == "" {
			continue
		}
		alts = append(alts, `\b`+regexp.QuoteMeta(id)+`\b`)
	}
	if len(alts) == 0 {
		return nil, fmt.Errorf("accessor needs at least one factory or identifier")
	}
	re, err := regexp.Compile(`(` + strings.Join(alts, "|") + `)\s*(!)?\s*\.\s*([A-Za-z0-9_]+)`)
	if err != nil {
		return nil, fmt.Errorf("compiling accessor pattern: %w", err)
	}
	return &Accessor{re: re}, nil
}

// String returns the underlying pattern.
func (a *Accessor) String() string { return a.re.String() }

// Matches returns every accessor occurrence in text, in text order.
func (a *Accessor) Matches(text string) []Match {
	locs := a.re.FindAllStringSubmatchIndex(text, -1)
	out := make([]Match, 0, len(locs))
	for _, loc := range locs {
		// loc[6:8] is the key group.
		out = append(out, Match{
			Key:      text[loc[6]:loc[7]],
			Start:    loc[0],
			End:      loc[1],
			KeyStart: loc[6],
			KeyEnd:   loc[7],
		})
	}
	return out
}

// Keys returns the sorted set of distinct keys referenced in text.
func (a *Accessor) Keys(text string) []string {
	seen := make(map[string]bool)
	var keys []string
	for _, m := range a.Matches(text) {
		if !seen[m.Key] {
			seen[m.Key] = true
			keys = append(keys, m.Key)
		}
	}
	sort.Strings(keys)
	return keys
}

// CompileGlobs compiles exclude patterns. "/" is the separator, so "*"
// stays within one path segment and "**" crosses segments.
func CompileGlobs(patterns []string) ([]glob.Glob, error) {
	globs := make([]glob.Glob, 0, len(patterns))
	for _, p := range patterns {
		g, err := glob.Compile(p, '/')
		if err != nil {
			return nil, fmt.Errorf("invalid exclude pattern %q: %w", p, err)
		}
		globs = append(globs, g)
	}
	return globs, nil
}

// FindSources recursively finds files with extension ext under root.
// Tooling directories are skipped and files whose slash-separated path
// relative to root matches an exclude glob are dropped.
//
// The result is sorted by byte-wise comparison of the slash-separated
// relative paths. This fixed order decides which file "first" references
// a key.
func FindSources(fsys afero.Fs, root, ext string, exclude []glob.Glob) ([]string, error) {
	type found struct{ rel, path string }
	var files []found

	err := afero.Walk(fsys, root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return fmt.Errorf("walking %s: %w", path, err)
		}
		if info.IsDir() {
			if path != root && skipDirs[info.Name()] {
				return filepath.SkipDir
			}
			return nil
		}
		if filepath.Ext(path) != ext {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		for _, g := range exclude {
			if g.Match(rel) {
				return nil
			}
		}
		files = append(files, found{rel: rel, path: path})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scanning %s: %w", root, err)
	}

	sort.Slice(files, func(i, j int) bool { return files[i].rel < files[j].rel })
	paths := make([]string, len(files))
	for i, f := range files {
		paths[i] = f.path
	}
	return paths, nil
}

// Scan reads files in the given order and returns one Usage per distinct
// key per file, keys sorted within each file.
func Scan(fsys afero.Fs, files []string, acc *Accessor) ([]Usage, error) {
	var usages []Usage
	for _, path := range files {
		data, err := afero.ReadFile(fsys, path)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", path, err)
		}
		for _, k := range acc.Keys(string(data)) {
			usages = append(usages, Usage{Key: k, File: path})
		}
	}
	return usages, nil
}
