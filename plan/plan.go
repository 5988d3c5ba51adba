// Package plan derives path-based names for localization keys.
//
// Every key is attributed to the first source file that references it.
// The file's path below the source root becomes a list of pascal-cased
// segments, the key itself is appended as the last segment, and OutputKey
// turns that list into the final flat name. Both rewriters consult the same
// Mapping and the same OutputKey, so resource files and sources always
// agree on the new name.
package plan

import (
	"path/filepath"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/minios-linux/arbkeys/scan"
)

// Default category conventions of a Flutter lib/ tree.
var (
	DefaultContainerCategories = []string{"components"}
	DefaultScreenFolders       = []string{"screens"}
)

// DefaultScreenLabel replaces the first segment of files under a screen folder.
const DefaultScreenLabel = "screens"

var (
	screenSuffix  = regexp.MustCompile(`(?i)[_-]?screen$`)
	wordSeparator = regexp.MustCompile(`[_\s]+`)
	nonAlnum      = regexp.MustCompile(`[^0-9A-Za-z]`)
)

// Rules controls how file paths become segments.
type Rules struct {
	// SourceRoot is the directory file paths are made relative to.
	SourceRoot string
	// ContainerCategories are first segments kept as derived.
	ContainerCategories []string
	// ScreenFolders are top-level folders whose files get ScreenLabel as
	// their first segment.
	ScreenFolders []string
	// ScreenLabel is the forced first segment for screen folders.
	ScreenLabel string
}

// DefaultRules returns the Flutter conventions rooted at sourceRoot.
func DefaultRules(sourceRoot string) Rules {
	return Rules{
		SourceRoot:          sourceRoot,
		ContainerCategories: DefaultContainerCategories,
		ScreenFolders:       DefaultScreenFolders,
		ScreenLabel:         DefaultScreenLabel,
	}
}

// Segments derives the structured segments for key first referenced in file.
func (r Rules) Segments(file, key string) []string {
	rel, err := filepath.Rel(r.SourceRoot, file)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		rel = filepath.Base(file)
	}
	rel = strings.TrimSuffix(rel, filepath.Ext(rel))
	parts := strings.Split(filepath.ToSlash(rel), "/")

	var segs []string
	for _, p := range parts {
		p = screenSuffix.ReplaceAllString(p, "")
		if p == "" {
			continue
		}
		if s := Pascal(p); s != "" {
			segs = append(segs, s)
		}
	}

	switch {
	case len(segs) > 0 && containsFold(r.ContainerCategories, segs[0]):
		// Container categories keep their derived name.
	case len(parts) > 0 && containsFold(r.ScreenFolders, parts[0]):
		label := r.ScreenLabel
		if label == "" {
			label = DefaultScreenLabel
		}
		if len(segs) > 0 {
			segs = append([]string{label}, segs[1:]...)
		} else {
			segs = []string{label}
		}
	}

	return append(segs, Pascal(key))
}

// Pascal converts snake, kebab or camel case to PascalCase: words are
// split on "_", "-" and whitespace, each word's first letter is upper-cased
// and the rest is kept as is.
func Pascal(s string) string {
	s = strings.ReplaceAll(s, "-", "_")
	var b strings.Builder
	for _, w := range wordSeparator.Split(s, -1) {
		if w == "" {
			continue
		}
		r, size := utf8.DecodeRuneInString(w)
		b.WriteRune(unicode.ToUpper(r))
		b.WriteString(w[size:])
	}
	return b.String()
}

// Flat joins segments, lower-cases the very first character and strips
// everything that is not an ASCII letter or digit.
func Flat(segments []string) string {
	flat := strings.Join(segments, "")
	if flat != "" {
		r, size := utf8.DecodeRuneInString(flat)
		flat = string(unicode.ToLower(r)) + flat[size:]
	}
	return nonAlnum.ReplaceAllString(flat, "")
}

// OutputKey returns the name key should carry given its segments.
//
// A key that already starts with the flattened folder prefix (all segments
// but the last, compared case-insensitively) is kept, as is a key equal to
// the full flat name. A key whose segments flatten to nothing is kept too.
// Anything else becomes Flat(segments).
func OutputKey(segments []string, key string) string {
	flat := Flat(segments)
	if flat == "" {
		return key
	}
	if len(segments) > 1 {
		prefix := Flat(segments[:len(segments)-1])
		if prefix != "" && strings.HasPrefix(strings.ToLower(key), strings.ToLower(prefix)) {
			return key
		}
	}
	if key == flat {
		return key
	}
	return flat
}

// Entry is the planned naming of one original key.
type Entry struct {
	// Segments are the structured segments, key segment last.
	Segments []string
	// File is the first source file that referenced the key.
	File string
}

// Mapping is the ordered key → Entry plan of one run. It is not modified
// after Build returns.
type Mapping struct {
	keys     []string
	entries  map[string]Entry
	files    []string
	fileKeys map[string][]string
}

// Build attributes every key to the first usage in usages and derives its
// segments. usages must be in traversal order (see scan.FindSources).
func Build(usages []scan.Usage, rules Rules) *Mapping {
	m := &Mapping{
		entries:  make(map[string]Entry),
		fileKeys: make(map[string][]string),
	}
	for _, u := range usages {
		if _, ok := m.fileKeys[u.File]; !ok {
			m.files = append(m.files, u.File)
		}
		m.fileKeys[u.File] = append(m.fileKeys[u.File], u.Key)

		if _, ok := m.entries[u.Key]; ok {
			continue
		}
		m.keys = append(m.keys, u.Key)
		m.entries[u.Key] = Entry{
			Segments: rules.Segments(u.File, u.Key),
			File:     u.File,
		}
	}
	return m
}

// Len returns the number of distinct keys.
func (m *Mapping) Len() int { return len(m.keys) }

// Keys returns the original keys in discovery order.
func (m *Mapping) Keys() []string {
	return append([]string(nil), m.keys...)
}

// Get returns the entry of an original key.
func (m *Mapping) Get(key string) (Entry, bool) {
	e, ok := m.entries[key]
	return e, ok
}

// Output returns the new name of key, or false when key is not mapped.
func (m *Mapping) Output(key string) (string, bool) {
	e, ok := m.entries[key]
	if !ok {
		return "", false
	}
	return OutputKey(e.Segments, key), true
}

// Files returns every file that references at least one key, in
// traversal order.
func (m *Mapping) Files() []string {
	return append([]string(nil), m.files...)
}

// FileKeys returns the sorted keys referenced by file.
func (m *Mapping) FileKeys(file string) []string {
	return append([]string(nil), m.fileKeys[file]...)
}

// Unnamed returns, in discovery order, the keys whose segments flatten
// to an empty name. OutputKey leaves them as they are.
func (m *Mapping) Unnamed() []string {
	var keys []string
	for _, k := range m.keys {
		if Flat(m.entries[k].Segments) == "" {
			keys = append(keys, k)
		}
	}
	return keys
}

// Collision is an output key produced by more than one original key.
type Collision struct {
	Output string
	Keys   []string
}

// Collisions lists output keys shared by several original keys, in the
// order the output key first appears. Nothing resolves them: the later
// key wins wherever both are present.
func (m *Mapping) Collisions() []Collision {
	byOut := make(map[string][]string)
	var order []string
	for _, k := range m.keys {
		out, _ := m.Output(k)
		if _, ok := byOut[out]; !ok {
			order = append(order, out)
		}
		byOut[out] = append(byOut[out], k)
	}
	var cs []Collision
	for _, out := range order {
		if len(byOut[out]) > 1 {
			cs = append(cs, Collision{Output: out, Keys: byOut[out]})
		}
	}
	return cs
}

func containsFold(list []string, s string) bool {
	for _, v := range list {
		if strings.EqualFold(v, s) {
			return true
		}
	}
	return false
}
