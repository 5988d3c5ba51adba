// Package arbfile implements reading and writing of Flutter ARB (Application
// Resource Bundle) files.
//
// ARB files are JSON objects with three kinds of top-level entries:
//
//   - Global metadata: keys starting with "@@" (e.g. "@@locale").
//   - Translation entries: plain keys mapping to a localized string.
//   - Per-key metadata: "@" + key, holding a descriptive object for the
//     translation entry of the same name.
//
// The model is an explicit ordered sequence of entries rather than a map,
// so document order survives a round trip and the "metadata follows its
// key" layout can be rebuilt and checked.
package arbfile

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

const (
	// GlobalMarker prefixes file-level metadata keys such as "@@locale".
	GlobalMarker = "@@"
	// MetaMarker prefixes the metadata entry of a translation key.
	MetaMarker = "@"
)

// ErrNotObject is returned when the document root is not a JSON object.
var ErrNotObject = errors.New("ARB root is not a JSON object")

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// ---------------------------------------------------------------------------
// File model
// ---------------------------------------------------------------------------

// entry is a single top-level key in the ARB file.
type entry struct {
	key string
	raw json.RawMessage
}

// File represents a parsed ARB file.
type File struct {
	// entries stores all keys in document order.
	entries []entry
	// index maps key → index in entries.
	index map[string]int
}

// New returns an empty file ready for Append.
func New() *File {
	return &File{index: make(map[string]int)}
}

// IsGlobalMeta reports whether key is file-level metadata ("@@...").
func IsGlobalMeta(key string) bool { return strings.HasPrefix(key, GlobalMarker) }

// IsMeta reports whether key is any metadata entry ("@..." or "@@...").
func IsMeta(key string) bool { return strings.HasPrefix(key, MetaMarker) }

// MetaKey returns the metadata key paired with translation key k.
func MetaKey(k string) string { return MetaMarker + k }

// ---------------------------------------------------------------------------
// Parsing
// ---------------------------------------------------------------------------

// Parse parses ARB content from a byte slice. A leading UTF-8 byte order
// mark is ignored.
func Parse(data []byte) (*File, error) {
	data = bytes.TrimPrefix(data, utf8BOM)
	f := New()

	// Token streaming keeps the key order that a map decode would lose.
	dec := json.NewDecoder(bytes.NewReader(data))

	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("parsing ARB: %w", err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, ErrNotObject
	}

	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("parsing ARB key: %w", err)
		}
		key, ok := keyTok.(string)
		if !ok {
			return nil, fmt.Errorf("parsing ARB: expected string key, got %T", keyTok)
		}

		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return nil, fmt.Errorf("parsing ARB value for %q: %w", key, err)
		}
		f.Append(key, raw)
	}

	// Consume the closing brace so truncated documents are rejected.
	if _, err := dec.Token(); err != nil {
		return nil, fmt.Errorf("parsing ARB: %w", err)
	}

	return f, nil
}

// ---------------------------------------------------------------------------
// Building
// ---------------------------------------------------------------------------

// Append adds key with the given raw JSON value at the end of the file.
// An existing key with the same name is replaced in place.
func (f *File) Append(key string, raw json.RawMessage) {
	cp := make(json.RawMessage, len(raw))
	copy(cp, raw)
	if idx, ok := f.index[key]; ok {
		f.entries[idx].raw = cp
		return
	}
	f.index[key] = len(f.entries)
	f.entries = append(f.entries, entry{key: key, raw: cp})
}

// ---------------------------------------------------------------------------
// Accessors
// ---------------------------------------------------------------------------

// Len returns the number of top-level entries, metadata included.
func (f *File) Len() int { return len(f.entries) }

// Locale returns the @@locale value.
func (f *File) Locale() string {
	raw, ok := f.Raw("@@locale")
	if !ok {
		return ""
	}
	var s string
	_ = json.Unmarshal(raw, &s)
	return s
}

// Keys returns all translation (non-metadata) keys in document order.
func (f *File) Keys() []string {
	var keys []string
	for _, e := range f.entries {
		if !IsMeta(e.key) {
			keys = append(keys, e.key)
		}
	}
	return keys
}

// Has reports whether key is a translation entry of the file.
func (f *File) Has(key string) bool {
	_, ok := f.index[key]
	return ok && !IsMeta(key)
}

// Raw returns the raw JSON value stored under key.
func (f *File) Raw(key string) (json.RawMessage, bool) {
	idx, ok := f.index[key]
	if !ok {
		return nil, false
	}
	return f.entries[idx].raw, true
}

// Get returns the text of a translation key: the decoded string, or the
// JSON text of a non-string value.
func (f *File) Get(key string) (string, bool) {
	if IsMeta(key) {
		return "", false
	}
	raw, ok := f.Raw(key)
	if !ok {
		return "", false
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return string(raw), true
	}
	return s, true
}

// Meta returns the metadata object of translation key k, if present.
func (f *File) Meta(k string) (json.RawMessage, bool) {
	return f.Raw(MetaKey(k))
}

// GlobalMeta returns the "@@" keys in document order.
func (f *File) GlobalMeta() []string {
	var keys []string
	for _, e := range f.entries {
		if IsGlobalMeta(e.key) {
			keys = append(keys, e.key)
		}
	}
	return keys
}

// OrphanMeta returns per-key metadata entries whose translation key is
// absent from the file, in document order.
func (f *File) OrphanMeta() []string {
	var keys []string
	for _, e := range f.entries {
		if !IsMeta(e.key) || IsGlobalMeta(e.key) {
			continue
		}
		if !f.Has(strings.TrimPrefix(e.key, MetaMarker)) {
			keys = append(keys, e.key)
		}
	}
	return keys
}

// ---------------------------------------------------------------------------
// Serialization
// ---------------------------------------------------------------------------

// Marshal serialises the ARB file to JSON with 2-space indentation, one
// entry per line in file order. Non-ASCII and HTML characters are written
// verbatim.
func (f *File) Marshal() ([]byte, error) {
	var buf bytes.Buffer
	if len(f.entries) == 0 {
		buf.WriteString("{}\n")
		return buf.Bytes(), nil
	}
	buf.WriteString("{\n")

	for i, e := range f.entries {
		if i > 0 {
			buf.WriteString(",\n")
		}
		keyBytes, err := encode(e.key)
		if err != nil {
			return nil, fmt.Errorf("encoding key %q: %w", e.key, err)
		}
		buf.WriteString("  ")
		buf.Write(keyBytes)
		buf.WriteString(": ")

		var compact bytes.Buffer
		if err := json.Compact(&compact, e.raw); err != nil {
			return nil, fmt.Errorf("encoding value of %q: %w", e.key, err)
		}
		if err := json.Indent(&buf, compact.Bytes(), "  ", "  "); err != nil {
			return nil, fmt.Errorf("encoding value of %q: %w", e.key, err)
		}
	}

	buf.WriteString("\n}\n")
	return buf.Bytes(), nil
}

// Description builds the minimal metadata object {"description": s}.
func Description(s string) (json.RawMessage, error) {
	return encode(struct {
		Description string `json:"description"`
	}{s})
}

func encode(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}
