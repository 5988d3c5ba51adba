// Package rewrite applies a key mapping to resource files and source text.
//
// Both rewriters ask the Mapping for output names; neither derives names
// on its own.
package rewrite

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/minios-linux/arbkeys/arbfile"
	"github.com/minios-linux/arbkeys/plan"
	"github.com/minios-linux/arbkeys/scan"
)

type translation struct {
	key  string
	raw  json.RawMessage
	meta json.RawMessage
}

// Resource builds the restructured form of f. It reports false, and
// returns nil, when f holds none of the mapped keys.
//
// Layout of the result: global "@@" entries in original order, then all
// translation entries sorted case-insensitively by (new) key, each
// followed by its metadata, then orphaned metadata in original order.
// Mapped keys lacking metadata get {"description": <value>}. When two
// keys end up with the same name the one processed later wins; unmapped
// keys are processed before mapped ones, mapped ones in mapping order.
func Resource(m *plan.Mapping, f *arbfile.File) (*arbfile.File, bool, error) {
	mapped := false
	for _, k := range m.Keys() {
		if f.Has(k) {
			mapped = true
			break
		}
	}
	if !mapped {
		return nil, false, nil
	}

	byKey := make(map[string]translation)
	for _, k := range f.Keys() {
		if _, ok := m.Get(k); ok {
			continue
		}
		raw, _ := f.Raw(k)
		meta, _ := f.Meta(k)
		byKey[k] = translation{key: k, raw: raw, meta: meta}
	}

	for _, k := range m.Keys() {
		if !f.Has(k) {
			continue
		}
		out, _ := m.Output(k)
		raw, _ := f.Raw(k)
		meta, ok := f.Meta(k)
		if !ok {
			// Non-string values are described by their JSON text.
			text, _ := f.Get(k)
			var err error
			meta, err = arbfile.Description(text)
			if err != nil {
				return nil, false, fmt.Errorf("synthesizing metadata for %q: %w", k, err)
			}
		}
		byKey[out] = translation{key: out, raw: raw, meta: meta}
	}

	ordered := make([]translation, 0, len(byKey))
	for _, tr := range byKey {
		ordered = append(ordered, tr)
	}
	sort.Slice(ordered, func(i, j int) bool {
		li, lj := strings.ToLower(ordered[i].key), strings.ToLower(ordered[j].key)
		if li != lj {
			return li < lj
		}
		return ordered[i].key < ordered[j].key
	})

	out := arbfile.New()
	for _, k := range f.GlobalMeta() {
		raw, _ := f.Raw(k)
		out.Append(k, raw)
	}
	for _, tr := range ordered {
		out.Append(tr.key, tr.raw)
		if tr.meta != nil {
			out.Append(arbfile.MetaKey(tr.key), tr.meta)
		}
	}
	for _, k := range f.OrphanMeta() {
		// A renamed key may now own this metadata slot; the key's own
		// metadata takes precedence.
		if out.Has(strings.TrimPrefix(k, arbfile.MetaMarker)) {
			continue
		}
		raw, _ := f.Raw(k)
		out.Append(k, raw)
	}
	return out, true, nil
}

// Source replaces the key identifier of every accessor match in text whose
// key is mapped, leaving the accessor expression itself untouched. It
// reports false when the result equals text.
func Source(m *plan.Mapping, acc *scan.Accessor, text string) (string, bool) {
	var b strings.Builder
	last := 0
	for _, match := range acc.Matches(text) {
		out, ok := m.Output(match.Key)
		if !ok || out == match.Key {
			continue
		}
		b.WriteString(text[last:match.KeyStart])
		b.WriteString(out)
		last = match.KeyEnd
	}
	if last == 0 {
		return text, false
	}
	b.WriteString(text[last:])
	return b.String(), true
}
