package scan

import (
	"reflect"
	"testing"

	"github.com/spf13/afero"
)

func TestKeys(t *testing.T) {
	acc := DefaultAccessor()

	tests := []struct {
		name string
		text string
		want []string
	}{
		{
			name: "bare identifiers",
			text: "Text(l10n.header); Text(localizations.title);",
			want: []string{"header", "title"},
		},
		{
			name: "factory with bang and spaces",
			text: "AppLocalizations.of(context)!.save; AppLocalizations.of(ctx) . cancel",
			want: []string{"cancel", "save"},
		},
		{
			name: "deduplicated and sorted",
			text: "l10n.b l10n.a l10n.b l10n!.a",
			want: []string{"a", "b"},
		},
		{
			name: "computed access ignored",
			text: "l10n['header']; l10n[key]",
			want: nil,
		},
		{
			name: "word boundary",
			text: "myl10n.header; l10nx.title; xlocalizations.other",
			want: nil,
		},
		{
			name: "digits and underscores",
			text: "l10n.step_2_title",
			want: []string{"step_2_title"},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := acc.Keys(tc.text); !reflect.DeepEqual(got, tc.want) {
				t.Fatalf("Keys(%q) = %#v, want %#v", tc.text, got, tc.want)
			}
		})
	}
}

func TestMatchesOffsets(t *testing.T) {
	acc := DefaultAccessor()
	text := "x = AppLocalizations.of(context)! .header;"
	ms := acc.Matches(text)
	if len(ms) != 1 {
		t.Fatalf("Matches() len = %d, want 1", len(ms))
	}
	m := ms[0]
	if m.Key != "header" || text[m.KeyStart:m.KeyEnd] != "header" {
		t.Fatalf("key = %q (%q)", m.Key, text[m.KeyStart:m.KeyEnd])
	}
	if got := text[m.Start:m.End]; got != "AppLocalizations.of(context)! .header" {
		t.Fatalf("whole match = %q", got)
	}
}

func TestNewAccessor(t *testing.T) {
	acc, err := NewAccessor([]string{"S"}, []string{"t"})
	if err != nil {
		t.Fatalf("NewAccessor() error: %v", err)
	}
	got := acc.Keys("S.of(context).hello + t.bye + l10n.ignored")
	if want := []string{"bye", "hello"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("Keys() = %v, want %v", got, want)
	}

	if _, err := NewAccessor(nil, []string{""}); err == nil {
		t.Fatal("NewAccessor(empty) error = nil")
	}
}

func TestFindSources(t *testing.T) {
	fsys := afero.NewMemMapFs()
	for _, p := range []string{
		"/app/lib/main.dart",
		"/app/lib/a/x.dart",
		"/app/lib/a.dart",
		"/app/lib/b/notes.txt",
		"/app/lib/build/gen.dart",
		"/app/lib/.dart_tool/tool.dart",
		"/app/lib/gen/model.g.dart",
	} {
		if err := afero.WriteFile(fsys, p, []byte(""), 0644); err != nil {
			t.Fatal(err)
		}
	}

	excl, err := CompileGlobs([]string{"**.g.dart"})
	if err != nil {
		t.Fatalf("CompileGlobs() error: %v", err)
	}
	got, err := FindSources(fsys, "/app/lib", ".dart", excl)
	if err != nil {
		t.Fatalf("FindSources() error: %v", err)
	}
	want := []string{"/app/lib/a.dart", "/app/lib/a/x.dart", "/app/lib/main.dart"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("FindSources() = %v, want %v", got, want)
	}
}

func TestCompileGlobsInvalid(t *testing.T) {
	if _, err := CompileGlobs([]string{"[unclosed"}); err == nil {
		t.Fatal("CompileGlobs() error = nil, want error")
	}
}

func TestScan(t *testing.T) {
	fsys := afero.NewMemMapFs()
	_ = afero.WriteFile(fsys, "/lib/a.dart", []byte("l10n.zeta; l10n.alpha; l10n.zeta"), 0644)
	_ = afero.WriteFile(fsys, "/lib/b.dart", []byte("no keys here"), 0644)
	_ = afero.WriteFile(fsys, "/lib/c.dart", []byte("localizations.alpha"), 0644)

	got, err := Scan(fsys, []string{"/lib/a.dart", "/lib/b.dart", "/lib/c.dart"}, DefaultAccessor())
	if err != nil {
		t.Fatalf("Scan() error: %v", err)
	}
	want := []Usage{
		{Key: "alpha", File: "/lib/a.dart"},
		{Key: "zeta", File: "/lib/a.dart"},
		{Key: "alpha", File: "/lib/c.dart"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Scan() = %#v, want %#v", got, want)
	}

	if _, err := Scan(fsys, []string{"/lib/missing.dart"}, DefaultAccessor()); err == nil {
		t.Fatal("Scan(missing) error = nil")
	}
}
