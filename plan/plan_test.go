package plan

import (
	"path/filepath"
	"testing"

	"github.com/minios-linux/arbkeys/scan"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func lib(parts ...string) string {
	return filepath.Join(append([]string{"/app", "lib"}, parts...)...)
}

func TestPascal(t *testing.T) {
	tests := map[string]string{
		"header":        "Header",
		"about_screen":  "AboutScreen",
		"user-profile":  "UserProfile",
		"appTitle":      "AppTitle",
		"__double__":    "Double",
		"step_2_title":  "Step2Title",
		"already Camel": "AlreadyCamel",
		"":              "",
		"ünïcode":       "Ünïcode",
	}
	for in, want := range tests {
		assert.Equal(t, want, Pascal(in), "Pascal(%q)", in)
	}
}

func TestFlat(t *testing.T) {
	assert.Equal(t, "screensSettingsAboutHeader", Flat([]string{"Screens", "Settings", "About", "Header"}))
	assert.Equal(t, "screensSettingsAboutHeader", Flat([]string{"screens", "Settings", "About", "Header"}))
	assert.Equal(t, "aB2", Flat([]string{"A.", "B-2"}))
	assert.Equal(t, "", Flat(nil))
}

func TestSegments(t *testing.T) {
	rules := DefaultRules(lib())

	tests := []struct {
		name string
		file string
		key  string
		want []string
	}{
		{
			name: "screen folder gets label",
			file: lib("screens", "settings", "about_screen.dart"),
			key:  "header",
			want: []string{"screens", "Settings", "About", "Header"},
		},
		{
			name: "container category kept",
			file: lib("components", "primary_button.dart"),
			key:  "label",
			want: []string{"Components", "PrimaryButton", "Label"},
		},
		{
			name: "screen suffix case-insensitive without separator",
			file: lib("widgets", "HomeScreen.dart"),
			key:  "title",
			want: []string{"Widgets", "Home", "Title"},
		},
		{
			name: "kebab screen suffix",
			file: lib("pages", "login-screen.dart"),
			key:  "submit_button",
			want: []string{"Pages", "Login", "SubmitButton"},
		},
		{
			name: "segment that is only screen is dropped",
			file: lib("screen.dart"),
			key:  "ok",
			want: []string{"Ok"},
		},
		{
			name: "file outside the root uses its base name",
			file: "/elsewhere/misc.dart",
			key:  "x",
			want: []string{"Misc", "X"},
		},
		{
			name: "screens folder file directly under it",
			file: lib("screens", "home_screen.dart"),
			key:  "greeting",
			want: []string{"screens", "Home", "Greeting"},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, rules.Segments(tc.file, tc.key))
		})
	}
}

func TestOutputKey(t *testing.T) {
	segs := func(key string) []string {
		return []string{"screens", "Settings", "About", Pascal(key)}
	}

	tests := []struct {
		name string
		key  string
		want string
	}{
		{name: "plain key is renamed", key: "header", want: "screensSettingsAboutHeader"},
		{
			name: "partial prefix does not count",
			key:  "settingsAboutHeader",
			want: "screensSettingsAboutSettingsAboutHeader",
		},
		{name: "prefix already present", key: "screensSettingsAboutHeader", want: "screensSettingsAboutHeader"},
		{name: "prefix match is case-insensitive", key: "SCREENSSETTINGSABOUTtitle", want: "SCREENSSETTINGSABOUTtitle"},
		{name: "snake key renamed", key: "save_button", want: "screensSettingsAboutSaveButton"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, OutputKey(segs(tc.key), tc.key))
		})
	}

	// A single segment has no prefix; only exact equality keeps the key.
	assert.Equal(t, "ok", OutputKey([]string{"Ok"}, "ok"))
	assert.Equal(t, "ok", OutputKey([]string{"Ok"}, "OK"))
}

func TestEmptyNameKeepsKey(t *testing.T) {
	rules := DefaultRules(lib())
	file := lib("screen.dart")

	segs := rules.Segments(file, "_")
	assert.Equal(t, "", Flat(segs))
	assert.Equal(t, "_", OutputKey(segs, "_"))

	m := Build([]scan.Usage{
		{Key: "_", File: file},
		{Key: "title", File: file},
	}, rules)
	assert.Equal(t, []string{"_"}, m.Unnamed())
	out, ok := m.Output("_")
	require.True(t, ok)
	assert.Equal(t, "_", out)
	out, _ = m.Output("title")
	assert.Equal(t, "title", out)
}

func TestOutputKeyIsIdempotent(t *testing.T) {
	rules := DefaultRules(lib())
	file := lib("screens", "settings", "about_screen.dart")
	for _, key := range []string{"header", "save_button", "settingsAboutHeader", "x"} {
		first := OutputKey(rules.Segments(file, key), key)
		second := OutputKey(rules.Segments(file, first), first)
		assert.Equal(t, first, second, "renaming %q twice", key)
	}
}

func TestBuildFirstOccurrenceWins(t *testing.T) {
	a := lib("components", "card.dart")
	b := lib("screens", "home_screen.dart")
	usages := []scan.Usage{
		{Key: "shared", File: a},
		{Key: "title", File: a},
		{Key: "shared", File: b},
		{Key: "welcome", File: b},
	}
	m := Build(usages, DefaultRules(lib()))

	require.Equal(t, 3, m.Len())
	assert.Equal(t, []string{"shared", "title", "welcome"}, m.Keys())
	assert.Equal(t, []string{a, b}, m.Files())
	assert.Equal(t, []string{"shared", "welcome"}, m.FileKeys(b))

	e, ok := m.Get("shared")
	require.True(t, ok)
	assert.Equal(t, a, e.File)

	out, ok := m.Output("shared")
	require.True(t, ok)
	assert.Equal(t, "componentsCardShared", out)

	out, _ = m.Output("welcome")
	assert.Equal(t, "screensHomeWelcome", out)

	_, ok = m.Output("missing")
	assert.False(t, ok)
}

func TestCollisions(t *testing.T) {
	f := lib("components", "card.dart")
	usages := []scan.Usage{
		{Key: "save_title", File: f},
		{Key: "saveTitle", File: f},
		{Key: "other", File: f},
	}
	m := Build(usages, DefaultRules(lib()))

	cs := m.Collisions()
	require.Len(t, cs, 1)
	assert.Equal(t, "componentsCardSaveTitle", cs[0].Output)
	assert.Equal(t, []string{"save_title", "saveTitle"}, cs[0].Keys)
}

func TestMappingAccessorsReturnCopies(t *testing.T) {
	f := lib("a.dart")
	m := Build([]scan.Usage{{Key: "k", File: f}}, DefaultRules(lib()))
	keys := m.Keys()
	keys[0] = "mutated"
	assert.Equal(t, []string{"k"}, m.Keys())
}
