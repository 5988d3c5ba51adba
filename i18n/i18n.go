// Package i18n translates arbkeys' own user-facing strings.
//
// It wraps the gotext library to provide simple T() and N() functions. Translations are embedded
// in the binary via //go:embed and loaded at startup via Init().
//
// Usage:
//
//	import "github.com/minios-linux/arbkeys/i18n"
//
//	func main() {
//	    lang := i18n.Init("")  // auto-detect from LANGUAGE/LC_ALL/LC_MESSAGES/LANG
//	    fmt.Println(i18n.T("Hello, world!"))
//	    fmt.Println(i18n.N("Found %d file", "Found %d files", count))
//	}
package i18n

import (
	"embed"
	"io/fs"
	"os"
	"path"
	"strings"

	"github.com/leonelquinteros/gotext"
)

// locales embeds the .po catalogs.
// Directory structure: locales/{lang}/LC_MESSAGES/arbkeys.po
//
//go:embed all:locales
var locales embed.FS

const domain = "arbkeys"

// po is the gotext locale object used for translations.
var po *gotext.Locale

// Init loads the catalog for lang, or for the language named by the
// environment when lang is empty, and returns the language whose catalog
// is in use. A regional variant falls back to its base language
// ("ru_RU" uses "ru"). Without a matching catalog Init returns "" and
// T and N pass strings through.
func Init(lang string) string {
	if lang == "" {
		lang = detectLanguage()
	}

	resolved := catalogFor(lang)
	if resolved == "" {
		po = nil
		return ""
	}

	po = gotext.NewLocaleFSWithPath(resolved, locales, "locales")
	po.AddDomain(domain)
	po.SetDomain(domain)
	return resolved
}

// catalogFor returns lang or its base language, whichever has an
// embedded catalog first.
func catalogFor(lang string) string {
	candidates := []string{lang}
	if i := strings.IndexAny(lang, "_-"); i > 0 {
		candidates = append(candidates, lang[:i])
	}
	for _, c := range candidates {
		name := path.Join("locales", c, "LC_MESSAGES", domain+".po")
		if _, err := fs.Stat(locales, name); err == nil {
			return c
		}
	}
	return ""
}

// T translates a string. If no translation is available, returns the
// original string unchanged (standard gettext passthrough behavior).
func T(msgid string) string {
	if po == nil {
		return msgid
	}
	return po.Get(msgid)
}

// N translates a string with plural forms. The singular form is used
// when n == 1, the plural form otherwise (exact rules depend on the
// target language's plural formula).
func N(singular, plural string, n int) string {
	if po == nil {
		if n == 1 {
			return singular
		}
		return plural
	}
	return po.GetN(singular, plural, n)
}

// detectLanguage reads environment variables to determine the user's
// preferred language, following GNU gettext conventions.
func detectLanguage() string {
	// GNU gettext priority: LANGUAGE > LC_ALL > LC_MESSAGES > LANG
	for _, env := range []string{"LANGUAGE", "LC_ALL", "LC_MESSAGES", "LANG"} {
		if val := os.Getenv(env); val != "" {
			// LANGUAGE can be a colon-separated list; take the first
			if env == "LANGUAGE" {
				parts := strings.SplitN(val, ":", 2)
				val = parts[0]
			}
			// Strip encoding suffix (e.g. "ru_RU.UTF-8" -> "ru_RU")
			if idx := strings.IndexByte(val, '.'); idx >= 0 {
				val = val[:idx]
			}
			// "C" and "POSIX" mean no translation
			if val == "C" || val == "POSIX" || val == "" {
				continue
			}
			return val
		}
	}
	return "en"
}
