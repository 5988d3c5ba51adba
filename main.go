// arbkeys — restructure Flutter ARB localization keys by source location.
package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/minios-linux/arbkeys/apply"
	"github.com/minios-linux/arbkeys/config"
	"github.com/minios-linux/arbkeys/i18n"
	"github.com/minios-linux/arbkeys/plan"
	"github.com/minios-linux/arbkeys/scan"
)

// Version information (set via -ldflags during build)
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// ANSI colors
const (
	colorReset  = "\033[0m"
	colorRed    = "\033[0;31m"
	colorGreen  = "\033[0;32m"
	colorYellow = "\033[1;33m"
	colorBlue   = "\033[0;34m"
)

// stderr receives status lines; tests swap it.
var stderr io.Writer = os.Stderr

func logInfo(format string, args ...any) {
	fmt.Fprintf(stderr, colorBlue+"[INFO]"+colorReset+" "+format+"\n", args...)
}

func logSuccess(format string, args ...any) {
	fmt.Fprintf(stderr, colorGreen+"[OK]"+colorReset+" "+format+"\n", args...)
}

func logWarning(format string, args ...any) {
	fmt.Fprintf(stderr, colorYellow+"[WARN]"+colorReset+" "+format+"\n", args...)
}

func logError(format string, args ...any) {
	fmt.Fprintf(stderr, colorRed+"[ERROR]"+colorReset+" "+format+"\n", args...)
}

// ---------------------------------------------------------------------------
// Flags and environment
// ---------------------------------------------------------------------------

const (
	envPrefix = "ARBKEYS"

	flagApply    = "apply"
	flagNoBackup = "no-backup"
	flagDiff     = "diff"
	flagRoot     = "root"
	flagConfig   = "config"
	flagLogFile  = "log-file"
	flagVerbose  = "verbose"
	flagLang     = "lang"
)

// runOptions is everything one run needs.
type runOptions struct {
	fs         afero.Fs
	root       string
	configPath string
	apply      bool
	backup     bool
	diff       bool
}

// bindFlags wires every flag of cmd to v so ARBKEYS_* environment
// variables can supply values not given on the command line.
func bindFlags(cmd *cobra.Command, v *viper.Viper) error {
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	var bindErr error
	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		if err := v.BindPFlag(f.Name, f); err != nil && bindErr == nil {
			bindErr = fmt.Errorf("binding flag %q: %w", f.Name, err)
		}
	})
	return bindErr
}

// ---------------------------------------------------------------------------
// Root command
// ---------------------------------------------------------------------------

func newRootCmd(fsys afero.Fs) *cobra.Command {
	v := viper.New()

	root := &cobra.Command{
		Use:   "arbkeys",
		Short: i18n.T("Restructure ARB localization keys by source file location"),
		Long: `arbkeys — restructure ARB localization keys by source file location.

Scans Dart sources under lib/ for localization accessors
(AppLocalizations.of(context)!.key, l10n.key, localizations.key) and renames
every referenced key after the file that first uses it, in the ARB files
and in every Dart file, so both stay in sync.

  lib/screens/settings/about_screen.dart + l10n.header
    -> screensSettingsAboutHeader

Without --apply nothing is written; the planned changes are printed.
With --apply each changed file is first copied to <file>.bak unless
--no-backup is given.

Every flag can also be set through the environment, e.g. ARBKEYS_APPLY=1.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := bindFlags(cmd, v); err != nil {
				return err
			}
			if err := configureLogger(v.GetString(flagLogFile), v.GetBool(flagVerbose)); err != nil {
				return err
			}
			lang := i18n.Init(v.GetString(flagLang))
			slog.Debug("interface language", "catalog", lang)
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMigrate(runOptions{
				fs:         fsys,
				root:       v.GetString(flagRoot),
				configPath: v.GetString(flagConfig),
				apply:      v.GetBool(flagApply),
				backup:     !v.GetBool(flagNoBackup),
				diff:       v.GetBool(flagDiff),
			}, cmd.OutOrStdout())
		},
	}

	f := root.Flags()
	f.Bool(flagApply, false, "Apply changes (default: dry run)")
	f.Bool(flagNoBackup, false, "Do not create .bak backups when applying")
	f.Bool(flagDiff, false, "Print a unified diff of every planned change")
	f.StringP(flagRoot, "r", ".", "Project root directory")
	f.StringP(flagConfig, "c", "", "Config file (default: <root>/"+config.FileName+")")

	pf := root.PersistentFlags()
	pf.String(flagLogFile, "", "Write a detailed log to this file")
	pf.BoolP(flagVerbose, "v", false, "Verbose logging")
	pf.String(flagLang, "", "Interface language (default: from environment)")

	root.AddCommand(newVersionCmd())

	return root
}

// initLanguage loads the UI catalog before any command text is built,
// so help output is translated too. --lang can still override it later.
func initLanguage() string {
	return i18n.Init(os.Getenv(envPrefix + "_LANG"))
}

func main() {
	initLanguage()
	if err := newRootCmd(afero.NewOsFs()).Execute(); err != nil {
		logError("%v", err)
		os.Exit(1)
	}
}

// ---------------------------------------------------------------------------
// version (display version information)
// ---------------------------------------------------------------------------

func newVersionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Long:  `Display version, commit hash, and build date.`,
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "arbkeys version %s\n", version)
			fmt.Fprintf(out, "  commit:    %s\n", commit)
			fmt.Fprintf(out, "  built:     %s\n", date)
		},
	}

	return cmd
}

// ---------------------------------------------------------------------------
// migration
// ---------------------------------------------------------------------------

func runMigrate(o runOptions, out io.Writer) error {
	proj, err := config.Resolve(o.fs, o.root, o.configPath)
	if err != nil {
		return err
	}
	if proj.Name != "" {
		logInfo(i18n.T("Project: %s"), proj.Name)
	}
	if proj.ConfigFile != "" {
		logInfo(i18n.T("Using config %s"), proj.Rel(proj.ConfigFile))
	}
	slog.Debug("project resolved",
		"root", proj.Root, "source_dir", proj.SourceDir, "locales_dir", proj.LocalesDir)

	acc, err := proj.Accessor()
	if err != nil {
		return err
	}
	exclude, err := scan.CompileGlobs(proj.Exclude)
	if err != nil {
		return err
	}

	logInfo(i18n.T("Scanning %s files for localization keys..."), proj.SourceExt)
	var sources []string
	if fileExists(o.fs, proj.SourceDir) {
		if sources, err = scan.FindSources(o.fs, proj.SourceDir, proj.SourceExt, exclude); err != nil {
			return err
		}
	} else {
		logWarning(i18n.T("Source directory not found: %s"), proj.SourceDir)
	}
	usages, err := scan.Scan(o.fs, sources, acc)
	if err != nil {
		return err
	}

	m := plan.Build(usages, proj.Rules)
	logInfo(i18n.N("Found %d distinct localization key referenced in sources.",
		"Found %d distinct localization keys referenced in sources.", m.Len()), m.Len())
	for _, c := range m.Collisions() {
		logWarning(i18n.T("Keys %s all map to %q; the last one wins"), strings.Join(c.Keys, ", "), c.Output)
	}
	for _, k := range m.Unnamed() {
		e, _ := m.Get(k)
		logWarning(i18n.T("Key %q from %s yields an empty name; left unchanged"), k, proj.Rel(e.File))
	}
	for _, k := range m.Keys() {
		e, _ := m.Get(k)
		newKey, _ := m.Output(k)
		slog.Debug("key planned", "key", k, "output", newKey, "file", e.File, "segments", e.Segments)
	}

	paths, err := proj.ResourceFiles(o.fs)
	if err != nil {
		return err
	}
	resources, err := apply.LoadResources(o.fs, paths, func(path string, err error) {
		logWarning(i18n.T("Failed to parse %s: %v"), proj.Rel(path), err)
	})
	if err != nil {
		return err
	}

	changes, err := apply.Changes(o.fs, m, acc, resources)
	if err != nil {
		return err
	}
	if err := apply.Report(out, changes, apply.ReportOptions{Diff: o.diff, Rel: proj.Rel}); err != nil {
		return err
	}

	if !o.apply {
		fmt.Fprintln(out)
		logInfo(i18n.T("Dry run complete. Run with --apply to perform changes."))
		return nil
	}
	if len(changes) == 0 {
		logSuccess(i18n.T("Nothing to change."))
		return nil
	}

	return apply.Apply(o.fs, changes, apply.Options{
		Backup: o.backup,
		OnWrite: func(c apply.Change, backup string) {
			verb := i18n.T("Wrote")
			if c.Kind == apply.KindSource {
				verb = i18n.T("Updated")
			}
			if backup != "" {
				logSuccess(i18n.T("%s %s (backup: %s)"), verb, proj.Rel(c.Path), proj.Rel(backup))
			} else {
				logSuccess("%s %s", verb, proj.Rel(c.Path))
			}
		},
	})
}

// ---------------------------------------------------------------------------
// Logging
// ---------------------------------------------------------------------------

const (
	logMaxSizeMB  = 10
	logMaxBackups = 3
	logMaxAgeDays = 28
)

// configureLogger installs the default slog logger. Without a log file,
// records go to stderr and only warnings show unless verbose is set.
func configureLogger(logPath string, verbose bool) error {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}

	var w io.Writer = stderr
	if strings.TrimSpace(logPath) != "" {
		w = &lumberjack.Logger{
			Filename:   logPath,
			MaxSize:    logMaxSizeMB,
			MaxBackups: logMaxBackups,
			MaxAge:     logMaxAgeDays,
		}
		if !verbose {
			level = slog.LevelInfo
		}
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})))
	return nil
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

func fileExists(fsys afero.Fs, path string) bool {
	ok, err := afero.DirExists(fsys, path)
	return err == nil && ok
}
