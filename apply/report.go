package apply

import (
	"bytes"
	"fmt"
	"io"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/pmezard/go-difflib/difflib"

	"github.com/minios-linux/arbkeys/i18n"
)

// ReportOptions controls Report.
type ReportOptions struct {
	// Diff appends a unified diff per change.
	Diff bool
	// Rel shortens paths for display. Identity when nil.
	Rel func(string) string
}

// Report writes the planned changes to w without touching any file.
func Report(w io.Writer, changes []Change, opts ReportOptions) error {
	rel := opts.Rel
	if rel == nil {
		rel = func(p string) string { return p }
	}

	var resources, sources []Change
	for _, c := range changes {
		if c.Kind == KindResource {
			resources = append(resources, c)
		} else {
			sources = append(sources, c)
		}
	}

	fmt.Fprintln(w, i18n.T("Planned resource changes:"))
	if len(resources) == 0 {
		fmt.Fprintln(w, "  "+i18n.T("(none)"))
	} else {
		rows := make([][]string, 0, len(resources))
		for _, c := range resources {
			locale := c.Locale
			if locale == "" {
				locale = "-"
			}
			rows = append(rows, []string{rel(c.Path), locale, strconv.Itoa(c.Entries)})
		}
		header := []string{i18n.T("File"), i18n.T("Locale"), i18n.T("Entries")}
		align := []int{tablewriter.ALIGN_LEFT, tablewriter.ALIGN_LEFT, tablewriter.ALIGN_RIGHT}
		if err := renderTable(w, header, align, rows); err != nil {
			return err
		}
	}

	fmt.Fprintln(w, i18n.T("Planned source changes:"))
	if len(sources) == 0 {
		fmt.Fprintln(w, "  "+i18n.T("(none)"))
	} else {
		rows := make([][]string, 0, len(sources))
		for _, c := range sources {
			rows = append(rows, []string{rel(c.Path), strconv.Itoa(countChangedLines(c))})
		}
		header := []string{i18n.T("File"), i18n.T("Lines changed")}
		align := []int{tablewriter.ALIGN_LEFT, tablewriter.ALIGN_RIGHT}
		if err := renderTable(w, header, align, rows); err != nil {
			return err
		}
	}

	if !opts.Diff {
		return nil
	}
	for _, c := range changes {
		diff, err := Diff(c, rel(c.Path))
		if err != nil {
			return fmt.Errorf("diffing %s: %w", c.Path, err)
		}
		fmt.Fprint(w, diff)
	}
	return nil
}

// Diff renders a unified diff of c labelled with name.
func Diff(c Change, name string) (string, error) {
	return difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(string(c.Before)),
		B:        difflib.SplitLines(string(c.After)),
		FromFile: "a/" + name,
		ToFile:   "b/" + name,
		Context:  3,
	})
}

func renderTable(w io.Writer, header []string, align []int, rows [][]string) error {
	var buf bytes.Buffer
	table := tablewriter.NewWriter(&buf)
	table.SetHeader(header)
	table.SetBorder(false)
	table.SetCenterSeparator("")
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(false)
	table.SetColumnAlignment(align)
	table.AppendBulk(rows)
	table.Render()
	if _, err := w.Write(buf.Bytes()); err != nil {
		return fmt.Errorf("writing report: %w", err)
	}
	return nil
}

func countChangedLines(c Change) int {
	a := bytes.Split(c.Before, []byte("\n"))
	b := bytes.Split(c.After, []byte("\n"))
	// Source rewrites replace identifiers in place, so lines stay aligned.
	n := 0
	for i := 0; i < len(a) && i < len(b); i++ {
		if !bytes.Equal(a[i], b[i]) {
			n++
		}
	}
	if len(a) != len(b) {
		n += abs(len(a) - len(b))
	}
	return n
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
