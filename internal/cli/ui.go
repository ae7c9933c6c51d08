package cli

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/rodaine/table"
	"github.com/schollz/progressbar/v3"

	"github.com/chazuruo/n8n-backup/internal/backup"
	"github.com/chazuruo/n8n-backup/internal/resource"
)

// Status symbols.
const (
	symOK    = "✓"
	symWarn  = "⚠"
	symErr   = "✗"
	symArrow = "→"
)

// ui renders the human-facing parts of a run: banner, step lines,
// progress and the summary table. Log messages go through the logger.
type ui struct {
	out      io.Writer
	errOut   io.Writer
	quiet    bool
	progress bool

	bannerStyle lipgloss.Style
	titleStyle  lipgloss.Style
	stepStyle   lipgloss.Style
	okStyle     lipgloss.Style
	warnStyle   lipgloss.Style
	dimStyle    lipgloss.Style
	headerStyle lipgloss.Style
}

func newUI(out, errOut io.Writer, color, quiet, verbose bool) *ui {
	r := lipgloss.NewRenderer(out)
	if color {
		r.SetColorProfile(termenv.ANSI256)
	} else {
		r.SetColorProfile(termenv.Ascii)
	}

	return &ui{
		out:    out,
		errOut: errOut,
		quiet:  quiet,
		// The bar would interleave with debug lines.
		progress: !quiet && !verbose && isTerminal(errOut),

		bannerStyle: r.NewStyle().
			Border(lipgloss.NormalBorder()).
			BorderForeground(lipgloss.Color("51")).
			Padding(0, 4),
		titleStyle:  r.NewStyle().Bold(true).Foreground(lipgloss.Color("51")),
		stepStyle:   r.NewStyle().Foreground(lipgloss.Color("51")),
		okStyle:     r.NewStyle().Foreground(lipgloss.Color("46")),
		warnStyle:   r.NewStyle().Foreground(lipgloss.Color("226")),
		dimStyle:    r.NewStyle().Faint(true),
		headerStyle: r.NewStyle().Bold(true).Underline(true),
	}
}

func (u *ui) println(s string) {
	if u.quiet {
		return
	}
	fmt.Fprintln(u.out, s)
}

func (u *ui) banner() {
	u.println(u.bannerStyle.Render(u.titleStyle.Render("n8n Backup CLI")))
}

func (u *ui) step(format string, args ...any) {
	u.println(u.stepStyle.Render(symArrow + " " + fmt.Sprintf(format, args...)))
}

func (u *ui) info(format string, args ...any) {
	u.println(u.stepStyle.Render(fmt.Sprintf(format, args...)))
}

func (u *ui) done(format string, args ...any) {
	u.println(u.okStyle.Render(symOK + " " + fmt.Sprintf(format, args...)))
}

// progressHook returns the workflow progress callback. The bar is created
// on the first call, once the total is known.
func (u *ui) progressHook() backup.ProgressHook {
	if !u.progress {
		return nil
	}
	var bar *progressbar.ProgressBar
	return func(done, total int) {
		if bar == nil {
			bar = progressbar.NewOptions(total,
				progressbar.OptionSetWriter(u.errOut),
				progressbar.OptionSetDescription("workflows"),
				progressbar.OptionShowCount(),
				progressbar.OptionClearOnFinish(),
			)
		}
		_ = bar.Set(done)
		if done == total {
			_ = bar.Finish()
		}
	}
}

// summary prints one row per kind: the count in the manifest and whether
// the kind was exported, skipped or not selected.
func (u *ui) summary(sel resource.Selection, m backup.Manifest, skipped map[resource.Kind]error) {
	if u.quiet {
		return
	}

	tbl := table.New("Resource", "Count", "Status").WithWriter(u.out)
	tbl.WithHeaderFormatter(func(format string, vals ...interface{}) string {
		return u.headerStyle.Render(fmt.Sprintf(format, vals...))
	})

	for _, kind := range resource.All {
		status := u.okStyle.Render(symOK + " exported")
		switch {
		case !sel.Includes(kind):
			status = u.dimStyle.Render("not selected")
		case skipped[kind] != nil:
			status = u.warnStyle.Render(symWarn + " skipped")
		}
		tbl.AddRow(kind.String(), m.Counts.Get(kind), status)
	}
	tbl.Print()
}
