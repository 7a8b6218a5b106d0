package notify

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/alejandrodnm/signalroom/internal/domain"
	"github.com/olekukonko/tablewriter"
	"github.com/shopspring/decimal"
)

// Console implementa ports.Reporter.
type Console struct {
	out   io.Writer
	table bool
}

// NewConsole crea un reporter que escribe a stdout.
func NewConsole(table bool) *Console {
	return &Console{out: os.Stdout, table: table}
}

// NewConsoleWriter crea un reporter para tests.
func NewConsoleWriter(w io.Writer, table bool) *Console {
	return &Console{out: w, table: table}
}

// Report imprime el reporte en el modo configurado.
func (c *Console) Report(_ context.Context, r domain.Report) error {
	if r.Snapshot.Empty() {
		fmt.Fprintf(c.out, "[%s] no operations found in %s (%d messages read)\n",
			r.GeneratedAt.Format("15:04:05"), r.Range, r.Messages)
		c.printWarnings(r)
		return nil
	}

	if c.table {
		c.printFull(r)
	} else {
		c.printCompact(r)
	}
	return nil
}

// printCompact imprime lo esencial en una línea.
func (c *Console) printCompact(r domain.Report) {
	s := r.Snapshot

	var sb strings.Builder
	fmt.Fprintf(&sb, "[%s] %s | sig:%d ops:%d W:%d/%d/%d S:%d | acc %.1f%% no-gale %.1f%% | net %s",
		r.GeneratedAt.Format("15:04:05"), r.Range,
		s.Signals, s.TotalOperations(),
		s.WinDirect, s.WinGale1, s.WinGale2, s.Stops,
		s.OverallAccuracy, s.AccuracyNoGale,
		money(s.PnL.Net))

	for _, w := range r.Warnings() {
		fmt.Fprintf(&sb, "\n  >> %s", w)
	}
	fmt.Fprintln(c.out, sb.String())
}

// printFull imprime el reporte completo con todas las tablas.
func (c *Console) printFull(r domain.Report) {
	s := r.Snapshot

	fmt.Fprintf(c.out, "\n========================================================\n")
	fmt.Fprintf(c.out, "  SIGNAL ROOM REPORT  %s\n", r.Range)
	if !s.FirstAt.IsZero() {
		fmt.Fprintf(c.out, "  %s to %s\n",
			s.FirstAt.Format("2006-01-02 15:04"), s.LastAt.Format("2006-01-02 15:04"))
	}
	fmt.Fprintf(c.out, "  %d messages read, %d classified\n", r.Messages, r.Classified)
	fmt.Fprintf(c.out, "========================================================\n\n")

	c.printHeadline(s)
	c.printPnL(s.PnL)
	c.printFunnel(s)
	c.printBreakdowns(s)
	c.printRecent(r.Recent)
	c.printWarnings(r)
	fmt.Fprintln(c.out)
}

func (c *Console) printHeadline(s domain.Snapshot) {
	tbl := tablewriter.NewWriter(c.out)
	tbl.Header("Signals", "Ops", "Win", "Win G1", "Win G2", "Stop", "Accuracy", "No gale", "G1 use", "G2 use")
	tbl.Append(
		fmt.Sprintf("%d", s.Signals),
		fmt.Sprintf("%d", s.TotalOperations()),
		fmt.Sprintf("%d", s.WinDirect),
		fmt.Sprintf("%d", s.WinGale1),
		fmt.Sprintf("%d", s.WinGale2),
		fmt.Sprintf("%d", s.Stops),
		pct(s.OverallAccuracy),
		pct(s.AccuracyNoGale),
		pct(s.Gale1Usage),
		pct(s.Gale2Usage),
	)
	tbl.Render()

	fmt.Fprintf(c.out, "  Recovery G1: %s  G2: %s  combined: %s\n\n",
		pct(s.RecoveryG1), pct(s.RecoveryG2), pct(s.RecoveryCombined))
}

func (c *Console) printPnL(p domain.PnL) {
	fmt.Fprintf(c.out, "  --- P&L ---\n")
	tbl := tablewriter.NewWriter(c.out)
	tbl.Header("Outcome", "Per op", "Total")
	tbl.Append("Direct win", money(p.UnitDirect), money(p.Direct))
	tbl.Append("Win G1", money(p.UnitGale1), money(p.Gale1))
	tbl.Append("Win G2", money(p.UnitGale2), money(p.Gale2))
	tbl.Append("Stop", money(p.UnitStop), money(p.Stops))
	tbl.Append("Net", "", money(p.Net))
	tbl.Render()
	fmt.Fprintln(c.out)
}

func (c *Console) printFunnel(s domain.Snapshot) {
	fmt.Fprintf(c.out, "  --- MARTINGALE FUNNEL ---\n")
	tbl := tablewriter.NewWriter(c.out)
	tbl.Header("Stage", "Entered", "Won", "Won %", "Escalated", "Escalated %")
	for _, st := range s.Funnel.Stages() {
		tbl.Append(
			st.Name,
			fmt.Sprintf("%d", st.Entered),
			fmt.Sprintf("%d", st.Resolved),
			pct(st.ResolvedPct),
			fmt.Sprintf("%d", st.Escalated),
			pct(st.EscalatedPct),
		)
	}
	tbl.Render()

	if len(s.GaleEfficacy) > 0 {
		eff := tablewriter.NewWriter(c.out)
		eff.Header("Level", "Attempts", "Wins", "Rate")
		for _, l := range s.GaleEfficacy {
			eff.Append(l.Label, fmt.Sprintf("%d", l.Attempts), fmt.Sprintf("%d", l.Wins), pct(l.Rate))
		}
		eff.Render()
	}
	fmt.Fprintln(c.out)
}

func (c *Console) printBreakdowns(s domain.Snapshot) {
	if len(s.ByInstrument) > 0 {
		fmt.Fprintf(c.out, "  --- BY PAIR ---\n")
		tbl := tablewriter.NewWriter(c.out)
		tbl.Header("Pair", "Ops", "Wins", "Losses", "Accuracy")
		for _, is := range s.ByInstrument {
			tbl.Append(outcomeRow(is.Instrument, is.OutcomeStats)...)
		}
		tbl.Render()
	}

	if len(s.ByDay) > 0 {
		fmt.Fprintf(c.out, "  --- BY DAY ---\n")
		tbl := tablewriter.NewWriter(c.out)
		tbl.Header("Day", "Ops", "Wins", "Losses", "Accuracy")
		for _, d := range s.ByDay {
			tbl.Append(outcomeRow(d.Day.Format(domain.DateLayout), d.OutcomeStats)...)
		}
		tbl.Render()
	}

	if len(s.ByHour) > 0 {
		fmt.Fprintf(c.out, "  --- SIGNALS BY HOUR ---\n")
		tbl := tablewriter.NewWriter(c.out)
		tbl.Header("Hour", "Signals", "")
		for _, h := range s.ByHour {
			tbl.Append(fmt.Sprintf("%02d:00", h.Hour), fmt.Sprintf("%d", h.Signals), bar(h.Signals, s.Signals))
		}
		tbl.Render()
	}

	d := s.Directions
	fmt.Fprintf(c.out, "  Directions: CALL %d (%s)  PUT %d (%s)  unknown %d\n\n",
		d.Call, pct(d.CallPct()), d.Put, pct(d.PutPct()), d.Unknown)
}

func (c *Console) printRecent(recent []domain.Event) {
	if len(recent) == 0 {
		return
	}
	fmt.Fprintf(c.out, "  --- RECENT OPERATIONS ---\n")
	tbl := tablewriter.NewWriter(c.out)
	tbl.Header("Time", "", "Type", "Pair", "Dir", "Gale", "Result")
	for _, ev := range recent {
		dir := "-"
		if d, ok := domain.DirectionOf(ev); ok {
			dir = string(d)
		}
		result := string(ev.Result())
		if result == "" {
			result = "-"
		}
		tbl.Append(
			ev.Time().Format("01-02 15:04"),
			ev.Kind().Icon(),
			ev.Kind().String(),
			ev.Instrument(),
			dir,
			fmt.Sprintf("%d", ev.GaleLevel()),
			result,
		)
	}
	tbl.Render()
	fmt.Fprintln(c.out)
}

func (c *Console) printWarnings(r domain.Report) {
	for _, w := range r.Warnings() {
		fmt.Fprintf(c.out, "  ⚠ %s\n", w)
	}
	for i, sk := range r.Skipped {
		if i >= 5 {
			fmt.Fprintf(c.out, "    ... and %d more\n", len(r.Skipped)-i)
			break
		}
		fmt.Fprintf(c.out, "    %s:%d %s\n", sk.Source, sk.Line, sk.Reason)
	}
}

// --- helpers ---

func outcomeRow(label string, o domain.OutcomeStats) []any {
	return []any{
		label,
		fmt.Sprintf("%d", o.Total),
		fmt.Sprintf("%d", o.Wins),
		fmt.Sprintf("%d", o.Losses),
		pct(o.Accuracy),
	}
}

func pct(v float64) string {
	return fmt.Sprintf("%.1f%%", v)
}

// money formatea con signo explícito: +9.00, -70.00.
func money(d decimal.Decimal) string {
	if d.IsNegative() {
		return d.StringFixed(2)
	}
	return "+" + d.StringFixed(2)
}

func bar(n, total int) string {
	if total <= 0 || n <= 0 {
		return ""
	}
	width := n * 30 / total
	if width == 0 {
		width = 1
	}
	return strings.Repeat("█", width)
}
