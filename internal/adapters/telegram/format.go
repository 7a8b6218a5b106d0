package telegram

import (
	"fmt"
	"strings"

	"github.com/alejandrodnm/signalroom/internal/domain"
)

// FormatSummary arma el resumen del reporte en MarkdownV2.
func FormatSummary(r domain.Report) string {
	var b strings.Builder
	fmt.Fprintf(&b, "📊 *Signal room* %s\n\n", escapeMarkdownV2(r.Range.String()))

	s := r.Snapshot
	if s.Empty() {
		b.WriteString(escapeMarkdownV2(fmt.Sprintf("No operations (%d messages read)", r.Messages)))
		b.WriteString("\n")
		writeWarnings(&b, r)
		return b.String()
	}

	lines := []string{
		fmt.Sprintf("📡 Signals: %d | Ops: %d", s.Signals, s.TotalOperations()),
		fmt.Sprintf("✅ Wins: %d / %d / %d (direct / G1 / G2)", s.WinDirect, s.WinGale1, s.WinGale2),
		fmt.Sprintf("❌ Stops: %d", s.Stops),
		fmt.Sprintf("🎯 Accuracy: %.1f%% | No gale: %.1f%%", s.OverallAccuracy, s.AccuracyNoGale),
		fmt.Sprintf("🔁 Recovery G1: %.1f%% | G2: %.1f%%", s.RecoveryG1, s.RecoveryG2),
	}
	for _, line := range lines {
		b.WriteString(escapeMarkdownV2(line))
		b.WriteString("\n")
	}

	net := s.PnL.Net.StringFixed(2)
	if !s.PnL.Net.IsNegative() {
		net = "+" + net
	}
	fmt.Fprintf(&b, "💰 Net: *%s*\n", escapeMarkdownV2(net))

	if top := bestInstrument(s.ByInstrument); top != nil {
		line := fmt.Sprintf("🏆 Best pair: %s %.1f%% (%d ops)", top.Instrument, top.Accuracy, top.Total)
		b.WriteString(escapeMarkdownV2(line))
		b.WriteString("\n")
	}

	writeWarnings(&b, r)
	return b.String()
}

func writeWarnings(b *strings.Builder, r domain.Report) {
	for _, w := range r.Warnings() {
		b.WriteString("⚠️ ")
		b.WriteString(escapeMarkdownV2(w))
		b.WriteString("\n")
	}
}

// bestInstrument elige el par con mejor acierto; a igualdad, el de más operaciones.
func bestInstrument(stats []domain.InstrumentStats) *domain.InstrumentStats {
	var best *domain.InstrumentStats
	for i := range stats {
		s := &stats[i]
		if s.Instrument == domain.UnknownInstrument || s.Total == 0 {
			continue
		}
		if best == nil || s.Accuracy > best.Accuracy ||
			(s.Accuracy == best.Accuracy && s.Total > best.Total) {
			best = s
		}
	}
	return best
}

// escapeMarkdownV2 escapa los caracteres especiales de MarkdownV2.
func escapeMarkdownV2(text string) string {
	var b strings.Builder
	b.Grow(len(text) + len(text)/4)
	for _, char := range text {
		switch char {
		case '_', '*', '[', ']', '(', ')', '~', '`', '>', '#', '+', '-', '=', '|', '{', '}', '.', '!', '\\':
			b.WriteByte('\\')
		}
		b.WriteRune(char)
	}
	return b.String()
}
