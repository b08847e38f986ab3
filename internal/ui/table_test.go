package ui

import (
	"strings"
	"testing"

	"github.com/muesli/reflow/ansi"
)

func TestTruncateTableCellCountsRunes(t *testing.T) {
	value := strings.Repeat("a", tableCellMaxWidth-1) + "é"

	got := TruncateTableCell(value)

	if got != value {
		t.Fatalf("expected value to remain untruncated, got %q", got)
	}
}

func TestTruncateTableCellAddsEllipsis(t *testing.T) {
	value := strings.Repeat("b", tableCellMaxWidth+10)

	got := TruncateTableCell(value)

	if ansi.PrintableRuneWidth(got) != tableCellMaxWidth || !strings.HasSuffix(got, tableCellEllipsis) {
		t.Fatalf("unexpected truncation %q", got)
	}
}

func TestTruncateTableCellNormalizesLineBreaks(t *testing.T) {
	value := "Hello\nWorld\r\nAgain\tTab"

	got := TruncateTableCell(value)

	if got != "Hello World Again Tab" {
		t.Fatalf("expected line breaks to normalize, got %q", got)
	}
}

func TestTruncateTableCellIgnoresANSICodes(t *testing.T) {
	value := "\x1b[1m\x1b[36m" + strings.Repeat("a", tableCellMaxWidth) + "\x1b[0m"

	got := TruncateTableCell(value)

	if got != value {
		t.Fatalf("expected value to remain untruncated, got %q", got)
	}
}

func TestFormatTableAlignsColumns(t *testing.T) {
	builder := NewTableBuilder([]string{"FIELD", "VALUE"}, 2)
	builder.AddRow("t_number", "T123")
	builder.AddRow("packager_mode", "sandbox")

	expected := "FIELD          VALUE\n" +
		"t_number       T123\n" +
		"packager_mode  sandbox\n"
	if got := builder.String(); got != expected {
		t.Fatalf("unexpected table:\n%q\nwant\n%q", got, expected)
	}
}

func TestFormatTableNormalizesLineBreaks(t *testing.T) {
	got := FormatTable([]string{"COL"}, [][]string{{"Hello\nWorld"}})

	expected := "COL\nHello World\n"
	if got != expected {
		t.Fatalf("expected normalized table output, got %q", got)
	}
}

func TestFormatTableIgnoresEscapeWidths(t *testing.T) {
	got := FormatTable([]string{"A", "B"}, [][]string{{"\x1b[32mok\x1b[0m", "x"}})

	lines := strings.Split(strings.TrimSuffix(got, "\n"), "\n")
	if ansi.PrintableRuneWidth(lines[0]) != ansi.PrintableRuneWidth(lines[1]) {
		t.Fatalf("expected aligned rows, got %q", got)
	}
}
