package report

import (
	"fmt"
	"io"
	"strings"
)

// Row is a header or data row of text cells.
type Row struct {
	Cells  []Text
	Header bool
}

// DataRow builds a data row from strings.
func DataRow(cells ...string) Row {
	return Row{Cells: plains(cells)}
}

// HeaderRow builds a header row from strings.
func HeaderRow(cells ...string) Row {
	return Row{Cells: plains(cells), Header: true}
}

// Table is an ordered list of rows.
type Table struct {
	Rows []Row
}

// Sink accepts a rendered-agnostic report table.
type Sink interface {
	WriteTable(t Table) error
}

// TextSink writes one line per row, cells separated by tabs. Header rows are
// underlined.
type TextSink struct {
	w io.Writer
}

// NewTextSink creates a TextSink writing to w.
func NewTextSink(w io.Writer) *TextSink {
	return &TextSink{w: w}
}

func (s *TextSink) WriteTable(t Table) error {
	for _, row := range t.Rows {
		line := joinCells(row.Cells, Text.PlainText, "\t")
		if _, err := fmt.Fprintln(s.w, line); err != nil {
			return err
		}
		if row.Header {
			if _, err := fmt.Fprintln(s.w, strings.Repeat("-", len(line))); err != nil {
				return err
			}
		}
	}
	return nil
}

// HTMLSink writes the table as a single-line HTML table.
type HTMLSink struct {
	w io.Writer
}

// NewHTMLSink creates an HTMLSink writing to w.
func NewHTMLSink(w io.Writer) *HTMLSink {
	return &HTMLSink{w: w}
}

func (s *HTMLSink) WriteTable(t Table) error {
	_, err := io.WriteString(s.w, RenderHTML(t))
	return err
}

// RenderHTML renders t without newlines, ready to embed in a message.
func RenderHTML(t Table) string {
	var b strings.Builder
	b.WriteString(`<table class="table table-striped condensed"><tbody>`)
	for _, row := range t.Rows {
		tag := "td"
		if row.Header {
			tag = "th"
		}
		b.WriteString("<tr>")
		for _, c := range row.Cells {
			fmt.Fprintf(&b, "<%s>%s</%s>", tag, c.HTML(), tag)
		}
		b.WriteString("</tr>")
	}
	b.WriteString("</tbody></table>")
	return b.String()
}

// RenderText renders t as plain text, one row per line.
func RenderText(t Table) string {
	var b strings.Builder
	_ = NewTextSink(&b).WriteTable(t)
	return b.String()
}

func joinCells(cells []Text, render func(Text) string, sep string) string {
	out := make([]string, len(cells))
	for i, c := range cells {
		out[i] = render(c)
	}
	return strings.Join(out, sep)
}

func plains(cells []string) []Text {
	out := make([]Text, len(cells))
	for i, c := range cells {
		out[i] = Plain(c)
	}
	return out
}
