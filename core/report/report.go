// Package report renders a student's results into a printable report card.
package report

import (
	"bytes"
	"fmt"

	"github.com/jung-kurt/gofpdf"
	"github.com/pkg/errors"

	"github.com/trezcool/matokeo/core/academic"
)

// Layout in points on an A4 portrait page (595.28 x 841.89).
const (
	leftMargin   = 100.0
	topMargin    = 42.0
	titleGap     = 30.0
	lineStep     = 20.0
	bottomMargin = 60.0

	pageHeight = 841.89

	unknownSubject = "Unknown Subject"
	noResultsLine  = "No results available."
)

// Render produces the finalized PDF byte stream for the student's report
// card: a title line, then one line per result in the order given. Lines
// overflowing the bottom margin continue on a new page.
func Render(st academic.Student, results []academic.Result) ([]byte, error) {
	pdf := gofpdf.New("P", "pt", "A4", "")
	pdf.SetAutoPageBreak(false, 0)
	pdf.AddPage()

	y := topMargin
	pdf.SetFont("Helvetica", "B", 14)
	pdf.Text(leftMargin, y, fmt.Sprintf("Report Card for %s (%s)", st.Name, st.RollNo))
	y += titleGap

	pdf.SetFont("Helvetica", "", 12)
	for _, line := range resultLines(results) {
		pdf.Text(leftMargin, y, line)
		y += lineStep
		if y > pageHeight-bottomMargin {
			pdf.AddPage()
			y = topMargin
		}
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, errors.Wrap(err, "writing pdf")
	}
	return buf.Bytes(), nil
}

func resultLines(results []academic.Result) []string {
	if len(results) == 0 {
		return []string{noResultsLine}
	}
	lines := make([]string, 0, len(results))
	for _, res := range results {
		name := res.SubjectName
		if name == "" {
			name = unknownSubject
		}
		lines = append(lines, fmt.Sprintf("%s: %d", name, res.Marks))
	}
	return lines
}
