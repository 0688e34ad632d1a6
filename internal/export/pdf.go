// Package export renders a snapshot into printable reports.
package export

import (
	"fmt"
	"io"
	"os"

	"github.com/dmehra2102/tasklists/internal/domain"
	"github.com/jung-kurt/gofpdf"
)

const dateLayout = "2006-01-02 15:04"

// PDF writes every list and its tasks to w as an A4 report
func PDF(snap *domain.Snapshot, w io.Writer) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.AddPage()
	pdf.SetFont("Arial", "B", 16)
	pdf.Cell(40, 10, "Task Lists")
	pdf.Ln(14)

	for _, l := range snap.Lists {
		pdf.SetFont("Arial", "B", 13)
		pdf.Cell(0, 8, tr(fmt.Sprintf("%s (%d/%d done)", l.Name, l.CompletedCount(), len(l.Tasks))))
		pdf.Ln(9)

		pdf.SetFont("Arial", "", 10)
		if len(l.Tasks) == 0 {
			pdf.SetTextColor(128, 128, 128)
			pdf.MultiCell(0, 6, "    no tasks", "0", "L", false)
			pdf.SetTextColor(0, 0, 0)
		}
		for _, t := range l.Tasks {
			mark := "[ ]"
			line := t.Text
			if t.Completed {
				mark = "[x]"
				if t.CompletedDate != nil {
					line = fmt.Sprintf("%s  (done %s)", t.Text, t.CompletedDate.Local().Format(dateLayout))
				}
			}
			pdf.MultiCell(0, 6, tr(fmt.Sprintf("    %s %s", mark, line)), "0", "L", false)
		}
		pdf.Ln(4)
	}

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("failed to render pdf: %w", err)
	}
	return nil
}

// PDFFile renders the report into the file at path
func PDFFile(snap *domain.Snapshot, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := PDF(snap, f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
