package reports

import (
	"fmt"
	"io"

	"github.com/jung-kurt/gofpdf"
)

// WriteDetailedPDF renders a reviewee report onto w.
func WriteDetailedPDF(w io.Writer, report DetailedReport) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 16)
	pdf.Cell(0, 10, tr("360 Feedback Report"))
	pdf.Ln(12)

	pdf.SetFont("Helvetica", "", 11)
	pdf.Cell(0, 7, tr(fmt.Sprintf("Reviewee: %s <%s>", report.Reviewee.Name, report.Reviewee.Email)))
	pdf.Ln(6)
	pdf.Cell(0, 7, tr(fmt.Sprintf("Cycle: %s (%s to %s)", report.ReviewCycle.Name,
		report.ReviewCycle.StartDate.Format("2006-01-02"), report.ReviewCycle.EndDate.Format("2006-01-02"))))
	pdf.Ln(6)
	pdf.Cell(0, 7, fmt.Sprintf("Overall average: %.2f from %d responses", report.OverallAverage, report.TotalFeedbacks))
	pdf.Ln(10)

	if len(report.Categories) == 0 {
		pdf.Cell(0, 7, "No feedback submitted yet.")
	}
	for _, category := range report.Categories {
		pdf.SetFont("Helvetica", "B", 13)
		pdf.Cell(0, 8, tr(fmt.Sprintf("%s  %.2f", category.CategoryName, category.AverageScore)))
		pdf.Ln(8)

		pdf.SetFont("Helvetica", "", 10)
		for _, relation := range category.RelationTypes {
			pdf.Cell(0, 6, fmt.Sprintf("%s: %.2f (%d)", relation.RelationType, relation.AverageScore, relation.Count))
			pdf.Ln(5)
		}
		pdf.Ln(2)

		for _, question := range category.Questions {
			pdf.SetFont("Helvetica", "B", 10)
			pdf.MultiCell(0, 5, tr(question.Text), "", "L", false)
			pdf.SetFont("Helvetica", "", 10)
			for _, entry := range question.Feedback {
				line := fmt.Sprintf("  [%s] %d/5", entry.RelationType, entry.Score)
				if entry.Comment != "" {
					line += " - " + entry.Comment
				}
				pdf.MultiCell(0, 5, tr(line), "", "L", false)
			}
			pdf.Ln(2)
		}
		pdf.Ln(4)
	}

	return pdf.Output(w)
}
