// Package export renders analysis results for download.
package export

import (
	"fmt"
	"io"

	"betweenlines/analyzer"

	"github.com/go-pdf/fpdf"
)

// WritePDF renders the analysis as a one-page report.
func WritePDF(w io.Writer, result *analyzer.Result) error {
	pdf := fpdf.New("P", "mm", "A4", "")
	// core fonts are latin-1; translate what we can, drop the rest
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 18)
	pdf.CellFormat(0, 10, "BetweenLines Chat Analysis", "", 1, "C", false, 0, "")

	pdf.SetFont("Helvetica", "", 11)
	pdf.CellFormat(0, 7, tr(fmt.Sprintf("%s vs %s", result.You, result.Them)), "", 1, "C", false, 0, "")
	pdf.CellFormat(0, 6, fmt.Sprintf("%d messages analyzed - generated %s",
		result.MessageCount, result.GeneratedAt.Format("2006-01-02 15:04 UTC")), "", 1, "C", false, 0, "")
	pdf.Ln(4)

	// role table header
	pdf.SetFont("Helvetica", "B", 10)
	pdf.SetFillColor(230, 230, 230)
	pdf.CellFormat(50, 8, "Role", "1", 0, "L", true, 0, "")
	pdf.CellFormat(25, 8, tr(result.You), "1", 0, "C", true, 0, "")
	pdf.CellFormat(25, 8, tr(result.Them), "1", 1, "C", true, 0, "")

	pdf.SetFont("Helvetica", "", 10)
	for _, role := range result.Roles {
		pdf.CellFormat(50, 8, role.Name, "1", 0, "L", false, 0, "")
		pdf.CellFormat(25, 8, fmt.Sprintf("%.1f%%", role.YouPct), "1", 0, "C", false, 0, "")
		pdf.CellFormat(25, 8, fmt.Sprintf("%.1f%%", role.ThemPct), "1", 1, "C", false, 0, "")
	}
	pdf.Ln(6)

	pdf.SetFont("Helvetica", "B", 12)
	pdf.CellFormat(0, 8, "Explanations", "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	for _, role := range result.Roles {
		pdf.SetFont("Helvetica", "B", 10)
		pdf.CellFormat(0, 6, role.Name, "", 1, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 10)
		pdf.MultiCell(0, 5, tr(role.Explanation), "", "L", false)
		pdf.Ln(2)
	}

	return pdf.Output(w)
}
