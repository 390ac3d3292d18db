package invoicing

import (
	"bytes"
	"fmt"

	"github.com/jung-kurt/gofpdf"
	"github.com/shopspring/decimal"

	"crewplan/internal/domain/core"
)

// RenderPDF lays the invoice out on A4. Core PDF fonts carry no Czech glyphs,
// so text is written without diacritics.
func RenderPDF(inv Invoice, project core.Project, worker core.Worker) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 16)
	pdf.Cell(0, 10, fold("Objednávka "+inv.InvoiceNumber))
	pdf.Ln(12)

	pdf.SetFont("Helvetica", "", 11)
	lines := []string{
		"Dodavatel: " + worker.FullName(),
		"Projekt: " + project.Name,
		"Místo: " + project.Location,
		"Datum vystavení: " + inv.IssueDate.Format("02.01.2006"),
		"Datum splatnosti: " + inv.DueDate.Format("02.01.2006"),
		"Stav: " + inv.Status.Label(),
	}
	for _, line := range lines {
		pdf.Cell(0, 6, fold(line))
		pdf.Ln(6)
	}
	pdf.Ln(6)

	widths := []float64{50, 55, 20, 15, 25, 25}
	headers := []string{"Pracovník", "Popis", "Množství", "Jedn.", "Cena/jedn.", "Celkem"}
	pdf.SetFont("Helvetica", "B", 9)
	for i, h := range headers {
		pdf.CellFormat(widths[i], 8, fold(h), "1", 0, "C", false, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 9)
	for _, item := range inv.Items {
		cells := []string{
			item.WorkerName,
			item.Description,
			decimal.NewFromFloat(item.Quantity).String(),
			item.Unit,
			money(item.UnitPrice),
			money(item.TotalPrice),
		}
		for i, c := range cells {
			align := "L"
			if i >= 2 && i != 3 {
				align = "R"
			}
			pdf.CellFormat(widths[i], 7, fold(c), "1", 0, align, false, 0, "")
		}
		pdf.Ln(-1)
	}
	if inv.OtherCostsComment != "" {
		pdf.Ln(2)
		pdf.MultiCell(0, 5, fold("Ostatní náklady: "+inv.OtherCostsComment), "", "L", false)
	}

	pdf.Ln(6)
	pdf.SetFont("Helvetica", "B", 11)
	summary := [][2]string{
		{"Celkem bez DPH:", money(inv.TotalAmount)},
		{"DPH:", money(inv.VATAmount)},
		{"Celkem s DPH:", money(inv.TotalWithVAT)},
	}
	for _, row := range summary {
		pdf.Cell(150, 8, fold(row[0]))
		pdf.CellFormat(40, 8, row[1], "", 1, "R", false, 0, "")
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func money(v float64) string {
	return fmt.Sprintf("%s CZK", decimal.NewFromFloat(v).StringFixed(2))
}
