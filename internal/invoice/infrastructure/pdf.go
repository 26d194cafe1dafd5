package infrastructure

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/jung-kurt/gofpdf"
	"github.com/shopspring/decimal"
	"github.com/venturecrest/angelnet/internal/invoice/domain"
)

var two = decimal.NewFromInt(2)

// GofpdfRenderer 发票 PDF 渲染器
type GofpdfRenderer struct {
	outputDir string
}

func NewGofpdfRenderer(outputDir string) (*GofpdfRenderer, error) {
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return nil, fmt.Errorf("create invoice dir: %w", err)
	}
	return &GofpdfRenderer{outputDir: outputDir}, nil
}

// Render 生成发票 PDF 并返回文件路径
func (r *GofpdfRenderer) Render(invoice *domain.Invoice, sellerName, sellerAddress, sellerGSTIN string) (string, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 18)
	pdf.Cell(0, 10, "TAX INVOICE")
	pdf.Ln(12)

	pdf.SetFont("Arial", "", 11)
	pdf.Cell(0, 6, "Invoice No: "+invoice.InvoiceNumber)
	pdf.Ln(6)
	pdf.Cell(0, 6, "Date: "+invoice.IssuedAt.Format("02 Jan 2006"))
	pdf.Ln(10)

	pdf.SetFont("Arial", "B", 12)
	pdf.Cell(95, 6, "Seller")
	pdf.Cell(95, 6, "Buyer")
	pdf.Ln(7)

	pdf.SetFont("Arial", "", 10)
	pdf.Cell(95, 5, sellerName)
	pdf.Cell(95, 5, invoice.BuyerName)
	pdf.Ln(5)
	pdf.Cell(95, 5, sellerAddress)
	pdf.Cell(95, 5, invoice.BuyerAddress)
	pdf.Ln(5)
	pdf.Cell(95, 5, "GSTIN: "+sellerGSTIN)
	if invoice.BuyerGSTIN != "" {
		pdf.Cell(95, 5, "GSTIN: "+invoice.BuyerGSTIN)
	}
	pdf.Ln(12)

	pdf.SetFont("Arial", "B", 10)
	pdf.SetFillColor(230, 230, 230)
	pdf.CellFormat(140, 7, "Description", "1", 0, "L", true, 0, "")
	pdf.CellFormat(50, 7, "Amount (INR)", "1", 1, "R", true, 0, "")

	pdf.SetFont("Arial", "", 10)
	var items []domain.LineItem
	if err := json.Unmarshal(invoice.LineItems, &items); err != nil {
		return "", fmt.Errorf("decode line items: %w", err)
	}
	for _, item := range items {
		pdf.CellFormat(140, 7, item.Description, "1", 0, "L", false, 0, "")
		pdf.CellFormat(50, 7, item.Amount.StringFixed(2), "1", 1, "R", false, 0, "")
	}

	writeTotal := func(label, value string, bold bool) {
		if bold {
			pdf.SetFont("Arial", "B", 10)
		} else {
			pdf.SetFont("Arial", "", 10)
		}
		pdf.CellFormat(140, 7, label, "1", 0, "R", false, 0, "")
		pdf.CellFormat(50, 7, value, "1", 1, "R", false, 0, "")
	}

	writeTotal("Subtotal", invoice.Subtotal.StringFixed(2), false)
	if invoice.IGST.IsPositive() {
		writeTotal(fmt.Sprintf("IGST @ %s%%", invoice.GSTRate.String()), invoice.IGST.StringFixed(2), false)
	} else {
		half := invoice.GSTRate.Div(two)
		writeTotal(fmt.Sprintf("CGST @ %s%%", half.String()), invoice.CGST.StringFixed(2), false)
		writeTotal(fmt.Sprintf("SGST @ %s%%", half.String()), invoice.SGST.StringFixed(2), false)
	}
	writeTotal("Total", invoice.Total.StringFixed(2), true)

	path := filepath.Join(r.outputDir, invoice.InvoiceNumber+".pdf")
	if err := pdf.OutputFileAndClose(path); err != nil {
		return "", fmt.Errorf("write invoice pdf: %w", err)
	}
	return path, nil
}
