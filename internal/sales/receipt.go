package sales

import (
	"bytes"
	"fmt"
	"strconv"

	"github.com/jung-kurt/gofpdf"
	"github.com/shopspring/decimal"

	"github.com/noah-isme/backend-salon/internal/store"
)

// Core PDF fonts have no rupee glyph.
const currencyLabel = "Rs. "

func money(d decimal.Decimal) string {
	return currencyLabel + d.StringFixed(2)
}

// RenderReceipt draws an A5 receipt for the sale.
func RenderReceipt(d Detail, settings store.Settings) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A5", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetTitle("Receipt "+d.InvoiceNumber, true)
	pdf.AddPage()

	name := settings.BusinessName
	if name == "" {
		name = "Salon"
	}
	pdf.SetFont("Arial", "B", 16)
	pdf.CellFormat(0, 8, tr(name), "", 1, "C", false, 0, "")
	pdf.SetFont("Arial", "", 9)
	if settings.GSTIN != nil && *settings.GSTIN != "" {
		pdf.CellFormat(0, 5, "GSTIN: "+*settings.GSTIN, "", 1, "C", false, 0, "")
	}
	pdf.Ln(3)

	pdf.SetFont("Arial", "", 10)
	pdf.CellFormat(0, 6, "Invoice: "+d.InvoiceNumber, "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 6, "Date: "+d.CreatedAt.Format("02 Jan 2006 15:04"), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 6, "Payment: "+d.PaymentMethod, "", 1, "L", false, 0, "")
	if d.Status == store.SaleStatusCancelled {
		pdf.SetTextColor(200, 0, 0)
		pdf.CellFormat(0, 6, "CANCELLED", "", 1, "L", false, 0, "")
		pdf.SetTextColor(0, 0, 0)
	}
	pdf.Ln(2)

	pdf.SetFont("Arial", "B", 9)
	pdf.CellFormat(60, 6, "Service", "B", 0, "L", false, 0, "")
	pdf.CellFormat(12, 6, "Qty", "B", 0, "R", false, 0, "")
	pdf.CellFormat(14, 6, "GST %", "B", 0, "R", false, 0, "")
	pdf.CellFormat(0, 6, "Amount", "B", 1, "R", false, 0, "")
	pdf.SetFont("Arial", "", 9)
	for _, it := range d.Items {
		label := it.ServiceName
		if it.Variant != "" {
			label += " (" + it.Variant + ")"
		}
		pdf.CellFormat(60, 6, tr(label), "", 0, "L", false, 0, "")
		pdf.CellFormat(12, 6, strconv.Itoa(int(it.Quantity)), "", 0, "R", false, 0, "")
		pdf.CellFormat(14, 6, it.TaxRate.String(), "", 0, "R", false, 0, "")
		pdf.CellFormat(0, 6, money(it.LineTotal), "", 1, "R", false, 0, "")
	}
	pdf.Ln(2)

	line := func(label string, v decimal.Decimal) {
		pdf.CellFormat(86, 6, label, "", 0, "R", false, 0, "")
		pdf.CellFormat(0, 6, money(v), "", 1, "R", false, 0, "")
	}
	line("Subtotal", d.Subtotal)
	if d.IGST.IsPositive() {
		line("IGST", d.IGST)
	} else {
		line("CGST", d.CGST)
		line("SGST", d.SGST)
	}
	if d.CouponDiscount.IsPositive() && d.CouponCode != nil {
		line(fmt.Sprintf("Coupon %s", *d.CouponCode), d.CouponDiscount.Neg())
	}
	if d.ManualDiscount.IsPositive() {
		line("Discount", d.ManualDiscount.Neg())
	}
	pdf.SetFont("Arial", "B", 11)
	line("Total", d.Total)

	pdf.Ln(6)
	pdf.SetFont("Arial", "I", 9)
	pdf.CellFormat(0, 5, "Thank you for visiting!", "", 1, "C", false, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render receipt: %w", err)
	}
	return buf.Bytes(), nil
}
