package fulfillment

import (
	"bytes"
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/jung-kurt/gofpdf"
	"github.com/skip2/go-qrcode"

	"github.com/iliyamo/cinema-screenings/internal/model"
)

// Renderer produces the invoice document.
type Renderer interface {
	RenderInvoice(ctx context.Context, inv Invoice) ([]byte, error)
}

// PDFRenderer renders invoices as A4 PDFs with a QR code carrying the
// invoice number and reservation id.
type PDFRenderer struct {
	// CinemaName is printed in the header.
	CinemaName string
	// DateLayout formats the screening and issue dates, which are printed
	// in the zone they carry.  Empty means model.DateLayout.
	DateLayout string
	// QRSize is the QR code edge in pixels; zero disables the code.
	QRSize int
}

// NewPDFRenderer returns a renderer with sensible defaults.
func NewPDFRenderer(cinemaName string) *PDFRenderer {
	return &PDFRenderer{CinemaName: cinemaName, DateLayout: model.DateLayout, QRSize: 256}
}

// RenderInvoice implements Renderer.
func (r *PDFRenderer) RenderInvoice(ctx context.Context, inv Invoice) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	layout := r.DateLayout
	if layout == "" {
		layout = model.DateLayout
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetTitle("Invoice "+inv.Number, true)
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 18)
	pdf.CellFormat(0, 10, tr(r.CinemaName), "", 1, "L", false, 0, "")
	pdf.SetFont("Arial", "", 11)
	pdf.CellFormat(0, 6, "Invoice "+inv.Number, "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 6, "Issued "+inv.IssuedAt.Format(layout), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 6, "Reservation #"+strconv.FormatUint(inv.ReservationID, 10), "", 1, "L", false, 0, "")
	pdf.Ln(4)

	pdf.SetFont("Arial", "B", 12)
	pdf.CellFormat(0, 7, "Billed to", "", 1, "L", false, 0, "")
	pdf.SetFont("Arial", "", 11)
	pdf.CellFormat(0, 6, tr(inv.Client.Name), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 6, inv.Client.Email, "", 1, "L", false, 0, "")
	pdf.Ln(4)

	pdf.SetFont("Arial", "B", 12)
	pdf.CellFormat(0, 7, "Screening", "", 1, "L", false, 0, "")
	pdf.SetFont("Arial", "", 11)
	pdf.CellFormat(0, 6, tr(inv.Screening.MovieTitle), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 6, tr(fmt.Sprintf("%s, %s", inv.Screening.RoomName, inv.Screening.Date.Format(layout))), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 6, "Seats: "+seatList(inv), "", 1, "L", false, 0, "")
	pdf.Ln(6)

	// line items
	pdf.SetFont("Arial", "B", 11)
	pdf.SetFillColor(230, 230, 230)
	widths := []float64{70, 30, 40, 40}
	for i, h := range []string{"Ticket", "Qty", "Unit price", "Amount"} {
		pdf.CellFormat(widths[i], 8, h, "1", 0, "C", true, 0, "")
	}
	pdf.Ln(-1)
	pdf.SetFont("Arial", "", 11)
	for _, li := range inv.LineItems {
		pdf.CellFormat(widths[0], 8, string(li.SeatType), "1", 0, "L", false, 0, "")
		pdf.CellFormat(widths[1], 8, strconv.Itoa(li.Quantity), "1", 0, "R", false, 0, "")
		pdf.CellFormat(widths[2], 8, FormatAmount(li.UnitPrice, inv.Currency), "1", 0, "R", false, 0, "")
		pdf.CellFormat(widths[3], 8, FormatAmount(li.Total, inv.Currency), "1", 0, "R", false, 0, "")
		pdf.Ln(-1)
	}
	pdf.SetFont("Arial", "B", 11)
	pdf.CellFormat(widths[0]+widths[1]+widths[2], 8, "Total", "1", 0, "R", false, 0, "")
	pdf.CellFormat(widths[3], 8, FormatAmount(inv.Total, inv.Currency), "1", 1, "R", false, 0, "")

	if r.QRSize > 0 {
		png, err := qrcode.Encode(fmt.Sprintf("%s|%d", inv.Number, inv.ReservationID), qrcode.Medium, r.QRSize)
		if err != nil {
			return nil, fmt.Errorf("qr code: %w", err)
		}
		opts := gofpdf.ImageOptions{ImageType: "PNG"}
		name := "qr_" + inv.Number
		pdf.RegisterImageOptionsReader(name, opts, bytes.NewReader(png))
		pdf.ImageOptions(name, 150, pdf.GetY()+10, 40, 40, false, opts, 0, "")
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func seatList(inv Invoice) string {
	parts := make([]string, 0, len(inv.Seats))
	for _, s := range inv.Seats {
		parts = append(parts, fmt.Sprintf("%d (%s)", s.SeatNumber, s.TypeOfSeat))
	}
	return strings.Join(parts, ", ")
}

// FormatAmount renders minor units as "12.34 PLN".
func FormatAmount(minor int64, currency string) string {
	sign := ""
	if minor < 0 {
		sign = "-"
		minor = -minor
	}
	out := fmt.Sprintf("%s%d.%02d", sign, minor/100, minor%100)
	if currency != "" {
		out += " " + currency
	}
	return out
}
