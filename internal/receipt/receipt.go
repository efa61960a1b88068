// Package receipt renders printable PDF receipts for reservations.
package receipt

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/jung-kurt/gofpdf"
	"github.com/skip2/go-qrcode"

	"github.com/iliyamo/event-seat-reservation/internal/model"
)

const qrSizePx = 300

// Data is everything printed on a receipt. Payment is nil for an unpaid
// reservation.
type Data struct {
	Reservation  *model.Reservation
	Event        *model.Event
	CategoryName string
	Payment      *model.Payment
	CancelBy     time.Time // last instant a cancellation is accepted; zero hides the note
}

// QRPayload is the text encoded in the receipt's QR code, scanned at the gate.
func QRPayload(res *model.Reservation) string {
	return fmt.Sprintf("reservation:%d:%d", res.ID, res.ClientID)
}

// Render returns the receipt as an A4 PDF.
func Render(d Data) ([]byte, error) {
	if d.Reservation == nil || d.Event == nil {
		return nil, fmt.Errorf("receipt: reservation and event are required")
	}
	qr, err := qrcode.New(QRPayload(d.Reservation), qrcode.Medium)
	if err != nil {
		return nil, fmt.Errorf("receipt: qr code: %w", err)
	}
	png, err := qr.PNG(qrSizePx)
	if err != nil {
		return nil, fmt.Errorf("receipt: qr png: %w", err)
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("") // core fonts are cp1252
	pdf.SetTitle(fmt.Sprintf("Reservation %d", d.Reservation.ID), true)
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 20)
	pdf.CellFormat(0, 12, tr(d.Event.Name), "", 1, "C", false, 0, "")
	pdf.SetFont("Arial", "", 12)
	pdf.CellFormat(0, 7, string(d.Event.Kind), "", 1, "C", false, 0, "")
	pdf.Ln(4)

	imgOpts := gofpdf.ImageOptions{ImageType: "PNG"}
	imgName := fmt.Sprintf("qr_%d", d.Reservation.ID)
	pdf.RegisterImageOptionsReader(imgName, imgOpts, bytes.NewReader(png))
	pdf.ImageOptions(imgName, (210.0-70.0)/2, pdf.GetY(), 70, 70, false, imgOpts, 0, "")
	pdf.Ln(74)

	pdf.SetDrawColor(200, 200, 200)
	pdf.Line(20, pdf.GetY(), 190, pdf.GetY())
	pdf.Ln(6)

	rows := [][2]string{
		{"Reservation", fmt.Sprintf("#%d", d.Reservation.ID)},
		{"Date", d.Event.StartsAt.UTC().Format("Monday, January 2, 2006 15:04 MST")},
		{"Location", d.Event.Location},
	}
	if d.Event.SpecialGuest != "" {
		rows = append(rows, [2]string{"Special guest", d.Event.SpecialGuest})
	}
	rows = append(rows,
		[2]string{"Category", d.CategoryName},
		[2]string{"Seats", seatList(d.Reservation.Seats)},
		[2]string{"Total", formatCents(d.Reservation.TotalCents)},
		[2]string{"Reserved at", d.Reservation.CreatedAt.UTC().Format(time.RFC1123)},
	)
	if d.Payment != nil {
		rows = append(rows,
			[2]string{"Payment", fmt.Sprintf("%s, card ending %s", d.Payment.Status, d.Payment.CardLast4)},
			[2]string{"Reference", d.Payment.Reference},
		)
	} else {
		rows = append(rows, [2]string{"Payment", "pending"})
	}
	for _, r := range rows {
		pdf.SetX(20)
		pdf.SetFont("Arial", "", 12)
		pdf.CellFormat(45, 8, r[0]+":", "", 0, "L", false, 0, "")
		pdf.SetFont("Arial", "B", 12)
		pdf.MultiCell(125, 8, tr(r[1]), "", "L", false)
	}

	pdf.Ln(6)
	pdf.SetFont("Arial", "I", 10)
	pdf.SetTextColor(100, 100, 100)
	note := "Show this receipt at the entrance."
	if !d.CancelBy.IsZero() {
		note += " Cancellations are accepted until " + d.CancelBy.UTC().Format("January 2, 2006 15:04 MST") + "."
	}
	pdf.MultiCell(0, 6, note, "", "C", false)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("receipt: render: %w", err)
	}
	return buf.Bytes(), nil
}

func seatList(seats []model.Seat) string {
	ids := make([]string, len(seats))
	for i, s := range seats {
		ids[i] = fmt.Sprint(s.ID)
	}
	return strings.Join(ids, ", ")
}

func formatCents(c int64) string {
	return fmt.Sprintf("%d.%02d", c/100, c%100)
}
