// Package export produces printable artifacts from the trip data: a PDF
// trip book and scan-to-phone QR codes for maps links.
package export

import (
	"bytes"
	"fmt"
	"net/http"

	"tabiji/expenses"
	"tabiji/itinerary"
	"tabiji/mirror"
	"tabiji/models"
	"tabiji/rates"
	"tabiji/utils"

	"github.com/julienschmidt/httprouter"
	"github.com/phpdave11/gofpdf"
	qrcode "github.com/skip2/go-qrcode"
)

type Handlers struct {
	itinerary   *mirror.Mirror[models.ItineraryItem]
	expenses    *mirror.Mirror[models.Expense]
	restaurants *mirror.Mirror[models.Restaurant]
	sightseeing *mirror.Mirror[models.SightseeingSpot]
	fetcher     *rates.Fetcher
}

func NewHandlers(
	it *mirror.Mirror[models.ItineraryItem],
	ex *mirror.Mirror[models.Expense],
	re *mirror.Mirror[models.Restaurant],
	si *mirror.Mirror[models.SightseeingSpot],
	f *rates.Fetcher,
) *Handlers {
	return &Handlers{itinerary: it, expenses: ex, restaurants: re, sightseeing: si, fetcher: f}
}

// GET /api/export/tripbook - day-by-day schedule plus the expense ledger
// as one PDF.
func (h *Handlers) TripBook(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()
	pdf.SetFont("Arial", "B", 18)
	pdf.Cell(40, 10, "Trip Book")
	pdf.Ln(14)

	items := itinerary.SortSchedule(models.Active(h.itinerary.Current()))
	currentDay := -1
	for _, item := range items {
		if item.Day != currentDay {
			currentDay = item.Day
			pdf.SetFont("Arial", "B", 13)
			if currentDay == 0 {
				pdf.Cell(0, 9, "Preparation")
			} else {
				pdf.Cell(0, 9, fmt.Sprintf("Day %d", currentDay))
			}
			pdf.Ln(9)
			pdf.SetFont("Arial", "", 11)
		}
		line := item.Location
		if item.Time != "" {
			line = item.Time + "  " + line
		}
		if item.Notes != "" {
			line += " - " + item.Notes
		}
		pdf.Cell(0, 7, line)
		pdf.Ln(7)
	}

	ledger := expenses.SortLedger(models.Active(h.expenses.Current()))
	pdf.Ln(6)
	pdf.SetFont("Arial", "B", 13)
	pdf.Cell(0, 9, "Expenses")
	pdf.Ln(9)
	pdf.SetFont("Arial", "", 11)

	var total float64
	for _, e := range ledger {
		total += e.AmountYen
		pdf.Cell(0, 7, fmt.Sprintf("%s  %s - %.0f yen (%s)", e.Date, e.Title, e.AmountYen, e.Payer))
		pdf.Ln(7)
	}
	rate, _ := h.fetcher.Current()
	pdf.SetFont("Arial", "B", 11)
	pdf.Cell(0, 9, fmt.Sprintf("Total: %.0f yen  (~%.2f %s)", total, total*rate, h.fetcher.Currency))

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "failed to generate PDF")
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", "attachment; filename=tripbook.pdf")
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}

// GET /api/export/qr/:collection/:id - QR code of the record's maps URL.
func (h *Handlers) MapsQR(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	collection := ps.ByName("collection")
	id := ps.ByName("id")

	var mapsURL string
	switch collection {
	case models.ColItinerary:
		if item, ok := h.itinerary.Get(id); ok {
			mapsURL = item.MapsURL
		}
	case models.ColRestaurants:
		if item, ok := h.restaurants.Get(id); ok {
			mapsURL = item.MapsURL
		}
	case models.ColSightseeing:
		if item, ok := h.sightseeing.Get(id); ok {
			mapsURL = item.MapsURL
		}
	default:
		utils.RespondWithError(w, http.StatusBadRequest, "collection has no maps links")
		return
	}

	if mapsURL == "" {
		utils.RespondWithError(w, http.StatusNotFound, "no maps link for this record")
		return
	}

	png, err := qrcode.Encode(mapsURL, qrcode.Medium, 256)
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "failed to generate QR code")
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	w.Write(png)
}
