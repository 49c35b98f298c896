package handler // handler defines http handlers

import (
	"time"

	"github.com/iliyamo/equipment-rental/internal/availability"
	"github.com/iliyamo/equipment-rental/internal/daterange"
	"github.com/iliyamo/equipment-rental/internal/model"
)

// dateLayout is the wire format for rental dates.  The engine works at
// whole-day granularity, so handlers accept plain dates and normalize
// them to UTC midnight.
const dateLayout = "2006-01-02"

// parseRange builds a validated half-open range from two date strings.
func parseRange(from, to string) (daterange.Range, error) {
	start, err := time.Parse(dateLayout, from)
	if err != nil {
		return daterange.Range{}, daterange.ErrInvalidRange
	}
	end, err := time.Parse(dateLayout, to)
	if err != nil {
		return daterange.Range{}, daterange.ErrInvalidRange
	}
	return daterange.New(start, end)
}

// conflictJSON is the wire representation of one conflicting sub-range.
type conflictJSON struct {
	From      string `json:"from"`
	To        string `json:"to"`
	Available int    `json:"available"`
	Requested int    `json:"requested"`
}

func conflictsToJSON(conflicts []availability.Conflict) []conflictJSON {
	out := make([]conflictJSON, 0, len(conflicts))
	for _, cf := range conflicts {
		out = append(out, conflictJSON{
			From:      cf.Range.Start.Format(dateLayout),
			To:        cf.Range.End.Format(dateLayout),
			Available: cf.Available,
			Requested: cf.Requested,
		})
	}
	return out
}

// bookingJSON is the wire representation of a booking row.
type bookingJSON struct {
	ID             uint64 `json:"id"`
	EquipmentID    uint64 `json:"equipment_id"`
	ProjectID      uint64 `json:"project_id"`
	Quantity       uint32 `json:"quantity"`
	From           string `json:"from"`
	To             string `json:"to"`
	State          string `json:"state"`
	DailyRateCents uint32 `json:"daily_rate_cents"`
	TotalCents     uint32 `json:"total_cents"`
	CreatedAt      string `json:"created_at"`
}

func bookingToJSON(b model.Booking) bookingJSON {
	return bookingJSON{
		ID:             b.ID,
		EquipmentID:    b.EquipmentID,
		ProjectID:      b.ProjectID,
		Quantity:       b.Quantity,
		From:           b.StartDate.Format(dateLayout),
		To:             b.EndDate.Format(dateLayout),
		State:          b.State,
		DailyRateCents: b.DailyRateCents,
		TotalCents:     b.TotalCents,
		CreatedAt:      b.CreatedAt.UTC().Format(time.RFC3339),
	}
}
