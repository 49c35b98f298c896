package pricing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/iliyamo/equipment-rental/internal/daterange"
	"github.com/iliyamo/equipment-rental/internal/model"
)

func TestFlatDailyQuote(t *testing.T) {
	item := model.EquipmentItem{DailyRateCents: 2500}
	r := daterange.Range{
		Start: time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2026, 1, 9, 0, 0, 0, 0, time.UTC), // 4 days
	}

	q := FlatDaily{}.Quote(item, r, 3)
	assert.Equal(t, uint32(7500), q.DailyCents)
	assert.Equal(t, uint32(30000), q.TotalCents)
}
