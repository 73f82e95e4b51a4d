package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestIsLowStock(t *testing.T) {
	require.True(t, InventoryRecord{QuantityInStock: 5, MinimumStockLevel: 10}.IsLowStock())
	// Boundary is inclusive: stock equal to the reorder level is low.
	require.True(t, InventoryRecord{QuantityInStock: 10, MinimumStockLevel: 10}.IsLowStock())
	require.False(t, InventoryRecord{QuantityInStock: 11, MinimumStockLevel: 10}.IsLowStock())
	require.True(t, InventoryRecord{QuantityInStock: 0, MinimumStockLevel: 0}.IsLowStock())
}

func TestExpiryClassification(t *testing.T) {
	now := time.Date(2024, 5, 15, 10, 30, 0, 0, time.UTC)

	cases := []struct {
		name     string
		expiry   string
		expired  bool
		expiring bool
	}{
		{"long past", "2023-01-01", true, false},
		{"yesterday", "2024-05-14", true, false},
		{"expires today", "2024-05-15", true, false},
		{"tomorrow", "2024-05-16", false, true},
		{"window edge", "2024-06-14", false, true},
		{"past window", "2024-06-15", false, false},
		{"far future", "2025-01-01", false, false},
		{"no expiry", "", false, false},
		{"unparseable", "soon", false, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			row := InventoryRecord{ExpiryDate: tc.expiry}
			require.Equal(t, tc.expired, row.IsExpired(now), "expired")
			require.Equal(t, tc.expiring, row.IsExpiringSoon(now), "expiring soon")
		})
	}
}

func TestExpiryWindowEndMatchesExpiringSoon(t *testing.T) {
	locations := []*time.Location{time.UTC}
	// Daylight saving shifts make window days shorter or longer than 24
	// hours; the bound must track the predicate through both.
	if ny, err := time.LoadLocation("America/New_York"); err == nil {
		locations = append(locations, ny)
	}

	for _, loc := range locations {
		nows := []time.Time{
			time.Date(2024, 5, 15, 10, 30, 0, 0, loc),
			time.Date(2024, 5, 15, 0, 0, 0, 0, loc),
			time.Date(2024, 10, 5, 0, 30, 0, 0, loc),  // fall-back inside the window
			time.Date(2024, 2, 15, 23, 45, 0, 0, loc), // spring-forward inside the window
		}
		for _, now := range nows {
			today := now.Format(ExpiryLayout)
			end := ExpiryWindowEnd(now)
			for d := -2; d <= ExpiryWindowDays+2; d++ {
				date := now.AddDate(0, 0, d).Format(ExpiryLayout)
				row := InventoryRecord{ExpiryDate: date}
				inBounds := date > today && date <= end
				require.Equal(t, row.IsExpiringSoon(now), inBounds,
					"%s: now=%s expiry=%s end=%s", loc, now, date, end)
			}
		}
	}
}

func TestExpiredAndExpiringSoonAreExclusive(t *testing.T) {
	now := time.Date(2024, 5, 15, 10, 30, 0, 0, time.UTC)
	for d := -40; d <= 40; d++ {
		row := InventoryRecord{ExpiryDate: now.AddDate(0, 0, d).Format(ExpiryLayout)}
		if row.IsExpired(now) {
			require.False(t, row.IsExpiringSoon(now), "day offset %d", d)
		}
	}
}
