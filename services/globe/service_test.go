package globe

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

var base = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func TestDedupeKeepsFreshestPerCell(t *testing.T) {
	markers := []Marker{
		{ID: "old", Kind: KindNews, Latitude: 51.5072, Longitude: -0.1276, Timestamp: base},
		{ID: "new", Kind: KindNews, Latitude: 51.5069, Longitude: -0.1281, Timestamp: base.Add(time.Hour)},
	}

	got := dedupeMarkers(markers)

	want := []Marker{
		{ID: "new", Kind: KindNews, Latitude: 51.5069, Longitude: -0.1281, Timestamp: base.Add(time.Hour)},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("dedupeMarkers() mismatch (-want +got):\n%s", diff)
	}
}

func TestDedupeBreakingOutranksNews(t *testing.T) {
	markers := []Marker{
		{ID: "story", Kind: KindNews, Latitude: 40.71, Longitude: -74.01, Timestamp: base.Add(time.Hour)},
		{ID: "flash", Kind: KindBreaking, Latitude: 40.71, Longitude: -74.01, Timestamp: base},
	}

	got := dedupeMarkers(markers)

	want := []Marker{
		{ID: "flash", Kind: KindBreaking, Latitude: 40.71, Longitude: -74.01, Timestamp: base},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("dedupeMarkers() mismatch (-want +got):\n%s", diff)
	}
}

func TestDedupeKeepsDistinctCellsAndKinds(t *testing.T) {
	markers := []Marker{
		{ID: "a", Kind: KindNews, Latitude: 48.85, Longitude: 2.35, Timestamp: base},
		{ID: "b", Kind: KindNews, Latitude: 48.95, Longitude: 2.35, Timestamp: base},
		{ID: "c", Kind: KindConflict, Latitude: 48.85, Longitude: 2.35, Timestamp: base},
		{ID: "d", Kind: KindCommunity, Latitude: 48.85, Longitude: 2.35, Timestamp: base},
	}

	got := dedupeMarkers(markers)
	if len(got) != 4 {
		t.Fatalf("expected 4 markers, got %d: %+v", len(got), got)
	}
}

func TestDedupeDropsInvalidCoordinates(t *testing.T) {
	markers := []Marker{
		{ID: "ok", Kind: KindNews, Latitude: 10, Longitude: 10, Timestamp: base},
		{ID: "north", Kind: KindNews, Latitude: 95, Longitude: 10, Timestamp: base},
		{ID: "far", Kind: KindNews, Latitude: 10, Longitude: 999, Timestamp: base},
	}

	got := dedupeMarkers(markers)
	if len(got) != 1 || got[0].ID != "ok" {
		t.Errorf("expected only the valid marker, got %+v", got)
	}
}

func TestDedupeOrdersByKindThenRecency(t *testing.T) {
	markers := []Marker{
		{ID: "community", Kind: KindCommunity, Latitude: 1, Longitude: 1, Timestamp: base.Add(3 * time.Hour)},
		{ID: "news-old", Kind: KindNews, Latitude: 2, Longitude: 2, Timestamp: base},
		{ID: "news-new", Kind: KindNews, Latitude: 3, Longitude: 3, Timestamp: base.Add(time.Hour)},
		{ID: "breaking", Kind: KindBreaking, Latitude: 4, Longitude: 4, Timestamp: base},
	}

	got := dedupeMarkers(markers)

	var ids []string
	for _, m := range got {
		ids = append(ids, m.ID)
	}
	want := []string{"breaking", "news-new", "news-old", "community"}
	if diff := cmp.Diff(want, ids); diff != "" {
		t.Errorf("marker order mismatch (-want +got):\n%s", diff)
	}
}

func TestRoundCoord(t *testing.T) {
	cases := []struct {
		in   float64
		want float64
	}{
		{51.5072, 51.51},
		{-0.1276, -0.13},
		{0, 0},
		{-33.8688, -33.87},
	}

	for _, c := range cases {
		if got := roundCoord(c.in); got != c.want {
			t.Errorf("roundCoord(%f) = %f, want %f", c.in, got, c.want)
		}
	}
}
