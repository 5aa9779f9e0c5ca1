package series

import (
	"reflect"
	"testing"
)

func pt(site, day string, kwh float64) Point {
	v := kwh
	return Point{SiteID: site, Day: day, KWh: &v}
}

func TestMergeEmptyIncomingIsNoOp(t *testing.T) {
	history := []Point{
		pt("KD0001", "2024-01-01", 42.5),
		pt("KD0001", "2024-01-02", 40.0),
		pt("SV0002", "2024-01-01", 18.1),
	}

	merged := Merge(history, nil)
	if !reflect.DeepEqual(merged, Merge(history, nil)) {
		t.Fatal("merge is not deterministic")
	}
	if len(merged) != len(history) {
		t.Fatalf("expected %d points, got %d", len(history), len(merged))
	}
	for i, p := range merged {
		if *p.KWh != *history[i].KWh || p.SiteID != history[i].SiteID || p.Day != history[i].Day {
			t.Fatalf("point %d changed: %+v", i, p)
		}
	}
}

func TestMergeLastWriteWins(t *testing.T) {
	history := []Point{pt("KD0001", "2024-01-01", 42.5)}
	incoming := []Point{
		pt("KD0001", "2024-01-01", 10.0),
		pt("KD0001", "2024-01-01", 12.0),
	}

	merged := Merge(history, incoming)
	if len(merged) != 1 {
		t.Fatalf("expected 1 point, got %d", len(merged))
	}
	if *merged[0].KWh != 12.0 {
		t.Fatalf("expected last arrival 12.0 to win, got %v", *merged[0].KWh)
	}
}

func TestMergeIdempotent(t *testing.T) {
	history := []Point{
		pt("KD0001", "2024-01-01", 42.5),
		pt("SV0002", "2024-01-01", 18.1),
	}
	incoming := []Point{
		pt("KD0001", "2024-01-01", 39.0),
		pt("KD0001", "2024-01-03", 41.2),
	}

	once := Merge(history, incoming)
	twice := Merge(once, incoming)
	if !reflect.DeepEqual(pointValues(once), pointValues(twice)) {
		t.Fatalf("re-merging the same set changed the series:\nonce:  %+v\ntwice: %+v", once, twice)
	}
}

func TestMergeEmptyHistory(t *testing.T) {
	incoming := []Point{pt("KD0001", "2024-01-01", 42.5)}
	merged := Merge(nil, incoming)
	if len(merged) != 1 || merged[0].SiteID != "KD0001" {
		t.Fatalf("unexpected merge result: %+v", merged)
	}
}

func TestMergeSortedBySiteThenDay(t *testing.T) {
	merged := Merge(nil, []Point{
		pt("SV0002", "2024-01-01", 1),
		pt("KD0001", "2024-01-02", 2),
		pt("KD0001", "2024-01-01", 3),
	})
	want := []Key{
		{SiteID: "KD0001", Day: "2024-01-01"},
		{SiteID: "KD0001", Day: "2024-01-02"},
		{SiteID: "SV0002", Day: "2024-01-01"},
	}
	for i, k := range want {
		if merged[i].Key() != k {
			t.Fatalf("position %d: expected %v, got %v", i, k, merged[i].Key())
		}
	}
}

func TestPointValidate(t *testing.T) {
	if err := pt("KD0001", "2024-01-01", 0).Validate(); err != nil {
		t.Fatalf("zero energy must be valid: %v", err)
	}
	if err := pt("", "2024-01-01", 1).Validate(); err != ErrEmptySiteID {
		t.Fatalf("expected ErrEmptySiteID, got %v", err)
	}
	if err := pt("KD0001", "not-a-day", 1).Validate(); err != ErrInvalidDay {
		t.Fatalf("expected ErrInvalidDay, got %v", err)
	}
	if err := pt("KD0001", "2024-01-01", -1).Validate(); err != ErrNegativeEnergy {
		t.Fatalf("expected ErrNegativeEnergy, got %v", err)
	}
	if err := (Point{SiteID: "KD0001", Day: "2024-01-01"}).Validate(); err != nil {
		t.Fatalf("absent energy must be valid: %v", err)
	}
}

func TestDays(t *testing.T) {
	days := Days([]Point{
		pt("A", "2024-01-02", 1),
		pt("B", "2024-01-01", 1),
		pt("C", "2024-01-02", 1),
	})
	want := []Day{"2024-01-01", "2024-01-02"}
	if !reflect.DeepEqual(days, want) {
		t.Fatalf("expected %v, got %v", want, days)
	}
}

func pointValues(pts []Point) map[Key]float64 {
	out := make(map[Key]float64, len(pts))
	for _, p := range pts {
		if p.KWh != nil {
			out[p.Key()] = *p.KWh
		}
	}
	return out
}
