package profile

import "testing"

func TestSeasonOfBoundaries(t *testing.T) {
	cases := []struct {
		startAt int64
		want    Season
	}{
		{SummerStart - 1, Winter},
		{SummerStart, Winter},
		{SummerStart + 1, Summer},
		{SummerEnd - 1, Summer},
		{SummerEnd, Winter},
		{SummerEnd + 1, Winter},
		{0, Winter},
	}
	for _, c := range cases {
		if got := SeasonOf(c.startAt); got != c.want {
			t.Errorf("SeasonOf(%d) = %s, want %s", c.startAt, got, c.want)
		}
	}
}

func TestDataTime(t *testing.T) {
	if got := DataTime(86000, 500); got != 100 {
		t.Fatalf("expected 100 got %d", got)
	}
	if got := DataTime(0, -10); got != SecondsPerDay-10 {
		t.Fatalf("expected wrap got %d", got)
	}
}

func TestColumnNames(t *testing.T) {
	if LoadColumn(Summer) != "LD-S" || PVColumn(Winter) != "PV-W" || CarSlotColumn(2) != "EV-ID_Slot2" {
		t.Fatalf("unexpected column names")
	}
	if !IsDiscrete(CarSlotColumn(3)) || IsDiscrete(ColumnEV) {
		t.Fatalf("discrete detection")
	}
}
