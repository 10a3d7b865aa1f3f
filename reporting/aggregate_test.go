package reporting

import (
	"testing"

	"timetable-api/domain"
)

func TestAggregateCounts(t *testing.T) {
	due := []domain.TimetableEntry{{ID: "a"}, {ID: "b"}, {ID: "c"}}
	completions := []domain.Completion{
		{TaskID: "a", Date: "2025-06-02", Status: domain.StatusCompleted},
		{TaskID: "b", Date: "2025-06-02", Status: domain.StatusMissed},
		{TaskID: "a", Date: "2025-06-01", Status: domain.StatusCompleted}, // other date
		{TaskID: "zz", Date: "2025-06-02", Status: domain.StatusCompleted}, // not in due set
	}

	stats := Aggregate(due, completions, mustDate(t, "2025-06-02"))
	if stats.Total != 3 || stats.Completed != 1 || stats.Missed != 1 || stats.Pending != 1 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
	if stats.CompletionRate != 33.3 {
		t.Fatalf("expected rate 33.3, got %v", stats.CompletionRate)
	}
}

func TestAggregateEmptyDueSet(t *testing.T) {
	stats := Aggregate(nil, []domain.Completion{{TaskID: "a", Date: "2025-06-02", Status: domain.StatusCompleted}}, mustDate(t, "2025-06-02"))
	if stats.Total != 0 || stats.Completed != 0 || stats.CompletionRate != 0 {
		t.Fatalf("expected zero stats, got %+v", stats)
	}
}

func TestRateRounding(t *testing.T) {
	cases := []struct {
		completed, total int
		want             float64
	}{
		{0, 0, 0},
		{1, 1, 100},
		{1, 3, 33.3},
		{2, 3, 66.7},
		{1, 8, 12.5},
		{0, 5, 0},
	}
	for _, tc := range cases {
		if got := Rate(tc.completed, tc.total); got != tc.want {
			t.Errorf("Rate(%d, %d) = %v, want %v", tc.completed, tc.total, got, tc.want)
		}
	}
}

// The summary rate must come from summed counts: 2/2 on day one plus 0/1 on
// day two is 66.7, not the 50.0 an average of daily rates would give.
func TestAggregateRangeSummaryFromSummedCounts(t *testing.T) {
	entries := []domain.TimetableEntry{
		{ID: "a"},
		{ID: "b", ExcludeDays: []int{3}}, // not due on Wednesday
	}
	completions := []domain.Completion{
		{TaskID: "a", Date: "2025-06-03", Status: domain.StatusCompleted},
		{TaskID: "b", Date: "2025-06-03", Status: domain.StatusCompleted},
	}

	// Tuesday 2025-06-03 and Wednesday 2025-06-04.
	days, summary := AggregateRange(entries, completions, mustDate(t, "2025-06-03"), 2)
	if len(days) != 2 {
		t.Fatalf("expected 2 days, got %d", len(days))
	}
	if days[0].CompletionRate != 100 || days[1].CompletionRate != 0 {
		t.Fatalf("unexpected daily rates: %v, %v", days[0].CompletionRate, days[1].CompletionRate)
	}
	if summary.Total != 3 || summary.Completed != 2 || summary.Missed != 0 || summary.Pending != 1 {
		t.Fatalf("unexpected summary: %+v", summary)
	}
	if summary.CompletionRate != 66.7 {
		t.Fatalf("expected summary rate 66.7, got %v", summary.CompletionRate)
	}
}

func TestAggregateRangeSumsDailyTotals(t *testing.T) {
	entries := []domain.TimetableEntry{{ID: "a"}, {ID: "b", ExcludeDays: []int{0, 6}}}
	days, summary := AggregateRange(entries, nil, mustDate(t, "2025-06-01"), 7)

	wantTotal := 0
	for _, d := range days {
		wantTotal += d.Total
	}
	if summary.Total != wantTotal {
		t.Fatalf("summary total %d != sum of daily totals %d", summary.Total, wantTotal)
	}
	// One daily entry all week, the other skips Sunday and Saturday.
	if wantTotal != 7+5 {
		t.Fatalf("unexpected week total %d", wantTotal)
	}
}
