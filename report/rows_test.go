package report

import (
	"context"
	"errors"
	"testing"

	"worktally/docstore"
	"worktally/timeentry"
)

func testRecords() []timeentry.Record {
	return []timeentry.Record{
		{
			WorkItemID:    42,
			UserID:        "u1",
			UserName:      "Ann",
			WorkItemTitle: "Fix login",
			WorkItemType:  "Bug",
			Description:   "auth",
			Logs: []timeentry.DailyLog{
				{Date: "2024-01-01", Hours: 3},
				{Date: "2024-01-02", Hours: 2},
				{Date: "2024-01-05", Hours: 1},
			},
		},
		{
			WorkItemID:   42,
			UserID:       "u2",
			WorkItemType: "Bug",
			Logs: []timeentry.DailyLog{
				{Date: "2024-01-02", Hours: 4},
			},
		},
		{
			WorkItemID:    7,
			UserID:        "u1",
			UserName:      "Ann",
			WorkItemTitle: "Release notes",
			WorkItemType:  "Task",
			Logs: []timeentry.DailyLog{
				{Date: "2024-01-03", Hours: 0.5},
				{Date: "2024-02-01", Hours: 1.5},
			},
		},
	}
}

func TestFlatten_YieldsOneRowPerLog(t *testing.T) {
	t.Parallel()

	rows := Flatten(testRecords())
	if len(rows) != 6 {
		t.Fatalf("expected 6 rows, got %d", len(rows))
	}

	first := rows[0]
	if first.WorkItemID != 42 || first.UserName != "Ann" || first.WorkItemTitle != "Fix login" || first.Description != "auth" || first.Date != "2024-01-01" || first.Hours != 3 {
		t.Fatalf("unexpected first row: %+v", first)
	}
}

func TestFilter(t *testing.T) {
	t.Parallel()

	rows := Flatten(testRecords())
	tests := []struct {
		name     string
		criteria Criteria
		want     int
	}{
		{name: "no criteria", criteria: Criteria{}, want: 6},
		{name: "inclusive date range", criteria: Criteria{From: "2024-01-02", To: "2024-01-03"}, want: 3},
		{name: "open upper bound", criteria: Criteria{From: "2024-01-05"}, want: 2},
		{name: "user", criteria: Criteria{UserID: "u1"}, want: 5},
		{name: "type", criteria: Criteria{WorkItemType: "Task"}, want: 2},
		{name: "work item", criteria: Criteria{WorkItemID: 42}, want: 4},
		{name: "combined", criteria: Criteria{UserID: "u1", WorkItemID: 42, To: "2024-01-02"}, want: 2},
		{name: "no match", criteria: Criteria{UserID: "u3"}, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Filter(rows, tt.criteria)
			if len(got) != tt.want {
				t.Fatalf("expected %d rows, got %d: %+v", tt.want, len(got), got)
			}
			for _, row := range got {
				if !tt.criteria.Match(row) {
					t.Fatalf("row does not match criteria: %+v", row)
				}
			}
		})
	}
}

func TestFilter_UnknownTypeMatchesSummaryLabel(t *testing.T) {
	t.Parallel()

	rows := Flatten([]timeentry.Record{
		{WorkItemID: 1, UserID: "u1", Logs: []timeentry.DailyLog{{Date: "2024-01-01", Hours: 2}}},
		{WorkItemID: 2, UserID: "u1", WorkItemType: "Bug", Logs: []timeentry.DailyLog{{Date: "2024-01-01", Hours: 1}}},
	})

	summary := Summarize(rows)
	var label string
	for _, group := range summary.ByType {
		if group.Hours == 2 {
			label = group.Label
		}
	}
	if label != UnknownType {
		t.Fatalf("expected untyped hours under %q, got %+v", UnknownType, summary.ByType)
	}

	got := Filter(rows, Criteria{WorkItemType: label})
	if len(got) != 1 || got[0].WorkItemID != 1 {
		t.Fatalf("expected the untyped row, got %+v", got)
	}
}

func TestCriteria_Normalize(t *testing.T) {
	t.Parallel()

	if _, err := (Criteria{From: "2024-02-01", To: "2024-01-01"}).Normalize(); err == nil {
		t.Fatalf("expected error for inverted range")
	}
	if _, err := (Criteria{From: "yesterday"}).Normalize(); err == nil {
		t.Fatalf("expected error for invalid from date")
	}
	got, err := (Criteria{From: " 2024-01-01 ", To: "2024-01-31"}).Normalize()
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if got.From != "2024-01-01" {
		t.Fatalf("expected trimmed from date, got %q", got.From)
	}
}

func TestSortRows_NewestFirst(t *testing.T) {
	t.Parallel()

	rows := Flatten(testRecords())
	SortRows(rows)

	for i := 1; i < len(rows); i++ {
		if rows[i-1].Date < rows[i].Date {
			t.Fatalf("rows not sorted by date desc at %d: %s before %s", i, rows[i-1].Date, rows[i].Date)
		}
	}
	if rows[0].Date != "2024-02-01" {
		t.Fatalf("expected newest row first, got %s", rows[0].Date)
	}
}

func seedStore(t *testing.T, store docstore.Store, records []timeentry.Record) {
	t.Helper()
	for _, record := range records {
		data, err := timeentry.Encode(record)
		if err != nil {
			t.Fatalf("encode record: %v", err)
		}
		if _, err := store.SetDocument(context.Background(), docstore.Document{Collection: timeentry.Collection, ID: record.ID(), Data: data}); err != nil {
			t.Fatalf("seed record: %v", err)
		}
	}
}

func TestEngine_LoadAllAppliesMigrationAndCarriesToken(t *testing.T) {
	t.Parallel()

	store := docstore.NewMemoryStore()
	seedStore(t, store, testRecords())
	legacy := []byte(`{"workItemId":"99","userId":"u9","hours":2.5,"updatedAt":"2024-01-04T12:00:00Z"}`)
	if _, err := store.SetDocument(context.Background(), docstore.Document{Collection: timeentry.Collection, ID: "99_u9", Data: legacy}); err != nil {
		t.Fatalf("seed legacy record: %v", err)
	}
	if _, err := store.SetDocument(context.Background(), docstore.Document{Collection: timeentry.Collection, ID: "bad", Data: []byte(`not json`)}); err != nil {
		t.Fatalf("seed broken record: %v", err)
	}

	records := NewEngine(store).LoadAll(context.Background())
	if len(records) != 4 {
		t.Fatalf("expected 4 decodable records, got %d", len(records))
	}

	var migrated *timeentry.Record
	for i := range records {
		if records[i].Token == "" {
			t.Fatalf("expected token on loaded record %s", records[i].ID())
		}
		if records[i].WorkItemID == 99 {
			migrated = &records[i]
		}
	}
	if migrated == nil {
		t.Fatalf("legacy record missing")
	}
	if len(migrated.Logs) != 1 || migrated.Logs[0] != (timeentry.DailyLog{Date: "2024-01-04", Hours: 2.5}) {
		t.Fatalf("unexpected migrated logs: %+v", migrated.Logs)
	}
}

func TestEngine_LoadAllDegradesToEmptyOnStoreFailure(t *testing.T) {
	t.Parallel()

	store := docstore.NewMemoryStore()
	seedStore(t, store, testRecords())
	store.Fail = func(string) error { return errors.New("unauthorized") }

	records := NewEngine(store).LoadAll(context.Background())
	if records == nil || len(records) != 0 {
		t.Fatalf("expected empty non-nil result, got %+v", records)
	}

	if _, err := NewEngine(store).Load(context.Background()); !errors.Is(err, docstore.ErrUnavailable) {
		t.Fatalf("expected Load to surface ErrUnavailable, got %v", err)
	}
}

func TestEngine_Query(t *testing.T) {
	t.Parallel()

	store := docstore.NewMemoryStore()
	seedStore(t, store, testRecords())

	rows := NewEngine(store).Query(context.Background(), Criteria{WorkItemID: 42})
	if len(rows) != 4 {
		t.Fatalf("expected 4 rows, got %d", len(rows))
	}
	if rows[0].Date != "2024-01-05" {
		t.Fatalf("expected newest row first, got %+v", rows[0])
	}
}
