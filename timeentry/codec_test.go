package timeentry

import (
	"encoding/json"
	"reflect"
	"strings"
	"testing"
	"time"
)

func TestDecode_MigratesSingleValueRecord(t *testing.T) {
	t.Parallel()

	data := []byte(`{
		"workItemId": "42",
		"userId": "u1",
		"workItemTitle": "Fix login",
		"hours": 3.5,
		"createdAt": "2024-01-01T08:00:00Z",
		"updatedAt": "2024-01-03T22:15:00Z"
	}`)

	record, err := Decode(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if record.WorkItemID != 42 {
		t.Fatalf("expected work item 42, got %d", record.WorkItemID)
	}
	want := []DailyLog{{Date: "2024-01-03", Hours: 3.5}}
	if !reflect.DeepEqual(record.Logs, want) {
		t.Fatalf("unexpected logs: %+v", record.Logs)
	}
	if record.AuditLog == nil || len(record.AuditLog) != 0 {
		t.Fatalf("expected empty audit log, got %+v", record.AuditLog)
	}
}

func TestDecode_SingleValueFallsBackToCreatedAt(t *testing.T) {
	t.Parallel()

	record, err := Decode([]byte(`{"workItemId": 5, "userId": "u", "hours": 2, "createdAt": "2023-12-31T23:00:00Z"}`))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(record.Logs) != 1 || record.Logs[0].Date != "2023-12-31" {
		t.Fatalf("unexpected logs: %+v", record.Logs)
	}
}

func TestDecode_SingleValueWithoutTimestampsKeepsHours(t *testing.T) {
	t.Parallel()

	record, err := Decode([]byte(`{"workItemId": 5, "userId": "u", "hours": 2}`))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	want := []DailyLog{{Date: UndatedLegacyDate, Hours: 2}}
	if len(record.Logs) != 1 || record.Logs[0] != want[0] {
		t.Fatalf("expected %+v, got %+v", want, record.Logs)
	}

	data, err := Encode(record)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	again, err := Decode(data)
	if err != nil {
		t.Fatalf("decode again: %v", err)
	}
	if again.TotalHours() != 2 {
		t.Fatalf("expected legacy hours to survive a rewrite, got %v", again.TotalHours())
	}
}

func TestDecode_MultiLogRecordIsUntouched(t *testing.T) {
	t.Parallel()

	data := []byte(`{
		"workItemId": 9,
		"userId": "u2",
		"logs": [{"date": "2024-02-01", "hours": 1}, {"date": "2024-01-31", "hours": 2}],
		"auditLog": [{"timestamp": "2024-02-01T10:00:00Z", "userId": "u2", "userName": "Ann", "action": "created", "previousHours": 0, "newHours": 1}]
	}`)

	record, err := Decode(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(record.Logs) != 2 || record.Logs[0].Date != "2024-02-01" || record.Logs[1].Hours != 2 {
		t.Fatalf("unexpected logs: %+v", record.Logs)
	}
	if len(record.AuditLog) != 1 || record.AuditLog[0].Action != ActionCreated {
		t.Fatalf("unexpected audit log: %+v", record.AuditLog)
	}
}

func TestDecode_RejectsNonIntegerWorkItemID(t *testing.T) {
	t.Parallel()

	for _, raw := range []string{`"abc"`, `4.5`, `true`} {
		if _, err := Decode([]byte(`{"workItemId": ` + raw + `, "userId": "u"}`)); err == nil {
			t.Fatalf("expected error for workItemId %s", raw)
		}
	}
}

func TestMigrate_IsIdempotent(t *testing.T) {
	t.Parallel()

	hours := 4.0
	inputs := []Stored{
		{
			WorkItemID: 1,
			UserID:     "u",
			Hours:      &hours,
			UpdatedAt:  time.Date(2024, 5, 6, 7, 0, 0, 0, time.UTC),
		},
		{
			WorkItemID: 2,
			UserID:     "u",
			Logs: []DailyLog{
				{Date: "2024-01-01", Hours: 1},
				{Date: "2024-01-02", Hours: 2},
				{Date: "2024-01-01", Hours: 3},
			},
		},
		{WorkItemID: 3, UserID: "u"},
	}

	for i, input := range inputs {
		once := Migrate(input)
		twice := Migrate(once)
		if !reflect.DeepEqual(once, twice) {
			t.Fatalf("input %d: migration not idempotent:\nonce:  %+v\ntwice: %+v", i, once, twice)
		}
		if once.Hours != nil {
			t.Fatalf("input %d: expected legacy hours to be cleared", i)
		}
	}
}

func TestMigrate_CollapsesDuplicateDatesKeepingLastValue(t *testing.T) {
	t.Parallel()

	got := Migrate(Stored{Logs: []DailyLog{
		{Date: "2024-01-01", Hours: 1},
		{Date: "2024-01-02", Hours: 2},
		{Date: "2024-01-01", Hours: 3},
	}})

	want := []DailyLog{{Date: "2024-01-01", Hours: 3}, {Date: "2024-01-02", Hours: 2}}
	if !reflect.DeepEqual(got.Logs, want) {
		t.Fatalf("unexpected logs: %+v", got.Logs)
	}
}

func TestEncode_WritesMultiLogShape(t *testing.T) {
	t.Parallel()

	record := Record{
		WorkItemID: 42,
		UserID:     "u1",
		Logs:       []DailyLog{{Date: "2024-01-01", Hours: 5}},
		CreatedAt:  time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC),
		UpdatedAt:  time.Date(2024, 1, 1, 9, 30, 0, 0, time.UTC),
		Token:      "secret-token",
	}

	data, err := Encode(record)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	text := string(data)
	if !strings.Contains(text, `"logs":[{"date":"2024-01-01","hours":5}]`) {
		t.Fatalf("expected logs array in %s", text)
	}
	if strings.Contains(text, "secret-token") {
		t.Fatalf("token must not be part of the document body: %s", text)
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatalf("unmarshal encoded body: %v", err)
	}
	if _, ok := raw["hours"]; ok {
		t.Fatalf("legacy hours field must not be written: %s", text)
	}

	decoded, err := Decode(data)
	if err != nil {
		t.Fatalf("decode encoded body: %v", err)
	}
	if !reflect.DeepEqual(decoded, Record{
		WorkItemID: 42,
		UserID:     "u1",
		Logs:       []DailyLog{{Date: "2024-01-01", Hours: 5}},
		AuditLog:   []AuditEvent{},
		CreatedAt:  record.CreatedAt,
		UpdatedAt:  record.UpdatedAt,
	}) {
		t.Fatalf("unexpected decoded record: %+v", decoded)
	}
}

func TestDecodeDocument_FillsIdentityFromID(t *testing.T) {
	t.Parallel()

	record, err := DecodeDocument("42_u1", []byte(`{"hours": 2, "updatedAt": "2024-01-04T12:00:00Z"}`))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if record.WorkItemID != 42 || record.UserID != "u1" {
		t.Fatalf("expected identity from id, got %d/%q", record.WorkItemID, record.UserID)
	}
}

func TestDecodeDocument_RejectsMismatchedID(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"other user": "42_u2",
		"other item": "7_u1",
		"malformed":  "broken",
	}
	for name, id := range tests {
		if _, err := DecodeDocument(id, []byte(`{"workItemId": 42, "userId": "u1", "logs": []}`)); err == nil {
			t.Fatalf("%s: expected error for id %q", name, id)
		}
	}
}
