package storage

import (
	"encoding/json"
	"reflect"
	"testing"

	"github.com/jkrause/liftlog/internal/domain"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(":memory:")
	if err != nil {
		t.Fatalf("Open(:memory:) failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func testRecord(id, date string) domain.MaintenanceRecord {
	return domain.MaintenanceRecord{
		ID:             id,
		Technician:     "Julio Pérez",
		Date:           date,
		Time:           "10:00",
		Location:       domain.LocationMarina,
		EquipmentType:  domain.EquipmentElevator,
		EquipmentOrder: "1, 2",
	}
}

// TestMigrationsIdempotent runs Open twice on the same database and verifies
// the schema_version count stays correct (migration not re-applied).
func TestMigrationsIdempotent(t *testing.T) {
	dir := t.TempDir()

	s1, err := Open(dir)
	if err != nil {
		t.Fatalf("first Open failed: %v", err)
	}

	v1, err := s1.AppliedMigrations()
	if err != nil {
		t.Fatalf("AppliedMigrations: %v", err)
	}
	s1.Close()

	s2, err := Open(dir)
	if err != nil {
		t.Fatalf("second Open failed: %v", err)
	}
	defer s2.Close()

	v2, err := s2.AppliedMigrations()
	if err != nil {
		t.Fatalf("AppliedMigrations: %v", err)
	}

	if len(v1) != len(v2) {
		t.Errorf("migration count changed: %d -> %d", len(v1), len(v2))
	}
}

func TestRecordsEmptyOnFreshStore(t *testing.T) {
	s := openTestStore(t)

	records := s.Records()
	if len(records) != 0 {
		t.Errorf("fresh store has %d records, want 0", len(records))
	}
}

// TestReplayFidelity applies a sequence of create/update/delete operations and
// verifies the persisted collection equals an in-memory replay of the same
// operations against an empty collection.
func TestReplayFidelity(t *testing.T) {
	s := openTestStore(t)

	r1 := testRecord("a", "2024-03-05")
	r2 := testRecord("b", "2024-03-06")
	r3 := testRecord("c", "2024-03-07")

	if _, err := s.CreateRecord(r1); err != nil {
		t.Fatalf("CreateRecord: %v", err)
	}
	if _, err := s.CreateRecord(r2); err != nil {
		t.Fatalf("CreateRecord: %v", err)
	}
	if _, err := s.CreateRecord(r3); err != nil {
		t.Fatalf("CreateRecord: %v", err)
	}

	r2.Notes = "cambio de cables"
	if _, err := s.UpdateRecord(r2); err != nil {
		t.Fatalf("UpdateRecord: %v", err)
	}
	if _, err := s.DeleteRecord("a"); err != nil {
		t.Fatalf("DeleteRecord: %v", err)
	}

	want := []domain.MaintenanceRecord{r2, r3}
	got := s.Records()
	if !reflect.DeepEqual(got, want) {
		t.Errorf("persisted collection mismatch:\ngot  %+v\nwant %+v", got, want)
	}
}

func TestDeleteNonexistentIDUnchanged(t *testing.T) {
	s := openTestStore(t)

	if _, err := s.CreateRecord(testRecord("a", "2024-03-05")); err != nil {
		t.Fatalf("CreateRecord: %v", err)
	}

	got, err := s.DeleteRecord("missing")
	if err != nil {
		t.Fatalf("DeleteRecord: %v", err)
	}
	if len(got) != 1 || got[0].ID != "a" {
		t.Errorf("collection changed after deleting nonexistent id: %+v", got)
	}
}

func TestUpdateNonexistentIDNoInsert(t *testing.T) {
	s := openTestStore(t)

	if _, err := s.CreateRecord(testRecord("a", "2024-03-05")); err != nil {
		t.Fatalf("CreateRecord: %v", err)
	}

	got, err := s.UpdateRecord(testRecord("ghost", "2024-04-01"))
	if err != nil {
		t.Fatalf("UpdateRecord: %v", err)
	}
	if len(got) != 1 || got[0].ID != "a" {
		t.Errorf("update of nonexistent id modified the collection: %+v", got)
	}
}

func TestRecordsSurviveReopen(t *testing.T) {
	dir := t.TempDir()

	s1, err := Open(dir)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if _, err := s1.CreateRecord(testRecord("a", "2024-03-05")); err != nil {
		t.Fatalf("CreateRecord: %v", err)
	}
	s1.Close()

	s2, err := Open(dir)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s2.Close()

	records := s2.Records()
	if len(records) != 1 || records[0].ID != "a" {
		t.Errorf("records after reopen = %+v, want one record with id a", records)
	}
}

// TestCorruptCollectionTreatedAsEmpty writes garbage under the records key and
// verifies reads swallow the parse failure instead of propagating it.
func TestCorruptCollectionTreatedAsEmpty(t *testing.T) {
	s := openTestStore(t)

	if err := s.setValue(recordsKey, "{not json"); err != nil {
		t.Fatalf("setValue: %v", err)
	}

	records := s.Records()
	if len(records) != 0 {
		t.Errorf("corrupt collection yielded %d records, want 0", len(records))
	}
}

func TestShiftMergeOverwritesSameKey(t *testing.T) {
	s := openTestStore(t)

	first := []domain.Shift{{Date: "2024-12-17", Name: "Julio Pérez", Role: "Técnico", ShiftType: "Noche"}}
	if _, err := s.SaveShifts(first); err != nil {
		t.Fatalf("SaveShifts: %v", err)
	}

	second := []domain.Shift{{Date: "2024-12-17", Name: "Eduardo Leal", Role: "Supervisor", ShiftType: "Noche"}}
	got, err := s.SaveShifts(second)
	if err != nil {
		t.Fatalf("SaveShifts: %v", err)
	}

	if len(got) != 1 {
		t.Fatalf("got %d shifts after merging same key, want 1", len(got))
	}
	if got[0].Name != "Eduardo Leal" {
		t.Errorf("merged shift name = %q, want last-saved %q", got[0].Name, "Eduardo Leal")
	}
}

func TestShiftMergeKeepsDistinctShiftTypes(t *testing.T) {
	s := openTestStore(t)

	shifts := []domain.Shift{
		{Date: "2024-12-17", Name: "Julio Pérez", ShiftType: "Día"},
		{Date: "2024-12-17", Name: "Víctor González", ShiftType: "Noche"},
	}
	got, err := s.SaveShifts(shifts)
	if err != nil {
		t.Fatalf("SaveShifts: %v", err)
	}

	if len(got) != 2 {
		t.Errorf("got %d shifts, want 2 (day and night are distinct keys)", len(got))
	}
}

// TestCollectionsStoredAsJSONArrays verifies the persisted layout: one JSON
// array string per collection key.
func TestCollectionsStoredAsJSONArrays(t *testing.T) {
	s := openTestStore(t)

	if _, err := s.CreateRecord(testRecord("a", "2024-03-05")); err != nil {
		t.Fatalf("CreateRecord: %v", err)
	}

	raw, ok, err := s.getValue(recordsKey)
	if err != nil || !ok {
		t.Fatalf("getValue(%q): ok=%v err=%v", recordsKey, ok, err)
	}

	var arr []json.RawMessage
	if err := json.Unmarshal([]byte(raw), &arr); err != nil {
		t.Fatalf("stored value is not a JSON array: %v", err)
	}
	if len(arr) != 1 {
		t.Errorf("stored array has %d elements, want 1", len(arr))
	}
}

func TestThemeRoundTrip(t *testing.T) {
	s := openTestStore(t)

	if got := s.Theme(); got != "light" {
		t.Errorf("default theme = %q, want light", got)
	}
	if err := s.SetTheme("dark"); err != nil {
		t.Fatalf("SetTheme: %v", err)
	}
	if got := s.Theme(); got != "dark" {
		t.Errorf("theme = %q, want dark", got)
	}
	if err := s.SetTheme("sepia"); err == nil {
		t.Error("SetTheme(sepia) succeeded, want error")
	}
}
