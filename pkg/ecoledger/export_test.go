package ecoledger

import (
	"bytes"
	"math/rand"
	"strings"
	"testing"
)

func TestExportCSVRoundTrip(test *testing.T) {
	test.Parallel()
	seeder := newTestSeeder(test, 19)
	entries, err := seeder.Entries(40, seedTestNow)
	if err != nil {
		test.Fatalf("seed: %v", err)
	}

	data, err := ExportCSV(entries)
	if err != nil {
		test.Fatalf("export: %v", err)
	}
	parsed, err := ParseCSV(bytes.NewReader(data))
	if err != nil {
		test.Fatalf("parse: %v", err)
	}
	if len(parsed) != len(entries) {
		test.Fatalf("expected %d entries back, got %d", len(entries), len(parsed))
	}
	for index := range entries {
		if parsed[index].EntryID != entries[index].EntryID {
			test.Fatalf("entry %d id mismatch", index)
		}
		if parsed[index].RecordedUnixUTC != entries[index].RecordedUnixUTC {
			test.Fatalf("entry %d timestamp mismatch", index)
		}
		if !almostEqual(parsed[index].Credits, entries[index].Credits) {
			test.Fatalf("entry %d credits drifted: %v vs %v", index, parsed[index].Credits, entries[index].Credits)
		}
	}

	before := ComputeTotals(entries)
	after := ComputeTotals(parsed)
	if !almostEqual(before.TotalCredits, after.TotalCredits) {
		test.Fatalf("round-trip totals drifted: %v vs %v", before.TotalCredits, after.TotalCredits)
	}
}

func TestExportCSVPreservesSnapshotOrder(test *testing.T) {
	test.Parallel()
	// Insertion order deliberately not chronological.
	entries := []Entry{
		mustEntry(test, "late", 2_000, "Alice", RoleStudent, ActivityTreesPlanted, 1),
		mustEntry(test, "early", 1_000, "Bob", RoleStudent, ActivityWalkBikeCommute, 4),
	}
	data, err := ExportCSV(entries)
	if err != nil {
		test.Fatalf("export: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 3 {
		test.Fatalf("expected header plus 2 rows, got %d lines", len(lines))
	}
	if !strings.HasPrefix(lines[1], "late,") || !strings.HasPrefix(lines[2], "early,") {
		test.Fatalf("rows not in snapshot order: %v", lines[1:])
	}
}

func TestExportCSVQuotesDelimiters(test *testing.T) {
	test.Parallel()
	entries := []Entry{
		mustEntry(test, "e-1", 1_000, `Sharma, Aarav "AJ"`, RoleStudent, ActivityPaperSaved, 100),
	}
	data, err := ExportCSV(entries)
	if err != nil {
		test.Fatalf("export: %v", err)
	}
	if !strings.Contains(string(data), `"Sharma, Aarav ""AJ"""`) {
		test.Fatalf("expected quoted actor name, got %s", data)
	}
	parsed, err := ParseCSV(bytes.NewReader(data))
	if err != nil {
		test.Fatalf("parse: %v", err)
	}
	if parsed[0].ActorName != `Sharma, Aarav "AJ"` {
		test.Fatalf("actor name mangled: %q", parsed[0].ActorName)
	}
}

func TestExportCSVEmptySnapshot(test *testing.T) {
	test.Parallel()
	data, err := ExportCSV(nil)
	if err != nil {
		test.Fatalf("export: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 1 {
		test.Fatalf("expected header only, got %d lines", len(lines))
	}
	parsed, err := ParseCSV(bytes.NewReader(data))
	if err != nil {
		test.Fatalf("parse: %v", err)
	}
	if len(parsed) != 0 {
		test.Fatalf("expected no entries, got %d", len(parsed))
	}
}

func TestParseCSVRejectsForeignHeader(test *testing.T) {
	test.Parallel()
	if _, err := ParseCSV(strings.NewReader("a,b,c\n")); err == nil {
		test.Fatalf("expected header mismatch error")
	}
}

func TestReportFileName(test *testing.T) {
	test.Parallel()
	name := ReportFileName("Hansraj Model School", seedTestNow)
	if name != "Hansraj_Model_School_CarbonCollective_Report_20231114.csv" {
		test.Fatalf("unexpected file name %q", name)
	}
	if fallback := ReportFileName("   ", seedTestNow); !strings.HasPrefix(fallback, "Organization_") {
		test.Fatalf("unexpected fallback name %q", fallback)
	}
}

func TestParseCSVRederivesThroughCalculator(test *testing.T) {
	test.Parallel()
	seeder, err := NewSeeder(rand.New(rand.NewSource(4)))
	if err != nil {
		test.Fatalf("seeder init: %v", err)
	}
	entries, err := seeder.Entries(10, seedTestNow)
	if err != nil {
		test.Fatalf("seed: %v", err)
	}
	data, err := ExportCSV(entries)
	if err != nil {
		test.Fatalf("export: %v", err)
	}
	parsed, err := ParseCSV(bytes.NewReader(data))
	if err != nil {
		test.Fatalf("parse: %v", err)
	}
	for _, entry := range parsed {
		if entry.Credits != entry.CO2SavedKg {
			test.Fatalf("parsed entry %s violates credit invariant", entry.EntryID)
		}
	}
}
