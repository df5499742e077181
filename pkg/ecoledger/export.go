package ecoledger

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"
)

var exportHeader = []string{
	"entry_id",
	"recorded_at",
	"actor_name",
	"role",
	"activity",
	"quantity",
	"co2_saved_kg",
	"credits",
}

const exportTimeLayout = time.RFC3339

// WriteCSV serializes a snapshot in its given order: a header row followed
// by one row per entry. encoding/csv handles delimiter and quote escaping;
// floats use locale-independent shortest decimal form.
func WriteCSV(writer io.Writer, entries []Entry) error {
	csvWriter := csv.NewWriter(writer)
	if err := csvWriter.Write(exportHeader); err != nil {
		return WrapError(errorOperationExport, errorSubjectRecord, errorCodeEncode, err)
	}
	for _, entry := range entries {
		row := []string{
			entry.EntryID,
			time.Unix(entry.RecordedUnixUTC, 0).UTC().Format(exportTimeLayout),
			entry.ActorName,
			entry.Role.String(),
			entry.Activity.String(),
			formatFloat(entry.Quantity),
			formatFloat(entry.CO2SavedKg),
			formatFloat(entry.Credits),
		}
		if err := csvWriter.Write(row); err != nil {
			return WrapError(errorOperationExport, errorSubjectRecord, errorCodeEncode, err)
		}
	}
	csvWriter.Flush()
	return WrapError(errorOperationExport, errorSubjectRecord, errorCodeEncode, csvWriter.Error())
}

// ExportCSV renders a snapshot as CSV bytes.
func ExportCSV(entries []Entry) ([]byte, error) {
	var buffer bytes.Buffer
	if err := WriteCSV(&buffer, entries); err != nil {
		return nil, err
	}
	return buffer.Bytes(), nil
}

// ParseCSV reads back an export. Derived values are recomputed through the
// credit calculator from (activity, quantity) rather than trusted from the
// file, so a parsed ledger always satisfies the credits == co2 invariant.
func ParseCSV(reader io.Reader) ([]Entry, error) {
	csvReader := csv.NewReader(reader)
	csvReader.FieldsPerRecord = len(exportHeader)

	header, err := csvReader.Read()
	if err == io.EOF {
		return nil, WrapError(errorOperationExport, errorSubjectRecord, errorCodeDecode, fmt.Errorf("missing header row"))
	}
	if err != nil {
		return nil, WrapError(errorOperationExport, errorSubjectRecord, errorCodeDecode, err)
	}
	if strings.Join(header, ",") != strings.Join(exportHeader, ",") {
		return nil, WrapError(errorOperationExport, errorSubjectRecord, errorCodeDecode, fmt.Errorf("unexpected header %q", strings.Join(header, ",")))
	}

	var entries []Entry
	for {
		row, err := csvReader.Read()
		if err == io.EOF {
			return entries, nil
		}
		if err != nil {
			return nil, WrapError(errorOperationExport, errorSubjectRecord, errorCodeDecode, err)
		}
		entry, err := parseExportRow(row)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
}

// ReportFileName derives the CSV download name from the organization name
// and the report date.
func ReportFileName(orgName string, nowUnixUTC int64) string {
	normalized := strings.Join(strings.Fields(strings.TrimSpace(orgName)), "_")
	if normalized == "" {
		normalized = "Organization"
	}
	date := time.Unix(nowUnixUTC, 0).UTC().Format("20060102")
	return fmt.Sprintf("%s_CarbonCollective_Report_%s.csv", normalized, date)
}

func parseExportRow(row []string) (Entry, error) {
	recordedAt, err := time.Parse(exportTimeLayout, row[1])
	if err != nil {
		return Entry{}, WrapError(errorOperationExport, errorSubjectRecord, errorCodeDecode, err)
	}
	actor, err := NewActorName(row[2])
	if err != nil {
		return Entry{}, err
	}
	role, err := ParseRole(row[3])
	if err != nil {
		return Entry{}, err
	}
	activity, err := ParseActivityKind(row[4])
	if err != nil {
		return Entry{}, err
	}
	rawQuantity, err := strconv.ParseFloat(row[5], 64)
	if err != nil {
		return Entry{}, WrapError(errorOperationExport, errorSubjectRecord, errorCodeDecode, err)
	}
	quantity, err := NewQuantity(rawQuantity)
	if err != nil {
		return Entry{}, err
	}
	return NewEntry(row[0], recordedAt.Unix(), actor, role, activity, quantity)
}

func formatFloat(value float64) string {
	return strconv.FormatFloat(value, 'g', -1, 64)
}
