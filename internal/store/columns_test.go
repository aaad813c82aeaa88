package store

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/DevMandalia/direction-sky-ingest/internal/snapshot"
)

func TestRowArgsAlignWithColumns(t *testing.T) {
	row := snapshot.Row{
		Date:            time.Date(2025, 5, 21, 0, 0, 0, 0, time.UTC),
		ContractID:      "O:XYZ250620C00100000",
		UnderlyingAsset: "XYZ",
		InsertTimestamp: time.Now().UTC(),
		LastUpdated:     time.Now().UTC(),
	}

	args := rowArgs(&row)
	if len(args) != len(snapshotColumns) {
		t.Fatalf("rowArgs returned %d values for %d columns", len(args), len(snapshotColumns))
	}

	if args[0] != row.Date {
		t.Errorf("args[0] = %v, want date", args[0])
	}
	if args[1] != row.ContractID {
		t.Errorf("args[1] = %v, want contract_id", args[1])
	}
}

func TestColumnNamesAreUnique(t *testing.T) {
	seen := make(map[string]bool)
	for _, c := range snapshotColumns {
		if seen[c.name] {
			t.Errorf("duplicate column %q", c.name)
		}
		seen[c.name] = true
	}
}

func TestKeyAndBookkeepingColumnsAreImmutable(t *testing.T) {
	immutable := map[string]bool{
		"date":             true,
		"contract_id":      true,
		"insert_timestamp": true,
	}

	for _, c := range snapshotColumns {
		if want := !immutable[c.name]; c.mutable != want {
			t.Errorf("column %s mutable = %v, want %v", c.name, c.mutable, want)
		}
	}
}

func TestUpsertSQL(t *testing.T) {
	query := upsertSQL()

	if !strings.Contains(query, primaryTable) {
		t.Error("upsert does not target the primary table")
	}
	if !strings.Contains(query, "ON CONFLICT (date, contract_id) DO UPDATE SET") {
		t.Error("upsert is missing the conflict branch")
	}

	// The highest placeholder must match the column count.
	last := fmt.Sprintf("$%d", len(snapshotColumns))
	if !strings.Contains(query, last) {
		t.Errorf("upsert is missing placeholder %s", last)
	}
	overflow := fmt.Sprintf("$%d", len(snapshotColumns)+1)
	if strings.Contains(query, overflow) {
		t.Errorf("upsert has excess placeholder %s", overflow)
	}

	// Immutable columns never appear on the update branch.
	if strings.Contains(query, "insert_timestamp = EXCLUDED") {
		t.Error("insert_timestamp must survive updates")
	}
	if strings.Contains(query, "contract_id = EXCLUDED") {
		t.Error("key columns must not be reassigned")
	}
	if !strings.Contains(query, "last_updated = EXCLUDED.last_updated") {
		t.Error("last_updated must advance on update")
	}
}

func TestStagingInsertSQL(t *testing.T) {
	query := stagingInsertSQL()

	if !strings.Contains(query, stagingTable) {
		t.Error("staging insert does not target the staging table")
	}
	if strings.Contains(query, "ON CONFLICT") {
		t.Error("staging insert must be unconditional")
	}
}

func TestMergeSQL(t *testing.T) {
	query := mergeSQL()

	if !strings.Contains(query, "DISTINCT ON (contract_id)") {
		t.Error("merge must deduplicate staged rows per contract")
	}
	if !strings.Contains(query, "ORDER BY contract_id, last_updated DESC") {
		t.Error("merge must resolve duplicates by recency")
	}
	if !strings.Contains(query, "WHERE date = $1") {
		t.Error("merge must be scoped to one trading date")
	}
	if !strings.Contains(query, "ON CONFLICT (date, contract_id) DO UPDATE SET") {
		t.Error("merge is missing the conflict branch")
	}
}

func TestColumnDefsCoverEveryColumn(t *testing.T) {
	defs := columnDefs()
	for _, c := range snapshotColumns {
		if !strings.Contains(defs, c.name+" "+c.sqlType) {
			t.Errorf("DDL is missing column %s %s", c.name, c.sqlType)
		}
	}
}
