package store

import (
	"fmt"
	"strings"

	"github.com/DevMandalia/direction-sky-ingest/internal/snapshot"
)

// Destination tables. The staging table carries the same column set as the
// primary table but no uniqueness constraint.
const (
	primaryTable = "market.option_snapshots"
	stagingTable = "market.option_snapshots_staging"
)

// column describes one destination column. Every statement in this package
// (DDL, row-wise upsert, staging insert, merge) is generated from the single
// snapshotColumns table below, so the column order used to bind parameters
// can never diverge between paths.
type column struct {
	name    string
	sqlType string
	mutable bool // overwritten when the key already exists
}

var snapshotColumns = []column{
	// Composite primary key
	{"date", "DATE NOT NULL", false},
	{"contract_id", "TEXT NOT NULL", false},

	// Contract identity
	{"underlying_asset", "TEXT NOT NULL", true},
	{"contract_type", "TEXT", true},
	{"strike_price", "DOUBLE PRECISION", true},
	{"expiration_date", "DATE", true},
	{"exercise_style", "TEXT", true},
	{"shares_per_contract", "DOUBLE PRECISION", true},

	// Quote
	{"bid", "DOUBLE PRECISION", true},
	{"ask", "DOUBLE PRECISION", true},
	{"bid_size", "DOUBLE PRECISION", true},
	{"ask_size", "DOUBLE PRECISION", true},
	{"mid_price", "DOUBLE PRECISION", true},
	{"spread", "DOUBLE PRECISION", true},
	{"spread_percentage", "DOUBLE PRECISION", true},

	// Trade
	{"last_price", "DOUBLE PRECISION", true},
	{"last_size", "DOUBLE PRECISION", true},
	{"exchange", "BIGINT", true},
	{"conditions", "BIGINT[]", true},

	// Market
	{"volume", "DOUBLE PRECISION", true},
	{"open_interest", "DOUBLE PRECISION", true},
	{"implied_volatility", "DOUBLE PRECISION", true},

	// Greeks
	{"delta", "DOUBLE PRECISION", true},
	{"gamma", "DOUBLE PRECISION", true},
	{"theta", "DOUBLE PRECISION", true},
	{"vega", "DOUBLE PRECISION", true},
	{"rho", "DOUBLE PRECISION", true},

	// Previous session
	{"prev_open", "DOUBLE PRECISION", true},
	{"prev_high", "DOUBLE PRECISION", true},
	{"prev_low", "DOUBLE PRECISION", true},
	{"prev_close", "DOUBLE PRECISION", true},
	{"prev_vwap", "DOUBLE PRECISION", true},

	// Computed analytics
	{"days_to_expiration", "INTEGER", true},
	{"score", "DOUBLE PRECISION", true},

	// Bookkeeping: insert_timestamp is the first-seen time and survives
	// updates; last_updated advances on every refresh.
	{"insert_timestamp", "TIMESTAMPTZ NOT NULL", false},
	{"last_updated", "TIMESTAMPTZ NOT NULL", true},
	{"raw_data", "JSONB", true},
}

// rowArgs returns the bind parameters for one row, in snapshotColumns order.
func rowArgs(r *snapshot.Row) []interface{} {
	var raw interface{}
	if len(r.RawData) > 0 {
		raw = []byte(r.RawData)
	}

	return []interface{}{
		r.Date,
		r.ContractID,

		r.UnderlyingAsset,
		r.ContractType,
		r.StrikePrice,
		r.ExpirationDate,
		r.ExerciseStyle,
		r.SharesPerContract,

		r.Bid,
		r.Ask,
		r.BidSize,
		r.AskSize,
		r.MidPrice,
		r.Spread,
		r.SpreadPercentage,

		r.LastPrice,
		r.LastSize,
		r.Exchange,
		r.Conditions,

		r.Volume,
		r.OpenInterest,
		r.ImpliedVolatility,

		r.Delta,
		r.Gamma,
		r.Theta,
		r.Vega,
		r.Rho,

		r.PrevOpen,
		r.PrevHigh,
		r.PrevLow,
		r.PrevClose,
		r.PrevVWAP,

		r.DaysToExpiration,
		r.Score,

		r.InsertTimestamp,
		r.LastUpdated,
		raw,
	}
}

// columnNames returns all column names in declaration order.
func columnNames() []string {
	names := make([]string, len(snapshotColumns))
	for i, c := range snapshotColumns {
		names[i] = c.name
	}
	return names
}

// columnDefs returns the DDL column definitions.
func columnDefs() string {
	defs := make([]string, len(snapshotColumns))
	for i, c := range snapshotColumns {
		defs[i] = fmt.Sprintf("%s %s", c.name, c.sqlType)
	}
	return strings.Join(defs, ",\n\t")
}

// placeholders returns "$1, $2, ..., $n" for one row of bind parameters.
func placeholders() string {
	ps := make([]string, len(snapshotColumns))
	for i := range snapshotColumns {
		ps[i] = fmt.Sprintf("$%d", i+1)
	}
	return strings.Join(ps, ", ")
}

// updateAssignments returns "col = EXCLUDED.col" for every mutable column.
func updateAssignments() string {
	var parts []string
	for _, c := range snapshotColumns {
		if c.mutable {
			parts = append(parts, fmt.Sprintf("%s = EXCLUDED.%s", c.name, c.name))
		}
	}
	return strings.Join(parts, ",\n\t\t")
}

// upsertSQL is the row-wise conditional write: insert the key or overwrite
// every mutable column, leaving insert_timestamp untouched.
func upsertSQL() string {
	return fmt.Sprintf(`
		INSERT INTO %s (%s)
		VALUES (%s)
		ON CONFLICT (date, contract_id) DO UPDATE SET
		%s
	`, primaryTable, strings.Join(columnNames(), ", "), placeholders(), updateAssignments())
}

// stagingInsertSQL is the unconditional staging write.
func stagingInsertSQL() string {
	return fmt.Sprintf(`
		INSERT INTO %s (%s)
		VALUES (%s)
	`, stagingTable, strings.Join(columnNames(), ", "), placeholders())
}

// mergeSQL is the single set-based reconciliation for the staged-bulk path:
// deduplicate staged rows per contract by recency, restrict to the current
// trading date, and upsert into the primary table with the same branching
// as the row-wise path.
func mergeSQL() string {
	cols := strings.Join(columnNames(), ", ")
	return fmt.Sprintf(`
		INSERT INTO %s (%s)
		SELECT DISTINCT ON (contract_id) %s
		FROM %s
		WHERE date = $1
		ORDER BY contract_id, last_updated DESC
		ON CONFLICT (date, contract_id) DO UPDATE SET
		%s
	`, primaryTable, cols, cols, stagingTable, updateAssignments())
}
