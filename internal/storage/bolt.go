// Package storage — bolt.go
//
// BoltDB-backed persistent storage for the cognitive kernel.
//
// Schema (BoltDB bucket layout):
//
//	/calibration
//	    key:   domain name
//	    value: JSON-encoded types.CalibrationCurve
//
//	/ledger
//	    key:   fixed-width RFC3339 nanosecond timestamp + "_" + trace_id  [monotonic, sortable]
//	    value: JSON-encoded LedgerEntry
//
//	/meta
//	    key:   "schema_version"
//	    value: "1"
//
// Consistency model:
//   - Single-process, single-writer (BoltDB does not support concurrent writers).
//   - All writes use ACID transactions (bbolt Tx.Commit()).
//   - Reads use read-only transactions (bbolt.View()).
//   - CRC32 integrity check on database open (bbolt built-in).
//
// Retention:
//   - Ledger entries older than RetentionDays are pruned on startup.
//   - Calibration curves are never automatically pruned.
//
// Failure modes:
//   - BoltDB file corruption: bbolt detects via CRC and returns an error
//     on Open(). The kernel logs a fatal event and refuses to start.
//   - Disk full: bbolt.Update() returns an error, logged but not fatal;
//     in-memory state is preserved and the trace proceeds unpersisted.
package storage

import (
	"encoding/json"
	"fmt"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/azzindani/cogkernel/internal/types"
)

const (
	// SchemaVersion is the current database schema version.
	SchemaVersion = "1"

	// DefaultRetentionDays is the default ledger retention period.
	DefaultRetentionDays = 30

	bucketCalibration = "calibration"
	bucketLedger       = "ledger"
	bucketMeta         = "meta"
)

// LedgerEntry is the persisted form of one apex.AuditedDecision.
type LedgerEntry struct {
	Timestamp    time.Time `json:"timestamp"`
	TraceID      string    `json:"trace_id"`
	CycleIndex   int       `json:"cycle_index"`
	Action       string    `json:"action"`
	Reasoning    string    `json:"reasoning"`
	DecisionHash string    `json:"decision_hash"`
	ParentHash   string    `json:"parent_hash"`
}

// DB wraps a BoltDB instance with typed accessors for the kernel's
// calibration curves and decision ledger.
type DB struct {
	db            *bolt.DB
	retentionDays int
}

// Open opens (or creates) the BoltDB database at the given path.
// Initialises all required buckets and verifies the schema version.
func Open(path string, retentionDays int) (*DB, error) {
	if retentionDays <= 0 {
		retentionDays = DefaultRetentionDays
	}

	bdb, err := bolt.Open(path, 0o600, &bolt.Options{
		Timeout:      5 * time.Second,
		FreelistType: bolt.FreelistArrayType,
	})
	if err != nil {
		return nil, fmt.Errorf("bolt.Open(%q): %w", path, err)
	}

	d := &DB{db: bdb, retentionDays: retentionDays}

	if err := d.db.Update(func(tx *bolt.Tx) error {
		for _, name := range []string{bucketCalibration, bucketLedger, bucketMeta} {
			if _, err := tx.CreateBucketIfNotExists([]byte(name)); err != nil {
				return fmt.Errorf("CreateBucketIfNotExists(%q): %w", name, err)
			}
		}

		meta := tx.Bucket([]byte(bucketMeta))
		if meta.Get([]byte("schema_version")) == nil {
			if err := meta.Put([]byte("schema_version"), []byte(SchemaVersion)); err != nil {
				return fmt.Errorf("write schema_version: %w", err)
			}
		}
		return nil
	}); err != nil {
		_ = bdb.Close()
		return nil, fmt.Errorf("database initialisation failed: %w", err)
	}

	if err := d.checkSchemaVersion(); err != nil {
		_ = bdb.Close()
		return nil, err
	}

	return d, nil
}

func (d *DB) checkSchemaVersion() error {
	return d.db.View(func(tx *bolt.Tx) error {
		meta := tx.Bucket([]byte(bucketMeta))
		v := meta.Get([]byte("schema_version"))
		if string(v) != SchemaVersion {
			return fmt.Errorf(
				"schema version mismatch: database has %q, kernel requires %q. "+
					"Run migration or restore from backup.",
				string(v), SchemaVersion,
			)
		}
		return nil
	})
}

// Close closes the underlying BoltDB file.
func (d *DB) Close() error {
	return d.db.Close()
}

// ─── Calibration curve operations ──────────────────────────────────────

// PutCalibrationCurve writes or updates the persisted curve for one domain.
func (d *DB) PutCalibrationCurve(curve types.CalibrationCurve) error {
	data, err := json.Marshal(curve)
	if err != nil {
		return fmt.Errorf("PutCalibrationCurve marshal: %w", err)
	}
	return d.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucketCalibration))
		return b.Put([]byte(curve.Domain), data)
	})
}

// GetCalibrationCurve retrieves the persisted curve for one domain.
// Returns (nil, nil) if no curve has been persisted for this domain.
func (d *DB) GetCalibrationCurve(domain string) (*types.CalibrationCurve, error) {
	var curve types.CalibrationCurve
	found := false
	err := d.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucketCalibration))
		data := b.Get([]byte(domain))
		if data == nil {
			return nil
		}
		found = true
		return json.Unmarshal(data, &curve)
	})
	if err != nil {
		return nil, fmt.Errorf("GetCalibrationCurve(%q): %w", domain, err)
	}
	if !found {
		return nil, nil
	}
	return &curve, nil
}

// AllCalibrationCurves returns every persisted curve, for restoring a
// calibration.Store on startup.
func (d *DB) AllCalibrationCurves() ([]types.CalibrationCurve, error) {
	var curves []types.CalibrationCurve
	err := d.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucketCalibration))
		return b.ForEach(func(_, v []byte) error {
			var curve types.CalibrationCurve
			if err := json.Unmarshal(v, &curve); err != nil {
				return err
			}
			curves = append(curves, curve)
			return nil
		})
	})
	return curves, err
}

// ─── Decision ledger operations ────────────────────────────────────────

func ledgerKey(t time.Time, traceID string) []byte {
	// Fixed-width nanoseconds: RFC3339Nano drops trailing zeros, which
	// would break lexical-equals-chronological key ordering.
	return []byte(fmt.Sprintf("%s_%s", t.UTC().Format("2006-01-02T15:04:05.000000000Z07:00"), traceID))
}

// AppendLedger writes a new audit ledger entry.
func (d *DB) AppendLedger(entry LedgerEntry) error {
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now().UTC()
	}

	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("AppendLedger marshal: %w", err)
	}

	key := ledgerKey(entry.Timestamp, entry.TraceID)

	return d.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucketLedger))
		return b.Put(key, data)
	})
}

// PruneOldLedgerEntries deletes ledger entries older than retentionDays.
// Returns the number of entries deleted.
func (d *DB) PruneOldLedgerEntries() (int, error) {
	cutoff := time.Now().UTC().AddDate(0, 0, -d.retentionDays)
	cutoffKey := ledgerKey(cutoff, "")

	var deleted int
	err := d.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucketLedger))
		c := b.Cursor()

		var toDelete [][]byte
		for k, _ := c.First(); k != nil; k, _ = c.Next() {
			if string(k) >= string(cutoffKey) {
				break
			}
			keyCopy := make([]byte, len(k))
			copy(keyCopy, k)
			toDelete = append(toDelete, keyCopy)
		}

		for _, k := range toDelete {
			if err := b.Delete(k); err != nil {
				return fmt.Errorf("PruneOldLedgerEntries delete: %w", err)
			}
			deleted++
		}
		return nil
	})
	return deleted, err
}

// ReadLedger returns all ledger entries in chronological order. For
// operational inspection; not called on the hot path.
func (d *DB) ReadLedger() ([]LedgerEntry, error) {
	var entries []LedgerEntry
	err := d.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucketLedger))
		return b.ForEach(func(_, v []byte) error {
			var entry LedgerEntry
			if err := json.Unmarshal(v, &entry); err != nil {
				return err
			}
			entries = append(entries, entry)
			return nil
		})
	})
	return entries, err
}
