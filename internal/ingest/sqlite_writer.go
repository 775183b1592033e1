package ingest

import (
	"database/sql"
	"fmt"
	"log"
	"sync"

	"github.com/ohler55/ojg"
	"github.com/ohler55/ojg/oj"
	_ "modernc.org/sqlite"
)

// DefaultBatchSize is the number of rows written per transaction.
const DefaultBatchSize = 10000

// SQLiteWriter stores mapped documents in a results table that StreamSQLite
// can read back. Each row keeps the id of the source record it came from and
// its position among that record's outputs.
type SQLiteWriter struct {
	db        *sql.DB
	tx        *sql.Tx
	stmt      *sql.Stmt
	batchSize int
	count     int
	total     int
	mu        sync.Mutex
}

// NewSQLiteWriter creates the database at dbPath and initializes the schema.
func NewSQLiteWriter(dbPath string) (*SQLiteWriter, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", dbPath, err)
	}

	// Performance tuning for bulk insert
	if _, err := db.Exec("PRAGMA synchronous = OFF"); err != nil {
		_ = db.Close()
		return nil, err
	}
	if _, err := db.Exec("PRAGMA journal_mode = MEMORY"); err != nil {
		_ = db.Close()
		return nil, err
	}

	schema := `
	CREATE TABLE IF NOT EXISTS results (
		id TEXT PRIMARY KEY,
		source_id TEXT NOT NULL,
		seq INTEGER NOT NULL,
		record TEXT NOT NULL
	);
	`
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	w := &SQLiteWriter{db: db, batchSize: DefaultBatchSize}
	if err := w.beginTx(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return w, nil
}

func (w *SQLiteWriter) beginTx() error {
	var err error
	w.tx, err = w.db.Begin()
	if err != nil {
		return err
	}
	w.stmt, err = w.tx.Prepare(`
		INSERT OR REPLACE INTO results (id, source_id, seq, record)
		VALUES (?, ?, ?, ?)
	`)
	return err
}

func (w *SQLiteWriter) commitTx() error {
	if w.stmt != nil {
		_ = w.stmt.Close()
	}
	return w.tx.Commit()
}

// Write stores the documents mapped from the source record sourceID. Their
// ids are sourceID/0, sourceID/1, ...
func (w *SQLiteWriter) Write(sourceID string, docs []map[string]any) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	for seq, d := range docs {
		id := fmt.Sprintf("%s/%d", sourceID, seq)
		record := oj.JSON(d, &ojg.Options{Sort: true})
		if _, err := w.stmt.Exec(id, sourceID, seq, record); err != nil {
			return fmt.Errorf("insert %s: %w", id, err)
		}
		w.total++
		w.count++
		if w.count >= w.batchSize {
			if err := w.commitTx(); err != nil {
				return fmt.Errorf("commit: %w", err)
			}
			if err := w.beginTx(); err != nil {
				return fmt.Errorf("begin: %w", err)
			}
			w.count = 0
		}
	}
	return nil
}

// Count returns the number of documents written so far.
func (w *SQLiteWriter) Count() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.total
}

// Close commits pending rows and closes the database.
func (w *SQLiteWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.commitTx(); err != nil {
		_ = w.db.Close()
		return err
	}
	if _, err := w.db.Exec(`CREATE INDEX IF NOT EXISTS idx_results_source ON results(source_id, seq)`); err != nil {
		log.Printf("SQLiteWriter: index creation failed: %v", err)
	}
	return w.db.Close()
}
