// Package sqlite persists the session's ATC transmission log.
package sqlite

import (
	"database/sql"
	"fmt"
	"path/filepath"
	"time"

	"github.com/walker79/offline-atc/pkg/logger"
	_ "modernc.org/sqlite"
)

// TransmissionRecord is one logged ATC transmission
type TransmissionRecord struct {
	ID        int64     `json:"id"`
	CreatedAt time.Time `json:"timestamp"`
	Message   string    `json:"message"`
	Position  string    `json:"position"`
	Phase     string    `json:"phase"`
	Frequency string    `json:"frequency"`
	DelayMS   int64     `json:"delay_ms"`
}

// TransmissionStorage is a SQLite-backed transmission log
type TransmissionStorage struct {
	db     *sql.DB
	logger *logger.Logger
}

// Open opens (or creates) the day's database file under basePath and
// prepares the schema
func Open(basePath string, log *logger.Logger) (*TransmissionStorage, error) {
	storageLogger := log.Named("sqlite")

	dbPath := filepath.Join(basePath, fmt.Sprintf("offline-atc-%s.db", time.Now().Format("2006-01-02")))
	storageLogger.Info("Initializing SQLite storage",
		logger.String("path", dbPath))

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports one writer at a time
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	// Set pragmas for better performance and concurrency
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return nil, fmt.Errorf("failed to set journal mode: %w", err)
	}
	if _, err := db.Exec("PRAGMA synchronous=NORMAL"); err != nil {
		return nil, fmt.Errorf("failed to set synchronous mode: %w", err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout=5000"); err != nil {
		return nil, fmt.Errorf("failed to set busy timeout: %w", err)
	}
	if _, err := db.Exec("PRAGMA cache_size=10000"); err != nil {
		return nil, fmt.Errorf("failed to set cache size: %w", err)
	}

	storage := &TransmissionStorage{
		db:     db,
		logger: storageLogger,
	}
	if err := storage.initDB(); err != nil {
		db.Close()
		return nil, err
	}
	return storage, nil
}

func (s *TransmissionStorage) initDB() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS transmissions (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			created_at TIMESTAMP NOT NULL,
			message TEXT NOT NULL,
			position TEXT NOT NULL,
			phase TEXT NOT NULL,
			frequency TEXT NOT NULL,
			delay_ms INTEGER NOT NULL DEFAULT 0
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create transmissions table: %w", err)
	}

	if _, err = s.db.Exec(`CREATE INDEX IF NOT EXISTS idx_transmissions_created_at ON transmissions(created_at)`); err != nil {
		return fmt.Errorf("failed to create created_at index: %w", err)
	}
	if _, err = s.db.Exec(`CREATE INDEX IF NOT EXISTS idx_transmissions_position ON transmissions(position)`); err != nil {
		return fmt.Errorf("failed to create position index: %w", err)
	}
	return nil
}

// StoreTransmission inserts a record and returns its ID
func (s *TransmissionStorage) StoreTransmission(record *TransmissionRecord) (int64, error) {
	result, err := s.db.Exec(
		`INSERT INTO transmissions
		(created_at, message, position, phase, frequency, delay_ms)
		VALUES (?, ?, ?, ?, ?, ?)`,
		record.CreatedAt.Format(time.RFC3339),
		record.Message,
		record.Position,
		record.Phase,
		record.Frequency,
		record.DelayMS,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert transmission: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get last insert ID: %w", err)
	}
	return id, nil
}

// GetTransmissions returns transmissions newest first with pagination
func (s *TransmissionStorage) GetTransmissions(limit, offset int) ([]*TransmissionRecord, error) {
	rows, err := s.db.Query(
		`SELECT id, created_at, message, position, phase, frequency, delay_ms
		FROM transmissions
		ORDER BY created_at DESC, id DESC
		LIMIT ? OFFSET ?`,
		limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query transmissions: %w", err)
	}
	defer rows.Close()

	return scanTransmissions(rows)
}

// GetTransmissionsByPosition returns transmissions from one controller
// position, newest first
func (s *TransmissionStorage) GetTransmissionsByPosition(position string, limit, offset int) ([]*TransmissionRecord, error) {
	rows, err := s.db.Query(
		`SELECT id, created_at, message, position, phase, frequency, delay_ms
		FROM transmissions
		WHERE position = ?
		ORDER BY created_at DESC, id DESC
		LIMIT ? OFFSET ?`,
		position, limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query transmissions by position: %w", err)
	}
	defer rows.Close()

	return scanTransmissions(rows)
}

func scanTransmissions(rows *sql.Rows) ([]*TransmissionRecord, error) {
	var records []*TransmissionRecord
	for rows.Next() {
		var record TransmissionRecord
		var createdAt string

		if err := rows.Scan(
			&record.ID,
			&createdAt,
			&record.Message,
			&record.Position,
			&record.Phase,
			&record.Frequency,
			&record.DelayMS,
		); err != nil {
			return nil, fmt.Errorf("failed to scan transmission: %w", err)
		}

		parsed, err := time.Parse(time.RFC3339, createdAt)
		if err != nil {
			return nil, fmt.Errorf("failed to parse created_at: %w", err)
		}
		record.CreatedAt = parsed

		records = append(records, &record)
	}
	return records, rows.Err()
}

// Close closes the underlying database
func (s *TransmissionStorage) Close() error {
	return s.db.Close()
}
