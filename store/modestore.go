package store

import (
	"database/sql"
	"encoding/json"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"

	"github.com/gospod/spod/internal/spoderr"
)

// ModeStore persists the SPOD mode tensor in streaming mode: each
// frequency's leading n_save mode columns are written once, keyed by
// the spod_f{NNNN} naming convention of §6, into a single
// self-describing SQLite file (mirroring SQLiteStore's treatment of
// block files).
type ModeStore struct {
	db     *sql.DB
	dbPath string
	shape  []int
}

// NewModeStore opens (creating if needed) the mode database under dir
// for snapshots of spatial shape shape.
func NewModeStore(dir string, shape []int) (*ModeStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, spoderr.NewIOError(err, "creating mode store directory %s", dir)
	}
	path := filepath.Join(dir, "spod_modes.db")
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, spoderr.NewIOError(err, "opening mode store %s", path)
	}
	const schema = `
CREATE TABLE IF NOT EXISTS spod_modes (
	freq_key   TEXT    NOT NULL,
	freq_index INTEGER NOT NULL,
	mode_index INTEGER NOT NULL,
	re         BLOB    NOT NULL,
	im         BLOB    NOT NULL,
	PRIMARY KEY (freq_index, mode_index)
);
CREATE TABLE IF NOT EXISTS spod_modes_meta (
	key   TEXT PRIMARY KEY,
	value TEXT NOT NULL
);`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, spoderr.NewIOError(err, "initializing mode store schema")
	}
	shapeJSON, _ := json.Marshal(shape)
	if _, err := db.Exec(`INSERT OR REPLACE INTO spod_modes_meta(key, value) VALUES ('shape', ?)`, string(shapeJSON)); err != nil {
		db.Close()
		return nil, spoderr.NewIOError(err, "recording mode store shape metadata")
	}
	return &ModeStore{db: db, dbPath: path, shape: shape}, nil
}

// OpenModeStore opens an existing mode database and recovers its
// shape metadata, for read-only lazy access by a modes.StoreAccessor.
func OpenModeStore(dir string) (*ModeStore, error) {
	path := filepath.Join(dir, "spod_modes.db")
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, spoderr.NewIOError(err, "opening mode store %s", path)
	}
	var shapeJSON string
	if err := db.QueryRow(`SELECT value FROM spod_modes_meta WHERE key = 'shape'`).Scan(&shapeJSON); err != nil {
		db.Close()
		return nil, spoderr.NewIOError(err, "reading mode store shape metadata")
	}
	var shape []int
	if err := json.Unmarshal([]byte(shapeJSON), &shape); err != nil {
		db.Close()
		return nil, spoderr.NewIOError(err, "decoding mode store shape metadata")
	}
	return &ModeStore{db: db, dbPath: path, shape: shape}, nil
}

// Shape returns the spatial shape S = (s1, ..., sd) modes unflatten to.
func (ms *ModeStore) Shape() []int { return ms.shape }

// PutModes writes the first nSave columns of modes (shape Nx x N_blks)
// for frequency freqIndex, keyed as spod_f{NNNN}.
func (ms *ModeStore) PutModes(freqIndex int, modes *Matrix, nSave int) error {
	if nSave > modes.NBlks {
		nSave = modes.NBlks
	}
	tx, err := ms.db.Begin()
	if err != nil {
		return spoderr.NewIOError(err, "beginning mode write transaction")
	}
	stmt, err := tx.Prepare(`INSERT OR REPLACE INTO spod_modes(freq_key, freq_index, mode_index, re, im) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		tx.Rollback()
		return spoderr.NewIOError(err, "preparing mode insert")
	}
	defer stmt.Close()

	key := ModeKey(freqIndex)
	for j := 0; j < nSave; j++ {
		col := make([]complex128, modes.Nx)
		for x := 0; x < modes.Nx; x++ {
			col[x] = modes.At(x, j)
		}
		re, im := encodeComplexRow(col)
		if _, err := stmt.Exec(key, freqIndex, j, re, im); err != nil {
			tx.Rollback()
			return spoderr.NewIOError(err, "writing mode %d at frequency %d", j, freqIndex)
		}
	}
	return tx.Commit()
}

// Mode reads back mode j at frequency freqIndex, flattened to length
// Nx, or a LookupError if that (frequency, mode) pair was never saved.
func (ms *ModeStore) Mode(freqIndex, modeIndex int) ([]complex128, error) {
	var reBlob, imBlob []byte
	err := ms.db.QueryRow(`SELECT re, im FROM spod_modes WHERE freq_index = ? AND mode_index = ?`, freqIndex, modeIndex).Scan(&reBlob, &imBlob)
	if err == sql.ErrNoRows {
		return nil, spoderr.NewLookupError("mode %d at frequency %d was not saved", modeIndex, freqIndex)
	}
	if err != nil {
		return nil, spoderr.NewIOError(err, "reading mode %d at frequency %d", modeIndex, freqIndex)
	}
	return decodeComplexRow(reBlob, imBlob), nil
}

// DiskUsage returns the size in bytes of the mode database file.
func (ms *ModeStore) DiskUsage() (int64, error) {
	fi, err := os.Stat(ms.dbPath)
	if err != nil {
		return 0, spoderr.NewIOError(err, "statting mode store %s", ms.dbPath)
	}
	return fi.Size(), nil
}

// Close releases the underlying database handle.
func (ms *ModeStore) Close() error {
	if ms.db == nil {
		return nil
	}
	return ms.db.Close()
}
