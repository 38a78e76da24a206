package store

import (
	"bytes"
	"database/sql"
	"encoding/binary"
	"math"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"

	"github.com/gospod/spod/internal/spoderr"
)

// SQLiteStore is the streaming Block Store variant: one persisted
// record per (block, frequency) pair, held in a single self-describing
// SQLite file rather than one file per block (spec.md §4.6, §6). Rows
// are keyed by the block/frequency naming convention of §6 so the
// on-disk contract ("fft_block{NNNN}") is preserved even though the
// container is a database rather than a bare file per block.
//
// Grounded on roman-kulish-drone-radio-surveillance/internal/storage's
// Store interface, adapted from session/telemetry rows to block/mode
// blob rows.
type SQLiteStore struct {
	db            *sql.DB
	dbPath        string
	nf, nx, nblks int
	saveFreqs     map[int]bool // nil means "retain every frequency"
}

// NewSQLiteStore opens (creating if needed) the block database under
// dir, sized for nf frequencies, nx spatial points, and nblks blocks.
// saveFreqs, if non-nil, restricts which frequency rows are persisted;
// rows outside the set are never written and read back as zero.
func NewSQLiteStore(dir string, nf, nx, nblks int, saveFreqs map[int]bool) (*SQLiteStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, spoderr.NewIOError(err, "creating block store directory %s", dir)
	}
	path := filepath.Join(dir, "fft_blocks.db")
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, spoderr.NewIOError(err, "opening block store %s", path)
	}
	const schema = `
CREATE TABLE IF NOT EXISTS fft_blocks (
	block_key   TEXT    NOT NULL,
	block_index INTEGER NOT NULL,
	freq_index  INTEGER NOT NULL,
	re          BLOB    NOT NULL,
	im          BLOB    NOT NULL,
	PRIMARY KEY (block_index, freq_index)
);`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, spoderr.NewIOError(err, "initializing block store schema")
	}
	return &SQLiteStore{db: db, dbPath: path, nf: nf, nx: nx, nblks: nblks, saveFreqs: saveFreqs}, nil
}

func (s *SQLiteStore) retains(freqIndex int) bool {
	return s.saveFreqs == nil || s.saveFreqs[freqIndex]
}

func (s *SQLiteStore) Put(blockIndex int, blk Block) error {
	if blockIndex < 0 || blockIndex >= s.nblks {
		return spoderr.NewIOError(nil, "block index %d out of range [0,%d)", blockIndex, s.nblks)
	}
	tx, err := s.db.Begin()
	if err != nil {
		return spoderr.NewIOError(err, "beginning block write transaction")
	}
	stmt, err := tx.Prepare(`INSERT OR REPLACE INTO fft_blocks(block_key, block_index, freq_index, re, im) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		tx.Rollback()
		return spoderr.NewIOError(err, "preparing block insert")
	}
	defer stmt.Close()

	key := BlockKey(blockIndex)
	for f := 0; f < blk.Nf; f++ {
		if !s.retains(f) {
			continue
		}
		re, im := encodeComplexRow(blk.Data[f])
		if _, err := stmt.Exec(key, blockIndex, f, re, im); err != nil {
			tx.Rollback()
			return spoderr.NewIOError(err, "writing block %d frequency %d", blockIndex, f)
		}
	}
	if err := tx.Commit(); err != nil {
		return spoderr.NewIOError(err, "committing block %d", blockIndex)
	}
	return nil
}

func (s *SQLiteStore) ReadFrequency(freqIndex int) (*Matrix, error) {
	if freqIndex < 0 || freqIndex >= s.nf {
		return nil, spoderr.NewLookupError("frequency index %d out of range [0,%d)", freqIndex, s.nf)
	}
	m := &Matrix{Nx: s.nx, NBlks: s.nblks, Data: make([]complex128, s.nx*s.nblks)}
	if !s.retains(freqIndex) {
		return m, nil // rows outside save_freqs are exactly zero
	}

	rows, err := s.db.Query(`SELECT block_index, re, im FROM fft_blocks WHERE freq_index = ? ORDER BY block_index`, freqIndex)
	if err != nil {
		return nil, spoderr.NewIOError(err, "reading frequency %d", freqIndex)
	}
	defer rows.Close()

	for rows.Next() {
		var b int
		var reBlob, imBlob []byte
		if err := rows.Scan(&b, &reBlob, &imBlob); err != nil {
			return nil, spoderr.NewIOError(err, "scanning frequency %d", freqIndex)
		}
		if b < 0 || b >= s.nblks {
			continue
		}
		col := decodeComplexRow(reBlob, imBlob)
		for x := 0; x < s.nx && x < len(col); x++ {
			m.Set(x, b, col[x])
		}
	}
	return m, rows.Err()
}

func (s *SQLiteStore) ListFrequencies() []int {
	if s.saveFreqs == nil {
		all := make([]int, s.nf)
		for i := range all {
			all[i] = i
		}
		return all
	}
	out := make([]int, 0, len(s.saveFreqs))
	for f := range s.saveFreqs {
		out = append(out, f)
	}
	return out
}

func (s *SQLiteStore) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// DiskUsage returns the size in bytes of the block database file on
// disk, for diagnostics (SPEC_FULL.md §12.5).
func (s *SQLiteStore) DiskUsage() (int64, error) {
	fi, err := os.Stat(s.dbPath)
	if err != nil {
		return 0, spoderr.NewIOError(err, "statting block store %s", s.dbPath)
	}
	return fi.Size(), nil
}

func encodeComplexRow(row []complex128) (re, im []byte) {
	reBuf := new(bytes.Buffer)
	imBuf := new(bytes.Buffer)
	for _, v := range row {
		binary.Write(reBuf, binary.LittleEndian, math.Float64bits(real(v)))
		binary.Write(imBuf, binary.LittleEndian, math.Float64bits(imag(v)))
	}
	return reBuf.Bytes(), imBuf.Bytes()
}

func decodeComplexRow(re, im []byte) []complex128 {
	n := len(re) / 8
	out := make([]complex128, n)
	for i := 0; i < n; i++ {
		r := math.Float64frombits(binary.LittleEndian.Uint64(re[i*8 : i*8+8]))
		var imag0 float64
		if i*8+8 <= len(im) {
			imag0 = math.Float64frombits(binary.LittleEndian.Uint64(im[i*8 : i*8+8]))
		}
		out[i] = complex(r, imag0)
	}
	return out
}
