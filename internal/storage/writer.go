// Package storage saves and loads snapshot files of fetched records.
package storage

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/zstd"

	"github.com/coffersTech/nanoaudit/internal/model"
)

// Snapshot file header.
var MagicHeader = []byte("NANOAUD1")

// footerSize is RowCount(4) + MinTs(8) + MaxTs(8).
const footerSize = 20

type SnapshotWriter struct {
	encoder *zstd.Encoder
}

func NewSnapshotWriter() (*SnapshotWriter, error) {
	enc, err := zstd.NewWriter(nil)
	if err != nil {
		return nil, err
	}
	return &SnapshotWriter{encoder: enc}, nil
}

// Close releases the encoder.
func (sw *SnapshotWriter) Close() error {
	return sw.encoder.Close()
}

// WriteSnapshot writes records to filename atomically.
func (sw *SnapshotWriter) WriteSnapshot(filename string, records []model.LogRecord) error {
	if dir := filepath.Dir(filename); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}

	tmpPath := filename + ".tmp"
	f, err := os.Create(tmpPath)
	if err != nil {
		return err
	}
	if err := sw.write(f, records); err != nil {
		f.Close()
		os.Remove(tmpPath)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(tmpPath)
		return err
	}

	return os.Rename(tmpPath, filename)
}

func (sw *SnapshotWriter) write(w io.Writer, records []model.LogRecord) error {
	if _, err := w.Write(MagicHeader); err != nil {
		return err
	}

	if records == nil {
		records = []model.LogRecord{}
	}
	raw, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("encode records: %w", err)
	}
	if err := sw.compressAndWrite(w, raw); err != nil {
		return err
	}

	// footer: row count, then min and max timestamp
	var minTs, maxTs int64
	for i, r := range records {
		if i == 0 || r.Timestamp < minTs {
			minTs = r.Timestamp
		}
		if i == 0 || r.Timestamp > maxTs {
			maxTs = r.Timestamp
		}
	}
	return writeFooter(w, uint32(len(records)), minTs, maxTs)
}

func (sw *SnapshotWriter) compressAndWrite(w io.Writer, raw []byte) error {
	compressed := sw.encoder.EncodeAll(raw, make([]byte, 0, len(raw)))

	size := uint32(len(compressed))
	if err := binary.Write(w, binary.LittleEndian, size); err != nil {
		return err
	}

	_, err := w.Write(compressed)
	return err
}

func writeFooter(w io.Writer, rowCount uint32, minTs, maxTs int64) error {
	if err := binary.Write(w, binary.LittleEndian, rowCount); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, minTs); err != nil {
		return err
	}
	return binary.Write(w, binary.LittleEndian, maxTs)
}
