package storage

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/klauspost/compress/zstd"

	"github.com/coffersTech/nanoaudit/internal/model"
)

var (
	ErrInvalidHeader = errors.New("invalid snapshot file header")
	ErrCorrupt       = errors.New("corrupt snapshot file")
)

// Footer is the summary stored at the end of a snapshot file.
type Footer struct {
	RowCount int
	MinTs    int64
	MaxTs    int64
}

type SnapshotReader struct {
	decoder *zstd.Decoder
	records *model.Decoder
}

// NewSnapshotReader decodes records with dec, or a strict decoder if nil.
func NewSnapshotReader(dec *model.Decoder) (*SnapshotReader, error) {
	zd, err := zstd.NewReader(nil)
	if err != nil {
		return nil, err
	}
	if dec == nil {
		dec = &model.Decoder{}
	}
	return &SnapshotReader{decoder: zd, records: dec}, nil
}

// Close releases the decoder.
func (sr *SnapshotReader) Close() {
	sr.decoder.Close()
}

// ReadFooter reads only the header and footer.
func ReadFooter(filename string) (Footer, error) {
	f, err := os.Open(filename)
	if err != nil {
		return Footer{}, err
	}
	defer f.Close()

	_, footer, err := readFrame(f)
	return footer, err
}

// readFrame validates the header and returns the file size and footer.
func readFrame(f *os.File) (int64, Footer, error) {
	header := make([]byte, len(MagicHeader))
	if _, err := io.ReadFull(f, header); err != nil {
		return 0, Footer{}, fmt.Errorf("%w: %v", ErrInvalidHeader, err)
	}
	if !bytes.Equal(header, MagicHeader) {
		return 0, Footer{}, ErrInvalidHeader
	}

	// footer occupies the last footerSize bytes
	info, err := f.Stat()
	if err != nil {
		return 0, Footer{}, err
	}
	if info.Size() < int64(len(MagicHeader)+footerSize) {
		return 0, Footer{}, fmt.Errorf("%w: file too small", ErrCorrupt)
	}

	raw := make([]byte, footerSize)
	if _, err := f.ReadAt(raw, info.Size()-footerSize); err != nil {
		return 0, Footer{}, err
	}
	return info.Size(), Footer{
		RowCount: int(binary.LittleEndian.Uint32(raw[0:4])),
		MinTs:    int64(binary.LittleEndian.Uint64(raw[4:12])),
		MaxTs:    int64(binary.LittleEndian.Uint64(raw[12:20])),
	}, nil
}

// ReadSnapshot loads every record of a snapshot file.
func (sr *SnapshotReader) ReadSnapshot(filename string) ([]model.LogRecord, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	size, footer, err := readFrame(f)
	if err != nil {
		return nil, err
	}

	body := io.NewSectionReader(f, int64(len(MagicHeader)), size-int64(len(MagicHeader))-footerSize)
	raw, err := sr.readAndDecompress(body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}

	records, err := sr.records.DecodeRecords(raw)
	if err != nil {
		return nil, err
	}
	if sr.records.Lenient {
		return records, nil
	}
	if len(records) != footer.RowCount {
		return nil, fmt.Errorf("%w: footer says %d records, found %d", ErrCorrupt, footer.RowCount, len(records))
	}
	return records, nil
}

// readAndDecompress reads one length-prefixed zstd frame.
func (sr *SnapshotReader) readAndDecompress(r io.Reader) ([]byte, error) {
	var size uint32
	if err := binary.Read(r, binary.LittleEndian, &size); err != nil {
		return nil, err
	}

	compressed := make([]byte, size)
	if _, err := io.ReadFull(r, compressed); err != nil {
		return nil, err
	}

	return sr.decoder.DecodeAll(compressed, nil)
}
