package archive

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/klauspost/compress/zstd"

	"github.com/five82/swiftrun/internal/booking"
)

const backupVersion = 1

// maxBackupBytes bounds the compressed input ReadBackup accepts.
const maxBackupBytes = 64 << 20

var (
	zstdEncoder *zstd.Encoder
	zstdDecoder *zstd.Decoder
)

func init() {
	var err error
	zstdEncoder, err = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		panic("archive: zstd encoder initialization failed: " + err.Error())
	}
	zstdDecoder, err = zstd.NewReader(nil, zstd.WithDecoderMaxMemory(256<<20))
	if err != nil {
		panic("archive: zstd decoder initialization failed: " + err.Error())
	}
}

// Backup is the document written by WriteBackup.
type Backup struct {
	Version   int               `json:"version"`
	CreatedAt string            `json:"createdAt"`
	Records   []booking.Booking `json:"records"`
}

// WriteBackup writes the ledger as zstd-compressed JSON.
func (l *Ledger) WriteBackup(w io.Writer, now time.Time) error {
	doc := Backup{
		Version:   backupVersion,
		CreatedAt: booking.FormatTimestamp(now),
		Records:   l.Records(),
	}
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode backup: %w", err)
	}
	if _, err := w.Write(zstdEncoder.EncodeAll(data, nil)); err != nil {
		return fmt.Errorf("write backup: %w", err)
	}
	return nil
}

// ReadBackup decodes a backup written by WriteBackup. Callers merge the
// records with Restore.
func ReadBackup(r io.Reader) (Backup, error) {
	compressed, err := io.ReadAll(io.LimitReader(r, maxBackupBytes+1))
	if err != nil {
		return Backup{}, fmt.Errorf("read backup: %w", err)
	}
	if len(compressed) > maxBackupBytes {
		return Backup{}, fmt.Errorf("read backup: larger than %d bytes", maxBackupBytes)
	}
	data, err := zstdDecoder.DecodeAll(compressed, nil)
	if err != nil {
		return Backup{}, fmt.Errorf("zstd decompress: %w", err)
	}
	var doc Backup
	if err := json.Unmarshal(data, &doc); err != nil {
		return Backup{}, fmt.Errorf("decode backup: %w", err)
	}
	if doc.Version != backupVersion {
		return Backup{}, fmt.Errorf("unsupported backup version %d", doc.Version)
	}
	return doc, nil
}
