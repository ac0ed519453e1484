package colstore

import (
	"encoding/binary"
	"errors"
	"fmt"
	"hash/crc32"
	"io"
	"sort"
)

const (
	// FormatMagic identifies columnar summary store files (ASCII "TED1").
	FormatMagic uint32 = 0x54454431

	// FormatVersion is the current file format version.
	FormatVersion uint32 = 1

	// HeaderSize is the fixed size of the file header in bytes.
	HeaderSize = 64

	// FlagDerivedKey is set when the key column was derived by the builder
	// and materialized as the last store column.
	FlagDerivedKey uint32 = 1 << 0
)

var (
	// ErrInvalidMagic is returned when a file does not start with the
	// store magic number.
	ErrInvalidMagic = errors.New("colstore: invalid magic number")

	// ErrInvalidVersion is returned when the file format version is not
	// supported by this package.
	ErrInvalidVersion = errors.New("colstore: unsupported format version")

	// ErrCorrupted is returned when a checksum does not match or a
	// section cannot be decoded.
	ErrCorrupted = errors.New("colstore: file corrupted")

	// ErrNoKey is returned by Build when no key column is configured.
	ErrNoKey = errors.New("colstore: key column not configured")
)

// FileHeader is the 64-byte header at the start of every store file. All
// multi-byte fields are little-endian. Checksum covers the header bytes
// preceding it, so a torn or truncated header is detected before the footer
// is ever read.
type FileHeader struct {
	Magic      uint32
	Version    uint32
	Flags      uint32
	Codec      uint32 // block compression algorithm (Compression)
	RowCount   uint64
	BlockCount uint64
	FooterOff  uint64
	FooterLen  uint64
	FooterCRC  uint32 // CRC32 of the stored footer section
	Checksum   uint32 // CRC32 of header bytes [0, 52)
	Reserved   [8]byte
}

// WriteTo writes the header, computing its checksum.
func (h *FileHeader) WriteTo(w io.Writer) (int64, error) {
	buf := make([]byte, HeaderSize)
	binary.LittleEndian.PutUint32(buf[0:4], h.Magic)
	binary.LittleEndian.PutUint32(buf[4:8], h.Version)
	binary.LittleEndian.PutUint32(buf[8:12], h.Flags)
	binary.LittleEndian.PutUint32(buf[12:16], h.Codec)
	binary.LittleEndian.PutUint64(buf[16:24], h.RowCount)
	binary.LittleEndian.PutUint64(buf[24:32], h.BlockCount)
	binary.LittleEndian.PutUint64(buf[32:40], h.FooterOff)
	binary.LittleEndian.PutUint64(buf[40:48], h.FooterLen)
	binary.LittleEndian.PutUint32(buf[48:52], h.FooterCRC)
	h.Checksum = crc32.ChecksumIEEE(buf[:52])
	binary.LittleEndian.PutUint32(buf[52:56], h.Checksum)
	copy(buf[56:64], h.Reserved[:])

	n, err := w.Write(buf)
	return int64(n), err
}

// ReadFrom reads and validates the header.
func (h *FileHeader) ReadFrom(r io.Reader) (int64, error) {
	buf := make([]byte, HeaderSize)
	n, err := io.ReadFull(r, buf)
	if err != nil {
		return int64(n), fmt.Errorf("read header: %w", err)
	}

	h.Magic = binary.LittleEndian.Uint32(buf[0:4])
	h.Version = binary.LittleEndian.Uint32(buf[4:8])
	h.Flags = binary.LittleEndian.Uint32(buf[8:12])
	h.Codec = binary.LittleEndian.Uint32(buf[12:16])
	h.RowCount = binary.LittleEndian.Uint64(buf[16:24])
	h.BlockCount = binary.LittleEndian.Uint64(buf[24:32])
	h.FooterOff = binary.LittleEndian.Uint64(buf[32:40])
	h.FooterLen = binary.LittleEndian.Uint64(buf[40:48])
	h.FooterCRC = binary.LittleEndian.Uint32(buf[48:52])
	h.Checksum = binary.LittleEndian.Uint32(buf[52:56])
	copy(h.Reserved[:], buf[56:64])

	if h.Magic != FormatMagic {
		return int64(n), fmt.Errorf("%w: got 0x%08X, want 0x%08X", ErrInvalidMagic, h.Magic, FormatMagic)
	}
	if h.Version != FormatVersion {
		return int64(n), fmt.Errorf("%w: got %d, want %d", ErrInvalidVersion, h.Version, FormatVersion)
	}
	if got := crc32.ChecksumIEEE(buf[:52]); got != h.Checksum {
		return int64(n), fmt.Errorf("%w: header checksum mismatch (got 0x%08X, want 0x%08X)", ErrCorrupted, got, h.Checksum)
	}
	return int64(n), nil
}

// footer is the trailing metadata section, encoded with the configured
// codec and compressed like a row block.
type footer struct {
	Schema  []string    `json:"schema"`
	Types   []string    `json:"types"`
	Key     string      `json:"key"`
	Derived bool        `json:"derived"`
	Source  string      `json:"source,omitempty"`
	Codec   string      `json:"codec"`
	Blocks  []blockMeta `json:"blocks"`
}

// blockMeta describes one row block: where it lives, its key range for
// min/max pruning, and where its Bloom filter lives.
type blockMeta struct {
	Offset   int64  `json:"offset"`
	Length   uint32 `json:"length"`
	Rows     uint32 `json:"rows"`
	MinKey   string `json:"min_key"`
	MaxKey   string `json:"max_key"`
	BloomOff int64  `json:"bloom_off"`
	BloomLen uint32 `json:"bloom_len"`
	CRC      uint32 `json:"crc"`
}

// targetWindow returns the subslice of sorted target keys that falls inside
// the block's [MinKey, MaxKey] range. An empty window means the block cannot
// contain any target and is skipped without touching the data.
func (m *blockMeta) targetWindow(targets []string) []string {
	lo := sort.SearchStrings(targets, m.MinKey)
	hi := sort.SearchStrings(targets, m.MaxKey)
	if hi < len(targets) && targets[hi] == m.MaxKey {
		hi++
	}
	if lo >= hi {
		return nil
	}
	return targets[lo:hi]
}
