package colstore

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
	"strconv"
)

// Column payload kinds. Numeric kinds are only used when every value in the
// block round-trips byte-identically through parse/format, so reading a
// store always yields the exact source text ("007" and "1.50" stay text).
const (
	kindText    uint8 = 0
	kindInt64   uint8 = 1
	kindFloat64 uint8 = 2
)

func kindName(k uint8) string {
	switch k {
	case kindInt64:
		return "int"
	case kindFloat64:
		return "float"
	default:
		return "text"
	}
}

// widenKind returns the narrowest kind consistent with both block kinds.
func widenKind(a, b uint8) uint8 {
	switch {
	case a == b:
		return a
	case a == kindText || b == kindText:
		return kindText
	default:
		return kindFloat64
	}
}

// encodeBlock column-encodes a batch of rows:
//
//	[rows uint32][cols uint16][(cols+1) x uint32 column offsets][payloads]
//
// Each payload starts with a kind byte. Text columns store uvarint-length
// prefixed values; int64/float64 columns store fixed 8-byte little-endian
// values. Offsets are relative to the payload area, with a final offset
// marking its end so every column slice is bounds-checked on decode.
func encodeBlock(rows [][]string, cols int) ([]byte, []uint8) {
	var payload bytes.Buffer
	offs := make([]uint32, cols+1)
	kinds := make([]uint8, cols)
	for c := 0; c < cols; c++ {
		offs[c] = uint32(payload.Len())
		kinds[c] = encodeColumn(&payload, rows, c)
	}
	offs[cols] = uint32(payload.Len())

	head := 6 + 4*(cols+1)
	out := make([]byte, head+payload.Len())
	binary.LittleEndian.PutUint32(out[0:4], uint32(len(rows)))
	binary.LittleEndian.PutUint16(out[4:6], uint16(cols))
	for i, o := range offs {
		binary.LittleEndian.PutUint32(out[6+4*i:], o)
	}
	copy(out[head:], payload.Bytes())
	return out, kinds
}

func encodeColumn(buf *bytes.Buffer, rows [][]string, c int) uint8 {
	if vals, ok := int64Column(rows, c); ok {
		buf.WriteByte(kindInt64)
		var b [8]byte
		for _, v := range vals {
			binary.LittleEndian.PutUint64(b[:], uint64(v))
			buf.Write(b[:])
		}
		return kindInt64
	}
	if vals, ok := float64Column(rows, c); ok {
		buf.WriteByte(kindFloat64)
		var b [8]byte
		for _, v := range vals {
			binary.LittleEndian.PutUint64(b[:], math.Float64bits(v))
			buf.Write(b[:])
		}
		return kindFloat64
	}

	buf.WriteByte(kindText)
	var lb [binary.MaxVarintLen64]byte
	for _, row := range rows {
		v := row[c]
		n := binary.PutUvarint(lb[:], uint64(len(v)))
		buf.Write(lb[:n])
		buf.WriteString(v)
	}
	return kindText
}

func int64Column(rows [][]string, c int) ([]int64, bool) {
	out := make([]int64, len(rows))
	for i, row := range rows {
		v := row[c]
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil || strconv.FormatInt(n, 10) != v {
			return nil, false
		}
		out[i] = n
	}
	return out, true
}

func float64Column(rows [][]string, c int) ([]float64, bool) {
	out := make([]float64, len(rows))
	for i, row := range rows {
		v := row[c]
		f, err := strconv.ParseFloat(v, 64)
		if err != nil || strconv.FormatFloat(f, 'g', -1, 64) != v {
			return nil, false
		}
		out[i] = f
	}
	return out, true
}

// block is a decoded block header over a decompressed payload.
type block struct {
	rows    int
	cols    int
	offs    []uint32
	payload []byte
}

func decodeBlock(data []byte) (*block, error) {
	if len(data) < 6 {
		return nil, fmt.Errorf("%w: block too small (%d bytes)", ErrCorrupted, len(data))
	}
	rows := int(binary.LittleEndian.Uint32(data[0:4]))
	cols := int(binary.LittleEndian.Uint16(data[4:6]))
	if cols < 1 {
		return nil, fmt.Errorf("%w: block with no columns", ErrCorrupted)
	}
	head := 6 + 4*(cols+1)
	if len(data) < head {
		return nil, fmt.Errorf("%w: truncated block offsets", ErrCorrupted)
	}
	offs := make([]uint32, cols+1)
	for i := range offs {
		offs[i] = binary.LittleEndian.Uint32(data[6+4*i:])
		if i > 0 && offs[i] < offs[i-1] {
			return nil, fmt.Errorf("%w: non-monotonic column offsets", ErrCorrupted)
		}
	}
	payload := data[head:]
	if int(offs[cols]) != len(payload) {
		return nil, fmt.Errorf("%w: block payload length mismatch (got %d, want %d)", ErrCorrupted, len(payload), offs[cols])
	}
	// Every non-empty column payload holds at least rows bytes after its
	// kind byte, which bounds allocations on a damaged row count.
	if rows > len(payload) {
		return nil, fmt.Errorf("%w: implausible row count %d", ErrCorrupted, rows)
	}
	return &block{rows: rows, cols: cols, offs: offs, payload: payload}, nil
}

func (b *block) columnPayload(i int) (kind uint8, p []byte, err error) {
	if i < 0 || i >= b.cols {
		return 0, nil, fmt.Errorf("%w: column %d out of range", ErrCorrupted, i)
	}
	p = b.payload[b.offs[i]:b.offs[i+1]]
	if len(p) < 1 {
		return 0, nil, fmt.Errorf("%w: empty column payload", ErrCorrupted)
	}
	return p[0], p[1:], nil
}

// column decodes every value of column i.
func (b *block) column(i int) ([]string, error) {
	kind, p, err := b.columnPayload(i)
	if err != nil {
		return nil, err
	}
	out := make([]string, b.rows)
	switch kind {
	case kindInt64:
		if len(p) != 8*b.rows {
			return nil, fmt.Errorf("%w: int column length mismatch", ErrCorrupted)
		}
		for r := 0; r < b.rows; r++ {
			out[r] = strconv.FormatInt(int64(binary.LittleEndian.Uint64(p[8*r:])), 10)
		}
	case kindFloat64:
		if len(p) != 8*b.rows {
			return nil, fmt.Errorf("%w: float column length mismatch", ErrCorrupted)
		}
		for r := 0; r < b.rows; r++ {
			f := math.Float64frombits(binary.LittleEndian.Uint64(p[8*r:]))
			out[r] = strconv.FormatFloat(f, 'g', -1, 64)
		}
	case kindText:
		off := 0
		for r := 0; r < b.rows; r++ {
			l, n := binary.Uvarint(p[off:])
			if n <= 0 || off+n+int(l) > len(p) {
				return nil, fmt.Errorf("%w: truncated text value", ErrCorrupted)
			}
			off += n
			out[r] = string(p[off : off+int(l)])
			off += int(l)
		}
		if off != len(p) {
			return nil, fmt.Errorf("%w: trailing bytes in text column", ErrCorrupted)
		}
	default:
		return nil, fmt.Errorf("%w: unknown column kind %d", ErrCorrupted, kind)
	}
	return out, nil
}

// gather decodes column i only at the selected ordinals (ascending). Fixed
// width kinds seek directly; text values are walked once with unselected
// values skipped without allocation.
func (b *block) gather(ords []uint32, i int) ([]string, error) {
	kind, p, err := b.columnPayload(i)
	if err != nil {
		return nil, err
	}
	out := make([]string, len(ords))
	switch kind {
	case kindInt64:
		if len(p) != 8*b.rows {
			return nil, fmt.Errorf("%w: int column length mismatch", ErrCorrupted)
		}
		for j, ord := range ords {
			if int(ord) >= b.rows {
				return nil, fmt.Errorf("%w: ordinal %d out of range", ErrCorrupted, ord)
			}
			out[j] = strconv.FormatInt(int64(binary.LittleEndian.Uint64(p[8*ord:])), 10)
		}
	case kindFloat64:
		if len(p) != 8*b.rows {
			return nil, fmt.Errorf("%w: float column length mismatch", ErrCorrupted)
		}
		for j, ord := range ords {
			if int(ord) >= b.rows {
				return nil, fmt.Errorf("%w: ordinal %d out of range", ErrCorrupted, ord)
			}
			f := math.Float64frombits(binary.LittleEndian.Uint64(p[8*ord:]))
			out[j] = strconv.FormatFloat(f, 'g', -1, 64)
		}
	case kindText:
		off := 0
		next := 0
		for r := 0; r < b.rows && next < len(ords); r++ {
			l, n := binary.Uvarint(p[off:])
			if n <= 0 || off+n+int(l) > len(p) {
				return nil, fmt.Errorf("%w: truncated text value", ErrCorrupted)
			}
			off += n
			if uint32(r) == ords[next] {
				out[next] = string(p[off : off+int(l)])
				next++
			}
			off += int(l)
		}
		if next != len(ords) {
			return nil, fmt.Errorf("%w: ordinal out of range", ErrCorrupted)
		}
	default:
		return nil, fmt.Errorf("%w: unknown column kind %d", ErrCorrupted, kind)
	}
	return out, nil
}
