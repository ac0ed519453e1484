package colstore

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"
)

// BloomFilter answers "is this key definitely absent from the block?" in
// O(k) without touching block data. A negative answer is exact; a positive
// answer may be a false positive and the block must still be decoded.
//
// Each row block carries one filter over its distinct key values, written
// right after the block. Filters are only read for blocks that already
// passed the min/max range check, so most stay cold.
type BloomFilter struct {
	bits    []uint64 // bit array (words)
	numBits uint64   // total bits (for modulo)
	k       uint32   // number of hash functions
	count   uint32   // number of elements added
}

// BloomFilterSize computes optimal filter parameters for the expected
// element count and target false-positive rate. Returns (numBits, k).
//
// For 1% false positives: ~10 bits/element, k=7.
func BloomFilterSize(expectedElements int, falsePositiveRate float64) (numBits uint64, k uint32) {
	if expectedElements <= 0 {
		expectedElements = 1
	}
	if falsePositiveRate <= 0 || falsePositiveRate >= 1 {
		falsePositiveRate = 0.01
	}

	// Optimal bits: m = -n*ln(p) / (ln(2)^2)
	ln2Sq := math.Ln2 * math.Ln2
	m := float64(-expectedElements) * math.Log(falsePositiveRate) / ln2Sq

	// Optimal hash count: k = (m/n) * ln(2)
	kFloat := (m / float64(expectedElements)) * math.Ln2

	numBits = ((uint64(m) + 63) / 64) * 64
	if numBits < 64 {
		numBits = 64
	}

	k = uint32(math.Ceil(kFloat))
	if k < 1 {
		k = 1
	}
	if k > 16 {
		k = 16
	}

	return numBits, k
}

// NewBloomFilter creates a filter with the given size and hash count.
func NewBloomFilter(numBits uint64, k uint32) *BloomFilter {
	if numBits < 64 {
		numBits = 64
	}
	numBits = ((numBits + 63) / 64) * 64
	if k < 1 {
		k = 1
	}
	if k > 16 {
		k = 16
	}

	return &BloomFilter{
		bits:    make([]uint64, numBits/64),
		numBits: numBits,
		k:       k,
	}
}

// Add inserts a key. After Add(x), MayContain(x) always returns true.
func (bf *BloomFilter) Add(key string) {
	h1, h2 := bloomHash(key)
	for i := uint32(0); i < bf.k; i++ {
		// Double hashing: h(i) = h1 + i*h2
		bit := (h1 + uint64(i)*h2) % bf.numBits
		bf.bits[bit/64] |= 1 << (bit % 64)
	}
	bf.count++
}

// MayContain reports whether key might be in the set. False means the key
// is definitely absent.
func (bf *BloomFilter) MayContain(key string) bool {
	h1, h2 := bloomHash(key)
	for i := uint32(0); i < bf.k; i++ {
		bit := (h1 + uint64(i)*h2) % bf.numBits
		if bf.bits[bit/64]&(1<<(bit%64)) == 0 {
			return false
		}
	}
	return true
}

// Count returns the number of keys added.
func (bf *BloomFilter) Count() uint32 {
	return bf.count
}

// SizeBytes returns the serialized size of the filter in bytes.
func (bf *BloomFilter) SizeBytes() int {
	return 16 + len(bf.bits)*8
}

// WriteTo serializes the filter: numBits (8) + k (4) + count (4) + words.
func (bf *BloomFilter) WriteTo(w io.Writer) (int64, error) {
	var written int64

	header := make([]byte, 16)
	binary.LittleEndian.PutUint64(header[0:8], bf.numBits)
	binary.LittleEndian.PutUint32(header[8:12], bf.k)
	binary.LittleEndian.PutUint32(header[12:16], bf.count)

	n, err := w.Write(header)
	written += int64(n)
	if err != nil {
		return written, err
	}

	buf := make([]byte, len(bf.bits)*8)
	for i, word := range bf.bits {
		binary.LittleEndian.PutUint64(buf[i*8:], word)
	}
	n, err = w.Write(buf)
	written += int64(n)
	return written, err
}

// ReadBloomFilter deserializes a filter written by WriteTo.
func ReadBloomFilter(r io.Reader) (*BloomFilter, error) {
	header := make([]byte, 16)
	if _, err := io.ReadFull(r, header); err != nil {
		return nil, fmt.Errorf("%w: short bloom filter header: %v", ErrCorrupted, err)
	}

	numBits := binary.LittleEndian.Uint64(header[0:8])
	k := binary.LittleEndian.Uint32(header[8:12])
	count := binary.LittleEndian.Uint32(header[12:16])

	if numBits < 64 || numBits%64 != 0 {
		return nil, fmt.Errorf("%w: invalid bloom filter size %d", ErrCorrupted, numBits)
	}
	if k < 1 || k > 16 {
		return nil, fmt.Errorf("%w: invalid bloom filter hash count %d", ErrCorrupted, k)
	}

	bits := make([]uint64, numBits/64)
	buf := make([]byte, len(bits)*8)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, fmt.Errorf("%w: short bloom filter bits: %v", ErrCorrupted, err)
	}
	for i := range bits {
		bits[i] = binary.LittleEndian.Uint64(buf[i*8:])
	}

	return &BloomFilter{
		bits:    bits,
		numBits: numBits,
		k:       k,
		count:   count,
	}, nil
}

// bloomHash computes two independent hashes for double hashing, using an
// FNV-1a variant for speed and distribution.
func bloomHash(s string) (h1, h2 uint64) {
	const (
		fnvOffset = 14695981039346656037
		fnvPrime  = 1099511628211
	)

	h1 = fnvOffset
	for i := 0; i < len(s); i++ {
		h1 ^= uint64(s[i])
		h1 *= fnvPrime
	}

	// Second hash: different seed and reversed iteration
	h2 = fnvOffset ^ 0x5555555555555555
	for i := len(s) - 1; i >= 0; i-- {
		h2 ^= uint64(s[i])
		h2 *= fnvPrime
	}

	// Keep h2 odd for double hashing
	h2 |= 1

	return h1, h2
}
