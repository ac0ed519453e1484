package colstore

import (
	"bytes"
	"testing"
)

func TestBloomFilterBasic(t *testing.T) {
	numBits, k := BloomFilterSize(1000, 0.01)
	bf := NewBloomFilter(numBits, k)

	keys := []string{"P12345", "Q67890", "A0A0A0A0A0", "O43657", "P0DTD1"}
	for _, key := range keys {
		bf.Add(key)
	}

	// No false negatives allowed
	for _, key := range keys {
		if !bf.MayContain(key) {
			t.Errorf("MayContain(%q) = false, want true (no false negatives allowed)", key)
		}
	}

	if bf.Count() != uint32(len(keys)) {
		t.Errorf("Count() = %d, want %d", bf.Count(), len(keys))
	}
}

func TestBloomFilterDefinitelyNot(t *testing.T) {
	numBits, k := BloomFilterSize(100, 0.01)
	bf := NewBloomFilter(numBits, k)

	bf.Add("P12345")
	bf.Add("Q67890")
	bf.Add("O43657")

	notPresent := []string{
		"definitely_not_here_12345",
		"another_missing_value_67890",
		"xyz_missing_abc",
	}

	falsePositives := 0
	for _, key := range notPresent {
		if bf.MayContain(key) {
			falsePositives++
		}
	}

	// With a 100-element filter and only 3 keys added, the false positive
	// rate is far below one per three probes.
	if falsePositives > 1 {
		t.Errorf("got %d false positives out of %d probes", falsePositives, len(notPresent))
	}
}

func TestBloomFilterSerialization(t *testing.T) {
	bf := NewBloomFilter(512, 7)
	keys := []string{"P12345", "Q67890", "A0A028B1C5", "O43657", "B3EWF7"}
	for _, key := range keys {
		bf.Add(key)
	}

	var buf bytes.Buffer
	n, err := bf.WriteTo(&buf)
	if err != nil {
		t.Fatalf("WriteTo failed: %v", err)
	}
	if n != int64(buf.Len()) {
		t.Errorf("WriteTo returned %d, but buffer has %d bytes", n, buf.Len())
	}
	if int(n) != bf.SizeBytes() {
		t.Errorf("WriteTo wrote %d bytes, SizeBytes() = %d", n, bf.SizeBytes())
	}

	bf2, err := ReadBloomFilter(&buf)
	if err != nil {
		t.Fatalf("ReadBloomFilter failed: %v", err)
	}

	if bf2.numBits != bf.numBits {
		t.Errorf("numBits mismatch: got %d, want %d", bf2.numBits, bf.numBits)
	}
	if bf2.k != bf.k {
		t.Errorf("k mismatch: got %d, want %d", bf2.k, bf.k)
	}
	if bf2.count != bf.count {
		t.Errorf("count mismatch: got %d, want %d", bf2.count, bf.count)
	}

	for _, key := range keys {
		if !bf2.MayContain(key) {
			t.Errorf("after deserialization, MayContain(%q) = false", key)
		}
	}
}

func TestBloomFilterReadRejectsGarbage(t *testing.T) {
	// Truncated header
	if _, err := ReadBloomFilter(bytes.NewReader([]byte{1, 2, 3})); err == nil {
		t.Error("expected error for truncated header")
	}

	// Invalid parameters
	bad := make([]byte, 16)
	if _, err := ReadBloomFilter(bytes.NewReader(bad)); err == nil {
		t.Error("expected error for zero-bit filter")
	}
}

func TestBloomFilterSizeParams(t *testing.T) {
	tests := []struct {
		n   int
		fpr float64
	}{
		{100, 0.01},
		{1000, 0.01},
		{1000, 0.001},
		{100000, 0.01},
	}

	for _, tc := range tests {
		numBits, k := BloomFilterSize(tc.n, tc.fpr)
		if numBits < 64 || numBits%64 != 0 {
			t.Errorf("n=%d fpr=%g: numBits = %d, want aligned and >= 64", tc.n, tc.fpr, numBits)
		}
		if k < 1 || k > 16 {
			t.Errorf("n=%d fpr=%g: k = %d, want in [1,16]", tc.n, tc.fpr, k)
		}
	}

	// Degenerate inputs fall back to defaults instead of panicking
	numBits, k := BloomFilterSize(0, -1)
	if numBits < 64 || k < 1 {
		t.Errorf("degenerate inputs: numBits=%d k=%d", numBits, k)
	}
}
