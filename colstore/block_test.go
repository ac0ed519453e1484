package colstore

import (
	"errors"
	"testing"
)

func TestEncodeBlockRoundTrip(t *testing.T) {
	rows := [][]string{
		{"1", "1.5", "007", "AF-P12345-F1-TED01"},
		{"2", "2.25", "430.0", "AF-Q67890-F1-TED01"},
		{"-3", "-0.5", "", "AF-A0A0A0-F1-TED02"},
		{"9223372036854775807", "1e+100", "naïve", "AF-P12345-F1-TED02"},
	}

	data, kinds := encodeBlock(rows, 4)

	wantKinds := []uint8{kindInt64, kindFloat64, kindText, kindText}
	for i, want := range wantKinds {
		if kinds[i] != want {
			t.Errorf("column %d kind = %s, want %s", i, kindName(kinds[i]), kindName(want))
		}
	}

	blk, err := decodeBlock(data)
	if err != nil {
		t.Fatalf("decodeBlock failed: %v", err)
	}
	if blk.rows != len(rows) || blk.cols != 4 {
		t.Fatalf("block shape = %dx%d, want %dx4", blk.rows, blk.cols, len(rows))
	}

	for c := 0; c < 4; c++ {
		vals, err := blk.column(c)
		if err != nil {
			t.Fatalf("column(%d) failed: %v", c, err)
		}
		for r := range rows {
			if vals[r] != rows[r][c] {
				t.Errorf("column %d row %d = %q, want %q", c, r, vals[r], rows[r][c])
			}
		}
	}
}

func TestEncodeBlockNumericFidelity(t *testing.T) {
	// Values that parse numerically but do not format back identically must
	// stay text so reads return the exact source bytes.
	tests := []struct {
		value string
		want  uint8
	}{
		{"42", kindInt64},
		{"007", kindText},
		{"-0", kindFloat64}, // negative zero: not an int64, but formats back as "-0"
		{"1.5", kindFloat64},
		{"1.50", kindText},
		{"430.0", kindText},
		{"NaN", kindFloat64},
		{"", kindText},
		{"12e3", kindText},
	}

	for _, tc := range tests {
		rows := [][]string{{tc.value}, {tc.value}}
		_, kinds := encodeBlock(rows, 1)
		if kinds[0] != tc.want {
			t.Errorf("value %q encoded as %s, want %s", tc.value, kindName(kinds[0]), kindName(tc.want))
		}
	}

	// A single non-conforming value demotes the whole block column.
	rows := [][]string{{"1"}, {"2"}, {"007"}}
	_, kinds := encodeBlock(rows, 1)
	if kinds[0] != kindText {
		t.Errorf("mixed column encoded as %s, want text", kindName(kinds[0]))
	}
}

func TestBlockGather(t *testing.T) {
	rows := [][]string{
		{"10", "alpha"},
		{"20", "beta"},
		{"30", "gamma"},
		{"40", "delta"},
	}
	data, _ := encodeBlock(rows, 2)
	blk, err := decodeBlock(data)
	if err != nil {
		t.Fatalf("decodeBlock failed: %v", err)
	}

	ords := []uint32{0, 2, 3}
	for c := 0; c < 2; c++ {
		vals, err := blk.gather(ords, c)
		if err != nil {
			t.Fatalf("gather(%d) failed: %v", c, err)
		}
		for j, ord := range ords {
			if vals[j] != rows[ord][c] {
				t.Errorf("gather col %d ord %d = %q, want %q", c, ord, vals[j], rows[ord][c])
			}
		}
	}

	// Out-of-range ordinal is corruption, not a panic
	if _, err := blk.gather([]uint32{9}, 0); !errors.Is(err, ErrCorrupted) {
		t.Errorf("gather with bad ordinal: err = %v, want ErrCorrupted", err)
	}
}

func TestDecodeBlockRejectsDamage(t *testing.T) {
	rows := [][]string{{"a", "b"}, {"c", "d"}}
	data, _ := encodeBlock(rows, 2)

	cases := map[string][]byte{
		"empty":            {},
		"tiny":             data[:4],
		"truncated header": data[:8],
		"truncated body":   data[:len(data)-1],
	}
	for name, d := range cases {
		if _, err := decodeBlock(d); !errors.Is(err, ErrCorrupted) {
			t.Errorf("%s: err = %v, want ErrCorrupted", name, err)
		}
	}
}

func TestWidenKind(t *testing.T) {
	tests := []struct {
		a, b, want uint8
	}{
		{kindInt64, kindInt64, kindInt64},
		{kindInt64, kindFloat64, kindFloat64},
		{kindFloat64, kindInt64, kindFloat64},
		{kindInt64, kindText, kindText},
		{kindText, kindFloat64, kindText},
		{kindText, kindText, kindText},
	}
	for _, tc := range tests {
		if got := widenKind(tc.a, tc.b); got != tc.want {
			t.Errorf("widenKind(%s, %s) = %s, want %s",
				kindName(tc.a), kindName(tc.b), kindName(got), kindName(tc.want))
		}
	}
}
