package codec

import (
	"testing"

	"github.com/stretchr/testify/require"
)

type payload struct {
	Schema []string `json:"schema"`
	Rows   uint64   `json:"rows"`
	Blob   []byte   `json:"blob,omitempty"`
}

func TestCodec_RoundTrip(t *testing.T) {
	in := payload{
		Schema: []string{"ted_id", "cath_label", "uniprot_acc"},
		Rows:   12345,
		Blob:   []byte{0x01, 0x02, 0xff},
	}

	for _, c := range []Codec{JSON{}, GoJSON{}} {
		data, err := c.Marshal(in)
		require.NoError(t, err)

		var out payload
		require.NoError(t, c.Unmarshal(data, &out))
		require.Equal(t, in, out)
	}
}

func TestCodec_CrossDecode(t *testing.T) {
	// Both codecs emit standard JSON, so output from one must decode with
	// the other. Footers written under either codec stay readable.
	in := payload{Schema: []string{"a"}, Rows: 1}

	data := MustMarshal(GoJSON{}, in)

	var out payload
	require.NoError(t, JSON{}.Unmarshal(data, &out))
	require.Equal(t, in, out)
}

func TestCodec_ByName(t *testing.T) {
	c, ok := ByName("json")
	require.True(t, ok)
	require.Equal(t, "json", c.Name())

	c, ok = ByName("go-json")
	require.True(t, ok)
	require.Equal(t, "go-json", c.Name())

	_, ok = ByName("msgpack")
	require.False(t, ok)
}
