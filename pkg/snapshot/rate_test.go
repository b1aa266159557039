package snapshot

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHotel_Snapshot_ParseRate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want Rate
	}{
		{"129", NumericRate(129)},
		{" 149.50 ", NumericRate(149.5)},
		{"$1,299.00", NumericRate(1299)},
		{"Sold Out", SoldOut},
		{"SOLD OUT", SoldOut},
		{"sold out", SoldOut},
		{"King sold out!", SoldOut},
		{"", UnknownRate},
		{"n/a", UnknownRate},
		{"NaN", UnknownRate},
		{"soldout", UnknownRate},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()
			require.Equal(t, tt.want, ParseRate(tt.in))
		})
	}
}

func TestHotel_Snapshot_RateAccessors(t *testing.T) {
	t.Parallel()

	v, ok := NumericRate(99).Float()
	require.True(t, ok)
	require.Equal(t, 99.0, v)

	_, ok = SoldOut.Float()
	require.False(t, ok)
	require.True(t, SoldOut.IsSoldOut())
	require.False(t, UnknownRate.IsSoldOut())

	require.Equal(t, "Sold Out", SoldOut.String())
	require.Equal(t, "", UnknownRate.String())
	require.Equal(t, "129.5", NumericRate(129.5).String())
	require.Equal(t, SoldOut, ParseRate(SoldOut.String()))
}

func TestHotel_Snapshot_RateJSON(t *testing.T) {
	t.Parallel()

	b, err := json.Marshal(map[string]Rate{"a": NumericRate(10), "b": SoldOut, "c": UnknownRate})
	require.NoError(t, err)
	require.JSONEq(t, `{"a":10,"b":"sold_out","c":null}`, string(b))
}
