package lease_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/lease-engine/lease"
)

func TestParseDate_StrictFormat(t *testing.T) {
	d, err := lease.ParseDate("2025-03-10")
	require.NoError(t, err)
	assert.Equal(t, "2025-03-10", d.String())

	for _, bad := range []string{"10/03/2025", "2025-3-10", "2025-03-10T00:00:00Z", "", "yesterday"} {
		_, err := lease.ParseDate(bad)
		assert.ErrorIs(t, err, lease.ErrInvalidDate, "input %q", bad)
	}
}

func TestDate_Arithmetic(t *testing.T) {
	d := lease.MustDate("2025-01-30")

	assert.Equal(t, "2025-02-01", d.AddDays(2).String(), "month rollover")
	assert.Equal(t, 2, d.DaysBetween(lease.MustDate("2025-02-01")))
	assert.True(t, d.BeforeOrEqual(d))
	assert.False(t, d.Before(d))
}

func TestLater(t *testing.T) {
	a, b := lease.MustDate("2025-01-10"), lease.MustDate("2025-02-10")
	assert.Equal(t, b, lease.Later(a, b))
	assert.Equal(t, b, lease.Later(b, a))
	assert.Equal(t, a, lease.Later(a, a))
}

func TestDate_JSONRoundTrip(t *testing.T) {
	d := lease.MustDate("2025-01-15")

	b, err := json.Marshal(d)
	require.NoError(t, err)
	assert.Equal(t, `"2025-01-15"`, string(b))

	var back lease.Date
	require.NoError(t, json.Unmarshal(b, &back))
	assert.True(t, d.Equal(back))

	assert.Error(t, json.Unmarshal([]byte(`12345`), &back))
}
