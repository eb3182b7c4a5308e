package commons

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDateRange(t *testing.T) {
	r, details := ParseDateRange("2026-03-01", "2026-03-31")
	require.Empty(t, details)
	assert.Equal(t, time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), *r.From)
	assert.Equal(t, time.Date(2026, 3, 31, 23, 59, 59, int(999*time.Millisecond), time.UTC), *r.To)

	r, details = ParseDateRange("", "")
	assert.Empty(t, details)
	assert.Nil(t, r.From)
	assert.Nil(t, r.To)

	_, details = ParseDateRange("03/01/2026", "")
	require.Len(t, details, 1)
	assert.Equal(t, "startDate", details[0].Field)

	_, details = ParseDateRange("2026-04-02", "2026-04-01")
	require.Len(t, details, 1)
	assert.Equal(t, "endDate", details[0].Field)
}

func TestParsePage(t *testing.T) {
	p, details := ParsePage("", "")
	assert.Empty(t, details)
	assert.Equal(t, DefaultPage, p.Number)
	assert.Equal(t, DefaultLimit, p.Limit)

	p, details = ParsePage("3", "25")
	assert.Empty(t, details)
	assert.Equal(t, 3, p.Number)
	assert.Equal(t, 25, p.Limit)

	_, details = ParsePage("0", "101")
	assert.Len(t, details, 2)

	_, details = ParsePage("x", "")
	assert.Len(t, details, 1)
}
