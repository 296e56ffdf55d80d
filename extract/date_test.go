package extract

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	trt = time.FixedZone("TRT", 3*60*60)
	now = time.Date(2025, 9, 3, 12, 0, 0, 0, trt)
)

func TestParseDate(t *testing.T) {
	tests := []struct {
		in   string
		want time.Time
	}{
		{"2025-09-02T15:44:59+03:00", time.Date(2025, 9, 2, 15, 44, 59, 0, trt)},
		{"2025-09-02T12:44:59Z", time.Date(2025, 9, 2, 15, 44, 59, 0, trt)},
		{"2025-09-02T15:44:59.123+0300", time.Date(2025, 9, 2, 15, 44, 59, 123000000, trt)},
		{"2025-09-02 15:44:59+03:00", time.Date(2025, 9, 2, 15, 44, 59, 0, trt)},
		{"2025-09-02T15:44:59", time.Date(2025, 9, 2, 15, 44, 59, 0, trt)},
		{"2025-09-02", time.Date(2025, 9, 2, 0, 0, 0, 0, trt)},
		{"02.09.2025 15:44:59", time.Date(2025, 9, 2, 15, 44, 59, 0, trt)},
		{"02.09.2025 10:00", time.Date(2025, 9, 2, 10, 0, 0, 0, trt)},
		{"2.9.2025", time.Date(2025, 9, 2, 0, 0, 0, 0, trt)},
		{"02/09/2025 15:44", time.Date(2025, 9, 2, 15, 44, 0, 0, trt)},
		{"02.09.2025 - 15:44", time.Date(2025, 9, 2, 15, 44, 0, 0, trt)},
		{"  02.09.2025   15:44  ", time.Date(2025, 9, 2, 15, 44, 0, 0, trt)},
		{"2 Eylül 2025 15:44", time.Date(2025, 9, 2, 15, 44, 0, 0, trt)},
		{"2 EYLÜL 2025", time.Date(2025, 9, 2, 0, 0, 0, 0, trt)},
		{"30 Ağustos 2025 Cumartesi 09:15", time.Date(2025, 8, 30, 9, 15, 0, 0, trt)},
		{"2 September 2025 15:44", time.Date(2025, 9, 2, 15, 44, 0, 0, trt)},
		{"Tue, 02 Sep 2025 15:44:59 +0300", time.Date(2025, 9, 2, 15, 44, 59, 0, trt)},
		{"Salı, 02 Eylül 2025 10:00", time.Date(2025, 9, 2, 10, 0, 0, 0, trt)},
		{"02 APRIL 2025 10:00", time.Date(2025, 4, 2, 10, 0, 0, 0, trt)},
		{"15 EKIM 2024", time.Date(2024, 10, 15, 0, 0, 0, 0, trt)},
		{"23 NISAN 2025 09:30", time.Date(2025, 4, 23, 9, 30, 0, 0, trt)},
		{"23 NİSAN 2025 09:30", time.Date(2025, 4, 23, 9, 30, 0, 0, trt)},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParseDate(tt.in, trt, now)
			require.True(t, ok)
			assert.True(t, tt.want.Equal(got), "want %s, got %s", tt.want, got)
			assert.Equal(t, trt, got.Location())
		})
	}
}

func TestParseDate_DayBeforeMonth(t *testing.T) {
	got, ok := ParseDate("02.09.2025 15:44:59", trt, now)
	require.True(t, ok)
	assert.Equal(t, 2, got.Day())
	assert.Equal(t, time.September, got.Month())

	got, ok = ParseDate("05/04/2025", trt, now)
	require.True(t, ok)
	assert.Equal(t, 5, got.Day())
	assert.Equal(t, time.April, got.Month())
}

func TestParseDate_PrefersPast(t *testing.T) {
	tests := []struct {
		in   string
		want time.Time
	}{
		{"5 Eylül 15:00", time.Date(2024, 9, 5, 15, 0, 0, 0, trt)},
		{"1 Eylül", time.Date(2025, 9, 1, 0, 0, 0, 0, trt)},
		{"3 eylül 11:59", time.Date(2025, 9, 3, 11, 59, 0, 0, trt)},
		{"5 dakika önce", now.Add(-5 * time.Minute)},
		{"2 saat önce", now.Add(-2 * time.Hour)},
		{"3 gün önce", time.Date(2025, 8, 31, 12, 0, 0, 0, trt)},
		{"1 hafta önce", time.Date(2025, 8, 27, 12, 0, 0, 0, trt)},
		{"10 minutes ago", now.Add(-10 * time.Minute)},
		{"dün", time.Date(2025, 9, 2, 12, 0, 0, 0, trt)},
		{"Dün 23:30", time.Date(2025, 9, 2, 23, 30, 0, 0, trt)},
		{"bugün 18:00", time.Date(2025, 9, 2, 18, 0, 0, 0, trt)},
		{"bugün 09:30", time.Date(2025, 9, 3, 9, 30, 0, 0, trt)},
		{"az önce", now},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParseDate(tt.in, trt, now)
			require.True(t, ok)
			assert.True(t, tt.want.Equal(got), "want %s, got %s", tt.want, got)
			assert.False(t, got.After(now), "never resolves to the future")
		})
	}
}

func TestParseDate_Rejects(t *testing.T) {
	for _, in := range []string{"", "   ", "yakında", "not a date at all"} {
		_, ok := ParseDate(in, trt, now)
		assert.False(t, ok, "input %q", in)
	}
}

func TestParseDate_NilLocation(t *testing.T) {
	got, ok := ParseDate("02.09.2025 10:00", nil, now)
	require.True(t, ok)
	assert.Equal(t, time.UTC, got.Location())
	assert.Equal(t, 10, got.Hour())
}
