package ratelog

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleared-dev/savings/internal/rates"
)

var (
	testTime = time.Date(2025, 1, 15, 10, 30, 0, 0, time.UTC)
	jan31    = time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC)
)

func testEntry() Entry {
	return Entry{
		Timestamp: testTime,
		From:      "USD",
		To:        "EUR",
		AsOf:      jan31,
		Probe:     jan31.Add(-6 * time.Hour),
		Rate:      decimal.RequireFromString("0.9234"),
		Source:    "frankfurter",
	}
}

func TestAppend_NewFile(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "logs")
	require.NoError(t, Append(dir, []Entry{testEntry()}))

	entries, err := Read(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
	assert.Equal(t, "frankfurter", entries[0].Source)
}

func TestAppend_ExistingFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, Append(dir, []Entry{testEntry()}))

	e2 := testEntry()
	e2.From = "XAU"
	e2.Probe = time.Time{}
	e2.Source = rates.SourceManual
	require.NoError(t, Append(dir, []Entry{e2}))

	entries, err := Read(dir)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "USD", entries[0].From)
	assert.Equal(t, "manual", entries[1].Source)
	assert.True(t, entries[1].Probe.IsZero())

	data, err := os.ReadFile(filepath.Join(dir, "rate-log.csv"))
	require.NoError(t, err)
	assert.Equal(t, 1, strings.Count(string(data), Header), "header is written once")
}

func TestRead_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	original := testEntry()
	require.NoError(t, Append(dir, []Entry{original}))

	entries, err := Read(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)

	got := entries[0]
	assert.True(t, original.Timestamp.Equal(got.Timestamp))
	assert.True(t, original.AsOf.Equal(got.AsOf))
	assert.True(t, original.Probe.Equal(got.Probe))
	assert.True(t, original.Rate.Equal(got.Rate))
	assert.Equal(t, original.From, got.From)
	assert.Equal(t, original.To, got.To)
}

func TestRead_NotFound(t *testing.T) {
	entries, err := Read(t.TempDir())
	require.NoError(t, err)
	assert.Nil(t, entries)
}

func TestRead_EmptyFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "rate-log.csv"), []byte(Header+"\n"), 0o644))

	entries, err := Read(dir)
	require.NoError(t, err)
	assert.Nil(t, entries)
}

func TestUnmarshalEntry_BadFieldCount(t *testing.T) {
	_, err := UnmarshalEntry([]string{"one", "two"})
	assert.ErrorContains(t, err, "expected 7 fields")
}

func TestUnmarshalEntry_BadRate(t *testing.T) {
	row := MarshalEntry(testEntry())
	row[colRate] = "lots"
	_, err := UnmarshalEntry(row)
	assert.ErrorContains(t, err, "parsing rate")
}

func TestMarshalEntry(t *testing.T) {
	e := testEntry()
	e.AsOf = time.Time{}
	row := MarshalEntry(e)
	assert.Equal(t, "2025-01-15T10:30:00Z", row[colTimestamp])
	assert.Equal(t, "", row[colAsOf], "undated lookups have no as_of")
	assert.Equal(t, "2024-01-30T18:00:00Z", row[colProbe])
	assert.Equal(t, "0.9234", row[colRate])
}

func TestFromResolutions(t *testing.T) {
	res := []rates.Resolution{{
		Key:    rates.NewKey("usd", "eur", jan31),
		Rate:   decimal.RequireFromString("0.9"),
		Source: "ecb",
		Probe:  jan31,
		At:     testTime,
	}}
	entries := FromResolutions(res)
	require.Len(t, entries, 1)
	assert.Equal(t, "USD", entries[0].From)
	assert.Equal(t, "ecb", entries[0].Source)
	assert.True(t, jan31.Equal(entries[0].AsOf))
}
