package view

import (
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestTimeframe_DateRange(t *testing.T) {
	// Wednesday 15 January 2025.
	now := time.Date(2025, 1, 15, 14, 30, 0, 0, time.UTC)

	tests := []struct {
		name      string
		tf        Timeframe
		wantStart time.Time
		wantEnd   time.Time
	}{
		{name: "ThisWeek", tf: TimeframeThisWeek, wantStart: date(2025, 1, 13), wantEnd: date(2025, 1, 15)},
		{name: "LastWeek", tf: TimeframeLastWeek, wantStart: date(2025, 1, 6), wantEnd: date(2025, 1, 12)},
		{name: "ThisMonth", tf: TimeframeThisMonth, wantStart: date(2025, 1, 1), wantEnd: date(2025, 1, 15)},
		{name: "LastMonthAcrossYear", tf: TimeframeLastMonth, wantStart: date(2024, 12, 1), wantEnd: date(2024, 12, 31)},
		{name: "Last90Days", tf: TimeframeLast90Days, wantStart: date(2024, 10, 18), wantEnd: date(2025, 1, 15)},
		{name: "Custom", tf: TimeframeCustom},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			start, end := tt.tf.DateRange(now)
			assert.Equal(t, tt.wantStart, start)
			assert.Equal(t, tt.wantEnd, end)
		})
	}
}

func TestTimeframe_DateRange_SundayBelongsToThatWeek(t *testing.T) {
	sunday := time.Date(2025, 1, 19, 9, 0, 0, 0, time.UTC)

	start, end := TimeframeThisWeek.DateRange(sunday)
	assert.Equal(t, date(2025, 1, 13), start)
	assert.Equal(t, date(2025, 1, 19), end)
}

func TestParseRange(t *testing.T) {
	start, end, err := ParseRange("2025-08-01", "2025-08-31")
	require.NoError(t, err)
	assert.Equal(t, date(2025, 8, 1), start)
	assert.Equal(t, date(2025, 8, 31), end)

	_, _, err = ParseRange("2025-13-01", "2025-08-31")
	assert.Error(t, err)

	_, _, err = ParseRange("2025-08-01", "tomorrow")
	assert.Error(t, err)

	_, _, err = ParseRange("2025-09-01", "2025-08-01")
	assert.ErrorIs(t, err, errRangeOrder)
}

func TestTimeframePicker_CustomInputReceivesKeys(t *testing.T) {
	p := NewTimeframePicker(TimeframeCustom)

	p, _ = p.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.False(t, p.IsSelecting())

	for _, r := range "2025-08-01" {
		p, _ = p.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}

	assert.Equal(t, "2025-08-01", p.startInput.Value())

	p, _ = p.Update(tea.KeyMsg{Type: tea.KeyEsc})
	assert.True(t, p.IsSelecting())
}

func TestTimeframePicker_PresetEmitsRange(t *testing.T) {
	p := NewTimeframePicker(TimeframeLastMonth)

	_, cmd := p.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)

	msg, ok := cmd().(TimeframeSelectedMsg)
	require.True(t, ok)

	wantStart, wantEnd := TimeframeLastMonth.DateRange(time.Now())
	assert.Equal(t, wantStart, msg.Start)
	assert.Equal(t, wantEnd, msg.End)
}

func TestPreview(t *testing.T) {
	assert.Equal(t, "Summary - You spent R3 500", preview("**Summary**\n- You spent R3 500", 50))
	assert.Equal(t, "abcd…", preview("abcdefgh", 5))
	assert.Equal(t, "short", preview("short", 5))
}
