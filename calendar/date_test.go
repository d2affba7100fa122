package calendar

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDaysIn(t *testing.T) {
	assert.Equal(t, 29, DaysIn(2024, time.February))
	assert.Equal(t, 28, DaysIn(2023, time.February))
	assert.Equal(t, 28, DaysIn(1900, time.February))
	assert.Equal(t, 29, DaysIn(2000, time.February))
	assert.Equal(t, 31, DaysIn(2024, time.December))
}

func TestNewDate_Normalises(t *testing.T) {
	assert.Equal(t, Date{2024, time.March, 1}, NewDate(2024, time.February, 30))
	assert.Equal(t, Date{2023, time.December, 31}, NewDate(2024, time.January, 0))
}

func TestCell_JSON(t *testing.T) {
	cells := []Cell{
		{Empty: true},
		{Date: Date{2024, time.February, 1}, Count: 2},
	}

	data, err := json.Marshal(cells)
	require.NoError(t, err)
	assert.JSONEq(t,
		`[{"empty":true,"date":"","count":0},{"empty":false,"date":"2024-02-01","count":2}]`,
		string(data))

	var back []Cell
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, cells, back)

	var d Date
	assert.Error(t, d.UnmarshalText([]byte("2024-13-01")))
}
