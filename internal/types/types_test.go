package types

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDaysBetween(t *testing.T) {
	jakarta, err := time.LoadLocation("Asia/Jakarta")
	if err != nil {
		t.Skip("tzdata unavailable")
	}

	today := time.Date(2024, 5, 1, 23, 59, 0, 0, jakarta)
	assert.Equal(t, 7, DaysBetween(today, time.Date(2024, 5, 8, 0, 1, 0, 0, jakarta)))
	assert.Equal(t, -14, DaysBetween(today, time.Date(2024, 4, 17, 12, 0, 0, 0, jakarta)))
	assert.Equal(t, 0, DaysBetween(today, today))

	// Across a month and a leap day.
	assert.Equal(t, 2, DaysBetween(time.Date(2024, 2, 28, 0, 0, 0, 0, time.UTC), time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)))
}

func TestCivilDate(t *testing.T) {
	in := time.Date(2024, 5, 1, 17, 30, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC), CivilDate(in))
}

func TestAttachmentIndex(t *testing.T) {
	idx := NewAttachmentIndex()
	idx.Add("SI1", "a")
	idx.Add("SI1", "b")
	idx.Add("SI2", "")

	assert.Equal(t, "a;b", idx.Join("SI1", ";"))
	assert.Equal(t, "", idx.Join("SI3", ";"))
	assert.Equal(t, []string{""}, idx.Links("SI2"))
	assert.Equal(t, 2, idx.Len())

	var nilIdx *AttachmentIndex
	assert.Nil(t, nilIdx.Links("SI1"))
	assert.Zero(t, nilIdx.Len())
}

func TestTable(t *testing.T) {
	table := NewTable([]string{" A ", "B"})
	table.TrimHeaders()
	table.Rows = []Row{{Number: 2, Values: []string{"1"}}, {Number: 3, Values: []string{" ", ""}}, {Number: 5, Values: []string{"x", "y"}}}

	assert.Equal(t, 1, table.Index("B"))
	assert.Equal(t, "", table.Value(table.Rows[0], "B"))
	assert.Equal(t, "", table.Value(table.Rows[0], "Missing"))
	assert.Equal(t, 5, table.LastRowNumber())

	table.DropEmptyRows()
	assert.Equal(t, 2, table.Len())
	assert.Equal(t, 5, table.LastRowNumber())

	assert.Equal(t, 1, NewTable([]string{"A"}).LastRowNumber())
	assert.Equal(t, 0, (&Table{}).LastRowNumber())
}

func TestReminderRecordRecipients(t *testing.T) {
	var rec ReminderRecord
	assert.Equal(t, "", rec.EmailTo())
	rec.Roster = &RosterRow{EmailTo: "a@x.test", EmailCc: "b@x.test"}
	assert.Equal(t, "a@x.test", rec.EmailTo())
	assert.Equal(t, "b@x.test", rec.EmailCc())
}
