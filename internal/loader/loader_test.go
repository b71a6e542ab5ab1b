package loader

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/ginjaninja78/receivable-reminder-sync/internal/config"
	"github.com/ginjaninja78/receivable-reminder-sync/internal/docstore"
	"github.com/ginjaninja78/receivable-reminder-sync/internal/sheetstore"
	"github.com/ginjaninja78/receivable-reminder-sync/internal/types"
)

const csvHeader = "Customer Name,Project Name,Business Unit Name,Sales Invoice Code,Due At,Receivable Amount\n"

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := &config.Config{}
	cfg.Source.CSVFolderID = "csv"
	cfg.Roster.Spreadsheet = "Rosters"
	cfg.Roster.Projects = []string{"GCP"}
	cfg.Output.Spreadsheet = "Ledger"
	cfg.Output.Worksheet = "Reminders"
	config.ApplyDefaults(cfg)
	require.NoError(t, cfg.Validate())
	return cfg
}

func csvFile(id string, created time.Time) docstore.File {
	return docstore.File{ID: id, Name: id + ".csv", MimeType: docstore.MimeTypeCSV, CreatedTime: created}
}

func TestLatestCSV_PicksNewestAcrossPages(t *testing.T) {
	docs := docstore.NewMemoryStore()
	docs.PageSize = 1
	base := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	docs.Put("csv", csvFile("a", base), []byte("a"))
	docs.Put("csv", csvFile("c", base.Add(48*time.Hour)), []byte("c"))
	docs.Put("csv", csvFile("b", base.Add(24*time.Hour)), []byte("b"))
	docs.Put("csv", docstore.File{ID: "p", Name: "p.pdf", MimeType: "application/pdf", CreatedTime: base.Add(96 * time.Hour)}, []byte("p"))

	l := New(docs, sheetstore.NewMemoryStore(), testConfig(t), zap.NewNop())
	file, data, err := l.LatestCSV(context.Background(), "csv")
	require.NoError(t, err)
	assert.Equal(t, "c", file.ID)
	assert.Equal(t, "c", string(data))
}

func TestLatestCSV_NotFound(t *testing.T) {
	l := New(docstore.NewMemoryStore(), sheetstore.NewMemoryStore(), testConfig(t), zap.NewNop())
	_, _, err := l.LatestCSV(context.Background(), "csv")

	var notFound *types.NotFoundError
	require.True(t, errors.As(err, &notFound))
	assert.Equal(t, "csv", notFound.Folder)
}

func TestLoadInvoices(t *testing.T) {
	docs := docstore.NewMemoryStore()
	content := csvHeader +
		"Acme,GCP,BU1,SI0001,2024-05-08 10:00:00,1234.5\n" +
		"Globex,GCP,BU2,SI0002,2024-05-07T20:00:00Z,abc\n" +
		"Initech,AWS,BU1,SI0003,someday,10\n"
	docs.Put("csv", csvFile("export", time.Now()), []byte(content))

	core, logs := observer.New(zapcore.WarnLevel)
	l := New(docs, sheetstore.NewMemoryStore(), testConfig(t), zap.New(core))

	records, err := l.LoadInvoices(context.Background(), "csv")
	require.NoError(t, err)
	require.Len(t, records, 3)

	require.NotNil(t, records[0].DueAt)
	assert.True(t, records[0].DueAt.Equal(time.Date(2024, 5, 8, 10, 0, 0, 0, time.UTC)))
	assert.Equal(t, 17, records[0].DueAt.Hour())
	assert.Equal(t, "Asia/Jakarta", records[0].DueAt.Location().String())
	assert.Equal(t, "1234.5", records[0].Amount.Decimal.String())

	// 20:00 UTC on the 7th is already the 8th in Jakarta.
	assert.Equal(t, 8, records[1].DueAt.Day())
	assert.False(t, records[1].Amount.Valid)

	assert.Nil(t, records[2].DueAt)
	assert.Equal(t, "someday", records[2].DueAtRaw)

	assert.Equal(t, 2, logs.FilterMessage("loader: invalid value").Len())
	summary := logs.FilterMessage("loader: records with invalid values").All()
	require.Len(t, summary, 1)
	assert.Equal(t, int64(2), summary[0].ContextMap()["issues"])
	assert.Equal(t, int64(3), summary[0].ContextMap()["records"])
	assert.Len(t, l.Issues(), 2)
}

func TestLoadInvoices_SchemaMismatch(t *testing.T) {
	docs := docstore.NewMemoryStore()
	docs.Put("csv", csvFile("export", time.Now()), []byte("Customer Name,Project Name\nAcme,GCP\n"))

	l := New(docs, sheetstore.NewMemoryStore(), testConfig(t), zap.NewNop())
	_, err := l.LoadInvoices(context.Background(), "csv")

	var schemaErr *types.SchemaMismatchError
	require.True(t, errors.As(err, &schemaErr))
	assert.Contains(t, schemaErr.Missing, "Due At")
}

func TestParseDueDate(t *testing.T) {
	jakarta, err := time.LoadLocation("Asia/Jakarta")
	require.NoError(t, err)
	layouts := config.DefaultDueDateLayouts()

	midnightJakarta := time.Date(2024, 5, 8, 0, 0, 0, 0, jakarta)
	midnightUTC := time.Date(2024, 5, 8, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		raw  string
		want time.Time
	}{
		{"2024-05-08T00:00:00+07:00", midnightJakarta},
		{"2024-05-08T00:00:00+0700", midnightJakarta},
		{"2024-05-08 00:00:00+07:00", midnightJakarta},
		{"2024-05-08 00:00:00+0700", midnightJakarta},
		{"2024-05-08 00:00:00 +0700", midnightJakarta},
		{"2024-05-08T00:00:00.000Z", midnightUTC},
		{"2024-05-08T00:00:00", midnightUTC},
		{"2024-05-08 00:00:00", midnightUTC},
		{"2024-05-08 10:30", midnightUTC.Add(10*time.Hour + 30*time.Minute)},
		{" 2024-05-08 ", midnightUTC},
		{"2024/05/08", midnightUTC},
		{"05/08/2024", midnightUTC},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got := ParseDueDate(tt.raw, layouts, jakarta)
			require.NotNil(t, got)
			assert.True(t, tt.want.Equal(*got), "got %s, want %s", got, tt.want)
			assert.Equal(t, "Asia/Jakarta", got.Location().String())
		})
	}

	for _, raw := range []string{"", "not a date", "31/12/2024", "2024-13-01"} {
		assert.Nil(t, ParseDueDate(raw, layouts, jakarta), raw)
	}
}

func TestParseAmount(t *testing.T) {
	assert.True(t, ParseAmount(" 1000000 ").Valid)
	assert.Equal(t, "-1234.5", ParseAmount("-1234.50").Decimal.String())
	assert.False(t, ParseAmount("").Valid)
	assert.False(t, ParseAmount("1.234,50").Valid)
}

func TestPrefilter(t *testing.T) {
	loc := time.UTC
	today := time.Date(2024, 5, 1, 9, 0, 0, 0, loc)
	due := func(days int) *time.Time {
		d := time.Date(2024, 5, 1, 23, 0, 0, 0, loc).AddDate(0, 0, days)
		return &d
	}

	records := []types.InvoiceRecord{
		{InvoiceCode: "in7", DueAt: due(7)},
		{InvoiceCode: "in6", DueAt: due(6)},
		{InvoiceCode: "late14", DueAt: due(-14)},
		{InvoiceCode: "nodate"},
	}

	kept := Prefilter(records, today, []int{7, -7, -14})
	require.Len(t, kept, 2)
	assert.Equal(t, "in7", kept[0].InvoiceCode)
	assert.Equal(t, "late14", kept[1].InvoiceCode)
}

func TestLoadRoster(t *testing.T) {
	sheets := sheetstore.NewMemoryStore()
	sheets.Put("Rosters", "GCP", [][]string{
		{" Customer Name ", "Project Name", "Business Unit Name", "Email To:", "Email CC:", "Notes"},
		{"Acme", "GCP", "BU1", " a@acme.test ", "b@acme.test", ""},
		{"", "", "", "", "", ""},
		{"Globex", "GCP", "BU2", "ops@globex.test", "", "vip"},
	})

	l := New(docstore.NewMemoryStore(), sheets, testConfig(t), zap.NewNop())
	rows, err := l.LoadRoster(context.Background(), "Rosters", "GCP")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, types.RosterRow{Customer: "Acme", Project: "GCP", BusinessUnit: "BU1", EmailTo: "a@acme.test", EmailCc: "b@acme.test", RowNumber: 2}, rows[0])
	assert.Equal(t, 4, rows[1].RowNumber)
}

func TestLoadRoster_Errors(t *testing.T) {
	sheets := sheetstore.NewMemoryStore()
	sheets.Put("Rosters", "AWS", [][]string{{"Customer Name", "Project Name"}})
	l := New(docstore.NewMemoryStore(), sheets, testConfig(t), zap.NewNop())

	_, err := l.LoadRoster(context.Background(), "Rosters", "AWS")
	var schemaErr *types.SchemaMismatchError
	require.True(t, errors.As(err, &schemaErr))
	assert.Equal(t, "roster AWS", schemaErr.Source)

	_, err = l.LoadRoster(context.Background(), "Rosters", "Missing")
	var remote *types.RemoteReadError
	require.True(t, errors.As(err, &remote))
}
