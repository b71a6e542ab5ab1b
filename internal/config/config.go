// =============================================================================
// Receivable Reminder Sync - Configuration Module
// =============================================================================
//
// This module is responsible for loading and validating the job configuration.
// A single YAML file describes:
//   1. Which backends hold the source documents and the sheets
//   2. Where the CSV export, attachments, rosters and the ledger live
//   3. The reminder rule tables (day offset -> template -> subject/send offset)
//   4. The output ledger layout and its uniqueness key
//
// ARCHITECTURE:
//   The configuration is:
//   - Typed: every lookup table is a typed structure
//   - Defaulted: an omitted section falls back to the production values
//   - Validated: dangling templates, unknown fields and bad patterns fail fast
//
// =============================================================================

package config

import (
	"fmt"
	"os"
	"regexp"
	"slices"
	"sort"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// =============================================================================
// MAIN CONFIGURATION STRUCTURE
// =============================================================================

// Config holds the whole job configuration.
// This is loaded from the config.yaml file.
type Config struct {
	// Timezone is the IANA zone used for "today" and for due dates.
	// Default: "Asia/Jakarta"
	Timezone string `yaml:"timezone"`

	// CurrencySymbol prefixes every formatted amount.
	// Default: "Rp"
	CurrencySymbol string `yaml:"currency_symbol"`

	// LogLevel controls the verbosity of logging.
	// Valid values: "debug", "info", "warn", "error"
	// Default: "info"
	LogLevel string `yaml:"log_level"`

	// LogFormat selects the zap encoder: "json" or "console".
	// Default: "json"
	LogFormat string `yaml:"log_format"`

	DocumentStore DocumentStoreConfig `yaml:"document_store"`
	TabularStore  TabularStoreConfig  `yaml:"tabular_store"`
	Google        GoogleConfig        `yaml:"google"`
	Source        SourceConfig        `yaml:"source"`
	Attachments   AttachmentConfig    `yaml:"attachments"`
	Roster        RosterConfig        `yaml:"roster"`
	Reminders     ReminderConfig      `yaml:"reminders"`
	Output        OutputConfig        `yaml:"output"`

	location *time.Location
}

// =============================================================================
// BACKEND SETTINGS
// =============================================================================

// DocumentStoreConfig selects where the CSV export and attachments are read from.
type DocumentStoreConfig struct {
	// Type is one of "drive", "s3", "local".
	// Default: "drive"
	Type string `yaml:"type"`

	// Root is the base directory for the "local" backend.
	Root string `yaml:"root"`

	// PageSize bounds the number of files returned per listing call.
	// Default: 100
	PageSize int `yaml:"page_size"`

	// Bucket, Region and Profile configure the "s3" backend.
	Bucket  string `yaml:"bucket"`
	Region  string `yaml:"region"`
	Profile string `yaml:"profile"`

	// LinkBaseURL is prepended to S3 keys to build attachment links.
	// When empty, links use the s3://bucket/key form.
	LinkBaseURL string `yaml:"link_base_url"`

	// ChunkSizeBytes is the buffer size used while downloading.
	// Default: 1 MiB
	ChunkSizeBytes int `yaml:"chunk_size_bytes"`
}

// TabularStoreConfig selects where rosters and the ledger live.
type TabularStoreConfig struct {
	// Type is one of "sheets", "xlsx".
	// Default: "sheets"
	Type string `yaml:"type"`

	// Dir holds <spreadsheet>.xlsx workbooks for the "xlsx" backend.
	Dir string `yaml:"dir"`
}

// GoogleConfig holds Google API credential settings.
type GoogleConfig struct {
	// CredentialsFile is a service account or authorized user JSON file.
	// When empty, Application Default Credentials are used.
	CredentialsFile string `yaml:"credentials_file"`
}

// =============================================================================
// SOURCE SETTINGS
// =============================================================================

// SourceConfig describes the receivable CSV export.
type SourceConfig struct {
	// CSVFolderID is the folder holding the CSV snapshots. The newest one wins.
	CSVFolderID string `yaml:"csv_folder_id"`

	// Delimiter is the CSV field separator ("," "tab" "|" ";").
	// Default: ","
	Delimiter string `yaml:"delimiter"`

	// Columns maps each invoice field to its CSV header.
	Columns CSVColumns `yaml:"columns"`

	// DueDateLayouts are tried in order when parsing due dates.
	// Values without a zone are read as UTC.
	DueDateLayouts []string `yaml:"due_date_layouts"`

	// Prefilter optionally restricts the CSV to rows inside the reminder window.
	Prefilter PrefilterConfig `yaml:"prefilter"`
}

// CSVColumns is the header->field table for the CSV export.
type CSVColumns struct {
	Customer     string `yaml:"customer"`
	Project      string `yaml:"project"`
	BusinessUnit string `yaml:"business_unit"`
	InvoiceCode  string `yaml:"invoice_code"`
	DueDate      string `yaml:"due_date"`
	Amount       string `yaml:"amount"`
}

// PrefilterConfig keeps only rows whose day difference is in DayOffsets.
type PrefilterConfig struct {
	Enabled bool `yaml:"enabled"`

	// DayOffsets defaults to the keys of reminders.template_by_days_diff.
	DayOffsets []int `yaml:"day_offsets"`
}

// AttachmentConfig describes the attachment folder scan.
type AttachmentConfig struct {
	// FolderID is the folder scanned for attachment files.
	// When empty, no attachment index is built.
	FolderID string `yaml:"folder_id"`

	// KeyPattern extracts keys from file names. When the pattern has a
	// capture group, the first group is the key.
	// Default: "SI\d+"
	KeyPattern string `yaml:"key_pattern"`

	// KeyField is the record field looked up in the index.
	// Default: "invoice_code"
	KeyField string `yaml:"key_field"`

	// Delimiter joins multiple links.
	// Default: ";"
	Delimiter string `yaml:"delimiter"`
}

// =============================================================================
// ROSTER SETTINGS
// =============================================================================

// RosterConfig describes the per-project roster worksheets.
type RosterConfig struct {
	// Spreadsheet holds one worksheet per project.
	Spreadsheet string `yaml:"spreadsheet"`

	// Projects lists the worksheets to merge, in processing order.
	Projects []string `yaml:"projects"`

	// Columns maps each roster field to its worksheet header.
	Columns RosterColumns `yaml:"columns"`
}

// RosterColumns is the header->field table for roster worksheets.
type RosterColumns struct {
	Customer     string `yaml:"customer"`
	Project      string `yaml:"project"`
	BusinessUnit string `yaml:"business_unit"`
	EmailTo      string `yaml:"email_to"`
	EmailCc      string `yaml:"email_cc"`
}

// =============================================================================
// REMINDER RULES
// =============================================================================

// ReminderConfig holds the rule tables.
//
// CUSTOMIZATION: add a rule by adding the same template to all three tables.
//
//	template_by_days_diff:   {7: Template-1}
//	subject_by_template:     {Template-1: "Reminder: Payment Due"}
//	send_offset_by_template: {Template-1: -7}
type ReminderConfig struct {
	// TemplateByDaysDiff selects a template for an exact day difference.
	TemplateByDaysDiff map[int]string `yaml:"template_by_days_diff"`

	// SubjectByTemplate is the email subject of each template.
	SubjectByTemplate map[string]string `yaml:"subject_by_template"`

	// SendOffsetByTemplate shifts the due date to obtain the send date.
	SendOffsetByTemplate map[string]int `yaml:"send_offset_by_template"`

	// BodyParamFields are joined, in order, into the body parameter string.
	BodyParamFields []string `yaml:"body_param_fields"`

	// BodyParamDelimiter joins the body parameters.
	// Default: ";"
	BodyParamDelimiter string `yaml:"body_param_delimiter"`
}

// =============================================================================
// OUTPUT SETTINGS
// =============================================================================

// OutputConfig describes the ledger worksheet.
type OutputConfig struct {
	Spreadsheet string `yaml:"spreadsheet"`
	Worksheet   string `yaml:"worksheet"`

	// Columns lists the ledger columns, in order.
	Columns []OutputColumn `yaml:"columns"`

	// UniqueKeys are the output headers forming the row identity.
	UniqueKeys []string `yaml:"unique_keys"`

	// KeyDelimiter joins the unique key values.
	// Default: "|"
	KeyDelimiter string `yaml:"key_delimiter"`
}

// OutputColumn binds a ledger header to a record field.
type OutputColumn struct {
	Header string `yaml:"header"`
	Field  string `yaml:"field"`
}

// =============================================================================
// FIELD VOCABULARY
// =============================================================================

// Record fields that output columns, body parameters and the attachment key
// may refer to.
const (
	FieldInvoiceCode    = "invoice_code"
	FieldCustomer       = "customer"
	FieldProject        = "project"
	FieldBusinessUnit   = "business_unit"
	FieldAmount         = "amount"
	FieldAmountFormat   = "amount_formatted"
	FieldDueAt          = "due_at"
	FieldDueDateDisplay = "due_date_display"
	FieldDaysDiff       = "days_diff"
	FieldTemplate       = "template"
	FieldBodyParams     = "body_params"
	FieldSubject        = "subject"
	FieldReceiverTo     = "receiver_to"
	FieldReceiverCc     = "receiver_cc"
	FieldSendDate       = "send_date"
	FieldAttachments    = "attachments"
)

// KnownFields lists every valid field name.
var KnownFields = []string{
	FieldInvoiceCode, FieldCustomer, FieldProject, FieldBusinessUnit,
	FieldAmount, FieldAmountFormat, FieldDueAt, FieldDueDateDisplay,
	FieldDaysDiff, FieldTemplate, FieldBodyParams, FieldSubject,
	FieldReceiverTo, FieldReceiverCc, FieldSendDate, FieldAttachments,
}

// =============================================================================
// CONFIGURATION LOADING FUNCTIONS
// =============================================================================

// Load reads the configuration file, applies environment overrides and
// defaults, then validates the result.
//
// PARAMETERS:
//   - path: The path to the YAML configuration file.
//
// RETURNS:
//   - A pointer to the Config struct.
//   - An error if the file cannot be read, parsed or validated.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	applyEnvOverrides(&cfg)
	return finish(&cfg)
}

// Parse defaults and validates a configuration document. The environment is
// not consulted.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	return finish(&cfg)
}

// LoadFromEnv loads envFile (when present) into the environment, then loads
// the configuration file with Load.
func LoadFromEnv(path, envFile string) (*Config, error) {
	if envFile != "" {
		// A missing .env file is not an error.
		if _, err := os.Stat(envFile); err == nil {
			if err := godotenv.Load(envFile); err != nil {
				return nil, fmt.Errorf("failed to load env file %s: %w", envFile, err)
			}
		}
	}
	return Load(path)
}

func finish(cfg *Config) (*Config, error) {
	ApplyDefaults(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// applyEnvOverrides replaces file values with environment variables when set.
func applyEnvOverrides(cfg *Config) {
	overrides := []struct {
		env    string
		target *string
	}{
		{"REMINDER_CSV_FOLDER_ID", &cfg.Source.CSVFolderID},
		{"REMINDER_ATTACHMENT_FOLDER_ID", &cfg.Attachments.FolderID},
		{"REMINDER_ROSTER_SPREADSHEET", &cfg.Roster.Spreadsheet},
		{"REMINDER_OUTPUT_SPREADSHEET", &cfg.Output.Spreadsheet},
		{"REMINDER_OUTPUT_WORKSHEET", &cfg.Output.Worksheet},
		{"REMINDER_S3_BUCKET", &cfg.DocumentStore.Bucket},
		{"GOOGLE_APPLICATION_CREDENTIALS", &cfg.Google.CredentialsFile},
		{"AWS_REGION", &cfg.DocumentStore.Region},
		{"AWS_PROFILE", &cfg.DocumentStore.Profile},
	}

	for _, o := range overrides {
		if v := os.Getenv(o.env); v != "" {
			*o.target = v
		}
	}
}

// =============================================================================
// DEFAULTS
// =============================================================================

// ApplyDefaults sets default values for any unset configuration options.
func ApplyDefaults(cfg *Config) {
	if cfg.Timezone == "" {
		cfg.Timezone = "Asia/Jakarta"
	}
	if cfg.CurrencySymbol == "" {
		cfg.CurrencySymbol = "Rp"
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	if cfg.LogFormat == "" {
		cfg.LogFormat = "json"
	}

	// Backends.
	if cfg.DocumentStore.Type == "" {
		cfg.DocumentStore.Type = "drive"
	}
	if cfg.DocumentStore.PageSize == 0 {
		cfg.DocumentStore.PageSize = 100
	}
	if cfg.DocumentStore.ChunkSizeBytes == 0 {
		cfg.DocumentStore.ChunkSizeBytes = 1 << 20
	}
	if cfg.TabularStore.Type == "" {
		cfg.TabularStore.Type = "sheets"
	}

	// Source columns.
	setDefault(&cfg.Source.Delimiter, ",")
	c := &cfg.Source.Columns
	setDefault(&c.Customer, "Customer Name")
	setDefault(&c.Project, "Project Name")
	setDefault(&c.BusinessUnit, "Business Unit Name")
	setDefault(&c.InvoiceCode, "Sales Invoice Code")
	setDefault(&c.DueDate, "Due At")
	setDefault(&c.Amount, "Receivable Amount")
	if len(cfg.Source.DueDateLayouts) == 0 {
		cfg.Source.DueDateLayouts = DefaultDueDateLayouts()
	}

	// Attachments.
	setDefault(&cfg.Attachments.KeyPattern, `SI\d+`)
	setDefault(&cfg.Attachments.KeyField, FieldInvoiceCode)
	setDefault(&cfg.Attachments.Delimiter, ";")

	// Roster columns.
	r := &cfg.Roster.Columns
	setDefault(&r.Customer, "Customer Name")
	setDefault(&r.Project, "Project Name")
	setDefault(&r.BusinessUnit, "Business Unit Name")
	setDefault(&r.EmailTo, "Email To:")
	setDefault(&r.EmailCc, "Email CC:")

	// Reminder rules. The three tables are defaulted together so that a
	// partial user table is validated rather than silently merged.
	rem := &cfg.Reminders
	if len(rem.TemplateByDaysDiff) == 0 && len(rem.SubjectByTemplate) == 0 && len(rem.SendOffsetByTemplate) == 0 {
		rem.TemplateByDaysDiff = map[int]string{7: "Template-1", -7: "Template-2", -14: "Template-3"}
		rem.SubjectByTemplate = map[string]string{
			"Template-1": "Reminder: Payment Due",
			"Template-2": "Finance-SP 1",
			"Template-3": "Finance-SP 2",
		}
		rem.SendOffsetByTemplate = map[string]int{"Template-1": -7, "Template-2": 7, "Template-3": 14}
	}
	if len(rem.BodyParamFields) == 0 {
		rem.BodyParamFields = []string{FieldCustomer, FieldInvoiceCode, FieldAmountFormat, FieldDueDateDisplay}
	}
	setDefault(&rem.BodyParamDelimiter, ";")

	// Prefilter window defaults to the rule offsets.
	if cfg.Source.Prefilter.Enabled && len(cfg.Source.Prefilter.DayOffsets) == 0 {
		cfg.Source.Prefilter.DayOffsets = cfg.Reminders.Offsets()
	}

	// Output ledger.
	if len(cfg.Output.Columns) == 0 {
		cfg.Output.Columns = DefaultOutputColumns()
	}
	if len(cfg.Output.UniqueKeys) == 0 {
		cfg.Output.UniqueKeys = []string{"Sales Invoice Code", "Body Template"}
	}
	setDefault(&cfg.Output.KeyDelimiter, "|")
}

// DefaultDueDateLayouts returns the layouts accepted for the due date column.
// Slash dates with the year last are month first.
func DefaultDueDateLayouts() []string {
	return []string{
		time.RFC3339Nano,
		"2006-01-02T15:04:05-0700",
		"2006-01-02 15:04:05Z07:00",
		"2006-01-02 15:04:05-0700",
		"2006-01-02 15:04:05 -0700",
		"2006-01-02 15:04:05 -0700 MST",
		"2006-01-02T15:04:05",
		"2006-01-02 15:04:05",
		"2006-01-02 15:04",
		"2006-01-02",
		"2006/01/02",
		"01/02/2006",
	}
}

// DefaultOutputColumns returns the default ledger layout.
func DefaultOutputColumns() []OutputColumn {
	return []OutputColumn{
		{Header: "Sales Invoice Code", Field: FieldInvoiceCode},
		{Header: "Due At", Field: FieldDueAt},
		{Header: "Body Template", Field: FieldTemplate},
		{Header: "Body Params", Field: FieldBodyParams},
		{Header: "Email Subject", Field: FieldSubject},
		{Header: "Receiver To", Field: FieldReceiverTo},
		{Header: "Receiver Cc", Field: FieldReceiverCc},
		{Header: "Send Date", Field: FieldSendDate},
		{Header: "Attachments", Field: FieldAttachments},
	}
}

func setDefault(target *string, value string) {
	if *target == "" {
		*target = value
	}
}

// =============================================================================
// ACCESSORS
// =============================================================================

// Location returns the configured timezone. Validate must have succeeded.
func (c *Config) Location() *time.Location {
	if c.location == nil {
		return time.UTC
	}
	return c.location
}

// OutputHeaders returns the ledger headers, in order.
func (o OutputConfig) OutputHeaders() []string {
	headers := make([]string, len(o.Columns))
	for i, col := range o.Columns {
		headers[i] = col.Header
	}
	return headers
}

// Offsets returns the day differences that select a template, ascending.
func (r ReminderConfig) Offsets() []int {
	offsets := make([]int, 0, len(r.TemplateByDaysDiff))
	for d := range r.TemplateByDaysDiff {
		offsets = append(offsets, d)
	}
	sort.Ints(offsets)
	return offsets
}

// =============================================================================
// VALIDATION
// =============================================================================

// Validate checks the configuration for errors that would otherwise surface
// halfway through a run.
func (c *Config) Validate() error {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return fmt.Errorf("timezone %q: %w", c.Timezone, err)
	}
	c.location = loc

	if err := c.validateBackends(); err != nil {
		return err
	}
	if err := c.validateRules(); err != nil {
		return err
	}
	if err := c.validateFields(); err != nil {
		return err
	}

	if _, err := regexp.Compile(c.Attachments.KeyPattern); err != nil {
		return fmt.Errorf("attachments.key_pattern: %w", err)
	}

	if c.Source.CSVFolderID == "" {
		return fmt.Errorf("source.csv_folder_id is required")
	}
	if c.Roster.Spreadsheet == "" {
		return fmt.Errorf("roster.spreadsheet is required")
	}
	if len(c.Roster.Projects) == 0 {
		return fmt.Errorf("roster.projects must list at least one project")
	}
	if c.Output.Spreadsheet == "" || c.Output.Worksheet == "" {
		return fmt.Errorf("output.spreadsheet and output.worksheet are required")
	}

	return nil
}

func (c *Config) validateBackends() error {
	switch c.DocumentStore.Type {
	case "drive":
	case "s3":
		if c.DocumentStore.Bucket == "" {
			return fmt.Errorf("document_store.bucket is required for the s3 backend")
		}
	case "local":
		if c.DocumentStore.Root == "" {
			return fmt.Errorf("document_store.root is required for the local backend")
		}
	default:
		return fmt.Errorf("document_store.type %q is not one of drive, s3, local", c.DocumentStore.Type)
	}
	if c.DocumentStore.PageSize < 0 || c.DocumentStore.ChunkSizeBytes < 0 {
		return fmt.Errorf("document_store.page_size and chunk_size_bytes must be positive")
	}

	switch c.TabularStore.Type {
	case "sheets":
	case "xlsx":
		if c.TabularStore.Dir == "" {
			return fmt.Errorf("tabular_store.dir is required for the xlsx backend")
		}
	default:
		return fmt.Errorf("tabular_store.type %q is not one of sheets, xlsx", c.TabularStore.Type)
	}
	return nil
}

// validateRules enforces that every template referenced by the day table or
// the offset table is also known to the subject table, and that every
// selectable template has a send offset.
func (c *Config) validateRules() error {
	r := c.Reminders
	for _, d := range r.Offsets() {
		tmpl := r.TemplateByDaysDiff[d]
		if tmpl == "" {
			return fmt.Errorf("reminders.template_by_days_diff[%d] is empty", d)
		}
		if _, ok := r.SubjectByTemplate[tmpl]; !ok {
			return fmt.Errorf("reminders: template %q (days diff %d) has no subject", tmpl, d)
		}
		if _, ok := r.SendOffsetByTemplate[tmpl]; !ok {
			return fmt.Errorf("reminders: template %q (days diff %d) has no send offset", tmpl, d)
		}
	}
	for tmpl := range r.SendOffsetByTemplate {
		if _, ok := r.SubjectByTemplate[tmpl]; !ok {
			return fmt.Errorf("reminders: send offset template %q has no subject", tmpl)
		}
	}
	return nil
}

func (c *Config) validateFields() error {
	for _, f := range c.Reminders.BodyParamFields {
		if !slices.Contains(KnownFields, f) {
			return fmt.Errorf("reminders.body_param_fields: unknown field %q", f)
		}
		if f == FieldBodyParams {
			return fmt.Errorf("reminders.body_param_fields cannot reference %q", f)
		}
	}
	switch k := c.Attachments.KeyField; {
	case !slices.Contains(KnownFields, k):
		return fmt.Errorf("attachments.key_field: unknown field %q", k)
	case k == FieldAttachments || k == FieldBodyParams:
		return fmt.Errorf("attachments.key_field cannot reference %q", k)
	}

	seen := make(map[string]bool)
	for _, col := range c.Output.Columns {
		if col.Header == "" {
			return fmt.Errorf("output.columns: header is required (field %q)", col.Field)
		}
		if !slices.Contains(KnownFields, col.Field) {
			return fmt.Errorf("output.columns: unknown field %q for header %q", col.Field, col.Header)
		}
		if seen[col.Header] {
			return fmt.Errorf("output.columns: duplicate header %q", col.Header)
		}
		seen[col.Header] = true
	}
	for _, key := range c.Output.UniqueKeys {
		if !seen[key] {
			return fmt.Errorf("output.unique_keys: %q is not an output column", key)
		}
	}
	return nil
}
