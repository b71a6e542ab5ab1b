package reminder

import (
	"strconv"

	"github.com/ginjaninja78/receivable-reminder-sync/internal/config"
	"github.com/ginjaninja78/receivable-reminder-sync/internal/types"
)

const (
	dueAtLayout      = "2006-01-02"
	dueDisplayLayout = "02-01-2006"
	sendDateLayout   = "2006-01-02"
)

// FieldValue returns the named field of rec as a cell value. Missing values
// and unknown fields render as "".
func FieldValue(rec types.ReminderRecord, field string) string {
	inv := rec.Invoice

	switch field {
	case config.FieldInvoiceCode:
		return inv.InvoiceCode
	case config.FieldCustomer:
		return inv.Customer
	case config.FieldProject:
		return inv.Project
	case config.FieldBusinessUnit:
		return inv.BusinessUnit
	case config.FieldAmount:
		if !inv.Amount.Valid {
			return ""
		}
		return inv.Amount.Decimal.String()
	case config.FieldAmountFormat:
		return rec.FormattedAmount
	case config.FieldDueAt:
		if inv.DueAt == nil {
			return ""
		}
		return inv.DueAt.Format(dueAtLayout)
	case config.FieldDueDateDisplay:
		if inv.DueAt == nil {
			return ""
		}
		return inv.DueAt.Format(dueDisplayLayout)
	case config.FieldDaysDiff:
		if rec.DaysDiff == nil {
			return ""
		}
		return strconv.Itoa(*rec.DaysDiff)
	case config.FieldTemplate:
		return rec.Template
	case config.FieldBodyParams:
		return rec.BodyParams
	case config.FieldSubject:
		return rec.Subject
	case config.FieldReceiverTo:
		return rec.EmailTo()
	case config.FieldReceiverCc:
		return rec.EmailCc()
	case config.FieldSendDate:
		return rec.SendDate
	case config.FieldAttachments:
		return rec.Attachments
	}
	return ""
}
