package automation

import (
	"time"

	"github.com/tbxark/enquirybot/types"
)

// Field names a control on the enquiry form.
type Field string

const (
	FieldSalutation    Field = "salutation"
	FieldFullName      Field = "fullName"
	FieldContact       Field = "contact"
	FieldEmail         Field = "email"
	FieldBestTime      Field = "bestTime"
	FieldEnquiryNature Field = "enquiryNature"
)

// Value extracts the record value written into the field.
func (f Field) Value(rec types.Record) string {
	switch f {
	case FieldSalutation:
		return string(rec.Salutation)
	case FieldFullName:
		return rec.FullName
	case FieldContact:
		return rec.Contact
	case FieldEmail:
		return rec.Email
	case FieldBestTime:
		return string(rec.BestTime)
	case FieldEnquiryNature:
		return string(rec.EnquiryNature)
	default:
		return ""
	}
}

// FieldPlan is the ordered list of strategies tried for one field.
type FieldPlan struct {
	Field      Field
	Strategies []Strategy
}

// DefaultPlans locates controls semantically first and falls back to
// assigning values from a page script.
func DefaultPlans(dropdownOpenDelay time.Duration) []FieldPlan {
	return []FieldPlan{
		{
			Field:      FieldSalutation,
			Strategies: []Strategy{RadioByValue{}, RadioByLabel{}, ScriptRadio{}},
		},
		{
			Field: FieldFullName,
			Strategies: []Strategy{
				InputByHints{Hints: []string{"name"}},
				InputByLabel{Label: "name"},
				ScriptInput{Hints: []string{"name"}},
			},
		},
		{
			Field: FieldContact,
			Strategies: []Strategy{
				InputByHints{Types: []string{"tel"}, Hints: []string{"contact", "phone"}},
				InputByLabel{Label: "contact"},
				ScriptInput{Types: []string{"tel"}, Hints: []string{"contact", "phone"}},
			},
		},
		{
			Field: FieldEmail,
			Strategies: []Strategy{
				InputByHints{Types: []string{"email"}, Hints: []string{"email"}},
				InputByLabel{Label: "email"},
				ScriptInput{Types: []string{"email"}, Hints: []string{"email"}},
			},
		},
		{
			Field: FieldBestTime,
			Strategies: []Strategy{
				DropdownByLabel{Label: "best time", OpenDelay: dropdownOpenDelay},
				ScriptDropdown{Label: "best time"},
			},
		},
		{
			Field: FieldEnquiryNature,
			Strategies: []Strategy{
				DropdownByLabel{Label: "nature of enquiry", OpenDelay: dropdownOpenDelay},
				ScriptDropdown{Label: "nature of enquiry"},
			},
		},
	}
}
