package types

import (
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/renderer"
)

// FormatSummary renders the collected form fields as a markdown table.
func FormatSummary(r Record) string {
	var buf strings.Builder
	table := tablewriter.NewTable(&buf, tablewriter.WithRenderer(renderer.NewMarkdown()))
	table.Header("Field", "Value")
	rows := [][2]string{
		{"Salutation", string(r.Salutation)},
		{"Name", r.FullName},
		{"Contact", r.Contact},
		{"Email", r.Email},
		{"Best Time", string(r.BestTime)},
		{"Nature of Enquiry", string(r.EnquiryNature)},
	}
	for _, row := range rows {
		value := row[1]
		if value == "" {
			value = "-"
		}
		_ = table.Append(row[0], value)
	}
	_ = table.Render()
	return buf.String()
}
