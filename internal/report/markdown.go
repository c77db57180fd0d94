package report

import (
	"fmt"
	"strings"
	"time"
)

const (
	// LastUpdatedLayout formats the trailing timestamp as UTC ISO-8601 with milliseconds.
	LastUpdatedLayout = "2006-01-02T15:04:05.000Z"

	// CheckMark renders a true flag.
	CheckMark = "✅"
	// CrossMark renders a false flag.
	CrossMark = "❌"

	headerTemplateConstant           = "# %s\n\nThis file is automatically generated. Do not edit manually.\n\n"
	tableRowPrefixConstant           = "|"
	tableCellTemplateConstant        = " %s |"
	tableSeparatorCellConstant       = "-------------|"
	lineBreakConstant                = "\n"
	summaryHeadingConstant           = "\n## Summary\n\n"
	summaryEntryTemplateConstant     = "%s: %s\n"
	lastUpdatedEntryTemplateConstant = "Last updated: %s\n"
)

// SummaryEntry is one `label: value` line of the summary section.
type SummaryEntry struct {
	Label string
	Value string
}

// CountEntry builds a summary entry holding a count.
func CountEntry(label string, count int) SummaryEntry {
	return SummaryEntry{Label: label, Value: fmt.Sprintf("%d", count)}
}

// Document is a complete status report.
type Document struct {
	Title   string
	Columns []string
	Rows    [][]string
	Summary []SummaryEntry
}

// Mark renders a boolean flag.
func Mark(flag bool) string {
	if flag {
		return CheckMark
	}
	return CrossMark
}

// Render produces the markdown text of document. Only the last line depends on generatedAt.
func Render(document Document, generatedAt time.Time) string {
	var builder strings.Builder
	builder.WriteString(fmt.Sprintf(headerTemplateConstant, document.Title))

	writeTableRow(&builder, document.Columns)
	builder.WriteString(tableRowPrefixConstant)
	for range document.Columns {
		builder.WriteString(tableSeparatorCellConstant)
	}
	builder.WriteString(lineBreakConstant)
	for _, row := range document.Rows {
		writeTableRow(&builder, row)
	}

	builder.WriteString(summaryHeadingConstant)
	for _, entry := range document.Summary {
		builder.WriteString(fmt.Sprintf(summaryEntryTemplateConstant, entry.Label, entry.Value))
	}
	builder.WriteString(fmt.Sprintf(lastUpdatedEntryTemplateConstant, generatedAt.UTC().Format(LastUpdatedLayout)))
	return builder.String()
}

func writeTableRow(builder *strings.Builder, cells []string) {
	builder.WriteString(tableRowPrefixConstant)
	for _, cell := range cells {
		builder.WriteString(fmt.Sprintf(tableCellTemplateConstant, cell))
	}
	builder.WriteString(lineBreakConstant)
}
