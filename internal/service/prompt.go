package service

import (
	"fmt"
	"strings"

	"travelchat/internal/catalog"
	"travelchat/internal/filter"
	"travelchat/internal/model"
	"travelchat/internal/utils"
)

// FilterPromptTemplate asks the model for a single filter expression.
// {context} receives the column listing and {query} the user's request.
const FilterPromptTemplate = `Write a filter for a table of hotel listings. I will give you the column names with their types and example values, and the user's query. Convert the query into a filter using only this syntax:

  column op value
  joined with AND / OR, grouped with parentheses.

Operators: == != < <= > >=
Values: numbers (2, 4.5), booleans (true, false), quoted text ('Entire condo').
Columns containing spaces are written in backticks: ` + "`amenity_Cable TV`" + `.
Numeric columns compare with numbers, boolean columns with true/false using == or != only, category columns with quoted text using == or != only.

Columns:
{context}

Example
User's query: Need at least 2 beds, 3 bathrooms. Price should be under 1000 and pets should be allowed
Filter: bed_count >= 2 AND bathroom_count >= 3 AND pricing/rate/amount < 1000 AND guestControls/allowsPets == true

Example
User's query: Looking for rooms with at least 2 beds. Price must be less than 1000. Should have kitchen and wifi.
Filter: bed_count >= 2 AND pricing/rate/amount < 1000 AND amenity_Kitchen == true AND amenity_Wifi == true

Only return the filter and no other text. If a part of the query does not match any column, leave that part out.
User's query: {query}
Filter:`

const (
	maxExamples    = 3
	maxExampleLen  = 40
	maxRowsSampled = 500
)

// DescribeColumns renders the {context} block: one line per column with its
// type and a few distinct example values from the table.
func DescribeColumns(schema *catalog.Schema, table *model.Table) string {
	if schema == nil {
		return ""
	}
	var b strings.Builder
	for _, col := range schema.Columns() {
		fmt.Fprintf(&b, "- %s (%s)", filter.QuoteColumn(col.Name), col.Type)
		if ex := columnExamples(table, col.Index); len(ex) > 0 {
			b.WriteString(": ")
			b.WriteString(strings.Join(ex, ", "))
		}
		b.WriteByte('\n')
	}
	return strings.TrimRight(b.String(), "\n")
}

func columnExamples(table *model.Table, col int) []string {
	if table == nil {
		return nil
	}
	seen := make(map[string]bool, maxExamples)
	var out []string
	for r := 0; r < table.Len() && r < maxRowsSampled && len(out) < maxExamples; r++ {
		v := table.Cell(r, col)
		if v.IsAbsent() {
			continue
		}
		s := v.String()
		switch v.Kind {
		case model.KindText:
			s = "'" + utils.TruncateString(strings.ReplaceAll(s, "\n", " "), maxExampleLen) + "'"
		case model.KindBool:
			s = strings.ToLower(s)
		}
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}

// renderPrompt fills the template placeholders in one pass so a query
// containing "{context}" is left alone.
func renderPrompt(template string, in TranslationInput) string {
	return strings.NewReplacer("{context}", in.Context, "{query}", in.Query).Replace(template)
}
