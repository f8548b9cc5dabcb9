package domain

import (
	"time"
)

// Expense represents one expense entry parsed from a chat message.
// This is a domain struct, not a Notion page; the notion package maps it
// onto the expense database's property schema.
type Expense struct {
	Date     time.Time // calendar date at 00:00 UTC; defaults to the processing date
	Item     string    // page title
	Price    float64   // passed to Notion as-is, no rounding
	Store    string    // select option, created by Notion if new
	Category string    // select option, created by Notion if new
	Quantity string    // free-text annotation, "" when absent
}

// DateOnly returns the calendar date of t as a time at 00:00 UTC.
func DateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
