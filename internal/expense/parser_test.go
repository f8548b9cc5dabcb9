package expense

import (
	"errors"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dvloznov/expense-bot/internal/domain"
)

var fixedNow = time.Date(2025, time.March, 9, 23, 30, 0, 0, time.UTC)

func newTestParser() *Parser {
	return NewParserWithClock(time.UTC, func() time.Time { return fixedNow })
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestParser_Parse(t *testing.T) {
	today := day(2025, time.March, 9)

	tests := []struct {
		name    string
		message string
		want    domain.Expense
	}{
		{
			name:    "four segments",
			message: "Eggs, 3.50, Walmart, Groceries",
			want:    domain.Expense{Date: today, Item: "Eggs", Price: 3.50, Store: "Walmart", Category: "Groceries"},
		},
		{
			name:    "five segments with quantity",
			message: "Milk, 2.25, Costco, Groceries, 2 gallons",
			want:    domain.Expense{Date: today, Item: "Milk", Price: 2.25, Store: "Costco", Category: "Groceries", Quantity: "2 gallons"},
		},
		{
			name:    "five segments with leading date",
			message: "2024-01-15, Bread, 2.25, Kroger, Groceries",
			want:    domain.Expense{Date: day(2024, time.January, 15), Item: "Bread", Price: 2.25, Store: "Kroger", Category: "Groceries"},
		},
		{
			name:    "six segments with leading date",
			message: "2024-02-29, Apples, 4, Aldi, Fruit, 6 pcs",
			want:    domain.Expense{Date: day(2024, time.February, 29), Item: "Apples", Price: 4, Store: "Aldi", Category: "Fruit", Quantity: "6 pcs"},
		},
		{
			name:    "unpadded date",
			message: "2024-1-5, Bread, 2.25, Kroger, Groceries",
			want:    domain.Expense{Date: day(2024, time.January, 5), Item: "Bread", Price: 2.25, Store: "Kroger", Category: "Groceries"},
		},
		{
			name:    "impossible date falls back to positional",
			message: "2024-02-30, 1.00, Shop, Misc, 1",
			want:    domain.Expense{Date: today, Item: "2024-02-30", Price: 1.00, Store: "Shop", Category: "Misc", Quantity: "1"},
		},
		{
			name:    "surrounding whitespace",
			message: "Eggs , 3.50 , Walmart , Groceries",
			want:    domain.Expense{Date: today, Item: "Eggs", Price: 3.50, Store: "Walmart", Category: "Groceries"},
		},
		{
			name:    "empty quantity kept",
			message: "Milk, 2.25, Costco, Groceries, ",
			want:    domain.Expense{Date: today, Item: "Milk", Price: 2.25, Store: "Costco", Category: "Groceries"},
		},
		{
			name:    "zero price",
			message: "Sample, 0, Market, Freebies",
			want:    domain.Expense{Date: today, Item: "Sample", Price: 0, Store: "Market", Category: "Freebies"},
		},
		{
			name:    "arbitrary categorical values",
			message: "Ticket, 12, Ünïcode Store 🛒, Fun & Games",
			want:    domain.Expense{Date: today, Item: "Ticket", Price: 12, Store: "Ünïcode Store 🛒", Category: "Fun & Games"},
		},
	}

	p := newTestParser()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := p.Parse(tt.message)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParser_ParseErrors(t *testing.T) {
	tests := []struct {
		name    string
		message string
		target  error
	}{
		{"three segments", "A, B, C", ErrInvalidFormat},
		{"seven segments", "2024-01-01, a, 1, b, c, d, e", ErrInvalidFormat},
		{"empty message", "", ErrInvalidFormat},
		{"six segments without date", "Milk, 2.25, Costco, Groceries, 2 gallons, extra", ErrInvalidFormat},
		{"negative price", "Eggs, -1, Walmart, Groceries", ErrInvalidPrice},
		{"nan price", "Eggs, NaN, Walmart, Groceries", ErrInvalidPrice},
		{"infinite price", "Eggs, Inf, Walmart, Groceries", ErrInvalidPrice},
		{"empty item", " , 1, Walmart, Groceries", ErrMissingField},
		{"empty store", "Eggs, 1, , Groceries", ErrMissingField},
		{"empty category", "Eggs, 1, Walmart, ", ErrMissingField},
	}

	p := newTestParser()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := p.Parse(tt.message)
			require.Error(t, err)

			var fe *FormatError
			require.True(t, errors.As(err, &fe), "expected *FormatError, got %T", err)
			assert.ErrorIs(t, err, tt.target)
			assert.NotEmpty(t, fe.Reason)
		})
	}
}

func TestParser_NonNumericPrice(t *testing.T) {
	_, err := newTestParser().Parse("Eggs, notanumber, Walmart, Groceries")
	require.Error(t, err)

	var fe *FormatError
	require.True(t, errors.As(err, &fe))

	var numErr *strconv.NumError
	require.True(t, errors.As(err, &numErr), "expected numeric conversion error in chain")
	assert.Equal(t, "notanumber", numErr.Num)
	assert.Contains(t, err.Error(), "notanumber")
}

func TestParser_FourSegmentsAlwaysToday(t *testing.T) {
	messages := []string{
		"Eggs, 3.50, Walmart, Groceries",
		"2024-01-15, 3.50, Walmart, Groceries",
		"Coffee, 1e1, Cafe, Drinks",
	}

	p := newTestParser()
	for _, msg := range messages {
		got, err := p.Parse(msg)
		require.NoError(t, err, msg)
		assert.Equal(t, day(2025, time.March, 9), got.Date, msg)
		assert.Empty(t, got.Quantity, msg)
	}
}

func TestParser_TodayUsesLocation(t *testing.T) {
	tokyo := time.FixedZone("JST", 9*60*60)
	p := NewParserWithClock(tokyo, func() time.Time { return fixedNow })

	got, err := p.Parse("Eggs, 3.50, Walmart, Groceries")
	require.NoError(t, err)

	// 23:30 UTC on the 9th is already the 10th in Tokyo.
	assert.Equal(t, day(2025, time.March, 10), got.Date)
}

func TestParseDate(t *testing.T) {
	tests := []struct {
		input string
		ok    bool
	}{
		{"2024-01-15", true},
		{"2024-1-5", true},
		{"Milk", false},
		{"2024/01/15", false},
		{"15-01-2024", false},
		{"2024-13-01", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			_, ok := parseDate(tt.input)
			if ok != tt.ok {
				t.Errorf("parseDate(%q) ok = %v, want %v", tt.input, ok, tt.ok)
			}
		})
	}
}

func TestParse_PackageLevel(t *testing.T) {
	got, err := Parse("Eggs, 3.50, Walmart, Groceries")
	require.NoError(t, err)
	assert.Equal(t, domain.DateOnly(time.Now()), got.Date)
}
