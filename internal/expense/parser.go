package expense

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/dvloznov/expense-bot/internal/domain"
)

// DateLayout is the accepted layout for an optional leading date.
// Month and day may be written with one or two digits.
const DateLayout = "2006-1-2"

var (
	// ErrInvalidFormat is returned when the message has the wrong number of segments.
	ErrInvalidFormat = errors.New("invalid message format")
	// ErrInvalidPrice is returned for prices that parse but cannot be stored.
	ErrInvalidPrice = errors.New("invalid price")
	// ErrMissingField is returned when a required segment is empty.
	ErrMissingField = errors.New("missing required field")
)

// FormatError is a user-caused parse failure. Reason is safe to show to the
// sender; Err carries the underlying cause for errors.Is / errors.As.
type FormatError struct {
	Reason string
	Err    error
}

func (e *FormatError) Error() string {
	return e.Reason
}

func (e *FormatError) Unwrap() error {
	return e.Err
}

// Parser converts comma-delimited chat messages into expenses.
type Parser struct {
	now func() time.Time
	loc *time.Location
}

// NewParser creates a parser whose default date is today in loc.
// A nil loc means time.Local.
func NewParser(loc *time.Location) *Parser {
	return NewParserWithClock(loc, time.Now)
}

// NewParserWithClock creates a parser with a custom clock.
func NewParserWithClock(loc *time.Location, now func() time.Time) *Parser {
	if loc == nil {
		loc = time.Local
	}
	return &Parser{now: now, loc: loc}
}

// Parse parses message with a parser using the local timezone.
func Parse(message string) (domain.Expense, error) {
	return NewParser(nil).Parse(message)
}

// Parse converts one message into an Expense. Accepted shapes:
//
//	Item, Price, Store, Category
//	Item, Price, Store, Category, Quantity
//	Date, Item, Price, Store, Category
//	Date, Item, Price, Store, Category, Quantity
//
// All failures are returned as *FormatError.
func (p *Parser) Parse(message string) (domain.Expense, error) {
	parts := splitSegments(message)

	var (
		date   time.Time
		fields []string
	)

	switch len(parts) {
	case 4:
		date = p.today()
		fields = append(parts, "")
	case 5:
		if d, ok := parseDate(parts[0]); ok {
			date = d
			fields = append(parts[1:], "")
		} else {
			date = p.today()
			fields = parts
		}
	case 6:
		d, ok := parseDate(parts[0])
		if !ok {
			return domain.Expense{}, &FormatError{
				Reason: fmt.Sprintf("Invalid message format. With 6 values the first must be a date (YYYY-MM-DD), got %q", parts[0]),
				Err:    ErrInvalidFormat,
			}
		}
		date = d
		fields = parts[1:]
	default:
		return domain.Expense{}, &FormatError{
			Reason: "Invalid message format. Use: Item, Price, Store, Category",
			Err:    ErrInvalidFormat,
		}
	}

	return build(date, fields)
}

// build assembles an Expense from item, price, store, category, quantity.
func build(date time.Time, fields []string) (domain.Expense, error) {
	item, priceText, store, category, quantity := fields[0], fields[1], fields[2], fields[3], fields[4]

	price, err := parsePrice(priceText)
	if err != nil {
		return domain.Expense{}, err
	}

	for _, f := range []struct{ name, value string }{
		{"Item", item},
		{"Store", store},
		{"Category", category},
	} {
		if f.value == "" {
			return domain.Expense{}, &FormatError{
				Reason: fmt.Sprintf("%s must not be empty", f.name),
				Err:    ErrMissingField,
			}
		}
	}

	return domain.Expense{
		Date:     date,
		Item:     item,
		Price:    price,
		Store:    store,
		Category: category,
		Quantity: quantity,
	}, nil
}

func parsePrice(s string) (float64, error) {
	price, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, &FormatError{
			Reason: fmt.Sprintf("could not convert price to a number: %q", s),
			Err:    err,
		}
	}
	if math.IsNaN(price) || math.IsInf(price, 0) || price < 0 {
		return 0, &FormatError{
			Reason: fmt.Sprintf("price must be a non-negative amount: %q", s),
			Err:    ErrInvalidPrice,
		}
	}
	return price, nil
}

// parseDate reports whether s is a YYYY-MM-DD calendar date.
func parseDate(s string) (time.Time, bool) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

func (p *Parser) today() time.Time {
	return domain.DateOnly(p.now().In(p.loc))
}

func splitSegments(message string) []string {
	parts := strings.Split(message, ",")
	for i, part := range parts {
		parts[i] = strings.TrimSpace(part)
	}
	return parts
}
