package notion

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/jomei/notionapi"
)

// ErrSchemaMismatch is returned when the database lacks an expected property
// or a property has the wrong type.
var ErrSchemaMismatch = errors.New("notion database schema mismatch")

// ExpectedSchema lists the property types the submitter writes.
var ExpectedSchema = map[string]notionapi.PropertyConfigType{
	PropDate:     notionapi.PropertyConfigTypeDate,
	PropItem:     notionapi.PropertyConfigTypeTitle,
	PropPrice:    notionapi.PropertyConfigTypeNumber,
	PropStore:    notionapi.PropertyConfigTypeSelect,
	PropCategory: notionapi.PropertyConfigTypeSelect,
	PropQuantity: notionapi.PropertyConfigTypeRichText,
}

// VerifySchema checks that the database has every property in ExpectedSchema
// with the right type. All problems are reported in one error.
func VerifySchema(ctx context.Context, client DatabaseGetter, databaseID string) error {
	db, err := client.GetDatabase(ctx, databaseID)
	if err != nil {
		return fmt.Errorf("VerifySchema: %w", err)
	}

	return CheckProperties(db.Properties)
}

// CheckProperties compares props against ExpectedSchema.
func CheckProperties(props notionapi.PropertyConfigs) error {
	names := make([]string, 0, len(ExpectedSchema))
	for name := range ExpectedSchema {
		names = append(names, name)
	}
	sort.Strings(names)

	var problems []string
	for _, name := range names {
		want := ExpectedSchema[name]
		cfg, ok := props[name]
		if !ok || cfg == nil {
			problems = append(problems, fmt.Sprintf("missing property %q (%s)", name, want))
			continue
		}
		if got := cfg.GetType(); got != want {
			problems = append(problems, fmt.Sprintf("property %q is %s, want %s", name, got, want))
		}
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrSchemaMismatch, strings.Join(problems, "; "))
	}
	return nil
}
