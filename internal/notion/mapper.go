package notion

import (
	"encoding/json"
	"time"

	"github.com/jomei/notionapi"

	"github.com/dvloznov/expense-bot/internal/domain"
)

// DateLayout is how Notion expects a date without a time.
const DateLayout = "2006-01-02"

// Property names of the expense database.
const (
	PropDate     = "Date"
	PropItem     = "Item"
	PropPrice    = "Price"
	PropStore    = "Store"
	PropCategory = "Category"
	PropQuantity = "Quantity"
)

// ExpenseToNotionProperties converts an Expense to Notion properties.
// Every property is always set; Quantity is sent as an empty text run when absent.
func ExpenseToNotionProperties(e domain.Expense) notionapi.Properties {
	return notionapi.Properties{
		PropDate: DateOnlyProperty{Date: domain.DateOnly(e.Date)},
		PropItem: notionapi.TitleProperty{
			Title: []notionapi.RichText{
				{
					Type: notionapi.ObjectTypeText,
					Text: &notionapi.Text{
						Content: e.Item,
					},
				},
			},
		},
		PropPrice: notionapi.NumberProperty{
			Number: e.Price,
		},
		PropStore: notionapi.SelectProperty{
			Select: notionapi.Option{
				Name: e.Store,
			},
		},
		PropCategory: notionapi.SelectProperty{
			Select: notionapi.Option{
				Name: e.Category,
			},
		},
		PropQuantity: notionapi.RichTextProperty{
			RichText: []notionapi.RichText{
				{
					Type: notionapi.ObjectTypeText,
					Text: &notionapi.Text{
						Content: e.Quantity,
					},
				},
			},
		},
	}
}

// DateOnlyProperty is a date property sent as a bare calendar date.
// notionapi.DateProperty always marshals its start as an RFC 3339 datetime.
type DateOnlyProperty struct {
	Date time.Time
}

func (p DateOnlyProperty) GetID() string {
	return ""
}

func (p DateOnlyProperty) GetType() notionapi.PropertyType {
	return notionapi.PropertyTypeDate
}

func (p DateOnlyProperty) MarshalJSON() ([]byte, error) {
	type dateObject struct {
		Start string `json:"start"`
	}
	return json.Marshal(struct {
		Type notionapi.PropertyType `json:"type"`
		Date dateObject             `json:"date"`
	}{
		Type: notionapi.PropertyTypeDate,
		Date: dateObject{Start: p.Date.Format(DateLayout)},
	})
}
