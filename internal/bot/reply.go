package bot

import (
	"fmt"
	"math"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/dvloznov/expense-bot/internal/domain"
)

// HelpText is the static reply to /start and /help.
const HelpText = "Expense Tracker Bot 💰\n\n" +
	"Send expenses in this format:\n" +
	"Item, Price, Store, Category\n\n" +
	"Optional: You can include a date (YYYY-MM-DD) at the start\n" +
	"and quantity at the end\n\n" +
	"Examples:\n" +
	"• Eggs, 3.50, Walmart, Groceries\n" +
	"• Milk, 2.25, Costco, Groceries, 2 gallons\n" +
	"• 2024-01-15, Bread, 2.25, Kroger, Groceries"

// FormatGuidance is appended to every parse error reply.
const FormatGuidance = "Please use the format: Date (optional), Item, Price, Store, Category, Quantity (optional)\n" +
	"Example: Milk, 3.50, Walmart, Groceries"

// FormatPrice renders a price with two decimal places. Rounding works on the
// exact binary value of price, with exact ties going to the even digit, so
// 2.675 (stored just below 2.675) renders as 2.67 and 0.125 as 0.12.
func FormatPrice(price float64) string {
	exact := decimal.NewFromFloatWithExponent(price, math.MinInt32)
	return exact.RoundBank(2).StringFixed(2)
}

// FormatConfirmation renders the success reply for a created expense.
func FormatConfirmation(e domain.Expense) string {
	var b strings.Builder
	b.WriteString("✅ Expense added:\n")
	fmt.Fprintf(&b, "📅 Date: %s\n", e.Date.Format("2006-01-02"))
	fmt.Fprintf(&b, "🛍️ Item: %s\n", e.Item)
	fmt.Fprintf(&b, "💲 Price: $%s\n", FormatPrice(e.Price))
	fmt.Fprintf(&b, "🏪 Store: %s\n", e.Store)
	fmt.Fprintf(&b, "📦 Category: %s\n", e.Category)
	fmt.Fprintf(&b, "🔢 Quantity: %s", e.Quantity)
	return b.String()
}

// FormatParseError renders the reply for a user-caused format error.
func FormatParseError(err error) string {
	return fmt.Sprintf("❌ Error: %s\n\n%s", err.Error(), FormatGuidance)
}

// FormatUnexpectedError renders the reply for any other failure.
func FormatUnexpectedError(err error) string {
	return fmt.Sprintf("❌ An unexpected error occurred: %s", err.Error())
}
