package notion

import (
	"context"

	"github.com/dvloznov/expense-bot/internal/domain"
	"github.com/dvloznov/expense-bot/internal/logger"
)

// Submission identifies the page created for an expense.
type Submission struct {
	PageID string
	URL    string
}

// Submitter writes expenses to a single Notion database.
type Submitter struct {
	client     PageCreator
	databaseID string
}

// NewSubmitter creates a Submitter targeting databaseID.
func NewSubmitter(client PageCreator, databaseID string) *Submitter {
	return &Submitter{
		client:     client,
		databaseID: databaseID,
	}
}

// Submit creates one page for e. There is no idempotency key and no retry:
// every call creates a new page, and a failed call returns the Notion error
// unchanged.
func (s *Submitter) Submit(ctx context.Context, e domain.Expense) (*Submission, error) {
	log := logger.FromContext(ctx)

	page, err := s.client.CreatePage(ctx, s.databaseID, ExpenseToNotionProperties(e))
	if err != nil {
		return nil, err
	}

	log.Debug().
		Str("page_id", string(page.ID)).
		Str("database_id", s.databaseID).
		Msg("Created Notion page")

	return &Submission{
		PageID: string(page.ID),
		URL:    page.URL,
	}, nil
}
