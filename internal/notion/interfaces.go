package notion

import (
	"context"

	"github.com/jomei/notionapi"
)

// PageCreator creates pages in a Notion database.
type PageCreator interface {
	// CreatePage creates a new page in a Notion database with the given properties.
	CreatePage(ctx context.Context, databaseID string, properties notionapi.Properties) (*notionapi.Page, error)
}

// DatabaseGetter reads database metadata.
type DatabaseGetter interface {
	// GetDatabase fetches a database and its property schema.
	GetDatabase(ctx context.Context, databaseID string) (*notionapi.Database, error)
}

// NotionService defines the interface for interacting with the Notion API.
// This interface enables mocking and testing of Notion operations.
type NotionService interface {
	PageCreator
	DatabaseGetter
}

var _ NotionService = (*NotionClient)(nil)
