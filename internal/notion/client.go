package notion

import (
	"context"
	"fmt"

	"github.com/jomei/notionapi"
)

// NotionClient is the concrete implementation of NotionService using the Notion SDK.
type NotionClient struct {
	client *notionapi.Client
}

// NewNotionClient creates a new NotionClient with the provided integration token.
// Requests are never retried: the SDK's 429 retry loop is capped at a single
// attempt whatever opts contain.
func NewNotionClient(token string, opts ...notionapi.ClientOption) *NotionClient {
	opts = append(opts, notionapi.WithRetry(1))
	return &NotionClient{
		client: notionapi.NewClient(notionapi.Token(token), opts...),
	}
}

// CreatePage creates a new page in a Notion database with the given properties.
// The SDK error is returned unwrapped so callers can show it verbatim.
func (n *NotionClient) CreatePage(ctx context.Context, databaseID string, properties notionapi.Properties) (*notionapi.Page, error) {
	req := &notionapi.PageCreateRequest{
		Parent: notionapi.Parent{
			Type:       notionapi.ParentTypeDatabaseID,
			DatabaseID: notionapi.DatabaseID(databaseID),
		},
		Properties: properties,
	}

	return n.client.Page.Create(ctx, req)
}

// GetDatabase fetches a database, including its property configuration.
func (n *NotionClient) GetDatabase(ctx context.Context, databaseID string) (*notionapi.Database, error) {
	db, err := n.client.Database.Get(ctx, notionapi.DatabaseID(databaseID))
	if err != nil {
		return nil, fmt.Errorf("GetDatabase: %w", err)
	}

	return db, nil
}
