// Copyright 2026 © The convo Authors
// SPDX-License-Identifier: Apache-2.0
package tools

import (
	"context"

	"github.com/dmolins/convo/pkg/news"
)

// NewsLookup is the part of the news client the tools need.
type NewsLookup interface {
	Search(ctx context.Context, q string, opts news.SearchOptions) ([]news.Article, error)
	TopHeadlines(ctx context.Context, opts news.HeadlineOptions) ([]news.Article, error)
}

// NewNewsSearchTool builds the search_news capability.
func NewNewsSearchTool(client NewsLookup) Tool {
	return Tool{
		Name:        "search_news",
		Description: "Search news articles by query and optional filters.",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"query": map[string]any{
					"type":        "string",
					"description": "Keywords to search for",
				},
				"language": map[string]any{
					"type":        "string",
					"description": "Two-letter language code, e.g. 'en'",
				},
				"from_date": map[string]any{
					"type":        "string",
					"description": "Earliest publication date, ISO format YYYY-MM-DD",
				},
				"to_date": map[string]any{
					"type":        "string",
					"description": "Latest publication date, ISO format YYYY-MM-DD",
				},
				"limit": map[string]any{
					"type":        "integer",
					"description": "Maximum number of articles to return, default 5",
				},
			},
			"required": []string{"query"},
		},
		Exec: func(ctx context.Context, args map[string]any) (any, error) {
			return client.Search(ctx, stringArg(args, "query"), news.SearchOptions{
				Language: stringArg(args, "language"),
				FromDate: stringArg(args, "from_date"),
				ToDate:   stringArg(args, "to_date"),
				Limit:    intArg(args, "limit", news.DefaultLimit),
			})
		},
	}
}

// NewTopHeadlinesTool builds the get_top_headlines capability.
func NewTopHeadlinesTool(client NewsLookup) Tool {
	return Tool{
		Name:        "get_top_headlines",
		Description: "Fetch recent top news headlines, optionally filtered by country, category or language.",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"country": map[string]any{
					"type":        "string",
					"description": "Two-letter country code, e.g. 'us'",
				},
				"category": map[string]any{
					"type":        "string",
					"description": "News category, e.g. 'technology'",
				},
				"language": map[string]any{
					"type":        "string",
					"description": "Two-letter language code, e.g. 'en'",
				},
				"limit": map[string]any{
					"type":        "integer",
					"description": "Maximum number of articles to return, default 5",
				},
			},
			"required": []string{},
		},
		Exec: func(ctx context.Context, args map[string]any) (any, error) {
			return client.TopHeadlines(ctx, news.HeadlineOptions{
				Country:  stringArg(args, "country"),
				Category: stringArg(args, "category"),
				Language: stringArg(args, "language"),
				Limit:    intArg(args, "limit", news.DefaultLimit),
			})
		},
	}
}
