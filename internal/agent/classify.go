package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/appgwatch/appgwatch/internal/model"
)

const classifyPrompt = `
You are classifying a Parliamentary APPG into one or more categories (ideally one, but multiple if they fit).

You will be given the title and purpose of the group - and classify it based on the schema provided.

Valid categories:
%s

Respond with a JSON object: {"categories": ["..."]}
`

// CategoryClassifier assigns subject categories to groups. It satisfies the
// scrapers' Classifier interface.
type CategoryClassifier struct {
	client *Client
}

// NewCategoryClassifier creates a classifier
func NewCategoryClassifier(client *Client) *CategoryClassifier {
	return &CategoryClassifier{client: client}
}

// Classify returns the categories for a group based on title and purpose
func (c *CategoryClassifier) Classify(ctx context.Context, group *model.Group) ([]model.Category, error) {
	names := make([]string, 0, len(model.AllCategories()))
	for _, category := range model.AllCategories() {
		names = append(names, string(category))
	}
	prompt := fmt.Sprintf(classifyPrompt, "- "+strings.Join(names, "\n- "))

	message, err := json.Marshal(map[string]string{
		"title":   group.Title,
		"purpose": group.Purpose,
	})
	if err != nil {
		return nil, fmt.Errorf("encode group: %w", err)
	}

	var result struct {
		Categories []string `json:"categories"`
	}
	if err := c.client.Run(ctx, prompt, string(message), nil, &result); err != nil {
		return nil, err
	}

	return parseCategories(result.Categories), nil
}

// parseCategories resolves category names, dropping any the model invented
func parseCategories(names []string) []model.Category {
	categories := make([]model.Category, 0, len(names))
	for _, name := range names {
		category, ok := model.ParseCategory(name)
		if !ok {
			continue
		}
		categories = append(categories, category)
	}
	return categories
}
