package agent

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/appgwatch/appgwatch/internal/model"
)

func TestParseCategories(t *testing.T) {
	categories := parseCategories([]string{
		string(model.CategoryHealth),
		"Not A Real Category",
		"  " + string(model.CategoryEnergy) + "  ",
	})
	assert.Equal(t, []model.Category{model.CategoryHealth, model.CategoryEnergy}, categories)

	assert.Empty(t, parseCategories(nil))
	assert.Empty(t, parseCategories([]string{"Made Up"}))
}

// fakeCompletionServer returns a chat-completions endpoint that always
// answers with the given message content
func fakeCompletionServer(t *testing.T, content string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		resp := map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"role": "assistant", "content": content}},
			},
		}
		w.Header().Set("Content-Type", "application/json")
		require.NoError(t, json.NewEncoder(w).Encode(resp))
	}))
}

func TestCategoryClassifier_DropsUnknownCategories(t *testing.T) {
	answer, err := json.Marshal(map[string][]string{
		"categories": {
			string(model.CategoryEnvironment),
			"Astrology & Divination",
		},
	})
	require.NoError(t, err)

	server := fakeCompletionServer(t, string(answer))
	defer server.Close()

	client, err := NewClient(model.LLMConfig{APIKey: "test-key", BaseURL: server.URL})
	require.NoError(t, err)

	group := model.NewGroup("dark-skies", model.ParliamentUK)
	group.Title = "Dark Skies"
	group.Purpose = "To protect the night sky."

	categories, err := NewCategoryClassifier(client).Classify(context.Background(), group)
	require.NoError(t, err)
	assert.Equal(t, []model.Category{model.CategoryEnvironment}, categories)
}
