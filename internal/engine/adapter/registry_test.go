package adapter

import (
	"context"
	"testing"

	"github.com/phrazzld/promptq/internal/engine/page"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_Select(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name     string
		url      string
		wantTool string
		wantOK   bool
	}{
		{"chatgpt.com", "https://chatgpt.com/c/123", "chatgpt", true},
		{"legacy openai host", "https://chat.openai.com/", "chatgpt", true},
		{"gemini", "https://gemini.google.com/app", "gemini", true},
		{"jimeng", "https://jimeng.jianying.com/ai-tool/image/generate", "jimeng", true},
		{"unknown origin", "https://example.com/", "", false},
		{"unparsable url", "::::", "", false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			registry := NewRegistry(page.NewFakePage(tc.url), DefaultConfig())
			selected, ok, err := registry.Select(context.Background())
			require.NoError(t, err)

			assert.Equal(t, tc.wantOK, ok)
			if tc.wantOK {
				assert.Equal(t, tc.wantTool, selected.Name())
			} else {
				assert.Nil(t, selected)
			}
		})
	}
}

func TestRegistry_ByName(t *testing.T) {
	t.Parallel()

	registry := NewRegistry(page.NewFakePage("https://example.com/"), DefaultConfig())

	a, ok := registry.ByName("jimeng")
	require.True(t, ok)
	assert.Equal(t, "jimeng", a.Name())

	_, ok = registry.ByName("midjourney")
	assert.False(t, ok)
}
