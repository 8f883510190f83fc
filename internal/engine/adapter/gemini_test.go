package adapter

import (
	"context"
	"testing"

	"github.com/phrazzld/promptq/internal/domain"
	"github.com/phrazzld/promptq/internal/engine/page"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGemini_ValidateState(t *testing.T) {
	t.Parallel()

	newTask := func(rt domain.ResultType) domain.Task {
		task, err := domain.NewTask("gemini", "cat", rt, nil)
		require.NoError(t, err)
		return *task
	}

	testCases := []struct {
		name         string
		currentURL   string
		resultType   domain.ResultType
		wantValid    bool
		wantRedirect string
	}{
		{"text task on chat page", geminiChatURL, domain.ResultTypeText, true, ""},
		{"image task on image gem", geminiImageURL, domain.ResultTypeImage, true, ""},
		{"image task on chat page", geminiChatURL, domain.ResultTypeImage, false, geminiImageURL},
		{"video task on chat page", geminiChatURL, domain.ResultTypeVideo, false, geminiVideoURL},
		{"text task on image gem", geminiImageURL, domain.ResultTypeText, false, geminiChatURL},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			a := NewGemini(page.NewFakePage(tc.currentURL), fastConfig())
			v, err := a.ValidateState(context.Background(), newTask(tc.resultType))
			require.NoError(t, err)

			assert.Equal(t, tc.wantValid, v.Valid)
			assert.Equal(t, tc.wantRedirect, v.RedirectURL)
		})
	}
}

func TestGemini_FillPrompt_DispatchesEditorEvent(t *testing.T) {
	t.Parallel()

	fake := page.NewFakePage(geminiChatURL)
	a := NewGemini(fake, fastConfig())

	require.NoError(t, a.FillPrompt(context.Background(), "describe a storm"))
	assert.Equal(t, "describe a storm", fake.Inputs[geminiEditorSelector])
	assert.Contains(t, fake.Events, geminiEditorSelector+":text-change")
}

func TestGemini_LatestResult(t *testing.T) {
	t.Parallel()

	t.Run("video preferred for video tasks", func(t *testing.T) {
		t.Parallel()

		fake := page.NewFakePage(geminiVideoURL)
		fake.SetAttr(geminiReplyVideoSelector, "src", "https://cdn/clip.mp4")
		a := NewGemini(fake, fastConfig())

		content, err := a.LatestResult(context.Background(), domain.ResultTypeVideo)
		require.NoError(t, err)
		assert.Equal(t, domain.VideoContent("https://cdn/clip.mp4"), *content)
	})

	t.Run("mixed takes whatever was produced", func(t *testing.T) {
		t.Parallel()

		fake := page.NewFakePage(geminiChatURL)
		fake.SetAttr(geminiReplyImageSelector, "src", "https://cdn/a.png")
		a := NewGemini(fake, fastConfig())

		content, err := a.LatestResult(context.Background(), domain.ResultTypeMixed)
		require.NoError(t, err)
		assert.Equal(t, domain.ImageContent("https://cdn/a.png"), *content)
	})

	t.Run("text fallback", func(t *testing.T) {
		t.Parallel()

		fake := page.NewFakePage(geminiChatURL)
		fake.Script(geminiLastReplySelector, "plain words")
		a := NewGemini(fake, fastConfig())

		content, err := a.LatestResult(context.Background(), domain.ResultTypeImage)
		require.NoError(t, err)
		assert.Equal(t, domain.TextContent("plain words"), *content)
	})
}
