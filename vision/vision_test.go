package vision

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/instarank/instarank/model"
)

var testImage = []byte{0xFF, 0xD8, 0xFF, 0xE0, 0x00, 0x10, 'J', 'F', 'I', 'F'}

const suggestionsJSON = `[
	{"caption": "Golden hour vibes ☀️ Tag someone who needs this view!", "hashtags": ["#sunset", "#goldenhour"]},
	{"caption": "Chasing light 🌅 Save this for your next trip!", "hashtags": ["#travel", "#wanderlust"]}
]`

func TestSuggestCaptions(t *testing.T) {
	m := model.NewMockModel("mock")
	m.Queue(suggestionsJSON)

	g := NewGenerator(m, WithVariations(2))
	suggestions, err := g.SuggestCaptions(context.Background(), testImage)
	require.NoError(t, err)

	require.Len(t, suggestions, 2)
	assert.Contains(t, suggestions[0].Caption, "Golden hour")
	assert.Equal(t, []string{"#sunset", "#goldenhour"}, suggestions[0].Hashtags)

	reqs := m.Requests()
	require.Len(t, reqs, 1)
	require.Len(t, reqs[0].Images, 1)
	assert.Equal(t, testImage, reqs[0].Images[0])
	assert.Contains(t, reqs[0].Prompt, "2 distinct Instagram captions")
}

func TestSuggestCaptions_StripsMarkdownFences(t *testing.T) {
	m := model.NewMockModel("mock")
	m.Queue("```json\n" + suggestionsJSON + "\n```")

	g := NewGenerator(m)
	suggestions, err := g.SuggestCaptions(context.Background(), testImage)
	require.NoError(t, err)
	assert.Len(t, suggestions, 2)
}

func TestSuggestCaptions_EmptyImageRejected(t *testing.T) {
	g := NewGenerator(model.NewMockModel("mock"))
	_, err := g.SuggestCaptions(context.Background(), nil)
	assert.Error(t, err)
}

func TestSuggestCaptions_ModelErrorPropagates(t *testing.T) {
	m := model.NewMockModel("mock")
	m.QueueError(errors.New("over capacity"))

	g := NewGenerator(m)
	_, err := g.SuggestCaptions(context.Background(), testImage)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "over capacity")
}

func TestSuggestCaptions_BadReplyRejected(t *testing.T) {
	tests := []struct {
		name  string
		reply string
	}{
		{"prose instead of json", "Here are some great captions for you!"},
		{"empty array", "[]"},
		{"object instead of array", `{"caption": "x"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := model.NewMockModel("mock")
			m.Queue(tt.reply)
			g := NewGenerator(m)
			_, err := g.SuggestCaptions(context.Background(), testImage)
			assert.Error(t, err)
		})
	}
}
