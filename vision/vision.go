// Package vision generates Instagram caption and hashtag suggestions for an
// image using a vision capable language model.
package vision

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/instarank/instarank/logging"
	"github.com/instarank/instarank/model"
)

// Suggestion is one caption alternative with its hashtag set.
type Suggestion struct {
	Caption  string   `json:"caption"`
	Hashtags []string `json:"hashtags"`
}

// Options configure a Generator.
type Options struct {
	// Variations is the number of caption alternatives requested per image.
	Variations int
	// Logger receives structured progress logs.
	Logger logging.Logger
}

// WithVariations sets the number of caption alternatives.
func WithVariations(n int) func(*Options) {
	return func(o *Options) { o.Variations = n }
}

// WithLogger sets the structured logger.
func WithLogger(l logging.Logger) func(*Options) {
	return func(o *Options) { o.Logger = l }
}

// Generator produces caption suggestions. The model passed in must support
// image inputs; Generate fails otherwise.
type Generator struct {
	model      model.Model
	variations int
	logger     logging.Logger
}

// NewGenerator creates a Generator with the given model. Defaults to three
// variations and no logging.
func NewGenerator(m model.Model, optFns ...func(*Options)) *Generator {
	opts := Options{
		Variations: 3,
		Logger:     logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Variations <= 0 {
		opts.Variations = 3
	}
	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}

	return &Generator{
		model:      m,
		variations: opts.Variations,
		logger:     opts.Logger,
	}
}

const captionInstructions = `You are a social media content expert who writes engaging Instagram captions.
Respond only with a JSON array, no surrounding prose and no markdown fences.`

// SuggestCaptions asks the model for caption alternatives for the image and
// decodes them. The image must be a raw encoded image (JPEG, PNG, GIF or
// WebP bytes).
func (g *Generator) SuggestCaptions(ctx context.Context, image []byte) ([]Suggestion, error) {
	if len(image) == 0 {
		return nil, fmt.Errorf("vision: empty image")
	}
	if !g.model.Info().SupportsVision {
		return nil, fmt.Errorf("vision: model %q does not support image inputs", g.model.Info().Name)
	}

	prompt := fmt.Sprintf(`Look at this image and write %d distinct Instagram captions for it.

Each caption must:
- be engaging and fit the image content
- include relevant emojis
- stay under 200 characters
- end with a call to action
- stay brand friendly, no profanity or controversy

For each caption also pick 5 to 10 relevant hashtags.

Return a JSON array where each element is an object with a "caption" string and a "hashtags" array of strings.`, g.variations)

	resp, err := g.model.Generate(ctx, model.Request{
		Instructions: captionInstructions,
		Prompt:       prompt,
		Images:       [][]byte{image},
	})
	if err != nil {
		return nil, fmt.Errorf("vision: generate captions: %w", err)
	}

	suggestions, err := decodeSuggestions(resp.Text)
	if err != nil {
		return nil, err
	}

	g.logger.Info("generated caption suggestions", "count", len(suggestions))

	return suggestions, nil
}

// decodeSuggestions parses the model reply, tolerating markdown code fences
// some models wrap JSON in despite instructions.
func decodeSuggestions(text string) ([]Suggestion, error) {
	cleaned := strings.TrimSpace(text)
	if strings.HasPrefix(cleaned, "```") {
		cleaned = strings.TrimPrefix(cleaned, "```json")
		cleaned = strings.TrimPrefix(cleaned, "```")
		cleaned = strings.TrimSuffix(cleaned, "```")
		cleaned = strings.TrimSpace(cleaned)
	}

	var suggestions []Suggestion
	if err := json.Unmarshal([]byte(cleaned), &suggestions); err != nil {
		return nil, fmt.Errorf("vision: decode caption suggestions: %w", err)
	}
	if len(suggestions) == 0 {
		return nil, fmt.Errorf("vision: model returned no suggestions")
	}

	return suggestions, nil
}
