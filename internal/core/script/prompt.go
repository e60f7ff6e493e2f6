package script

import (
	"strings"

	"github.com/colonyops/scribe/pkg/tmpl"
)

var promptTemplate = tmpl.MustParse("prompt", `Create a {{ .Platform }} script about: {{ .Topic }}
Target Audience: {{ .Audience }}
Style: {{ .Style }}
Duration: {{ .Duration }} minutes
Age Group: {{ .Age }}
Language: {{ .Language }}
Include Memes: {{ .Memes }}
Platform: {{ .Platform }}

Structure Requirements:
- Engaging hook in the first 5 seconds
- Clear introduction with topic overview
- Main content divided into 3-5 key points
- Summary and call-to-action in conclusion
- Include visual cues for transitions
- Add suggested background music type
- Specify camera angles where appropriate

Important Notes:
- Use only {{ .Language }} language
- Format in markdown with clear section headings
- Keep paragraphs concise for readability
`)

type promptData struct {
	Topic    string
	Audience string
	Age      string
	Style    string
	Language string
	Duration string
	Memes    string
	Platform string
}

// ParsePromptTemplate compiles a replacement prompt template and checks that
// it renders against a sample topic. Templates see .Topic plus one field per
// option: .Audience .Age .Style .Language .Duration .Memes .Platform.
func ParsePromptTemplate(text string) (*tmpl.Template, error) {
	t, err := tmpl.Parse("prompt", text)
	if err != nil {
		return nil, err
	}
	if _, err := renderPrompt(t, "sample topic", Options{}); err != nil {
		return nil, err
	}
	return t, nil
}

// BuildPrompt renders the generation prompt for topic.
func BuildPrompt(topic string, opts Options) (string, error) {
	return renderPrompt(promptTemplate, topic, opts)
}

func renderPrompt(t *tmpl.Template, topic string, opts Options) (string, error) {
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return "", ErrEmptyTopic
	}

	out, err := t.Render(promptData{
		Topic:    topic,
		Audience: opts.Value(Audience),
		Age:      opts.Value(Age),
		Style:    opts.Value(Style),
		Language: opts.Value(Language),
		Duration: opts.Value(Duration),
		Memes:    opts.Value(Memes),
		Platform: opts.Value(Platform),
	})
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}
