package prompt

import (
	"fmt"
	"strings"
)

// Style selects the tone template used for a generation request.
type Style string

// Supported styles.
const (
	Conversational Style = "conversational"
	Narrative      Style = "narrative"
	Technical      Style = "technical"
	NewsAnchor     Style = "news_anchor"
	Storytelling   Style = "storytelling"
	Educational    Style = "educational"
	Podcast        Style = "podcast"
)

var descriptions = map[Style]string{
	Conversational: "Write in a natural, conversational tone as if speaking to a friend. " +
		"Include occasional filler words, natural pauses, and casual language. " +
		"Topics can range widely - anecdotes, observations, musings.",
	Narrative: "Write engaging narrative prose suitable for an audiobook. " +
		"Include descriptive passages, varied sentence structures, and compelling storytelling. " +
		"Can be fiction or creative non-fiction.",
	Technical: "Write clear technical explanations or tutorials. " +
		"Include precise terminology but maintain readability for narration. " +
		"Topics can include technology, science, programming, or engineering.",
	NewsAnchor: "Write in a professional news broadcast style. " +
		"Clear, authoritative tone with good pacing for broadcast delivery. " +
		"Include varied news topics - current events, features, human interest.",
	Storytelling: "Write immersive short stories or story excerpts. " +
		"Include dialogue, scene descriptions, and emotional moments. " +
		"Vary between action, reflection, and character development.",
	Educational: "Write informative educational content suitable for a documentary. " +
		"Include interesting facts, clear explanations, and engaging delivery. " +
		"Topics can span history, nature, culture, science.",
	Podcast: "Write in an engaging podcast monologue style. " +
		"Include rhetorical questions, audience engagement phrases, " +
		"and natural transitions between topics.",
}

// Styles returns every supported style in a stable order.
func Styles() []Style {
	return []Style{Conversational, Narrative, Technical, NewsAnchor, Storytelling, Educational, Podcast}
}

// StyleNames returns the string form of [Styles].
func StyleNames() []string {
	styles := Styles()
	names := make([]string, len(styles))
	for i, s := range styles {
		names[i] = string(s)
	}
	return names
}

// ParseStyle converts a user-supplied name into a Style. Matching ignores
// case and surrounding whitespace; dashes are accepted in place of
// underscores.
func ParseStyle(name string) (Style, error) {
	normalized := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), "-", "_")
	s := Style(normalized)
	if _, ok := descriptions[s]; !ok {
		return "", fmt.Errorf("prompt: unknown style %q (valid: %s)", name, strings.Join(StyleNames(), ", "))
	}
	return s, nil
}

// IsValid reports whether s is one of the supported styles.
func (s Style) IsValid() bool {
	_, ok := descriptions[s]
	return ok
}

// Description returns the tone template for s, or "" for unknown styles.
func (s Style) Description() string {
	return descriptions[s]
}

// String implements fmt.Stringer.
func (s Style) String() string { return string(s) }
