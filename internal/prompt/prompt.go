// Package prompt builds the generation instructions sent to the
// text-generation service for each chunk of a reading script.
//
// Build is a pure function: identical [Params] always produce identical
// output, so callers may log or cache the result freely.
package prompt

import (
	"fmt"
	"strings"
)

// SystemPrompt is sent as the system message alongside every chunk request.
const SystemPrompt = "You write scripts that a person will read aloud into a microphone. " +
	"Reply with the script text only."

// requirements are appended to every prompt regardless of style.
var requirements = []string{
	"Generate ONLY the text to be read aloud",
	"No headers, titles, or metadata",
	"No stage directions or notes",
	"Natural flow suitable for continuous narration",
	"Varied sentence lengths for natural rhythm",
	"Avoid tongue-twisters or overly complex words",
	"Include natural breathing points (commas, periods)",
}

// Params describes one chunk request.
type Params struct {
	// Style selects the tone template. Must be valid.
	Style Style

	// Topic optionally constrains the subject matter. Blank means no
	// constraint.
	Topic string

	// TargetWords is the approximate length the reply should have.
	TargetWords int

	// Part is the 1-based position of this chunk.
	Part int

	// TotalParts is the number of chunks in the session.
	TotalParts int
}

// Build renders the instruction text for p.
func Build(p Params) (string, error) {
	if !p.Style.IsValid() {
		return "", fmt.Errorf("prompt: unknown style %q", p.Style)
	}
	if p.TargetWords < 1 {
		return "", fmt.Errorf("prompt: target words must be positive, got %d", p.TargetWords)
	}
	if p.TotalParts < 1 {
		p.TotalParts = 1
	}
	if p.Part < 1 || p.Part > p.TotalParts {
		return "", fmt.Errorf("prompt: part %d out of range 1..%d", p.Part, p.TotalParts)
	}

	var b strings.Builder
	b.WriteString("Generate text for voice recording/narration.\n\n")
	fmt.Fprintf(&b, "Target word count: approximately %d words (very important - aim for this count)\n\n", p.TargetWords)
	b.WriteString("Style requirements:\n")
	b.WriteString(p.Style.Description())
	b.WriteString("\n\n")

	context := partContext(p.Part, p.TotalParts) + topicContext(p.Topic)
	if context != "" {
		b.WriteString(strings.TrimSpace(context))
		b.WriteString("\n\n")
	}

	b.WriteString("Requirements:\n")
	for _, r := range requirements {
		b.WriteString("- ")
		b.WriteString(r)
		b.WriteString("\n")
	}
	b.WriteString("\nGenerate the text now:")
	return b.String(), nil
}

// MaxTokens returns a completion budget large enough for a reply of the
// given word count.
func MaxTokens(words int) int {
	const floor = 256
	if n := words * 2; n > floor {
		return n
	}
	return floor
}

func partContext(part, total int) string {
	if total <= 1 {
		return ""
	}
	s := fmt.Sprintf("This is part %d of %d. ", part, total)
	switch part {
	case 1:
		return s + "Start fresh with an engaging opening. "
	case total:
		return s + "This is the final part - provide a satisfying conclusion. "
	default:
		return s + "Continue naturally from a previous section. "
	}
}

func topicContext(topic string) string {
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return ""
	}
	return fmt.Sprintf("Focus on this topic area: %s. ", topic)
}
