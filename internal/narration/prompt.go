package narration

import (
	"fmt"
	"strings"
)

// NotesOptions shapes the speaker-notes prompt.
type NotesOptions struct {
	SlideText          string
	Tone               string
	IncludeMainIdea    bool
	IncludeTransitions bool
}

// NotesPrompt builds the instruction prompt for speaker notes.
func NotesPrompt(options NotesOptions) string {
	parts := []string{"Write speaker notes."}
	if tone := strings.TrimSpace(options.Tone); tone != "" {
		parts = append(parts, fmt.Sprintf("Use a '%s' tone.", tone))
	}
	if options.IncludeMainIdea {
		parts = append(parts, "Start with a one-sentence main idea summary.")
	}
	parts = append(parts, "Then explain each point as concise speaking bullets.")
	if options.IncludeTransitions {
		parts = append(parts, "Add a transition sentence at the end to lead into the next slide.")
	}
	parts = append(parts,
		"Use bolded keywords (e.g. **keyword**) for emphasis.",
		"Here is the slide content:",
		strings.TrimSpace(options.SlideText),
	)
	return strings.Join(parts, "\n")
}

// PreviewPrompt builds the prompt for a one or two sentence opening preview.
func PreviewPrompt(slideText, tone string) string {
	return fmt.Sprintf(`
You are a presentation assistant.

Give a 1–2 sentence preview of how you would begin speaker notes based on the content below.
Use a "%s" tone. Do not label it as a preview.

Slide content:
%s
`, tone, slideText)
}

// VisualOptions shapes the image-generator prompt.
type VisualOptions struct {
	SlideText string
	Style     string
	Enhance   bool
	Variant   bool
}

// VisualPrompt builds the prompt for an image-generator description.
func VisualPrompt(options VisualOptions) string {
	var builder strings.Builder
	if options.Variant {
		builder.WriteString("Rephrase a short visual prompt for an AI image generator based on the slide content below, using different wording and composition than a typical first draft.\n")
	} else {
		builder.WriteString("Write a short visual prompt for an AI image generator based on the slide content below.\n")
	}
	builder.WriteString("\nInclude:\n")
	builder.WriteString("- Key visual elements (objects, people, actions, etc.)\n")
	if options.Enhance {
		builder.WriteString("- Lighting, composition, and color palette details\n")
	}
	fmt.Fprintf(&builder, "- The exact phrase: \"in %s style\"\n", options.Style)
	fmt.Fprintf(&builder, "\nDo not write full sentences. Keep it under %d characters.\n", visualPromptLimit)
	fmt.Fprintf(&builder, "\nSlide content:\n%s\n", options.SlideText)
	return builder.String()
}
