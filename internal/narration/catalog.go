package narration

import "strings"

// Tone is a speaking register offered for speaker notes.
type Tone struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// Style is a visual style offered for image prompts.
type Style struct {
	Emoji       string `json:"emoji"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Value       string `json:"value"`
}

// Example is a sample slide offered to users who want to try a generator.
type Example struct {
	Title     string `json:"title"`
	SlideText string `json:"slide_text"`
}

const (
	defaultTone  = "Academic"
	defaultStyle = "Infographic"
)

var tones = []Tone{
	{Label: "🎓 Academic – Formal, informative", Value: "Academic"},
	{Label: "💼 Persuasive – Convincing, assertive", Value: "Persuasive"},
	{Label: "📖 Storytelling – Narrative-driven, engaging", Value: "Storytelling"},
	{Label: "💡 Explainer – Clear, beginner-friendly", Value: "Explainer"},
	{Label: "🎤 TED-style – Inspirational, concise", Value: "TED-style"},
}

var styles = []Style{
	{Emoji: "📊", Title: "Infographic", Description: "Charts & data visuals", Value: "Infographic"},
	{Emoji: "🎨", Title: "Cartoon diagram", Description: "Fun, simplified art", Value: "Cartoon diagram"},
	{Emoji: "🧽", Title: "Chalkboard sketch", Description: "Hand-drawn look", Value: "Chalkboard sketch"},
	{Emoji: "🧑‍🏫", Title: "Flat educational", Description: "Clean & modern", Value: "Flat educational illustration"},
	{Emoji: "🧱", Title: "Isometric map", Description: "3D-style layout", Value: "Isometric concept map"},
}

var visualExamples = []Example{
	{
		Title:     "The Water Cycle",
		SlideText: "The water cycle includes evaporation, condensation, precipitation, and collection. These steps circulate water through Earth's systems.",
	},
	{
		Title:     "Ancient Egyptian Society",
		SlideText: "Ancient Egypt had a hierarchical society. Pharaohs were at the top, followed by priests, scribes, and farmers at the base.",
	},
	{
		Title:     "Photosynthesis Explained",
		SlideText: "Photosynthesis is how plants convert sunlight, carbon dioxide, and water into glucose and oxygen using chlorophyll.",
	},
}

var notesExample = Example{
	Title: "The Industrial Revolution",
	SlideText: "The Industrial Revolution marked a major turning point in history. " +
		"Nearly every aspect of daily life was influenced in some way. " +
		"It began in the late 18th century in Britain and spread across Europe and North America. " +
		"Key innovations included the steam engine, mechanized textile production, and improved transportation infrastructure.",
}

// styleKeywords is checked in order; the first style with a matching keyword wins.
var styleKeywords = []struct {
	value    string
	keywords []string
}{
	{value: "Isometric concept map", keywords: []string{"map", "system", "workflow", "network", "architecture", "layout"}},
	{value: "Chalkboard sketch", keywords: []string{"timeline", "history", "chalkboard", "blackboard", "lesson", "hand-drawn"}},
	{value: "Cartoon diagram", keywords: []string{"ecosystem", "diagram", "cycle", "life", "process", "fun", "playful"}},
	{value: "Flat educational illustration", keywords: []string{"minimal", "concept", "educational", "explanation", "flat", "modern"}},
	{value: "Infographic", keywords: []string{"data", "statistics", "percentage", "steps", "flowchart", "facts"}},
}

// Tones returns the speaking tone catalogue.
func Tones() []Tone {
	return append([]Tone(nil), tones...)
}

// Styles returns the visual style catalogue.
func Styles() []Style {
	return append([]Style(nil), styles...)
}

// VisualExamples returns the sample slides offered by the visual prompt generator.
func VisualExamples() []Example {
	return append([]Example(nil), visualExamples...)
}

// NotesExample returns the sample slide offered by the speaker notes generator.
func NotesExample() Example {
	return notesExample
}

// SuggestStyle picks a visual style from keywords in the slide text, defaulting to Infographic.
func SuggestStyle(slideText string) string {
	lower := strings.ToLower(slideText)
	for _, candidate := range styleKeywords {
		for _, keyword := range candidate.keywords {
			if strings.Contains(lower, keyword) {
				return candidate.value
			}
		}
	}
	return defaultStyle
}
