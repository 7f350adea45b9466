package narration

import (
	"math"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	speakingWordsPerMinute = 160
	wordsPerSecondBudget   = 2.4
	tokensPerWord          = 1.33
	readingWordsPerSecond  = 2.5
	slowPaceBelow          = 90
	fastPaceAbove          = 150
	visualPromptLimit      = 280
)

const (
	PaceTooSlow = "📉 Too Slow"
	PaceGood    = "✅ Good Pace"
	PaceTooFast = "⚠️ Too Fast"
)

var (
	completeSentencePattern = regexp.MustCompile(`[^.!?]*[.!?]`)
	leadingMarkerPattern    = regexp.MustCompile(`(?i)^\s*(Paragraph\s*:?|-+)+\s*`)
	slideLabelPattern       = regexp.MustCompile(`(?i)Slide\s*\d+\s*[:\-]?\s*`)
	leadingLetterPattern    = regexp.MustCompile(`(?m)^\s*[a-zA-Z]\.(\W|$)`)
	spokenTokenPattern      = regexp.MustCompile(`[\p{L}\p{N}_]+(?:['’][\p{L}\p{N}_]+)*|[.,!?;:]`)
	countedTokenPattern     = regexp.MustCompile(`[\p{L}\p{N}_]+(?:['’][\p{L}\p{N}_]+)*|[^\p{L}\p{N}_\s]`)
	keywordPattern          = regexp.MustCompile(`\b[A-Z][a-z]{3,}\b`)
)

var weakCapitalWords = map[string]struct{}{
	"The": {}, "This": {}, "That": {}, "These": {}, "Those": {}, "It": {}, "Its": {},
	"He": {}, "She": {}, "They": {}, "We": {}, "You": {}, "I": {},
}

// Duration is a speaking-time estimate.
type Duration struct {
	Minutes int `json:"minutes"`
	Seconds int `json:"seconds"`
}

// TotalSeconds flattens the estimate.
func (d Duration) TotalSeconds() int {
	return d.Minutes*60 + d.Seconds
}

// FinishLastSentence drops any trailing fragment that lacks terminal punctuation and puts each
// sentence on its own line. Text without terminal punctuation is returned trimmed.
func FinishLastSentence(text string) string {
	trimmed := strings.TrimSpace(text)
	sentences := completeSentencePattern.FindAllString(trimmed, -1)
	if len(sentences) == 0 {
		return trimmed
	}
	for index, sentence := range sentences {
		sentences[index] = strings.TrimSpace(sentence)
	}
	return strings.TrimSpace(strings.Join(sentences, "\n"))
}

// RemoveLoops drops sentences repeated earlier in the text, compared case-insensitively.
func RemoveLoops(text string) string {
	seen := make(map[string]struct{})
	unique := make([]string, 0)
	for _, sentence := range splitSentences(strings.TrimSpace(text)) {
		sentence = strings.TrimSpace(sentence)
		normalized := strings.ToLower(sentence)
		if normalized == "" {
			continue
		}
		if _, duplicate := seen[normalized]; duplicate {
			continue
		}
		seen[normalized] = struct{}{}
		unique = append(unique, sentence)
	}
	return strings.Join(unique, " ")
}

// CleanSpacing strips generator artefacts (paragraph labels, slide labels, list letters, stray
// symbols), normalises spacing around punctuation, and returns one "- " bullet per sentence.
func CleanSpacing(text string) string {
	text = leadingMarkerPattern.ReplaceAllString(text, "")
	text = slideLabelPattern.ReplaceAllString(text, "")
	text = strings.ReplaceAll(text, "-", " ")
	text = leadingLetterPattern.ReplaceAllString(text, "${1}")
	text = strings.Join(strings.Fields(text), " ")

	var builder strings.Builder
	for _, token := range spokenTokenPattern.FindAllString(text, -1) {
		if isClausePunctuation(token) {
			rebuilt := strings.TrimRightFunc(builder.String(), unicode.IsSpace)
			builder.Reset()
			builder.WriteString(rebuilt)
			builder.WriteString(token)
			continue
		}
		builder.WriteByte(' ')
		builder.WriteString(token)
	}

	bullets := make([]string, 0)
	for _, sentence := range splitSentences(strings.TrimSpace(builder.String())) {
		if sentence = strings.TrimSpace(sentence); sentence != "" {
			bullets = append(bullets, "- "+sentence)
		}
	}
	return strings.Join(bullets, "\n")
}

// EstimateDuration estimates speaking time at 160 words per minute. Punctuation marks count
// as tokens.
func EstimateDuration(text string) Duration {
	count := len(countedTokenPattern.FindAllString(text, -1))
	minutes := count / speakingWordsPerMinute
	seconds := int(math.RoundToEven(float64(count%speakingWordsPerMinute) / speakingWordsPerMinute * 60))
	if seconds == 60 {
		minutes++
		seconds = 0
	}
	return Duration{Minutes: minutes, Seconds: seconds}
}

// WordBudget converts a speaking-time limit into a word target and a generation token cap.
func WordBudget(maxSeconds int) (int, int) {
	words := int(float64(maxSeconds) * wordsPerSecondBudget)
	return words, int(float64(words) * tokensPerWord)
}

// WordsPerMinute derives the delivery rate of notes over the estimated duration.
func WordsPerMinute(notes string, duration Duration) int {
	total := duration.TotalSeconds()
	if total <= 0 {
		return 0
	}
	words := len(strings.Fields(notes))
	return int(math.Floor(float64(words)/float64(total)*60 + 0.5))
}

// PaceRating classifies a delivery rate.
func PaceRating(wordsPerMinute int) string {
	switch {
	case wordsPerMinute < slowPaceBelow:
		return PaceTooSlow
	case wordsPerMinute <= fastPaceAbove:
		return PaceGood
	default:
		return PaceTooFast
	}
}

// SlideTextStats summarises raw slide text against a speaking-time limit.
type SlideTextStats struct {
	WordCount        int  `json:"word_count"`
	EstimatedSeconds int  `json:"estimated_seconds"`
	TooLong          bool `json:"too_long"`
}

// AnalyzeSlideText counts words and flags text that would take longer than maxSeconds to read aloud.
func AnalyzeSlideText(slideText string, maxSeconds int) SlideTextStats {
	words := len(strings.Fields(slideText))
	seconds := float64(words) / readingWordsPerSecond
	return SlideTextStats{
		WordCount:        words,
		EstimatedSeconds: int(math.Floor(seconds + 0.5)),
		TooLong:          seconds > float64(maxSeconds),
	}
}

// EmphasizeKeywords wraps capitalised words of four or more letters in ** markers unless they
// open a sentence or bullet or are common pronouns and determiners.
func EmphasizeKeywords(text string) string {
	matches := keywordPattern.FindAllStringIndex(text, -1)
	if len(matches) == 0 {
		return text
	}
	var builder strings.Builder
	last := 0
	for _, match := range matches {
		word := text[match[0]:match[1]]
		builder.WriteString(text[last:match[0]])
		_, weak := weakCapitalWords[word]
		if weak || opensSentence(text[:match[0]]) {
			builder.WriteString(word)
		} else {
			builder.WriteString("**" + word + "**")
		}
		last = match[1]
	}
	builder.WriteString(text[last:])
	return builder.String()
}

// StripEmphasis removes ** markers for plain-text copies.
func StripEmphasis(text string) string {
	return strings.ReplaceAll(text, "**", "")
}

// TrimVisualPrompt caps generated prompt text and flattens it into a single bullet-free line set.
func TrimVisualPrompt(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if utf8.RuneCountInString(trimmed) > visualPromptLimit {
		trimmed = string([]rune(trimmed)[:visualPromptLimit])
	}
	cleaned := CleanSpacing(strings.TrimSpace(trimmed))
	return strings.ReplaceAll(cleaned, "- ", "")
}

func opensSentence(preceding string) bool {
	trimmed := strings.TrimRightFunc(preceding, unicode.IsSpace)
	if len(trimmed) < len(preceding) && strings.HasSuffix(trimmed, "-") {
		trimmed = strings.TrimRightFunc(strings.TrimSuffix(trimmed, "-"), unicode.IsSpace)
	}
	if trimmed == "" {
		return true
	}
	last, _ := utf8.DecodeLastRuneInString(trimmed)
	return last == '.' || last == '!' || last == '?'
}

func isClausePunctuation(token string) bool {
	return len(token) == 1 && strings.Contains(".,!?;:", token)
}

// splitSentences splits after terminal punctuation followed by whitespace.
func splitSentences(text string) []string {
	sentences := make([]string, 0)
	start := 0
	for index := 0; index < len(text); {
		r, size := utf8.DecodeRuneInString(text[index:])
		index += size
		if r != '.' && r != '!' && r != '?' {
			continue
		}
		end := index
		for index < len(text) {
			next, nextSize := utf8.DecodeRuneInString(text[index:])
			if !unicode.IsSpace(next) {
				break
			}
			index += nextSize
		}
		if index > end {
			sentences = append(sentences, text[start:end])
			start = index
		}
	}
	return append(sentences, text[start:])
}
