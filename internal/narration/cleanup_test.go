package narration

import "testing"

func TestFinishLastSentence(t *testing.T) {
	testCases := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "drops-fragment", input: "  First point. Second point! And a dangling", expected: "First point.\nSecond point!"},
		{name: "no-punctuation", input: "  just words  ", expected: "just words"},
		{name: "question", input: "Why now? Because.", expected: "Why now?\nBecause."},
	}
	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			if got := FinishLastSentence(testCase.input); got != testCase.expected {
				t.Fatalf("FinishLastSentence() = %q, want %q", got, testCase.expected)
			}
		})
	}
}

func TestRemoveLoops(t *testing.T) {
	input := "Steam changed work. steam changed work.\nFactories grew.  Steam changed work."
	if got := RemoveLoops(input); got != "Steam changed work. Factories grew." {
		t.Fatalf("unexpected deduplicated text %q", got)
	}
}

func TestCleanSpacing(t *testing.T) {
	testCases := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "labels-and-spacing",
			input:    "Paragraph: Slide 1: The steam engine changed work. It powered factories!  It spread fast",
			expected: "- The steam engine changed work.\n- It powered factories!\n- It spread fast",
		},
		{
			name:     "list-letters-and-punctuation",
			input:    "a. First point , with space .\nb. Second point",
			expected: "- First point, with space.\n- Second point",
		},
		{
			name:     "hyphens-and-symbols",
			input:    "-- A hand-drawn (simple) map; it's **clear**.",
			expected: "- A hand drawn simple map; it's clear.",
		},
		{
			name:     "empty",
			input:    "   ",
			expected: "",
		},
	}
	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			if got := CleanSpacing(testCase.input); got != testCase.expected {
				t.Fatalf("CleanSpacing() = %q, want %q", got, testCase.expected)
			}
		})
	}
}

func TestEstimateDuration(t *testing.T) {
	testCases := []struct {
		name     string
		count    int
		expected Duration
	}{
		{name: "short", count: 3, expected: Duration{Minutes: 0, Seconds: 1}},
		{name: "one-minute", count: 160, expected: Duration{Minutes: 1, Seconds: 0}},
		{name: "carry", count: 159, expected: Duration{Minutes: 1, Seconds: 0}},
		{name: "ninety-seconds", count: 240, expected: Duration{Minutes: 1, Seconds: 30}},
	}
	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			text := ""
			for index := 0; index < testCase.count; index++ {
				text += "word "
			}
			if got := EstimateDuration(text); got != testCase.expected {
				t.Fatalf("EstimateDuration(%d words) = %+v, want %+v", testCase.count, got, testCase.expected)
			}
		})
	}

	if got := EstimateDuration("Hello world."); got != (Duration{Minutes: 0, Seconds: 1}) {
		t.Fatalf("expected punctuation to count as a token, got %+v", got)
	}
}

func TestWordBudget(t *testing.T) {
	words, tokens := WordBudget(60)
	if words != 144 || tokens != 191 {
		t.Fatalf("WordBudget(60) = %d, %d", words, tokens)
	}
}

func TestPaceRating(t *testing.T) {
	testCases := map[int]string{
		0:   PaceTooSlow,
		89:  PaceTooSlow,
		90:  PaceGood,
		150: PaceGood,
		151: PaceTooFast,
	}
	for rate, expected := range testCases {
		if got := PaceRating(rate); got != expected {
			t.Fatalf("PaceRating(%d) = %q, want %q", rate, got, expected)
		}
	}
}

func TestWordsPerMinute(t *testing.T) {
	if got := WordsPerMinute("one two three four five six seven eight nine ten eleven", Duration{Seconds: 5}); got != 132 {
		t.Fatalf("expected 132 wpm, got %d", got)
	}
	if got := WordsPerMinute("anything", Duration{}); got != 0 {
		t.Fatalf("expected zero wpm for zero duration, got %d", got)
	}
}

func TestAnalyzeSlideText(t *testing.T) {
	stats := AnalyzeSlideText("one two three four five six", 2)
	if stats.WordCount != 6 || stats.EstimatedSeconds != 2 || !stats.TooLong {
		t.Fatalf("unexpected stats %+v", stats)
	}
	if stats := AnalyzeSlideText("", 60); stats.WordCount != 0 || stats.TooLong {
		t.Fatalf("expected empty text to have no words, got %+v", stats)
	}
}

func TestEmphasizeKeywords(t *testing.T) {
	testCases := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "bullets",
			input:    "- Britain led the Industrial Revolution.\n- Steam engines powered Factories in London.",
			expected: "- Britain led the **Industrial** **Revolution**.\n- Steam engines powered **Factories** in **London**.",
		},
		{
			name:     "weak-and-short",
			input:    "Many said They were Bold in Rome. These ideas spread.",
			expected: "Many said They were **Bold** in **Rome**. These ideas spread.",
		},
		{
			name:     "no-matches",
			input:    "all lowercase here",
			expected: "all lowercase here",
		},
	}
	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			if got := EmphasizeKeywords(testCase.input); got != testCase.expected {
				t.Fatalf("EmphasizeKeywords() = %q, want %q", got, testCase.expected)
			}
		})
	}
}

func TestTrimVisualPrompt(t *testing.T) {
	raw := "- Glowing sun, green leaves, water droplets, in Cartoon diagram style"
	if got := TrimVisualPrompt(raw); got != "Glowing sun, green leaves, water droplets, in Cartoon diagram style" {
		t.Fatalf("unexpected visual prompt %q", got)
	}

	long := ""
	for index := 0; index < 100; index++ {
		long += "leaf "
	}
	if got := TrimVisualPrompt(long); len(got) > visualPromptLimit {
		t.Fatalf("expected prompt capped at %d characters, got %d", visualPromptLimit, len(got))
	}
}

func TestSuggestStyle(t *testing.T) {
	testCases := map[string]string{
		"The water cycle includes evaporation":     "Cartoon diagram",
		"A timeline of Egyptian history":           "Chalkboard sketch",
		"Our network architecture":                 "Isometric concept map",
		"Key statistics for the quarter":           "Infographic",
		"A minimal modern explanation":             "Flat educational illustration",
		"Nothing in particular matches this input": "Infographic",
	}
	for input, expected := range testCases {
		if got := SuggestStyle(input); got != expected {
			t.Fatalf("SuggestStyle(%q) = %q, want %q", input, got, expected)
		}
	}
}
