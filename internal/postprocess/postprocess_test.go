package postprocess

import "testing"

func TestStripFences(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "empty string",
			input:    "",
			expected: "",
		},
		{
			name:     "no fences",
			input:    `{"translation":"Hola"}`,
			expected: `{"translation":"Hola"}`,
		},
		{
			name:     "json fence",
			input:    "```json\n{\"translation\":\"Hola\"}\n```",
			expected: `{"translation":"Hola"}`,
		},
		{
			name:     "upper case fence tag",
			input:    "```JSON\n{\"a\":1}\n```",
			expected: `{"a":1}`,
		},
		{
			name:     "bare fence",
			input:    "```\nplain\n```",
			expected: "plain",
		},
		{
			name:     "surrounding whitespace",
			input:    "  \n```json {\"a\":1} ```  \n",
			expected: `{"a":1}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := StripFences(tt.input)
			if result != tt.expected {
				t.Errorf("StripFences(%q) = %q, want %q", tt.input, result, tt.expected)
			}
		})
	}
}

func TestStripFences_Idempotent(t *testing.T) {
	in := "```json\n{\"translation\":\"Hola\"}\n```"
	once := StripFences(in)
	if twice := StripFences(once); twice != once {
		t.Errorf("expected idempotent result, got %q then %q", once, twice)
	}
}

func TestRemoveThinking(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "no thinking blocks",
			input:    "Hola mundo",
			expected: "Hola mundo",
		},
		{
			name:     "think block before payload",
			input:    "<think>The user wants Spanish</think>\n{\"translation\":\"Hola\"}",
			expected: `{"translation":"Hola"}`,
		},
		{
			name:     "multiple blocks",
			input:    "<thinking>a</thinking>middle<reasoning>b</reasoning>",
			expected: "middle",
		},
		{
			name:     "truncated block",
			input:    "  <thinking>Incomplete reasoning",
			expected: "",
		},
		{
			name:     "unclosed tag mentioned in text",
			input:    "Usa la etiqueta <think> en el prompt",
			expected: "Usa la etiqueta <think> en el prompt",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := RemoveThinking(tt.input)
			if result != tt.expected {
				t.Errorf("RemoveThinking(%q) = %q, want %q", tt.input, result, tt.expected)
			}
		})
	}
}

func TestClean(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "plain text",
			input:    "Un saludo común.",
			expected: "Un saludo común.",
		},
		{
			name:     "echo prefix",
			input:    "Here is the rewritten description: Un saludo común.",
			expected: "Un saludo común.",
		},
		{
			name:     "description label",
			input:    "Description: Un saludo común.",
			expected: "Un saludo común.",
		},
		{
			name:     "double quotes",
			input:    `"Un saludo común."`,
			expected: "Un saludo común.",
		},
		{
			name:     "echoed triple quotes",
			input:    `"""Un saludo común."""`,
			expected: "Un saludo común.",
		},
		{
			name:     "guillemets",
			input:    "«Un saludo común.»",
			expected: "Un saludo común.",
		},
		{
			name:     "separate quoted words kept",
			input:    `"Hola" es un saludo informal, como el italiano "ciao"`,
			expected: `"Hola" es un saludo informal, como el italiano "ciao"`,
		},
		{
			name:     "separate guillemet quotes kept",
			input:    "«Hola» equivale a «ciao»",
			expected: "«Hola» equivale a «ciao»",
		},
		{
			name:     "translation label is content",
			input:    "Translation: es un saludo informal.",
			expected: "Translation: es un saludo informal.",
		},
		{
			name:     "unbalanced quote kept",
			input:    `"Un saludo común.`,
			expected: `"Un saludo común.`,
		},
		{
			name:     "fenced and thinking",
			input:    "<think>ok</think>```\nUn saludo común.\n```",
			expected: "Un saludo común.",
		},
		{
			name:     "only whitespace",
			input:    "   ",
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Clean(tt.input)
			if result != tt.expected {
				t.Errorf("Clean(%q) = %q, want %q", tt.input, result, tt.expected)
			}
		})
	}
}

func TestFirstLine(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"single line", "Hola mundo", "Hola mundo"},
		{"multi line", "Hola mundo\nsegunda", "Hola mundo"},
		{"crlf", "Hola\r\nmundo", "Hola"},
		{"leading newline", "\nHola", "\nHola"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := FirstLine(tt.input)
			if result != tt.expected {
				t.Errorf("FirstLine(%q) = %q, want %q", tt.input, result, tt.expected)
			}
		})
	}
}
