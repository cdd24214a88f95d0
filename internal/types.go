package internal

// TranslationRequest is the inbound contract shared by the HTTP, Lambda and
// CLI front ends.
type TranslationRequest struct {
	Text       string `json:"text"`
	SourceLang string `json:"sourceLang"`
	TargetLang string `json:"targetLang"`
}

// TranslationResult is the structured reply. Idioms is never nil so it
// always serialises as an array.
type TranslationResult struct {
	Translation string   `json:"translation"`
	Idioms      []string `json:"idioms"`
	Description string   `json:"description"`
}
