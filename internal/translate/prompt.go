package translate

import (
	"encoding/json"
	"fmt"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

const promptTemplate = `You are a professional translator for user interface copy.
Translate every string in the JSON array below into %s.

RULES:
1. Translate each string accurately and naturally for interface text.
2. Keep numerals, proper nouns, brand names, email addresses and URLs unchanged.
3. Preserve line breaks inside strings exactly as they appear.
4. Do not merge, split, reorder or omit strings.
5. Respond with ONLY a JSON object mapping each original string to its translation. No prose, no code fences, no comments.

Strings:
%s`

// BuildPrompt renders the translation instruction block for one batch of
// source strings.
func BuildPrompt(batch []string, langCode string) string {
	serialized, _ := json.Marshal(batch)
	return fmt.Sprintf(promptTemplate, languageName(langCode), serialized)
}

// languageName renders a BCP 47 code as an English language name for the
// prompt, falling back to the raw code.
func languageName(code string) string {
	tag, err := language.Parse(code)
	if err != nil {
		return code
	}
	if name := display.English.Languages().Name(tag); name != "" {
		return name
	}
	return code
}
