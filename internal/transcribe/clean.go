package transcribe

import (
	"regexp"
	"strings"
)

// UnknownLanguage is reported when no language could be detected
const UnknownLanguage = "unknown"

var (
	// Non-speech placeholders whisper emits on silence or noise
	hallucinationTokens = []string{"BLANK_AUDIO", "MUSIC", "APPLAUSE", "SILENCE", "NO SPEECH", "INAUDIBLE"}

	hallucinationPattern = buildHallucinationPattern()

	languageCodePattern = regexp.MustCompile(`^[a-z]{2,3}(-[a-z0-9]{2,4})?$`)

	// What whisper.cpp prints on stderr, e.g.
	// "whisper_full_with_state: auto-detected language: es (p = 0.97)"
	languageLinePattern = regexp.MustCompile(`(?i)language:[ \t]*([^\s]*)`)
)

func buildHallucinationPattern() *regexp.Regexp {
	alternatives := make([]string, len(hallucinationTokens))
	for i, token := range hallucinationTokens {
		alternatives[i] = strings.ReplaceAll(regexp.QuoteMeta(token), " ", `\s+`)
	}
	group := strings.Join(alternatives, "|")
	return regexp.MustCompile(`(?i)\[\s*(?:` + group + `)\s*\]|\(\s*(?:` + group + `)\s*\)`)
}

// Clean strips hallucination markers and collapses whitespace.
// Removal repeats until nothing matches, so Clean(Clean(s)) == Clean(s).
func Clean(text string) string {
	for {
		stripped := hallucinationPattern.ReplaceAllString(text, " ")
		if stripped == text {
			break
		}
		text = stripped
	}
	return strings.Join(strings.Fields(text), " ")
}

// DetectLanguage scans engine diagnostics for a detected-language line.
// The phrase differs between engine versions, so anything that does not
// look like a language code yields UnknownLanguage.
func DetectLanguage(diagnostics string) string {
	for _, line := range strings.Split(diagnostics, "\n") {
		matches := languageLinePattern.FindAllStringSubmatch(line, -1)
		if len(matches) == 0 {
			continue
		}
		token := matches[len(matches)-1][1]
		if token == "" {
			continue
		}
		if code := strings.ToLower(token); languageCodePattern.MatchString(code) {
			return code
		}
	}
	return UnknownLanguage
}
