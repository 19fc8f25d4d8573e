package oracle

import "strings"

// BuildSystemPrompt instructs the model to act as the citation oracle.
// The schema itself is attached separately by the client.
func BuildSystemPrompt() string {
	parts := []string{
		"You are a legal citation verifier. Return ONLY JSON that matches the JSON Schema provided.",
		"Find every case-law citation in the document text: party names, reporter references (e.g. AIR, SCC, SCR), neutral citations, and statute references cited as authority.",
		"For each citation set 'original_text' to the VERBATIM substring from the document, unaltered.",
		"Set 'status' to VERIFIED when the citation is accurate as written;",
		"OVERRULED when the cited decision has been overruled (explain in 'note');",
		"INCORRECT when the citation does not resolve to a real decision (explain in 'note');",
		"MODIFIED when the citation needs correction (put the fixed citation in 'corrected_text' and explain in 'note').",
		"When status is VERIFIED, 'corrected_text' must equal 'original_text'.",
		"Fill 'court_name' and 'decision_date' (YYYY, YYYY-MM, or YYYY-MM-DD) when known.",
		"List authoritative reporters or databases you relied on in 'sources'.",
		"If the citation sits under a '--- Page N ---' marker, set 'pinpoint_reference' to that page number.",
		"If the document contains no citations, return {\"citations\": []}.",
		"Never output null. If a field is not known, omit it.",
	}
	return strings.Join(parts, " ")
}

// BuildUserPrompt wraps the assembled document text for submission.
func BuildUserPrompt(text, hint string) string {
	var b strings.Builder
	if hint != "" {
		b.WriteString("Document: ")
		b.WriteString(hint)
		b.WriteString("\n\n")
	}
	b.WriteString("Document text (page markers included):\n")
	b.WriteString(text)
	return b.String()
}
