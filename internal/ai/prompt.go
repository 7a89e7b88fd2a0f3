package ai

import (
	"fmt"
	"strings"
)

const classificationCategories = "POLICY, SAFETY_RPT, TECH_SPEC, FIN_RPT, COMPLIANCE, EMP_REC, MAINT_LOG, CORRESP"

// BuildClassificationPrompt asks the model to classify transit-agency
// document text into one of the known category codes, answering as JSON.
func BuildClassificationPrompt(title, text string) string {
	var b strings.Builder
	b.WriteString("You are a document classifier for a public transit agency.\n")
	b.WriteString("Classify the document below into exactly one of these categories: ")
	b.WriteString(classificationCategories)
	b.WriteString(".\n\n")
	fmt.Fprintf(&b, "Title: %s\n", title)
	fmt.Fprintf(&b, "Content:\n%s\n\n", text)
	b.WriteString("Respond with a single JSON object and nothing else, using this shape:\n")
	b.WriteString(`{"category":"...","confidence":0.0,"reasoning":"...","department":"...","priority":"low|medium|high|urgent","summary":"...","tags":["..."]}`)
	return b.String()
}

// BuildChatPrompt frames a document Q&A exchange. Context documents are
// separated so the model can cite them apart.
func BuildChatPrompt(query string, contextDocs []string) string {
	var b strings.Builder
	b.WriteString("You are the document assistant for a public transit agency. ")
	b.WriteString("Answer questions based on the provided documents. Be helpful, accurate, and professional.\n\n")
	if len(contextDocs) > 0 {
		b.WriteString("Document context:\n")
		b.WriteString(strings.Join(contextDocs, "\n\n---\n\n"))
		b.WriteString("\n\n")
	}
	fmt.Fprintf(&b, "Question: %s", query)
	return b.String()
}

// BuildTranslationPrompt asks for a translation and nothing else.
func BuildTranslationPrompt(text, fromLang, toLang string) string {
	return fmt.Sprintf(
		"Translate the following text from %s to %s. Provide only the translation:\n\n%s",
		fromLang, toLang, text,
	)
}

// BuildSummaryPrompt asks the model for a short factual summary.
func BuildSummaryPrompt(text string, maxSentences int) string {
	if maxSentences <= 0 {
		maxSentences = 3
	}
	return fmt.Sprintf(
		"Summarize the following transit-agency document in at most %d sentences. Be factual and concise.\n\n%s",
		maxSentences, text,
	)
}
