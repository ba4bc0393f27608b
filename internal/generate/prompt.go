package generate

import (
	"fmt"
	"strings"
)

// MinPairs is the minimum number of pairs requested per chunk.
const MinPairs = 5

const promptHeader = `Please generate diverse, medically accurate question-answer pairs from the following text. ` +
	`Cover areas such as symptoms, diagnosis, treatment, causes, etc. ` +
	`Return only a JSON array like this (no Markdown or code fences):
[{"question": "...", "answer": "..."}, ...]`

// BuildPrompt returns the generation prompt for one chunk. The output depends
// only on chunk.
func BuildPrompt(chunk string) string {
	var sb strings.Builder
	sb.Grow(len(promptHeader) + len(chunk) + 96)
	sb.WriteString(promptHeader)
	sb.WriteString("\n\nText:\n")
	sb.WriteString(chunk)
	sb.WriteString("\n")
	fmt.Fprintf(&sb, "Please generate at least %d question-answer pairs:", MinPairs)
	return sb.String()
}
