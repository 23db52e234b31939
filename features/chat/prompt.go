package chat

import (
	"fmt"
	"strings"

	"chemtutor/internal/index"
	"chemtutor/internal/molecule"
	"chemtutor/internal/session"
)

const systemNormal = `You are a helpful assistant that responds in Sinhala and specializes in chemistry.
- Always mention chemical compound names explicitly (e.g. "benzene" or "C₆H₆") when relevant.
- Use the context to answer. If the answer isn't in the context, say "answer is not available in the context".
- If asked to explain something again or provide more details, use your chemistry knowledge to expand on the topic.
- Format the answer as Markdown.`

const systemAccessibility = `You are a helpful assistant that responds in Sinhala and specializes in chemistry, speaking to a blind student.
- Always mention chemical compound names explicitly (e.g. "benzene" or "C₆H₆") when relevant.
- Provide detailed verbal descriptions of molecular structures so they can be pictured without sight.
- Do not use tables, Markdown or symbols that do not read aloud well.
- Use the context to answer. If the answer isn't in the context, say "answer is not available in the context".
- If asked to explain something again or provide more details, use your chemistry knowledge to expand on the topic.`

const systemTeacher = `You are a chemistry teacher explaining concepts to Sri Lankan students in Sinhala.
Follow these guidelines STRICTLY:
1. Respond in Sinhala ONLY.
2. Break the explanation into clear numbered steps.
3. Use simple language suitable for high school students.
4. Include relevant examples from the Sri Lankan curriculum.
5. Highlight key concepts and formulas.
6. Explain the reasoning behind each step.
7. Conclude with a summary of the main concept.
Prefer the provided context when it is relevant; otherwise rely on your chemistry knowledge.

Response format:
පියවර 1: [Explanation]
පියවර 2: [Explanation]
...
සාරාංශය: [Summary]`

const structureRule = "\nWhen the answer discusses a specific molecule's structure, end with one final line `" + molecule.Tag + " <SMILES>` for that molecule."

func systemPrompt(mode session.Mode) string {
	switch mode {
	case session.ModeAccessibility:
		return systemAccessibility + structureRule
	case session.ModeTeacher:
		return systemTeacher
	default:
		return systemNormal + structureRule
	}
}

// buildPrompt lays out history, then retrieved context, then the question.
func buildPrompt(history []session.Turn, matches []index.Match, question string) string {
	var b strings.Builder

	b.WriteString("Chat History:\n")
	for _, t := range history {
		fmt.Fprintf(&b, "%s: %s\n", t.Role, t.Content)
	}

	b.WriteString("\nContext:\n")
	for i, m := range matches {
		if i > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(m.Content)
	}

	fmt.Fprintf(&b, "\n\nQuestion: %s\n\nAnswer in Sinhala:", question)
	return b.String()
}
