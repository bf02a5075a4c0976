// Package prompt builds the instruction text sent to the language model.
package prompt

import (
	"fmt"
	"strings"

	"github.com/ashureev/c2h-ai/internal/domain"
)

// Compose builds the generation instruction for a single-shot tool.
// Specific instructions are included only when non-empty.
func Compose(details domain.PromptDetails, tool domain.Tool, approach domain.Approach) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Your task is to generate a \"%s\" for a teacher.\n\n", tool.Name)
	b.WriteString("Here are the details:\n")
	fmt.Fprintf(&b, "- **Tool:** %s (%s)\n", tool.Name, tool.Description)
	fmt.Fprintf(&b, "- **Topic:** %s\n", details.Topic)
	fmt.Fprintf(&b, "- **Subject:** %s\n", details.Subject)
	fmt.Fprintf(&b, "- **Grade Level:** %s\n", details.GradeLevel)
	fmt.Fprintf(&b, "- **Teaching Approach:** %s\n", approach.Name)

	if details.SpecificInstructions != "" {
		fmt.Fprintf(&b, "- **Specific Instructions:** %s\n", details.SpecificInstructions)
	}

	fmt.Fprintf(&b, "\nPlease generate the content for the %s now. "+
		"Ensure the output is well-structured and ready for a teacher to use. "+
		"Use Markdown for formatting.", tool.Name)

	return b.String()
}

// TitlePrompt builds the request for a short chat session title.
func TitlePrompt(topic string) string {
	return "Summarize the following topic into a short, concise title for a chat session. " +
		"The title should be no more than 5 words.\n\n" +
		"Topic: \"" + topic + "\"\n\n" +
		"Title:"
}
