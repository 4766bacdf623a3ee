package driven

// PromptStore provides access to LLM prompt templates.
// Implementations may load prompts from files, embed them in the binary,
// or fetch them from a remote configuration service.
type PromptStore interface {
	// Load returns the prompt template for the given name.
	// If the prompt is not found, implementations should return a sensible default
	// or an error, depending on whether the prompt is required.
	Load(name string) (string, error)

	// Reload clears any cached prompts, forcing fresh loads on next access.
	// This is useful when prompts may have been edited on disk.
	Reload()
}

// Well-known prompt names, one per agent role.
// These prompts are system prompts and have no format placeholders.
const (
	// PromptResearcher gathers external context about the artist and release.
	PromptResearcher = "researcher"

	// PromptCritic weighs the technical evidence against the research context.
	PromptCritic = "critic"

	// PromptReporter writes the final human-facing verdict.
	PromptReporter = "reporter"
)
