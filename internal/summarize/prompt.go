package summarize

// DefaultSystemPrompt is sent as the system message of every call; the chunk
// itself is the user message.
const DefaultSystemPrompt = "Summarize the following text in concise, professional bullet points, " +
	"suitable for sharing via email. Limit to the most important information."
