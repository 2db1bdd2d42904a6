package entity

type LLMChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type LLMChatCompletionRequest struct {
	Model    string           `json:"model"`
	Revision int              `json:"revision"`
	Messages []LLMChatMessage `json:"messages"`
}

// LLMCompletionMessage keeps content as a pointer so that a missing field
// can be told apart from an empty reply
type LLMCompletionMessage struct {
	Role    string  `json:"role"`
	Content *string `json:"content"`
}

type LLMChatCompletionChoice struct {
	Message *LLMCompletionMessage `json:"message"`
}

type LLMChatCompletionResponse struct {
	Choices []LLMChatCompletionChoice `json:"choices"`
}
