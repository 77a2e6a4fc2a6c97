package services

import "github.com/tmc/langchaingo/prompts"

// qaTemplate is the fixed instruction wrapped around every question.
// The model must answer only from the retrieved context, admit when it
// does not know, and decline questions outside the assistant's scope.
const qaTemplate = `You are an AI assistant specifically trained on the Constitution of the Republic of Kazakhstan
and other legal documents. Answer the question based on the context provided.

If you don't know the answer, just say that you don't know. DO NOT try to make up an answer.
If the question is not related to the context, politely respond that you are tuned to answer
only questions about the Constitution of Kazakhstan and provided documents.

CONTEXT:
{{.context}}

QUESTION:
{{.question}}

YOUR ANSWER:
`

var qaPrompt = prompts.NewPromptTemplate(qaTemplate, []string{"context", "question"})

// BuildQAPrompt fills the QA template with the concatenated retrieved
// chunks and the verbatim question.
func BuildQAPrompt(contextText, question string) (string, error) {
	return qaPrompt.Format(map[string]any{
		"context":  contextText,
		"question": question,
	})
}
