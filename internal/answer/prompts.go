package answer

import "fmt"

func planPrompt(schemaJSON, question string) string {
	return fmt.Sprintf(`You are an expert data analyst. Based on the database schema below and the user's question, create a step-by-step plan to answer the question.
Produce only JSON with key 'plan'.
Schema: %s
User Question: %q`, schemaJSON, question)
}

func sqlPrompt(schemaJSON, planJSON, question string) string {
	return fmt.Sprintf(`Based on the database schema and the plan, write a single safe SQL SELECT statement that answers the user's question.
Produce only SQL. No markdown, no explanation.
Schema: %s
Plan: %s
User Question: %q`, schemaJSON, planJSON, question)
}

func answerPrompt(question, planJSON, dataJSON string) string {
	return fmt.Sprintf(`Synthesize a concise natural-language answer.
Original Question: %q
Execution Plan: %s
Retrieved Data:
%s`, question, planJSON, dataJSON)
}
