package answer

import "encoding/json"

// Plan is the oracle's reasoning output for a question. The model is asked
// for JSON but offers no guarantee, so a parse failure keeps the raw text as
// the plan instead of failing the request.
type Plan struct {
	Structured map[string]any
	Raw        string
}

func ParsePlan(text string) Plan {
	var structured map[string]any
	if err := json.Unmarshal([]byte(text), &structured); err == nil {
		return Plan{Structured: structured}
	}
	return Plan{Raw: text}
}

// PromptJSON renders the plan for embedding into the next prompt.
func (p Plan) PromptJSON() string {
	if p.Structured != nil {
		if encoded, err := json.Marshal(p.Structured); err == nil {
			return string(encoded)
		}
	}
	encoded, err := json.Marshal(map[string]string{"plan": p.Raw})
	if err != nil {
		return `{"plan": ""}`
	}
	return string(encoded)
}
