package models

// AssistantRequest is the body of POST /api/assistant
type AssistantRequest struct {
	Text    string `json:"text"`
	Profile string `json:"profile,omitempty"` // "officer" (default) or "citizen"
}

// AssistantResponse carries the cleaned oracle reply
type AssistantResponse struct {
	Reply   string `json:"reply"`
	Profile string `json:"profile"`
	Context string `json:"context"` // name of the knowledge rule that grounded the prompt
}
