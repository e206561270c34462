package analysis

import (
	"fmt"
	"strings"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// Role of a chat turn as Gemini names it.
type Role string

const (
	RoleUser  Role = "user"
	RoleModel Role = "model"
)

// Turn is one message of a conversation.
type Turn struct {
	Role Role   `json:"role"`
	Text string `json:"text"`
}

// Request is one generateContent call.
type Request struct {
	System      string
	Turns       []Turn
	Temperature float64
}

// Usage is the token accounting Gemini reports.
type Usage struct {
	PromptTokens   int64 `json:"prompt_tokens"`
	ResponseTokens int64 `json:"response_tokens"`
}

// Response is the text of the first candidate.
type Response struct {
	Model        string `json:"model"`
	Text         string `json:"text"`
	FinishReason string `json:"finish_reason,omitempty"`
	Usage        Usage  `json:"usage"`
}

func buildPayload(req Request) ([]byte, error) {
	payload, err := sjson.SetBytes([]byte(`{"contents":[]}`), "generationConfig.temperature", req.Temperature)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(req.System) != "" {
		system := map[string]any{"parts": []map[string]string{{"text": req.System}}}
		if payload, err = sjson.SetBytes(payload, "systemInstruction", system); err != nil {
			return nil, err
		}
	}
	for _, t := range req.Turns {
		turn := map[string]any{
			"role":  string(t.Role),
			"parts": []map[string]string{{"text": t.Text}},
		}
		if payload, err = sjson.SetBytes(payload, "contents.-1", turn); err != nil {
			return nil, err
		}
	}
	return payload, nil
}

// parseResponse joins the text parts of the first candidate. A prompt block or
// a safety stop with no text is ErrBlocked.
func parseResponse(model string, body []byte) (*Response, error) {
	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("gemini %s: invalid json response", model)
	}
	root := gjson.ParseBytes(body)
	if reason := root.Get("promptFeedback.blockReason").String(); reason != "" {
		return nil, fmt.Errorf("%w: prompt %s", ErrBlocked, reason)
	}

	cand := root.Get("candidates.0")
	var sb strings.Builder
	cand.Get("content.parts").ForEach(func(_, part gjson.Result) bool {
		sb.WriteString(part.Get("text").String())
		return true
	})
	text := strings.TrimSpace(sb.String())
	finish := cand.Get("finishReason").String()
	if text == "" {
		if finish == "SAFETY" || finish == "RECITATION" || finish == "PROHIBITED_CONTENT" {
			return nil, fmt.Errorf("%w: finish reason %s", ErrBlocked, finish)
		}
		return nil, fmt.Errorf("gemini %s: %w", model, ErrEmptyResponse)
	}

	out := &Response{
		Model:        model,
		Text:         text,
		FinishReason: finish,
		Usage: Usage{
			PromptTokens:   root.Get("usageMetadata.promptTokenCount").Int(),
			ResponseTokens: root.Get("usageMetadata.candidatesTokenCount").Int(),
		},
	}
	if v := root.Get("modelVersion").String(); v != "" {
		out.Model = v
	}
	return out, nil
}

func parseError(model string, code int, body []byte) *StatusError {
	se := &StatusError{Model: model, Code: code}
	if gjson.ValidBytes(body) {
		se.Status = gjson.GetBytes(body, "error.status").String()
		se.Message = gjson.GetBytes(body, "error.message").String()
	}
	return se
}
