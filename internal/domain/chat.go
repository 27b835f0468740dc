package domain

import (
	"context"
	"strings"
)

// MaxChatHistory caps how many prior turns are forwarded upstream.
const MaxChatHistory = 20

// DefaultSystemPrompt is used when the caller does not send one.
const DefaultSystemPrompt = "คุณคือผู้ช่วยด้านความปลอดภัยจากภัยพิบัติ ตอบเป็นภาษาไทยอย่างกระชับ " +
	"ให้คำแนะนำที่ปฏิบัติได้จริงเกี่ยวกับการเตรียมตัว การอพยพ และการดูแลตนเองเมื่อเกิดแผ่นดินไหว น้ำท่วม พายุ และฝนตกหนัก " +
	"หากเป็นเหตุฉุกเฉินให้แนะนำให้โทร 1784 (ศูนย์ ปภ.) หรือ 1669 (เจ็บป่วยฉุกเฉิน)"

// ChatRole is the author of a chat turn.
type ChatRole string

const (
	ChatRoleUser      ChatRole = "user"
	ChatRoleAssistant ChatRole = "assistant"
)

// ChatMessage is one prior turn of the conversation.
type ChatMessage struct {
	Role    ChatRole `json:"role"`
	Content string   `json:"content"`
}

// ChatRequest is a user message with its conversation history.
type ChatRequest struct {
	Message      string        `json:"message"`
	History      []ChatMessage `json:"chatHistory"`
	SystemPrompt string        `json:"systemPrompt,omitempty"`
}

// ChatResponder answers a chat request with text.
type ChatResponder interface {
	Reply(ctx context.Context, req ChatRequest) (string, error)
}

// Normalize validates the request, applies the default system prompt, drops
// empty or unknown-role turns, and keeps only the last MaxChatHistory turns.
func (r ChatRequest) Normalize() (ChatRequest, error) {
	r.Message = strings.TrimSpace(r.Message)
	if r.Message == "" {
		return ChatRequest{}, invalid("message", "is required")
	}
	if strings.TrimSpace(r.SystemPrompt) == "" {
		r.SystemPrompt = DefaultSystemPrompt
	}

	history := make([]ChatMessage, 0, len(r.History))
	for _, m := range r.History {
		if m.Role != ChatRoleUser && m.Role != ChatRoleAssistant {
			continue
		}
		if strings.TrimSpace(m.Content) == "" {
			continue
		}
		history = append(history, m)
	}
	if len(history) > MaxChatHistory {
		history = history[len(history)-MaxChatHistory:]
	}
	r.History = history
	return r, nil
}
