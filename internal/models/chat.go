package models

// ChatMessage is one turn of the widget conversation. Only "user" and
// "assistant" roles are accepted from clients; the system role is reserved
// for the server-side portfolio context.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatRequest is the inbound chat payload.
type ChatRequest struct {
	Messages []ChatMessage `json:"messages"`
}

// ChatResponse carries the assistant reply back to the widget.
type ChatResponse struct {
	Message string `json:"message"`
}

// ContactForm is the sanitized contact submission. The Website field is a
// honeypot: humans never fill it.
type ContactForm struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Message string `json:"message"`
	Website string `json:"website,omitempty"`
}
