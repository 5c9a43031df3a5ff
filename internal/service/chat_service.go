// Package service holds the business logic behind the HTTP handlers.
package service

import (
	"context"
	"errors"
	"fmt"

	"portfolio-api/internal/classifier"
	"portfolio-api/internal/client"
	"portfolio-api/internal/config"
	"portfolio-api/internal/ids"
	"portfolio-api/internal/models"
	"portfolio-api/internal/repository/redis"
	"portfolio-api/internal/sanitize"
	"portfolio-api/internal/util"
)

var (
	ErrInvalidRequest = errors.New("invalid request format")
	ErrInvalidRole    = errors.New("invalid message role")
	ErrPayloadTooLong = errors.New("message too long")
	ErrEmptyResponse  = errors.New("no response from AI")
)

// portfolioContext is the system prompt prepended to every conversation.
// Clients can never set the system role themselves.
const portfolioContext = `You are Rodwin Vicquerra. Answer in first person.

Skills: React, Next.js 14, TypeScript, Tailwind CSS, Node.js, PostgreSQL,
Clerk OAuth, RBAC, IDS, CSP tracking, Git, GitHub, Vercel, VS Code, pnpm.

Goals: master React and Next.js, deepen security expertise, build production
apps, contribute to open source, land a junior developer role, learn advanced
backend and DevOps, mentor others.

Education: BS Information Technology, Web Development major, St. Paul
University Philippines, 3rd year.

Projects: portfolio site (OWASP compliant, RBAC, IDS, CSP tracking), security
testing and compliance (OWASP Top 10), MCP Integration Demo (secure admin APIs).

Contact: rodwindizvicquerra@gmail.com, +63 916 582 9185, San Rafael, Roxas,
Isabela 3320, Philippines, github.com/rudWin.`

// ChatService screens widget conversations, forwards clean ones to the
// completion provider, and validates what comes back.
type ChatService struct {
	cfg        config.SecurityConfig
	completion client.CompletionClient
	tracker    *ids.Tracker
	cache      *redis.ChatCache
}

// NewChatService wires a chat service. cache may be nil when Redis is not
// configured.
func NewChatService(cfg config.SecurityConfig, completion client.CompletionClient, tracker *ids.Tracker, cache *redis.ChatCache) *ChatService {
	return &ChatService{
		cfg:        cfg,
		completion: completion,
		tracker:    tracker,
		cache:      cache,
	}
}

// Chat runs the full pipeline for one widget request. Rejected user messages
// are replaced with the canned refusal rather than erroring: the attacker
// learns nothing about which detector fired, and the rest of the
// conversation still works.
func (s *ChatService) Chat(ctx context.Context, ip, userAgent string, messages []models.ChatMessage) (models.ChatResponse, error) {
	if len(messages) == 0 {
		return models.ChatResponse{}, ErrInvalidRequest
	}

	for _, msg := range messages {
		if msg.Role != "user" && msg.Role != "assistant" {
			s.tracker.LogEvent(models.EventSuspiciousPattern, models.SeverityMedium,
				ip, userAgent, "Attempted to inject system role")
			return models.ChatResponse{}, ErrInvalidRole
		}
	}

	screened := make([]models.ChatMessage, 0, len(messages))
	for _, msg := range messages {
		if msg.Role != "user" || msg.Content == "" {
			screened = append(screened, msg)
			continue
		}

		result := classifier.ValidateMessageSecurity(msg.Content)
		if !result.Valid {
			s.tracker.LogEvent(models.EventSuspiciousPattern, models.SeverityMedium,
				ip, userAgent, fmt.Sprintf("%s: %s", result.Threat, result.Reason))
			screened = append(screened, models.ChatMessage{Role: "assistant", Content: classifier.RefusalMessage})
			continue
		}

		if suspicious, reason := sanitize.CheckSuspiciousInput(msg.Content); suspicious {
			s.tracker.LogEvent(models.EventSuspiciousPattern, models.SeverityMedium,
				ip, userAgent, reason)
			screened = append(screened, models.ChatMessage{Role: "assistant", Content: classifier.RefusalMessage})
			continue
		}

		screened = append(screened, models.ChatMessage{Role: msg.Role, Content: sanitize.ChatMessage(msg.Content)})
	}

	totalLength := 0
	for _, msg := range screened {
		totalLength += len(msg.Content)
	}
	if totalLength > s.cfg.MaxChatPayloadLength {
		s.tracker.LogEvent(models.EventSuspiciousPattern, models.SeverityMedium,
			ip, userAgent, "Excessive message length")
		return models.ChatResponse{}, ErrPayloadTooLong
	}

	conversation := append([]models.ChatMessage{{Role: "system", Content: portfolioContext}}, screened...)

	if s.cache != nil {
		if cached, ok := s.cache.Get(ctx, conversation); ok {
			return models.ChatResponse{Message: cached}, nil
		}
	}

	reply, err := s.completion.Complete(ctx, conversation)
	if err != nil {
		return models.ChatResponse{}, err
	}
	if reply == "" {
		return models.ChatResponse{}, ErrEmptyResponse
	}

	if validation := classifier.ValidateAIResponse(reply); !validation.Valid {
		util.Warn("AI response failed validation", util.String("reason", validation.Reason))
		s.tracker.LogEvent(models.EventSuspiciousPattern, models.SeverityMedium,
			ip, userAgent, fmt.Sprintf("Response validation failed: %s", validation.Reason))
		return models.ChatResponse{Message: classifier.FallbackResponse}, nil
	}

	if s.cache != nil {
		s.cache.Set(ctx, conversation, reply)
	}
	return models.ChatResponse{Message: reply}, nil
}
