package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"
)

// Classification is the classify-ticket result shape.
type Classification struct {
	Priority                string `json:"priority"`
	Category                string `json:"category"`
	EstimatedResolutionTime string `json:"estimatedResolutionTime"`
}

// Sentiment is the analyze-sentiment result shape. Score runs 0.0 (very
// negative) to 1.0 (very positive).
type Sentiment struct {
	Sentiment string   `json:"sentiment"`
	Score     float64  `json:"score"`
	Keywords  []string `json:"keywords"`
}

// DepartmentSuggestion is the suggest-department result shape.
type DepartmentSuggestion struct {
	SuggestedDepartment string `json:"suggestedDepartment"`
	Reasoning           string `json:"reasoning"`
}

// ConversationTurn is one line of history fed to response generation.
type ConversationTurn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// TicketContext grounds response generation in the ticket being worked.
type TicketContext struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Category    string `json:"category"`
}

// Service exposes four stateless assist operations. Every failure, whether
// transport or parse, degrades to a fixed fallback; callers never see an
// error from this service.
type Service struct {
	provider  Provider
	timeout   time.Duration
	maxTokens int
}

func NewService(provider Provider, timeout time.Duration, maxTokens int) *Service {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Service{provider: provider, timeout: timeout, maxTokens: maxTokens}
}

func classifyFallback() Classification {
	return Classification{Priority: "medium", Category: "general", EstimatedResolutionTime: "1-2 days"}
}

func sentimentFallback() Sentiment {
	return Sentiment{Sentiment: "neutral", Score: 0.5, Keywords: []string{}}
}

func departmentFallback(reasoning string) DepartmentSuggestion {
	return DepartmentSuggestion{SuggestedDepartment: "Customer Success", Reasoning: reasoning}
}

const responseFallback = "I apologize, but I'm having trouble generating a response right now. Please try again or contact our support team directly."

// ClassifyTicket assigns priority, category and a resolution estimate to raw
// ticket text.
func (s *Service) ClassifyTicket(ctx context.Context, title, description string) Classification {
	prompt := fmt.Sprintf(`Classify this customer support ticket:
Title: %s
Description: %s

Respond with JSON format:
{
  "priority": "low|medium|high|urgent",
  "category": "technical|billing|general|account|product",
  "estimatedResolutionTime": "1-2 hours|4-8 hours|1-2 days|3-5 days"
}

Base priority on urgency indicators like "urgent", "critical", "broken", "not working", "immediately", etc.`,
		title, description)

	text, err := s.complete(ctx, prompt)
	if err != nil {
		log.Printf("ai: classify ticket failed: %v", err)
		return classifyFallback()
	}

	var result Classification
	if err := parseJSON(text, &result); err != nil {
		return classifyFallback()
	}
	return result
}

// GenerateResponse drafts an agent reply from the conversation so far.
func (s *Service) GenerateResponse(ctx context.Context, conversation []ConversationTurn, tc TicketContext) string {
	var history strings.Builder
	for _, turn := range conversation {
		fmt.Fprintf(&history, "%s: %s\n", turn.Role, turn.Content)
	}

	prompt := fmt.Sprintf(`You are a helpful customer support agent. Generate a professional, empathetic response based on:

Ticket: %s
Description: %s
Category: %s

Conversation history:
%s
Provide a helpful, professional response as a customer support agent. Be concise but thorough.
If you cannot resolve the issue, suggest next steps or escalation.`,
		tc.Title, tc.Description, tc.Category, history.String())

	text, err := s.complete(ctx, prompt)
	if err != nil {
		log.Printf("ai: generate response failed: %v", err)
		return responseFallback
	}
	return strings.TrimSpace(text)
}

// AnalyzeSentiment scores a customer message.
func (s *Service) AnalyzeSentiment(ctx context.Context, text string) Sentiment {
	prompt := fmt.Sprintf(`Analyze the sentiment of this customer message:
%q

Respond with JSON format:
{
  "sentiment": "positive|neutral|negative",
  "score": 0.0-1.0,
  "keywords": ["word1", "word2", "word3"]
}

Score: 0.0 = very negative, 0.5 = neutral, 1.0 = very positive
Keywords: Extract 3-5 most important words/phrases`, text)

	reply, err := s.complete(ctx, prompt)
	if err != nil {
		log.Printf("ai: analyze sentiment failed: %v", err)
		return sentimentFallback()
	}

	var result Sentiment
	if err := parseJSON(reply, &result); err != nil {
		return sentimentFallback()
	}
	if result.Keywords == nil {
		result.Keywords = []string{}
	}
	return result
}

// SuggestDepartment routes a ticket to the best-fitting department.
func (s *Service) SuggestDepartment(ctx context.Context, category, priority, description string) DepartmentSuggestion {
	prompt := fmt.Sprintf(`Based on this ticket information, suggest the best department/agent type:
Category: %s
Priority: %s
Description: %s

Available departments: Technical Support, Billing, Customer Success, Product Support

Respond with JSON format:
{
  "suggestedDepartment": "department_name",
  "reasoning": "brief explanation"
}`, category, priority, description)

	reply, err := s.complete(ctx, prompt)
	if err != nil {
		log.Printf("ai: suggest department failed: %v", err)
		return departmentFallback("Default assignment due to processing error")
	}

	var result DepartmentSuggestion
	if err := parseJSON(reply, &result); err != nil {
		return departmentFallback("Default assignment for general inquiries")
	}
	return result
}

func (s *Service) complete(ctx context.Context, prompt string) (string, error) {
	if s.provider == nil {
		return "", fmt.Errorf("no AI provider configured")
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return s.provider.Complete(ctx, CompletionRequest{Prompt: prompt, MaxTokens: s.maxTokens})
}

// parseJSON tolerates markdown code fences around the JSON body.
func parseJSON(text string, v interface{}) error {
	trimmed := strings.TrimSpace(text)
	if strings.HasPrefix(trimmed, "```") {
		trimmed = strings.TrimPrefix(trimmed, "```json")
		trimmed = strings.TrimPrefix(trimmed, "```")
		trimmed = strings.TrimSuffix(strings.TrimSpace(trimmed), "```")
	}
	return json.Unmarshal([]byte(strings.TrimSpace(trimmed)), v)
}
