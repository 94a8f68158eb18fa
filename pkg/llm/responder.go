package llm

import (
	"context"
	"fmt"
	"strings"
)

// ResponseRequest is everything the responder may use to answer one user turn.
type ResponseRequest struct {
	UserId    string
	SessionId uint
	Message   string
	History   []Message // oldest first, excluding Message
	Memories  []string  // most relevant first
	Topics    []string
	Intent    string

	ResponseStyle   string
	PreferredTopics []string
	AvoidedTopics   []string
	AutoSuggestions bool
}

type Reply struct {
	Text        string
	Suggestions []string
}

// Responder produces the assistant's reply to one user turn.
type Responder interface {
	Respond(ctx context.Context, req ResponseRequest) (*Reply, error)
}

// FallbackSuggestions accompany the apology sent when no reply could be produced.
var FallbackSuggestions = []string{
	"Show container status",
	"List recent errors",
	"Check system health",
}

var topicSuggestions = map[string][]string{
	"container":       {"Show container logs", "Restart the container"},
	"image":           {"List local images", "Scan image for vulnerabilities"},
	"volume":          {"List volumes", "Check disk usage"},
	"network":         {"Inspect network settings", "Check exposed ports"},
	"security":        {"Run a security scan", "Show open vulnerabilities"},
	"troubleshooting": {"Show recent errors", "Run a health check"},
	"backup":          {"List backups", "Create a snapshot"},
	"configuration":   {"Show current configuration", "Validate environment variables"},
}

const maxSuggestions = 3

// SuggestionsFor builds follow-up suggestions from the topics of a turn,
// skipping avoided topics.
func SuggestionsFor(topics, avoided []string) []string {
	skip := make(map[string]bool, len(avoided))
	for _, t := range avoided {
		skip[t] = true
	}

	var out []string
	seen := make(map[string]bool)
	for _, t := range topics {
		if skip[t] {
			continue
		}
		for _, s := range topicSuggestions[t] {
			if !seen[s] && len(out) < maxSuggestions {
				seen[s] = true
				out = append(out, s)
			}
		}
	}
	if len(out) == 0 {
		return append([]string(nil), FallbackSuggestions...)
	}
	return out
}

// ChatResponder answers through an LLMProvider with a prompt built from the
// user's preferences and memories.
type ChatResponder struct {
	provider LLMProvider
	options  []Option
}

func NewChatResponder(provider LLMProvider, options ...Option) *ChatResponder {
	return &ChatResponder{provider: provider, options: options}
}

func (r *ChatResponder) Respond(ctx context.Context, req ResponseRequest) (*Reply, error) {
	messages := make([]Message, 0, len(req.History)+2)
	messages = append(messages, Message{Role: RoleSystem, Content: SystemPrompt(req)})
	messages = append(messages, req.History...)
	messages = append(messages, Message{Role: RoleUser, Content: req.Message})

	text, err := r.provider.Chat(ctx, messages, r.options...)
	if err != nil {
		return nil, fmt.Errorf("responder chat: %w", err)
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("responder chat: empty reply")
	}

	reply := &Reply{Text: text}
	if req.AutoSuggestions {
		reply.Suggestions = SuggestionsFor(req.Topics, req.AvoidedTopics)
	}
	return reply, nil
}

func SystemPrompt(req ResponseRequest) string {
	var b strings.Builder
	b.WriteString("You are an assistant for an infrastructure management tool. ")
	b.WriteString("You help with containers, images, volumes, networks, security and backups.\n")

	switch req.ResponseStyle {
	case "technical":
		b.WriteString("Answer with precise technical detail and exact commands.\n")
	case "simple":
		b.WriteString("Answer in plain language and avoid jargon.\n")
	default:
		b.WriteString("Balance technical accuracy with clarity.\n")
	}
	if len(req.PreferredTopics) > 0 {
		fmt.Fprintf(&b, "The user is most interested in: %s.\n", strings.Join(req.PreferredTopics, ", "))
	}
	if len(req.AvoidedTopics) > 0 {
		fmt.Fprintf(&b, "Keep discussion of these topics brief: %s.\n", strings.Join(req.AvoidedTopics, ", "))
	}
	if len(req.Memories) > 0 {
		b.WriteString("Relevant context from earlier conversations:\n")
		for _, m := range req.Memories {
			fmt.Fprintf(&b, "- %s\n", m)
		}
	}
	return b.String()
}
