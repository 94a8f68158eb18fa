package llm

import (
	"context"
	"fmt"
	"strings"
)

// EchoResponder answers from fixed templates keyed by intent. It needs no
// model and is the default in development.
type EchoResponder struct{}

func NewEchoResponder() *EchoResponder {
	return &EchoResponder{}
}

func (EchoResponder) Respond(ctx context.Context, req ResponseRequest) (*Reply, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	subject := "your infrastructure"
	if len(req.Topics) > 0 {
		subject = "your " + strings.Join(req.Topics, " and ") + " setup"
	}

	var text string
	switch req.Intent {
	case "question":
		text = fmt.Sprintf("Here is what I found about %s. Start by checking the current status and recent logs. If the problem persists, share the exact error so I can narrow it down.", subject)
	case "command":
		text = fmt.Sprintf("I can run that against %s. Confirm the target and I will apply the change. You will see progress updates as the task runs.", subject)
	case "help":
		text = fmt.Sprintf("Let's troubleshoot %s together. First, look at the most recent errors. Then verify the configuration matches what you expect.", subject)
	default:
		text = fmt.Sprintf("Noted. Ask me anything about %s.", subject)
	}

	reply := &Reply{Text: text}
	if req.AutoSuggestions {
		reply.Suggestions = SuggestionsFor(req.Topics, req.AvoidedTopics)
	}
	return reply, nil
}
