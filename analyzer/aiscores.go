package analyzer

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"betweenlines/chat"
)

// Completer is the slice of the Groq client the analyzer needs.
type Completer interface {
	Complete(ctx context.Context, prompt string, maxTokens int) (string, error)
}

// aiMessageLimit caps the number of messages sent to the API per chat.
const aiMessageLimit = 100

func buildScoringPrompt(messages []chat.Message, you, them string) string {
	var b strings.Builder
	fmt.Fprintf(&b, `Analyze the following WhatsApp chat messages between %s and %s.
For each role, count how many messages from each person fit the description:

Roles:
- Conversation Starter: Messages that initiate new conversations after long silences.
- Snubber: Messages that are delayed, short, or ignore questions.
- Romantic One: Messages with affectionate language or emojis.
- Trouble One: Sarcastic, teasing, or passive-aggressive messages.
- At Fault: Messages with blame or accusations.

Answer per person in the form "Name: starter=N, snubber=N, romantic=N, trouble=N, fault=N".

Messages:
`, you, them)

	limit := len(messages)
	if limit > aiMessageLimit {
		limit = aiMessageLimit
	}
	for _, msg := range messages[:limit] {
		fmt.Fprintf(&b, "%s - %s: %s\n", msg.Timestamp.Format("2006-01-02 15:04"), msg.Sender, msg.Text)
	}
	return b.String()
}

// aiScores asks the AI to count role-matching messages per person and
// overlays the counts it returns onto base for the AI-scored roles only.
// Returns false (base untouched) when the call or the parse fails.
func aiScores(ctx context.Context, ai Completer, messages []chat.Message, you, them string, base Scores) bool {
	text, err := ai.Complete(ctx, buildScoringPrompt(messages, you, them), 500)
	if err != nil {
		return false
	}

	parsed := parseAIScores(text, you, them)
	applied := false
	for person, counts := range parsed {
		for key, count := range counts {
			role := RoleByKey(key)
			if role == nil || !role.AIScored {
				continue
			}
			base[person][key] = count
			applied = true
		}
	}
	return applied
}

// parseAIScores extracts "name: starter=5, snubber=3" style counts. The
// model sometimes puts the name and the counts on separate lines, so a
// name line switches the current person and count lines attach to it.
func parseAIScores(text, you, them string) Scores {
	scores := Scores{you: {}, them: {}}

	var current string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		switch {
		case strings.Contains(line, you) && strings.Contains(line, ":"):
			current = you
		case strings.Contains(line, them) && strings.Contains(line, ":"):
			current = them
		}
		if current == "" || !strings.Contains(line, "=") {
			continue
		}
		// strip any "Name:" prefix so the pairs split cleanly
		if idx := strings.Index(line, ":"); idx >= 0 && !strings.Contains(line[:idx], "=") {
			line = line[idx+1:]
		}
		for _, part := range strings.Split(line, ",") {
			kv := strings.SplitN(part, "=", 2)
			if len(kv) != 2 {
				continue
			}
			key := strings.ToLower(strings.TrimSpace(kv[0]))
			count, err := strconv.Atoi(strings.TrimSpace(kv[1]))
			if err != nil {
				continue
			}
			if RoleByKey(key) != nil {
				scores[current][key] = count
			}
		}
	}
	return scores
}
