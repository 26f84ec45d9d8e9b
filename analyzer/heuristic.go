package analyzer

import (
	"regexp"
	"strings"
	"time"

	"betweenlines/chat"
)

const (
	starterGap = 8 * time.Hour
	snubGap    = 6 * time.Hour
)

var troubleRegex = regexp.MustCompile(`(?i)\b(sure|okay|whatever)\b.*\.{3,}`)

var romanticEmojis = []string{"❤️", "🥰", "😘"}
var affectionateWords = []string{"love", "darling", "sweetheart"}
var blamePhrases = []string{"you always", "you never", "it's your fault"}
var jokerMarkers = []string{"lol", "haha", "😂", "🤣"}
var ackWords = []string{"yes", "no", "maybe"}

// HeuristicScores runs the local rule-based scorer over the whole chat
// for the chosen pair. It covers all seven roles and needs no network.
func HeuristicScores(messages []chat.Message, you, them string) Scores {
	scores := newScores(you, them)

	var lastTimestamp time.Time
	var lastSender, lastText string

	for _, msg := range messages {
		sender := msg.Sender
		if _, ok := scores[sender]; !ok {
			// group chats can carry extra senders; only the chosen
			// pair is scored
			lastTimestamp, lastSender, lastText = msg.Timestamp, sender, msg.Text
			continue
		}
		lower := strings.ToLower(msg.Text)

		if !lastTimestamp.IsZero() && msg.Timestamp.Sub(lastTimestamp) >= starterGap {
			scores[sender]["starter"]++
		}

		if lastSender != "" && lastSender != sender {
			if msg.Timestamp.Sub(lastTimestamp) > snubGap {
				scores[sender]["snubber"]++
			}
			if len(strings.Fields(msg.Text)) < 4 {
				scores[sender]["snubber"]++
			}
			if strings.Contains(lastText, "?") && !containsAny(lower, ackWords) {
				scores[sender]["snubber"]++
			}
		}

		if containsAny(msg.Text, romanticEmojis) {
			scores[sender]["romantic"]++
		}
		if containsAny(lower, affectionateWords) {
			scores[sender]["romantic"]++
		}

		if troubleRegex.MatchString(msg.Text) {
			scores[sender]["trouble"]++
		}

		if containsAny(lower, blamePhrases) {
			scores[sender]["fault"]++
		}

		if strings.Contains(msg.Text, "?") {
			scores[sender]["listener"]++
		}

		if containsAny(lower, jokerMarkers) {
			scores[sender]["joker"]++
		}

		lastTimestamp, lastSender, lastText = msg.Timestamp, sender, msg.Text
	}

	return scores
}

func newScores(you, them string) Scores {
	scores := Scores{you: {}, them: {}}
	for _, role := range Roles {
		scores[you][role.Key] = 0
		scores[them][role.Key] = 0
	}
	return scores
}

func containsAny(s string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(s, n) {
			return true
		}
	}
	return false
}
