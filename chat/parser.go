package chat

import (
	"bufio"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"
)

// Message is a single parsed chat message.
type Message struct {
	Timestamp time.Time `json:"timestamp"`
	Sender    string    `json:"sender"`
	Text      string    `json:"text"`
}

// Transcript holds the parsed chat export.
type Transcript struct {
	Messages     []Message `json:"messages"`
	Participants []string  `json:"participants"`
}

// WhatsApp export line: dd/mm/yyyy, h:mm am/pm - sender: message
var lineRegex = regexp.MustCompile(`(?i)^(\d{1,2}/\d{1,2}/\d{4}), (\d{1,2}:\d{2}\s*[ap]m) - (.+?): (.+)$`)

// timestampRegex is the cheap sniff used to reject files that are not
// WhatsApp exports before doing a full parse.
var timestampRegex = regexp.MustCompile(`\d{1,2}/\d{1,2}/\d{4}, \d{1,2}:\d{2}`)

const timestampLayout = "2/1/2006, 3:04 pm"

// LooksLikeExport reports whether the given snippet contains a WhatsApp
// timestamp pattern. Callers pass the first KiB of an upload.
func LooksLikeExport(snippet string) bool {
	return timestampRegex.MatchString(snippet)
}

// Parse reads a WhatsApp chat export and returns the messages plus the
// sorted set of participants. Lines that do not match the export format
// (system notices, multi-line message continuations) are skipped.
// A chat with fewer than two participants is rejected.
func Parse(content string) (*Transcript, error) {
	var messages []Message
	seen := make(map[string]struct{})

	scanner := bufio.NewScanner(strings.NewReader(content))
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		m := lineRegex.FindStringSubmatch(line)
		if m == nil {
			continue
		}

		stamp := fmt.Sprintf("%s, %s", m[1], strings.ToLower(strings.TrimSpace(m[2])))
		ts, err := time.Parse(timestampLayout, stamp)
		if err != nil {
			continue
		}

		messages = append(messages, Message{
			Timestamp: ts,
			Sender:    m[3],
			Text:      m[4],
		})
		seen[m[3]] = struct{}{}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading chat export: %w", err)
	}

	participants := make([]string, 0, len(seen))
	for p := range seen {
		participants = append(participants, p)
	}
	sort.Strings(participants)

	if len(participants) < 2 {
		return nil, fmt.Errorf("chat must contain at least two participants")
	}

	return &Transcript{Messages: messages, Participants: participants}, nil
}

// HasParticipant reports whether name is one of the detected participants.
func (t *Transcript) HasParticipant(name string) bool {
	for _, p := range t.Participants {
		if p == name {
			return true
		}
	}
	return false
}
