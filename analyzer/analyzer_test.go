package analyzer

import (
	"context"
	"testing"
	"time"

	"betweenlines/chat"

	"go.uber.org/zap"
)

func tl(t *testing.T) *zap.Logger {
	cfg := zap.NewProductionConfig()
	l, err := cfg.Build()
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	return l
}

func testTranscript() *chat.Transcript {
	base := time.Date(2024, 3, 12, 9, 0, 0, 0, time.UTC)
	return &chat.Transcript{
		Messages: []chat.Message{
			msg(base, "Alice", "how was your day?"),
			msg(base.Add(time.Minute), "Bob", "haha good lol"),
			msg(base.Add(2*time.Minute), "Alice", "I love you ❤️"),
			msg(base.Add(9*time.Hour), "Bob", "hey, long day at work"),
		},
		Participants: []string{"Alice", "Bob"},
	}
}

func TestAnalyzeHeuristicOnly(t *testing.T) {
	result, err := Analyze(context.Background(), tl(t), nil, testTranscript(), "up-1", "Alice", "Bob")
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if result.AIScored {
		t.Fatal("expected heuristic-only result")
	}
	if result.MessageCount != 4 {
		t.Fatalf("message count: got %d", result.MessageCount)
	}
	if len(result.Roles) != len(Roles) {
		t.Fatalf("expected %d roles, got %d", len(Roles), len(result.Roles))
	}

	for _, role := range result.Roles {
		if role.YouScore+role.ThemScore > 0 {
			sum := role.YouPct + role.ThemPct
			if sum < 99.9 || sum > 100.1 {
				t.Fatalf("role %s percentages do not sum to 100: %.1f", role.Key, sum)
			}
		}
		// static descriptions stand in without an AI client
		if role.Explanation == "" {
			t.Fatalf("role %s missing explanation", role.Key)
		}
	}
}

func TestAnalyzeWithAI(t *testing.T) {
	stub := &stubCompleter{response: "Alice: starter=4, snubber=0, romantic=2, trouble=0, fault=0\nBob: starter=1, snubber=2, romantic=0, trouble=1, fault=0"}
	result, err := Analyze(context.Background(), tl(t), stub, testTranscript(), "up-2", "Alice", "Bob")
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if !result.AIScored {
		t.Fatal("expected AI-scored result")
	}

	var starter RoleResult
	for _, role := range result.Roles {
		if role.Key == "starter" {
			starter = role
		}
	}
	if starter.YouScore != 4 || starter.ThemScore != 1 {
		t.Fatalf("AI starter counts not applied: %+v", starter)
	}
	if starter.YouPct != 80.0 || starter.ThemPct != 20.0 {
		t.Fatalf("starter split: got %.1f/%.1f", starter.YouPct, starter.ThemPct)
	}

	// one scoring call plus one explanation call per role
	if len(stub.prompts) != 1+len(Roles) {
		t.Fatalf("expected %d AI calls, got %d", 1+len(Roles), len(stub.prompts))
	}
}

func TestAnalyzeRejectsInvalidPair(t *testing.T) {
	cases := [][2]string{
		{"Alice", "Alice"},
		{"Alice", "Mallory"},
		{"", "Bob"},
	}
	for _, pair := range cases {
		if _, err := Analyze(context.Background(), tl(t), nil, testTranscript(), "up-3", pair[0], pair[1]); err == nil {
			t.Fatalf("expected error for pair %q/%q", pair[0], pair[1])
		}
	}
}

func TestSplitPct(t *testing.T) {
	you, them := splitPct(0, 0)
	if you != 0 || them != 0 {
		t.Fatalf("zero counts: got %.1f/%.1f", you, them)
	}
	you, them = splitPct(1, 2)
	if you != 33.3 || them != 66.7 {
		t.Fatalf("1/2 split: got %.1f/%.1f", you, them)
	}
}
