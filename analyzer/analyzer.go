package analyzer

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"betweenlines/chat"
	"betweenlines/utils"

	"go.uber.org/zap"
)

// Analyze scores the conversation between you and them, generates per-role
// explanations, and returns the percentage split for each role.
//
// The heuristic scorer always runs; when the AI client is usable its counts
// overlay the AI-scored roles. AI failures never fail the analysis.
func Analyze(ctx context.Context, logger *zap.Logger, ai Completer, transcript *chat.Transcript, uploadID, you, them string) (*Result, error) {
	sugar := logger.Sugar()

	if !transcript.HasParticipant(you) || !transcript.HasParticipant(them) || you == them {
		return nil, fmt.Errorf("invalid participant selection")
	}

	scores := HeuristicScores(transcript.Messages, you, them)

	aiUsed := false
	if ai != nil {
		aiUsed = aiScores(ctx, ai, transcript.Messages, you, them, scores)
	}
	if !aiUsed {
		utils.GroqFallbackTotal.Add(1)
		sugar.Infow("AI scoring unavailable, using heuristic scores",
			"upload", uploadID)
	}

	explanations := roleExplanations(ctx, logger, ai, transcript.Messages)

	result := &Result{
		UploadID:     uploadID,
		You:          you,
		Them:         them,
		MessageCount: len(transcript.Messages),
		AIScored:     aiUsed,
		GeneratedAt:  time.Now().UTC(),
	}

	for _, role := range Roles {
		youScore := scores[you][role.Key]
		themScore := scores[them][role.Key]
		youPct, themPct := splitPct(youScore, themScore)
		result.Roles = append(result.Roles, RoleResult{
			Key:         role.Key,
			Name:        role.Name,
			YouPct:      youPct,
			ThemPct:     themPct,
			YouScore:    youScore,
			ThemScore:   themScore,
			Explanation: explanations[role.Key],
		})
	}

	sugar.Infow("Chat analysis completed",
		"upload", uploadID,
		"messages", result.MessageCount,
		"ai_scored", aiUsed)

	return result, nil
}

// splitPct turns a pair of raw counts into percentages rounded to one
// decimal place. Both are zero when neither person scored.
func splitPct(you, them int) (float64, float64) {
	total := you + them
	if total == 0 {
		return 0, 0
	}
	youPct := math.Round(float64(you)/float64(total)*1000) / 10
	themPct := math.Round(float64(them)/float64(total)*1000) / 10
	return youPct, themPct
}

// roleExplanations asks the AI for a one-line explanation per role, seeded
// with up to three sample messages that matched the role. The static role
// description stands in whenever the AI is unavailable.
func roleExplanations(ctx context.Context, logger *zap.Logger, ai Completer, messages []chat.Message) map[string]string {
	explanations := make(map[string]string, len(Roles))
	for _, role := range Roles {
		explanations[role.Key] = role.Description
	}
	if ai == nil {
		return explanations
	}

	for _, role := range Roles {
		samples := sampleMessages(messages, role.Key, 3)
		prompt := fmt.Sprintf("Analyze these messages for the role '%s'. Provide a one-line human-readable explanation: %s",
			role.Description, strings.Join(samples, " | "))

		text, err := ai.Complete(ctx, prompt, 100)
		if err != nil {
			logger.Debug("explanation generation failed",
				zap.String("role", role.Key), zap.Error(err))
			continue
		}
		if text = strings.TrimSpace(text); text != "" {
			explanations[role.Key] = text
		}
	}
	return explanations
}

// sampleMessages picks up to n messages that look relevant to a role.
func sampleMessages(messages []chat.Message, roleKey string, n int) []string {
	var samples []string
	for _, msg := range messages {
		if len(samples) >= n {
			break
		}
		lower := strings.ToLower(msg.Text)
		match := false
		switch roleKey {
		case "starter", "snubber":
			match = true
		case "romantic":
			match = strings.Contains(lower, "love") || strings.Contains(msg.Text, "❤️")
		case "trouble":
			match = strings.Contains(lower, "sure")
		case "fault":
			match = strings.Contains(lower, "you always") || strings.Contains(lower, "you never")
		case "listener":
			match = strings.Contains(msg.Text, "?")
		case "joker":
			match = containsAny(lower, jokerMarkers)
		}
		if match {
			samples = append(samples, msg.Text)
		}
	}
	return samples
}
