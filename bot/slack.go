// Package bot is the optional Slack front end: chat exports shared in
// Slack flow through the same ingest and analysis pipeline as HTTP
// uploads.
package bot

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"betweenlines/analyzer"
	"betweenlines/ingest"

	"github.com/slack-go/slack"
	"github.com/slack-go/slack/slackevents"
	"github.com/slack-go/slack/socketmode"
	"go.uber.org/zap"
)

const slashCommand = "/betweenlines"

// StartSlackBot connects via Socket Mode and blocks until the connection
// dies. Callers run it in a goroutine.
func StartSlackBot(logger *zap.Logger, ai analyzer.Completer, botToken, appToken string) error {
	api := slack.New(botToken, slack.OptionAppLevelToken(appToken))
	client := socketmode.New(api)
	sugar := logger.Sugar()

	// With SLACK_REPORT_CHANNEL set, only files shared in that channel
	// are ingested; unset means any channel the bot can see.
	reportChannel := os.Getenv("SLACK_REPORT_CHANNEL")

	go func() {
		for evt := range client.Events {
			switch evt.Type {
			case socketmode.EventTypeSlashCommand:
				client.Ack(*evt.Request)
				cmd, ok := evt.Data.(slack.SlashCommand)
				if !ok {
					continue
				}
				sugar.Infow("Slash command received",
					"command", cmd.Command,
					"user", cmd.UserID)
				go handleSlashCommand(logger, ai, api, cmd)
			case socketmode.EventTypeEventsAPI:
				client.Ack(*evt.Request)
				eventsAPIEvent, ok := evt.Data.(slackevents.EventsAPIEvent)
				if !ok {
					continue
				}
				go handleEventsAPI(logger, api, reportChannel, eventsAPIEvent)
			}
		}
	}()

	sugar.Info("Slack bot connected via Socket Mode")
	return client.Run()
}

func handleEventsAPI(logger *zap.Logger, api *slack.Client, reportChannel string, event slackevents.EventsAPIEvent) {
	if event.Type != slackevents.CallbackEvent {
		return
	}
	switch ev := event.InnerEvent.Data.(type) {
	case *slackevents.FileSharedEvent:
		handleFileShared(logger, api, reportChannel, ev)
	}
}

// handleFileShared ingests a shared .txt/.zip chat export and replies
// with the upload id and detected participants.
func handleFileShared(logger *zap.Logger, api *slack.Client, reportChannel string, ev *slackevents.FileSharedEvent) {
	sugar := logger.Sugar()

	if !channelAllowed(reportChannel, ev.ChannelID) {
		return
	}

	file, _, _, err := api.GetFileInfo(ev.FileID, 0, 0)
	if err != nil {
		sugar.Errorw("Failed to fetch shared file info",
			"file", ev.FileID,
			"error", err)
		return
	}

	ext := strings.ToLower(filepath.Ext(file.Name))
	if ext != ".txt" && ext != ".zip" {
		return
	}
	if file.Size > ingest.MaxUploadBytes {
		postMessage(api, ev.ChannelID, "That file is too large, max 10MB allowed.")
		return
	}

	var buf bytes.Buffer
	if err := api.GetFile(file.URLPrivateDownload, &buf); err != nil {
		sugar.Errorw("Failed to download shared file",
			"file", ev.FileID,
			"error", err)
		return
	}

	upload, _, err := ingest.FromBytes(context.Background(), logger, file.Name, buf.Bytes())
	if err != nil {
		postMessage(api, ev.ChannelID, fmt.Sprintf("Could not read that chat export: %v", err))
		return
	}

	postMessage(api, ev.ChannelID, fmt.Sprintf(
		"Got it! Upload `%s` with participants: %s\nRun `%s %s <you> <them>` to analyze.",
		upload.ID, strings.Join(upload.Participants, ", "), slashCommand, upload.ID))
}

// handleSlashCommand runs "/betweenlines <upload-id> <you> <them>" and
// posts the role split back to the channel.
func handleSlashCommand(logger *zap.Logger, ai analyzer.Completer, api *slack.Client, cmd slack.SlashCommand) {
	if cmd.Command != slashCommand {
		return
	}
	sugar := logger.Sugar()

	args := splitArgs(cmd.Text)
	if len(args) != 3 {
		postEphemeral(api, cmd, fmt.Sprintf("Usage: %s <upload-id> <you> <them>\nNames with spaces go in quotes.", slashCommand))
		return
	}

	result, err := ingest.Run(context.Background(), logger, ai, args[0], args[1], args[2])
	if err != nil {
		sugar.Errorw("Bot-triggered analysis failed",
			"upload", args[0],
			"error", err)
		postEphemeral(api, cmd, fmt.Sprintf("Analysis failed: %v", err))
		return
	}

	postMessage(api, cmd.ChannelID, formatResult(result))
}

func formatResult(result *analyzer.Result) string {
	var b strings.Builder
	fmt.Fprintf(&b, "*BetweenLines: %s vs %s* (%d messages)\n", result.You, result.Them, result.MessageCount)
	for _, role := range result.Roles {
		fmt.Fprintf(&b, "• *%s*: %s %.1f%% / %s %.1f%%\n", role.Name, result.You, role.YouPct, result.Them, role.ThemPct)
	}
	return b.String()
}

// channelAllowed reports whether a file event from the given channel
// should be ingested.
func channelAllowed(configured, channel string) bool {
	return configured == "" || configured == channel
}

// splitArgs splits on whitespace but keeps double-quoted names together,
// since WhatsApp sender names usually contain spaces.
func splitArgs(text string) []string {
	var args []string
	var current strings.Builder
	inQuotes := false
	for _, r := range strings.TrimSpace(text) {
		switch {
		case r == '"':
			inQuotes = !inQuotes
		case r == ' ' && !inQuotes:
			if current.Len() > 0 {
				args = append(args, current.String())
				current.Reset()
			}
		default:
			current.WriteRune(r)
		}
	}
	if current.Len() > 0 {
		args = append(args, current.String())
	}
	return args
}

func postMessage(api *slack.Client, channel, text string) {
	_, _, _ = api.PostMessage(channel, slack.MsgOptionText(text, false))
}

func postEphemeral(api *slack.Client, cmd slack.SlashCommand, text string) {
	_, _, _ = api.PostMessage(cmd.ChannelID,
		slack.MsgOptionText(text, false),
		slack.MsgOptionPostEphemeral(cmd.UserID))
}
