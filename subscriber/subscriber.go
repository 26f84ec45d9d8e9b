package subscriber

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"betweenlines/analyzer"
	"betweenlines/ingest"
	valkeystore "betweenlines/valkey"

	"github.com/valkey-io/valkey-go"
	"go.uber.org/zap"
)

const AnalysisRequestedChannel = "analysis_requested"

// AnalysisRequestedPayload is published when a client picks the pair to
// analyze for an upload.
type AnalysisRequestedPayload struct {
	UploadID string `json:"upload_id"`
	You      string `json:"you"`
	Them     string `json:"them"`
}

// StartSubscriber consumes analysis requests from the pub/sub channel and
// runs them in the background. Blocks; run in a goroutine.
func StartSubscriber(logger *zap.Logger, ai analyzer.Completer) {
	sugar := logger.Sugar()
	sugar.Infow("Message subscriber started",
		"channel", AnalysisRequestedChannel)

	ctx := context.Background()
	vkClient := valkeystore.RawClient

	for {
		err := vkClient.Receive(ctx, vkClient.B().Subscribe().Channel(AnalysisRequestedChannel).Build(),
			func(msg valkey.PubSubMessage) {
				if strings.TrimSpace(msg.Message) == "" {
					sugar.Warn("Received empty message from pub/sub")
					return
				}
				go processAnalysisRequest(logger, ai, msg.Message)
			})
		if err != nil {
			sugar.Errorw("Subscription dropped",
				"channel", AnalysisRequestedChannel,
				"error", err)
		}
		time.Sleep(5 * time.Second)
	}
}

func processAnalysisRequest(logger *zap.Logger, ai analyzer.Completer, message string) {
	ctx := context.Background()
	sugar := logger.Sugar()

	var payload AnalysisRequestedPayload
	if err := json.Unmarshal([]byte(message), &payload); err != nil {
		sugar.Errorw("Malformed analysis request payload",
			"error", err)
		return
	}
	if payload.UploadID == "" {
		sugar.Error("Received analysis request without upload id")
		return
	}

	sugar.Infow("Processing analysis request",
		"upload", payload.UploadID)

	if _, err := ingest.Run(ctx, logger, ai, payload.UploadID, payload.You, payload.Them); err != nil {
		sugar.Errorw("Analysis process failed",
			"upload", payload.UploadID,
			"error", err)
		return
	}

	sugar.Infow("Analysis completed successfully",
		"upload", payload.UploadID)
}
