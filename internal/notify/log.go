package notify

import (
	"context"

	"go.uber.org/zap"
)

const StatusDryRun = "Not sent: dry run"

// Log only logs the rendered message. It never reports a delivery.
type Log struct {
	signature string
	logger    *zap.Logger
}

func NewLog(signature string, logger *zap.Logger) *Log {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Log{signature: signature, logger: logger}
}

func (l *Log) Notify(_ context.Context, summary Summary) (string, error) {
	msg, err := Render(summary, l.signature)
	if err != nil {
		return "", err
	}

	l.logger.Info("dry run notification",
		zap.Uint("candidate_id", summary.ID),
		zap.String("subject", msg.Subject),
	)
	l.logger.Debug(msg.Body)
	return StatusDryRun, nil
}
