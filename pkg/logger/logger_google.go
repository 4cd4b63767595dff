package logger

import (
	"context"
	"os"

	"cloud.google.com/go/logging"
)

// GoogleCloudLogger sends structured entries to Google Cloud Logging
type GoogleCloudLogger struct {
	client *logging.Client
	logger *logging.Logger
}

// NewGoogleCloudLogger constructs a GoogleCloudLogger writing to logName in the given project
func NewGoogleCloudLogger(ctx context.Context, projectID string, logName string) (*GoogleCloudLogger, error) {
	client, err := logging.NewClient(ctx, projectID)
	if err != nil {
		return nil, err
	}

	return &GoogleCloudLogger{
		client: client,
		logger: client.Logger(logName),
	}, nil
}

func entry(severity logging.Severity, message string, err error) logging.Entry {
	payload := map[string]interface{}{
		"message": message,
	}

	if err != nil {
		payload["error"] = err.Error()
	}

	return logging.Entry{Severity: severity, Payload: payload}
}

// Error is for throwing a log message with status Error
func (l *GoogleCloudLogger) Error(message string, err error) {
	l.logger.Log(entry(logging.Error, message, err))
}

// Info is for throwing a log message with status Info
func (l *GoogleCloudLogger) Info(message string) {
	l.logger.Log(entry(logging.Info, message, nil))
}

// Debug is for throwing a log message with status Debug
func (l *GoogleCloudLogger) Debug(message string) {
	l.logger.Log(entry(logging.Debug, message, nil))
}

// Fatal flushes a Critical entry and exits
func (l *GoogleCloudLogger) Fatal(err error) {
	_ = l.logger.LogSync(context.Background(), entry(logging.Critical, "fatal", err))
	_ = l.client.Close()
	os.Exit(1)
}

// Close flushes buffered entries
func (l *GoogleCloudLogger) Close() error {
	return l.client.Close()
}
