package notifications

import (
	"context"
	"time"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"github.com/timeliness-app/activity-tracker/pkg/activities"
	"github.com/timeliness-app/activity-tracker/pkg/logger"
	"google.golang.org/api/option"
)

// MessagingClient is the part of the firebase messaging client the controller needs
type MessagingClient interface {
	Send(ctx context.Context, message *messaging.Message) (string, error)
}

// NotificationController sends sync messages to Firebase Cloud Messaging whenever an activity changes
type NotificationController struct {
	Logger  logger.Interface
	Client  MessagingClient
	Topic   string
	Timeout time.Duration
}

// NewNotificationController construct a NotificationController from a service account credentials file
func NewNotificationController(ctx context.Context, logger logger.Interface, projectID string, credentialsFile string,
	topic string) (*NotificationController, error) {
	config := &firebase.Config{ProjectID: projectID}
	app, err := firebase.NewApp(ctx, config, option.WithCredentialsFile(credentialsFile))
	if err != nil {
		return nil, err
	}

	client, err := app.Messaging(ctx)
	if err != nil {
		return nil, err
	}

	return &NotificationController{
		Logger:  logger,
		Client:  client,
		Topic:   topic,
		Timeout: 10 * time.Second,
	}, nil
}

// OnNotify gets called when an activity changes
func (n *NotificationController) OnNotify(event activities.ActivityEvent) {
	ctx, cancel := context.WithTimeout(context.Background(), n.Timeout)
	defer cancel()

	message := &messaging.Message{
		Data: map[string]string{
			"collapse_key": "sync",
			"event":        string(event.Type),
			"activityId":   event.ActivityID,
		},
		Topic: n.Topic,
	}

	_, err := n.Client.Send(ctx, message)
	if err != nil {
		n.Logger.Error("Could not send messaging request", err)
	}
}
