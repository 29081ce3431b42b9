package config

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"sync"
	"time"

	"cloud.google.com/go/pubsub"
	"google.golang.org/api/option"
)

// ExpenseStatusMessage is published after a commit that changed an expense status.
type ExpenseStatusMessage struct {
	Event          string    `json:"event"`
	ExpenseId      int       `json:"expense_id"`
	ProtocolNumber string    `json:"protocol_number"`
	OldStatus      string    `json:"old_status"`
	NewStatus      string    `json:"new_status"`
	Trigger        string    `json:"trigger"`
	OccurredAt     time.Time `json:"occurred_at"`
	CorrelationId  string    `json:"correlation_id"`
}

const EventExpenseStatusChanged = "expense.status_changed"

var (
	pubsubClient   *pubsub.Client
	pubsubClientMu sync.Mutex
	pubsubSettings PubSubSettings
	// publisher for the status topic, reused across messages
	statusTopic *pubsub.Topic
)

// ConfigurePubSub stores the publisher settings; an empty topic disables publishing.
func ConfigurePubSub(s PubSubSettings) {
	pubsubClientMu.Lock()
	defer pubsubClientMu.Unlock()
	pubsubSettings = s
}

func PubSubEnabled() bool {
	pubsubClientMu.Lock()
	defer pubsubClientMu.Unlock()
	return pubsubSettings.ExpenseStatusTopic != ""
}

func getPubSubProjectID(s PubSubSettings) string {
	if s.ProjectID != "" {
		return s.ProjectID
	}
	// Cloud Run/Cloud Functions often set this.
	if v := os.Getenv("GOOGLE_CLOUD_PROJECT"); v != "" {
		return v
	}
	return os.Getenv("GCP_PROJECT")
}

func getPubSubClient(ctx context.Context) (*pubsub.Client, error) {
	pubsubClientMu.Lock()
	if pubsubClient != nil {
		c := pubsubClient
		pubsubClientMu.Unlock()
		return c, nil
	}
	s := pubsubSettings
	pubsubClientMu.Unlock()

	projectID := getPubSubProjectID(s)
	if projectID == "" {
		return nil, errors.New("PUBSUB_PROJECT_ID/GOOGLE_CLOUD_PROJECT not set")
	}

	var (
		c   *pubsub.Client
		err error
	)
	if s.CredentialsJSON != "" {
		c, err = pubsub.NewClient(ctx, projectID, option.WithCredentialsJSON([]byte(s.CredentialsJSON)))
	} else {
		// Application Default Credentials
		c, err = pubsub.NewClient(ctx, projectID)
	}
	if err != nil {
		return nil, err
	}

	pubsubClientMu.Lock()
	defer pubsubClientMu.Unlock()
	if pubsubClient == nil {
		pubsubClient = c
	} else {
		// Another goroutine won the race; close ours.
		_ = c.Close()
	}
	log.Printf("pubsub client ready (project_id=%s)", projectID)
	return pubsubClient, nil
}

func CreateTopicIfNotExists(ctx context.Context, topic string) (*pubsub.Topic, error) {
	if topic == "" {
		return nil, errors.New("topic is required")
	}
	c, err := getPubSubClient(ctx)
	if err != nil {
		return nil, err
	}
	t := c.Topic(topic)
	ok, err := t.Exists(ctx)
	if err != nil {
		return nil, err
	}
	if ok {
		return t, nil
	}
	t, err = c.CreateTopic(ctx, topic)
	if err != nil {
		return nil, fmt.Errorf("create topic %q: %w", topic, err)
	}
	return t, nil
}

// PublishExpenseStatusChanged publishes and returns the server-assigned message ID.
// It is a no-op returning "" when no topic is configured.
func PublishExpenseStatusChanged(ctx context.Context, msg ExpenseStatusMessage) (string, error) {
	pubsubClientMu.Lock()
	topicName := pubsubSettings.ExpenseStatusTopic
	pubsubClientMu.Unlock()
	if topicName == "" {
		return "", nil
	}

	topic, err := getStatusTopic(ctx, topicName)
	if err != nil {
		return "", err
	}
	msgJSON, err := json.Marshal(msg)
	if err != nil {
		return "", err
	}
	result := topic.Publish(ctx, &pubsub.Message{
		Data: msgJSON,
		Attributes: map[string]string{
			"event":      msg.Event,
			"expense_id": fmt.Sprint(msg.ExpenseId),
		},
	})
	return result.Get(ctx)
}

func getStatusTopic(ctx context.Context, topicName string) (*pubsub.Topic, error) {
	client, err := getPubSubClient(ctx)
	if err != nil {
		return nil, err
	}
	pubsubClientMu.Lock()
	defer pubsubClientMu.Unlock()
	if statusTopic == nil || statusTopic.ID() != topicName {
		if statusTopic != nil {
			statusTopic.Stop()
		}
		statusTopic = client.Topic(topicName)
	}
	return statusTopic, nil
}

// ClosePubSub flushes the status publisher and closes the client.
func ClosePubSub() {
	pubsubClientMu.Lock()
	defer pubsubClientMu.Unlock()
	if statusTopic != nil {
		statusTopic.Stop()
		statusTopic = nil
	}
	if pubsubClient != nil {
		_ = pubsubClient.Close()
		pubsubClient = nil
	}
}
