// Package pubsub wraps the Google Cloud Pub/Sub v2 client used to relay order
// events to the back office.
package pubsub

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	gcppubsub "cloud.google.com/go/pubsub/v2"
	"cloud.google.com/go/pubsub/v2/apiv1/pubsubpb"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/mcbeauty/storefront-backend/pkg/config"
	"github.com/mcbeauty/storefront-backend/pkg/logger"
)

var (
	errProjectIDRequired = errors.New("gcp project id is required")
	errNotInitialized    = errors.New("pubsub client not initialized")
)

// Client hands out one long-lived publisher per topic. Publishers batch in
// the background, so they are stopped (and flushed) on Close.
type Client struct {
	client    *gcppubsub.Client
	projectID string
	cfg       config.PubSubConfig

	mu         sync.Mutex
	publishers map[string]*gcppubsub.Publisher
}

// NewClient connects and fails when the orders topic is missing. Topic
// creation belongs to infrastructure, not to the service.
func NewClient(ctx context.Context, gcp config.GCPConfig, cfg config.PubSubConfig, logg *logger.Logger) (*Client, error) {
	projectID := strings.TrimSpace(gcp.ProjectID)
	if projectID == "" {
		return nil, errProjectIDRequired
	}
	raw, err := gcppubsub.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("pubsub client: %w", err)
	}

	c := &Client{
		client:     raw,
		projectID:  projectID,
		cfg:        cfg,
		publishers: make(map[string]*gcppubsub.Publisher),
	}
	if err := c.topicExists(ctx, cfg.OrdersTopic); err != nil {
		_ = raw.Close()
		return nil, err
	}
	if logg != nil {
		logg.Info(logg.WithFields(ctx, map[string]any{"project": projectID, "topic": cfg.OrdersTopic}), "pubsub client ready")
	}
	return c, nil
}

func (c *Client) topicExists(ctx context.Context, topic string) error {
	name := TopicResourceName(c.projectID, topic)
	if name == "" {
		return fmt.Errorf("topic %q is not configured", topic)
	}
	_, err := c.client.TopicAdminClient.GetTopic(ctx, &pubsubpb.GetTopicRequest{Topic: name})
	switch status.Code(err) {
	case codes.OK:
		return nil
	case codes.NotFound:
		return fmt.Errorf("topic %s does not exist", name)
	default:
		return fmt.Errorf("get topic %s: %w", name, err)
	}
}

// Publisher returns the shared publisher for topic, or nil when the client
// or topic name is unusable.
func (c *Client) Publisher(topic string) *gcppubsub.Publisher {
	if c == nil || c.client == nil {
		return nil
	}
	name := TopicResourceName(c.projectID, topic)
	if name == "" {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if p, ok := c.publishers[name]; ok {
		return p
	}
	p := c.client.Publisher(name)
	if c.cfg.PublishDelay > 0 {
		p.PublishSettings.DelayThreshold = c.cfg.PublishDelay
	}
	c.publishers[name] = p
	return p
}

// Ping checks the orders topic is still reachable.
func (c *Client) Ping(ctx context.Context) error {
	if c == nil || c.client == nil {
		return errNotInitialized
	}
	return c.topicExists(ctx, c.cfg.OrdersTopic)
}

// Close flushes every publisher before releasing the connection.
func (c *Client) Close() error {
	if c == nil || c.client == nil {
		return nil
	}
	c.mu.Lock()
	for name, p := range c.publishers {
		p.Stop()
		delete(c.publishers, name)
	}
	c.mu.Unlock()
	return c.client.Close()
}

// TopicResourceName expands a topic ID into projects/<p>/topics/<id>. Fully
// qualified names pass through; anything unusable yields "".
func TopicResourceName(projectID, topic string) string {
	topic = strings.TrimSpace(topic)
	if strings.HasPrefix(topic, "projects/") && strings.Contains(topic, "/topics/") {
		return topic
	}
	projectID = strings.TrimSpace(projectID)
	if topic == "" || projectID == "" {
		return ""
	}
	return "projects/" + projectID + "/topics/" + topic
}
