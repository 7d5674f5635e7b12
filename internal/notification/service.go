package notification

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/GamaDigital-7l/Gama-todoist-sub000/internal/notification/domain"

	"cloud.google.com/go/pubsub"
	"github.com/rs/zerolog"
	"google.golang.org/api/option"
)

// Runner executes a notification pass
type Runner interface {
	RunNotificationPass(ctx context.Context, req domain.RunRequest) (domain.RunReport, error)
}

// Service listens on a Pub/Sub subscription for RunRequest messages, so a
// Cloud Scheduler job can trigger passes and briefs.
type Service struct {
	pubsubClient *pubsub.Client
	runner       Runner
	topicName    string
	subName      string
	runTimeout   time.Duration
	log          zerolog.Logger
}

// NewService creates the Pub/Sub client. topicName may be a full resource
// name; only its last segment is used.
func NewService(ctx context.Context, projectID, topicName, credentialsFile string, runner Runner, runTimeout time.Duration, log zerolog.Logger) (*Service, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}

	client, err := pubsub.NewClient(ctx, projectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create pubsub client: %w", err)
	}

	topicName = shortTopicName(topicName)
	if runTimeout <= 0 {
		runTimeout = time.Minute
	}
	return &Service{
		pubsubClient: client,
		runner:       runner,
		topicName:    topicName,
		subName:      topicName + "-sub", // Convention: topic-sub
		runTimeout:   runTimeout,
		log:          log,
	}, nil
}

func shortTopicName(name string) string {
	if parts := strings.Split(name, "/"); len(parts) > 1 {
		name = parts[len(parts)-1]
	}
	if name == "" {
		name = "notification-runs"
	}
	return name
}

// Start ensures the subscription exists and blocks receiving until ctx ends.
func (s *Service) Start(ctx context.Context) {
	log := s.log.With().Str("topic", s.topicName).Str("subscription", s.subName).Logger()
	log.Info().Msg("starting pubsub run listener")

	sub := s.pubsubClient.Subscription(s.subName)
	exists, err := sub.Exists(ctx)
	if err != nil {
		log.Error().Err(err).Msg("error checking subscription existence")
		return
	}

	if !exists {
		topic := s.pubsubClient.Topic(s.topicName)
		topicExists, err := topic.Exists(ctx)
		if err != nil {
			log.Error().Err(err).Msg("error checking topic existence")
			return
		}
		if !topicExists {
			log.Error().Msg("topic does not exist, cannot create subscription")
			return
		}

		sub, err = s.pubsubClient.CreateSubscription(ctx, s.subName, pubsub.SubscriptionConfig{
			Topic:       topic,
			AckDeadline: 60 * time.Second,
		})
		if err != nil {
			log.Error().Err(err).Msg("failed to create subscription")
			return
		}
		log.Info().Msg("created subscription")
	}

	// Passes are heavy; one at a time per instance.
	sub.ReceiveSettings.MaxOutstandingMessages = 1

	err = sub.Receive(ctx, func(ctx context.Context, msg *pubsub.Message) {
		s.handleMessage(ctx, msg.Data)
		msg.Ack()
	})
	if err != nil {
		log.Error().Err(err).Msg("error receiving messages")
	}
}

// Close releases the Pub/Sub client
func (s *Service) Close() error {
	return s.pubsubClient.Close()
}

// handleMessage runs the requested pass. Undecodable or invalid messages are
// dropped, since redelivery would never make them valid.
func (s *Service) handleMessage(ctx context.Context, data []byte) {
	req, err := DecodeRunRequest(data)
	if err != nil {
		s.log.Warn().Err(err).Str("data", string(data)).Msg("dropping invalid run request")
		return
	}

	ctx, cancel := context.WithTimeout(ctx, s.runTimeout)
	defer cancel()
	if _, err := s.runner.RunNotificationPass(ctx, req); err != nil {
		s.log.Error().Err(err).Str("user_id", req.UserID).Msg("run request failed")
	}
}

// DecodeRunRequest parses a message body. An empty body is a full reminder pass.
func DecodeRunRequest(data []byte) (domain.RunRequest, error) {
	var req domain.RunRequest
	if len(strings.TrimSpace(string(data))) == 0 {
		return req, nil
	}
	if err := json.Unmarshal(data, &req); err != nil {
		return req, fmt.Errorf("decode run request: %w", err)
	}
	if err := req.Validate(); err != nil {
		return req, err
	}
	return req, nil
}
