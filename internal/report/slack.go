package report

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/go-logr/logr"
)

const maxErrorBody = 512

// SlackNotifier posts alerts to a Slack incoming webhook, once per channel.
type SlackNotifier struct {
	webhookURL string
	httpClient *http.Client
	logger     logr.Logger
}

// NewSlackNotifier creates a SlackNotifier. A nil httpClient uses a client
// with a 30 second timeout.
func NewSlackNotifier(webhookURL string, httpClient *http.Client, logger logr.Logger) *SlackNotifier {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &SlackNotifier{webhookURL: webhookURL, httpClient: httpClient, logger: logger}
}

type slackMessage struct {
	Text    string `json:"text"`
	Channel string `json:"channel"`
}

// Notify implements Notifier. A failure for one channel does not stop the others.
func (s *SlackNotifier) Notify(ctx context.Context, a Alert) error {
	var errs []error
	for _, channel := range a.Channels {
		if err := s.send(ctx, channel, a.Message); err != nil {
			s.logger.Error(nil, err.Error())
			errs = append(errs, err)
			continue
		}
		s.logger.V(1).Info(fmt.Sprintf("Successfully sent slack message to channel=%s.", channel))
	}
	return errors.Join(errs...)
}

func (s *SlackNotifier) send(ctx context.Context, channel, text string) error {
	body, err := json.Marshal(slackMessage{Text: text, Channel: channel})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.webhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build slack request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send slack message to channel=%s: %w", channel, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return fmt.Errorf("failed to send slack message to channel=%s, status_code=%d, error_message=%s",
			channel, resp.StatusCode, msg)
	}
	return nil
}
