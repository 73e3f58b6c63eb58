package workflows

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

type SlackPayload struct {
	Text string `json:"text"`
}

// Alerter posts pipeline failures to a Slack incoming webhook. With no
// webhook configured every report is a no-op.
type Alerter struct {
	webhookURL string
	client     *http.Client
	log        zerolog.Logger
}

func NewAlerter(webhookURL string, log zerolog.Logger) *Alerter {
	return &Alerter{
		webhookURL: webhookURL,
		client:     &http.Client{Timeout: 5 * time.Second},
		log:        log,
	}
}

// ReportError posts an error message to the alerts channel.
func (a *Alerter) ReportError(ctx context.Context, err error) error {
	if err == nil || a == nil {
		return nil
	}
	if a.webhookURL == "" {
		a.log.Debug().Err(err).Msg("slack webhook not configured, alert dropped")
		return nil
	}

	message := fmt.Sprintf(
		":rotating_light: *Visibility Pipeline Error*\n"+
			"*Time:* %s\n"+
			"*Error:* ```%s```",
		time.Now().UTC().Format(time.RFC3339),
		err.Error(),
	)

	body, err := json.Marshal(SlackPayload{Text: message})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.webhookURL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("slack webhook returned status %d", resp.StatusCode)
	}
	return nil
}

// ReportRunFailure reports a failed visibility run with its context.
func (a *Alerter) ReportRunFailure(ctx context.Context, runID, businessName, stage string, err error) error {
	if err == nil {
		return nil
	}
	if businessName == "" {
		businessName = "unknown"
	}
	if stage == "" {
		stage = "unknown"
	}

	return a.ReportError(ctx, fmt.Errorf(
		"visibility run failed: run_id=%s business=%s stage=%s error=%v",
		runID, businessName, stage, err,
	))
}

// ReportDigestWarning reports an unhealthy share of failed runs.
func (a *Alerter) ReportDigestWarning(ctx context.Context, failed, total int) error {
	if failed == 0 {
		return nil
	}
	return a.ReportError(ctx, fmt.Errorf("weekly digest: %d of %d visibility runs failed", failed, total))
}
