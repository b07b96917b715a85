package notify

import (
	"context"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
	"github.com/slack-go/slack"

	"github.com/devmon-lab/chreos/pkg/domain/model"
)

// Service posts technical debt alerts to a Slack channel
type Service struct {
	client    *slack.Client
	channelID string
}

// New creates a new Slack notification service
func New(token, channelID string) *Service {
	return &Service{
		client:    slack.New(token),
		channelID: channelID,
	}
}

// NotifyResult posts a Block Kit alert for one analysis result
func (s *Service) NotifyResult(ctx context.Context, result *model.TechnicalDebtResult) error {
	if result == nil {
		return goerr.New("result is required")
	}

	blocks := BuildResultBlocks(result)
	_, _, err := s.client.PostMessageContext(ctx, s.channelID, slack.MsgOptionBlocks(blocks...))
	if err != nil {
		return goerr.Wrap(err, "failed to post debt alert to Slack",
			goerr.V("channel", s.channelID),
			goerr.V("organization", result.Organization),
			goerr.V("area", result.ProductArea))
	}

	ctxlog.From(ctx).Info("posted debt alert",
		"channel", s.channelID,
		"organization", result.Organization,
		"area", result.ProductArea,
		"category", result.Category,
	)
	return nil
}
