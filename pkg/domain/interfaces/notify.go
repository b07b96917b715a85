package interfaces

import (
	"context"

	"github.com/devmon-lab/chreos/pkg/domain/model"
)

// Notifier delivers debt assessment results to an external channel
// Implemented by service/notify using github.com/slack-go/slack
type Notifier interface {
	// NotifyResult posts one assessment result
	NotifyResult(ctx context.Context, result *model.TechnicalDebtResult) error
}
