// internal/adapters/out/mail/ops_escalator.go
package mail

import (
	"context"
	"errors"
	"strings"
)

// OpsEscalator mails settlement incidents (captured payment without a
// recorded order, and similar) to the ops inbox.
type OpsEscalator struct {
	client *SendGridClient
	from   string
	to     string
}

func NewOpsEscalator(client *SendGridClient, from, to string) *OpsEscalator {
	return &OpsEscalator{client: client, from: strings.TrimSpace(from), to: strings.TrimSpace(to)}
}

func (e *OpsEscalator) Escalate(ctx context.Context, subject, body string) error {
	if e == nil || e.client == nil {
		return errors.New("ops_escalator: not configured")
	}
	if e.to == "" {
		return errors.New("ops_escalator: ops address not configured")
	}
	return e.client.Send(ctx, e.from, e.to, "[sodistore] "+subject, body)
}
