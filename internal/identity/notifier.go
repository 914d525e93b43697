// Copyright (c) 2026 Hireline. All rights reserved.

package identity

import (
	"context"
	"log/slog"
)

// LogNotifier is the development stand-in for the outbound mail subsystem.
// Production wiring replaces it with the real delivery collaborator.
type LogNotifier struct {
	logger *slog.Logger
}

// NewLogNotifier creates a Notifier that only records the hand-off.
func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

var _ Notifier = (*LogNotifier)(nil)

// SendPasswordReset logs the hand-off. The token itself is only emitted at
// Debug level so production logs never carry live credentials.
func (notifier *LogNotifier) SendPasswordReset(ctx context.Context, email, token string) error {
	notifier.logger.InfoContext(ctx, "password_reset_token_issued",
		slog.String("email", email),
	)
	notifier.logger.DebugContext(ctx, "password_reset_token_value",
		slog.String("token", token),
	)
	return nil
}
