package alerts

import (
	"context"
	"fmt"
	"time"

	"github.com/mymmrac/telego"

	"cybershield/internal/config"
	"cybershield/internal/logger"
	"cybershield/internal/models"
)

// TelegramNotifier pushes severe incidents to the admin chat so reviewers
// hear about them before opening the dashboard. Delivery is best-effort.
type TelegramNotifier struct {
	bot         *telego.Bot
	adminChatID int64
	minSeverity string
}

// NewTelegramNotifier creates the notifier, or returns nil when alerting is
// disabled in configuration
func NewTelegramNotifier(cfg *config.AlertsConfig) (*TelegramNotifier, error) {
	if !cfg.Enabled || cfg.BotToken == "" {
		logger.Infof("Telegram alerts disabled")
		return nil, nil
	}

	bot, err := telego.NewBot(cfg.BotToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create alert bot: %w", err)
	}

	return &TelegramNotifier{
		bot:         bot,
		adminChatID: cfg.AdminChatID,
		minSeverity: cfg.MinSeverity,
	}, nil
}

// NotifyIncident sends an alert for incidents at or above the configured
// minimum severity. Failures are logged only.
func (n *TelegramNotifier) NotifyIncident(userID int64, severity, analysis string, warningCount int) {
	if !models.SeverityAtLeast(severity, n.minSeverity) {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	text := fmt.Sprintf(
		"🚨 <b>CyberShield incident</b>\nUser: %d\nSeverity: %s\nWarnings: %d\nAnalysis: %s",
		userID, severity, warningCount, analysis,
	)

	_, err := n.bot.SendMessage(ctx, &telego.SendMessageParams{
		ChatID:    telego.ChatID{ID: n.adminChatID},
		Text:      text,
		ParseMode: "HTML",
	})
	if err != nil {
		logger.Warningf("Error sending incident alert for user %d: %v", userID, err)
	}
}
