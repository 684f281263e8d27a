// Package telegram sends evacuation alerts for completed assessments through
// the Telegram Bot API.
package telegram

import (
	"context"
	"fmt"
	"html"
	"log/slog"
	"strconv"
	"strings"
	"time"

	sharedretry "github.com/couchcryptid/storm-data-shared/retry"
	"github.com/dustin/go-humanize"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/couchcryptid/hazard-impact-service/internal/domain"
	"github.com/couchcryptid/hazard-impact-service/internal/observability"
)

// sender is the part of tgbotapi.BotAPI the notifier uses.
type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Notifier implements domain.Notifier. Results below the evacuation
// threshold and zero-impact results are skipped.
type Notifier struct {
	bot            sender
	chatID         int64
	minEvacuated   int64
	maxRetries     int
	retryDelayBase time.Duration
	logger         *slog.Logger
	metrics        *observability.Metrics
}

// Options tune delivery. Zero values fall back to defaults.
type Options struct {
	MinEvacuated   int64
	MaxRetries     int
	RetryDelayBase time.Duration
}

// NewNotifier connects to the Bot API with token and targets chatID.
func NewNotifier(token, chatID string, opts Options, logger *slog.Logger, metrics *observability.Metrics) (*Notifier, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("create telegram bot: %w", err)
	}
	return newNotifier(bot, chatID, opts, logger, metrics)
}

func newNotifier(bot sender, chatID string, opts Options, logger *slog.Logger, metrics *observability.Metrics) (*Notifier, error) {
	id, err := strconv.ParseInt(chatID, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid chat ID: %w", err)
	}
	if opts.MaxRetries <= 0 {
		opts.MaxRetries = 3
	}
	if opts.RetryDelayBase <= 0 {
		opts.RetryDelayBase = time.Second
	}
	if opts.MinEvacuated <= 0 {
		opts.MinEvacuated = 1
	}
	return &Notifier{
		bot:            bot,
		chatID:         id,
		minEvacuated:   opts.MinEvacuated,
		maxRetries:     opts.MaxRetries,
		retryDelayBase: opts.RetryDelayBase,
		logger:         logger,
		metrics:        metrics,
	}, nil
}

// NotifyEvacuation sends an alert for result, retrying with a linearly
// growing delay.
func (n *Notifier) NotifyEvacuation(ctx context.Context, result domain.AssessmentResult) error {
	if result.Status != domain.StatusImpact || result.Evacuated < n.minEvacuated {
		n.metrics.Notifications.WithLabelValues("skipped").Inc()
		return nil
	}

	msg := tgbotapi.NewMessage(n.chatID, formatMessage(result))
	msg.ParseMode = tgbotapi.ModeHTML

	var lastErr error
	for i := 0; i < n.maxRetries; i++ {
		_, err := n.bot.Send(msg)
		if err == nil {
			n.metrics.Notifications.WithLabelValues("sent").Inc()
			n.logger.Info("evacuation alert sent", "id", result.ID, "evacuated", result.Evacuated)
			return nil
		}
		lastErr = err
		n.logger.Warn("evacuation alert failed", "id", result.ID, "attempt", i+1, "error", err)
		if i == n.maxRetries-1 {
			break
		}
		if !sharedretry.SleepWithContext(ctx, n.retryDelayBase*time.Duration(i+1)) {
			n.metrics.Notifications.WithLabelValues("error").Inc()
			return ctx.Err()
		}
	}

	n.metrics.Notifications.WithLabelValues("error").Inc()
	return fmt.Errorf("send evacuation alert after %d attempts: %w", n.maxRetries, lastErr)
}

func formatMessage(r domain.AssessmentResult) string {
	var b strings.Builder
	b.WriteString("<b>Evacuation alert</b>\n")
	fmt.Fprintf(&b, "Assessment: <code>%s</code>\n", html.EscapeString(r.ID))
	if len(r.Thresholds) > 0 {
		fmt.Fprintf(&b, "Hazard at or above %.1f\n", r.Thresholds[len(r.Thresholds)-1])
	}
	fmt.Fprintf(&b, "People to evacuate: <b>%s</b> (rounded up to the nearest %s)\n",
		humanize.Comma(r.Evacuated), html.EscapeString(r.EvacuatedRounding))
	fmt.Fprintf(&b, "Total population: %s\n", humanize.Comma(r.Total))

	for _, g := range r.Needs {
		fmt.Fprintf(&b, "\n<i>Needs %s</i>\n", html.EscapeString(g.Frequency))
		for _, res := range g.Resources {
			fmt.Fprintf(&b, "%s: %s\n", html.EscapeString(res.TableName), humanize.Comma(res.Amount))
		}
	}
	fmt.Fprintf(&b, "\nAssessed %s", r.AssessedAt.UTC().Format("2006-01-02 15:04:05 MST"))
	return b.String()
}
