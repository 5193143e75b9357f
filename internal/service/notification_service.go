package service

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/helpdesk-kit/ticketd/internal/config"
	"github.com/helpdesk-kit/ticketd/internal/events"
)

// NotificationService fans domain events out to notification channels:
// structured log lines always, a webhook stub and a Telegram chat when
// configured.
type NotificationService struct {
	dispatcher events.Dispatcher
	logger     *zap.Logger
	cfg        config.NotificationConfig
	bot        *tgbotapi.BotAPI
}

// NewNotificationService creates the service. A Telegram bot is connected
// only when a token is configured; failure to connect downgrades to
// log-only delivery.
func NewNotificationService(dispatcher events.Dispatcher, logger *zap.Logger, cfg config.NotificationConfig) *NotificationService {
	svc := &NotificationService{
		dispatcher: dispatcher,
		logger:     logger,
		cfg:        cfg,
	}
	if cfg.TelegramToken != "" {
		bot, err := tgbotapi.NewBotAPI(cfg.TelegramToken)
		if err != nil {
			logger.Warn("telegram bot unavailable", zap.Error(err))
		} else {
			svc.bot = bot
			logger.Info("telegram notifications enabled", zap.String("account", bot.Self.UserName))
		}
	}
	return svc
}

// RegisterHandlers subscribes to events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventTicketCreated, n.handleTicketCreated)
	n.dispatcher.Subscribe(events.EventTicketStatusChanged, n.handleTicketStatusChanged)
	n.dispatcher.Subscribe(events.EventTicketPriorityChanged, n.handleTicketPriorityChanged)
	n.dispatcher.Subscribe(events.EventTicketAssigned, n.handleTicketAssigned)
	n.dispatcher.Subscribe(events.EventTicketFirstResponse, n.handleFirstResponse)
}

func (n *NotificationService) handleTicketCreated(ctx context.Context, event events.Event) error {
	n.logger.Info("TicketCreated", zap.String("ticket", event.TicketNumber), zap.Any("payload", event.Payload))
	n.sendWebhookStub(ctx, event)
	if payload, ok := event.Payload.(events.TicketCreatedPayload); ok {
		n.sendTelegram(fmt.Sprintf("🎫 %s created (%s): %s", event.TicketNumber, payload.Priority, payload.Subject))
	}
	return nil
}

func (n *NotificationService) handleTicketStatusChanged(ctx context.Context, event events.Event) error {
	n.logger.Info("TicketStatusChanged", zap.String("ticket", event.TicketNumber), zap.Any("payload", event.Payload))
	n.sendWebhookStub(ctx, event)
	if payload, ok := event.Payload.(events.TicketStatusChangedPayload); ok {
		n.sendTelegram(fmt.Sprintf("🔄 %s: %s → %s", event.TicketNumber, payload.OldStatus, payload.NewStatus))
	}
	return nil
}

func (n *NotificationService) handleTicketPriorityChanged(ctx context.Context, event events.Event) error {
	n.logger.Info("TicketPriorityChanged", zap.String("ticket", event.TicketNumber), zap.Any("payload", event.Payload))
	n.sendWebhookStub(ctx, event)
	return nil
}

func (n *NotificationService) handleTicketAssigned(ctx context.Context, event events.Event) error {
	n.logger.Info("TicketAssigned", zap.String("ticket", event.TicketNumber), zap.Any("payload", event.Payload))
	n.sendWebhookStub(ctx, event)
	return nil
}

func (n *NotificationService) handleFirstResponse(ctx context.Context, event events.Event) error {
	n.logger.Info("TicketFirstResponse", zap.String("ticket", event.TicketNumber), zap.Any("payload", event.Payload))
	return nil
}

func (n *NotificationService) sendWebhookStub(_ context.Context, event events.Event) {
	if n.cfg.WebhookURL == "" {
		return
	}
	n.logger.Debug("webhook notification",
		zap.String("url", n.cfg.WebhookURL),
		zap.String("event", string(event.Type)),
		zap.String("ticket", event.TicketNumber),
	)
}

func (n *NotificationService) sendTelegram(text string) {
	if n.bot == nil || n.cfg.TelegramChatID == 0 {
		return
	}
	if _, err := n.bot.Send(tgbotapi.NewMessage(n.cfg.TelegramChatID, text)); err != nil {
		n.logger.Warn("telegram send failed", zap.Error(err))
	}
}
