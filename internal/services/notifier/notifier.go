// Package services содержит бизнес-логику отправки почтовых уведомлений
// об изменении цены подписки.
package services

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/magabrotheeeer/subscription-splitter/internal/lib/sl"
	"github.com/magabrotheeeer/subscription-splitter/internal/lib/smtp"
	"github.com/magabrotheeeer/subscription-splitter/internal/models"
)

// NotifierService читает события из очереди уведомлений и рассылает письма.
type NotifierService struct {
	transport smtp.TransportInterface
	log       *slog.Logger
}

// NewNotifierService создает новый экземпляр NotifierService.
func NewNotifierService(transport smtp.TransportInterface, log *slog.Logger) *NotifierService {
	return &NotifierService{
		transport: transport,
		log:       log,
	}
}

// HandlePriceChange обрабатывает сообщение об изменении цены подписки.
// Сообщения без адреса почты подтверждаются и пропускаются.
func (s *NotifierService) HandlePriceChange(body []byte) error {
	var event models.PriceChangeEvent
	if err := json.Unmarshal(body, &event); err != nil {
		s.log.Error("failed to unmarshal message body", sl.Err(err))
		return fmt.Errorf("error unmarshalling message: %w", err)
	}

	if event.Email == "" {
		s.log.Warn("price change event without email, skipping",
			slog.Int("subscription_id", event.SubscriptionID))
		return nil
	}

	to := []string{event.Email}
	subject := "Изменение цены подписки"
	bodyText := fmt.Sprintf("Здравствуйте, %s!\n\nЦена подписки %s изменилась с %.2f на %.2f.\n\nДоли участников пересчитаны автоматически.",
		event.Username, event.Name, event.OldPrice, event.NewPrice)

	return s.sendEmail(to, subject, bodyText)
}

func (s *NotifierService) sendEmail(to []string, subject, bodyText string) error {
	msg := strings.Join([]string{
		"From: " + s.transport.From(),
		"To: " + strings.Join(to, ";"),
		"Subject: " + subject,
		"MIME-Version: 1.0",
		"Content-Type: text/plain; charset=\"UTF-8\"",
		"",
		bodyText,
	}, "\r\n")

	client, err := s.transport.Connect()
	if err != nil {
		s.log.Error("failed to connect to SMTP server", sl.Err(err))
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	if err := client.Mail(s.transport.From()); err != nil {
		s.log.Error("failed to set MAIL FROM", slog.String("from", s.transport.From()), sl.Err(err))
		return err
	}
	for _, addr := range to {
		if err := client.Rcpt(addr); err != nil {
			s.log.Error("failed to set RCPT TO", slog.String("recipient", addr), sl.Err(err))
			return err
		}
	}

	wc, err := client.Data()
	if err != nil {
		s.log.Error("failed to get data writer", sl.Err(err))
		return err
	}
	if _, err = wc.Write([]byte(msg)); err != nil {
		s.log.Error("failed to write email body", sl.Err(err))
		return err
	}
	if err = wc.Close(); err != nil {
		s.log.Error("failed to close data writer", sl.Err(err))
		return err
	}
	if err = client.Quit(); err != nil {
		s.log.Error("failed to quit SMTP client", sl.Err(err))
		return err
	}

	s.log.Info("email sent successfully", slog.String("to", strings.Join(to, ";")))
	return nil
}
