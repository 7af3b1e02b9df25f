// Package services содержит обработчики очередей уведомлений, отправляющие письма по SMTP.
package services

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/magabrotheeeer/parking-manager/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/parking-manager/internal/lib/sl"
	"github.com/magabrotheeeer/parking-manager/internal/lib/smtp"
	"github.com/magabrotheeeer/parking-manager/internal/models"
)

// SenderService превращает сообщения из очередей в письма.
type SenderService struct {
	transport smtp.TransportInterface
	log       *slog.Logger
}

// NewSenderService создает новый экземпляр SenderService.
func NewSenderService(log *slog.Logger, transport smtp.TransportInterface) *SenderService {
	return &SenderService{
		transport: transport,
		log:       log,
	}
}

// SendContractAlert отправляет клиенту письмо о скором или наступившем окончании контракта.
func (s *SenderService) SendContractAlert(body []byte) error {
	const op = "sender.SendContractAlert"
	var message models.AlertNotification
	if err := json.Unmarshal(body, &message); err != nil {
		s.log.Error("failed to unmarshal message body", slog.String("op", op), sl.Err(err))
		return fmt.Errorf("%s: error unmarshalling message: %w: %w", op, rabbitmq.ErrPermanent, err)
	}
	if message.ClientEmail == "" {
		return fmt.Errorf("%s: alert %s has no recipient: %w", op, message.AlertID, rabbitmq.ErrPermanent)
	}

	subject := "Aviso de contrato de parqueadero"
	if message.AlertType == models.AlertExpired {
		subject = "Su contrato de parqueadero ha vencido"
	}
	bodyText := fmt.Sprintf("Hola, %s.\r\n\r\n%s\r\n\r\nSede: %s\r\nFecha de fin: %s\r\n",
		message.ClientName, message.Message, message.SiteName, message.EndDate.Format("2006-01-02"))

	return s.sendEmail([]string{message.ClientEmail}, subject, bodyText)
}

// SendPasswordReset отправляет одноразовый код восстановления пароля.
func (s *SenderService) SendPasswordReset(body []byte) error {
	const op = "sender.SendPasswordReset"
	var message models.PasswordResetNotification
	if err := json.Unmarshal(body, &message); err != nil {
		s.log.Error("failed to unmarshal message body", slog.String("op", op), sl.Err(err))
		return fmt.Errorf("%s: error unmarshalling message: %w: %w", op, rabbitmq.ErrPermanent, err)
	}

	if message.Email == "" {
		return fmt.Errorf("%s: reset code has no recipient: %w", op, rabbitmq.ErrPermanent)
	}

	subject := "Código de recuperación de contraseña"
	bodyText := fmt.Sprintf("Hola, %s.\r\n\r\nSu código de recuperación es: %s\r\nVálido hasta: %s UTC\r\n",
		message.FullName, message.Code, message.ExpiresAt.UTC().Format("2006-01-02 15:04"))

	return s.sendEmail([]string{message.Email}, subject, bodyText)
}

func (s *SenderService) sendEmail(to []string, subject, bodyText string) error {
	const op = "sender.sendEmail"
	log := s.log.With(slog.String("op", op))
	from := s.transport.GetSMTPUser()

	msg := strings.Join([]string{
		"From: " + from,
		"To: " + strings.Join(to, ";"),
		"Subject: " + subject,
		"MIME-Version: 1.0",
		"Content-Type: text/plain; charset=\"UTF-8\"",
		"",
		bodyText,
	}, "\r\n")

	client, err := s.transport.Connect()
	if err != nil {
		log.Error("failed to connect to SMTP server", sl.Err(err))
		return fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		if err := client.Close(); err != nil {
			log.Debug("smtp client already closed", sl.Err(err))
		}
	}()

	if err := client.Mail(from); err != nil {
		log.Error("failed to set MAIL FROM", slog.String("from", from), sl.Err(err))
		return fmt.Errorf("%s: %w", op, err)
	}
	for _, addr := range to {
		if err := client.Rcpt(addr); err != nil {
			log.Error("failed to set RCPT TO", slog.String("recipient", addr), sl.Err(err))
			return fmt.Errorf("%s: %w", op, err)
		}
	}

	wc, err := client.Data()
	if err != nil {
		log.Error("failed to get data writer", sl.Err(err))
		return fmt.Errorf("%s: %w", op, err)
	}
	if _, err := wc.Write([]byte(msg)); err != nil {
		log.Error("failed to write email body", sl.Err(err))
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := wc.Close(); err != nil {
		log.Error("failed to close data writer", sl.Err(err))
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := client.Quit(); err != nil {
		log.Error("failed to quit SMTP client", sl.Err(err))
		return fmt.Errorf("%s: %w", op, err)
	}

	log.Info("email sent successfully", slog.Any("to", to))
	return nil
}
