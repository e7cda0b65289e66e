package main

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/videotube/config"
	"github.com/oksasatya/videotube/pkg/helpers"
	"github.com/oksasatya/videotube/pkg/mailer"
	mailtpl "github.com/oksasatya/videotube/pkg/mailer/templates"
)

var errEmptyJob = errors.New("email job has no recipient")

// compose turns a queued job into subject, text and html bodies.
func compose(job *mailer.EmailJob) (string, string, string, error) {
	if job.To == "" {
		return "", "", "", errEmptyJob
	}
	helpers.EnsureRecipientAndEmail(job)
	if job.Template == "" {
		subject := job.Subject
		if subject == "" {
			subject = helpers.SubjectFor("")
		}
		return subject, job.Text, job.HTML, nil
	}
	subject, text, html, err := mailtpl.Render(job.Template, job.Data)
	if err != nil {
		return "", "", "", err
	}
	if subject == "" {
		subject = helpers.SubjectFor(job.Template)
	}
	return subject, text, html, nil
}

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	logger := helpers.NewLogger(cfg.AppName+"-email-worker", cfg.Env)

	if !cfg.MailSendEnabled {
		logger.Info("MAIL_SEND_ENABLED=false; email worker disabled (no real emails will be sent)")
		return
	}
	if cfg.RabbitMQURL == "" || cfg.RabbitMQEmailQueue == "" {
		log.Fatal("RabbitMQ not configured")
	}
	if cfg.MailgunDomain == "" || cfg.MailgunAPIKey == "" || cfg.MailgunSender == "" {
		log.Fatal("Mailgun not configured")
	}

	conn, ch, err := helpers.OpenQueue(cfg.RabbitMQURL, cfg.RabbitMQEmailQueue)
	if err != nil {
		log.Fatalf("amqp open queue: %v", err)
	}
	defer func() { _ = conn.Close() }()
	defer func() { _ = ch.Close() }()

	// Prefetch for fair dispatch
	if err := ch.Qos(16, 0, false); err != nil {
		log.Fatalf("qos: %v", err)
	}

	msgs, err := ch.Consume(cfg.RabbitMQEmailQueue, "", false, false, false, false, nil)
	if err != nil {
		log.Fatalf("consume: %v", err)
	}

	mg := mailer.NewMailgun(cfg.MailgunDomain, cfg.MailgunAPIKey, cfg.MailgunSender)
	ctx := context.Background()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	done := make(chan struct{})

	go func() {
		for msg := range msgs {
			var job mailer.EmailJob
			if err := json.Unmarshal(msg.Body, &job); err != nil {
				helpers.LogWarn(logger, "bad email message", err, nil)
				_ = msg.Nack(false, false)
				continue
			}

			subject, text, html, err := compose(&job)
			if err != nil {
				helpers.LogWarn(logger, "email render failed", err, logrus.Fields{"template": job.Template})
				_ = msg.Nack(false, false)
				continue
			}

			c, cancel := context.WithTimeout(ctx, 15*time.Second)
			err = mg.Send(c, job.To, subject, text, html)
			cancel()
			if err != nil {
				helpers.LogError(logger, "email send failed", err, logrus.Fields{"template": job.Template})
				// requeue once; redelivered messages are dropped
				_ = msg.Nack(false, !msg.Redelivered)
				continue
			}
			_ = msg.Ack(false)
			logger.WithFields(logrus.Fields{"template": job.Template}).Info("email sent")
		}
		close(done)
	}()

	logger.Infof("email worker listening on queue=%s", cfg.RabbitMQEmailQueue)
	<-stop
	logger.Info("shutting down...")
	_ = ch.Close()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
	}
}
