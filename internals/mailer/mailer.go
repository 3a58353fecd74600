// Package mailer delivers notification emails. Dispatch is fire-and-forget:
// handlers enqueue a message and move on; delivery failures are logged, never
// surfaced to the request that triggered them.
package mailer

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	gomail "gopkg.in/gomail.v2"
)

type Message struct {
	To      string
	Subject string
	Body    string
}

// Sender performs a single synchronous delivery.
type Sender interface {
	Send(m Message) error
}

// SMTPSender sends through a plain SMTP relay.
type SMTPSender struct {
	dialer *gomail.Dialer
	from   string
}

func NewSMTPSender(host string, port int, username, password, from string) *SMTPSender {
	return &SMTPSender{
		dialer: gomail.NewDialer(host, port, username, password),
		from:   from,
	}
}

func (s *SMTPSender) Send(m Message) error {
	msg := gomail.NewMessage()
	msg.SetHeader("From", s.from)
	msg.SetHeader("To", m.To)
	msg.SetHeader("Subject", m.Subject)
	msg.SetBody("text/plain", m.Body)
	return s.dialer.DialAndSend(msg)
}

// Service fans messages out to a pool of delivery workers over a buffered
// queue. Close drains the queue before returning.
type Service struct {
	queue  chan Message
	sender Sender
	log    *slog.Logger
	wg     sync.WaitGroup
}

func NewService(sender Sender, workers int, log *slog.Logger) *Service {
	if workers <= 0 {
		workers = 1
	}
	s := &Service{
		queue:  make(chan Message, 100),
		sender: sender,
		log:    log,
	}
	for i := 0; i < workers; i++ {
		s.wg.Add(1)
		go s.worker(i)
	}
	return s
}

func (s *Service) worker(id int) {
	defer s.wg.Done()
	for m := range s.queue {
		if err := s.sender.Send(m); err != nil {
			s.log.Error("email delivery failed", "worker", id, "to", m.To, "subject", m.Subject, "err", err)
			continue
		}
		s.log.Info("email sent", "worker", id, "to", m.To, "subject", m.Subject)
	}
}

// Enqueue never blocks; when the queue is full the message is dropped and
// logged, keeping request handling unaffected.
func (s *Service) Enqueue(m Message) {
	select {
	case s.queue <- m:
	default:
		s.log.Warn("mail queue full, dropping message", "to", m.To, "subject", m.Subject)
	}
}

func (s *Service) Close() {
	close(s.queue)
	s.wg.Wait()
}

// OtpMessage carries a registration code.
func OtpMessage(to, code string) Message {
	return Message{
		To:      to,
		Subject: "Your OTP for Registration",
		Body:    fmt.Sprintf("Your OTP is %s new code", code),
	}
}

// ReminderMessage notifies a borrower that a loan went overdue and the book
// was taken back into stock.
func ReminderMessage(to, username, title string, dueDate time.Time) Message {
	return Message{
		To:      to,
		Subject: "Reminder: Please return overdue book",
		Body: fmt.Sprintf("Dear %s,\n\n"+
			"This is a reminder that you have not returned the book %q which was due on %s.\n\n"+
			"Please return the book at your earliest convenience.\n\n"+
			"Thank you.\n\n"+
			"Best regards,\nLibrary Management System",
			username, title, dueDate.Format(time.RFC1123)),
	}
}
