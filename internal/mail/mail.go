package mail

import "gopkg.in/gomail.v2"

// Sender delivers a plain-text message to the shop's order inbox.
type Sender interface {
	Send(subject, body string) error
}

type SMTPSender struct {
	dialer *gomail.Dialer
	from   string
	to     string
}

func NewSMTP(host string, port int, user, pass, from, to string) *SMTPSender {
	return &SMTPSender{
		dialer: gomail.NewDialer(host, port, user, pass),
		from:   from,
		to:     to,
	}
}

func (s *SMTPSender) Send(subject, body string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", s.to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", body)
	return s.dialer.DialAndSend(m)
}
