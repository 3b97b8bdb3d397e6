package fulfillment

import (
	"context"
	"fmt"
	"io"

	"gopkg.in/gomail.v2"
)

// Mailer delivers a message.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// SMTPConfig holds the outgoing mail server settings.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// SMTPMailer sends mail through an SMTP relay.
type SMTPMailer struct {
	cfg    SMTPConfig
	dialer *gomail.Dialer
}

// NewSMTPMailer returns a mailer for cfg.
func NewSMTPMailer(cfg SMTPConfig) *SMTPMailer {
	return &SMTPMailer{cfg: cfg, dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password)}
}

// Send implements Mailer.  gomail has no context support, so ctx is only
// checked before dialing; the pipeline bounds the overall duration.
func (m *SMTPMailer) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	gm, err := buildMessage(m.cfg.From, msg)
	if err != nil {
		return err
	}
	return m.dialer.DialAndSend(gm)
}

// attachmentEncoding is the only transfer encoding gomail writes
// attachment bodies in.
const attachmentEncoding = "base64"

func buildMessage(from string, msg Message) (*gomail.Message, error) {
	gm := gomail.NewMessage()
	gm.SetHeader("From", from)
	gm.SetAddressHeader("To", msg.To.Email, msg.To.Name)
	gm.SetHeader("Subject", msg.Subject)
	gm.SetBody("text/html", msg.Body)
	for _, a := range msg.Attachments {
		enc := a.Encoding
		if enc == "" {
			enc = attachmentEncoding
		}
		if enc != attachmentEncoding {
			return nil, fmt.Errorf("attachment %s: unsupported encoding %q", a.Filename, a.Encoding)
		}
		header := map[string][]string{"Content-Transfer-Encoding": {enc}}
		if a.ContentType != "" {
			header["Content-Type"] = []string{a.ContentType + `; name="` + a.Filename + `"`}
		}
		data := a.Data
		gm.Attach(a.Filename,
			gomail.SetHeader(header),
			gomail.SetCopyFunc(func(w io.Writer) error {
				_, err := w.Write(data)
				return err
			}),
		)
	}
	return gm, nil
}
