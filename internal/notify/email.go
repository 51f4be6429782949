package notify

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"io"
	"net"
	"net/smtp"
	"strconv"
	"time"

	"github.com/emersion/go-message/mail"
)

type EmailConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	To       string
}

type sendMailFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// Email sends the digest as a multipart/alternative message over SMTP.
type Email struct {
	addr     string
	auth     smtp.Auth
	from     string
	to       string
	sendMail sendMailFunc
}

func NewEmail(cfg EmailConfig) *Email {
	var auth smtp.Auth
	if cfg.Username != "" {
		auth = smtp.PlainAuth("", cfg.Username, cfg.Password, cfg.Host)
	}
	return &Email{
		addr:     net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)),
		auth:     auth,
		from:     cfg.From,
		to:       cfg.To,
		sendMail: smtp.SendMail,
	}
}

func (e *Email) Name() string {
	return "email"
}

// Send has no context-aware SMTP path; ctx is only checked before dialing.
func (e *Email) Send(ctx context.Context, digest Digest) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	msg, err := e.compose(digest, time.Now())
	if err != nil {
		return fmt.Errorf("compose email: %w", err)
	}

	if err := e.sendMail(e.addr, e.auth, e.from, []string{e.to}, msg); err != nil {
		return fmt.Errorf("send email: %w", err)
	}
	return nil
}

var htmlDigest = template.Must(template.New("digest").Parse(`<html>
<body>
  <h1>{{.Heading}}</h1>
  <p>{{.Intro}}</p>
{{range .Entries}}  <div class="article">
    <h2>{{.Title}}</h2>
    <p class="source">{{$.SourceLabel}}: {{.Source}}</p>
    <div class="summary">{{.Summary}}</div>
{{if .HasLink}}    <p><a href="{{.Link}}">{{$.ReadMore}}</a></p>
{{end}}  </div>
{{end}}</body>
</html>
`))

func (e *Email) compose(digest Digest, now time.Time) ([]byte, error) {
	var h mail.Header
	h.SetDate(now)
	h.SetAddressList("From", []*mail.Address{{Address: e.from}})
	h.SetAddressList("To", []*mail.Address{{Address: e.to}})
	h.SetSubject(digest.Subject())

	t := digest.templates()
	var html bytes.Buffer
	err := htmlDigest.Execute(&html, map[string]any{
		"Heading":     fmt.Sprintf(t.heading, digest.day()),
		"Intro":       t.intro,
		"SourceLabel": t.source,
		"ReadMore":    t.readMore,
		"Entries":     digest.Entries,
	})
	if err != nil {
		return nil, fmt.Errorf("render html: %w", err)
	}

	var buf bytes.Buffer
	mw, err := mail.CreateWriter(&buf, h)
	if err != nil {
		return nil, err
	}

	iw, err := mw.CreateInline()
	if err != nil {
		return nil, err
	}

	if err := writePart(iw, "text/plain", digest.Text()); err != nil {
		return nil, err
	}
	if err := writePart(iw, "text/html", html.String()); err != nil {
		return nil, err
	}

	if err := iw.Close(); err != nil {
		return nil, err
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

func writePart(iw *mail.InlineWriter, contentType, body string) error {
	var ph mail.InlineHeader
	ph.SetContentType(contentType, map[string]string{"charset": "utf-8"})

	w, err := iw.CreatePart(ph)
	if err != nil {
		return err
	}
	if _, err := io.WriteString(w, body); err != nil {
		w.Close()
		return err
	}
	return w.Close()
}
