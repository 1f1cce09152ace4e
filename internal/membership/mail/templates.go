package mail

import (
	"bytes"
	"embed"
	"fmt"
	htmpl "html/template"
	texttpl "text/template"
	"time"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

var (
	magicLinkHTML = htmpl.Must(htmpl.ParseFS(templateFS, "templates/magic_link.html.tmpl"))
	magicLinkText = texttpl.Must(texttpl.ParseFS(templateFS, "templates/magic_link.txt.tmpl"))
)

const (
	AppName          = "NeverPayForAds"
	MagicLinkSubject = "Your NeverPayForAds Dashboard Access"
	MagicLinkTag     = "magic-link"
)

type magicLinkData struct {
	AppName   string
	Link      string
	ExpiresIn string
}

// MagicLinkMessage renders the login email for link.
func MagicLinkMessage(to, link string, ttl time.Duration, now time.Time) (Message, error) {
	data := magicLinkData{AppName: AppName, Link: link, ExpiresIn: humanMinutes(ttl)}

	var html, text bytes.Buffer
	if err := magicLinkHTML.Execute(&html, data); err != nil {
		return Message{}, fmt.Errorf("mail: render html: %w", err)
	}
	if err := magicLinkText.Execute(&text, data); err != nil {
		return Message{}, fmt.Errorf("mail: render text: %w", err)
	}

	return Message{
		To:        to,
		Subject:   MagicLinkSubject,
		Text:      text.String(),
		HTML:      html.String(),
		Tag:       MagicLinkTag,
		ActionURL: link,
		CreatedAt: now.UTC(),
	}, nil
}

func humanMinutes(d time.Duration) string {
	m := int(d.Round(time.Minute) / time.Minute)
	if m == 1 {
		return "1 minute"
	}
	return fmt.Sprintf("%d minutes", m)
}
