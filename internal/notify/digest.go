package notify

import (
	"fmt"
	"strings"
	"time"

	"github.com/slack-go/slack"

	"news_summarizer/internal/domain"
)

// MaxSlackSummary is the longest summary placed in one Slack section block.
// Slack rejects section text above 3000 characters.
const MaxSlackSummary = 2900

const truncationMarker = "..."

// MaxSlackBlocks is the block limit Slack enforces per message.
const MaxSlackBlocks = 50

// Digest is the payload handed to every channel.
type Digest struct {
	Entries  []domain.DigestEntry
	Date     time.Time
	Language string
}

type templates struct {
	subject  string
	heading  string
	intro    string
	source   string
	readMore string
	moreInfo string
}

var languageTemplates = map[string]templates{
	"en": {
		subject:  "News Summary - %s",
		heading:  "News Summaries for %s",
		intro:    "Here are the latest news summaries:",
		source:   "Source",
		readMore: "Read Full Announcement",
		moreInfo: "More information",
	},
	"ja": {
		subject:  "ニュース要約 - %s",
		heading:  "%s のニュース要約",
		intro:    "最新のニュース要約をお届けします:",
		source:   "出所",
		readMore: "記事全文を読む",
		moreInfo: "詳細情報",
	},
}

func (d Digest) templates() templates {
	if t, ok := languageTemplates[d.Language]; ok {
		return t
	}
	return languageTemplates["en"]
}

func (d Digest) day() string {
	return d.Date.Format("2006-01-02")
}

// Subject is the run-dated subject line shared by every channel.
func (d Digest) Subject() string {
	return fmt.Sprintf(d.templates().subject, d.day())
}

// Text renders the plain-text form of the digest.
func (d Digest) Text() string {
	t := d.templates()

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf(t.heading, d.day()))
	sb.WriteString("\n\n")

	for _, e := range d.Entries {
		sb.WriteString(e.Title)
		sb.WriteString("\n")
		sb.WriteString(t.source + ": " + e.Source)
		sb.WriteString("\n")
		sb.WriteString(e.Summary)
		sb.WriteString("\n")
		if e.HasLink() {
			sb.WriteString(t.moreInfo + ": " + e.Link)
			sb.WriteString("\n")
		}
		sb.WriteString("\n")
	}

	return sb.String()
}

// SlackMessages renders the digest as Slack blocks, split across as many
// webhook messages as needed to stay within MaxSlackBlocks each. Only the
// first message carries the header and intro.
func (d Digest) SlackMessages() []*slack.WebhookMessage {
	t := d.templates()

	current := []slack.Block{
		slack.NewHeaderBlock(slack.NewTextBlockObject(slack.PlainTextType, d.Subject(), false, false)),
		markdownSection(t.intro),
	}
	var pages [][]slack.Block

	for _, e := range d.Entries {
		blocks := []slack.Block{
			slack.NewDividerBlock(),
			markdownSection(fmt.Sprintf("*%s*\n_%s: %s_", e.Title, t.source, e.Source)),
			markdownSection(truncate(e.Summary, MaxSlackSummary)),
		}
		if e.HasLink() {
			blocks = append(blocks, markdownSection(fmt.Sprintf("<%s|%s>", e.Link, t.readMore)))
		}

		if len(current)+len(blocks) > MaxSlackBlocks {
			pages = append(pages, current)
			current = nil
		}
		current = append(current, blocks...)
	}
	pages = append(pages, current)

	msgs := make([]*slack.WebhookMessage, len(pages))
	for i, blocks := range pages {
		msgs[i] = &slack.WebhookMessage{
			Text:   d.Subject(),
			Blocks: &slack.Blocks{BlockSet: blocks},
		}
	}
	return msgs
}

func markdownSection(text string) *slack.SectionBlock {
	return slack.NewSectionBlock(slack.NewTextBlockObject(slack.MarkdownType, text, false, false), nil, nil)
}

func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit]) + truncationMarker
}
