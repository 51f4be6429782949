package notify

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/slack-go/slack"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"news_summarizer/internal/domain"
)

var runDate = time.Date(2025, 3, 14, 9, 0, 0, 0, time.UTC)

func sampleEntries() []domain.DigestEntry {
	return []domain.DigestEntry{
		{Title: "Lambda adds runtime", Source: "AWS", Summary: "- faster cold starts", Link: "https://example.com/lambda"},
		{Title: "S3 pricing", Source: "AWS", Summary: "- cheaper storage", Link: "#"},
	}
}

func sectionTexts(t *testing.T, msg *slack.WebhookMessage) []string {
	t.Helper()
	require.NotNil(t, msg.Blocks)

	var out []string
	for _, b := range msg.Blocks.BlockSet {
		if sec, ok := b.(*slack.SectionBlock); ok {
			out = append(out, sec.Text.Text)
		}
	}
	return out
}

func TestTruncate(t *testing.T) {
	long := strings.Repeat("a", 3500)
	got := truncate(long, MaxSlackSummary)
	assert.Equal(t, strings.Repeat("a", 2900)+truncationMarker, got)

	short := strings.Repeat("b", 100)
	assert.Equal(t, short, truncate(short, MaxSlackSummary))

	exact := strings.Repeat("c", MaxSlackSummary)
	assert.Equal(t, exact, truncate(exact, MaxSlackSummary))

	assert.Equal(t, "日本...", truncate("日本語", 2))
}

func TestDigest_SlackMessages(t *testing.T) {
	d := Digest{Entries: sampleEntries(), Date: runDate, Language: "en"}
	msgs := d.SlackMessages()
	require.Len(t, msgs, 1)
	msg := msgs[0]

	blocks := msg.Blocks.BlockSet
	require.NotEmpty(t, blocks)

	header, ok := blocks[0].(*slack.HeaderBlock)
	require.True(t, ok)
	assert.Equal(t, "News Summary - 2025-03-14", header.Text.Text)

	var dividers int
	for _, b := range blocks {
		if b.BlockType() == slack.MBTDivider {
			dividers++
		}
	}
	assert.Equal(t, 2, dividers)

	texts := sectionTexts(t, msg)
	assert.Equal(t, []string{
		"Here are the latest news summaries:",
		"*Lambda adds runtime*\n_Source: AWS_",
		"- faster cold starts",
		"<https://example.com/lambda|Read Full Announcement>",
		"*S3 pricing*\n_Source: AWS_",
		"- cheaper storage",
	}, texts)
}

func TestDigest_SlackMessageTruncatesLongSummary(t *testing.T) {
	d := Digest{
		Entries: []domain.DigestEntry{{Title: "t", Source: "s", Summary: strings.Repeat("x", 3500)}},
		Date:    runDate,
	}

	texts := sectionTexts(t, d.SlackMessages()[0])
	require.Len(t, texts, 3)
	assert.Len(t, texts[2], 2900+len(truncationMarker))
	assert.True(t, strings.HasSuffix(texts[2], truncationMarker))
}

func TestDigest_Text(t *testing.T) {
	d := Digest{Entries: sampleEntries(), Date: runDate, Language: "en"}

	assert.Equal(t, "News Summary - 2025-03-14", d.Subject())
	assert.Equal(t,
		"News Summaries for 2025-03-14\n\n"+
			"Lambda adds runtime\nSource: AWS\n- faster cold starts\nMore information: https://example.com/lambda\n\n"+
			"S3 pricing\nSource: AWS\n- cheaper storage\n\n",
		d.Text(),
	)
}

func TestDigest_JapaneseTemplates(t *testing.T) {
	d := Digest{Entries: sampleEntries(), Date: runDate, Language: "ja"}

	assert.Equal(t, "ニュース要約 - 2025-03-14", d.Subject())
	assert.Contains(t, d.Text(), "出所: AWS")
	assert.Contains(t, sectionTexts(t, d.SlackMessages()[0]), "<https://example.com/lambda|記事全文を読む>")
}

func TestDigest_UnknownLanguageFallsBackToEnglish(t *testing.T) {
	d := Digest{Date: runDate, Language: "fr"}
	assert.Equal(t, "News Summary - 2025-03-14", d.Subject())
}

func manyEntries(n int) []domain.DigestEntry {
	entries := make([]domain.DigestEntry, n)
	for i := range entries {
		entries[i] = domain.DigestEntry{
			Title:   fmt.Sprintf("Title %d", i),
			Source:  "AWS",
			Summary: "- point",
			Link:    fmt.Sprintf("https://example.com/%d", i),
		}
	}
	return entries
}

func TestDigest_SlackMessagesStayWithinBlockLimit(t *testing.T) {
	d := Digest{Entries: manyEntries(30), Date: runDate, Language: "en"}

	msgs := d.SlackMessages()

	// 2 header blocks + 4 per entry: 12 entries fill the first message exactly
	require.Len(t, msgs, 3)

	var titles int
	for i, msg := range msgs {
		blocks := msg.Blocks.BlockSet
		assert.LessOrEqual(t, len(blocks), MaxSlackBlocks)
		assert.Equal(t, "News Summary - 2025-03-14", msg.Text)

		_, isHeader := blocks[0].(*slack.HeaderBlock)
		assert.Equal(t, i == 0, isHeader)

		for _, text := range sectionTexts(t, msg) {
			if strings.HasPrefix(text, "*Title ") {
				titles++
			}
		}
	}
	assert.Equal(t, 30, titles)
	assert.Len(t, msgs[0].Blocks.BlockSet, MaxSlackBlocks)
}
