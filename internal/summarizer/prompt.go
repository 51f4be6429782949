package summarizer

import (
	"fmt"

	"news_summarizer/internal/domain"
)

const (
	englishPrompt = `Article Title: %s
Source: %s

Article Content:
%s

Summarize the article above as 3-5 short bullet points covering only the most important facts. Keep every bullet to one or two sentences.`

	japanesePrompt = `記事のタイトル: %s
出所: %s

記事の内容:
%s

上記の記事を3〜5つの箇条書きで簡潔に要約してください。重要な点だけを取り上げ、各項目は1〜2文にしてください。`
)

func buildPrompt(item domain.Item, content, language string) string {
	tmpl := englishPrompt
	if language == "ja" {
		tmpl = japanesePrompt
	}
	return fmt.Sprintf(tmpl, item.Title, item.Source, content)
}
