package scraper

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"strings"

	readability "github.com/go-shiori/go-readability"
)

// ContentExtractor fetches a chapter page and pulls out its body text.
type ContentExtractor struct {
	fetcher *Fetcher
}

func NewContentExtractor(fetcher *Fetcher) *ContentExtractor {
	return &ContentExtractor{fetcher: fetcher}
}

// maxContentRunes caps the text handed to the summarizer. Web novel
// chapters run a few thousand words; anything far beyond that is almost
// certainly page chrome that readability failed to strip.
const maxContentRunes = 24000

// ChapterText returns the readable body text of the chapter at chapterURL.
func (c *ContentExtractor) ChapterText(ctx context.Context, chapterURL string) (string, error) {
	body, err := c.fetcher.Fetch(ctx, chapterURL)
	if err != nil {
		return "", err
	}

	parsed, _ := url.Parse(chapterURL)
	article, err := readability.FromReader(bytes.NewReader(body), parsed)
	if err != nil {
		return "", &UpstreamError{URL: chapterURL, Err: fmt.Errorf("extract content: %w", err)}
	}

	text := strings.TrimSpace(article.TextContent)
	if text == "" {
		return "", &UpstreamError{URL: chapterURL, Err: fmt.Errorf("no readable content")}
	}

	if runes := []rune(text); len(runes) > maxContentRunes {
		text = string(runes[:maxContentRunes])
	}
	return text, nil
}
