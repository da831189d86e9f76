package ai

import (
	"context"
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

// Illustrator turns a summary into a generated illustration on disk.
// Failure here is always non-fatal to the pipeline: a summary without an
// image is still a summary.
type Illustrator struct {
	client   *openai.Client
	imageDir string
}

// NewIllustrator builds an illustrator writing PNG files to imageDir.
// With an empty key the illustrator is disabled.
func NewIllustrator(apiKey, imageDir string) *Illustrator {
	il := &Illustrator{imageDir: imageDir}
	if apiKey != "" {
		il.client = openai.NewClient(apiKey)
	}
	return il
}

// Enabled reports whether a credential was configured.
func (il *Illustrator) Enabled() bool { return il.client != nil }

// Illustrate generates an image for the summary and writes it to
// {book}_{chapter}_{timestamp}.png under the image dir. It returns the
// stable URL path the file is served under.
func (il *Illustrator) Illustrate(ctx context.Context, bookTitle string, chapter int, summary string) (string, error) {
	if il.client == nil {
		return "", ErrDisabled
	}

	prompt := fmt.Sprintf(
		"An evocative illustration for a web novel chapter, no text in the image. Scene: %s",
		truncate(summary, 900),
	)

	resp, err := il.client.CreateImage(ctx, openai.ImageRequest{
		Prompt:         prompt,
		Model:          openai.CreateImageModelDallE3,
		N:              1,
		Size:           openai.CreateImageSize1024x1024,
		ResponseFormat: openai.CreateImageResponseFormatB64JSON,
	})
	if err != nil {
		return "", fmt.Errorf("create image: %w", err)
	}
	if len(resp.Data) == 0 {
		return "", fmt.Errorf("create image: empty response")
	}

	raw, err := base64.StdEncoding.DecodeString(resp.Data[0].B64JSON)
	if err != nil {
		return "", fmt.Errorf("decode image: %w", err)
	}

	if err := os.MkdirAll(il.imageDir, 0o755); err != nil {
		return "", fmt.Errorf("ensure image dir: %w", err)
	}

	name := ImageFileName(bookTitle, chapter, time.Now())
	if err := os.WriteFile(filepath.Join(il.imageDir, name), raw, 0o644); err != nil {
		return "", fmt.Errorf("write image: %w", err)
	}
	return "/images/" + name, nil
}

var unsafeFileRunes = regexp.MustCompile(`[^a-z0-9]+`)

// ImageFileName builds the {book}_{chapter}_{timestamp}.png image name.
func ImageFileName(bookTitle string, chapter int, at time.Time) string {
	slug := unsafeFileRunes.ReplaceAllString(strings.ToLower(bookTitle), "_")
	slug = strings.Trim(slug, "_")
	if slug == "" {
		slug = "book"
	}
	if len(slug) > 48 {
		slug = slug[:48]
	}
	return fmt.Sprintf("%s_%d_%d.png", slug, chapter, at.Unix())
}

func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}
