package scraper

import (
	"bytes"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"noveldigest/pkg/models"
)

// PageInfo is what extraction yields for one book page: the title plus the
// discovered chapter references in discovery order.
type PageInfo struct {
	Title    string
	Chapters []models.ChapterRef
}

// Selector lists tried in order against the table-of-contents page. These
// cover the common layouts of web novel aggregators; the generic anchor
// scan below catches the rest.
var chapterSelectors = []string{
	".chapter-list a",
	".chapter-item a",
	"#chapterlist a",
	".listmain a",
	"#list a",
	"ul.chapters a",
	".catalog a",
	"#catalog a",
	".volume-list a",
}

// Extractor parses chapter links out of raw page bytes.
type Extractor struct{}

func NewExtractor() *Extractor {
	return &Extractor{}
}

// Extract parses the page and returns its title and chapter references.
// When no chapter links are discoverable the result falls back to a single
// synthetic chapter numbered 1 titled with the book title, so every
// registered book has at least one addressable unit of content.
func (e *Extractor) Extract(pageURL string, body []byte) (PageInfo, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return PageInfo{}, &UpstreamError{URL: pageURL, Err: err}
	}

	base, _ := url.Parse(pageURL)
	info := PageInfo{Title: pageTitle(doc)}

	for _, sel := range chapterSelectors {
		if chapters := collectChapters(doc.Find(sel), base); len(chapters) > 0 {
			info.Chapters = chapters
			return info, nil
		}
	}

	// Generic fallback: scan every anchor for a parseable chapter label.
	if chapters := collectChapters(doc.Find("a"), base); len(chapters) > 0 {
		info.Chapters = chapters
		return info, nil
	}

	title := info.Title
	if title == "" {
		title = pageURL
	}
	info.Chapters = []models.ChapterRef{{Number: 1, Title: title, URL: pageURL}}
	return info, nil
}

func collectChapters(sel *goquery.Selection, base *url.URL) []models.ChapterRef {
	var chapters []models.ChapterRef

	sel.Each(func(_ int, a *goquery.Selection) {
		href, ok := a.Attr("href")
		if !ok {
			return
		}
		title := strings.TrimSpace(a.Text())

		number, ok := ParseChapterNumber(href, title)
		if !ok {
			return
		}

		chapters = append(chapters, models.ChapterRef{
			Number: number,
			Title:  title,
			URL:    resolveURL(base, href),
		})
	})
	return chapters
}

func pageTitle(doc *goquery.Document) string {
	if og, ok := doc.Find(`meta[property="og:title"]`).Attr("content"); ok {
		if t := strings.TrimSpace(og); t != "" {
			return t
		}
	}
	if h1 := strings.TrimSpace(doc.Find("h1").First().Text()); h1 != "" {
		return h1
	}

	title := strings.TrimSpace(doc.Find("title").First().Text())
	// Strip common site-name suffixes like "Some Novel - ReadSite".
	for _, sep := range []string{" - ", " | ", " – "} {
		if idx := strings.Index(title, sep); idx > 0 {
			title = title[:idx]
			break
		}
	}
	return strings.TrimSpace(title)
}

func resolveURL(base *url.URL, href string) string {
	if base == nil {
		return href
	}
	ref, err := url.Parse(href)
	if err != nil {
		return href
	}
	return base.ResolveReference(ref).String()
}

var (
	chapterWordRe  = regexp.MustCompile(`(?i)(?:chapter|chap|ch)[\s._-]*0*([0-9]+)`)
	cjkChapterRe   = regexp.MustCompile(`第\s*([0-9]+)\s*[章话回節节]`)
	leadingNumRe   = regexp.MustCompile(`^\s*0*([0-9]+)\s*[.:\-、 ]`)
	hrefChapterRe  = regexp.MustCompile(`(?i)(?:^|[/_-])(?:chapter|chap|ch|c)[_-]?0*([0-9]+)(?:\.html?|/|$|[_-])`)
	hrefTrailingRe = regexp.MustCompile(`/0*([0-9]+)(?:\.html?)?/?$`)
)

// ParseChapterNumber extracts a chapter number from a link's text or href.
// Patterns are tried from most to least specific; the trailing-path-number
// form only applies when the text gave no signal, since bare numbers in
// URLs are often ids rather than chapter numbers.
func ParseChapterNumber(href, title string) (int, bool) {
	for _, re := range []*regexp.Regexp{cjkChapterRe, chapterWordRe, leadingNumRe} {
		if m := re.FindStringSubmatch(title); m != nil {
			return atoiClamped(m[1])
		}
	}
	if m := hrefChapterRe.FindStringSubmatch(href); m != nil {
		return atoiClamped(m[1])
	}
	if m := hrefTrailingRe.FindStringSubmatch(href); m != nil {
		return atoiClamped(m[1])
	}
	return 0, false
}

func atoiClamped(s string) (int, bool) {
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}
