package analyzer

import (
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html/charset"
)

// ParseHTML decodes body according to contentType (falling back to the
// document's own charset declaration) and parses it into a goquery document.
func ParseHTML(body io.Reader, contentType string) (*goquery.Document, error) {
	utf8Body, err := charset.NewReader(body, contentType)
	if err != nil {
		return nil, fmt.Errorf("failed to detect charset: %w", err)
	}

	doc, err := goquery.NewDocumentFromReader(utf8Body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse html: %w", err)
	}
	return doc, nil
}

// ExtractFacts collects the on-page facts of doc. pageURL is used to decide
// which links are internal.
func ExtractFacts(doc *goquery.Document, pageURL string) DOMFacts {
	facts := DOMFacts{
		URL:   pageURL,
		Title: strings.TrimSpace(doc.Find("title").First().Text()),
		Text:  doc.Text(),
	}

	if desc, exists := doc.Find("meta[name='description']").First().Attr("content"); exists {
		facts.MetaDescription = strings.TrimSpace(desc)
	}

	facts.H1 = headingTexts(doc, "h1")
	facts.H2 = headingTexts(doc, "h2")

	host := pageHost(pageURL)
	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		facts.Links = append(facts.Links, Link{
			Href:     href,
			Internal: isInternalLink(href, host),
		})
	})

	doc.Find("img").Each(func(_ int, s *goquery.Selection) {
		src, _ := s.Attr("src")
		alt, _ := s.Attr("alt")
		facts.Images = append(facts.Images, Image{
			Src:    src,
			HasAlt: alt != "",
		})
	})

	return facts
}

func headingTexts(doc *goquery.Document, tag string) []string {
	texts := make([]string, 0)
	doc.Find(tag).Each(func(_ int, s *goquery.Selection) {
		texts = append(texts, strings.TrimSpace(s.Text()))
	})
	return texts
}

func pageHost(pageURL string) string {
	u, err := url.Parse(pageURL)
	if err != nil {
		return ""
	}
	return u.Host
}

// isInternalLink treats relative targets and any target mentioning the page
// host as internal.
func isInternalLink(href, host string) bool {
	if u, err := url.Parse(strings.TrimSpace(href)); err == nil && u.Host == "" {
		return true
	}
	return strings.Contains(href, host)
}
