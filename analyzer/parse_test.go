package analyzer

import (
	"bytes"
	"reflect"
	"strings"
	"testing"
)

const samplePage = `<!DOCTYPE html>
<html>
<head>
  <title>
    Autokool Tallinn - B-kategooria
  </title>
  <meta name="description" content="  Parim autokool Tallinnas.  ">
</head>
<body>
  <h1> Autokool </h1>
  <h2>Hinnad</h2>
  <h2>Kontakt</h2>
  <a href="/hinnad">Hinnad</a>
  <a href="https://autokool.ee/kontakt">Kontakt</a>
  <a href="https://facebook.com/autokool">Facebook</a>
  <a href="//cdn.example.com/brochure.pdf">Brochure</a>
  <a href="mailto:info@autokool.ee">E-mail</a>
  <a>No target</a>
  <img src="logo.png" alt="Logo">
  <img src="car.jpg" alt="">
  <img src="team.jpg">
</body>
</html>`

func TestExtractFacts(t *testing.T) {
	doc, err := ParseHTML(strings.NewReader(samplePage), "text/html; charset=utf-8")
	if err != nil {
		t.Fatalf("ParseHTML failed: %v", err)
	}

	facts := ExtractFacts(doc, "https://autokool.ee/")

	if facts.Title != "Autokool Tallinn - B-kategooria" {
		t.Errorf("unexpected title %q", facts.Title)
	}
	if facts.MetaDescription != "Parim autokool Tallinnas." {
		t.Errorf("unexpected meta description %q", facts.MetaDescription)
	}
	if !reflect.DeepEqual(facts.H1, []string{"Autokool"}) {
		t.Errorf("unexpected h1 %q", facts.H1)
	}
	if !reflect.DeepEqual(facts.H2, []string{"Hinnad", "Kontakt"}) {
		t.Errorf("unexpected h2 %q", facts.H2)
	}

	wantLinks := []Link{
		{Href: "/hinnad", Internal: true},
		{Href: "https://autokool.ee/kontakt", Internal: true},
		{Href: "https://facebook.com/autokool", Internal: false},
		{Href: "//cdn.example.com/brochure.pdf", Internal: false},
		{Href: "mailto:info@autokool.ee", Internal: true},
	}
	if !reflect.DeepEqual(facts.Links, wantLinks) {
		t.Errorf("links =\n%+v\nwant\n%+v", facts.Links, wantLinks)
	}

	wantImages := []Image{
		{Src: "logo.png", HasAlt: true},
		{Src: "car.jpg", HasAlt: false},
		{Src: "team.jpg", HasAlt: false},
	}
	if !reflect.DeepEqual(facts.Images, wantImages) {
		t.Errorf("images = %+v, want %+v", facts.Images, wantImages)
	}

	if !strings.Contains(facts.Text, "Facebook") {
		t.Error("expected page text to include anchor text")
	}
}

func TestExtractFactsMissingHead(t *testing.T) {
	doc, err := ParseHTML(strings.NewReader("<p>Hello</p>"), "")
	if err != nil {
		t.Fatalf("ParseHTML failed: %v", err)
	}

	facts := ExtractFacts(doc, "https://example.com/")
	if facts.Title != "" || facts.MetaDescription != "" {
		t.Errorf("expected empty title and description, got %q / %q", facts.Title, facts.MetaDescription)
	}
	if len(facts.H1) != 0 || len(facts.Links) != 0 || len(facts.Images) != 0 {
		t.Errorf("expected no headings, links or images, got %+v", facts)
	}
}

func TestParseHTMLDecodesCharset(t *testing.T) {
	// "Автошкола" in windows-1251.
	title := []byte{0xC0, 0xE2, 0xF2, 0xEE, 0xF8, 0xEA, 0xEE, 0xEB, 0xE0}

	var body bytes.Buffer
	body.WriteString("<html><head><title>")
	body.Write(title)
	body.WriteString("</title></head><body></body></html>")

	doc, err := ParseHTML(&body, "text/html; charset=windows-1251")
	if err != nil {
		t.Fatalf("ParseHTML failed: %v", err)
	}

	facts := ExtractFacts(doc, "https://example.ru/")
	if facts.Title != "Автошкола" {
		t.Errorf("expected decoded title, got %q", facts.Title)
	}
}
