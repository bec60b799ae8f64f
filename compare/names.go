package compare

import (
	"net/url"
	"strings"
)

// SiteAlias maps a URL substring to a display name.
type SiteAlias struct {
	Pattern string `yaml:"pattern" json:"pattern"`
	Name    string `yaml:"name" json:"name"`
}

// DefaultSiteAliases is the built-in table of known competitors, checked in
// order.
var DefaultSiteAliases = []SiteAlias{
	{Pattern: "viktorijaautokool.ee", Name: "Viktorija"},
	{Pattern: "xn--siduppe-10ad.ee", Name: "Sõiduõppe ABC"},
	{Pattern: "autokooldrive.ee", Name: "Autokool DRIVE"},
	{Pattern: "justdrive.ee", Name: "Just DRIVE"},
	{Pattern: "startautokool.ee", Name: "START AUTOKOOL"},
	{Pattern: "silverautokool.ee", Name: "Silver Autokool"},
	{Pattern: "somero.ee", Name: "Somero"},
	{Pattern: "origon.ee", Name: "Origon"},
	{Pattern: "lakarosse.ee", Name: "Lakarosse"},
	{Pattern: "deltaautokool.ee", Name: "Delta Autokool"},
	{Pattern: "liiklusekspert.ee", Name: "Liiklusekspert"},
	{Pattern: "atlanta.ee", Name: "Atlanta"},
}

// Namer resolves display names for site URLs. The first alias whose pattern
// occurs in the URL wins.
type Namer struct {
	aliases []SiteAlias
}

// NewNamer returns a Namer that checks extra before DefaultSiteAliases.
func NewNamer(extra ...SiteAlias) *Namer {
	aliases := make([]SiteAlias, 0, len(extra)+len(DefaultSiteAliases))
	for _, a := range extra {
		if a.Pattern != "" && a.Name != "" {
			aliases = append(aliases, a)
		}
	}
	aliases = append(aliases, DefaultSiteAliases...)
	return &Namer{aliases: aliases}
}

// Name returns the display name for siteURL. Unknown sites are named after
// their host without a leading "www.".
func (n *Namer) Name(siteURL string) string {
	for _, a := range n.aliases {
		if strings.Contains(siteURL, a.Pattern) {
			return a.Name
		}
	}
	return HostLabel(siteURL)
}

// SiteName resolves siteURL against DefaultSiteAliases only.
func SiteName(siteURL string) string {
	return defaultNamer.Name(siteURL)
}

var defaultNamer = NewNamer()

// HostLabel returns what sits between "//" and the next "/" in siteURL,
// without a leading "www.".
func HostLabel(siteURL string) string {
	host := siteURL
	if i := strings.Index(host, "//"); i >= 0 {
		host = host[i+2:]
	}
	if i := strings.Index(host, "/"); i >= 0 {
		host = host[:i]
	}
	if u, err := url.Parse("//" + host); err == nil && u.Host != "" {
		host = u.Host
	}
	return strings.TrimPrefix(host, "www.")
}
