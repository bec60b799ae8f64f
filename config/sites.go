package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/seo-optimizer/seoaudit/compare"
)

// ErrConfigNotFound is returned when the competitor list file does not exist.
var ErrConfigNotFound = errors.New("config file not found")

// Site is one competitor to audit.
type Site struct {
	URL  string `yaml:"url"`
	Name string `yaml:"name"`
}

// SitesFile is the competitor list file:
//
//	sites:
//	  - url: https://silverautokool.ee/
//	    name: Silver Autokool
type SitesFile struct {
	Sites []Site `yaml:"sites"`
}

// LoadSites reads a competitor list. Entries without a URL are dropped.
func LoadSites(path string) (*SitesFile, error) {
	data, err := os.ReadFile(path) //nolint:gosec // user-provided path
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrConfigNotFound
		}
		return nil, err
	}

	var sf SitesFile
	if err := yaml.Unmarshal(data, &sf); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	sites := sf.Sites[:0]
	for _, s := range sf.Sites {
		if s.URL != "" {
			sites = append(sites, s)
		}
	}
	sf.Sites = sites
	return &sf, nil
}

// URLs returns the site URLs in file order.
func (sf *SitesFile) URLs() []string {
	urls := make([]string, len(sf.Sites))
	for i, s := range sf.Sites {
		urls[i] = s.URL
	}
	return urls
}

// Aliases returns the named sites as display-name aliases keyed by host.
func (sf *SitesFile) Aliases() []compare.SiteAlias {
	var aliases []compare.SiteAlias
	for _, s := range sf.Sites {
		if s.Name == "" {
			continue
		}
		host := compare.HostLabel(s.URL)
		if host == "" {
			continue
		}
		aliases = append(aliases, compare.SiteAlias{Pattern: host, Name: s.Name})
	}
	return aliases
}
