package validate

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/ppiankov/fourmi/internal/model"
	"github.com/rotisserie/eris"
)

// ReliabilityClassifier ranks page URLs into reliability tiers
type ReliabilityClassifier struct {
	config       *model.ReliabilityConfig
	highMap      map[string]bool
	mediumMap    map[string]bool
	pathPatterns []*compiledPattern
}

type compiledPattern struct {
	pattern *regexp.Regexp
	tier    model.ReliabilityTier
}

// NewReliabilityClassifier creates a classifier; a nil config uses the
// defaults. An invalid path pattern is an error.
func NewReliabilityClassifier(config *model.ReliabilityConfig) (*ReliabilityClassifier, error) {
	if config == nil {
		config = &model.DefaultConfig().Reliability
	}

	c := &ReliabilityClassifier{
		config:    config,
		highMap:   make(map[string]bool, len(config.HighDomains)),
		mediumMap: make(map[string]bool, len(config.MediumDomains)),
	}
	for _, domain := range config.HighDomains {
		c.highMap[strings.ToLower(domain)] = true
	}
	for _, domain := range config.MediumDomains {
		c.mediumMap[strings.ToLower(domain)] = true
	}
	for _, pp := range config.PathPatterns {
		re, err := regexp.Compile(pp.Pattern)
		if err != nil {
			return nil, eris.Wrapf(err, "validate: compile path pattern %q", pp.Pattern)
		}
		c.pathPatterns = append(c.pathPatterns, &compiledPattern{pattern: re, tier: model.ParseTier(pp.Tier)})
	}
	return c, nil
}

// Classify ranks a URL. Explicit domain mappings win over the domain
// lists, which win over path patterns; research and government TLDs
// are high, everything else low.
func (c *ReliabilityClassifier) Classify(rawURL string) model.ReliabilityTier {
	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.Host == "" {
		return model.TierUnknown
	}
	host := strings.ToLower(parsed.Hostname())

	if tier, ok := c.config.DomainMap[host]; ok {
		return model.ParseTier(tier)
	}
	if matchDomain(c.highMap, host) {
		return model.TierHigh
	}
	if matchDomain(c.mediumMap, host) {
		return model.TierMedium
	}
	for _, cp := range c.pathPatterns {
		if cp.pattern.MatchString(parsed.Path) {
			return cp.tier
		}
	}
	if strings.HasSuffix(host, ".gov") || strings.HasSuffix(host, ".edu") {
		return model.TierHigh
	}
	return model.TierLow
}

// Annotate sets the reliability of r from the page it was extracted
// from. A reliability the parser already set, even an empty one, is
// left alone.
func (c *ReliabilityClassifier) Annotate(r *model.Result, pageURL string) {
	if r == nil || r.Reliability != nil {
		return
	}
	tier := c.Classify(pageURL)
	if tier == model.TierUnknown {
		return
	}
	r.Reliability = model.String(tier.String())
}

// matchDomain reports whether host is one of domains or a subdomain of one
func matchDomain(domains map[string]bool, host string) bool {
	if domains[host] {
		return true
	}
	for domain := range domains {
		if strings.HasSuffix(host, "."+domain) {
			return true
		}
	}
	return false
}
