package shortener

import (
	"fmt"
	"net/url"
	"strings"
)

const maxHostnameLen = 253

// Classification is the allow/block decision for a target URL.
type Classification struct {
	Allowed  bool
	Category string // machine-readable, empty when allowed
	Reason   string // human-readable, empty when allowed
}

var allowed = Classification{Allowed: true}

func blocked(category, reason string) Classification {
	return Classification{Category: category, Reason: reason}
}

// NormalizeURL trims the input, prepends https:// when no scheme is present,
// and validates the result as an absolute http(s) URL. Any other scheme fails
// rather than being coerced.
func NormalizeURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", ErrInvalidURL
	}

	if !hasHTTPScheme(raw) {
		raw = "https://" + raw
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", ErrInvalidURL
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", ErrInvalidURL
	}
	host := u.Hostname()
	if host == "" || len(host) > maxHostnameLen {
		return "", ErrInvalidURL
	}
	return u.String(), nil
}

func hasHTTPScheme(s string) bool {
	lower := strings.ToLower(s)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}

// Classifier decides whether a normalized target URL may be shortened.
// The zero value classifies with an empty site hostname (no self-reference
// guard); populate SiteHostname from the configured public base URL.
type Classifier struct {
	// SiteHostname is the service's own public hostname. Targets pointing
	// back into the service (other than its bare root) are blocked to
	// prevent redirect chains and loops.
	SiteHostname string
}

// Classify runs the policy checks in fixed order: self-reference, suspicious
// TLD, blocked domain, suspicious pattern. First match wins. Classification
// is total and fail-closed: input that cannot be parsed here, despite having
// passed normalization, is blocked rather than allowed through.
func (c *Classifier) Classify(normalizedURL string) Classification {
	u, err := url.Parse(normalizedURL)
	if err != nil || u.Hostname() == "" {
		return blocked("unparseable", "The URL could not be checked against the content policy.")
	}

	hostname := strings.ToLower(u.Hostname())
	domain := extractDomain(hostname)
	tld := extractTLD(hostname)

	if c.SiteHostname != "" && hostname == strings.ToLower(c.SiteHostname) {
		if u.Path != "" && u.Path != "/" {
			return blocked("self_reference", "Links into this service cannot be shortened.")
		}
	}

	if category, ok := suspiciousTLDs[tld]; ok {
		return blocked(category, fmt.Sprintf("The .%s top-level domain is not accepted.", tld))
	}

	if blockedDomains[domain] || blockedDomains[hostname] {
		return blocked("blocked_domain", fmt.Sprintf("The domain %s is on the blocklist.", domain))
	}

	for _, pattern := range suspiciousPatterns {
		if strings.Contains(domain, pattern) || strings.Contains(hostname, pattern) {
			return blocked("suspicious_pattern", fmt.Sprintf("The domain matches the blocked pattern %q.", pattern))
		}
	}

	return allowed
}

// extractDomain strips a leading www. and reduces multi-label hostnames to
// their last two labels. This mishandles multi-part public suffixes such as
// co.uk (example.co.uk reduces to "co.uk"); a known limitation, kept rather
// than pulling in a public-suffix list.
func extractDomain(hostname string) string {
	hostname = strings.TrimPrefix(hostname, "www.")
	parts := strings.Split(hostname, ".")
	if len(parts) > 2 {
		return strings.Join(parts[len(parts)-2:], ".")
	}
	return hostname
}

func extractTLD(hostname string) string {
	parts := strings.Split(hostname, ".")
	return parts[len(parts)-1]
}

// suspiciousTLDs maps blocked top-level domains to their policy category.
var suspiciousTLDs = map[string]string{
	// Cheap or free registrations with a heavy abuse history.
	"xyz": "high_risk", "tk": "high_risk", "ml": "high_risk",
	"ga": "high_risk", "cf": "high_risk", "gq": "high_risk",
	"pw": "high_risk", "top": "high_risk",

	// Adult content.
	"porn": "adult", "sex": "adult", "adult": "adult",
	"xxx": "adult", "cam": "adult", "dating": "adult",

	// TLDs dominated by spam and scam campaigns.
	"click": "suspicious_activity", "loan": "suspicious_activity",
	"download": "suspicious_activity", "racing": "suspicious_activity",
	"stream": "suspicious_activity", "trade": "suspicious_activity",
	"review": "suspicious_activity", "date": "suspicious_activity",
	"win": "suspicious_activity", "vip": "suspicious_activity",
	"party": "suspicious_activity", "science": "suspicious_activity",
	"country": "suspicious_activity", "bid": "suspicious_activity",
}

// blockedDomains are exact registrable-domain or hostname matches. Other
// shorteners are included to keep redirect chains out.
var blockedDomains = map[string]bool{
	"bit.ly": true, "adf.ly": true, "tinyurl.com": true, "ow.ly": true,
	"t.co": true, "shorturl.com": true, "linkbucks.com": true, "lnk.co": true,
	"tr.im": true, "is.gd": true, "v.gd": true, "cli.gs": true,
	"twurl.nl": true, "budurl.com": true,

	"example-spam.com": true, "spam-domain.com": true, "fake-site.net": true,
	"malware-site.org": true, "phishing-url.com": true, "scam-website.com": true,
	"dangerous-link.info": true, "unsafe-redirect.biz": true, "suspicious-url.co": true,
}

// suspiciousPatterns are substring matches against the registrable domain and
// the full hostname.
var suspiciousPatterns = []string{
	"free-money", "win-prize", "click-here", "urgent-action",
	"limited-time", "act-now", "miracle-cure", "get-rich",
	"lose-weight", "make-money", "casino", "gambling", "lottery",
}
