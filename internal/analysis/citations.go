package analysis

import (
	"fmt"
	"net/url"
	"strings"

	"golang.org/x/net/publicsuffix"
	"mvdan.cc/xurls/v2"

	"github.com/AI-Template-SDK/senso-visibility/internal/models"
)

var imageExtensions = []string{".png", ".jpg", ".jpeg", ".gif", ".bmp", ".svg", ".webp"}

// ExtractCitations returns the distinct http(s) URLs cited in text. A citation
// is primary when its registrable domain matches businessURL's.
func ExtractCitations(text, businessURL string) []models.Citation {
	var citations []models.Citation
	seen := make(map[string]bool)

	businessBase, _ := BaseDomain(businessURL)

	for _, match := range xurls.Strict().FindAllString(text, -1) {
		u, err := url.Parse(strings.TrimSpace(match))
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
			continue
		}

		u.Host = strings.TrimPrefix(u.Hostname(), "www.")
		q := u.Query()
		for param := range q {
			if strings.HasPrefix(strings.ToLower(param), "utm_") {
				q.Del(param)
			}
		}
		u.RawQuery = q.Encode()
		finalURL := strings.TrimRight(u.String(), "/")
		if finalURL == "" || seen[finalURL] {
			continue
		}

		pathLower := strings.ToLower(u.Path)
		isImage := false
		for _, ext := range imageExtensions {
			if strings.HasSuffix(pathLower, ext) {
				isImage = true
				break
			}
		}
		if isImage {
			continue
		}
		seen[finalURL] = true

		domain, err := BaseDomain(finalURL)
		if err != nil {
			domain = u.Hostname()
		}
		citations = append(citations, models.Citation{
			URL:     finalURL,
			Domain:  domain,
			Primary: businessBase != "" && strings.EqualFold(domain, businessBase),
		})
	}
	return citations
}

// BaseDomain returns the registrable domain (eTLD+1) of a URL or bare host.
func BaseDomain(rawURL string) (string, error) {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		return "", fmt.Errorf("empty URL")
	}
	if !strings.HasPrefix(rawURL, "http://") && !strings.HasPrefix(rawURL, "https://") {
		rawURL = "https://" + rawURL
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("failed to parse URL %s: %w", rawURL, err)
	}
	hostname := u.Hostname()
	if hostname == "" {
		return "", fmt.Errorf("no hostname found in URL: %s", rawURL)
	}

	base, err := publicsuffix.EffectiveTLDPlusOne(hostname)
	if err != nil {
		return "", fmt.Errorf("failed to get base domain for %s: %w", hostname, err)
	}
	return base, nil
}
