package cookies

import (
	"context"
	"fmt"
	"strings"

	"github.com/browserutils/kooky"
	_ "github.com/browserutils/kooky/browser/chrome"
	_ "github.com/browserutils/kooky/browser/chromium"
	_ "github.com/browserutils/kooky/browser/edge"
	_ "github.com/browserutils/kooky/browser/firefox"
	_ "github.com/browserutils/kooky/browser/opera"
)

// SupportedBrowsers lists the browser stores registered with kooky
func SupportedBrowsers() []string {
	return []string{"chrome", "chromium", "firefox", "edge", "opera"}
}

// ExtractOptions contains options for browser cookie extraction
type ExtractOptions struct {
	Browser    string // substring of the kooky browser name, empty for any
	Domain     string // e.g. "instagram.com", matches subdomains
	OutputPath string // written in Netscape format when set
}

// Extract reads cookies for a domain from the local browser stores
func Extract(ctx context.Context, opts ExtractOptions) ([]NetscapeCookie, error) {
	if opts.Domain == "" {
		return nil, fmt.Errorf("domain is required")
	}
	browser := strings.ToLower(opts.Browser)

	found, err := kooky.ReadCookies(ctx, kooky.DomainHasSuffix(opts.Domain))
	if err != nil && len(found) == 0 {
		return nil, fmt.Errorf("read cookies from browser: %w", err)
	}

	cookies := make([]NetscapeCookie, 0, len(found))
	for _, c := range found {
		if browser != "" {
			if c.Browser == nil || !strings.Contains(strings.ToLower(c.Browser.Browser()), browser) {
				continue
			}
		}

		domainName := c.Domain
		if domainName != "" && !strings.HasPrefix(domainName, ".") {
			domainName = "." + domainName
		}
		expiration := c.Expires.Unix()
		if c.Expires.IsZero() || expiration < 0 {
			expiration = 0
		}

		cookies = append(cookies, NetscapeCookie{
			Domain:            domainName,
			IncludeSubdomains: true,
			Path:              c.Path,
			Secure:            c.Secure,
			HTTPOnly:          c.HttpOnly,
			Expiration:        expiration,
			Name:              c.Name,
			Value:             c.Value,
		})
	}

	if len(cookies) == 0 {
		return nil, fmt.Errorf("no cookies found for browser %q and domain %q", opts.Browser, opts.Domain)
	}

	if opts.OutputPath != "" {
		if err := WriteFile(opts.OutputPath, cookies); err != nil {
			return nil, fmt.Errorf("save cookies: %w", err)
		}
	}
	return cookies, nil
}
