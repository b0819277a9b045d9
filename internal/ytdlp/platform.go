package ytdlp

import (
	"net/url"
	"strings"

	"github.com/elsanchez/vidqueue/internal/domain"
)

// Dominios por plataforma; se compara el host o cualquiera de sus sufijos
var platformHosts = map[string][]string{
	domain.PlatformYouTube:     {"youtube.com", "youtu.be", "youtube-nocookie.com"},
	domain.PlatformTwitter:     {"twitter.com", "x.com"},
	domain.PlatformInstagram:   {"instagram.com"},
	domain.PlatformTikTok:      {"tiktok.com"},
	domain.PlatformVimeo:       {"vimeo.com"},
	domain.PlatformDailymotion: {"dailymotion.com", "dai.ly"},
	domain.PlatformTwitch:      {"twitch.tv"},
	domain.PlatformReddit:      {"reddit.com", "redd.it"},
}

// DetectPlatform detecta la plataforma desde la URL
func DetectPlatform(rawURL string) string {
	host := hostOf(rawURL)
	if host == "" {
		return domain.PlatformOther
	}

	for platform, domains := range platformHosts {
		for _, d := range domains {
			if host == d || strings.HasSuffix(host, "."+d) {
				return platform
			}
		}
	}
	return domain.PlatformOther
}

func hostOf(rawURL string) string {
	rawURL = strings.TrimSpace(rawURL)
	if !strings.Contains(rawURL, "://") {
		rawURL = "https://" + rawURL
	}
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return strings.ToLower(parsed.Hostname())
}

// CookieRequirement indica qué tanto necesita la plataforma una cuenta
type CookieRequirement int

const (
	CookiesOptional CookieRequirement = iota
	CookiesRecommended
	CookiesRequired
)

// CookieRequirementFor retorna el nivel de requerimiento de cookies
func CookieRequirementFor(platform string) CookieRequirement {
	switch platform {
	case domain.PlatformTwitter, domain.PlatformInstagram:
		return CookiesRequired
	case domain.PlatformReddit, domain.PlatformTikTok:
		return CookiesRecommended
	default:
		return CookiesOptional
	}
}
