package domain

import "time"

// Account representa una cuenta de plataforma cuyo archivo de cookies se
// entrega a yt-dlp con --cookies
type Account struct {
	ID         int64
	Platform   string
	Name       string
	CookiePath string
	IsActive   bool
	LastUsed   *time.Time
	CreatedAt  time.Time
}

// Plataformas reconocidas por DetectPlatform
const (
	PlatformYouTube     = "youtube"
	PlatformTwitter     = "twitter"
	PlatformInstagram   = "instagram"
	PlatformTikTok      = "tiktok"
	PlatformVimeo       = "vimeo"
	PlatformDailymotion = "dailymotion"
	PlatformTwitch      = "twitch"
	PlatformReddit      = "reddit"
	PlatformOther       = "other"
)
