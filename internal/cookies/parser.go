// Package cookies manages the Netscape cookie files handed to yt-dlp with
// --cookies: parsing, import, browser extraction and per-platform lookup.
package cookies

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/elsanchez/vidqueue/internal/domain"
	"github.com/elsanchez/vidqueue/internal/ytdlp"
)

const netscapeHeader = "# Netscape HTTP Cookie File"

// httpOnlyPrefix marks HttpOnly cookies in files written by curl and yt-dlp
const httpOnlyPrefix = "#HttpOnly_"

// NetscapeCookie represents a single cookie from Netscape format
type NetscapeCookie struct {
	Domain            string
	IncludeSubdomains bool
	Path              string
	Secure            bool
	HTTPOnly          bool
	Expiration        int64 // Unix timestamp, 0 for session cookies
	Name              string
	Value             string
}

// Session reports whether the cookie has no expiration
func (c NetscapeCookie) Session() bool {
	return c.Expiration == 0
}

// ParseFile parses a Netscape format cookie file
func ParseFile(path string) ([]NetscapeCookie, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open cookie file: %w", err)
	}
	defer file.Close()

	return Parse(file)
}

// Parse reads Netscape cookie lines:
// domain	include_subdomains	path	secure	expiration	name	value
func Parse(r io.Reader) ([]NetscapeCookie, error) {
	var cookies []NetscapeCookie
	scanner := bufio.NewScanner(r)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimRight(scanner.Text(), "\r")

		httpOnly := false
		if strings.HasPrefix(line, httpOnlyPrefix) {
			httpOnly = true
			line = strings.TrimPrefix(line, httpOnlyPrefix)
		}
		if strings.HasPrefix(line, "#") || strings.TrimSpace(line) == "" {
			continue
		}

		fields := strings.Split(line, "\t")
		if len(fields) < 7 {
			// Some exporters use spaces instead of tabs
			fields = strings.Fields(line)
			if len(fields) < 7 {
				return nil, fmt.Errorf("line %d: invalid format (expected 7 fields, got %d)", lineNum, len(fields))
			}
		}

		expiration, err := strconv.ParseInt(fields[4], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: invalid expiration timestamp: %w", lineNum, err)
		}

		value := strings.Join(fields[6:], "\t")
		if len(value) >= 2 && strings.HasPrefix(value, `"`) && strings.HasSuffix(value, `"`) {
			value = value[1 : len(value)-1]
		}

		cookies = append(cookies, NetscapeCookie{
			Domain:            fields[0],
			IncludeSubdomains: strings.EqualFold(fields[1], "TRUE"),
			Path:              fields[2],
			Secure:            strings.EqualFold(fields[3], "TRUE"),
			HTTPOnly:          httpOnly,
			Expiration:        expiration,
			Name:              fields[5],
			Value:             value,
		})
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read cookie file: %w", err)
	}
	if len(cookies) == 0 {
		return nil, fmt.Errorf("no valid cookies found in file")
	}

	return cookies, nil
}

// WriteFile stores cookies in Netscape format with owner-only permissions
func WriteFile(path string, cookies []NetscapeCookie) error {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("create file: %w", err)
	}

	w := bufio.NewWriter(file)
	fmt.Fprintln(w, netscapeHeader)
	for _, c := range cookies {
		domainField := c.Domain
		if c.HTTPOnly {
			domainField = httpOnlyPrefix + domainField
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%s\t%s\n",
			domainField,
			boolField(c.IncludeSubdomains),
			c.Path,
			boolField(c.Secure),
			c.Expiration,
			c.Name,
			c.Value,
		)
	}

	if err := w.Flush(); err != nil {
		file.Close()
		return fmt.Errorf("write cookies: %w", err)
	}
	return file.Close()
}

func boolField(b bool) string {
	if b {
		return "TRUE"
	}
	return "FALSE"
}

// EarliestExpiration ignores session cookies; zero when every cookie is one
func EarliestExpiration(cookies []NetscapeCookie) time.Time {
	var earliest int64
	for _, c := range cookies {
		if c.Session() {
			continue
		}
		if earliest == 0 || c.Expiration < earliest {
			earliest = c.Expiration
		}
	}
	if earliest == 0 {
		return time.Time{}
	}
	return time.Unix(earliest, 0)
}

// DetectPlatform returns the platform most cookie domains belong to, or ""
func DetectPlatform(cookies []NetscapeCookie) string {
	counts := make(map[string]int)
	for _, c := range cookies {
		host := strings.TrimPrefix(c.Domain, ".")
		platform := ytdlp.DetectPlatform("https://" + host + "/")
		if platform == domain.PlatformOther {
			continue
		}
		counts[platform]++
	}

	best, bestCount := "", 0
	for platform, count := range counts {
		// Ties resolve alphabetically so the result is stable
		if count > bestCount || (count == bestCount && platform < best) {
			best, bestCount = platform, count
		}
	}
	return best
}

// Domains returns the sorted unique domains in the cookies
func Domains(cookies []NetscapeCookie) []string {
	set := make(map[string]struct{})
	for _, c := range cookies {
		set[strings.TrimPrefix(c.Domain, ".")] = struct{}{}
	}

	domains := make([]string, 0, len(set))
	for d := range set {
		domains = append(domains, d)
	}
	sort.Strings(domains)
	return domains
}
