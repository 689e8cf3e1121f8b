package extract

import (
	"net/http"
	"strings"
	"time"

	"github.com/mobster570/ticketime/clock"
	"github.com/mobster570/ticketime/enginerr"
)

// dateLayouts covers the three forms HTTP/1.1 permits for the Date header.
// The "MST" placeholder in RFC1123/RFC850 matches any letter sequence as a
// zone abbreviation, so it is not by itself sufficient to reject non-GMT
// zones; parseDate checks the parsed zone name explicitly after matching.
var dateLayouts = []string{
	time.RFC1123, // Mon, 02 Jan 2006 15:04:05 MST
	time.RFC850,  // Monday, 02-Jan-06 15:04:05 MST
	time.ANSIC,   // Mon Jan  2 15:04:05 2006 (asctime, implicitly UTC)
}

// cdnHeaderNames are checked for presence regardless of value.
var cdnHeaderNames = []string{"cf-ray", "x-served-by", "x-cache"}

// cdnServerTokens are matched case-insensitively against the Server header.
var cdnServerTokens = []string{"cloudflare", "akamai", "fastly"}

type dateHeaderExtractor struct{}

// ID implements Extractor.
func (dateHeaderExtractor) ID() ID { return DateHeader }

// Extract implements Extractor by parsing the first Date header, tolerating
// mixed case and trailing whitespace, and rejecting any timezone other than
// GMT/UTC as BadResponse.
func (dateHeaderExtractor) Extract(resp *http.Response) (Result, *enginerr.SyncError) {
	raw := resp.Header.Get("Date")
	if raw == "" {
		return Result{}, enginerr.New(enginerr.KindMissingTimeSource, enginerr.PhaseNone)
	}

	instant, err := parseDate(raw)
	if err != nil {
		return Result{}, err
	}

	return Result{Instant: instant, CDNAdvisory: detectCDN(resp.Header)}, nil
}

func parseDate(raw string) (clock.WallInstant, *enginerr.SyncError) {
	normalized := upperCaseZoneToken(strings.Join(strings.Fields(raw), " "))

	for _, layout := range dateLayouts {
		t, err := time.Parse(layout, normalized)
		if err != nil {
			continue
		}
		// MST-style layout tokens accept any letter run as a zone
		// abbreviation, so a non-GMT zone (EST, PST, ...) parses without
		// error; reject it explicitly here.
		if name, _ := t.Zone(); !isGMTOrUTC(name) {
			return clock.WallInstant{}, enginerr.New(enginerr.KindBadResponse, enginerr.PhaseNone)
		}
		return clock.NewWallInstant(t.UTC()), nil
	}

	return clock.WallInstant{}, enginerr.New(enginerr.KindBadResponse, enginerr.PhaseNone)
}

// upperCaseZoneToken upper-cases a trailing alphabetic token so a
// lower/mixed-case zone abbreviation ("gmt", "Gmt") still parses against
// the stdlib's upper-case-only zone matcher, per spec's case tolerance.
func upperCaseZoneToken(s string) string {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return s
	}
	last := fields[len(fields)-1]
	for _, r := range last {
		if (r < 'a' || r > 'z') && (r < 'A' || r > 'Z') {
			return s
		}
	}
	fields[len(fields)-1] = strings.ToUpper(last)
	return strings.Join(fields, " ")
}

func isGMTOrUTC(zoneName string) bool {
	upper := strings.ToUpper(zoneName)
	return upper == "GMT" || upper == "UTC" || upper == ""
}

func detectCDN(h http.Header) string {
	for _, name := range cdnHeaderNames {
		if h.Get(name) != "" {
			return "cdn signature: header " + name + " present"
		}
	}
	server := strings.ToLower(h.Get("Server"))
	for _, token := range cdnServerTokens {
		if strings.Contains(server, token) {
			return "cdn signature: server header contains " + token
		}
	}
	return ""
}
