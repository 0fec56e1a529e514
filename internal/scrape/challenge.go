package scrape

import (
	"bytes"
	"strings"
)

// DefaultChallengeMarkers are the interstitial fragments the target site is
// known to serve in front of real content.
var DefaultChallengeMarkers = []string{
	"Checking your browser",
	"Just a moment",
	"cf-browser-verification",
}

// ChallengeDetector spots anti-bot interstitial pages by scanning the
// rendered body for known markers.
type ChallengeDetector struct {
	markers [][]byte
}

// NewChallengeDetector builds a detector from the configured marker strings.
// Matching is case-insensitive; empty markers are dropped.
func NewChallengeDetector(markers []string) *ChallengeDetector {
	lowered := make([][]byte, 0, len(markers))
	for _, m := range markers {
		m = strings.TrimSpace(m)
		if m == "" {
			continue
		}
		lowered = append(lowered, bytes.ToLower([]byte(m)))
	}
	return &ChallengeDetector{markers: lowered}
}

// Check returns a *ChallengeError when the page body contains a marker.
func (d *ChallengeDetector) Check(page Page) error {
	if d == nil || len(d.markers) == 0 || len(page.Body) == 0 {
		return nil
	}
	body := bytes.ToLower(page.Body)
	for _, m := range d.markers {
		if bytes.Contains(body, m) {
			return &ChallengeError{Marker: string(m)}
		}
	}
	return nil
}
