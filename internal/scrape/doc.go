// Package scrape implements the two-phase harvest pipeline: paginated
// discovery of detail-page addresses followed by per-address record
// extraction, with bounded retry/backoff around every fetch attempt.
package scrape
