package scrape

import (
	"errors"
	"fmt"
)

// FailureKind classifies why a single fetch-and-extract attempt failed.
type FailureKind string

// Failure classifications used by the retry controller.
const (
	FailureTransient FailureKind = "transient-network"
	FailureChallenge FailureKind = "challenge-detected"
	FailureNoData    FailureKind = "no-data"
)

// Record maps field names to extracted string values. Every record carries an
// identifying primary key field and a "url" field pointing at its source page.
// Missing attributes are stored as empty strings, never treated as errors.
type Record map[string]string

// Page is the rendered content of one address.
type Page struct {
	URL        string
	StatusCode int
	Body       []byte
}

// ListingResult is what a listing-page extraction yields: the detail
// addresses found on the page and whether the site reports a further page.
type ListingResult struct {
	Addresses []string
	HasNext   bool
}

// AddressStatus tracks one detail address through the scrape state machine.
type AddressStatus string

// Address lifecycle states. Succeeded and FailedTerminal are terminal.
const (
	StatusPending        AddressStatus = "pending"
	StatusFetching       AddressStatus = "fetching"
	StatusRetrying       AddressStatus = "retrying"
	StatusSucceeded      AddressStatus = "succeeded"
	StatusFailedTerminal AddressStatus = "failed-terminal"
)

// ErrNoData signals that an attempt completed structurally but extraction
// produced an empty or unusable result.
var ErrNoData = errors.New("no data extracted")

// ChallengeError marks a response that is an anti-bot interstitial rather
// than real content.
type ChallengeError struct {
	Marker string
}

func (e *ChallengeError) Error() string {
	return fmt.Sprintf("challenge page detected (marker %q)", e.Marker)
}

// TerminalError reports that the retry budget for one address is exhausted.
// The pipeline records it and moves on; it is never fatal to the run.
type TerminalError struct {
	Kind     FailureKind
	Attempts int
	Err      error
}

func (e *TerminalError) Error() string {
	return fmt.Sprintf("terminal %s failure after %d attempts: %v", e.Kind, e.Attempts, e.Err)
}

func (e *TerminalError) Unwrap() error {
	return e.Err
}
