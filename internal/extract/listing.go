package extract

import (
	"bytes"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/jobsalhi/sofifa-harvester/internal/scrape"
)

// Listing extracts detail-page addresses and the next-page control from one
// catalog listing page. linkPrefix selects the detail link family, e.g.
// "/player/" or "/team/". Links containing "random" are navigation chrome,
// not catalog entries.
type Listing struct {
	linkPrefix string
}

// NewListing builds a listing extractor for the given detail link prefix.
func NewListing(linkPrefix string) *Listing {
	return &Listing{linkPrefix: linkPrefix}
}

// ExtractListing implements scrape.ListingExtractor.
func (l *Listing) ExtractListing(page scrape.Page) (scrape.ListingResult, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(page.Body))
	if err != nil {
		return scrape.ListingResult{}, fmt.Errorf("parse listing page: %w", err)
	}

	base, err := url.Parse(page.URL)
	if err != nil {
		return scrape.ListingResult{}, fmt.Errorf("parse listing url: %w", err)
	}

	var (
		addresses []string
		local     = make(map[string]struct{})
	)
	doc.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		href, ok := a.Attr("href")
		if !ok || !strings.Contains(href, l.linkPrefix) || strings.Contains(href, "random") {
			return
		}
		ref, perr := url.Parse(href)
		if perr != nil {
			return
		}
		resolved := base.ResolveReference(ref).String()
		if _, seen := local[resolved]; seen {
			return
		}
		local[resolved] = struct{}{}
		addresses = append(addresses, resolved)
	})

	hasNext := false
	doc.Find("a.button").EachWithBreak(func(_ int, a *goquery.Selection) bool {
		if strings.Contains(a.Text(), "Next") {
			hasNext = true
			return false
		}
		return true
	})

	return scrape.ListingResult{Addresses: addresses, HasNext: hasNext}, nil
}
