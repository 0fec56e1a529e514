package extract

import (
	"bytes"
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/jobsalhi/sofifa-harvester/internal/scrape"
)

var coachRe = regexp.MustCompile(`/coach/(\d+)/([\w-]+)`)

// Club extracts the attribute record from one club detail page.
type Club struct{}

// NewClub returns the club detail extractor.
func NewClub() *Club {
	return &Club{}
}

// ExtractDetail implements scrape.DetailExtractor.
func (*Club) ExtractDetail(page scrape.Page) (scrape.Record, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(page.Body))
	if err != nil {
		return nil, fmt.Errorf("parse club page: %w", err)
	}

	rec := scrape.Record{
		"club_id": firstGroup(teamIDRe, page.URL),
		"url":     page.URL,
	}
	rec["name"] = cleanText(doc.Find("div.profile h1").First().Text())
	if logo := doc.Find("img.crest").First(); logo.Length() > 0 {
		rec["club_logo"] = imageSource(logo)
	}

	if league := doc.Find(`div.profile p a[href*="/league/"]`).First(); league.Length() > 0 {
		rec["league"] = cleanText(league.Text())
		if href, ok := league.Attr("href"); ok {
			rec["league_id"] = firstGroup(leagueIDRe, href)
		}
	}
	if country := doc.Find("div.profile p a[title]").First(); country.Length() > 0 {
		rec["country"], _ = country.Attr("title")
	}
	if flag := doc.Find("div.profile p img.flag").First(); flag.Length() > 0 {
		rec["country_flag"] = imageSource(flag)
	}

	applyClubRatings(doc, rec)
	applyClubFacts(doc, rec)
	applyManager(doc, page.URL, rec)
	applyLineup(doc, rec)

	if rec["name"] == "" {
		return nil, scrape.ErrNoData
	}
	return rec, nil
}

func applyClubRatings(doc *goquery.Document, rec scrape.Record) {
	doc.Find("div.grid div.col").Each(func(_ int, col *goquery.Selection) {
		label := strings.ToLower(cleanText(col.Find(".sub").First().Text()))
		value := cleanText(col.Find("em").First().Text())
		if label == "" || value == "" {
			return
		}
		switch {
		case strings.Contains(label, "overall"):
			rec["rating"] = value
		case strings.Contains(label, "attack"):
			rec["attack_rating"] = value
		case strings.Contains(label, "midfield"):
			rec["midfield_rating"] = value
		case strings.Contains(label, "defence"), strings.Contains(label, "defense"):
			rec["defense_rating"] = value
		}
	})
}

// applyClubFacts reads the labelled list items: stadium, worth, the two
// average ages, and the rival team.
func applyClubFacts(doc *goquery.Document, rec scrape.Record) {
	facts := map[string]string{
		"home stadium":            "stadium",
		"club worth":              "club_worth",
		"starting xi average age": "starting_xi_avg_age",
		"whole team average age":  "whole_team_avg_age",
		"rival team":              "rival_team",
	}
	doc.Find("div.col-2 li label").Each(func(_ int, label *goquery.Selection) {
		text := strings.ToLower(cleanText(label.Text()))
		for fragment, key := range facts {
			if !strings.Contains(text, fragment) {
				continue
			}
			li := label.Parent()
			rec[key] = cleanText(strings.Replace(li.Text(), label.Text(), "", 1))
			return
		}
	})
}

func applyManager(doc *goquery.Document, pageURL string, rec scrape.Record) {
	coach := doc.Find(`nav.nav-tabs a[href*="/coach/"]`).First()
	if coach.Length() == 0 {
		return
	}
	href, _ := coach.Attr("href")
	m := coachRe.FindStringSubmatch(href)
	if len(m) == 3 {
		rec["manager_id"] = m[1]
		rec["manager"] = titleCase(strings.ReplaceAll(m[2], "-", " "))
	}
	if base, err := url.Parse(pageURL); err == nil {
		if ref, err := url.Parse(href); err == nil {
			rec["manager_url"] = base.ResolveReference(ref).String()
		}
	}
}

// applyLineup counts the players placed on the formation field and keeps the
// first five as a sample.
func applyLineup(doc *goquery.Document, rec scrape.Record) {
	var players []string
	doc.Find(`div.field-basket ul a[href*="/player/"]`).Each(func(_ int, a *goquery.Selection) {
		if name := cleanText(a.Text()); name != "" {
			players = append(players, name)
		}
	})
	rec["players_count"] = strconv.Itoa(len(players))
	top := players
	if len(top) > 5 {
		top = top[:5]
	}
	rec["top_players"] = strings.Join(top, ", ")
}
