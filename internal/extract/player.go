package extract

import (
	"bytes"
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/jobsalhi/sofifa-harvester/internal/scrape"
)

var (
	playerIDRe = regexp.MustCompile(`/player/(\d+)/`)
	versionRe  = regexp.MustCompile(`/(\d+)/?$`)
	teamIDRe   = regexp.MustCompile(`/team/(\d+)/`)
	leagueIDRe = regexp.MustCompile(`/league/(\d+)`)
)

// statSections are the per-category attribute blocks on a player page. Each
// stat is keyed "<section>_<attribute>" in the record.
var statSections = []string{
	"attacking", "skill", "movement", "power", "mentality", "defending", "goalkeeping",
}

// Player extracts the full attribute record from one player detail page.
type Player struct{}

// NewPlayer returns the player detail extractor.
func NewPlayer() *Player {
	return &Player{}
}

// ExtractDetail implements scrape.DetailExtractor. The player name is the
// primary signal that the page held real content: a nameless record means
// the page rendered without data and is reported as ErrNoData.
func (*Player) ExtractDetail(page scrape.Page) (scrape.Record, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(page.Body))
	if err != nil {
		return nil, fmt.Errorf("parse player page: %w", err)
	}

	rec := scrape.Record{
		"player_id": firstGroup(playerIDRe, page.URL),
		"version":   firstGroup(versionRe, strings.TrimSuffix(page.URL, "/")),
		"url":       page.URL,
	}
	if desc, ok := doc.Find(`meta[name="description"]`).Attr("content"); ok {
		rec["description"] = desc
	}

	nationality := applySchema(doc, rec)

	rec["name"] = cleanText(doc.Find("h1.ellipsis").First().Text())
	if rec["full_name"] == "" {
		rec["full_name"] = cleanText(doc.Find(".profile h1").First().Text())
	}
	if v := cleanText(doc.Find("#select-version option[selected]").First().Text()); v != "" {
		rec["version"] = v
	}

	var positions []string
	doc.Find(".profile .pos").Each(func(_ int, s *goquery.Selection) {
		if p := cleanText(s.Text()); p != "" {
			positions = append(positions, p)
		}
	})
	rec["positions"] = strings.Join(positions, ", ")

	applyHeadlineGrid(doc, rec)
	applyAttributeColumns(doc, rec)
	applyStatSections(doc, rec)
	applyPlayStyles(doc, rec)

	if rec["country_name"] == "" {
		rec["country_name"] = nationality
	}

	if rec["name"] == "" {
		return nil, scrape.ErrNoData
	}
	return rec, nil
}

// playerSchema is the JSON-LD blob sofifa embeds per player.
type playerSchema struct {
	GivenName   string `json:"givenName"`
	FamilyName  string `json:"familyName"`
	BirthDate   string `json:"birthDate"`
	Image       string `json:"image"`
	Height      string `json:"height"`
	Weight      string `json:"weight"`
	Nationality string `json:"nationality"`
}

// applySchema fills record fields from the embedded JSON-LD and returns the
// nationality, used as a fallback when no national-team block exists.
func applySchema(doc *goquery.Document, rec scrape.Record) string {
	raw := doc.Find(`script[type="application/ld+json"]`).First().Text()
	if raw == "" {
		return ""
	}
	var schema playerSchema
	if err := json.Unmarshal([]byte(raw), &schema); err != nil {
		return ""
	}
	rec["full_name"] = cleanText(schema.GivenName + " " + schema.FamilyName)
	rec["dob"] = schema.BirthDate
	rec["image"] = schema.Image
	rec["height_cm"] = extractNumber(schema.Height)
	rec["weight_kg"] = extractNumber(schema.Weight)
	return schema.Nationality
}

// applyHeadlineGrid pulls overall rating, potential, value, and wage out of
// the header grid.
func applyHeadlineGrid(doc *goquery.Document, rec scrape.Record) {
	doc.Find(".grid .col").Each(func(_ int, col *goquery.Selection) {
		label := strings.ToLower(cleanText(col.Find(".sub").First().Text()))
		value := cleanText(col.Find("em").First().Text())
		if label == "" || value == "" {
			return
		}
		switch {
		case strings.Contains(label, "overall"):
			rec["overall_rating"] = extractNumber(value)
		case strings.Contains(label, "potential"):
			rec["potential"] = extractNumber(value)
		case strings.Contains(label, "value"):
			rec["value"] = parseMoney(value)
		case strings.Contains(label, "wage"):
			rec["wage"] = parseMoney(value)
		}
	})
}

// applyAttributeColumns walks the profile / specialities / national team /
// club columns.
func applyAttributeColumns(doc *goquery.Document, rec scrape.Record) {
	doc.Find(".grid.attribute > .col").Each(func(_ int, col *goquery.Selection) {
		section := strings.ToLower(cleanText(col.Find("h5").First().Text()))
		switch section {
		case "profile":
			applyProfile(col, rec)
		case "player specialities":
			var specs []string
			col.Find("a").Each(func(_ int, a *goquery.Selection) {
				if s := cleanText(a.Text()); s != "" {
					specs = append(specs, s)
				}
			})
			rec["specialities"] = strings.Join(specs, ", ")
		case "national team":
			applyTeamBlock(col, rec, "country")
		case "club":
			applyTeamBlock(col, rec, "club")
		}
	})
}

func applyProfile(col *goquery.Selection, rec scrape.Record) {
	col.Find("p").Each(func(_ int, p *goquery.Selection) {
		label, value := labelValue(p)
		if label == "" {
			return
		}
		switch {
		case strings.Contains(label, "preferred foot"):
			rec["preferred_foot"] = value
		case strings.Contains(label, "weak foot"):
			rec["weak_foot"] = extractNumber(value)
		case strings.Contains(label, "skill moves"):
			rec["skill_moves"] = extractNumber(value)
		case strings.Contains(label, "international reputation"):
			rec["international_reputation"] = extractNumber(value)
		case strings.Contains(label, "body type"):
			rec["body_type"] = value
		case strings.Contains(label, "real face"):
			rec["real_face"] = value
		case strings.Contains(label, "release clause"):
			rec["release_clause"] = parseMoney(value)
		}
	})
}

// applyTeamBlock fills the club or national-team fields. prefix is "club" or
// "country"; both blocks share their shape.
func applyTeamBlock(col *goquery.Selection, rec scrape.Record, prefix string) {
	if teamLink := col.Find(`a[href*="/team/"]`).First(); teamLink.Length() > 0 {
		rec[prefix+"_name"] = cleanText(teamLink.Text())
		if href, ok := teamLink.Attr("href"); ok {
			rec[prefix+"_id"] = firstGroup(teamIDRe, href)
		}
		if prefix == "club" {
			if logo := teamLink.Find("img.avatar").First(); logo.Length() > 0 {
				rec["club_logo"] = imageSource(logo)
			}
		}
	}
	if leagueLink := col.Find(`a[href*="/league/"]`).First(); leagueLink.Length() > 0 {
		rec[prefix+"_league_name"] = cleanText(leagueLink.Text())
		if href, ok := leagueLink.Attr("href"); ok {
			rec[prefix+"_league_id"] = firstGroup(leagueIDRe, href)
		}
	}
	if prefix == "country" {
		if flag := col.Find("img.flag").First(); flag.Length() > 0 {
			rec["country_flag"] = imageSource(flag)
		}
	}
	rec[prefix+"_rating"] = strconv.Itoa(col.Find("svg.star").Length())

	col.Find("p").Each(func(_ int, p *goquery.Selection) {
		label, value := labelValue(p)
		if label == "" {
			return
		}
		switch {
		case strings.Contains(label, "position"):
			rec[prefix+"_position"] = value
		case strings.Contains(label, "kit number"):
			rec[prefix+"_kit_number"] = value
		case prefix == "club" && strings.Contains(label, "joined"):
			rec["club_joined"] = value
		case prefix == "club" && strings.Contains(label, "contract"):
			rec["club_contract_valid_until"] = value
		}
	})
}

// applyStatSections collects the seven per-category stat blocks into
// "<section>_<attribute>" keys, keeping the original's rename of the
// mentality "att_position" label.
func applyStatSections(doc *goquery.Document, rec scrape.Record) {
	doc.Find("h5").Each(func(_ int, h5 *goquery.Selection) {
		section := strings.ToLower(cleanText(h5.Text()))
		if !isStatSection(section) {
			return
		}
		container := h5.Closest(`div[class*="col"]`)
		if container.Length() == 0 {
			container = h5.Parent()
		}
		container.Find("p").Each(func(_ int, p *goquery.Selection) {
			em := p.Find("em").First()
			span := p.Find("span[data-tippy-right-start]").First()
			if em.Length() == 0 || span.Length() == 0 {
				return
			}
			name := normalizeStatKey(span.Text())
			if name == "att_position" {
				name = "att_positioning"
			}
			rec[section+"_"+name] = extractNumber(cleanText(em.Text()))
		})
	})
}

func applyPlayStyles(doc *goquery.Document, rec scrape.Record) {
	doc.Find("h5").Each(func(_ int, h5 *goquery.Selection) {
		if strings.ToLower(cleanText(h5.Text())) != "playstyles" {
			return
		}
		container := h5.Closest(`div[class*="col"]`)
		if container.Length() == 0 {
			container = h5.Parent()
		}
		var styles []string
		container.Find("span[data-tippy-right-start]").Each(func(_ int, span *goquery.Selection) {
			style := strings.TrimRight(cleanText(span.Text()), "+ ")
			if style != "" {
				styles = append(styles, style)
			}
		})
		rec["play_styles"] = strings.Join(styles, ", ")
	})
}

func isStatSection(name string) bool {
	for _, s := range statSections {
		if s == name {
			return true
		}
	}
	return false
}

// labelValue splits a <p><label>Key</label>Value</p> element into its lower
// cased label and cleaned value.
func labelValue(p *goquery.Selection) (string, string) {
	labelEl := p.Find("label").First()
	if labelEl.Length() == 0 {
		return "", ""
	}
	label := cleanText(labelEl.Text())
	value := cleanText(strings.Replace(p.Text(), labelEl.Text(), "", 1))
	return strings.ToLower(label), value
}

// imageSource prefers the lazy-load data-src attribute over src.
func imageSource(img *goquery.Selection) string {
	if src, ok := img.Attr("data-src"); ok && src != "" {
		return src
	}
	src, _ := img.Attr("src")
	return src
}
