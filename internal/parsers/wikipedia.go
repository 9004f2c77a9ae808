package parsers

import (
	"bytes"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/ppiankov/fourmi/internal/model"
	"github.com/rotisserie/eris"
	"golang.org/x/net/html/charset"
)

// WikipediaName is the registry name of the Wikipedia parser
const WikipediaName = "wikipedia"

const wikipediaSource = "Wikipedia"

var (
	footnoteMarker = regexp.MustCompile(`\[\d+\]|\[citation needed\]`)
	// "0.997 g/cm3 at 25 °C" -> value, conditions
	conditionSplit = regexp.MustCompile(`^(.*?)\s+(?:at|@)\s+(.+)$`)
)

// WikipediaParser extracts the chemical infobox (chembox) of a compound
// article on English Wikipedia.
type WikipediaParser struct {
	BaseURL string
}

// NewWikipediaParser creates a parser for en.wikipedia.org
func NewWikipediaParser() *WikipediaParser {
	return &WikipediaParser{BaseURL: "https://en.wikipedia.org/wiki/"}
}

// Name returns the parser name
func (p *WikipediaParser) Name() string {
	return WikipediaName
}

// Website returns the article URL pattern
func (p *WikipediaParser) Website() string {
	return p.BaseURL + "*"
}

// NewCompoundRequest requests the article titled after the compound
func (p *WikipediaParser) NewCompoundRequest(compound string) Request {
	title := strings.ReplaceAll(strings.TrimSpace(compound), " ", "_")
	return Request{
		URL:    p.BaseURL + url.PathEscape(title),
		Parser: p.Name(),
	}
}

// Parse reads every two-cell row of the chembox. The first cell is the
// attribute, the second the value; a trailing "at ..." on the value
// becomes the conditions. Pages in a legacy charset are decoded to UTF-8
// using the Content-Type header or the document's meta tag.
func (p *WikipediaParser) Parse(page *Page) ([]*model.Result, []Request, error) {
	body, err := charset.NewReader(bytes.NewReader(page.Body), page.ContentType)
	if err != nil {
		return nil, nil, eris.Wrap(err, "wikipedia: decode charset")
	}
	doc, err := goquery.NewDocumentFromReader(body)
	if err != nil {
		return nil, nil, eris.Wrap(err, "wikipedia: parse html")
	}

	box := doc.Find("table.ib-chembox, table.chembox, table.infobox").First()
	if box.Length() == 0 {
		return nil, nil, nil
	}
	box.Find("sup.reference, style, script").Remove()

	var results []*model.Result
	box.Find("tr").Each(func(_ int, row *goquery.Selection) {
		cells := row.ChildrenFiltered("td, th")
		if cells.Length() != 2 {
			return
		}
		attribute := cleanText(cells.Eq(0).Text())
		raw := cleanText(cells.Eq(1).Text())
		if attribute == "" || raw == "" {
			return
		}

		r := model.NewResult(attribute, raw, wikipediaSource)
		if m := conditionSplit.FindStringSubmatch(raw); m != nil {
			r.Value = model.String(m[1])
			r.Conditions = model.String(m[2])
		}
		results = append(results, r)
	})

	return results, nil, nil
}

// cleanText strips footnote markers and collapses whitespace
func cleanText(s string) string {
	s = footnoteMarker.ReplaceAllString(s, "")
	return strings.Join(strings.Fields(s), " ")
}
