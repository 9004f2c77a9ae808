package parsers

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/ppiankov/fourmi/internal/model"
	"github.com/rotisserie/eris"
)

// PubChemName is the registry name of the PubChem parser
const PubChemName = "pubchem"

const pubChemSource = "PubChem"

// pubChemProperties maps PUG REST property names to attribute names
var pubChemProperties = []struct {
	key       string
	attribute string
}{
	{"MolecularFormula", "Molecular formula"},
	{"MolecularWeight", "Molar mass"},
	{"IUPACName", "IUPAC name"},
	{"CanonicalSMILES", "SMILES"},
	{"InChI", "InChI"},
	{"InChIKey", "InChI key"},
	{"XLogP", "log P"},
	{"ExactMass", "Exact mass"},
	{"Charge", "Charge"},
}

// PubChemParser looks a compound name up through the PubChem PUG REST
// API: the first response yields compound IDs, each ID is followed to
// its property table.
type PubChemParser struct {
	BaseURL string
	MaxCIDs int
}

// NewPubChemParser creates a parser for the public PubChem API
func NewPubChemParser() *PubChemParser {
	return &PubChemParser{
		BaseURL: "https://pubchem.ncbi.nlm.nih.gov/rest/pug/",
		MaxCIDs: 1,
	}
}

// Name returns the parser name
func (p *PubChemParser) Name() string {
	return PubChemName
}

// Website returns the API URL pattern
func (p *PubChemParser) Website() string {
	return p.BaseURL + "*"
}

// NewCompoundRequest requests the compound IDs for a name
func (p *PubChemParser) NewCompoundRequest(compound string) Request {
	return Request{
		URL:    p.BaseURL + "compound/name/" + url.PathEscape(strings.TrimSpace(compound)) + "/cids/JSON",
		Parser: p.Name(),
	}
}

func (p *PubChemParser) propertyRequest(cid int64, depth int) Request {
	keys := make([]string, len(pubChemProperties))
	for i, prop := range pubChemProperties {
		keys[i] = prop.key
	}
	return Request{
		URL:    fmt.Sprintf("%scompound/cid/%d/property/%s/JSON", p.BaseURL, cid, strings.Join(keys, ",")),
		Parser: p.Name(),
		Depth:  depth + 1,
	}
}

type cidResponse struct {
	IdentifierList struct {
		CID []int64 `json:"CID"`
	} `json:"IdentifierList"`
}

type propertyResponse struct {
	PropertyTable struct {
		Properties []map[string]any `json:"Properties"`
	} `json:"PropertyTable"`
}

// Parse handles both the CID lookup and the property table
func (p *PubChemParser) Parse(page *Page) ([]*model.Result, []Request, error) {
	switch {
	case strings.Contains(page.URL, "/cids/JSON"):
		var ids cidResponse
		if err := json.Unmarshal(page.Body, &ids); err != nil {
			return nil, nil, eris.Wrap(err, "pubchem: decode cids")
		}
		cids := ids.IdentifierList.CID
		if p.MaxCIDs > 0 && len(cids) > p.MaxCIDs {
			cids = cids[:p.MaxCIDs]
		}
		requests := make([]Request, 0, len(cids))
		for _, cid := range cids {
			requests = append(requests, p.propertyRequest(cid, page.Request.Depth))
		}
		return nil, requests, nil

	case strings.Contains(page.URL, "/property/"):
		var table propertyResponse
		if err := json.Unmarshal(page.Body, &table); err != nil {
			return nil, nil, eris.Wrap(err, "pubchem: decode properties")
		}
		var results []*model.Result
		for _, row := range table.PropertyTable.Properties {
			for _, prop := range pubChemProperties {
				v, ok := row[prop.key]
				if !ok || v == nil {
					continue
				}
				results = append(results, model.NewResult(prop.attribute, formatValue(v), pubChemSource))
			}
		}
		return results, nil, nil

	default:
		return nil, nil, eris.Errorf("pubchem: unexpected url %s", page.URL)
	}
}

func formatValue(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return fmt.Sprint(t)
	}
}
