package parsers

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPubChemParser_Flow(t *testing.T) {
	p := NewPubChemParser()
	req := p.NewCompoundRequest("water")
	assert.Equal(t, "https://pubchem.ncbi.nlm.nih.gov/rest/pug/compound/name/water/cids/JSON", req.URL)

	results, follow, err := p.Parse(&Page{
		URL:     req.URL,
		Body:    []byte(`{"IdentifierList":{"CID":[962,1000]}}`),
		Request: req,
	})
	require.NoError(t, err)
	assert.Empty(t, results)
	require.Len(t, follow, 1)
	assert.True(t, strings.Contains(follow[0].URL, "/compound/cid/962/property/MolecularFormula,"))
	assert.Equal(t, 1, follow[0].Depth)
	assert.Equal(t, PubChemName, follow[0].Parser)

	results, follow, err = p.Parse(&Page{
		URL:     follow[0].URL,
		Body:    []byte(`{"PropertyTable":{"Properties":[{"CID":962,"MolecularFormula":"H2O","MolecularWeight":"18.015","XLogP":-0.5,"Charge":0}]}}`),
		Request: follow[0],
	})
	require.NoError(t, err)
	assert.Empty(t, follow)
	require.Len(t, results, 4)

	got := map[string]string{}
	for _, r := range results {
		got[*r.Attribute] = *r.Value
		assert.Equal(t, "PubChem", *r.Source)
	}
	assert.Equal(t, map[string]string{
		"Molecular formula": "H2O",
		"Molar mass":        "18.015",
		"log P":             "-0.5",
		"Charge":            "0",
	}, got)
}

func TestPubChemParser_Errors(t *testing.T) {
	p := NewPubChemParser()

	_, _, err := p.Parse(&Page{URL: p.BaseURL + "compound/name/x/cids/JSON", Body: []byte("not json")})
	assert.Error(t, err)

	_, _, err = p.Parse(&Page{URL: p.BaseURL + "elsewhere"})
	assert.Error(t, err)
}
