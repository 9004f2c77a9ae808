// Package export writes surviving results as a feed file.
package export

import (
	"encoding/csv"
	"encoding/json"
	"encoding/xml"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ppiankov/fourmi/internal/model"
	"github.com/rotisserie/eris"
)

// Supported feed formats
const (
	FormatCSV       = "csv"
	FormatJSON      = "json"
	FormatJSONLines = "jsonlines"
	FormatXML       = "xml"
)

// Formats lists the supported formats
var Formats = []string{FormatCSV, FormatJSON, FormatJSONLines, FormatXML}

// Exporter serializes results in a fixed field order
type Exporter interface {
	Export(w io.Writer, results []*model.Result) error
}

// New returns the exporter for format
func New(format string) (Exporter, error) {
	switch strings.ToLower(format) {
	case FormatCSV:
		return csvExporter{}, nil
	case FormatJSON:
		return jsonExporter{}, nil
	case "", FormatJSONLines:
		return jsonLinesExporter{}, nil
	case FormatXML:
		return xmlExporter{}, nil
	default:
		return nil, eris.Errorf("export: unsupported format %q (supported: %s)", format, strings.Join(Formats, ", "))
	}
}

// FeedURI picks the output path: an explicit output wins, jsonlines
// defaults to results.json, any other format to results.<format>.
func FeedURI(output, format string) string {
	if output != "" {
		return output
	}
	if format == "" || format == FormatJSONLines {
		return "results.json"
	}
	return "results." + format
}

// WriteFile exports results to path, creating parent directories
func WriteFile(path, format string, results []*model.Result) (err error) {
	exp, err := New(format)
	if err != nil {
		return err
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return eris.Wrap(err, "export: create output dir")
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return eris.Wrap(err, "export: create output file")
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil && err == nil {
			err = eris.Wrap(closeErr, "export: close output file")
		}
	}()

	return exp.Export(f, results)
}

// item is the flat, ordered shape every exporter writes
type item struct {
	XMLName     xml.Name `json:"-" xml:"item"`
	Attribute   string   `json:"attribute" xml:"attribute"`
	Value       string   `json:"value" xml:"value"`
	Conditions  string   `json:"conditions" xml:"conditions"`
	Source      string   `json:"source" xml:"source"`
	Reliability string   `json:"reliability" xml:"reliability"`
}

func toItem(r *model.Result) item {
	return item{
		Attribute:   r.Get(model.FieldAttribute),
		Value:       r.Get(model.FieldValue),
		Conditions:  r.Get(model.FieldConditions),
		Source:      r.Get(model.FieldSource),
		Reliability: r.Get(model.FieldReliability),
	}
}

type csvExporter struct{}

func (csvExporter) Export(w io.Writer, results []*model.Result) error {
	cw := csv.NewWriter(w)
	header := make([]string, len(model.Fields))
	for i, f := range model.Fields {
		header[i] = string(f)
	}
	if err := cw.Write(header); err != nil {
		return eris.Wrap(err, "export: write csv header")
	}
	for _, r := range results {
		if err := cw.Write(r.Values()); err != nil {
			return eris.Wrap(err, "export: write csv row")
		}
	}
	cw.Flush()
	return eris.Wrap(cw.Error(), "export: flush csv")
}

type jsonExporter struct{}

func (jsonExporter) Export(w io.Writer, results []*model.Result) error {
	items := make([]item, len(results))
	for i, r := range results {
		items[i] = toItem(r)
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return eris.Wrap(enc.Encode(items), "export: encode json")
}

type jsonLinesExporter struct{}

func (jsonLinesExporter) Export(w io.Writer, results []*model.Result) error {
	enc := json.NewEncoder(w)
	for _, r := range results {
		if err := enc.Encode(toItem(r)); err != nil {
			return eris.Wrap(err, "export: encode json line")
		}
	}
	return nil
}

type xmlExporter struct{}

func (xmlExporter) Export(w io.Writer, results []*model.Result) error {
	feed := struct {
		XMLName xml.Name `xml:"items"`
		Items   []item
	}{}
	for _, r := range results {
		feed.Items = append(feed.Items, toItem(r))
	}

	if _, err := io.WriteString(w, xml.Header); err != nil {
		return eris.Wrap(err, "export: write xml header")
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	if err := enc.Encode(feed); err != nil {
		return eris.Wrap(err, "export: encode xml")
	}
	_, err := io.WriteString(w, "\n")
	return eris.Wrap(err, "export: write xml")
}
