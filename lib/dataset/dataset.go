// Package dataset is the output document every county scraper fills in.
//
// a Document is a value: the With* methods return a modified copy and
// never touch the receiver, so a half-built document can't escape a
// failed run.
package dataset

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"maps"
	"os"
	"slices"

	"github.com/titanous/json5"
)

//go:embed data_model.json5
var defaultTemplate []byte

type SeriesPoint struct {
	// formatted as YYYY-MM-DD
	Date       string `json:"date"`
	Cases      int    `json:"cases"`
	CumulCases int    `json:"cumul_cases"`
}

type Totals struct {
	Gender          map[string]int `json:"gender"`
	AgeGroup        map[string]int `json:"age_group"`
	RaceEth         map[string]int `json:"race_eth"`
	TransmissionCat map[string]int `json:"transmission_cat"`
}

func (t Totals) clone() Totals {
	return Totals{
		Gender:          maps.Clone(t.Gender),
		AgeGroup:        maps.Clone(t.AgeGroup),
		RaceEth:         maps.Clone(t.RaceEth),
		TransmissionCat: maps.Clone(t.TransmissionCat),
	}
}

// DeathTotals are only broken down by underlying condition for deaths.
type DeathTotals struct {
	Totals
	UnderlyingCond map[string]int `json:"underlying_cond"`
}

func (t DeathTotals) clone() DeathTotals {
	return DeathTotals{
		Totals:         t.Totals.clone(),
		UnderlyingCond: maps.Clone(t.UnderlyingCond),
	}
}

type Document struct {
	Name           string        `json:"name"`
	UpdateTime     string        `json:"update_time"`
	SourceUrl      string        `json:"source_url"`
	MetaFromSource string        `json:"meta_from_source"`
	MetaFromBaypd  string        `json:"meta_from_baypd"`
	Series         []SeriesPoint `json:"series"`
	CaseTotals     Totals        `json:"case_totals"`
	DeathTotals    DeathTotals   `json:"death_totals"`
}

func (d Document) clone() Document {
	out := d
	out.Series = slices.Clone(d.Series)
	out.CaseTotals = d.CaseTotals.clone()
	out.DeathTotals = d.DeathTotals.clone()
	return out
}

func (d Document) WithSource(name, sourceUrl, updateTime string) Document {
	out := d.clone()
	out.Name = name
	out.SourceUrl = sourceUrl
	out.UpdateTime = updateTime
	return out
}

func (d Document) WithAgeGroups(cases, deaths map[string]int) Document {
	out := d.clone()
	out.CaseTotals.AgeGroup = maps.Clone(cases)
	out.DeathTotals.AgeGroup = maps.Clone(deaths)
	return out
}

func (d Document) WithSeries(series []SeriesPoint) Document {
	out := d.clone()
	out.Series = slices.Clone(series)
	return out
}

func (d Document) JSON() ([]byte, error) {
	return json.MarshalIndent(d, "", "    ")
}

func parseTemplate(contents []byte) (Document, error) {
	var doc Document
	err := json5.Unmarshal(contents, &doc)
	if err != nil {
		return Document{}, err
	}
	if doc.Series == nil {
		doc.Series = []SeriesPoint{}
	}
	return doc, nil
}

// DefaultTemplate returns the built in empty document.
func DefaultTemplate() Document {
	doc, err := parseTemplate(defaultTemplate)
	if err != nil {
		panic(fmt.Sprintf("embedded data model is invalid: %s", err))
	}
	return doc
}

// LoadTemplate reads a document template from a json or json5 file.
func LoadTemplate(path string) (Document, error) {
	contents, err := os.ReadFile(path)
	if err != nil {
		return Document{}, err
	}
	doc, err := parseTemplate(contents)
	if err != nil {
		return Document{}, fmt.Errorf("parse template %s: %w", path, err)
	}
	return doc, nil
}
