// Package widget serves the interactive prior/posterior panel and maps its
// slider and button events onto the posterior model.
package widget

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"html/template"

	"github.com/nvandessel/bayesplot/internal/plot"
	"github.com/nvandessel/bayesplot/internal/posterior"
)

// PageTitle is the browser tab title.
const PageTitle = "Normal likelihood: unknown mean"

// Slider describes one range control on the panel.
type Slider struct {
	ID    string  `json:"id"`
	Title string  `json:"title"`
	Value float64 `json:"value"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Step  float64 `json:"step"`
}

// Sliders returns the panel controls positioned at p.
func Sliders(p posterior.Params) []Slider {
	return []Slider{
		{ID: "mu0", Title: "mu_0", Value: p.Mu0, Start: posterior.MinMu0, End: posterior.MaxMu0, Step: 0.1},
		{ID: "sigma0", Title: "sigma_0", Value: p.Sigma0, Start: posterior.MinSigma, End: posterior.MaxSigma, Step: 0.1},
		{ID: "sigma", Title: "sigma", Value: p.Sigma, Start: posterior.MinSigma, End: posterior.MaxSigma, Step: 0.1},
		{ID: "n", Title: "n", Value: float64(p.N), Start: 0, End: posterior.MaxObservations, Step: 1},
	}
}

// pageTemplateData holds data passed to the HTML template.
// PanelSrc is a data: URI for loading the panel script via <script src>.
// SnapshotJSON is pre-sanitized JSON (via json.HTMLEscape) safe for inline <script>.
type pageTemplateData struct {
	Title        string
	PlotTitle    string
	Sliders      []Slider
	PanelSrc     template.URL
	SnapshotJSON template.JS
}

// RenderHTML produces the panel page with the initial snapshot inlined.
func RenderHTML(snap posterior.Snapshot) ([]byte, error) {
	snapJSON, err := json.Marshal(snap)
	if err != nil {
		return nil, fmt.Errorf("marshal snapshot: %w", err)
	}

	jsBytes, err := assets.ReadFile("assets/panel.js")
	if err != nil {
		return nil, fmt.Errorf("read panel.js: %w", err)
	}

	tmplBytes, err := templates.ReadFile("templates/panel.html.tmpl")
	if err != nil {
		return nil, fmt.Errorf("read HTML template: %w", err)
	}

	tmpl, err := template.New("panel").Parse(string(tmplBytes))
	if err != nil {
		return nil, fmt.Errorf("parse HTML template: %w", err)
	}

	var escaped bytes.Buffer
	json.HTMLEscape(&escaped, snapJSON)

	var buf bytes.Buffer
	data := pageTemplateData{
		Title:     PageTitle,
		PlotTitle: plot.Title,
		Sliders:   Sliders(snap.Params),
		// PanelSrc: trusted embedded asset.
		PanelSrc: template.URL("data:text/javascript;base64," + base64.StdEncoding.EncodeToString(jsBytes)), // #nosec G203
		// SnapshotJSON: numbers only, HTML-escaped.
		SnapshotJSON: template.JS(escaped.String()), // #nosec G203
	}
	if err := tmpl.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("execute HTML template: %w", err)
	}

	return buf.Bytes(), nil
}
