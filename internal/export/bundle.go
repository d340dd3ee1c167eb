package export

import (
	"archive/zip"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"

	"github.com/theirongolddev/budgetlens/internal/model"
	"github.com/theirongolddev/budgetlens/internal/pipeline"
)

// Bundle member names.
const (
	DashboardFile = "Executive_Dashboard.xlsx"
	AnalysisFile  = "analysis.json"
	ManifestFile  = "manifest.json"
)

// PlaybookRef names a playbook selected for the bundle.
type PlaybookRef struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// Manifest describes the contents of an executive bundle.
type Manifest struct {
	BundleID      string        `json:"bundle_id"`
	CreatedAt     time.Time     `json:"created_at"`
	Tier          string        `json:"tier"`
	Files         []string      `json:"files"`
	Rows          int           `json:"rows"`
	Groups        int           `json:"groups"`
	Scenarios     int           `json:"scenarios"`
	Crossings     int           `json:"crossings"`
	NextActions   int           `json:"next_actions"`
	Playbooks     []PlaybookRef `json:"playbooks"`
	AccuracyScore *float64      `json:"accuracy_score,omitempty"`
}

// Analysis is the JSON document stored in the bundle.
type Analysis struct {
	KPIs   model.Summary `json:"kpis"`
	Groups *model.Table  `json:"groups"`
	*pipeline.Result
}

// NewManifest counts what res contains.
func NewManifest(res *pipeline.Result) Manifest {
	m := Manifest{
		BundleID:      uuid.NewString(),
		CreatedAt:     time.Now().UTC(),
		Tier:          res.Tier,
		Files:         []string{DashboardFile, AnalysisFile, ManifestFile},
		Rows:          res.Table.Len(),
		Playbooks:     []PlaybookRef{},
		AccuracyScore: res.Accuracy,
	}
	if res.Summary != nil {
		m.Groups = res.Summary.Len()
	}
	if res.Scenarios != nil {
		m.Scenarios = len(res.Scenarios.Scenarios)
	}
	if res.Alerts != nil {
		m.Crossings = len(res.Alerts.Crossings)
	}
	if res.Suggestion != nil {
		m.NextActions = len(res.Suggestion.NextActions)
	}
	for _, pb := range res.Playbooks {
		m.Playbooks = append(m.Playbooks, PlaybookRef{ID: pb.ID, Title: pb.Title})
	}
	return m
}

// WriteBundle writes the executive ZIP (dashboard workbook, analysis
// JSON and manifest) to w and returns the manifest it wrote.
func WriteBundle(w io.Writer, res *pipeline.Result, opts Options) (Manifest, error) {
	manifest := NewManifest(res)

	var xlsx bytes.Buffer
	if err := WriteWorkbook(&xlsx, res, opts); err != nil {
		return manifest, err
	}

	sum := pipeline.SummaryOf(res.Table)
	if res.Suggestion != nil {
		sum = res.Suggestion.Summary
	}
	analysis, err := json.MarshalIndent(Analysis{KPIs: sum, Groups: res.Summary, Result: res}, "", "  ")
	if err != nil {
		return manifest, fmt.Errorf("encoding analysis: %w", err)
	}
	mf, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return manifest, fmt.Errorf("encoding manifest: %w", err)
	}

	zw := zip.NewWriter(w)
	members := []struct {
		name string
		data []byte
	}{
		{DashboardFile, xlsx.Bytes()},
		{AnalysisFile, analysis},
		{ManifestFile, mf},
	}
	for _, m := range members {
		fw, err := zw.CreateHeader(&zip.FileHeader{
			Name:     m.name,
			Method:   zip.Deflate,
			Modified: manifest.CreatedAt,
		})
		if err != nil {
			return manifest, fmt.Errorf("adding %s: %w", m.name, err)
		}
		if _, err := fw.Write(m.data); err != nil {
			return manifest, fmt.Errorf("writing %s: %w", m.name, err)
		}
	}
	if err := zw.Close(); err != nil {
		return manifest, fmt.Errorf("closing bundle: %w", err)
	}
	return manifest, nil
}
