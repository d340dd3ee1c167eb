package server

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/theirongolddev/budgetlens/internal/cli"
	"github.com/theirongolddev/budgetlens/internal/export"
	"github.com/theirongolddev/budgetlens/internal/model"
	"github.com/theirongolddev/budgetlens/internal/pipeline"
	"github.com/theirongolddev/budgetlens/internal/playbook"
	"github.com/theirongolddev/budgetlens/internal/source"
)

const (
	xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	previewRows     = 50
)

// request carries a processed upload to a renderer.
type request struct {
	id    string
	res   *pipeline.Result
	opts  pipeline.Options
	scale cli.Scale
}

type renderFunc func(w http.ResponseWriter, req *request) error

// errorBody is the JSON shape of every error response.
type errorBody struct {
	Error     string   `json:"error"`
	RequestID string   `json:"request_id"`
	Missing   []string `json:"missing,omitempty"`
	Found     []string `json:"found,omitempty"`
}

func needScenarios(f pipeline.Features) bool       { return f.Scenarios }
func needAlerts(f pipeline.Features) bool          { return f.Alerts }
func needRecommendations(f pipeline.Features) bool { return f.Recommendations }
func needScaling(f pipeline.Features) bool         { return f.Scaling }
func needExecBundle(f pipeline.Features) bool      { return f.ExecBundle }

// upload wraps a renderer with request ids, logging, tier gating, upload
// parsing and pipeline execution.
func (s *Service) upload(endpoint string, need func(pipeline.Features) bool, render renderFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		id := uuid.NewString()
		w.Header().Set("X-Request-ID", id)
		log := s.log.With("request_id", id, "endpoint", endpoint)

		run := Run{
			RequestID: id,
			Endpoint:  endpoint,
			Tier:      s.cfg.Options.Tier,
			At:        start,
		}
		status, err := s.serveUpload(w, r, endpoint, need, render, &run)
		run.Status = status
		run.DurationMS = time.Since(start).Milliseconds()
		if err != nil {
			run.Error = err.Error()
			log.Warn("upload rejected", "status", status, "file", run.File, "err", err)
		} else {
			log.Info("upload processed",
				"status", status,
				"file", run.File,
				"rows", run.Rows,
				"duration_ms", run.DurationMS,
			)
		}
		s.record(run)
	}
}

func (s *Service) serveUpload(w http.ResponseWriter, r *http.Request, endpoint string, need func(pipeline.Features) bool, render renderFunc, run *Run) (int, error) {
	id := run.RequestID
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		return fail(w, id, http.StatusMethodNotAllowed, errors.New("method not allowed"))
	}

	opts := s.cfg.Options
	if need != nil && !need(opts.Features) {
		return fail(w, id, http.StatusForbidden, fmt.Errorf("%s is not available on the %s tier", endpoint, opts.Tier))
	}

	scale, err := queryOptions(r, &opts, s.cfg.Scale)
	if err != nil {
		return fail(w, id, http.StatusBadRequest, err)
	}

	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes)
	file, hdr, err := r.FormFile("file")
	if err != nil {
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) {
			return fail(w, id, http.StatusRequestEntityTooLarge, fmt.Errorf("upload exceeds %d bytes", mbe.Limit))
		}
		return fail(w, id, http.StatusBadRequest, fmt.Errorf("reading upload field \"file\": %w", err))
	}
	defer func() { _ = file.Close() }()
	run.File = hdr.Filename

	raw, err := source.Read(file, hdr.Filename)
	if err != nil {
		if source.IsInputError(err) {
			return fail(w, id, http.StatusBadRequest, err)
		}
		return fail(w, id, http.StatusInternalServerError, err)
	}

	res, err := pipeline.Run(raw, opts)
	if err != nil {
		var mce *pipeline.MissingColumnsError
		if errors.As(err, &mce) {
			writeJSON(w, http.StatusBadRequest, errorBody{
				Error:     mce.Error(),
				RequestID: id,
				Missing:   mce.Missing,
				Found:     mce.Found,
			})
			return http.StatusBadRequest, err
		}
		return fail(w, id, http.StatusInternalServerError, err)
	}

	run.Rows = res.Table.Len()
	run.TotalPlanned = pipeline.Total(res.Table, model.ColPlanned)
	run.TotalVariance = pipeline.Total(res.Table, model.ColVariance)
	if res.Alerts != nil {
		run.Crossings = len(res.Alerts.Crossings)
	}

	if err := render(w, &request{id: id, res: res, opts: opts, scale: scale}); err != nil {
		return fail(w, id, http.StatusInternalServerError, err)
	}
	return http.StatusOK, nil
}

// queryOptions applies ?threshold= and ?scale= overrides.
func queryOptions(r *http.Request, opts *pipeline.Options, scale cli.Scale) (cli.Scale, error) {
	q := r.URL.Query()
	if v := q.Get("threshold"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil || f < 0 {
			return scale, fmt.Errorf("invalid threshold %q: want a non-negative fraction such as 0.08", v)
		}
		opts.Thresholds.AlertPct = f
	}
	if v := q.Get("scale"); v != "" {
		sc, err := cli.ParseScale(v)
		if err != nil {
			return scale, err
		}
		scale = sc
	}
	return scale, nil
}

func fail(w http.ResponseWriter, id string, status int, err error) (int, error) {
	writeJSON(w, status, errorBody{Error: err.Error(), RequestID: id})
	return status, err
}

func (s *Service) renderAnalyze(w http.ResponseWriter, req *request) error {
	writeJSON(w, http.StatusOK, formatMoney(req.res.Summary, req.scale))
	return nil
}

func (s *Service) renderCalculate(w http.ResponseWriter, req *request) error {
	writeJSON(w, http.StatusOK, req.res.Table)
	return nil
}

func (s *Service) renderScenarios(w http.ResponseWriter, req *request) error {
	writeJSON(w, http.StatusOK, req.res.Scenarios)
	return nil
}

func (s *Service) renderAlerts(w http.ResponseWriter, req *request) error {
	writeJSON(w, http.StatusOK, req.res.Alerts)
	return nil
}

func (s *Service) renderSuggest(w http.ResponseWriter, req *request) error {
	pbs := req.res.Playbooks
	if pbs == nil {
		pbs = []playbook.Playbook{}
	}
	writeJSON(w, http.StatusOK, struct {
		Suggestion *model.Suggestion   `json:"suggestion"`
		Playbooks  []playbook.Playbook `json:"playbooks"`
	}{req.res.Suggestion, pbs})
	return nil
}

func (s *Service) renderProcess(w http.ResponseWriter, req *request) error {
	writeJSON(w, http.StatusOK, struct {
		Tier       string               `json:"tier"`
		Scale      cli.Scale            `json:"scale"`
		Preview    *model.Table         `json:"preview"`
		Suggestion *model.Suggestion    `json:"suggestion,omitempty"`
		Accuracy   *float64             `json:"accuracy_score,omitempty"`
		Realloc    []model.Reallocation `json:"reallocation,omitempty"`
	}{
		Tier:       req.res.Tier,
		Scale:      req.scale,
		Preview:    displayColumns(req.res.Table.Head(previewRows), req.scale),
		Suggestion: req.res.Suggestion,
		Accuracy:   req.res.Accuracy,
		Realloc:    req.res.Realloc,
	})
	return nil
}

func (s *Service) exportOptions(req *request) export.Options {
	opts := export.DefaultOptions()
	opts.Scale = req.scale
	opts.TopN = req.opts.Thresholds.TopN * 2
	opts.Dimensions = req.opts.Columns.Drilldown
	return opts
}

func (s *Service) renderReport(w http.ResponseWriter, req *request) error {
	var buf bytes.Buffer
	if err := export.WriteWorkbook(&buf, req.res, s.exportOptions(req)); err != nil {
		return err
	}
	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=executive_dashboard_%s.xlsx", req.scale))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
	return nil
}

func (s *Service) renderReportExec(w http.ResponseWriter, req *request) error {
	var buf bytes.Buffer
	m, err := export.WriteBundle(&buf, req.res, s.exportOptions(req))
	if err != nil {
		return err
	}
	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", "attachment; filename=executive_bundle.zip")
	w.Header().Set("X-Bundle-ID", m.BundleID)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
	return nil
}

// formatMoney returns a copy of t with money columns rendered as
// separated strings, e.g. "10,000.00".
func formatMoney(t *model.Table, scale cli.Scale) *model.Table {
	out := t.Clone()
	for _, col := range cli.MoneyColumns {
		idx := out.Index(col)
		if idx < 0 {
			continue
		}
		for i := range out.Rows {
			out.Rows[i][idx] = model.Text(cli.FormatCell(out.Rows[i][idx], col, scale))
		}
	}
	return out
}

// displayColumns returns a copy of t with a "<col> (disp)" string column
// next to every money and percent column. Numeric columns are unchanged.
func displayColumns(t *model.Table, scale cli.Scale) *model.Table {
	out := t.Clone()
	for _, col := range t.Columns {
		if !cli.IsMoneyColumn(col) && !cli.IsPercentColumn(col) {
			continue
		}
		vals := make([]model.Value, out.Len())
		for i := range vals {
			vals[i] = model.Text(cli.FormatCell(out.Get(i, col), col, scale))
		}
		out.SetColumn(col+" (disp)", vals)
	}
	return out
}
