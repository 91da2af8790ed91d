package app

import (
	"context"
	"fmt"
	"time"

	"fmeagraph/domain/analysis"
	"fmeagraph/domain/core"
	"fmeagraph/domain/fmea"
	"fmeagraph/internal"
	apperrors "fmeagraph/internal/errors"
	"fmeagraph/internal/estimator"
	"fmeagraph/internal/ingestion"
	"fmeagraph/internal/network"
	"fmeagraph/internal/ranking"
	"fmeagraph/ports"
)

// AnalysisService runs the synthesis pipeline: ingest every dataset, estimate
// cause probabilities, assemble one network per process and rank causes
type AnalysisService struct {
	options   ingestion.Options
	assembler *network.Assembler
	repo      ports.AnalysisRepository
	logger    *internal.Logger
}

// AnalyzeRequest defines the inputs of one run
type AnalyzeRequest struct {
	Source      string
	Fingerprint core.Hash
	Datasets    []ingestion.Dataset
	Save        bool // persist the record; requires a repository
}

// ProcessResult is everything produced for one successfully ingested dataset
type ProcessResult struct {
	Process     *fmea.Process
	Network     *network.Network
	Estimates   []estimator.Result // indexed like Process.FailureModes()
	Rankings    []ranking.ErrorRanking
	Diagnostics []analysis.Diagnostic
}

// Analysis is the live result of a run
type Analysis struct {
	ID          core.AnalysisID
	Source      string
	Fingerprint core.Hash
	CreatedAt   time.Time
	Processes   []ProcessResult
	Failures    []analysis.DatasetFailure
}

// NewAnalysisService creates the pipeline service. repo may be nil when
// persistence is disabled.
func NewAnalysisService(options ingestion.Options, repo ports.AnalysisRepository, logger *internal.Logger) *AnalysisService {
	if logger == nil {
		logger = internal.Discard
	}
	return &AnalysisService{
		options:   options,
		assembler: network.NewAssembler(logger),
		repo:      repo,
		logger:    logger.With("AnalysisService"),
	}
}

// Analyze processes the datasets in order. A dataset that fails ingestion or
// assembly is reported in Failures and the run continues with the next one.
func (s *AnalysisService) Analyze(ctx context.Context, req AnalyzeRequest) (*Analysis, error) {
	if req.Save && s.repo == nil {
		return nil, apperrors.ConfigInvalid("persistence is not configured (set DATABASE_URL)")
	}

	result := &Analysis{
		ID:          core.AnalysisID(core.NewID()),
		Source:      req.Source,
		Fingerprint: req.Fingerprint,
		CreatedAt:   time.Now().UTC(),
	}
	session := ingestion.NewSession(ingestion.NewNormalizer(s.options, s.logger))

	for _, ds := range req.Datasets {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		p, err := session.Ingest(ds)
		if err != nil {
			s.logger.Warn("dataset %q skipped: %v", ds.Name, err)
			result.Failures = append(result.Failures, datasetFailure(ds.Name, err))
			continue
		}

		pr, err := s.synthesize(p)
		if err != nil {
			s.logger.Warn("process %q not assembled: %v", p.Name, err)
			result.Failures = append(result.Failures, datasetFailure(ds.Name, err))
			continue
		}
		result.Processes = append(result.Processes, *pr)
	}

	s.logger.Info("analysis %s: %d processes, %d failed datasets",
		result.ID, len(result.Processes), len(result.Failures))

	if req.Save {
		rec, err := result.Record()
		if err != nil {
			return nil, err
		}
		if err := s.repo.Save(ctx, rec); err != nil {
			return nil, apperrors.Wrap(err, "failed to save analysis")
		}
	}
	return result, nil
}

// synthesize estimates, assembles and ranks one process
func (s *AnalysisService) synthesize(p *fmea.Process) (*ProcessResult, error) {
	pr := &ProcessResult{Process: p}

	for i, fm := range p.FailureModes() {
		est, err := estimator.Estimate(fm)
		if err != nil {
			pr.Diagnostics = append(pr.Diagnostics, diagnostic(core.ErrorKey(p.Index, i).String(), err))
		}
		pr.Estimates = append(pr.Estimates, est)
	}

	net, err := s.assembler.Assemble(p)
	if err != nil {
		return nil, err
	}
	pr.Network = net
	for _, d := range net.Diagnostics {
		pr.Diagnostics = append(pr.Diagnostics, diagnostic(d.Key.String(), d.Err))
	}

	rankings, errs := ranking.RankProcess(p)
	pr.Rankings = rankings
	for _, err := range errs {
		pr.Diagnostics = append(pr.Diagnostics, diagnostic("", err))
	}
	return pr, nil
}

// Process returns the result for the given process index
func (a *Analysis) Process(index int) (*ProcessResult, error) {
	for i := range a.Processes {
		if a.Processes[i].Process.Index == index {
			return &a.Processes[i], nil
		}
	}
	return nil, core.NewNotFoundError("process", fmt.Sprint(index))
}

// Record converts the live result into its stored form
func (a *Analysis) Record() (*analysis.Record, error) {
	rec := &analysis.Record{
		ID:          a.ID,
		Source:      a.Source,
		Fingerprint: a.Fingerprint,
		CreatedAt:   a.CreatedAt,
		Failures:    a.Failures,
	}
	for _, pr := range a.Processes {
		p, err := pr.summary()
		if err != nil {
			return nil, err
		}
		rec.Processes = append(rec.Processes, p)
	}
	return rec, nil
}

func (pr *ProcessResult) summary() (analysis.Process, error) {
	dot, err := pr.Network.MarshalDOT()
	if err != nil {
		return analysis.Process{}, apperrors.Wrapf(err, "render process %q", pr.Process.Name)
	}

	out := analysis.Process{
		Index:       pr.Process.Index,
		Name:        pr.Process.Name,
		Diagnostics: pr.Diagnostics,
		NodeCount:   len(pr.Network.Nodes()),
		EdgeCount:   pr.Network.EdgeCount(),
		DOT:         string(dot),
	}

	modes := pr.Process.FailureModes()
	for _, r := range pr.Rankings {
		fm := modes[r.Index]
		summary := analysis.FailureMode{
			Name:         r.FailureMode,
			RiskPriority: r.RiskPriority,
			Residual:     r.Residual,
			Causes:       make([]analysis.RankedCause, 0, len(r.Causes)),
		}
		for _, rc := range r.Causes {
			summary.Causes = append(summary.Causes, analysis.RankedCause{
				Rank:        rc.Rank,
				Name:        rc.Cause.Name,
				RawWeight:   rc.Cause.RawWeight,
				Probability: rc.Probability,
			})
		}
		for _, e := range fm.Effects() {
			summary.Effects = append(summary.Effects, e.Name)
		}
		for _, act := range fm.Actions() {
			summary.Actions = append(summary.Actions, act.Description)
		}
		out.FailureModes = append(out.FailureModes, summary)
	}
	return out, nil
}

// Get loads a stored analysis
func (s *AnalysisService) Get(ctx context.Context, id core.AnalysisID) (*analysis.Record, error) {
	if s.repo == nil {
		return nil, apperrors.ConfigInvalid("persistence is not configured (set DATABASE_URL)")
	}
	return s.repo.Get(ctx, id)
}

// List returns stored analyses, newest first
func (s *AnalysisService) List(ctx context.Context, limit int) ([]*analysis.Record, error) {
	if s.repo == nil {
		return nil, apperrors.ConfigInvalid("persistence is not configured (set DATABASE_URL)")
	}
	return s.repo.List(ctx, limit)
}

func datasetFailure(name string, err error) analysis.DatasetFailure {
	return analysis.DatasetFailure{Dataset: name, Code: apperrors.GetCode(err), Message: err.Error()}
}

func diagnostic(node string, err error) analysis.Diagnostic {
	return analysis.Diagnostic{Node: node, Code: apperrors.GetCode(err), Message: err.Error()}
}
