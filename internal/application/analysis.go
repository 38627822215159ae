package application

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ptlab/ptstat/internal/domain"
	"github.com/ptlab/ptstat/internal/ports"
	"github.com/ptlab/ptstat/internal/stats"
)

// RoundObserver receives lifecycle notifications around a round analysis.
// Implementations add tracing or other cross-cutting concerns without
// touching the numerical pipeline.
type RoundObserver interface {
	// RoundStarted is called before the analysis begins. The returned
	// context is threaded through the analysis, so observers may attach
	// spans to it.
	RoundStarted(ctx context.Context, analyte string, participants int) context.Context

	// RoundCompleted is called after the analysis finished, successfully
	// or not.
	RoundCompleted(ctx context.Context, analyte string, elapsed time.Duration, err error)
}

// ParticipantScore is one laboratory's scored result within a report.
type ParticipantScore struct {
	// ParticipantID is the laboratory identifier from the dataset.
	ParticipantID string `json:"participant_id"`

	// Result is the reported measurement value.
	Result float64 `json:"result"`

	// Z is the z-score against sigma_pt.
	Z domain.Score `json:"z"`

	// ZPrime is the zeta-score against the combined uncertainties.
	// Nil when no uncertainty information allowed one to be computed.
	ZPrime *domain.Score `json:"z_prime,omitempty"`
}

// RoundReport is the complete outcome of one proficiency-testing round
// for a single analyte.
type RoundReport struct {
	// Analyte names the measurand this round assessed.
	Analyte string `json:"analyte,omitempty"`

	// AssignedValue is the reference value x_pt with its provenance.
	AssignedValue domain.AssignedValue `json:"assigned_value"`

	// Uncertainty is the standard uncertainty of the assigned value.
	Uncertainty domain.UncertaintyEstimate `json:"uncertainty"`

	// SigmaPT is the standard deviation for proficiency assessment the
	// z-scores were computed against.
	SigmaPT float64 `json:"sigma_pt"`

	// Estimate carries the Algorithm A outcome for consensus rounds.
	Estimate *domain.RobustEstimate `json:"robust_estimate,omitempty"`

	// Scores holds the per-participant performance results in dataset
	// order.
	Scores []ParticipantScore `json:"scores"`
}

// Analyzer runs proficiency-testing rounds according to a validated
// configuration. It is immutable after construction and safe for
// concurrent use.
type Analyzer struct {
	cfg       Config
	estimator ports.Estimator
	metrics   ports.MetricsCollector
	observer  RoundObserver
}

// AnalyzerOption customizes an Analyzer at construction time.
type AnalyzerOption func(*Analyzer)

// WithEstimator replaces the default Algorithm A estimator, typically
// with an instrumented wrapper.
func WithEstimator(e ports.Estimator) AnalyzerOption {
	return func(a *Analyzer) { a.estimator = e }
}

// WithMetrics attaches a metrics collector recording analysis latency
// and outcomes.
func WithMetrics(m ports.MetricsCollector) AnalyzerOption {
	return func(a *Analyzer) { a.metrics = m }
}

// WithObserver attaches a lifecycle observer, typically for tracing.
func WithObserver(o RoundObserver) AnalyzerOption {
	return func(a *Analyzer) { a.observer = o }
}

// NewAnalyzer validates the configuration and builds an analyzer for it.
func NewAnalyzer(cfg Config, opts ...AnalyzerOption) (*Analyzer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	estimator, err := stats.NewAlgorithmA(cfg.Calculation.AlgorithmA)
	if err != nil {
		return nil, err
	}

	a := &Analyzer{cfg: cfg, estimator: estimator}
	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

// Analyze runs one round over the dataset: it derives the assigned value
// by the configured method, its standard uncertainty, and the
// per-participant scores. Failures are reported on the first violated
// precondition; no partial report is produced.
func (a *Analyzer) Analyze(ctx context.Context, analyte string, ds *Dataset) (*RoundReport, error) {
	if a.observer != nil {
		ctx = a.observer.RoundStarted(ctx, analyte, len(ds.Participants))
	}
	start := time.Now()

	report, err := a.analyze(ctx, analyte, ds)

	elapsed := time.Since(start)
	if a.observer != nil {
		a.observer.RoundCompleted(ctx, analyte, elapsed, err)
	}
	if a.metrics != nil {
		labels := map[string]string{"analyte": analyte, "method": string(a.cfg.Calculation.Method)}
		a.metrics.RecordLatency("round_analysis", elapsed, labels)
		status := "success"
		if err != nil {
			status = "error"
		}
		labels["status"] = status
		a.metrics.RecordCounter("round_analyses_total", 1, labels)
	}
	return report, err
}

func (a *Analyzer) analyze(ctx context.Context, analyte string, ds *Dataset) (*RoundReport, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	results := ds.Results()

	assigned, uncertainty, estimate, err := a.assignedValue(results)
	if err != nil {
		return nil, fmt.Errorf("assigned value (%s): %w", a.cfg.Calculation.Method, err)
	}

	zValues, err := stats.ZScores(results, assigned.XPt, a.cfg.Calculation.SigmaPT)
	if err != nil {
		return nil, fmt.Errorf("z-scores: %w", err)
	}
	zScores := stats.BuildScores(zValues, domain.KindZ)

	zPrimeScores, err := a.zetaScores(ds, results, assigned.XPt, uncertainty.UXPt)
	if err != nil {
		return nil, fmt.Errorf("zeta-scores: %w", err)
	}

	scores := make([]ParticipantScore, len(ds.Participants))
	for i, p := range ds.Participants {
		scores[i] = ParticipantScore{ParticipantID: p.ID, Result: p.Result, Z: zScores[i]}
		if zPrimeScores != nil {
			scores[i].ZPrime = &zPrimeScores[i]
		}
	}

	return &RoundReport{
		Analyte:       analyte,
		AssignedValue: assigned,
		Uncertainty:   uncertainty,
		SigmaPT:       a.cfg.Calculation.SigmaPT,
		Estimate:      estimate,
		Scores:        scores,
	}, nil
}

// assignedValue dispatches on the configured method. Consensus runs the
// robust estimator; the other methods are validated pass-throughs of the
// configured scalars.
func (a *Analyzer) assignedValue(results []float64) (domain.AssignedValue, domain.UncertaintyEstimate, *domain.RobustEstimate, error) {
	calc := a.cfg.Calculation
	switch calc.Method {
	case CalcAlgorithmA:
		estimate, err := a.estimator.Estimate(results)
		if err != nil {
			return domain.AssignedValue{}, domain.UncertaintyEstimate{}, nil, err
		}
		uncertainty, err := stats.ConsensusUncertainty(estimate.SStar, estimate.ParticipantsUsed)
		if err != nil {
			return domain.AssignedValue{}, domain.UncertaintyEstimate{}, nil, err
		}
		return stats.FromConsensus(estimate), uncertainty, &estimate, nil

	case CalcCRM:
		if calc.CRM.CertifiedValue == nil || calc.CRM.Uncertainty == nil {
			return domain.AssignedValue{}, domain.UncertaintyEstimate{}, nil,
				domain.NewInvalidInputError("CRM method requires certified_value and uncertainty")
		}
		assigned, err := stats.FromCRM(*calc.CRM.CertifiedValue)
		if err != nil {
			return domain.AssignedValue{}, domain.UncertaintyEstimate{}, nil, err
		}
		uncertainty, err := stats.CRMUncertainty(*calc.CRM.Uncertainty)
		if err != nil {
			return domain.AssignedValue{}, domain.UncertaintyEstimate{}, nil, err
		}
		return assigned, uncertainty, nil, nil

	case CalcFormulation:
		if calc.Formulation.KnownValue == nil || calc.Formulation.Uncertainty == nil {
			return domain.AssignedValue{}, domain.UncertaintyEstimate{}, nil,
				domain.NewInvalidInputError("formulation method requires known_value and uncertainty")
		}
		assigned, err := stats.FromFormulation(*calc.Formulation.KnownValue)
		if err != nil {
			return domain.AssignedValue{}, domain.UncertaintyEstimate{}, nil, err
		}
		uncertainty, err := stats.FormulationUncertainty(*calc.Formulation.Uncertainty)
		if err != nil {
			return domain.AssignedValue{}, domain.UncertaintyEstimate{}, nil, err
		}
		return assigned, uncertainty, nil, nil

	case CalcExpert:
		if calc.ExpertConsensus.ConsensusValue == nil {
			return domain.AssignedValue{}, domain.UncertaintyEstimate{}, nil,
				domain.NewInvalidInputError("expert method requires consensus_value")
		}
		assigned, err := stats.FromExpertConsensus(*calc.ExpertConsensus.ConsensusValue)
		if err != nil {
			return domain.AssignedValue{}, domain.UncertaintyEstimate{}, nil, err
		}
		// Without a pre-agreed uncertainty the standard error of the
		// mean of the raw results stands in for it.
		var uncertainty domain.UncertaintyEstimate
		if calc.ExpertConsensus.Uncertainty != nil {
			uncertainty, err = stats.ExpertUncertainty(*calc.ExpertConsensus.Uncertainty)
		} else {
			uncertainty, err = stats.ExpertUncertaintyFromResults(results)
		}
		if err != nil {
			return domain.AssignedValue{}, domain.UncertaintyEstimate{}, nil, err
		}
		return assigned, uncertainty, nil, nil

	default:
		return domain.AssignedValue{}, domain.UncertaintyEstimate{}, nil,
			&domain.InternalError{Message: fmt.Sprintf("unknown calculation method %q", calc.Method)}
	}
}

// zetaScores computes zeta-scores when the available uncertainty
// information permits: the full combined formula when every participant
// reported an uncertainty, the assigned-only variant when u(x_pt) alone
// is positive, and none otherwise.
func (a *Analyzer) zetaScores(ds *Dataset, results []float64, xPt, uXPt float64) ([]domain.Score, error) {
	if uncertainties, ok := ds.Uncertainties(); ok {
		values, err := stats.ZPrimeScores(results, uncertainties, xPt, uXPt)
		if err != nil {
			return nil, err
		}
		return stats.BuildScores(values, domain.KindZPrime), nil
	}
	if uXPt > 0 {
		values, err := stats.ZPrimeScoresAssignedOnly(results, xPt, uXPt)
		if err != nil {
			return nil, err
		}
		return stats.BuildScores(values, domain.KindZPrime), nil
	}
	return nil, nil
}

// AnalyzeRounds runs one analysis per analyte concurrently. Rounds are
// independent by construction, so they parallelize without coordination;
// the first failure cancels the remaining rounds.
func (a *Analyzer) AnalyzeRounds(ctx context.Context, rounds map[string]*Dataset) (map[string]*RoundReport, error) {
	g, ctx := errgroup.WithContext(ctx)

	var mu sync.Mutex
	reports := make(map[string]*RoundReport, len(rounds))

	for analyte, ds := range rounds {
		g.Go(func() error {
			report, err := a.Analyze(ctx, analyte, ds)
			if err != nil {
				return fmt.Errorf("analyte %s: %w", analyte, err)
			}
			mu.Lock()
			reports[analyte] = report
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return reports, nil
}
