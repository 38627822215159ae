package application

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ptlab/ptstat/internal/domain"
)

func floatPtr(v float64) *float64 { return &v }

func datasetFrom(results []float64, uncertainties []float64) *Dataset {
	ds := &Dataset{}
	for i, r := range results {
		p := Participant{ID: "LAB" + string(rune('A'+i)), Result: r}
		if uncertainties != nil {
			u := uncertainties[i]
			p.Uncertainty = &u
		}
		ds.Participants = append(ds.Participants, p)
	}
	return ds
}

func TestAnalyzer_Analyze_Consensus(t *testing.T) {
	cfg := DefaultConfig()
	analyzer, err := NewAnalyzer(cfg)
	require.NoError(t, err)

	ds := datasetFrom([]float64{9.8, 10.0, 10.2, 9.9, 10.1}, nil)
	report, err := analyzer.Analyze(context.Background(), "lead", ds)
	require.NoError(t, err)

	assert.Equal(t, "lead", report.Analyte)
	assert.Equal(t, domain.MethodConsensus, report.AssignedValue.Method)
	assert.InDelta(t, 10.0, report.AssignedValue.XPt, 0.05)
	require.NotNil(t, report.Estimate)
	assert.Equal(t, 5, report.Estimate.ParticipantsUsed)
	assert.Greater(t, report.Uncertainty.UXPt, 0.0)
	assert.Equal(t, domain.MethodConsensus, report.Uncertainty.Method)

	require.Len(t, report.Scores, 5)
	for i, s := range report.Scores {
		assert.Equal(t, ds.Participants[i].ID, s.ParticipantID)
		assert.Equal(t, domain.KindZ, s.Z.Kind)
		// Consensus u(x_pt) is positive, so assigned-only zeta-scores
		// exist even without participant uncertainties.
		require.NotNil(t, s.ZPrime)
		assert.Equal(t, domain.KindZPrime, s.ZPrime.Kind)
	}
	// Spread of 0.2 against sigma_pt 0.15 keeps everyone within |z| <= 2.
	assert.Equal(t, domain.Satisfactory, report.Scores[1].Z.Interpretation)
}

func TestAnalyzer_Analyze_ConsensusWithParticipantUncertainties(t *testing.T) {
	analyzer, err := NewAnalyzer(DefaultConfig())
	require.NoError(t, err)

	ds := datasetFrom(
		[]float64{9.8, 10.0, 10.2, 9.9, 10.1},
		[]float64{0.05, 0.05, 0.05, 0.05, 0.05},
	)
	report, err := analyzer.Analyze(context.Background(), "lead", ds)
	require.NoError(t, err)

	for _, s := range report.Scores {
		require.NotNil(t, s.ZPrime)
	}
}

func TestAnalyzer_Analyze_CRM(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Calculation.Method = CalcCRM
	cfg.Calculation.SigmaPT = 0.1
	cfg.Calculation.CRM = CRMParams{CertifiedValue: floatPtr(10.0), Uncertainty: floatPtr(0.03)}

	analyzer, err := NewAnalyzer(cfg)
	require.NoError(t, err)

	ds := datasetFrom([]float64{9.8, 10.0, 10.2}, nil)
	report, err := analyzer.Analyze(context.Background(), "lead", ds)
	require.NoError(t, err)

	assert.Equal(t, domain.MethodCRM, report.AssignedValue.Method)
	assert.Equal(t, 10.0, report.AssignedValue.XPt)
	assert.Equal(t, 0.03, report.Uncertainty.UXPt)
	assert.Nil(t, report.Estimate)

	assert.InDelta(t, -2.0, report.Scores[0].Z.Value, 1e-10)
	assert.InDelta(t, 0.0, report.Scores[1].Z.Value, 1e-10)
	assert.InDelta(t, 2.0, report.Scores[2].Z.Value, 1e-10)
}

func TestAnalyzer_Analyze_CRMRequiresCertificate(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Calculation.Method = CalcCRM

	analyzer, err := NewAnalyzer(cfg)
	require.NoError(t, err)

	_, err = analyzer.Analyze(context.Background(), "lead", datasetFrom([]float64{1, 2, 3}, nil))
	var invalidErr *domain.InvalidInputError
	require.ErrorAs(t, err, &invalidErr)
}

func TestAnalyzer_Analyze_Formulation(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Calculation.Method = CalcFormulation
	cfg.Calculation.Formulation = FormulationParams{KnownValue: floatPtr(7.25), Uncertainty: floatPtr(0.08)}

	analyzer, err := NewAnalyzer(cfg)
	require.NoError(t, err)

	report, err := analyzer.Analyze(context.Background(), "lead", datasetFrom([]float64{7.2, 7.3}, nil))
	require.NoError(t, err)
	assert.Equal(t, domain.MethodFormulation, report.AssignedValue.Method)
	assert.Equal(t, 7.25, report.AssignedValue.XPt)
	assert.Equal(t, 0.08, report.Uncertainty.UXPt)
}

func TestAnalyzer_Analyze_ExpertDerivesUncertaintyFromResults(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Calculation.Method = CalcExpert
	cfg.Calculation.ExpertConsensus = ExpertConsensusParams{ConsensusValue: floatPtr(10.0)}

	analyzer, err := NewAnalyzer(cfg)
	require.NoError(t, err)

	report, err := analyzer.Analyze(context.Background(), "lead",
		datasetFrom([]float64{10.0, 10.2, 9.8, 10.1, 9.9}, nil))
	require.NoError(t, err)

	assert.Equal(t, domain.MethodExpertConsensus, report.AssignedValue.Method)
	// Standard error of the mean of the raw results.
	assert.InDelta(t, 0.0707, report.Uncertainty.UXPt, 1e-3)
}

func TestAnalyzer_Analyze_ExpertUsesAgreedUncertainty(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Calculation.Method = CalcExpert
	cfg.Calculation.ExpertConsensus = ExpertConsensusParams{
		ConsensusValue: floatPtr(10.0),
		Uncertainty:    floatPtr(0.12),
	}

	analyzer, err := NewAnalyzer(cfg)
	require.NoError(t, err)

	report, err := analyzer.Analyze(context.Background(), "lead", datasetFrom([]float64{9.9, 10.1}, nil))
	require.NoError(t, err)
	assert.Equal(t, 0.12, report.Uncertainty.UXPt)
}

func TestAnalyzer_Analyze_PropagatesEstimatorErrors(t *testing.T) {
	analyzer, err := NewAnalyzer(DefaultConfig())
	require.NoError(t, err)

	_, err = analyzer.Analyze(context.Background(), "lead", datasetFrom([]float64{1, 2, 3}, nil))
	var insufficientErr *domain.InsufficientDataError
	require.ErrorAs(t, err, &insufficientErr)
	assert.Equal(t, 5, insufficientErr.Required)
	assert.Equal(t, 3, insufficientErr.Actual)
}

// lifecycleRecorder verifies observer and metrics hooks fire around an
// analysis.
type lifecycleRecorder struct {
	mu        sync.Mutex
	started   []string
	completed []string
	counters  []map[string]string
	latencies []string
}

func (lr *lifecycleRecorder) RoundStarted(ctx context.Context, analyte string, _ int) context.Context {
	lr.mu.Lock()
	defer lr.mu.Unlock()
	lr.started = append(lr.started, analyte)
	return ctx
}

func (lr *lifecycleRecorder) RoundCompleted(_ context.Context, analyte string, _ time.Duration, _ error) {
	lr.mu.Lock()
	defer lr.mu.Unlock()
	lr.completed = append(lr.completed, analyte)
}

func (lr *lifecycleRecorder) RecordLatency(operation string, _ time.Duration, _ map[string]string) {
	lr.mu.Lock()
	defer lr.mu.Unlock()
	lr.latencies = append(lr.latencies, operation)
}

func (lr *lifecycleRecorder) RecordCounter(_ string, _ float64, labels map[string]string) {
	lr.mu.Lock()
	defer lr.mu.Unlock()
	lr.counters = append(lr.counters, labels)
}

func (lr *lifecycleRecorder) RecordGauge(string, float64, map[string]string)     {}
func (lr *lifecycleRecorder) RecordHistogram(string, float64, map[string]string) {}

func TestAnalyzer_Analyze_NotifiesObserverAndMetrics(t *testing.T) {
	recorder := &lifecycleRecorder{}
	analyzer, err := NewAnalyzer(DefaultConfig(), WithObserver(recorder), WithMetrics(recorder))
	require.NoError(t, err)

	_, err = analyzer.Analyze(context.Background(), "lead",
		datasetFrom([]float64{9.8, 10.0, 10.2, 9.9, 10.1}, nil))
	require.NoError(t, err)

	assert.Equal(t, []string{"lead"}, recorder.started)
	assert.Equal(t, []string{"lead"}, recorder.completed)
	assert.Equal(t, []string{"round_analysis"}, recorder.latencies)
	require.Len(t, recorder.counters, 1)
	assert.Equal(t, "success", recorder.counters[0]["status"])
}

// fixedEstimator returns a canned estimate regardless of input.
type fixedEstimator struct {
	estimate domain.RobustEstimate
}

func (f fixedEstimator) Estimate([]float64) (domain.RobustEstimate, error) {
	return f.estimate, nil
}

func TestAnalyzer_WithEstimator(t *testing.T) {
	canned := domain.RobustEstimate{XPt: 10.0, SStar: 0.5, ParticipantsUsed: 5, Iterations: 2}
	analyzer, err := NewAnalyzer(DefaultConfig(), WithEstimator(fixedEstimator{estimate: canned}))
	require.NoError(t, err)

	report, err := analyzer.Analyze(context.Background(), "lead",
		datasetFrom([]float64{9.8, 10.0, 10.2, 9.9, 10.1}, nil))
	require.NoError(t, err)

	assert.Equal(t, 10.0, report.AssignedValue.XPt)
	require.NotNil(t, report.Estimate)
	assert.Equal(t, canned, *report.Estimate)
}

func TestAnalyzer_AnalyzeRounds(t *testing.T) {
	analyzer, err := NewAnalyzer(DefaultConfig())
	require.NoError(t, err)

	rounds := map[string]*Dataset{
		"lead":    datasetFrom([]float64{9.8, 10.0, 10.2, 9.9, 10.1}, nil),
		"cadmium": datasetFrom([]float64{1.0, 2.0, 3.0, 4.0, 5.0}, nil),
	}

	reports, err := analyzer.AnalyzeRounds(context.Background(), rounds)
	require.NoError(t, err)
	require.Len(t, reports, 2)
	assert.InDelta(t, 10.0, reports["lead"].AssignedValue.XPt, 0.05)
	assert.InDelta(t, 3.0, reports["cadmium"].AssignedValue.XPt, 0.1)
}

func TestAnalyzer_AnalyzeRounds_FirstFailureWins(t *testing.T) {
	analyzer, err := NewAnalyzer(DefaultConfig())
	require.NoError(t, err)

	rounds := map[string]*Dataset{
		"lead": datasetFrom([]float64{9.8, 10.0, 10.2, 9.9, 10.1}, nil),
		"bad":  datasetFrom([]float64{1.0, 2.0}, nil),
	}

	_, err = analyzer.AnalyzeRounds(context.Background(), rounds)
	require.Error(t, err)
	var insufficientErr *domain.InsufficientDataError
	assert.ErrorAs(t, err, &insufficientErr)
}

func TestAnalyzer_Analyze_RespectsContextCancellation(t *testing.T) {
	analyzer, err := NewAnalyzer(DefaultConfig())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = analyzer.Analyze(ctx, "lead", datasetFrom([]float64{9.8, 10.0, 10.2, 9.9, 10.1}, nil))
	assert.ErrorIs(t, err, context.Canceled)
}
