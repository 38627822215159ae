// Package application orchestrates proficiency-testing rounds: it loads
// round configuration and participant datasets, drives the statistics
// core, and assembles the results into reports.
package application

import (
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/ptlab/ptstat/internal/domain"
	"github.com/ptlab/ptstat/internal/stats"
)

// Package-level validator instance for configuration validation.
var validate = validator.New()

// CalculationMethod names the assigned-value method in configuration
// files and CLI flags.
type CalculationMethod string

// Configurable calculation methods.
const (
	CalcAlgorithmA  CalculationMethod = "AlgorithmA"
	CalcCRM         CalculationMethod = "CRM"
	CalcFormulation CalculationMethod = "Formulation"
	CalcExpert      CalculationMethod = "Expert"
)

// DomainMethod maps the configuration name onto the domain method tag.
func (m CalculationMethod) DomainMethod() domain.Method {
	switch m {
	case CalcCRM:
		return domain.MethodCRM
	case CalcFormulation:
		return domain.MethodFormulation
	case CalcExpert:
		return domain.MethodExpertConsensus
	default:
		return domain.MethodConsensus
	}
}

// Config is the root configuration for a proficiency-testing round.
// All fields carry defaults, so an empty file (or no file) is valid.
type Config struct {
	// InputData maps dataset column names onto the fields the engine needs.
	InputData InputDataConfig `yaml:"input_data" validate:"required"`

	// Calculation selects the assigned-value method and its parameters.
	Calculation CalculationConfig `yaml:"calculation" validate:"required"`
}

// InputDataConfig names the columns of the participant results file.
type InputDataConfig struct {
	// ParticipantIDColumn holds the laboratory identifier.
	ParticipantIDColumn string `yaml:"participant_id_col" validate:"required"`

	// ResultColumn holds the reported measurement value.
	ResultColumn string `yaml:"result_col" validate:"required"`

	// UncertaintyColumn holds the reported standard uncertainty.
	// Optional; when empty or absent from the file, zeta-scores fall
	// back to the assigned-value uncertainty alone.
	UncertaintyColumn string `yaml:"uncertainty_col"`
}

// CalculationConfig selects and parameterizes the assigned-value method.
type CalculationConfig struct {
	// Method is the assigned-value derivation method for the round.
	Method CalculationMethod `yaml:"method" validate:"required,oneof=AlgorithmA CRM Formulation Expert"`

	// SigmaPT is the standard deviation for proficiency assessment used
	// in z-scores.
	SigmaPT float64 `yaml:"sigma_pt" validate:"required,gt=0"`

	// AlgorithmA holds the iteration parameters for the consensus method.
	AlgorithmA stats.AlgorithmAConfig `yaml:"algorithm_a" validate:"required"`

	// CRM holds the certificate values for the CRM method.
	CRM CRMParams `yaml:"crm"`

	// Formulation holds the known values for the formulation method.
	Formulation FormulationParams `yaml:"formulation"`

	// ExpertConsensus holds the agreed values for the expert method.
	ExpertConsensus ExpertConsensusParams `yaml:"expert_consensus"`
}

// CRMParams carries the certified reference material certificate values.
type CRMParams struct {
	// CertifiedValue is the certificate value used as x_pt.
	CertifiedValue *float64 `yaml:"certified_value"`

	// Uncertainty is the standard uncertainty stated on the certificate.
	Uncertainty *float64 `yaml:"uncertainty" validate:"omitempty,gte=0"`
}

// FormulationParams carries the known composition of the test material.
type FormulationParams struct {
	// KnownValue is the theoretical value used as x_pt.
	KnownValue *float64 `yaml:"known_value"`

	// Uncertainty is the uncertainty propagated from the formulation
	// process.
	Uncertainty *float64 `yaml:"uncertainty" validate:"omitempty,gte=0"`
}

// ExpertConsensusParams carries the agreed value of expert laboratories.
type ExpertConsensusParams struct {
	// ConsensusValue is the agreed value used as x_pt.
	ConsensusValue *float64 `yaml:"consensus_value"`

	// Uncertainty is the pre-agreed uncertainty. When nil, the engine
	// derives u(x_pt) as the standard error of the mean of the results.
	Uncertainty *float64 `yaml:"uncertainty" validate:"omitempty,gte=0"`
}

// DefaultConfig returns the round configuration used when no file is
// supplied: Algorithm A consensus with sigma_pt 0.15, tolerance 1e-5 and
// a budget of 50 passes.
func DefaultConfig() Config {
	return Config{
		InputData: InputDataConfig{
			ParticipantIDColumn: "ParticipantID",
			ResultColumn:        "Value",
			UncertaintyColumn:   "Uncertainty",
		},
		Calculation: CalculationConfig{
			Method:  CalcAlgorithmA,
			SigmaPT: 0.15,
			AlgorithmA: stats.AlgorithmAConfig{
				Tolerance:     1e-5,
				MaxIterations: 50,
			},
		},
	}
}

// LoadConfig reads a YAML round configuration from path, overlays it on
// the defaults, and validates the result. An empty path returns the
// defaults unchanged.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks the configuration against its struct constraints.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}
	return nil
}
