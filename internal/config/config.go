package config

import (
	"encoding/json"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/invopop/jsonschema"
	"github.com/moznion/go-optional"
	"gopkg.in/yaml.v3"

	"github.com/quantarc/rulesim/pkg/errors"
)

// SortKey selects the ranking used when truncating a rule table to top-N.
type SortKey string

const (
	SortBySupport      SortKey = "support"
	SortByExtremeScore SortKey = "extreme_score"
	SortBySNR          SortKey = "snr"
	SortByExtremeness  SortKey = "extremeness"
	// SortByDiscovery keeps the mining output order.
	SortByDiscovery SortKey = "discovery"
)

// AllSortKeys is used for schema enum generation.
var AllSortKeys = []any{
	SortBySupport,
	SortByExtremeScore,
	SortBySNR,
	SortByExtremeness,
	SortByDiscovery,
}

// AllocationStrategy selects how portfolio weights are derived.
type AllocationStrategy string

const (
	AllocationEqualWeight      AllocationStrategy = "equal_weight"
	AllocationRiskParity       AllocationStrategy = "risk_parity"
	AllocationPerformanceBased AllocationStrategy = "performance_based"
)

// AllAllocationStrategies is used for schema enum generation.
var AllAllocationStrategies = []any{
	AllocationEqualWeight,
	AllocationRiskParity,
	AllocationPerformanceBased,
}

// SimulationConfig is the single configuration object passed by reference
// into every component of a run. There is no other configuration state.
type SimulationConfig struct {
	// Rule selection
	TopNRules int     `yaml:"top_n_rules" json:"top_n_rules" validate:"gte=0" jsonschema:"title=Top N Rules,description=Keep at most N rules per asset/direction after ranking. 0 keeps all,minimum=0"`
	SortBy    SortKey `yaml:"sort_by" json:"sort_by" validate:"oneof=support extreme_score snr extremeness discovery" jsonschema:"title=Sort By,description=Ranking key used before top-N truncation"`

	// Walk-forward windows
	TrainYears    int                        `yaml:"train_years" json:"train_years" validate:"gt=0" jsonschema:"title=Train Years,minimum=1"`
	TestYears     int                        `yaml:"test_years" json:"test_years" validate:"gt=0" jsonschema:"title=Test Years,minimum=1"`
	StartYear     int                        `yaml:"start_year" json:"start_year" validate:"gt=0" jsonschema:"title=Start Year"`
	EndYear       int                        `yaml:"end_year" json:"end_year" validate:"gt=0,gtefield=StartYear" jsonschema:"title=End Year"`
	TestStartDate optional.Option[time.Time] `yaml:"test_start_date" json:"test_start_date" jsonschema:"title=Test Start Date,description=Optional explicit start of the first test window"`

	// Transaction costs, in the same percent units as the X column
	Spread     float64 `yaml:"spread" json:"spread" validate:"gte=0" jsonschema:"title=Spread,minimum=0"`
	Commission float64 `yaml:"commission" json:"commission" validate:"gte=0" jsonschema:"title=Commission,minimum=0"`
	Slippage   float64 `yaml:"slippage" json:"slippage" validate:"gte=0" jsonschema:"title=Slippage,minimum=0"`

	// Signal generation
	Deduplicate bool `yaml:"deduplicate" json:"deduplicate" jsonschema:"title=Deduplicate,description=Collapse simultaneous signals to one per timestamp"`

	// Portfolio
	AllocationStrategy AllocationStrategy `yaml:"allocation_strategy" json:"allocation_strategy" validate:"oneof=equal_weight risk_parity performance_based" jsonschema:"title=Allocation Strategy"`

	// Inputs and outputs
	Assets        []string `yaml:"assets" json:"assets" validate:"min=1" jsonschema:"title=Assets,description=Asset names resolved against the rule and data folders"`
	RuleFolder    string   `yaml:"rule_folder" json:"rule_folder" validate:"required" jsonschema:"title=Rule Folder"`
	DataFolder    string   `yaml:"data_folder" json:"data_folder" validate:"required" jsonschema:"title=Data Folder"`
	ResultsFolder string   `yaml:"results_folder" json:"results_folder" validate:"required" jsonschema:"title=Results Folder"`

	// MinEngineVersion optionally pins the minimum engine version this
	// config is written for. Empty skips the check.
	MinEngineVersion string `yaml:"min_engine_version" json:"min_engine_version" jsonschema:"title=Minimum Engine Version"`
}

// UnmarshalYAML implements custom unmarshaling for SimulationConfig.
// Deduplicate defaults to true when omitted; an omitted test_start_date maps
// to optional.None.
func (c *SimulationConfig) UnmarshalYAML(value *yaml.Node) error {
	type rawConfig struct {
		TopNRules          int                `yaml:"top_n_rules"`
		SortBy             SortKey            `yaml:"sort_by"`
		TrainYears         int                `yaml:"train_years"`
		TestYears          int                `yaml:"test_years"`
		StartYear          int                `yaml:"start_year"`
		EndYear            int                `yaml:"end_year"`
		TestStartDate      *time.Time         `yaml:"test_start_date"`
		Spread             float64            `yaml:"spread"`
		Commission         float64            `yaml:"commission"`
		Slippage           float64            `yaml:"slippage"`
		Deduplicate        *bool              `yaml:"deduplicate"`
		AllocationStrategy AllocationStrategy `yaml:"allocation_strategy"`
		Assets             []string           `yaml:"assets"`
		RuleFolder         string             `yaml:"rule_folder"`
		DataFolder         string             `yaml:"data_folder"`
		ResultsFolder      string             `yaml:"results_folder"`
		MinEngineVersion   string             `yaml:"min_engine_version"`
	}

	var raw rawConfig
	if err := value.Decode(&raw); err != nil {
		return err
	}

	c.TopNRules = raw.TopNRules
	c.SortBy = raw.SortBy
	c.TrainYears = raw.TrainYears
	c.TestYears = raw.TestYears
	c.StartYear = raw.StartYear
	c.EndYear = raw.EndYear
	c.Spread = raw.Spread
	c.Commission = raw.Commission
	c.Slippage = raw.Slippage
	c.AllocationStrategy = raw.AllocationStrategy
	c.Assets = raw.Assets
	c.RuleFolder = raw.RuleFolder
	c.DataFolder = raw.DataFolder
	c.ResultsFolder = raw.ResultsFolder
	c.MinEngineVersion = raw.MinEngineVersion

	if raw.TestStartDate != nil {
		c.TestStartDate = optional.Some(*raw.TestStartDate)
	} else {
		c.TestStartDate = optional.None[time.Time]()
	}

	if raw.Deduplicate != nil {
		c.Deduplicate = *raw.Deduplicate
	} else {
		c.Deduplicate = true
	}

	return nil
}

// Parse unmarshals and validates a SimulationConfig from YAML content.
func Parse(content []byte) (SimulationConfig, error) {
	var cfg SimulationConfig
	if err := yaml.Unmarshal(content, &cfg); err != nil {
		return cfg, errors.Wrap(errors.ErrCodeInvalidConfiguration, "failed to parse config YAML", err)
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}

	return cfg, nil
}

// Validate checks the config against its declared constraints.
func (c *SimulationConfig) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfiguration, "config validation failed", err)
	}

	// The first test year must not run past the configured end year.
	if c.StartYear+c.TrainYears > c.EndYear {
		return errors.Newf(errors.ErrCodeInvalidWindow,
			"no room for a test window: start_year %d + train_years %d exceeds end_year %d",
			c.StartYear, c.TrainYears, c.EndYear)
	}

	return nil
}

// TotalCost returns the summed round-trip transaction cost charged once per
// trade: spread + commission + slippage.
func (c *SimulationConfig) TotalCost() float64 {
	return c.Spread + c.Commission + c.Slippage
}

// GenerateSchema generates a JSON schema for the SimulationConfig.
func (c *SimulationConfig) GenerateSchema() (*jsonschema.Schema, error) {
	reflector := jsonschema.Reflector{
		RequiredFromJSONSchemaTags: true,
		ExpandedStruct:             true,
		AllowAdditionalProperties:  false,
		Mapper: func(t reflect.Type) *jsonschema.Schema {
			if t.String() == "optional.Option[time.Time]" {
				return &jsonschema.Schema{
					Type:   "string",
					Format: "date-time",
				}
			}
			if strings.HasSuffix(t.String(), "config.SortKey") {
				return &jsonschema.Schema{
					Type: "string",
					Enum: AllSortKeys,
				}
			}
			if strings.HasSuffix(t.String(), "config.AllocationStrategy") {
				return &jsonschema.Schema{
					Type: "string",
					Enum: AllAllocationStrategies,
				}
			}
			return nil
		},
	}

	schema := reflector.Reflect(c)

	schema.Title = "simulation-config"
	schema.Description = "Configuration schema for the rule simulation engine"
	schema.Version = "http://json-schema.org/draft-07/schema#"

	return schema, nil
}

// GenerateSchemaJSON generates a JSON schema string for the SimulationConfig.
func (c *SimulationConfig) GenerateSchemaJSON() (string, error) {
	schema, err := c.GenerateSchema()
	if err != nil {
		return "", err
	}

	schemaBytes, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return "", err
	}

	return string(schemaBytes), nil
}

// EmptyConfig returns a SimulationConfig with default values.
func EmptyConfig() SimulationConfig {
	return SimulationConfig{
		TopNRules:          0,
		SortBy:             SortBySupport,
		TrainYears:         0,
		TestYears:          0,
		StartYear:          0,
		EndYear:            0,
		TestStartDate:      optional.None[time.Time](),
		Spread:             0,
		Commission:         0,
		Slippage:           0,
		Deduplicate:        true,
		AllocationStrategy: AllocationEqualWeight,
		Assets:             nil,
		RuleFolder:         "",
		DataFolder:         "",
		ResultsFolder:      "",
		MinEngineVersion:   "",
	}
}

// TestConfig returns a SimulationConfig suitable for tests.
func TestConfig() SimulationConfig {
	return SimulationConfig{
		TopNRules:          10,
		SortBy:             SortBySupport,
		TrainYears:         3,
		TestYears:          1,
		StartYear:          2015,
		EndYear:            2022,
		TestStartDate:      optional.None[time.Time](),
		Spread:             0.0002,
		Commission:         0.0001,
		Slippage:           0.0001,
		Deduplicate:        true,
		AllocationStrategy: AllocationEqualWeight,
		Assets:             []string{"EURUSD"},
		RuleFolder:         "rules",
		DataFolder:         "data",
		ResultsFolder:      "results",
		MinEngineVersion:   "",
	}
}
