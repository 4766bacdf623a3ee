package file

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/custodia-labs/musictruth-cli/internal/core/domain"
	"github.com/custodia-labs/musictruth-cli/internal/core/ports/driven"
)

// Ensure CalibrationStore implements the interface.
var _ driven.CalibrationStore = (*CalibrationStore)(nil)

// calibrationFile is the on-disk shape of calibration.yaml.
//
//	rules:
//	  - id: spectral-cutoff
//	    threshold: 15000
//	  - id: vinyl-crackle
//	    metric: silence.ratio
//	    op: above
//	    threshold: 0.3
//	    direction: supports_human
//	    weight: 0.2
//	genres:
//	  trap:
//	    threshold_deltas: {tempo-quantization: -0.004}
//	    weight_scales: {stereo-collapsed: 0.5}
type calibrationFile struct {
	Rules  []ruleOverride          `yaml:"rules" validate:"dive"`
	Genres map[string]genreOverride `yaml:"genres" validate:"dive,keys,required,endkeys"`
}

// ruleOverride patches a built-in rule by ID or, when the ID is new,
// defines a whole rule. Nil fields keep the built-in value.
type ruleOverride struct {
	ID          string   `yaml:"id" validate:"required"`
	Label       string   `yaml:"label"`
	Metric      string   `yaml:"metric"`
	Op          string   `yaml:"op" validate:"omitempty,oneof=below above"`
	Threshold   *float64 `yaml:"threshold"`
	Direction   string   `yaml:"direction" validate:"omitempty,oneof=supports_ai supports_human"`
	Weight      *float64 `yaml:"weight" validate:"omitempty,gte=0"`
	Fingerprint string   `yaml:"fingerprint"`
}

type genreOverride struct {
	Description     string             `yaml:"description"`
	ThresholdDeltas map[string]float64 `yaml:"threshold_deltas"`
	WeightScales    map[string]float64 `yaml:"weight_scales" validate:"dive,gte=0"`
}

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

// yamlValidator reports field errors by their yaml names.
func yamlValidator() *validator.Validate {
	validateOnce.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			tag := fld.Tag.Get("yaml")
			if idx := strings.Index(tag, ","); idx >= 0 {
				tag = tag[:idx]
			}
			if tag == "" || tag == "-" {
				return fld.Name
			}
			return tag
		})
		validate = v
	})
	return validate
}

// CalibrationStore reads threshold overrides and extra genre profiles
// from a YAML file, layered over the built-in calibration.
type CalibrationStore struct {
	path string
}

// NewCalibrationStore creates a store for <dir>/calibration.yaml.
// If dir is empty, defaults to ~/.musictruth.
func NewCalibrationStore(dir string) (*CalibrationStore, error) {
	if dir == "" {
		d, err := DefaultDir()
		if err != nil {
			return nil, err
		}
		dir = d
	}
	return &CalibrationStore{path: filepath.Join(dir, "calibration.yaml")}, nil
}

// Path returns the calibration file path.
func (s *CalibrationStore) Path() string {
	return s.path
}

// Load returns the built-in calibration with the file's overrides applied.
// A missing file yields the defaults unchanged.
func (s *CalibrationStore) Load() (domain.Calibration, error) {
	cal := domain.DefaultCalibration()

	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cal, nil
		}
		return domain.Calibration{}, fmt.Errorf("read calibration: %w", err)
	}

	var file calibrationFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return domain.Calibration{}, fmt.Errorf("%w: parse %s: %v", domain.ErrInvalidInput, s.path, err)
	}
	if err := yamlValidator().Struct(file); err != nil {
		return domain.Calibration{}, fmt.Errorf("%w: %s: %s", domain.ErrInvalidInput, s.path, describeValidation(err))
	}

	if err := applyRules(&cal.Thresholds, file.Rules); err != nil {
		return domain.Calibration{}, err
	}
	for name, g := range file.Genres {
		cal.Genres[name] = domain.GenreProfile{
			Name:            name,
			Description:     g.Description,
			ThresholdDeltas: g.ThresholdDeltas,
			WeightScales:    g.WeightScales,
		}
	}

	if err := cal.Thresholds.Validate(); err != nil {
		return domain.Calibration{}, err
	}
	return cal, nil
}

func applyRules(table *domain.ThresholdTable, overrides []ruleOverride) error {
	index := make(map[string]int, len(table.Rules))
	for i, r := range table.Rules {
		index[r.ID] = i
	}

	for _, o := range overrides {
		if i, ok := index[o.ID]; ok {
			patchRule(&table.Rules[i], o)
			continue
		}
		if o.Metric == "" || o.Op == "" || o.Direction == "" || o.Threshold == nil || o.Weight == nil {
			return fmt.Errorf("%w: new rule %q needs metric, op, threshold, direction and weight",
				domain.ErrInvalidInput, o.ID)
		}
		var r domain.ThresholdRule
		r.ID = o.ID
		r.Label = o.ID
		patchRule(&r, o)
		index[r.ID] = len(table.Rules)
		table.Rules = append(table.Rules, r)
	}
	return nil
}

func patchRule(r *domain.ThresholdRule, o ruleOverride) {
	if o.Label != "" {
		r.Label = o.Label
	}
	if o.Metric != "" {
		r.Metric = o.Metric
	}
	if o.Op != "" {
		r.Op = domain.Comparison(o.Op)
	}
	if o.Threshold != nil {
		r.Threshold = *o.Threshold
	}
	if o.Direction != "" {
		r.Direction = domain.Direction(o.Direction)
	}
	if o.Weight != nil {
		r.Weight = *o.Weight
	}
	if o.Fingerprint != "" {
		r.Fingerprint = o.Fingerprint
	}
}

// describeValidation names the first failing field.
func describeValidation(err error) string {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		if fe.Param() != "" {
			return fmt.Sprintf("%s failed %s=%s", fe.Namespace(), fe.Tag(), fe.Param())
		}
		return fmt.Sprintf("%s failed %s", fe.Namespace(), fe.Tag())
	}
	return err.Error()
}
