package runner

import (
	"encoding/json"
	"fmt"
	"math/rand/v2"

	"gopkg.in/yaml.v3"

	"clinicsim/internal/clinic"
)

// Scenario is the staffing and demand of a clinic hour, estimated over
// Samples independent replications.
type Scenario struct {
	Name            string  `json:"name,omitempty" yaml:"name,omitempty" mapstructure:"name"`
	Nurses          int     `json:"nurses" yaml:"nurses" mapstructure:"nurses"`
	Doctors         int     `json:"doctors" yaml:"doctors" mapstructure:"doctors"`
	PatientsPerHour int     `json:"patients_per_hour" yaml:"patients_per_hour" mapstructure:"patients_per_hour"`
	MeanTime        float64 `json:"mean_time" yaml:"mean_time" mapstructure:"mean_time"`
	StdDev          float64 `json:"std_dev" yaml:"std_dev" mapstructure:"std_dev"`
	Spread          float64 `json:"spread" yaml:"spread" mapstructure:"spread"`
	PatientBand     int     `json:"patient_band" yaml:"patient_band" mapstructure:"patient_band"`
	NurseOnlyShare  float64 `json:"nurse_only_share" yaml:"nurse_only_share" mapstructure:"nurse_only_share"`
	Samples         int     `json:"samples" yaml:"samples" mapstructure:"samples"`
	Seed            uint64  `json:"seed,omitempty" yaml:"seed,omitempty" mapstructure:"seed"`
}

// DefaultScenario is 20 nurses and 16 doctors seeing about 30 patients an
// hour for about 40 minutes each.
func DefaultScenario() Scenario {
	return Scenario{
		Nurses:          20,
		Doctors:         16,
		PatientsPerHour: 30,
		MeanTime:        40,
		StdDev:          1,
		Spread:          10,
		PatientBand:     2,
		NurseOnlyShare:  0.2,
		Samples:         10000,
	}
}

// WithDefaults fills the fields whose zero value can never be valid: a zero
// Spread (with StdDev) and a zero Samples. Zero NurseOnlyShare and PatientBand
// are meaningful and kept.
func (s Scenario) WithDefaults() Scenario {
	d := DefaultScenario()
	if s.StdDev == 0 && s.Spread == 0 {
		s.StdDev = d.StdDev
	}
	if s.Spread == 0 {
		s.Spread = d.Spread
	}
	if s.Samples == 0 {
		s.Samples = d.Samples
	}
	return s
}

// UnmarshalJSON decodes onto DefaultScenario, so omitted fields take their
// defaults while explicit zeros are kept.
func (s *Scenario) UnmarshalJSON(data []byte) error {
	type plain Scenario
	p := plain(DefaultScenario())
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*s = Scenario(p)
	return nil
}

// UnmarshalYAML is the YAML counterpart of UnmarshalJSON.
func (s *Scenario) UnmarshalYAML(value *yaml.Node) error {
	type plain Scenario
	p := plain(DefaultScenario())
	if err := value.Decode(&p); err != nil {
		return err
	}
	*s = Scenario(p)
	return nil
}

func (s Scenario) Spec() clinic.ServiceTimeSpec {
	return clinic.ServiceTimeSpec{
		Mean:   s.MeanTime,
		StdDev: s.StdDev,
		Min:    s.MeanTime - s.Spread,
		Max:    s.MeanTime + s.Spread,
	}
}

func (s Scenario) Validate() error {
	if s.Nurses <= 0 || s.Doctors <= 0 {
		return fmt.Errorf("%w: scenario needs at least one nurse and one doctor, got %d and %d", clinic.ErrInvalidConfig, s.Nurses, s.Doctors)
	}
	if s.PatientsPerHour < 1 {
		return fmt.Errorf("%w: patients per hour %d must be >= 1", clinic.ErrInvalidConfig, s.PatientsPerHour)
	}
	if s.PatientBand < 0 {
		return fmt.Errorf("%w: patient band %d must be >= 0", clinic.ErrInvalidConfig, s.PatientBand)
	}
	if s.NurseOnlyShare < 0 || s.NurseOnlyShare > 1 {
		return fmt.Errorf("%w: nurse-only share %.2f outside [0, 1]", clinic.ErrInvalidConfig, s.NurseOnlyShare)
	}
	if s.Samples < 1 {
		return fmt.Errorf("%w: samples %d must be >= 1", clinic.ErrInvalidConfig, s.Samples)
	}
	return s.Spec().Validate()
}

// replicationParams draws the patient count for one replication uniformly
// within PatientBand of PatientsPerHour and splits it by NurseOnlyShare.
func (s Scenario) replicationParams(rng *rand.Rand) clinic.Params {
	patients := s.PatientsPerHour - s.PatientBand + rng.IntN(2*s.PatientBand+1)
	if patients < 1 {
		patients = 1
	}
	return clinic.Params{
		Spec:      s.Spec(),
		Nurses:    s.Nurses,
		Doctors:   s.Doctors,
		Patients:  patients,
		NurseOnly: int(float64(patients) * s.NurseOnlyShare),
	}
}

// ParseScenario decodes a YAML scenario, as written by the export endpoint.
// Omitted fields come from DefaultScenario.
func ParseScenario(data []byte) (Scenario, error) {
	var sc Scenario
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return Scenario{}, fmt.Errorf("failed to parse scenario: %w", err)
	}
	sc = sc.WithDefaults()
	if err := sc.Validate(); err != nil {
		return Scenario{}, err
	}
	return sc, nil
}
