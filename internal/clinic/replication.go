package clinic

import (
	"math/rand/v2"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Params fixes the staffing and demand of one replication.
type Params struct {
	Spec      ServiceTimeSpec `json:"spec"`
	Nurses    int             `json:"nurses"`
	Doctors   int             `json:"doctors"`
	Patients  int             `json:"patients"`
	NurseOnly int             `json:"nurse_only"`
}

// Both is the number of patients that see a nurse and then a doctor.
func (p Params) Both() int { return p.Patients - p.NurseOnly }

func (p Params) Validate() error {
	if err := p.Spec.Validate(); err != nil {
		return err
	}
	if err := validateStaff(p.Nurses, p.Doctors); err != nil {
		return err
	}
	if p.Patients < 1 {
		return configErrorf("patient count %d must be >= 1", p.Patients)
	}
	if p.NurseOnly < 0 || p.NurseOnly > p.Patients {
		return configErrorf("nurse-only count %d outside [0, %d]", p.NurseOnly, p.Patients)
	}
	return nil
}

func validateStaff(nurses, doctors int) error {
	if nurses <= 0 {
		return configErrorf("nurse count %d must be > 0", nurses)
	}
	if doctors <= 0 {
		return configErrorf("doctor count %d must be > 0", doctors)
	}
	return nil
}

type WaitTimes struct {
	AvgNurseWait  float64 `json:"avg_nurse_wait"`
	MaxNurseWait  float64 `json:"max_nurse_wait"`
	AvgDoctorWait float64 `json:"avg_doctor_wait"`
	MaxDoctorWait float64 `json:"max_doctor_wait"`
}

type ReplicationResult struct {
	NurseUtilization  float64 `json:"nurse_utilization"`
	DoctorUtilization float64 `json:"doctor_utilization"`
	WaitTimes
}

// Phase is the step a replication is in. Phases only move forward.
type Phase int

const (
	PhaseInitializing Phase = iota
	PhaseRouting
	PhaseSummarizing
	PhaseDone
)

func (p Phase) String() string {
	switch p {
	case PhaseInitializing:
		return "initializing"
	case PhaseRouting:
		return "routing"
	case PhaseSummarizing:
		return "summarizing"
	case PhaseDone:
		return "done"
	}
	return "unknown"
}

type replication struct {
	rng      *rand.Rand
	params   Params
	phase    Phase
	patients []Patient
}

func (r *replication) initialize() error {
	arrivals, err := GenerateArrivals(r.rng, r.params.Patients)
	if err != nil {
		return err
	}
	nurseOnly := make(map[int]bool, r.params.NurseOnly)
	for _, idx := range r.rng.Perm(r.params.Patients)[:r.params.NurseOnly] {
		nurseOnly[idx] = true
	}
	nurseTimes, err := SampleServiceTimes(r.rng, r.params.Spec, r.params.Patients)
	if err != nil {
		return err
	}
	doctorTimes, err := SampleServiceTimes(r.rng, r.params.Spec, r.params.Both())
	if err != nil {
		return err
	}

	r.patients = make([]Patient, r.params.Patients)
	next := 0
	for i := range r.patients {
		p := Patient{
			Ordinal:   i + 1,
			Arrival:   arrivals[i],
			NurseOnly: nurseOnly[i],
			Nurse:     StageVisit{Duration: nurseTimes[i]},
		}
		if !p.NurseOnly {
			p.Doctor = &StageVisit{Duration: doctorTimes[next]}
			next++
		}
		r.patients[i] = p
	}
	r.phase = PhaseRouting
	return nil
}

func (r *replication) route() error {
	nurses, err := NewServerPool(r.params.Nurses)
	if err != nil {
		return err
	}
	doctors, err := NewServerPool(r.params.Doctors)
	if err != nil {
		return err
	}
	r.patients = RouteDoctor(doctors, RouteNurse(nurses, r.patients))
	r.phase = PhaseSummarizing
	return nil
}

func (r *replication) summarize() WaitTimes {
	w := Summarize(r.patients)
	r.phase = PhaseDone
	return w
}

// Simulate runs one replication through routing and returns every patient's
// timestamps.
func Simulate(rng *rand.Rand, params Params) ([]Patient, error) {
	r, err := routed(rng, params)
	if err != nil {
		return nil, err
	}
	return r.patients, nil
}

// routed validates params and moves a fresh replication to PhaseSummarizing.
func routed(rng *rand.Rand, params Params) (*replication, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	r := &replication{rng: rng, params: params}
	if err := r.initialize(); err != nil {
		return nil, err
	}
	if err := r.route(); err != nil {
		return nil, err
	}
	return r, nil
}

// Summarize reduces routed patients to rounded average and maximum waits.
// Doctor figures cover only patients with a doctor visit and are zero when
// there are none.
func Summarize(patients []Patient) WaitTimes {
	var nurse, doctor []float64
	for _, p := range patients {
		nurse = append(nurse, p.Nurse.Wait)
		if p.Doctor != nil {
			doctor = append(doctor, p.Doctor.Wait)
		}
	}
	var w WaitTimes
	if len(nurse) > 0 {
		w.AvgNurseWait = Round2(stat.Mean(nurse, nil))
		w.MaxNurseWait = Round2(floats.Max(nurse))
	}
	if len(doctor) > 0 {
		w.AvgDoctorWait = Round2(stat.Mean(doctor, nil))
		w.MaxDoctorWait = Round2(floats.Max(doctor))
	}
	return w
}

// RunUtilization estimates nurse and doctor utilization from independently
// drawn service time totals. Values above 1 mean demand exceeded capacity.
func RunUtilization(rng *rand.Rand, spec ServiceTimeSpec, nurses, doctors, patients, both int) (nurseUtil, doctorUtil float64, err error) {
	if err := validateStaff(nurses, doctors); err != nil {
		return 0, 0, err
	}
	if patients < 1 {
		return 0, 0, configErrorf("patient count %d must be >= 1", patients)
	}
	if both < 0 || both > patients {
		return 0, 0, configErrorf("both count %d outside [0, %d]", both, patients)
	}
	nurseTotal, err := SumServiceTimes(rng, spec, patients)
	if err != nil {
		return 0, 0, err
	}
	doctorTotal, err := SumServiceTimes(rng, spec, both)
	if err != nil {
		return 0, 0, err
	}
	nurseUtil = Round2(nurseTotal / (float64(nurses) * Horizon))
	doctorUtil = Round2(doctorTotal / (float64(doctors) * Horizon))
	return nurseUtil, doctorUtil, nil
}

// RunWaitingTimes simulates one replication and returns its waiting time summary.
func RunWaitingTimes(rng *rand.Rand, spec ServiceTimeSpec, nurses, doctors, patients, nurseOnly, both int) (WaitTimes, error) {
	if both < 0 || both > patients {
		return WaitTimes{}, configErrorf("both count %d outside [0, %d]", both, patients)
	}
	if nurseOnly+both != patients {
		return WaitTimes{}, configErrorf("nurse-only %d + both %d must equal patients %d", nurseOnly, both, patients)
	}
	r, err := routed(rng, Params{Spec: spec, Nurses: nurses, Doctors: doctors, Patients: patients, NurseOnly: nurseOnly})
	if err != nil {
		return WaitTimes{}, err
	}
	return r.summarize(), nil
}

// RunReplication estimates utilization and then simulates waiting times, both
// from rng, in that order.
func RunReplication(rng *rand.Rand, params Params) (ReplicationResult, error) {
	if err := params.Validate(); err != nil {
		return ReplicationResult{}, err
	}
	nu, du, err := RunUtilization(rng, params.Spec, params.Nurses, params.Doctors, params.Patients, params.Both())
	if err != nil {
		return ReplicationResult{}, err
	}
	w, err := RunWaitingTimes(rng, params.Spec, params.Nurses, params.Doctors, params.Patients, params.NurseOnly, params.Both())
	if err != nil {
		return ReplicationResult{}, err
	}
	return ReplicationResult{NurseUtilization: nu, DoctorUtilization: du, WaitTimes: w}, nil
}
