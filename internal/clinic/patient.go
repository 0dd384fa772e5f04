package clinic

// StageVisit records one patient's pass through one stage.
type StageVisit struct {
	Duration float64 `json:"duration"`
	Meet     float64 `json:"meet"`
	Wait     float64 `json:"wait"`
	After    float64 `json:"after"`
}

type Patient struct {
	Ordinal   int         `json:"ordinal"`
	Arrival   float64     `json:"arrival"`
	NurseOnly bool        `json:"nurse_only"`
	Nurse     StageVisit  `json:"nurse"`
	Doctor    *StageVisit `json:"doctor,omitempty"`
}

func visit(pool *ServerPool, entry, duration float64) StageVisit {
	meet, wait := pool.Assign(entry, duration)
	return StageVisit{Duration: duration, Meet: meet, Wait: wait, After: meet + duration}
}
