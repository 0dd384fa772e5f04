package clinic

// RouteNurse sends every patient through the nurse pool in arrival order. The
// nurse duration must already be set on each patient; the returned slice
// holds copies with the nurse visit filled in.
func RouteNurse(pool *ServerPool, patients []Patient) []Patient {
	out := make([]Patient, len(patients))
	for i, p := range patients {
		p.Nurse = visit(pool, p.Arrival, p.Nurse.Duration)
		out[i] = p
	}
	return out
}

// RouteDoctor sends the patients that see both providers through the doctor
// pool, in the order they appear in patients. Each request is made when the
// patient leaves the nurse. Nurse-only patients are copied unchanged.
func RouteDoctor(pool *ServerPool, patients []Patient) []Patient {
	out := make([]Patient, len(patients))
	for i, p := range patients {
		if !p.NurseOnly && p.Doctor != nil {
			v := visit(pool, p.Nurse.After, p.Doctor.Duration)
			p.Doctor = &v
		}
		out[i] = p
	}
	return out
}
