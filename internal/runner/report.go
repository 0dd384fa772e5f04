package runner

import (
	"fmt"
	"io"
)

// WriteReport prints the summary in the clinic's plain-text report layout.
func (s Summary) WriteReport(w io.Writer) error {
	sc, m := s.Scenario, s.Mean
	_, err := fmt.Fprintf(w, `
After %d simulations:

=== %d nurses, %d doctors, around %d patients/hour, around %g minutes spent with a patient ===

The mean value of the utilization of nurses is %.2f.
The mean value of the utilization of doctors is %.2f.

The mean values of the average and maximum waiting time for a nurse are %.2f minutes and %.2f minutes.
The mean values of the average and maximum waiting time for a doctor are %.2f minutes and %.2f minutes.

Seed %d, total running time is %.5fs
`,
		s.Samples,
		sc.Nurses, sc.Doctors, sc.PatientsPerHour, sc.MeanTime,
		m.NurseUtilization, m.DoctorUtilization,
		m.AvgNurseWait, m.MaxNurseWait,
		m.AvgDoctorWait, m.MaxDoctorWait,
		s.Seed, s.Elapsed.Seconds(),
	)
	return err
}
