package clinic

import "fmt"

// ServerPool tracks when each interchangeable server of one stage is next free.
type ServerPool struct {
	nextFree []float64
}

func NewServerPool(servers int) (*ServerPool, error) {
	if servers <= 0 {
		return nil, configErrorf("server count %d must be > 0", servers)
	}
	return &ServerPool{nextFree: make([]float64, servers)}, nil
}

// Assign hands a request arriving at request to the earliest-available server
// and returns when service starts and how long the request waited. Ties go to
// the lowest-numbered server.
func (p *ServerPool) Assign(request, duration float64) (meet, wait float64) {
	if duration < 0 {
		panic(fmt.Sprintf("clinic: negative service duration %v", duration))
	}
	idx := 0
	for i, t := range p.nextFree {
		if t < p.nextFree[idx] {
			idx = i
		}
	}
	meet = max(p.nextFree[idx], request)
	wait = meet - request
	p.nextFree[idx] = meet + duration
	return meet, wait
}

// NextFree returns a copy of the per-server next-free timestamps.
func (p *ServerPool) NextFree() []float64 {
	out := make([]float64, len(p.nextFree))
	copy(out, p.nextFree)
	return out
}
