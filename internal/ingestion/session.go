package ingestion

import (
	"strings"

	"fmeagraph/domain/fmea"
	"fmeagraph/internal/errors"
)

// Session is the explicit ingestion context: it numbers processes and
// remembers the active one. A session is not safe for concurrent use.
type Session struct {
	normalizer *Normalizer
	datasets   int
	active     *fmea.Process
}

// NewSession starts a session with no ingested datasets
func NewSession(n *Normalizer) *Session {
	return &Session{normalizer: n}
}

// Ingest builds the next process from ds. A failed dataset does not consume
// a process index and does not change the active process.
func (s *Session) Ingest(ds Dataset) (*fmea.Process, error) {
	name := strings.TrimSpace(ds.Name)
	p := fmea.NewProcess(s.datasets, name)

	if err := s.normalizer.Normalize(p, ds.Rows); err != nil {
		return nil, errors.Wrapf(err, "ingest dataset %q", name)
	}

	s.datasets++
	s.active = p
	return p, nil
}

// Active returns the most recently ingested process, or nil
func (s *Session) Active() *fmea.Process {
	return s.active
}

// DatasetCount returns the number of successfully ingested datasets
func (s *Session) DatasetCount() int {
	return s.datasets
}
