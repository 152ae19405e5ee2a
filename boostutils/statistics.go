package boostutils

// Statistics counts what a boost domain has done since it was created
type Statistics struct {
	Kicks         int
	Unboosts      int
	Applications  int
	ApplyFailures int
}

func (s *Statistics) Clear() {
	s.Kicks = 0
	s.Unboosts = 0
	s.Applications = 0
	s.ApplyFailures = 0
}

func (s *Statistics) AddStatistics(other *Statistics) {
	s.Kicks += other.Kicks
	s.Unboosts += other.Unboosts
	s.Applications += other.Applications
	s.ApplyFailures += other.ApplyFailures
}
