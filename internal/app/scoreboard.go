package app

// Scoreboard accumulates the local participant's running score. It only
// grows and stops changing once frozen.
type Scoreboard struct {
	total  int
	frozen bool
}

// Add credits points from one answer result. Negative values count as zero.
func (s *Scoreboard) Add(points int) {
	if s.frozen || points <= 0 {
		return
	}
	s.total += points
}

func (s *Scoreboard) Freeze() { s.frozen = true }

func (s *Scoreboard) Frozen() bool { return s.frozen }

func (s *Scoreboard) Total() int { return s.total }

func (s *Scoreboard) Reset() { *s = Scoreboard{} }
