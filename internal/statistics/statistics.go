package statistics

import (
	"fmt"
	"math"
	"sort"
)

// GameResult represents the outcome of a single simulated game
type GameResult struct {
	Seed    int64   // RNG seed for this game (for replay)
	Won     bool    // Did the player clear the board?
	Moves   int     // Opens and flags issued
	Guesses int     // Opens made without a safe deduction
	Cleared float64 // Fraction of safe cells revealed at the end
	Capped  bool    // Stopped by the move limit before the game ended
}

// Statistics tracks aggregate simulation results
type Statistics struct {
	Games      int
	Wins       int
	Losses     int
	Unfinished int // Games stopped by the move limit

	SumMoves  float64
	SumMoves2 float64   // Sum of squares for variance calculation
	Cleared   []float64 // Store all values for median/percentile calculation

	// Guess analytics
	Guesses        int // Total guesses across all games
	NoGuessWins    int // Wins that never needed a guess
	FirstMoveLoses int // Losses on the very first open
}

// Add incorporates a new game result into the statistics
func (s *Statistics) Add(result GameResult) {
	s.Games++
	if result.Won {
		s.Wins++
		if result.Guesses <= 1 {
			s.NoGuessWins++
		}
	} else if result.Capped {
		s.Unfinished++
	} else {
		s.Losses++
		if result.Moves == 1 {
			s.FirstMoveLoses++
		}
	}

	moves := float64(result.Moves)
	s.SumMoves += moves
	s.SumMoves2 += moves * moves
	s.Cleared = append(s.Cleared, result.Cleared)
	s.Guesses += result.Guesses
}

// WinRate returns the fraction of games won
func (s *Statistics) WinRate() float64 {
	if s.Games == 0 {
		return 0
	}
	return float64(s.Wins) / float64(s.Games)
}

// WinRateInterval95 returns the 95% confidence interval for the win rate
// using the normal approximation, clamped to [0, 1].
func (s *Statistics) WinRateInterval95() (float64, float64) {
	if s.Games == 0 {
		return 0, 0
	}
	p := s.WinRate()
	margin := 1.96 * math.Sqrt(p*(1-p)/float64(s.Games))
	return math.Max(0, p-margin), math.Min(1, p+margin)
}

// MeanMoves returns the mean number of moves per game
func (s *Statistics) MeanMoves() float64 {
	if s.Games == 0 {
		return 0
	}
	return s.SumMoves / float64(s.Games)
}

// MovesVariance returns the sample variance of moves per game
func (s *Statistics) MovesVariance() float64 {
	if s.Games < 2 {
		return 0
	}
	mean := s.MeanMoves()
	return (s.SumMoves2 - float64(s.Games)*mean*mean) / float64(s.Games-1)
}

// MovesStdDev returns the sample standard deviation of moves per game
func (s *Statistics) MovesStdDev() float64 {
	return math.Sqrt(s.MovesVariance())
}

// MedianCleared returns the median fraction of the board cleared
func (s *Statistics) MedianCleared() float64 {
	return s.PercentileCleared(0.5)
}

// PercentileCleared returns the cleared fraction at the given percentile (0.0 to 1.0)
func (s *Statistics) PercentileCleared(p float64) float64 {
	if len(s.Cleared) == 0 {
		return 0
	}
	sorted := make([]float64, len(s.Cleared))
	copy(sorted, s.Cleared)
	sort.Float64s(sorted)

	index := p * float64(len(sorted)-1)
	lower := int(index)
	upper := lower + 1

	if upper >= len(sorted) {
		return sorted[len(sorted)-1]
	}

	weight := index - float64(lower)
	return sorted[lower]*(1-weight) + sorted[upper]*weight
}

// Validate checks that the tallies are consistent
func (s *Statistics) Validate() error {
	if s.Games <= 0 {
		return fmt.Errorf("invalid games count: %d", s.Games)
	}
	if s.Wins+s.Losses+s.Unfinished != s.Games {
		return fmt.Errorf("wins (%d) + losses (%d) + unfinished (%d) does not match games (%d)",
			s.Wins, s.Losses, s.Unfinished, s.Games)
	}
	if len(s.Cleared) != s.Games {
		return fmt.Errorf("cleared array length (%d) does not match games count (%d)", len(s.Cleared), s.Games)
	}
	for i, c := range s.Cleared {
		if c < 0 || c > 1 {
			return fmt.Errorf("game %d cleared fraction %f out of range", i, c)
		}
	}
	return nil
}
