package config

type MatchConfig struct {
	Rounds             int          `yaml:"rounds"`
	SurvivalSeconds    float64      `yaml:"survival_seconds"`
	PreparationSeconds float64      `yaml:"preparation_seconds"`
	RoundEndSeconds    float64      `yaml:"round_end_seconds"`
	QueueCapacity      int          `yaml:"queue_capacity"`
	Score              ScoreWeights `yaml:"score"`
}

// ScoreWeights weigh the end-of-round board state.
type ScoreWeights struct {
	Unit   float64 `yaml:"unit"`
	Tower  float64 `yaml:"tower"`
	Throne float64 `yaml:"throne"`
}

func DefaultMatch() MatchConfig {
	return MatchConfig{
		Rounds:             3,
		SurvivalSeconds:    30,
		PreparationSeconds: 30,
		RoundEndSeconds:    5,
		QueueCapacity:      256,
		Score:              ScoreWeights{Unit: 1, Tower: 3, Throne: 10},
	}
}
