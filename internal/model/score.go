package model

// ScoreRecord is the current streak and best streak for one identity
type ScoreRecord struct {
	CurrentScore int `json:"current_score"`
	HighScore    int `json:"high_score"`
}

// Increment advances the streak, raising the high score when it is exceeded
func (r ScoreRecord) Increment() ScoreRecord {
	r.CurrentScore++
	if r.CurrentScore > r.HighScore {
		r.HighScore = r.CurrentScore
	}
	return r
}

// ResetCurrent zeroes the streak and keeps the high score
func (r ScoreRecord) ResetCurrent() ScoreRecord {
	r.CurrentScore = 0
	return r
}

// WithHighScoreAtLeast max-merges the high score; it never lowers it
func (r ScoreRecord) WithHighScoreAtLeast(highScore int) ScoreRecord {
	if highScore > r.HighScore {
		r.HighScore = highScore
	}
	return r
}
