package model

// ScoreEntry is one line of the public leaderboard
type ScoreEntry struct {
	PlayerName string `json:"playerName"`
	Score      int    `json:"score"`
	Date       string `json:"date"`
}

// QuizInfo is the quiz metadata: number of questions plus the leaderboard
type QuizInfo struct {
	Size   int          `json:"size"`
	Scores []ScoreEntry `json:"scores"`
}

// AnswerSummary tells the player whether one answer was correct
type AnswerSummary struct {
	WasCorrect            bool `json:"wasCorrect"`
	CorrectAnswerPosition *int `json:"correctAnswerPosition,omitempty"`
}

// ScoreResult is produced once per completed participation
type ScoreResult struct {
	PlayerName       string          `json:"playerName,omitempty"`
	Score            int             `json:"score"`
	AnswersSummaries []AnswerSummary `json:"answersSummaries"`
}
