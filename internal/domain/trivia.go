package domain

import (
	"fmt"
	"strings"
	"time"
)

// Difficulty grades a trivia set.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// Valid reports whether d is one of the known difficulties.
func (d Difficulty) Valid() bool {
	switch d {
	case DifficultyEasy, DifficultyMedium, DifficultyHard:
		return true
	}
	return false
}

// TriviaQuestion is a question as authored in a trivia set.
type TriviaQuestion struct {
	Question      string   `json:"question" yaml:"question"`
	Answers       []string `json:"answers" yaml:"answers"`
	CorrectAnswer int      `json:"correctAnswer" yaml:"correct_answer"`
	TimeLimit     int      `json:"timeLimit" yaml:"time_limit"`
	Points        int      `json:"points" yaml:"points"`
}

// TriviaSet is content served by the trivia-set API.
type TriviaSet struct {
	ID          string           `json:"_id"`
	Name        string           `json:"name"`
	Description string           `json:"description"`
	Category    string           `json:"category"`
	Difficulty  Difficulty       `json:"difficulty"`
	Questions   []TriviaQuestion `json:"questions"`
	CreatedBy   string           `json:"createdBy,omitempty"`
	IsPublic    bool             `json:"isPublic"`
	CreatedAt   time.Time        `json:"createdAt"`
}

// CreateTriviaSet is the input for creating a set.
type CreateTriviaSet struct {
	Name        string           `json:"name" yaml:"name"`
	Description string           `json:"description" yaml:"description"`
	Category    string           `json:"category" yaml:"category"`
	Difficulty  Difficulty       `json:"difficulty" yaml:"difficulty"`
	Questions   []TriviaQuestion `json:"questions" yaml:"questions"`
	IsPublic    bool             `json:"isPublic" yaml:"is_public"`
}

// Validate checks the set before it is sent to the content API.
func (c CreateTriviaSet) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrTriviaSetInvalid)
	}
	if !c.Difficulty.Valid() {
		return fmt.Errorf("%w: unknown difficulty %q", ErrTriviaSetInvalid, c.Difficulty)
	}
	if len(c.Questions) == 0 {
		return fmt.Errorf("%w: at least one question is required", ErrTriviaSetInvalid)
	}
	for i, q := range c.Questions {
		if err := q.validate(); err != nil {
			return fmt.Errorf("%w: question %d: %s", ErrTriviaSetInvalid, i+1, err)
		}
	}
	return nil
}

func (q TriviaQuestion) validate() error {
	if strings.TrimSpace(q.Question) == "" {
		return fmt.Errorf("prompt is required")
	}
	if len(q.Answers) < 2 {
		return fmt.Errorf("at least two answers are required")
	}
	for _, a := range q.Answers {
		if strings.TrimSpace(a) == "" {
			return fmt.Errorf("answers must not be blank")
		}
	}
	if q.CorrectAnswer < 0 || q.CorrectAnswer >= len(q.Answers) {
		return fmt.Errorf("correct answer %d out of range", q.CorrectAnswer)
	}
	if q.TimeLimit <= 0 {
		return fmt.Errorf("time limit must be positive")
	}
	if q.Points < 0 {
		return fmt.Errorf("points must not be negative")
	}
	return nil
}

// GameQuestions flattens a set into the ordered question list carried by create-game.
func (s TriviaSet) GameQuestions() []Question {
	out := make([]Question, 0, len(s.Questions))
	for i, q := range s.Questions {
		correct := q.CorrectAnswer
		out = append(out, Question{
			ID:            fmt.Sprintf("q_%d", i),
			Prompt:        q.Question,
			Options:       append([]string(nil), q.Answers...),
			CorrectAnswer: &correct,
			TimeLimit:     q.TimeLimit,
			Points:        q.Points,
			Position:      i + 1,
			Total:         len(s.Questions),
		})
	}
	return out
}
