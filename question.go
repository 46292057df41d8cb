package main

import (
	"encoding/json"
	"fmt"
	"os"
)

// Question is an immutable round prompt. Correct indexes into Choices.
type Question struct {
	Statement string   `json:"statement"`
	Choices   []string `json:"choices"`
	Correct   int      `json:"correct"`
}

func (q Question) validate() error {
	if q.Statement == "" {
		return fmt.Errorf("question has no statement")
	}
	if len(q.Choices) < 2 {
		return fmt.Errorf("question %q needs at least two choices", q.Statement)
	}
	if q.Correct < 0 || q.Correct >= len(q.Choices) {
		return fmt.Errorf("question %q has correct index %d out of range", q.Statement, q.Correct)
	}
	return nil
}

func builtinQuestions() []Question {
	return []Question{
		{
			Statement: "What is 2 + 2?",
			Choices:   []string{"3", "4", "5", "22"},
			Correct:   1,
		},
		{
			Statement: "Which planet is closest to the sun?",
			Choices:   []string{"Venus", "Earth", "Mercury", "Mars"},
			Correct:   2,
		},
		{
			Statement: "How many minutes are in a day?",
			Choices:   []string{"1440", "3600", "720", "86400"},
			Correct:   0,
		},
		{
			Statement: "Which of these is a prime number?",
			Choices:   []string{"21", "27", "33", "31"},
			Correct:   3,
		},
	}
}

// loadQuestions reads a JSON array of questions from path, or returns the
// builtin set when path is empty.
func loadQuestions(path string) ([]Question, error) {
	if path == "" {
		return builtinQuestions(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var questions []Question
	if err := json.Unmarshal(data, &questions); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	if len(questions) == 0 {
		return nil, fmt.Errorf("%s contains no questions", path)
	}

	for _, q := range questions {
		if err := q.validate(); err != nil {
			return nil, err
		}
	}

	return questions, nil
}
