package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestQuestionValidate(t *testing.T) {
	tests := []struct {
		name     string
		question Question
		wantErr  bool
	}{
		{
			name:     "valid",
			question: Question{Statement: "q", Choices: []string{"a", "b"}, Correct: 1},
		},
		{
			name:     "no statement",
			question: Question{Choices: []string{"a", "b"}, Correct: 0},
			wantErr:  true,
		},
		{
			name:     "too few choices",
			question: Question{Statement: "q", Choices: []string{"a"}, Correct: 0},
			wantErr:  true,
		},
		{
			name:     "correct index too high",
			question: Question{Statement: "q", Choices: []string{"a", "b"}, Correct: 2},
			wantErr:  true,
		},
		{
			name:     "negative correct index",
			question: Question{Statement: "q", Choices: []string{"a", "b"}, Correct: -1},
			wantErr:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.question.validate()
			if tt.wantErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestBuiltinQuestionsAreValid(t *testing.T) {
	req := require.New(t)

	questions := builtinQuestions()
	req.NotEmpty(questions)
	for _, q := range questions {
		req.NoError(q.validate())
	}
}

func TestLoadQuestions(t *testing.T) {
	req := require.New(t)

	// Empty path falls back to the builtin set.
	questions, err := loadQuestions("")
	req.NoError(err)
	req.Equal(builtinQuestions(), questions)

	path := filepath.Join(t.TempDir(), "questions.json")
	data := `[{"statement":"Capital of France?","choices":["Lyon","Paris"],"correct":1}]`
	req.NoError(os.WriteFile(path, []byte(data), 0o644))

	questions, err = loadQuestions(path)
	req.NoError(err)
	req.Len(questions, 1)
	req.Equal("Capital of France?", questions[0].Statement)
}

func TestLoadQuestionsErrors(t *testing.T) {
	req := require.New(t)

	_, err := loadQuestions(filepath.Join(t.TempDir(), "missing.json"))
	req.Error(err)

	writeTemp := func(contents string) string {
		path := filepath.Join(t.TempDir(), "questions.json")
		req.NoError(os.WriteFile(path, []byte(contents), 0o644))
		return path
	}

	_, err = loadQuestions(writeTemp(`not json`))
	req.Error(err)

	_, err = loadQuestions(writeTemp(`[]`))
	req.Error(err)

	_, err = loadQuestions(writeTemp(`[{"statement":"q","choices":["only"],"correct":0}]`))
	req.Error(err)
}
