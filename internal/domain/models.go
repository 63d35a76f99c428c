package domain

import "time"

// Attempt states.
const (
	StatusInProgress = "in_progress"
	StatusSubmitted  = "submitted"
)

// Option is one selectable answer of a question.
type Option struct {
	ID      string `json:"id"`
	Label   string `json:"label"`
	Correct bool   `json:"is_correct"`
}

// Question models an MCQ question. At most one option is expected to be correct;
// a question with none is never scored.
type Question struct {
	ID        string   `json:"id"`
	Statement string   `json:"statement"`
	Options   []Option `json:"options"`
}

// Quiz is a timed collection of questions with an optional negative marking factor.
type Quiz struct {
	ID              string     `json:"id"`
	Title           string     `json:"title"`
	Subject         string     `json:"subject"`
	DurationMinutes int        `json:"duration_minutes"`
	NegativeMarking float64    `json:"negative_marking"`
	Questions       []Question `json:"questions"`
}

// CorrectOptions maps question id to its correct option id. Questions without a
// correct option are left out.
func (q Quiz) CorrectOptions() map[string]string {
	key := make(map[string]string, len(q.Questions))
	for _, question := range q.Questions {
		for _, opt := range question.Options {
			if opt.Correct {
				key[question.ID] = opt.ID
				break
			}
		}
	}
	return key
}

// HasQuestion reports whether questionID is part of the quiz.
func (q Quiz) HasQuestion(questionID string) bool {
	for _, question := range q.Questions {
		if question.ID == questionID {
			return true
		}
	}
	return false
}

// Duration is the time budget of one attempt.
func (q Quiz) Duration() time.Duration {
	return time.Duration(q.DurationMinutes) * time.Minute
}

// Summary is the listing view of the quiz.
func (q Quiz) Summary() QuizSummary {
	return QuizSummary{
		ID:              q.ID,
		Title:           q.Title,
		Subject:         q.Subject,
		DurationMinutes: q.DurationMinutes,
	}
}

// Public strips correctness flags so the quiz can be sent to participants.
func (q Quiz) Public() PublicQuiz {
	questions := make([]PublicQuestion, 0, len(q.Questions))
	for _, question := range q.Questions {
		options := make([]PublicOption, 0, len(question.Options))
		for _, opt := range question.Options {
			options = append(options, PublicOption{ID: opt.ID, Label: opt.Label})
		}
		questions = append(questions, PublicQuestion{
			ID:        question.ID,
			Statement: question.Statement,
			Options:   options,
		})
	}
	return PublicQuiz{
		ID:              q.ID,
		Title:           q.Title,
		Subject:         q.Subject,
		DurationMinutes: q.DurationMinutes,
		NegativeMarking: q.NegativeMarking,
		Questions:       questions,
	}
}

// QuizSummary is the catalog listing entry.
type QuizSummary struct {
	ID              string `json:"id"`
	Title           string `json:"title"`
	Subject         string `json:"subject"`
	DurationMinutes int    `json:"duration_minutes"`
}

// PublicQuiz is the participant-facing quiz without answer keys.
type PublicQuiz struct {
	ID              string           `json:"id"`
	Title           string           `json:"title"`
	Subject         string           `json:"subject"`
	DurationMinutes int              `json:"duration_minutes"`
	NegativeMarking float64          `json:"negative_marking"`
	Questions       []PublicQuestion `json:"questions"`
}

type PublicQuestion struct {
	ID        string         `json:"id"`
	Statement string         `json:"statement"`
	Options   []PublicOption `json:"options"`
}

type PublicOption struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

// ScoreResult is the outcome of a submitted attempt.
type ScoreResult struct {
	Total   int     `json:"total"`
	Correct int     `json:"correct"`
	Wrong   int     `json:"wrong"`
	Score   float64 `json:"score"`
}

// Attempt is one participant's timed run through a quiz. It is in progress until
// SubmittedAt is stamped, after which Result never changes.
type Attempt struct {
	ID          string       `json:"id"`
	QuizID      string       `json:"quiz_id"`
	Name        string       `json:"name"`
	StartedAt   time.Time    `json:"started_at"`
	SubmittedAt *time.Time   `json:"submitted_at,omitempty"`
	Result      *ScoreResult `json:"result,omitempty"`
}

// Status derives the lifecycle state from the submit timestamp.
func (a Attempt) Status() string {
	if a.SubmittedAt != nil {
		return StatusSubmitted
	}
	return StatusInProgress
}

// Submitted reports whether the attempt reached its terminal state.
func (a Attempt) Submitted() bool {
	return a.SubmittedAt != nil
}

// Answers maps question id to the chosen option id. An empty option id records an
// answer that was cleared; a missing key means the question was never answered.
type Answers map[string]string
