// Package session drives one participant's attempt from a client connection:
// navigation over the questions, local selections and the countdown to the
// attempt deadline. Answers and submission go through the engine.
package session

import (
	"context"
	"sync"

	"quiz-attempt-service/internal/domain"
)

// Engine is the subset of the attempt service a session needs.
type Engine interface {
	RecordAnswer(ctx context.Context, attemptID, questionID, optionID string) error
	Submit(ctx context.Context, attemptID string) (domain.ScoreResult, error)
}

// State is the snapshot sent to the client after every command.
type State struct {
	AttemptID string                 `json:"attempt_id"`
	Index     int                    `json:"index"`
	Total     int                    `json:"total"`
	Question  *domain.PublicQuestion `json:"question,omitempty"`
	Selected  string                 `json:"selected,omitempty"`
	Answered  int                    `json:"answered"`
	Submitted bool                   `json:"submitted"`
	Result    *domain.ScoreResult    `json:"result,omitempty"`
}

// Session holds the client-side view of one attempt. It is safe for concurrent
// use, so the countdown can submit while commands are still arriving.
type Session struct {
	engine    Engine
	quiz      domain.PublicQuiz
	attemptID string

	mu         sync.Mutex
	index      int
	selections map[string]string
	result     *domain.ScoreResult
}

func New(engine Engine, quiz domain.PublicQuiz, attemptID string) *Session {
	return &Session{
		engine:     engine,
		quiz:       quiz,
		attemptID:  attemptID,
		selections: make(map[string]string),
	}
}

func (s *Session) AttemptID() string { return s.attemptID }

// State returns the current snapshot.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stateLocked()
}

// Next moves to the following question, staying on the last one.
func (s *Session) Next() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.index < len(s.quiz.Questions)-1 {
		s.index++
	}
	return s.stateLocked()
}

// Prev moves to the previous question, staying on the first one.
func (s *Session) Prev() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.index > 0 {
		s.index--
	}
	return s.stateLocked()
}

// Goto moves to the question with the given id. It reports false and keeps the
// position when the quiz has no such question.
func (s *Session) Goto(questionID string) (State, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, q := range s.quiz.Questions {
		if q.ID == questionID {
			s.index = i
			return s.stateLocked(), true
		}
	}
	return s.stateLocked(), false
}

// Select records optionID for the current question. The local selection only
// changes once the engine accepted the answer.
func (s *Session) Select(ctx context.Context, optionID string) (State, error) {
	return s.answer(ctx, optionID)
}

// Clear removes the answer of the current question.
func (s *Session) Clear(ctx context.Context) (State, error) {
	return s.answer(ctx, "")
}

// Submit scores the attempt. Repeated calls return the first result.
func (s *Session) Submit(ctx context.Context) (domain.ScoreResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.result != nil {
		return *s.result, nil
	}
	result, err := s.engine.Submit(ctx, s.attemptID)
	if err != nil {
		return domain.ScoreResult{}, err
	}
	s.result = &result
	return result, nil
}

// MarkSubmitted records a result obtained outside the session, such as an
// attempt that was already submitted when the client connected.
func (s *Session) MarkSubmitted(result domain.ScoreResult) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.result == nil {
		s.result = &result
	}
}

func (s *Session) answer(ctx context.Context, optionID string) (State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.result != nil {
		return s.stateLocked(), domain.ErrAttemptSubmitted
	}
	if len(s.quiz.Questions) == 0 {
		return s.stateLocked(), domain.ErrQuestionRequired
	}
	questionID := s.quiz.Questions[s.index].ID
	if err := s.engine.RecordAnswer(ctx, s.attemptID, questionID, optionID); err != nil {
		return s.stateLocked(), err
	}
	if optionID == "" {
		delete(s.selections, questionID)
	} else {
		s.selections[questionID] = optionID
	}
	return s.stateLocked(), nil
}

func (s *Session) stateLocked() State {
	st := State{
		AttemptID: s.attemptID,
		Index:     s.index,
		Total:     len(s.quiz.Questions),
		Answered:  len(s.selections),
		Submitted: s.result != nil,
	}
	if s.index < len(s.quiz.Questions) {
		q := s.quiz.Questions[s.index]
		st.Question = &q
		st.Selected = s.selections[q.ID]
	}
	if s.result != nil {
		r := *s.result
		st.Result = &r
	}
	return st
}
