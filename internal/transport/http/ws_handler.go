package http

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"quiz-attempt-service/internal/app"
	"quiz-attempt-service/internal/domain"
	"quiz-attempt-service/internal/session"

	"github.com/gorilla/websocket"
)

// WSHandler runs one session per connection: it relays navigation and answers
// to the engine and pushes a countdown that submits the attempt at the deadline.
type WSHandler struct {
	attempts *app.AttemptService
	catalog  *app.CatalogService
	tick     time.Duration
	upgrader websocket.Upgrader
}

func NewWSHandler(attempts *app.AttemptService, catalog *app.CatalogService, tick time.Duration) *WSHandler {
	return &WSHandler{
		attempts: attempts,
		catalog:  catalog,
		tick:     tick,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type wsAnswerPayload struct {
	QuestionID string  `json:"question_id"`
	OptionID   *string `json:"option_id"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type tickPayload struct {
	RemainingSeconds int       `json:"remaining_seconds"`
	Deadline         time.Time `json:"deadline"`
}

type errorPayload struct {
	Message string `json:"message"`
}

// ServeWS upgrades GET /ws?attempt_id=... to a websocket session.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	attemptID := r.URL.Query().Get("attempt_id")
	if attemptID == "" {
		writeError(w, r, domain.InvalidInput("attempt_id is required"))
		return
	}
	attempt, err := h.attempts.GetAttempt(r.Context(), attemptID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	quiz, err := h.catalog.Quiz(r.Context(), attempt.QuizID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	sess := session.New(h.attempts, quiz.Public(), attempt.ID)
	if attempt.Result != nil {
		sess.MarkSubmitted(*attempt.Result)
	}

	send := make(chan outboundMessage[any], 16)
	closeSignals := make(chan struct{})
	writerDone := make(chan struct{})

	go func() {
		defer close(writerDone)
		for msg := range send {
			if err := conn.WriteJSON(msg); err != nil {
				log.Printf("ws write error: %v", err)
				// unblock the reader
				_ = conn.Close()
				return
			}
		}
	}()

	push := func(typ string, payload any) {
		select {
		case send <- outboundMessage[any]{Type: typ, Payload: payload}:
		case <-closeSignals:
		case <-writerDone:
		}
	}
	pushErr := func(err error) {
		push("error", errorPayload{Message: err.Error()})
	}
	submit := func() {
		result, err := sess.Submit(ctx)
		if err != nil {
			pushErr(err)
			return
		}
		push("result", result)
	}

	deadline := attempt.StartedAt.Add(quiz.Duration())
	countdown := session.NewCountdown(deadline, h.tick,
		func(left time.Duration) {
			push("tick", tickPayload{RemainingSeconds: int(left.Round(time.Second) / time.Second), Deadline: deadline})
		},
		func() {
			log.Printf("attempt %s reached its deadline, submitting", attempt.ID)
			submit()
		},
	)

	push("state", sess.State())
	if attempt.Submitted() {
		push("result", *attempt.Result)
	} else {
		countdown.Start(ctx)
	}

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		switch inbound.Type {
		case "answer":
			var payload wsAnswerPayload
			if len(inbound.Payload) > 0 {
				if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
					pushErr(domain.InvalidInput("invalid answer payload"))
					continue
				}
			}
			if payload.QuestionID != "" {
				if _, ok := sess.Goto(payload.QuestionID); !ok {
					pushErr(domain.ErrQuestionNotInQuiz)
					continue
				}
			}
			var st session.State
			if payload.OptionID == nil || *payload.OptionID == "" {
				st, err = sess.Clear(ctx)
			} else {
				st, err = sess.Select(ctx, *payload.OptionID)
			}
			if err != nil {
				pushErr(err)
			}
			push("state", st)
		case "next":
			push("state", sess.Next())
		case "prev":
			push("state", sess.Prev())
		case "state":
			push("state", sess.State())
		case "submit":
			countdown.Stop()
			submit()
		default:
			pushErr(domain.InvalidInput("unsupported message type"))
		}
	}

	close(closeSignals)
	countdown.Stop()
	close(send)
	<-writerDone
}
