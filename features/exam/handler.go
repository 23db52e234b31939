package exam

import (
	"errors"
	"net/http"

	"chemtutor/internal/httpx"
	mcq "chemtutor/internal/quiz"
	"chemtutor/internal/session"
)

const (
	defaultQuestions = 5
	maxQuestions     = 20
)

type Handler struct {
	service *Service
}

func NewHandler(s *Service) *Handler {
	return &Handler{service: s}
}

func (h *Handler) Topics(w http.ResponseWriter, r *http.Request) {
	httpx.WriteData(r.Context(), w, http.StatusOK, TopicList())
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Topic        string `json:"topic"`
		NumQuestions int    `json:"num_questions"`
	}
	if !httpx.DecodeJSON(w, r, &req) {
		return
	}
	if req.NumQuestions == 0 {
		req.NumQuestions = defaultQuestions
	}
	if req.NumQuestions < 1 || req.NumQuestions > maxQuestions {
		httpx.WriteError(r.Context(), w, httpx.CodeInvalidArgument, "num_questions must be between 1 and 20", http.StatusBadRequest)
		return
	}

	sess, ok := httpx.RequireSession(w, r)
	if !ok {
		return
	}
	sess.Lock()
	defer sess.Unlock()

	attempt, err := h.service.Generate(r.Context(), req.Topic, req.NumQuestions)
	if errors.Is(err, ErrUnknownTopic) {
		httpx.WriteError(r.Context(), w, httpx.CodeInvalidArgument, err.Error(), http.StatusBadRequest)
		return
	}
	if err != nil {
		httpx.WriteServiceError(r.Context(), w, err)
		return
	}

	sess.Exam = attempt
	sess.Tab = session.TabExams
	httpx.WriteData(r.Context(), w, http.StatusCreated, attempt)
}

func (h *Handler) Submit(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Answers []int `json:"answers"`
	}
	if !httpx.DecodeJSON(w, r, &req) {
		return
	}

	sess, ok := httpx.RequireSession(w, r)
	if !ok {
		return
	}
	sess.Lock()
	defer sess.Unlock()

	if sess.Exam == nil {
		httpx.WriteError(r.Context(), w, httpx.CodeConflict, "no active exam", http.StatusConflict)
		return
	}

	rep, err := h.service.Evaluate(r.Context(), sess.Exam, req.Answers)
	if errors.Is(err, mcq.ErrAnswerCount) {
		httpx.WriteError(r.Context(), w, httpx.CodeInvalidArgument, err.Error(), http.StatusBadRequest)
		return
	}
	if err != nil {
		httpx.WriteServiceError(r.Context(), w, err)
		return
	}

	sess.Exam = nil
	httpx.WriteData(r.Context(), w, http.StatusOK, rep)
}
