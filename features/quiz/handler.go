package quiz

import (
	"errors"
	"net/http"

	"chemtutor/internal/httpx"
	mcq "chemtutor/internal/quiz"
	"chemtutor/internal/session"
)

type Handler struct {
	service *Service
}

func NewHandler(s *Service) *Handler {
	return &Handler{service: s}
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req struct {
		NumQuestions int `json:"num_questions"`
	}
	if r.ContentLength != 0 && !httpx.DecodeJSON(w, r, &req) {
		return
	}
	if req.NumQuestions == 0 {
		req.NumQuestions = DefaultQuestions
	}
	if req.NumQuestions < 1 || req.NumQuestions > MaxQuestions {
		httpx.WriteError(r.Context(), w, httpx.CodeInvalidArgument, "num_questions must be between 1 and 20", http.StatusBadRequest)
		return
	}

	sess, ok := httpx.RequireSession(w, r)
	if !ok {
		return
	}
	sess.Lock()
	defer sess.Unlock()

	attempt, err := h.service.Generate(r.Context(), req.NumQuestions)
	if err != nil {
		httpx.WriteServiceError(r.Context(), w, err)
		return
	}

	sess.Quiz = attempt
	sess.Tab = session.TabQuizzes
	httpx.WriteData(r.Context(), w, http.StatusCreated, attempt)
}

type SubmitResponse struct {
	mcq.Result
	Tier string `json:"tier"`
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

	if sess.Quiz == nil {
		httpx.WriteError(r.Context(), w, httpx.CodeConflict, mcq.ErrNoQuiz.Error(), http.StatusConflict)
		return
	}

	res, err := sess.Quiz.Grade(req.Answers)
	if errors.Is(err, mcq.ErrAnswerCount) {
		httpx.WriteError(r.Context(), w, httpx.CodeInvalidArgument, err.Error(), http.StatusBadRequest)
		return
	}
	if err != nil {
		httpx.WriteServiceError(r.Context(), w, err)
		return
	}

	sess.Quiz = nil
	httpx.WriteData(r.Context(), w, http.StatusOK, SubmitResponse{Result: res, Tier: mcq.Tier(res)})
}
