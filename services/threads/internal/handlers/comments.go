package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/example/cinema-social/internal/platform/api"
	"github.com/example/cinema-social/internal/platform/auth"
	"github.com/example/cinema-social/internal/platform/httpserver"
	"github.com/example/cinema-social/services/threads/internal/domain"
	"github.com/example/cinema-social/services/threads/internal/thread"
)

const maxBodyBytes = 1 << 20

// Threads is the subset of thread.Service the handlers call.
type Threads interface {
	CreateComment(ctx context.Context, in thread.CreateInput) (domain.Comment, error)
	FetchTopLevel(ctx context.Context, subjectID, cursor string, limit int) (domain.Page, error)
	FetchReplies(ctx context.Context, commentID, cursor string, limit int) (domain.Page, error)
	ReplyCount(ctx context.Context, commentID string) (int, error)
	GetComment(ctx context.Context, commentID string) (domain.Comment, error)
	EditComment(ctx context.Context, commentID, authorID, content string) (domain.Comment, error)
	Policy() domain.Policy
}

type createCommentRequest struct {
	SubjectID string  `json:"subject_id"`
	Content   string  `json:"content"`
	ParentID  *string `json:"parent_id,omitempty"`
}

type editCommentRequest struct {
	Content string `json:"content"`
}

// commentView adds the rendering hint to a comment.
type commentView struct {
	domain.Comment
	Collapsed bool `json:"collapsed"`
}

type pageResponse struct {
	Items      []commentView `json:"items"`
	NextCursor *string       `json:"next_cursor"`
}

type replyCountResponse struct {
	Count int `json:"count"`
}

func view(c domain.Comment, p domain.Policy) commentView {
	return commentView{Comment: c, Collapsed: c.Depth >= p.CollapseDepth}
}

func viewPage(page domain.Page, p domain.Policy) pageResponse {
	items := make([]commentView, len(page.Items))
	for i, c := range page.Items {
		items[i] = view(c, p)
	}
	return pageResponse{Items: items, NextCursor: page.NextCursor}
}

// CreateComment handles POST /v1/comments
func CreateComment(svc Threads) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rid := httpserver.RequestIDFromContext(r.Context())
		userID, ok := auth.UserIDFromContext(r.Context())
		if !ok || userID == "" {
			api.Unauthorized(w, "UNAUTHORIZED", "authentication required", rid)
			return
		}

		var req createCommentRequest
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
			api.BadRequest(w, api.CodeInvalidJSON, "invalid JSON", rid, nil)
			return
		}

		created, err := svc.CreateComment(r.Context(), thread.CreateInput{
			SubjectID: req.SubjectID,
			AuthorID:  userID,
			Content:   req.Content,
			ParentID:  req.ParentID,
		})
		if err != nil {
			writeServiceError(w, rid, err)
			return
		}
		api.WriteJSON(w, http.StatusCreated, view(created, svc.Policy()))
	}
}

// ListTopLevel handles GET /v1/subjects/{subject_id}/comments
func ListTopLevel(svc Threads) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rid := httpserver.RequestIDFromContext(r.Context())
		limit, ok := parseLimit(w, r, rid)
		if !ok {
			return
		}

		page, err := svc.FetchTopLevel(r.Context(), chi.URLParam(r, "subject_id"), r.URL.Query().Get("cursor"), limit)
		if err != nil {
			writeServiceError(w, rid, err)
			return
		}
		api.WriteJSON(w, http.StatusOK, viewPage(page, svc.Policy()))
	}
}

// ListReplies handles GET /v1/comments/{comment_id}/replies
func ListReplies(svc Threads) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rid := httpserver.RequestIDFromContext(r.Context())
		limit, ok := parseLimit(w, r, rid)
		if !ok {
			return
		}

		page, err := svc.FetchReplies(r.Context(), chi.URLParam(r, "comment_id"), r.URL.Query().Get("cursor"), limit)
		if err != nil {
			writeServiceError(w, rid, err)
			return
		}
		api.WriteJSON(w, http.StatusOK, viewPage(page, svc.Policy()))
	}
}

// ReplyCount handles GET /v1/comments/{comment_id}/reply-count
func ReplyCount(svc Threads) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rid := httpserver.RequestIDFromContext(r.Context())
		commentID := strings.TrimSpace(chi.URLParam(r, "comment_id"))

		n, err := svc.ReplyCount(r.Context(), commentID)
		if err != nil {
			writeServiceError(w, rid, err)
			return
		}
		api.WriteJSON(w, http.StatusOK, replyCountResponse{Count: n})
	}
}

// GetComment handles GET /v1/comments/{comment_id}
func GetComment(svc Threads) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rid := httpserver.RequestIDFromContext(r.Context())
		c, err := svc.GetComment(r.Context(), chi.URLParam(r, "comment_id"))
		if err != nil {
			writeServiceError(w, rid, err)
			return
		}
		api.WriteJSON(w, http.StatusOK, view(c, svc.Policy()))
	}
}

// EditComment handles PUT /v1/comments/{comment_id}
func EditComment(svc Threads) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rid := httpserver.RequestIDFromContext(r.Context())
		userID, ok := auth.UserIDFromContext(r.Context())
		if !ok || userID == "" {
			api.Unauthorized(w, "UNAUTHORIZED", "authentication required", rid)
			return
		}

		var req editCommentRequest
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
			api.BadRequest(w, api.CodeInvalidJSON, "invalid JSON", rid, nil)
			return
		}

		updated, err := svc.EditComment(r.Context(), chi.URLParam(r, "comment_id"), userID, req.Content)
		if err != nil {
			writeServiceError(w, rid, err)
			return
		}
		api.WriteJSON(w, http.StatusOK, view(updated, svc.Policy()))
	}
}

// GetPolicy handles GET /v1/threads/policy
func GetPolicy(svc Threads) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		api.WriteJSON(w, http.StatusOK, svc.Policy())
	}
}

// parseLimit reads ?limit=. Missing or non-positive values defer to the
// service default; non-numeric input is rejected.
func parseLimit(w http.ResponseWriter, r *http.Request, rid string) (int, bool) {
	raw := strings.TrimSpace(r.URL.Query().Get("limit"))
	if raw == "" {
		return 0, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		api.BadRequest(w, api.CodeValidation, "limit must be an integer", rid, map[string]any{"field": "limit"})
		return 0, false
	}
	return n, true
}
