package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/example/cinema-social/internal/platform/api"
	"github.com/example/cinema-social/internal/platform/auth"
)

// IndexAdmin exposes the operator controls of the thread index.
type IndexAdmin interface {
	Purge()
	Len() int
}

// Mount registers the thread routes. Reads are public; writes need a user
// and index controls need an admin.
func Mount(r chi.Router, svc Threads, ix IndexAdmin, verifier auth.JWTVerifier) {
	r.Get("/v1/threads/policy", GetPolicy(svc))
	r.Get("/v1/subjects/{subject_id}/comments", ListTopLevel(svc))
	r.Get("/v1/comments/{comment_id}", GetComment(svc))
	r.Get("/v1/comments/{comment_id}/replies", ListReplies(svc))
	r.Get("/v1/comments/{comment_id}/reply-count", ReplyCount(svc))

	r.Group(func(r chi.Router) {
		r.Use(auth.RequireUser(verifier))
		r.Post("/v1/comments", CreateComment(svc))
		r.Put("/v1/comments/{comment_id}", EditComment(svc))

		r.With(auth.RequireAdmin).Post("/v1/admin/threads/index/purge", PurgeIndex(ix))
	})
}

type purgeResponse struct {
	Dropped int `json:"dropped"`
}

// PurgeIndex handles POST /v1/admin/threads/index/purge
func PurgeIndex(ix IndexAdmin) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		n := ix.Len()
		ix.Purge()
		api.WriteJSON(w, http.StatusOK, purgeResponse{Dropped: n})
	}
}
