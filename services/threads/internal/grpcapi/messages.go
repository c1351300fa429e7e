package grpcapi

import "github.com/example/cinema-social/services/threads/internal/domain"

type CreateCommentRequest struct {
	SubjectID string  `json:"subject_id"`
	Content   string  `json:"content"`
	ParentID  *string `json:"parent_id,omitempty"`
}

type EditCommentRequest struct {
	CommentID string `json:"comment_id"`
	Content   string `json:"content"`
}

type GetCommentRequest struct {
	CommentID string `json:"comment_id"`
}

type ListTopLevelRequest struct {
	SubjectID string `json:"subject_id"`
	Cursor    string `json:"cursor,omitempty"`
	Limit     int32  `json:"limit,omitempty"`
}

type ListRepliesRequest struct {
	CommentID string `json:"comment_id"`
	Cursor    string `json:"cursor,omitempty"`
	Limit     int32  `json:"limit,omitempty"`
}

type ReplyCountRequest struct {
	CommentID string `json:"comment_id"`
}

type GetPolicyRequest struct{}

// Comment is a thread node plus its rendering hint.
type Comment struct {
	domain.Comment
	Collapsed bool `json:"collapsed"`
}

type CommentResponse struct {
	Comment Comment `json:"comment"`
}

type PageResponse struct {
	Items      []Comment `json:"items"`
	NextCursor *string   `json:"next_cursor"`
}

type ReplyCountResponse struct {
	Count int32 `json:"count"`
}

type PolicyResponse struct {
	Policy domain.Policy `json:"policy"`
}
