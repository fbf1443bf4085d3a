package blog

import (
	"context"
	"strconv"
	"strings"

	"github.com/inkwell/inkwell/internal/supabase"
)

// Service performs post CRUD through a request-scoped remote client.
type Service struct {
	client *supabase.Client
}

// NewService wraps a remote client.
func NewService(client *supabase.Client) *Service {
	return &Service{client: client}
}

// Create inserts a post owned by ownerEmail. Title and content are trimmed
// and must be non-blank.
func (s *Service) Create(ctx context.Context, title, content, ownerEmail string) (*Post, error) {
	title = strings.TrimSpace(title)
	content = strings.TrimSpace(content)
	if title == "" || content == "" {
		return nil, ErrValidation
	}
	if ownerEmail == "" {
		return nil, ErrNotAuthenticated
	}

	var created []Post
	err := s.client.From(Table).Insert(ctx, postInsert{
		Title:     title,
		Content:   content,
		UserEmail: ownerEmail,
	}, &created)
	if err != nil {
		return nil, err
	}
	if len(created) == 0 {
		// Insert accepted without representation; nothing more to report.
		return &Post{Title: title, Content: content, UserEmail: ownerEmail}, nil
	}
	return &created[0], nil
}

// ListAll fetches every post, newest first.
func (s *Service) ListAll(ctx context.Context) ([]Post, error) {
	var posts []Post
	if err := s.client.From(Table).OrderDesc("created_at").Select(ctx, &posts); err != nil {
		return nil, err
	}
	return posts, nil
}

// ListMine fetches every post and keeps those owned by email. The filter
// runs after the fetch, mirroring the remote-store access pattern the rest
// of the app relies on; at current volumes the transfer cost is acceptable.
func (s *Service) ListMine(ctx context.Context, email string) ([]Post, error) {
	if email == "" {
		return nil, ErrNotAuthenticated
	}
	posts, err := s.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	mine := make([]Post, 0, len(posts))
	for _, p := range posts {
		if p.UserEmail == email {
			mine = append(mine, p)
		}
	}
	return mine, nil
}

// Get fetches a single post by id.
func (s *Service) Get(ctx context.Context, id int64) (*Post, error) {
	var post Post
	err := s.client.From(Table).Eq("id", formatID(id)).Single(ctx, &post)
	if err != nil {
		return nil, err
	}
	return &post, nil
}

// Update edits the title and content of the post with the given id, but
// only when ownerEmail owns it: the ownership predicate is part of the
// remote update itself, so a non-owner's request matches zero rows and
// fails with ErrNotOwner.
func (s *Service) Update(ctx context.Context, id int64, title, content, ownerEmail string) (*Post, error) {
	title = strings.TrimSpace(title)
	content = strings.TrimSpace(content)
	if title == "" || content == "" {
		return nil, ErrValidation
	}
	if ownerEmail == "" {
		return nil, ErrNotAuthenticated
	}

	var updated []Post
	err := s.client.From(Table).
		Eq("id", formatID(id)).
		Eq("user_email", ownerEmail).
		Update(ctx, postPatch{Title: title, Content: content}, &updated)
	if err != nil {
		return nil, err
	}
	if len(updated) == 0 {
		return nil, ErrNotOwner
	}
	return &updated[0], nil
}

func formatID(id int64) string {
	return strconv.FormatInt(id, 10)
}
