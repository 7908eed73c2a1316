package storefront

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// ContentService owns blog post CRUD and post search.
type ContentService struct {
	repo   Repository
	images images
	logger *slog.Logger
	now    func() time.Time
}

// NewContentService creates a content service. A repository is required.
func NewContentService(opts ...Option) (*ContentService, error) {
	o := buildOptions(opts)
	if o.repository == nil {
		return nil, fmt.Errorf("repository is required")
	}
	return &ContentService{
		repo:   o.repository,
		images: images{store: o.mediaStore, observer: o.observer, logger: o.logger},
		logger: o.logger,
		now:    o.now,
	}, nil
}

// ListPosts returns posts newest first by posting date, capped at opts.Limit.
func (s *ContentService) ListPosts(ctx context.Context, opts ListOptions) ([]*BlogPost, error) {
	opts.Sort = SortNewest
	posts, err := s.repo.ListPosts(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list blog posts: %w", err)
	}
	return posts, nil
}

func (s *ContentService) GetPost(ctx context.Context, id string) (*BlogPost, error) {
	if !ValidID(id) {
		return nil, &PostError{PostID: id, Op: "get", Err: ErrInvalidIdentifier}
	}
	post, err := s.repo.GetPost(ctx, id)
	if err != nil {
		return nil, &PostError{PostID: id, Op: "get", Err: err}
	}
	return post, nil
}

// CreatePost stores a new post. The author defaults to the acting admin.
func (s *ContentService) CreatePost(ctx context.Context, actor Principal, fields PostFields, upload *ImageUpload) (*BlogPost, error) {
	if err := validatePostFields(fields); err != nil {
		return nil, err
	}

	author := strings.TrimSpace(fields.Author)
	if author == "" {
		author = actor.Username
	}

	var imageURL string
	if upload.Present() {
		var err error
		if imageURL, err = s.images.upload(ctx, "create_post", upload); err != nil {
			return nil, err
		}
	}

	post := &BlogPost{
		ID:         NewID(),
		Title:      fields.Title,
		Content:    fields.Content,
		Author:     author,
		ImageURL:   imageURL,
		DatePosted: s.now(),
	}
	if err := s.repo.CreatePost(ctx, post); err != nil {
		return nil, &PostError{PostID: post.ID, Op: "create", Err: err}
	}

	s.logger.Info("Blog post created", "id", post.ID, "author", post.Author)
	return post, nil
}

// UpdatePost rewrites title and content and optionally replaces the image.
// The author is kept.
func (s *ContentService) UpdatePost(ctx context.Context, id string, fields PostFields, upload *ImageUpload) (*BlogPost, error) {
	post, err := s.GetPost(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := validatePostFields(fields); err != nil {
		return nil, err
	}

	imageURL, err := s.images.replace(ctx, "update_post", id, post.ImageURL, upload)
	if err != nil {
		return nil, err
	}

	now := s.now()
	post.Title = fields.Title
	post.Content = fields.Content
	post.ImageURL = imageURL
	post.LastUpdated = &now

	if err := s.repo.UpdatePost(ctx, post); err != nil {
		return nil, &PostError{PostID: id, Op: "update", Err: err}
	}
	return post, nil
}

// DeletePost removes the post's image (best-effort) and then the record.
func (s *ContentService) DeletePost(ctx context.Context, id string) error {
	post, err := s.GetPost(ctx, id)
	if err != nil {
		return err
	}
	if post.ImageURL != "" {
		s.images.release(ctx, "delete_post", id, post.ImageURL)
	}
	if err := s.repo.DeletePost(ctx, id); err != nil {
		return &PostError{PostID: id, Op: "delete", Err: err}
	}
	s.logger.Info("Blog post deleted", "id", id)
	return nil
}

// SearchPosts runs a text search. A blank query matches nothing.
func (s *ContentService) SearchPosts(ctx context.Context, query string) ([]*BlogPost, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []*BlogPost{}, nil
	}
	posts, err := s.repo.SearchPosts(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to search blog posts: %w", err)
	}
	if posts == nil {
		posts = []*BlogPost{}
	}
	return posts, nil
}

// CountPosts returns the number of blog posts.
func (s *ContentService) CountPosts(ctx context.Context) (int64, error) {
	return s.repo.CountPosts(ctx)
}
