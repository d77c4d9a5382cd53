package service

import (
	"context"
	"log/slog"
	"strings"

	"github.com/maheshrc27/postcraft/internal/models"
	"github.com/maheshrc27/postcraft/internal/repository"
	"github.com/maheshrc27/postcraft/internal/transfer"
)

type PostService interface {
	Create(ctx context.Context, userID string, in *transfer.PostCreate) (*models.Post, error)
	Generate(ctx context.Context, userID string, in *transfer.GeneratePost) (*models.Post, error)
	Regenerate(ctx context.Context, userID, postID string, in *transfer.GeneratePost) (*models.Post, error)
	PostInfo(ctx context.Context, postID, userID string) (*models.Post, error)
	Update(ctx context.Context, userID, postID string, in *transfer.PostUpdate) (*models.Post, error)
	Publish(ctx context.Context, userID, postID string) (*models.Post, error)
	List(ctx context.Context, userID string) ([]*models.Post, error)
	Remove(ctx context.Context, userID, postID string) error
}

type postService struct {
	pr repository.PostRepository
	sr repository.ScheduledPostRepository
	ai AIService
}

func NewPostService(pr repository.PostRepository, sr repository.ScheduledPostRepository, ai AIService) PostService {
	return &postService{
		pr: pr,
		sr: sr,
		ai: ai,
	}
}

func validationError(msg string) error {
	err := models.NewValidationError(msg)
	slog.Info(err.Error())
	return err
}

func (s *postService) Create(ctx context.Context, userID string, in *transfer.PostCreate) (*models.Post, error) {
	if in == nil || strings.TrimSpace(in.Content) == "" {
		return nil, validationError("content cannot be empty")
	}

	post := &models.Post{
		UserID:            userID,
		Content:           in.Content,
		WrittenTone:       in.WrittenTone,
		AssociatedAccount: in.AssociatedAccount,
	}
	if err := s.pr.Create(ctx, nil, post); err != nil {
		return nil, err
	}

	return post, nil
}

func validateGenerate(in *transfer.GeneratePost) error {
	if in == nil || strings.TrimSpace(in.Topic) == "" {
		return validationError("topic is required")
	}
	if strings.TrimSpace(in.Tone) == "" {
		return validationError("tone is required")
	}
	return nil
}

// Generate drafts content with the AI service and stores it as a new draft.
func (s *postService) Generate(ctx context.Context, userID string, in *transfer.GeneratePost) (*models.Post, error) {
	if err := validateGenerate(in); err != nil {
		return nil, err
	}

	generated, err := s.ai.Generate(ctx, GenerateRequest{
		Topic:           in.Topic,
		Tone:            in.Tone,
		SpecificDetails: in.SpecificDetails,
		UserID:          userID,
	})
	if err != nil {
		return nil, err
	}

	tone := in.Tone
	post := &models.Post{
		UserID:      userID,
		Content:     FormatGeneratedContent(generated),
		WrittenTone: &tone,
	}
	if err := s.pr.Create(ctx, nil, post); err != nil {
		return nil, err
	}

	slog.Info("post generated", "post_id", post.ID, "user_id", userID)
	return post, nil
}

// Regenerate replaces the content and tone of an existing post with a fresh draft.
func (s *postService) Regenerate(ctx context.Context, userID, postID string, in *transfer.GeneratePost) (*models.Post, error) {
	if postID == "" {
		return nil, validationError("post id is not valid")
	}
	if err := validateGenerate(in); err != nil {
		return nil, err
	}

	// ownership is checked before paying for a generation
	if _, err := s.pr.GetByID(ctx, postID, userID); err != nil {
		return nil, err
	}

	generated, err := s.ai.Generate(ctx, GenerateRequest{
		Topic:           in.Topic,
		Tone:            in.Tone,
		SpecificDetails: in.SpecificDetails,
		UserID:          userID,
	})
	if err != nil {
		return nil, err
	}

	content := FormatGeneratedContent(generated)
	tone := in.Tone
	return s.pr.Update(ctx, postID, userID, models.PostPatch{Content: &content, WrittenTone: &tone})
}

func (s *postService) PostInfo(ctx context.Context, postID, userID string) (*models.Post, error) {
	if postID == "" {
		return nil, validationError("post id is not valid")
	}
	return s.pr.GetByID(ctx, postID, userID)
}

func (s *postService) Update(ctx context.Context, userID, postID string, in *transfer.PostUpdate) (*models.Post, error) {
	if postID == "" {
		return nil, validationError("post id is not valid")
	}
	if in == nil {
		return nil, validationError("nothing to update")
	}
	if in.Content != nil && strings.TrimSpace(*in.Content) == "" {
		return nil, validationError("content cannot be empty")
	}

	return s.pr.Update(ctx, postID, userID, models.PostPatch{
		Content:           in.Content,
		WrittenTone:       in.WrittenTone,
		AssociatedAccount: in.AssociatedAccount,
	})
}

// Publish marks an owned post published right away, closing any active
// schedule. Publishing an already published post returns it unchanged.
func (s *postService) Publish(ctx context.Context, userID, postID string) (*models.Post, error) {
	if postID == "" {
		return nil, validationError("post id is not valid")
	}

	if err := s.sr.PublishPost(ctx, postID, userID); err != nil {
		return nil, err
	}

	slog.Info("post published", "post_id", postID, "user_id", userID)
	return s.pr.GetByID(ctx, postID, userID)
}

func (s *postService) List(ctx context.Context, userID string) ([]*models.Post, error) {
	return s.pr.ListByOwner(ctx, userID)
}

func (s *postService) Remove(ctx context.Context, userID, postID string) error {
	if postID == "" {
		return validationError("post_id is not valid")
	}
	return s.pr.Remove(ctx, postID, userID)
}
