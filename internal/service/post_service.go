package service

import (
	"context"
	"fmt"

	"The_Connection/internal/model"
	"The_Connection/internal/policy"
	"The_Connection/internal/repository"
)

type PostService struct {
	store repository.Store
}

func NewPostService(store repository.Store) *PostService {
	return &PostService{store: store}
}

// Create 发到社区或小组的帖子要求作者是成员
func (s *PostService) Create(ctx context.Context, userID uint64, p *model.Post) (*model.Post, error) {
	p.AuthorID = userID
	if p.CommunityID != nil {
		if _, err := s.store.GetCommunityMember(ctx, *p.CommunityID, userID); err != nil {
			return nil, asForbidden(err, "community members only")
		}
	}
	if p.GroupID != nil {
		if _, err := s.store.GetGroupMember(ctx, *p.GroupID, userID); err != nil {
			return nil, asForbidden(err, "group members only")
		}
	}
	return s.store.CreatePost(ctx, p)
}

func (s *PostService) Get(ctx context.Context, id uint64) (*model.Post, error) {
	return s.store.GetPost(ctx, id)
}

func (s *PostService) List(ctx context.Context, f repository.PostFilter) ([]model.Post, error) {
	if f.Sort == "" {
		f.Sort = model.SortHot
	}
	if !f.Sort.Valid() {
		return nil, fmt.Errorf("%w: unknown sort %q", model.ErrValidation, f.Sort)
	}
	if f.Limit <= 0 || f.Limit > 100 {
		f.Limit = 50
	}
	return s.store.ListPosts(ctx, f)
}

func (s *PostService) Upvote(ctx context.Context, id uint64) (*model.Post, error) {
	return s.store.UpvotePost(ctx, id)
}

func (s *PostService) Delete(ctx context.Context, userID, id uint64) error {
	p, err := s.store.GetPost(ctx, id)
	if err != nil {
		return err
	}
	if p.AuthorID != userID {
		return fmt.Errorf("%w: only the author can delete a post", model.ErrForbidden)
	}
	return s.store.DeletePost(ctx, id)
}

func (s *PostService) Comment(ctx context.Context, userID uint64, c *model.Comment) (*model.Comment, error) {
	c.AuthorID = userID
	return s.store.CreateComment(ctx, c)
}

// Comments 过滤掉 viewer 拉黑用户的评论
func (s *PostService) Comments(ctx context.Context, viewerID, postID uint64) ([]model.Comment, error) {
	if _, err := s.store.GetPost(ctx, postID); err != nil {
		return nil, err
	}
	list, err := s.store.ListComments(ctx, postID)
	if err != nil {
		return nil, err
	}
	blocked, err := blockedBy(ctx, s.store, viewerID)
	if err != nil {
		return nil, err
	}
	return policy.ExcludeAuthors(list, func(c *model.Comment) uint64 { return c.AuthorID }, blocked), nil
}

func (s *PostService) UpvoteComment(ctx context.Context, id uint64) (*model.Comment, error) {
	return s.store.UpvoteComment(ctx, id)
}

func (s *PostService) DeleteComment(ctx context.Context, userID, id uint64) error {
	c, err := s.store.GetComment(ctx, id)
	if err != nil {
		return err
	}
	if c.AuthorID != userID {
		return fmt.Errorf("%w: only the author can delete a comment", model.ErrForbidden)
	}
	return s.store.DeleteComment(ctx, id)
}
