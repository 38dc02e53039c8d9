package memory

import (
	"context"
	"fmt"

	"The_Connection/internal/model"
	"The_Connection/internal/policy"
	"The_Connection/internal/repository"
)

func (s *Store) CreatePost(_ context.Context, p *model.Post) (*model.Post, error) {
	if err := p.Prepare(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if p.CommunityID != nil {
		if c, ok := s.communities[*p.CommunityID]; !ok || !live(c.DeletedAt) {
			return nil, notFound("community", *p.CommunityID)
		}
	}
	rec := *p
	rec.ID = s.nextIDLocked()
	rec.UpdatedAt = s.stamp(&rec.CreatedAt)
	s.posts[rec.ID] = rec
	return &rec, nil
}

func (s *Store) GetPost(_ context.Context, id uint64) (*model.Post, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.posts[id]
	if !ok || !live(p.DeletedAt) {
		return nil, notFound("post", id)
	}
	return &p, nil
}

func (s *Store) ListPosts(_ context.Context, f repository.PostFilter) ([]model.Post, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	blocked := s.blockedByLocked(f.ViewerID)
	rows := collect(s.posts, func(p *model.Post) bool {
		switch {
		case !live(p.DeletedAt), isBlocked(blocked, p.AuthorID):
			return false
		case f.CommunityID != 0 && (p.CommunityID == nil || *p.CommunityID != f.CommunityID):
			return false
		case f.GroupID != 0 && (p.GroupID == nil || *p.GroupID != f.GroupID):
			return false
		case f.AuthorID != 0 && p.AuthorID != f.AuthorID:
			return false
		}
		return true
	})
	policy.SortPosts(rows, f.Sort, s.now())
	return policy.Limit(rows, f.Limit), nil
}

func (s *Store) UpvotePost(_ context.Context, id uint64) (*model.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.posts[id]
	if !ok || !live(p.DeletedAt) {
		return nil, notFound("post", id)
	}
	p.Upvotes++
	s.posts[id] = p
	return &p, nil
}

func (s *Store) DeletePost(_ context.Context, id uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.posts[id]
	if !ok {
		return notFound("post", id)
	}
	if live(p.DeletedAt) {
		p.DeletedAt = s.deletedAt()
		s.posts[id] = p
	}
	return nil
}

func (s *Store) CreateComment(_ context.Context, c *model.Comment) (*model.Comment, error) {
	if err := c.Prepare(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.posts[c.PostID]
	if !ok || !live(p.DeletedAt) {
		return nil, notFound("post", c.PostID)
	}
	if c.ParentID != nil {
		parent, ok := s.comments[*c.ParentID]
		if !ok || !live(parent.DeletedAt) || parent.PostID != c.PostID {
			return nil, fmt.Errorf("%w: parent comment %d not on post %d", model.ErrValidation, *c.ParentID, c.PostID)
		}
	}
	rec := *c
	rec.ID = s.nextIDLocked()
	rec.UpdatedAt = s.stamp(&rec.CreatedAt)
	s.comments[rec.ID] = rec

	p.CommentCount = model.ClampAdd(p.CommentCount, 1)
	s.posts[p.ID] = p
	return &rec, nil
}

func (s *Store) GetComment(_ context.Context, id uint64) (*model.Comment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.comments[id]
	if !ok || !live(c.DeletedAt) {
		return nil, notFound("comment", id)
	}
	return &c, nil
}

func (s *Store) ListComments(_ context.Context, postID uint64) ([]model.Comment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return collect(s.comments, func(c *model.Comment) bool {
		return live(c.DeletedAt) && c.PostID == postID
	}), nil
}

func (s *Store) UpvoteComment(_ context.Context, id uint64) (*model.Comment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.comments[id]
	if !ok || !live(c.DeletedAt) {
		return nil, notFound("comment", id)
	}
	c.Upvotes++
	s.comments[id] = c
	return &c, nil
}

// DeleteComment 软删除评论，首次删除时帖子 commentCount 减一
func (s *Store) DeleteComment(_ context.Context, id uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.comments[id]
	if !ok {
		return notFound("comment", id)
	}
	if !live(c.DeletedAt) {
		return nil
	}
	c.DeletedAt = s.deletedAt()
	s.comments[id] = c
	if p, ok := s.posts[c.PostID]; ok {
		p.CommentCount = model.ClampAdd(p.CommentCount, -1)
		s.posts[p.ID] = p
	}
	return nil
}

func (s *Store) CreateGroup(_ context.Context, g *model.Group) (*model.Group, error) {
	if err := g.Prepare(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	rec := *g
	rec.ID = s.nextIDLocked()
	rec.UpdatedAt = s.stamp(&rec.CreatedAt)
	s.groups[rec.ID] = rec

	m := model.GroupMember{ID: s.nextIDLocked(), GroupID: rec.ID, UserID: rec.CreatedBy, IsAdmin: true, CreatedAt: rec.CreatedAt}
	s.groupMembers[m.ID] = m
	return &rec, nil
}

func (s *Store) GetGroup(_ context.Context, id uint64) (*model.Group, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	g, ok := s.groups[id]
	if !ok || !live(g.DeletedAt) {
		return nil, notFound("group", id)
	}
	return &g, nil
}

func (s *Store) ListUserGroups(_ context.Context, userID uint64) ([]model.Group, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	in := map[uint64]struct{}{}
	for _, m := range s.groupMembers {
		if m.UserID == userID {
			in[m.GroupID] = struct{}{}
		}
	}
	return collect(s.groups, func(g *model.Group) bool {
		_, ok := in[g.ID]
		return ok && live(g.DeletedAt)
	}), nil
}

func (s *Store) AddGroupMember(_ context.Context, groupID, userID uint64, isAdmin bool) (*model.GroupMember, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if g, ok := s.groups[groupID]; !ok || !live(g.DeletedAt) {
		return nil, notFound("group", groupID)
	}
	if _, err := s.groupMemberLocked(groupID, userID); err == nil {
		return nil, fmt.Errorf("%w: user %d already in group %d", model.ErrConflict, userID, groupID)
	}
	m := model.GroupMember{ID: s.nextIDLocked(), GroupID: groupID, UserID: userID, IsAdmin: isAdmin, CreatedAt: s.now()}
	s.groupMembers[m.ID] = m
	return &m, nil
}

func (s *Store) groupMemberLocked(groupID, userID uint64) (*model.GroupMember, error) {
	for _, m := range s.groupMembers {
		if m.GroupID == groupID && m.UserID == userID {
			return &m, nil
		}
	}
	return nil, notFound("group member", fmt.Sprintf("%d/%d", groupID, userID))
}

func (s *Store) RemoveGroupMember(_ context.Context, groupID, userID uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, err := s.groupMemberLocked(groupID, userID)
	if err != nil {
		return err
	}
	delete(s.groupMembers, m.ID)
	return nil
}

func (s *Store) GetGroupMember(_ context.Context, groupID, userID uint64) (*model.GroupMember, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.groupMemberLocked(groupID, userID)
}

func (s *Store) ListGroupMembers(_ context.Context, groupID uint64) ([]model.GroupMember, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return collect(s.groupMembers, func(m *model.GroupMember) bool { return m.GroupID == groupID }), nil
}
