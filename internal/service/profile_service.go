package service

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"firestrike/internal/config"
	"firestrike/internal/events"
	"firestrike/internal/infrastructure/cache"
	"firestrike/internal/model"
)

type ProfileService struct {
	profiles ProfileRepository
	uploads  *UploadService
	bus      *events.Bus
	cache    *cache.ReadThrough
	cfg      *config.Config
	pager    pager
}

func NewProfileService(profiles ProfileRepository, uploads *UploadService, bus *events.Bus, c *cache.ReadThrough, cfg *config.Config) *ProfileService {
	return &ProfileService{
		profiles: profiles,
		uploads:  uploads,
		bus:      bus,
		cache:    c,
		cfg:      cfg,
		pager:    newPager(cfg),
	}
}

func (s *ProfileService) GetProfile(ctx context.Context, userID int64) (*model.Profile, error) {
	return cache.Fetch(ctx, s.cache, cache.ProfileKey(userID), s.cfg.Cache.ProfileTTL,
		func(ctx context.Context) (*model.Profile, error) {
			return s.profiles.GetByID(ctx, userID)
		})
}

// UpdateProfile 修改昵称和手机号，nil 表示不变
func (s *ProfileService) UpdateProfile(ctx context.Context, userID int64, name, phone *string) (*model.Profile, error) {
	fields := map[string]interface{}{}
	if name != nil {
		n := strings.TrimSpace(*name)
		if n == "" {
			return nil, fmt.Errorf("%w: name", ErrInvalidInput)
		}
		fields["name"] = n
	}
	if phone != nil {
		fields["phone"] = strings.TrimSpace(*phone)
	}
	if len(fields) > 0 {
		if err := s.profiles.UpdateFields(ctx, userID, fields); err != nil {
			return nil, err
		}
		s.userUpdated(ctx, userID)
	}
	return s.profiles.GetByID(ctx, userID)
}

func (s *ProfileService) UploadAvatar(ctx context.Context, userID int64, body io.Reader, size int64) (*model.Profile, error) {
	url, err := s.uploads.UploadAvatar(ctx, userID, body, size)
	if err != nil {
		return nil, err
	}
	if err := s.profiles.UpdateFields(ctx, userID, map[string]interface{}{"avatar_url": url}); err != nil {
		return nil, err
	}
	s.userUpdated(ctx, userID)
	return s.profiles.GetByID(ctx, userID)
}

func (s *ProfileService) ListProfiles(ctx context.Context, page, size int) ([]*model.ProfileWithBalance, int64, error) {
	return s.profiles.ListWithBalance(ctx, s.pager.page(page, size))
}

func (s *ProfileService) SetAdmin(ctx context.Context, userID int64, isAdmin bool) error {
	if _, err := s.profiles.GetByID(ctx, userID); err != nil {
		return err
	}
	if err := s.profiles.UpdateFields(ctx, userID, map[string]interface{}{"is_admin": isAdmin}); err != nil {
		return err
	}
	s.userUpdated(ctx, userID)
	return nil
}

func (s *ProfileService) userUpdated(ctx context.Context, userID int64) {
	s.cache.Invalidate(afterCommit(ctx), cache.ProfileKey(userID))
	if s.bus != nil {
		s.bus.Publish(events.AuthStateChangedEvent{
			Event:  events.AuthUserUpdated,
			UserID: userID,
			At:     time.Now().UTC(),
		})
	}
}
