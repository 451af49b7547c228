package services

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"

	"github.com/unilak/community/internal/dto"
	"github.com/unilak/community/internal/format"
	"github.com/unilak/community/internal/identity"
	"github.com/unilak/community/internal/models"
	"github.com/unilak/community/internal/store"
)

const maxUsernameLen = 50

var ErrInvalidUsername = errors.New("username must be between 1 and 50 characters")

type AccountService struct {
	store         *store.Store
	announcements *AnnouncementService
}

func NewAccountService(st *store.Store, announcements *AnnouncementService) *AccountService {
	return &AccountService{store: st, announcements: announcements}
}

func (s *AccountService) profiles() *store.Table[models.Profile] {
	return store.For[models.Profile](s.store, models.TableProfiles)
}

func (s *AccountService) Get(ctx context.Context, viewer identity.Viewer) (*dto.AccountResponse, error) {
	p, err := s.profiles().Get(ctx, viewer.ID)
	if err != nil {
		return nil, notFound(err, ErrUserNotFound)
	}

	reviews, err := store.For[models.Review](s.store, models.TableReviews).Count(ctx, store.Q().Eq("user_id", viewer.ID))
	if err != nil {
		return nil, err
	}
	mine, err := s.announcements.Mine(ctx, viewer)
	if err != nil {
		return nil, err
	}

	stats := dto.AccountStats{Reviews: reviews, Requests: int64(len(mine))}
	for _, r := range mine {
		stats.UnseenReplies += int64(r.UnseenCount)
	}
	return &dto.AccountResponse{User: ToUserResponse(p), Stats: stats}, nil
}

// UpdateProfile changes the username or avatar. An empty avatar clears it.
func (s *AccountService) UpdateProfile(ctx context.Context, viewer identity.Viewer, req *dto.UpdateProfileRequest) (*dto.UserResponse, error) {
	patch := map[string]any{}
	if req.Username != nil {
		name := strings.TrimSpace(*req.Username)
		if name == "" || utf8.RuneCountInString(name) > maxUsernameLen {
			return nil, ErrInvalidUsername
		}
		patch["username"] = name
	}
	if req.AvatarURL != nil {
		avatar := strings.TrimSpace(*req.AvatarURL)
		if format.Avatar(avatar) == format.AvatarNone {
			patch["avatar_url"] = nil
		} else {
			patch["avatar_url"] = avatar
		}
	}

	var p *models.Profile
	var err error
	if len(patch) == 0 {
		p, err = s.profiles().Get(ctx, viewer.ID)
	} else {
		p, err = s.profiles().Update(ctx, viewer.ID, patch)
	}
	if err != nil {
		return nil, notFound(err, ErrUserNotFound)
	}
	resp := ToUserResponse(p)
	return &resp, nil
}

// DeleteAccount removes the profile and everything it owns in one
// transaction.
func (s *AccountService) DeleteAccount(ctx context.Context, viewer identity.Viewer) error {
	return s.store.Transaction(ctx, func(tx *store.Store) error {
		reports := store.For[models.Report](tx, models.TableReports)
		reviews := store.For[models.Review](tx, models.TableReviews)
		responses := store.For[models.AnnouncementResponse](tx, models.TableAnnouncementResponses)

		if _, err := reports.DeleteWhere(ctx, store.Q().Eq("user_id", viewer.ID)); err != nil {
			return err
		}
		owned, err := reviews.List(ctx, store.Q().Eq("user_id", viewer.ID))
		if err != nil {
			return err
		}
		for _, r := range owned {
			if err := deleteReview(ctx, tx, r.ID); err != nil {
				return err
			}
		}

		requests, err := store.For[models.AnnouncementRequest](tx, models.TableAnnouncementRequests).
			List(ctx, store.Q().Eq("user_id", viewer.ID))
		if err != nil {
			return err
		}
		for _, r := range requests {
			if err := deleteRequest(ctx, tx, r.ID); err != nil {
				return err
			}
		}

		if _, err := responses.DeleteWhere(ctx, store.Q().Eq("user_id", viewer.ID)); err != nil {
			return err
		}
		if _, err := store.For[models.RefreshToken](tx, models.TableRefreshTokens).
			DeleteWhere(ctx, store.Q().Eq("user_id", viewer.ID)); err != nil {
			return err
		}
		return notFound(store.For[models.Profile](tx, models.TableProfiles).Delete(ctx, viewer.ID), ErrUserNotFound)
	})
}

func (s *AccountService) ListUsers(ctx context.Context, offset, limit int) ([]models.Profile, int64, error) {
	total, err := s.profiles().Count(ctx, store.Q())
	if err != nil {
		return nil, 0, err
	}
	users, err := s.profiles().List(ctx, store.Q().Order("created_at", true).Range(offset, limit))
	if err != nil {
		return nil, 0, err
	}
	return users, total, nil
}
