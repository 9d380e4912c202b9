package service

import (
	"context"
	"log/slog"

	"github.com/geocoder89/printhub/internal/apperr"
	"github.com/geocoder89/printhub/internal/authz"
	"github.com/geocoder89/printhub/internal/domain/user"
	"github.com/geocoder89/printhub/internal/security"
	"github.com/geocoder89/printhub/internal/storage"
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
)

type Authorizer interface {
	Check(ctx context.Context, req authz.Requirement) (user.Profile, error)
}

type ProfileStore interface {
	GetByID(ctx context.Context, id string) (user.Profile, error)
	Update(ctx context.Context, id string, req user.UpdateProfileRequest) (user.Profile, error)
	List(ctx context.Context, f user.ListProfilesFilter) ([]user.Profile, int, error)
}

type ProfileService struct {
	authz    Authorizer
	profiles ProfileStore
	objects  ObjectStore
	bucket   string
	maxBytes int64
	log      *slog.Logger
}

func NewProfileService(a Authorizer, profiles ProfileStore, objects ObjectStore, bucket string, maxBytes int64, log *slog.Logger) *ProfileService {
	if log == nil {
		log = slog.Default()
	}
	return &ProfileService{authz: a, profiles: profiles, objects: objects, bucket: bucket, maxBytes: maxBytes, log: log}
}

// Me returns the caller's profile, creating it on first sight.
func (s *ProfileService) Me(ctx context.Context) (user.Profile, error) {
	return s.authz.Check(ctx, authz.Requirement{})
}

func (s *ProfileService) UpdateMe(ctx context.Context, req user.UpdateProfileRequest) (user.Profile, error) {
	me, err := s.authz.Check(ctx, authz.RequireOwner(callerID(ctx)))
	if err != nil {
		return user.Profile{}, err
	}

	req.FirstName = security.PlainTextPtr(req.FirstName)
	req.LastName = security.PlainTextPtr(req.LastName)
	req.Bio = security.PlainTextPtr(req.Bio)
	req.AvatarURL = trimPtr(req.AvatarURL)

	if err := validation.ValidateStruct(&req,
		validation.Field(&req.FirstName, validation.NilOrNotEmpty, validation.Length(1, 80)),
		validation.Field(&req.LastName, validation.Length(0, 80)),
		validation.Field(&req.Bio, validation.Length(0, 2000)),
		validation.Field(&req.AvatarURL, is.URL, validation.Length(0, 2048)),
	); err != nil {
		return user.Profile{}, invalid(err)
	}

	return s.update(ctx, me, req)
}

// UploadAvatar stores the image and points the caller's avatarUrl at it.
func (s *ProfileService) UploadAvatar(ctx context.Context, file Upload) (user.Profile, error) {
	me, err := s.authz.Check(ctx, authz.Requirement{})
	if err != nil {
		return user.Profile{}, err
	}

	if err := checkImage(file, s.maxBytes); err != nil {
		return user.Profile{}, err
	}

	key := storage.ObjectKey("avatars", me.ID, file.Filename)
	url, err := s.objects.Upload(ctx, s.bucket, key, file.ContentType, file.Body, file.Size)
	if err != nil {
		s.log.ErrorContext(ctx, "avatar upload failed", "user_id", me.ID, "err", err)
		return user.Profile{}, err
	}

	return s.update(ctx, me, user.UpdateProfileRequest{AvatarURL: &url})
}

func (s *ProfileService) update(ctx context.Context, me user.Profile, req user.UpdateProfileRequest) (user.Profile, error) {
	if err := requireStored(me, "profiles.update"); err != nil {
		return user.Profile{}, err
	}

	p, err := s.profiles.Update(ctx, me.ID, req)
	if err != nil {
		return user.Profile{}, err
	}

	s.log.InfoContext(ctx, "profile updated", "user_id", me.ID)
	return p, nil
}

// Public returns the public view of any profile. No session is needed.
func (s *ProfileService) Public(ctx context.Context, id string) (user.PublicProfile, error) {
	p, err := s.profiles.GetByID(ctx, id)
	if err != nil {
		return user.PublicProfile{}, err
	}
	return p.Public(), nil
}

// List is the admin directory of profiles.
func (s *ProfileService) List(ctx context.Context, f user.ListProfilesFilter) (Page[user.Profile], error) {
	if _, err := s.authz.Check(ctx, authz.RequireRole(user.RoleAdmin)); err != nil {
		return Page[user.Profile]{}, err
	}

	if f.Role != nil && !f.Role.IsValid() {
		return Page[user.Profile]{}, apperr.Validation("Unknown role.", map[string]string{"role": string(*f.Role)})
	}

	f.Limit, f.Offset = clampPage(f.Limit, f.Offset)

	items, total, err := s.profiles.List(ctx, f)
	if err != nil {
		return Page[user.Profile]{}, err
	}

	return Page[user.Profile]{Items: items, Total: total, Limit: f.Limit, Offset: f.Offset}, nil
}
