package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/geocoder89/printhub/internal/apperr"
	"github.com/geocoder89/printhub/internal/domain/user"
)

// ProfilesRepo is an in-process profile store for tests and local runs
// without Postgres.
type ProfilesRepo struct {
	mu    sync.RWMutex
	items map[string]user.Profile
}

func NewProfilesRepo() *ProfilesRepo {
	return &ProfilesRepo{
		items: make(map[string]user.Profile),
	}
}

func (r *ProfilesRepo) GetByID(_ context.Context, id string) (user.Profile, error) {
	r.mu.RLock()
	p, ok := r.items[id]
	r.mu.RUnlock()

	if !ok {
		return user.Profile{}, apperr.NotFound("profile")
	}
	return p, nil
}

func (r *ProfilesRepo) Create(_ context.Context, p user.Profile) (user.Profile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.items[p.ID]; exists {
		return user.Profile{}, apperr.Conflict("profile_exists", "profile already exists")
	}

	p.Synthesized = false
	r.items[p.ID] = p
	return p, nil
}

func (r *ProfilesRepo) Update(_ context.Context, id string, req user.UpdateProfileRequest) (user.Profile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.items[id]
	if !ok {
		return user.Profile{}, apperr.NotFound("profile")
	}

	if req.FirstName != nil {
		p.FirstName = *req.FirstName
	}
	if req.LastName != nil {
		p.LastName = *req.LastName
	}
	if req.Bio != nil {
		p.Bio = req.Bio
	}
	if req.AvatarURL != nil {
		p.AvatarURL = req.AvatarURL
	}
	p.UpdatedAt = time.Now().UTC()

	r.items[id] = p
	return p, nil
}

func (r *ProfilesRepo) List(_ context.Context, f user.ListProfilesFilter) ([]user.Profile, int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]user.Profile, 0, len(r.items))
	for _, p := range r.items {
		if f.Role != nil && p.Role != *f.Role {
			continue
		}
		if f.Query != nil {
			q := strings.ToLower(*f.Query)
			hay := strings.ToLower(p.FirstName + " " + p.LastName + " " + p.Email)
			if !strings.Contains(hay, q) {
				continue
			}
		}
		out = append(out, p)
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})

	total := len(out)
	if f.Offset >= total {
		return []user.Profile{}, total, nil
	}
	out = out[f.Offset:]
	if f.Limit > 0 && f.Limit < len(out) {
		out = out[:f.Limit]
	}
	return out, total, nil
}

func (r *ProfilesRepo) ListRoles(_ context.Context) ([]user.Role, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]user.Role, 0, len(r.items))
	for _, p := range r.items {
		out = append(out, p.Role)
	}
	return out, nil
}
