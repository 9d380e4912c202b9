package service

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/geocoder89/printhub/internal/apperr"
	"github.com/geocoder89/printhub/internal/authz"
	"github.com/geocoder89/printhub/internal/domain/user"
)

func TestProfileMe_CreatesOnFirstSight(t *testing.T) {
	w := newWorld(t)
	s := NewProfileService(w.enforcer, w.profiles, &fakeObjects{}, "assets", 1<<20, discardLogger())

	p, err := s.Me(as("fresh"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.ID != "fresh" || p.Role != user.RoleCustomer {
		t.Fatalf("unexpected profile %+v", p)
	}
	if _, err := w.profiles.GetByID(context.Background(), "fresh"); err != nil {
		t.Fatalf("profile should be persisted: %v", err)
	}

	_, err = s.Me(anonymous())
	assertKind(t, err, apperr.ErrNotAuthenticated)
}

func TestProfileUpdateMe_SanitizesAndValidates(t *testing.T) {
	w := newWorld(t, person("u1", user.RoleDesigner))
	s := NewProfileService(w.enforcer, w.profiles, &fakeObjects{}, "assets", 1<<20, discardLogger())

	p, err := s.UpdateMe(as("u1"), user.UpdateProfileRequest{
		FirstName: ptr("  <i>Ada</i> "),
		Bio:       ptr("<script>x()</script>I print things"),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.FirstName != "Ada" || p.Bio == nil || *p.Bio != "I print things" {
		t.Fatalf("unexpected profile %+v bio=%v", p, p.Bio)
	}

	_, err = s.UpdateMe(as("u1"), user.UpdateProfileRequest{AvatarURL: ptr("not a url")})
	assertKind(t, err, apperr.ErrValidation)

	_, err = s.UpdateMe(as("u1"), user.UpdateProfileRequest{FirstName: ptr("<b></b>")})
	assertKind(t, err, apperr.ErrValidation)
}

func TestProfileUploadAvatar(t *testing.T) {
	w := newWorld(t, person("u1", user.RoleCustomer))
	objects := &fakeObjects{}
	s := NewProfileService(w.enforcer, w.profiles, objects, "assets", 8, discardLogger())

	p, err := s.UploadAvatar(as("u1"), Upload{Filename: "me.PNG", ContentType: "image/png", Size: 4, Body: strings.NewReader("png!")})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.AvatarURL == nil || !strings.HasPrefix(*p.AvatarURL, "https://cdn.example.com/avatars/u1/") || !strings.HasSuffix(*p.AvatarURL, ".png") {
		t.Fatalf("unexpected avatar %v", p.AvatarURL)
	}

	_, err = s.UploadAvatar(as("u1"), Upload{Filename: "big.png", ContentType: "image/png", Size: 9, Body: strings.NewReader("123456789")})
	assertKind(t, err, apperr.ErrValidation)

	objects.UploadFn = func(context.Context, string, string, string, io.Reader, int64) (string, error) {
		return "", apperr.Upstream("s3.put", errors.New("boom"))
	}
	_, err = s.UploadAvatar(as("u1"), Upload{Filename: "me.png", ContentType: "image/png", Size: 4, Body: strings.NewReader("png!")})
	assertKind(t, err, apperr.ErrUpstream)
}

func TestProfileList_AdminOnly(t *testing.T) {
	w := newWorld(t, person("admin", user.RoleAdmin), person("c1", user.RoleCustomer), person("d1", user.RoleDesigner))
	s := NewProfileService(w.enforcer, w.profiles, &fakeObjects{}, "assets", 1<<20, discardLogger())

	_, err := s.List(as("c1"), user.ListProfilesFilter{})
	assertReason(t, err, authz.ReasonWrongRole)

	designer := user.RoleDesigner
	page, err := s.List(as("admin"), user.ListProfilesFilter{Role: &designer})
	if err != nil {
		t.Fatal(err)
	}
	if page.Total != 1 || page.Items[0].ID != "d1" {
		t.Fatalf("unexpected page %+v", page)
	}

	bogus := user.Role("root")
	_, err = s.List(as("admin"), user.ListProfilesFilter{Role: &bogus})
	assertKind(t, err, apperr.ErrValidation)
}

func TestProfilePublic_NoSessionNeeded(t *testing.T) {
	w := newWorld(t, person("d1", user.RoleDesigner))
	s := NewProfileService(w.enforcer, w.profiles, &fakeObjects{}, "assets", 1<<20, discardLogger())

	p, err := s.Public(anonymous(), "d1")
	if err != nil || p.ID != "d1" || p.Role != user.RoleDesigner {
		t.Fatalf("unexpected public profile %+v %v", p, err)
	}

	_, err = s.Public(anonymous(), "nobody")
	assertKind(t, err, apperr.ErrNotFound)
}
