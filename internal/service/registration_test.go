package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"github.com/iliyamo/faculty-fest/internal/database/dbtest"
	"github.com/iliyamo/faculty-fest/internal/queue"
	"github.com/iliyamo/faculty-fest/internal/repository"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []queue.RankAssignedEvent
	err    error
}

func (p *recordingPublisher) PublishRankAssigned(_ context.Context, ev queue.RankAssignedEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return p.err
}

func signup(i int) SignupInput {
	return SignupInput{
		SICNumber: fmt.Sprintf("SIC%03d", i),
		Email:     fmt.Sprintf("prof%d@college.edu", i),
		Password:  "secret1",
		Name:      "Prof " + fmt.Sprint(i),
		Phone:     "9876543210",
	}
}

func newRegistration(t *testing.T, pub RankPublisher) *Registration {
	t.Helper()
	return NewRegistration(repository.NewRegistrantRepo(dbtest.Open(t)), pub, bcrypt.MinCost)
}

func TestRegisterAssignsRanksAndPublishesEligible(t *testing.T) {
	pub := &recordingPublisher{}
	s := newRegistration(t, pub)
	ctx := context.Background()
	for i := 1; i <= 11; i++ {
		reg, err := s.Register(ctx, signup(i))
		if err != nil {
			t.Fatalf("register %d: %v", i, err)
		}
		if reg.Rank == nil || *reg.Rank != i {
			t.Fatalf("register %d: rank %v", i, reg.Rank)
		}
	}
	if len(pub.events) != 10 {
		t.Fatalf("published %d events, want 10", len(pub.events))
	}
	first := pub.events[0]
	if first.Rank != 1 || first.TierID != "premium_combo" || first.MessageID == "" {
		t.Fatalf("first event = %+v", first)
	}
}

func TestRegisterSurvivesPublishFailure(t *testing.T) {
	s := newRegistration(t, &recordingPublisher{err: errors.New("broker down")})
	if _, err := s.Register(context.Background(), signup(1)); err != nil {
		t.Fatalf("register: %v", err)
	}
}

func TestRegisterDuplicate(t *testing.T) {
	s := newRegistration(t, nil)
	ctx := context.Background()
	if _, err := s.Register(ctx, signup(1)); err != nil {
		t.Fatalf("register: %v", err)
	}
	in := signup(2)
	in.SICNumber = "SIC001"
	_, err := s.Register(ctx, in)
	if !errors.Is(err, ErrAlreadyRegistered) || !errors.Is(err, repository.ErrDuplicate) {
		t.Fatalf("duplicate sic: %v", err)
	}
}

func TestSignupValidation(t *testing.T) {
	cases := map[string]func(*SignupInput){
		"sic_number": func(in *SignupInput) { in.SICNumber = " " },
		"email":      func(in *SignupInput) { in.Email = "not-an-email" },
		"password":   func(in *SignupInput) { in.Password = "12345" },
		"name":       func(in *SignupInput) { in.Name = "A" },
		"phone":      func(in *SignupInput) { in.Phone = "98765-432" },
	}
	for field, mutate := range cases {
		in := signup(1)
		mutate(&in)
		var ve *ValidationError
		if err := in.Validate(); !errors.As(err, &ve) || ve.Field != field {
			t.Errorf("%s: got %v", field, err)
		}
	}
	for _, email := range []string{"Ann <a@x.edu>", "<a@x.edu>", "a@x.edu (Ann)", "\"Ann\" <a@x.edu>"} {
		in := signup(1)
		in.Email = email
		var ve *ValidationError
		if err := in.Validate(); !errors.As(err, &ve) || ve.Field != "email" {
			t.Errorf("email %q: got %v", email, err)
		}
	}
	if err := signup(1).Validate(); err != nil {
		t.Fatalf("valid input rejected: %v", err)
	}
	in := signup(1)
	in.Email = "  prof1@college.edu "
	if err := in.Validate(); err != nil {
		t.Fatalf("padded email rejected: %v", err)
	}
}

func TestRegisterStoresBareMailbox(t *testing.T) {
	s := newRegistration(t, nil)
	ctx := context.Background()
	in := signup(1)
	in.Email = " Prof1@College.edu "
	reg, err := s.Register(ctx, in)
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if reg.Email != "prof1@college.edu" {
		t.Fatalf("stored email = %q", reg.Email)
	}
	dup := signup(2)
	dup.Email = "Ann <prof1@college.edu>"
	var ve *ValidationError
	if _, err := s.Register(ctx, dup); !errors.As(err, &ve) {
		t.Fatalf("display-name mailbox: %v", err)
	}
	dup.Email = "PROF1@college.edu"
	if _, err := s.Register(ctx, dup); !errors.Is(err, ErrAlreadyRegistered) {
		t.Fatalf("same mailbox: %v", err)
	}
}

func TestAuthenticate(t *testing.T) {
	s := newRegistration(t, nil)
	ctx := context.Background()
	if _, err := s.Register(ctx, signup(1)); err != nil {
		t.Fatalf("register: %v", err)
	}
	reg, err := s.Authenticate(ctx, "SIC001", "secret1")
	if err != nil || reg.SICNumber != "SIC001" {
		t.Fatalf("login = %+v, %v", reg, err)
	}
	if _, err := s.Authenticate(ctx, "SIC001", "wrong!"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("wrong password: %v", err)
	}
	if _, err := s.Authenticate(ctx, "SIC999", "secret1"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("unknown sic: %v", err)
	}
	email, err := s.LookupEmail(ctx, "SIC001")
	if err != nil || email != "prof1@college.edu" {
		t.Fatalf("lookup = %q, %v", email, err)
	}
}
