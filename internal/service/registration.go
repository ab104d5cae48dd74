package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/mail"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/iliyamo/faculty-fest/internal/eligibility"
	"github.com/iliyamo/faculty-fest/internal/model"
	"github.com/iliyamo/faculty-fest/internal/queue"
	"github.com/iliyamo/faculty-fest/internal/repository"
	"github.com/iliyamo/faculty-fest/internal/utils"
)

// RegistrantStore is the registrant persistence used for signup and login.
type RegistrantStore interface {
	Create(ctx context.Context, r *model.Registrant) error
	GetBySIC(ctx context.Context, sic string) (model.Registrant, error)
	EmailBySIC(ctx context.Context, sic string) (string, error)
}

// RankPublisher announces a newly assigned eligible rank.
type RankPublisher interface {
	PublishRankAssigned(ctx context.Context, ev queue.RankAssignedEvent) error
}

// SignupInput is the data collected by the signup form.
type SignupInput struct {
	SICNumber string
	Email     string
	Password  string
	Name      string
	Phone     string
}

// Registration handles signup, identity lookup and credential checks.
type Registration struct {
	Registrants RegistrantStore
	Publisher   RankPublisher // nil disables rank notifications
	BcryptCost  int
}

func NewRegistration(store RegistrantStore, pub RankPublisher, bcryptCost int) *Registration {
	return &Registration{Registrants: store, Publisher: pub, BcryptCost: bcryptCost}
}

// Validate checks the signup form.
func (in SignupInput) Validate() error {
	if strings.TrimSpace(in.SICNumber) == "" {
		return invalid("sic_number", "SIC number is required")
	}
	if _, ok := bareAddress(in.Email); !ok {
		return invalid("email", "invalid email address")
	}
	if utf8.RuneCountInString(in.Password) < 6 {
		return invalid("password", "password must be at least 6 characters")
	}
	if utf8.RuneCountInString(strings.TrimSpace(in.Name)) < 2 {
		return invalid("name", "name must be at least 2 characters")
	}
	digits := 0
	for _, r := range in.Phone {
		if unicode.IsDigit(r) {
			digits++
		}
	}
	if digits < 10 {
		return invalid("phone", "phone number must be at least 10 digits")
	}
	return nil
}

// bareAddress accepts only a plain addr-spec.  Display names, comments
// and angle brackets are rejected so the stored value is the mailbox.
func bareAddress(raw string) (string, bool) {
	raw = strings.TrimSpace(raw)
	addr, err := mail.ParseAddress(raw)
	if err != nil || addr.Name != "" || addr.Address != raw {
		return "", false
	}
	return addr.Address, true
}

// Register creates the registrant; the store assigns the rank.  When
// the rank earns a tier a RankAssignedEvent is published.  Publish
// failures are logged and never fail the signup.
func (s *Registration) Register(ctx context.Context, in SignupInput) (model.Registrant, error) {
	if err := in.Validate(); err != nil {
		return model.Registrant{}, err
	}
	email, _ := bareAddress(in.Email)
	hash, err := utils.HashPassword(in.Password, s.BcryptCost)
	if err != nil {
		return model.Registrant{}, fmt.Errorf("hash password: %w", err)
	}
	reg := model.Registrant{
		SICNumber:    strings.TrimSpace(in.SICNumber),
		Email:        email,
		Phone:        strings.TrimSpace(in.Phone),
		Name:         strings.TrimSpace(in.Name),
		PasswordHash: hash,
	}
	if err := s.Registrants.Create(ctx, &reg); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return model.Registrant{}, fmt.Errorf("%w (%s)", ErrAlreadyRegistered, repository.DuplicateKey(err))
		}
		return model.Registrant{}, fmt.Errorf("create registrant: %w", err)
	}
	s.announce(ctx, reg)
	return reg, nil
}

func (s *Registration) announce(ctx context.Context, reg model.Registrant) {
	tier, ok := eligibility.Resolve(reg.Rank)
	if !ok || s.Publisher == nil {
		return
	}
	ev := queue.RankAssignedEvent{
		MessageID:    uuid.NewString(),
		RegistrantID: reg.ID,
		Name:         reg.Name,
		Email:        reg.Email,
		Phone:        reg.Phone,
		Rank:         *reg.Rank,
		TierID:       tier.ID,
		TierName:     tier.Name,
		AssignedAt:   reg.CreatedAt.UTC().Format(time.RFC3339),
	}
	if err := s.Publisher.PublishRankAssigned(ctx, ev); err != nil {
		log.Printf("registration: publish rank for registrant %d failed: %v", reg.ID, err)
	}
}

// LookupEmail resolves the contact email for an institution id.
func (s *Registration) LookupEmail(ctx context.Context, sic string) (string, error) {
	if strings.TrimSpace(sic) == "" {
		return "", invalid("sic_number", "SIC number is required")
	}
	return s.Registrants.EmailBySIC(ctx, sic)
}

// Authenticate checks the password for the registrant behind an
// institution id.  Unknown ids and wrong passwords both yield
// ErrInvalidCredentials.
func (s *Registration) Authenticate(ctx context.Context, sic, password string) (model.Registrant, error) {
	if strings.TrimSpace(sic) == "" || password == "" {
		return model.Registrant{}, invalid("", "sic_number/password required")
	}
	reg, err := s.Registrants.GetBySIC(ctx, sic)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return model.Registrant{}, ErrInvalidCredentials
		}
		return model.Registrant{}, fmt.Errorf("load registrant: %w", err)
	}
	if !utils.VerifyPassword(reg.PasswordHash, password) {
		return model.Registrant{}, ErrInvalidCredentials
	}
	return reg, nil
}
