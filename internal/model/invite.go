package model

import (
	"errors"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	// DefaultInviteLifetime bounds how long an invite link stays usable.
	DefaultInviteLifetime = 7 * 24 * time.Hour

	inviteEmailMaxLength = 320
)

var (
	ErrInvalidInviteCreator  = errors.New("invalid_invite_creator")
	ErrInvalidInviteLifetime = errors.New("invalid_invite_lifetime")
)

// Invite is a one-time registration link issued from the users management area.
type Invite struct {
	ID           string    `gorm:"primaryKey;size:36"`
	Token        string    `gorm:"not null;size:36;uniqueIndex"`
	CreatorEmail string    `gorm:"not null;size:320;index"`
	ExpiresAt    time.Time `gorm:"not null;index"`
	CreatedAt    time.Time `gorm:"autoCreateTime"`
}

// InviteInput holds the raw values used to construct an Invite.
type InviteInput struct {
	CreatorEmail string
	Lifetime     time.Duration
	IssuedAt     time.Time
}

// NewInvite validates the input and returns an Invite with fresh identifiers.
func NewInvite(input InviteInput) (Invite, error) {
	creatorEmail := strings.ToLower(strings.TrimSpace(input.CreatorEmail))
	if creatorEmail == "" || len(creatorEmail) > inviteEmailMaxLength {
		return Invite{}, ErrInvalidInviteCreator
	}
	if _, parseErr := mail.ParseAddress(creatorEmail); parseErr != nil {
		return Invite{}, ErrInvalidInviteCreator
	}

	lifetime := input.Lifetime
	if lifetime == 0 {
		lifetime = DefaultInviteLifetime
	}
	if lifetime < 0 {
		return Invite{}, ErrInvalidInviteLifetime
	}

	issuedAt := input.IssuedAt
	if issuedAt.IsZero() {
		issuedAt = time.Now().UTC()
	}

	return Invite{
		ID:           uuid.NewString(),
		Token:        uuid.NewString(),
		CreatorEmail: creatorEmail,
		ExpiresAt:    issuedAt.Add(lifetime),
		CreatedAt:    issuedAt,
	}, nil
}

// Expired reports whether the invite can no longer be redeemed at the given instant.
func (invite Invite) Expired(now time.Time) bool {
	return !now.Before(invite.ExpiresAt)
}
