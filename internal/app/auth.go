package app

import (
	"context"
	"strings"

	"github.com/evanschultz/join/internal/domain"
)

// SignUpInput holds input values for account registration.
type SignUpInput struct {
	Name     string
	Email    string
	Password string
}

// Session is a signed-in actor and its bearer token.
type Session struct {
	Actor Actor
	Token string
}

// SignUp registers a new contact that can log in.
func (s *Service) SignUp(ctx context.Context, in SignUpInput) (domain.Contact, error) {
	if s.hasher == nil {
		return domain.Contact{}, ErrAuthUnavailable
	}
	if len(in.Password) < s.minPassword {
		return domain.Contact{}, ErrWeakPassword
	}
	if _, err := s.findContactByEmail(ctx, in.Email); err == nil {
		return domain.Contact{}, ErrEmailTaken
	} else if !isNotFound(err) {
		return domain.Contact{}, err
	}
	contact, err := domain.NewContact(domain.ContactInput{
		ID:    s.idGen(),
		Name:  in.Name,
		Email: in.Email,
		Color: s.pickColor(),
	}, s.clock())
	if err != nil {
		return domain.Contact{}, err
	}
	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return domain.Contact{}, err
	}
	contact.Registered = true
	contact.PasswordHash = hash
	if err := s.repo.CreateContact(ctx, contact); err != nil {
		return domain.Contact{}, err
	}
	return contact, nil
}

// Login verifies credentials and issues a session token.
func (s *Service) Login(ctx context.Context, email, password string) (Session, error) {
	if s.hasher == nil || s.tokens == nil {
		return Session{}, ErrAuthUnavailable
	}
	contact, err := s.findContactByEmail(ctx, email)
	if err != nil {
		if isNotFound(err) {
			return Session{}, ErrInvalidCredentials
		}
		return Session{}, err
	}
	if !contact.Registered || strings.TrimSpace(contact.PasswordHash) == "" {
		return Session{}, ErrInvalidCredentials
	}
	if err := s.hasher.Compare(contact.PasswordHash, password); err != nil {
		return Session{}, ErrInvalidCredentials
	}
	return s.issue(Actor{ContactID: contact.ID, Name: contact.Name})
}

// GuestLogin issues a session for the shared guest identity.
func (s *Service) GuestLogin(context.Context) (Session, error) {
	if s.tokens == nil {
		return Session{}, ErrAuthUnavailable
	}
	return s.issue(Actor{ContactID: GuestActorID, Name: "Guest"})
}

// Authenticate resolves a bearer token into an actor.
func (s *Service) Authenticate(token string) (Actor, error) {
	if s.tokens == nil {
		return Actor{}, ErrAuthUnavailable
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return Actor{}, ErrUnauthenticated
	}
	actor, err := s.tokens.Verify(token)
	if err != nil {
		return Actor{}, ErrUnauthenticated
	}
	return normalizeActor(actor), nil
}

func (s *Service) issue(actor Actor) (Session, error) {
	actor = normalizeActor(actor)
	token, err := s.tokens.Issue(actor)
	if err != nil {
		return Session{}, err
	}
	return Session{Actor: actor, Token: token}, nil
}
