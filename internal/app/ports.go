package app

import (
	"context"
	"time"

	"github.com/evanschultz/join/internal/domain"
)

// Repository persists tasks and contacts.
type Repository interface {
	CreateTask(context.Context, domain.Task) error
	UpdateTask(context.Context, domain.Task) error
	UpdateTaskStatus(context.Context, string, domain.Status, time.Time) error
	GetTask(context.Context, string) (domain.Task, error)
	ListTasks(context.Context) ([]domain.Task, error)
	DeleteTask(context.Context, string) error

	CreateContact(context.Context, domain.Contact) error
	UpdateContact(context.Context, domain.Contact) error
	GetContact(context.Context, string) (domain.Contact, error)
	ListContacts(context.Context) ([]domain.Contact, error)
	DeleteContact(context.Context, string) error
}

// PasswordHasher hashes and verifies login passwords.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Compare(hash, password string) error
}

// TokenIssuer signs and verifies session tokens for an Actor.
type TokenIssuer interface {
	Issue(Actor) (string, error)
	Verify(token string) (Actor, error)
}
