package domain

import (
	"strings"
	"time"
	"unicode"
	"unicode/utf8"
)

// DefaultContactColor is used when a contact has no badge color.
const DefaultContactColor = "#D1D1D1"

// ContactPalette lists the badge colors new contacts draw from.
var ContactPalette = []string{
	"#FF5733", "#E3870E", "#3357FF", "#F333FF", "#FF33A8", "#B31010",
	"#14AB2F", "#EFD426", "#26B0EF", "#7AC4E5", "#A77AE5", "#E57AE3",
	"#C55167", "#4BAF89", "#AFAF4B", "#E79623", "#E72323", "#BFA46C",
}

// Contact is a person tasks can be assigned to. Registered contacts can log in.
type Contact struct {
	ID           string
	Name         string
	Email        string
	Phone        string
	Color        string
	Registered   bool
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type ContactInput struct {
	ID    string
	Name  string
	Email string
	Phone string
	Color string
}

func NewContact(in ContactInput, now time.Time) (Contact, error) {
	id := strings.TrimSpace(in.ID)
	if id == "" {
		return Contact{}, ErrInvalidID
	}
	c := Contact{ID: id, CreatedAt: now.UTC()}
	if err := c.Update(in, now); err != nil {
		return Contact{}, err
	}
	return c, nil
}

func (c *Contact) Update(in ContactInput, now time.Time) error {
	name := strings.Join(strings.Fields(in.Name), " ")
	if name == "" {
		return ErrInvalidName
	}
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if !validEmail(email) {
		return ErrInvalidEmail
	}
	color := strings.TrimSpace(in.Color)
	if color == "" {
		color = c.Color
	}
	if color == "" {
		color = DefaultContactColor
	}
	c.Name = name
	c.Email = email
	c.Phone = strings.TrimSpace(in.Phone)
	c.Color = color
	c.UpdatedAt = now.UTC()
	return nil
}

// Initials returns up to two uppercase letters from the first and last name.
func (c Contact) Initials() string {
	parts := strings.Fields(c.Name)
	if len(parts) == 0 {
		return ""
	}
	out := firstRune(parts[0])
	if len(parts) > 1 {
		out += firstRune(parts[len(parts)-1])
	}
	return out
}

func firstRune(s string) string {
	r, _ := utf8.DecodeRuneInString(s)
	return string(unicode.ToUpper(r))
}

func validEmail(email string) bool {
	at := strings.Index(email, "@")
	if at <= 0 || at != strings.LastIndex(email, "@") {
		return false
	}
	domainPart := email[at+1:]
	return strings.Contains(domainPart, ".") && !strings.HasPrefix(domainPart, ".") && !strings.HasSuffix(domainPart, ".")
}
