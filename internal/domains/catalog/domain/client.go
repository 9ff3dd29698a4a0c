package domain

import (
	"errors"
	"net/mail"
	"strings"
	"time"
)

var (
	ErrInvalidFullName = errors.New("full name is required")
	ErrInvalidEmail    = errors.New("email address is invalid")
)

// Client is a customer who can place orders and receive notifications.
type Client struct {
	ID        int64
	FullName  string
	Email     string
	Phone     string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewClient validates and constructs a Client.
func NewClient(fullName, email, phone string) (*Client, error) {
	c := &Client{}
	if err := c.Update(fullName, email, phone); err != nil {
		return nil, err
	}
	return c, nil
}

// Update replaces the contact details after validating them.
func (c *Client) Update(fullName, email, phone string) error {
	fullName = strings.TrimSpace(fullName)
	email = strings.ToLower(strings.TrimSpace(email))
	if fullName == "" {
		return ErrInvalidFullName
	}
	if _, err := mail.ParseAddress(email); err != nil || email == "" {
		return ErrInvalidEmail
	}
	c.FullName = fullName
	c.Email = email
	c.Phone = strings.TrimSpace(phone)
	return nil
}
