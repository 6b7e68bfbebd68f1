package settings

import (
	"errors"
	"fmt"
	"net/mail"
	"net/url"

	"github.com/georgemunganga/storefront-backend/internal/money"
)

var (
	ErrUnknownKey      = errors.New("unknown settings key")
	ErrInvalidSettings = errors.New("invalid settings")
)

const (
	KeyAbout   = "about"
	KeyContact = "contact"
	KeySocial  = "social"
	KeyStore   = "store"
)

// Keys lists the settings sections in display order.
var Keys = []string{KeyAbout, KeyContact, KeySocial, KeyStore}

type About struct {
	Title   string `json:"title"`
	Story   string `json:"story"`
	Mission string `json:"mission"`
}

type Contact struct {
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
	Hours   string `json:"hours"`
}

type Social struct {
	Facebook  string `json:"facebook"`
	Instagram string `json:"instagram"`
	Twitter   string `json:"twitter"`
	Youtube   string `json:"youtube"`
}

type Store struct {
	Name                  string      `json:"name"`
	Tagline               string      `json:"tagline"`
	FreeShippingThreshold money.Cents `json:"free_shipping_threshold"`
}

// SiteSettings is every section merged over its defaults.
type SiteSettings struct {
	About   About   `json:"about"`
	Contact Contact `json:"contact"`
	Social  Social  `json:"social"`
	Store   Store   `json:"store"`
}

// Defaults is what a storefront shows before anything is configured.
func Defaults() SiteSettings {
	return SiteSettings{Store: Store{FreeShippingThreshold: 5000}}
}

// section returns a pointer to the struct stored under key.
func (s *SiteSettings) section(key string) (interface{}, error) {
	switch key {
	case KeyAbout:
		return &s.About, nil
	case KeyContact:
		return &s.Contact, nil
	case KeySocial:
		return &s.Social, nil
	case KeyStore:
		return &s.Store, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownKey, key)
}

func (c Contact) validate() error {
	if c.Email == "" {
		return nil
	}
	if addr, err := mail.ParseAddress(c.Email); err != nil || addr.Address != c.Email {
		return fmt.Errorf("%w: contact email is not valid", ErrInvalidSettings)
	}
	return nil
}

func (s Social) validate() error {
	links := []struct{ name, url string }{
		{"facebook", s.Facebook}, {"instagram", s.Instagram}, {"twitter", s.Twitter}, {"youtube", s.Youtube},
	}
	for _, l := range links {
		if l.url != "" && !IsValidExternalURL(l.url) {
			return fmt.Errorf("%w: %s link must be an http(s) URL", ErrInvalidSettings, l.name)
		}
	}
	return nil
}

func (s Store) validate() error {
	if s.FreeShippingThreshold < 0 {
		return fmt.Errorf("%w: free_shipping_threshold must not be negative", ErrInvalidSettings)
	}
	return nil
}

// IsValidExternalURL reports whether raw is an absolute http or https URL.
func IsValidExternalURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
