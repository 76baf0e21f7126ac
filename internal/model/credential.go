package model

import "errors"

// Credential is the single static username/password pair accepted at login.
type Credential struct {
	Username string
	Password string
}

// Validate checks that both halves of the credential are set.
func (c Credential) Validate() error {
	if c.Username == "" {
		return errors.New("username must not be empty")
	}
	if c.Password == "" {
		return errors.New("password must not be empty")
	}
	return nil
}
