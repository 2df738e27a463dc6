package cli

import (
	"context"

	"github.com/dmitrijs2005/gophauth/internal/client/authclient"
)

// getSimpleText and getPassword are swapped in tests.
var getSimpleText = GetSimpleText
var getPassword = GetPassword

const defaultRole = "USER"

// Register asks for the account and profile fields and calls auth_register.
// An empty role means USER. On success the new session becomes current.
func (a *App) Register(ctx context.Context) error {
	email, err := getSimpleText(a.reader, "Enter email", a.out)
	if err != nil {
		return err
	}

	password, err := getPassword(a.out)
	if err != nil {
		return err
	}
	defer wipe(password)

	in := authclient.RegisterInput{Email: email, Password: string(password)}

	fields := []struct {
		prompt string
		dst    *string
	}{
		{"Enter role (ADMIN or USER, empty for USER)", &in.Role},
		{"Enter DNI", &in.DNI},
		{"Enter first name", &in.FirstName},
		{"Enter last name", &in.LastName},
	}
	for _, f := range fields {
		if *f.dst, err = getSimpleText(a.reader, f.prompt, a.out); err != nil {
			return err
		}
	}
	if in.Role == "" {
		in.Role = defaultRole
	}

	s, err := a.api.Register(ctx, in)
	if err != nil {
		a.report(err)
		return err
	}

	a.setSession(email, s)
	printlnFn("Registered, id:", s.User["id"])
	return nil
}

// Login asks for email and password and calls auth_login.
func (a *App) Login(ctx context.Context) error {
	email, err := getSimpleText(a.reader, "Enter email", a.out)
	if err != nil {
		return err
	}

	password, err := getPassword(a.out)
	if err != nil {
		return err
	}
	defer wipe(password)

	s, err := a.api.Login(ctx, authclient.LoginInput{Email: email, Password: string(password)})
	if err != nil {
		a.report(err)
		return err
	}

	a.setSession(email, s)
	printlnFn("Logged in as", email)
	return nil
}

func (a *App) Logout(ctx context.Context) error {
	a.session = nil
	a.email = ""
	printlnFn("Logged out")
	return nil
}

func (a *App) setSession(email string, s *authclient.Session) {
	a.session = s
	a.email = email
}
