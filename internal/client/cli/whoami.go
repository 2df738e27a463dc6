package cli

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var errNoSession = errors.New("not logged in")

// Whoami prints the claims of the current token and the user returned with
// it. The token signature is not checked; only the service can do that.
func (a *App) Whoami(ctx context.Context) error {
	if a.session == nil {
		printlnFn("Not logged in")
		return errNoSession
	}

	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(a.session.Token, claims); err != nil {
		a.report(err)
		return err
	}

	printlnFn("id:", claims["id"])
	printlnFn("email:", claims["email"])
	printlnFn("role:", claims["role"])
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		printlnFn("expires:", exp.Time.Format(time.RFC3339))
	}

	keys := make([]string, 0, len(a.session.User))
	for k := range a.session.User {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		printlnFn(fmt.Sprintf("user.%s: %v", k, a.session.User[k]))
	}
	return nil
}
