package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/dmitrijs2005/gophauth/internal/client/authclient"
	"github.com/dmitrijs2005/gophauth/internal/client/config"
	"github.com/dmitrijs2005/gophauth/internal/rpc"
)

// authAPI is the part of authclient.Client the console uses.
type authAPI interface {
	Register(ctx context.Context, in authclient.RegisterInput) (*authclient.Session, error)
	Login(ctx context.Context, in authclient.LoginInput) (*authclient.Session, error)
}

type App struct {
	config  *config.Config
	api     authAPI
	closer  io.Closer
	reader  *bufio.Reader
	out     io.Writer
	session *authclient.Session
	email   string
}

func NewApp(c *config.Config) (*App, error) {
	conn, err := authclient.Dial(c.ServerEndpointAddr)
	if err != nil {
		return nil, err
	}

	return &App{
		config: c,
		api:    authclient.NewClient(conn, c.CallTimeout),
		closer: conn,
		reader: bufio.NewReader(os.Stdin),
		out:    os.Stdout,
	}, nil
}

func (a *App) Run(ctx context.Context) {
	if a.closer != nil {
		defer a.closer.Close()
	}
	printlnFn("Auth console (type 'help' for commands)")
	runREPL(ctx, a, a.getStatus, a.reader)
}

func (a *App) isLoggedIn() bool {
	return a.session != nil
}

func (a *App) getStatus() string {
	if a.email == "" {
		return ""
	}
	return fmt.Sprintf("(%s)", a.email)
}

// report prints err the way the service phrased it.
func (a *App) report(err error) {
	var f *rpc.Fault
	if errors.As(err, &f) {
		printlnFn(fmt.Sprintf("Error %d: %s", f.Status, f.Message))
		return
	}
	printlnFn("Error:", err)
}
