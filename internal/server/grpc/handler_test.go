package grpc

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/logging"
	"github.com/dmitrijs2005/gophauth/internal/rpc"
	"github.com/dmitrijs2005/gophauth/internal/server/auth"
	"github.com/dmitrijs2005/gophauth/internal/server/models"
	"github.com/dmitrijs2005/gophauth/internal/server/repositories/credentials"
	"github.com/dmitrijs2005/gophauth/internal/server/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"google.golang.org/protobuf/types/known/structpb"
)

type fakeAuth struct {
	registerReq models.RegisterRequest
	registerOut *services.RegisterResult
	registerErr error

	loginReq models.LoginRequest
	loginOut *services.LoginResult
	loginErr error

	panicWith any
}

func (f *fakeAuth) Register(ctx context.Context, req models.RegisterRequest) (*services.RegisterResult, error) {
	if f.panicWith != nil {
		panic(f.panicWith)
	}
	f.registerReq = req
	return f.registerOut, f.registerErr
}

func (f *fakeAuth) Login(ctx context.Context, req models.LoginRequest) (*services.LoginResult, error) {
	f.loginReq = req
	return f.loginOut, f.loginErr
}

func newServer(t *testing.T, a Authenticator) *GRPCServer {
	t.Helper()
	s, err := NewGRPCServer("bufnet", logging.Nop{}, a)
	require.NoError(t, err)
	return s
}

func registerPayload() map[string]any {
	return map[string]any{
		"email":      "a@b.com",
		"password":   "Passw0rd!",
		"role":       "USER",
		"dni":        "12345678",
		"first_name": "Ada",
		"last_name":  "Lovelace",
	}
}

func invoke(t *testing.T, s *GRPCServer, cmd string, payload map[string]any) (*structpb.Struct, error) {
	t.Helper()
	conn := startTestServer(t, s)
	req, err := structpb.NewStruct(payload)
	require.NoError(t, err)
	return rpc.Invoke(context.Background(), conn, rpc.AuthService, cmd, req)
}

func TestRegister_OK(t *testing.T) {
	ts := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	fa := &fakeAuth{registerOut: &services.RegisterResult{
		User:  models.CredentialView{ID: "c-1", Email: "a@b.com", Role: models.RoleUser, CreatedAt: ts, UpdatedAt: ts},
		Token: "tok",
	}}

	resp, err := invoke(t, newServer(t, fa), rpc.CmdAuthRegister, registerPayload())
	require.NoError(t, err)

	assert.Equal(t, models.RegisterRequest{
		Email: "a@b.com", Password: "Passw0rd!", Role: models.RoleUser,
		DNI: "12345678", FirstName: "Ada", LastName: "Lovelace",
	}, fa.registerReq)

	m := resp.AsMap()
	assert.Equal(t, "tok", m["token"])
	user, ok := m["user"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "c-1", user["id"])
	assert.Equal(t, "USER", user["role"])
	assert.Equal(t, "2025-01-02T03:04:05Z", user["createdAt"])
	assert.NotContains(t, user, "password_hash")
	assert.NotContains(t, user, "passwordHash")
}

func TestRegister_Faults(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantMsg    string
	}{
		{"duplicate", services.ErrDuplicateEmail, http.StatusBadRequest, "Email already registered"},
		{"profile", fmt.Errorf("%w: users down", services.ErrProfileCreationFailed), http.StatusInternalServerError, "Failed to create user profile"},
		{"role", fmt.Errorf("%w: unknown role %q", services.ErrValidation, "ROOT"), http.StatusBadRequest, `Validation failed: unknown role "ROOT"`},
		{"generic", services.ErrRegistrationFailed, http.StatusBadRequest, "Registration failed. Please try again."},
		{"unclassified", errors.New("db exploded"), http.StatusBadRequest, "Registration failed. Please try again."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := invoke(t, newServer(t, &fakeAuth{registerErr: tt.err}), rpc.CmdAuthRegister, registerPayload())
			require.Error(t, err)

			f := rpc.FaultFromError(err)
			assert.Equal(t, tt.wantStatus, f.Status)
			assert.Equal(t, tt.wantMsg, f.Message)
		})
	}
}

func TestRegister_ValidationFault(t *testing.T) {
	fa := &fakeAuth{}
	payload := registerPayload()
	payload["password"] = "weak"
	payload["email"] = "nope"

	_, err := invoke(t, newServer(t, fa), rpc.CmdAuthRegister, payload)
	require.Error(t, err)

	f := rpc.FaultFromError(err)
	assert.Equal(t, http.StatusBadRequest, f.Status)
	assert.Contains(t, f.Message, "Validation failed: ")
	assert.Contains(t, f.Message, "email must be a valid email")
	assert.Contains(t, f.Message, "password must be")
	assert.Empty(t, fa.registerReq.Email, "service must not be called")
}

func TestRegister_MalformedPayload(t *testing.T) {
	payload := registerPayload()
	payload["email"] = 42.0

	_, err := invoke(t, newServer(t, &fakeAuth{}), rpc.CmdAuthRegister, payload)
	f := rpc.FaultFromError(err)
	assert.Equal(t, http.StatusBadRequest, f.Status)
	assert.Equal(t, "Validation failed: malformed payload", f.Message)
}

func TestRegister_PanicBecomesInternalFault(t *testing.T) {
	_, err := invoke(t, newServer(t, &fakeAuth{panicWith: "boom"}), rpc.CmdAuthRegister, registerPayload())

	f := rpc.FaultFromError(err)
	assert.Equal(t, http.StatusInternalServerError, f.Status)
	assert.Equal(t, "Internal server error", f.Message)
}

func TestLogin_OK(t *testing.T) {
	fa := &fakeAuth{loginOut: &services.LoginResult{
		User:  models.UserView{ID: "c-1", Email: "a@b.com", Role: models.RoleAdmin, FirstName: "Ada"},
		Token: "tok",
	}}

	resp, err := invoke(t, newServer(t, fa), rpc.CmdAuthLogin, map[string]any{"email": "a@b.com", "password": "x"})
	require.NoError(t, err)

	assert.Equal(t, models.LoginRequest{Email: "a@b.com", Password: "x"}, fa.loginReq)
	user := resp.AsMap()["user"].(map[string]any)
	assert.Equal(t, "Ada", user["first_name"])
	assert.Equal(t, "ADMIN", user["role"])
	assert.Equal(t, "tok", resp.AsMap()["token"])
}

func TestLogin_Faults(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantMsg    string
	}{
		{"invalid", services.ErrInvalidCredentials, http.StatusUnauthorized, "Invalid credentials"},
		{"generic", services.ErrLoginFailed, http.StatusBadRequest, "Login failed. Please try again."},
		{"unclassified", errors.New("oops"), http.StatusBadRequest, "Login failed. Please try again."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := invoke(t, newServer(t, &fakeAuth{loginErr: tt.err}), rpc.CmdAuthLogin, map[string]any{"email": "a@b.com", "password": "x"})
			f := rpc.FaultFromError(err)
			assert.Equal(t, tt.wantStatus, f.Status)
			assert.Equal(t, tt.wantMsg, f.Message)
		})
	}
}

func TestLogin_MissingFields(t *testing.T) {
	_, err := invoke(t, newServer(t, &fakeAuth{}), rpc.CmdAuthLogin, map[string]any{})
	f := rpc.FaultFromError(err)
	assert.Equal(t, http.StatusBadRequest, f.Status)
	assert.Equal(t, "Validation failed: email is required; password is required", f.Message)
}

// nopProfiles accepts every profile and finds none.
type nopProfiles struct{ fail bool }

func (p nopProfiles) Create(context.Context, models.ProfileCreate) error {
	if p.fail {
		return errors.New("users service unavailable")
	}
	return nil
}

func (nopProfiles) FindOne(context.Context, string) (*models.Profile, error) {
	return nil, errors.New("users service unavailable")
}

func TestEndToEnd_InvalidCredentialFaultsAreIdentical(t *testing.T) {
	svc := services.NewAuthService(credentials.NewMemoryRepository(), nopProfiles{},
		auth.NewIssuer([]byte("k"), 0), auth.NewHasher(bcrypt.MinCost), nil, nil, services.AuthOptions{})
	s := newServer(t, svc)
	conn := startTestServer(t, s)

	call := func(cmd string, payload map[string]any) (*structpb.Struct, error) {
		req, err := structpb.NewStruct(payload)
		require.NoError(t, err)
		return rpc.Invoke(context.Background(), conn, rpc.AuthService, cmd, req)
	}

	_, err := call(rpc.CmdAuthRegister, registerPayload())
	require.NoError(t, err)

	resp, err := call(rpc.CmdAuthLogin, map[string]any{"email": "a@b.com", "password": "Passw0rd!"})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.AsMap()["token"])

	_, unknownErr := call(rpc.CmdAuthLogin, map[string]any{"email": "ghost@b.com", "password": "Passw0rd!"})
	_, wrongErr := call(rpc.CmdAuthLogin, map[string]any{"email": "a@b.com", "password": "Wrong-pass1"})

	assert.Equal(t, rpc.FaultFromError(unknownErr), rpc.FaultFromError(wrongErr))
	assert.Equal(t, http.StatusUnauthorized, rpc.FaultFromError(wrongErr).Status)

	_, dupErr := call(rpc.CmdAuthRegister, registerPayload())
	assert.Equal(t, &rpc.Fault{Status: http.StatusBadRequest, Message: "Email already registered"}, rpc.FaultFromError(dupErr))
}

func TestEndToEnd_ProfileFailureLeavesEmailFree(t *testing.T) {
	store := credentials.NewMemoryRepository()
	svc := services.NewAuthService(store, nopProfiles{fail: true},
		auth.NewIssuer([]byte("k"), 0), auth.NewHasher(bcrypt.MinCost), nil, nil, services.AuthOptions{})

	_, err := invoke(t, newServer(t, svc), rpc.CmdAuthRegister, registerPayload())
	f := rpc.FaultFromError(err)
	assert.Equal(t, http.StatusInternalServerError, f.Status)
	assert.Equal(t, "Failed to create user profile", f.Message)
	assert.Equal(t, 0, store.Len())
}
