package profiles

import (
	"context"
	"net"
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/rpc"
	"github.com/dmitrijs2005/gophauth/internal/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/structpb"
)

// fakeUsers is an in-process users service.
type fakeUsers struct {
	create  rpc.Handler
	findOne rpc.Handler
}

func startUsers(t *testing.T, f *fakeUsers) *grpc.ClientConn {
	t.Helper()

	handlers := map[string]rpc.Handler{}
	if f.create != nil {
		handlers[rpc.CmdUserCreate] = f.create
	}
	if f.findOne != nil {
		handlers[rpc.CmdUserFindOne] = f.findOne
	}

	lis := bufconn.Listen(1 << 20)
	srv := grpc.NewServer()
	srv.RegisterService(rpc.NewServiceDesc(rpc.UsersService, handlers), struct{}{})
	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(srv.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) { return lis.DialContext(ctx) }),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func fastOptions() Options {
	return Options{CallTimeout: time.Second, FindRetries: 2, RetryBase: time.Millisecond}
}

func TestCreate_SendsPayload(t *testing.T) {
	var got *structpb.Struct
	conn := startUsers(t, &fakeUsers{
		create: func(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
			got = req
			return structpb.NewStruct(map[string]any{"id": "c-1"})
		},
	})

	c := NewClient(conn, fastOptions(), nil)
	err := c.Create(context.Background(), models.ProfileCreate{ID: "c-1", DNI: "123", FirstName: "Ada", LastName: "Lovelace"})
	require.NoError(t, err)

	require.NotNil(t, got)
	assert.Equal(t, map[string]any{"id": "c-1", "dni": "123", "first_name": "Ada", "last_name": "Lovelace"}, got.AsMap())
}

func TestCreate_FaultIsNotRetried(t *testing.T) {
	var calls atomic.Int32
	conn := startUsers(t, &fakeUsers{
		create: func(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
			calls.Add(1)
			return nil, status.Error(codes.Unavailable, "down")
		},
	})

	err := NewClient(conn, fastOptions(), nil).Create(context.Background(), models.ProfileCreate{ID: "c-1"})
	require.Error(t, err)
	assert.Equal(t, int32(1), calls.Load())
	assert.Equal(t, http.StatusServiceUnavailable, rpc.FaultFromError(err).Status)
}

func TestCreate_Timeout(t *testing.T) {
	conn := startUsers(t, &fakeUsers{
		create: func(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
			<-ctx.Done()
			return nil, ctx.Err()
		},
	})

	opts := fastOptions()
	opts.CallTimeout = 20 * time.Millisecond

	start := time.Now()
	err := NewClient(conn, opts, nil).Create(context.Background(), models.ProfileCreate{ID: "c-1"})
	require.Error(t, err)
	assert.Equal(t, codes.DeadlineExceeded, status.Code(err))
	assert.Less(t, time.Since(start), time.Second)
}

func TestFindOne_Found(t *testing.T) {
	conn := startUsers(t, &fakeUsers{
		findOne: func(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
			return structpb.NewStruct(map[string]any{
				"id":         req.GetFields()["id"].GetStringValue(),
				"dni":        "123",
				"first_name": "Ada",
				"last_name":  "Lovelace",
				"createdAt":  "2025-01-02T03:04:05Z",
				"extra":      "ignored",
			})
		},
	})

	p, err := NewClient(conn, fastOptions(), nil).FindOne(context.Background(), "c-1")
	require.NoError(t, err)
	assert.Equal(t, "c-1", p.ID)
	assert.Equal(t, "Ada", p.FirstName)
	require.NotNil(t, p.CreatedAt)
	assert.Equal(t, time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC), p.CreatedAt.UTC())
	assert.Nil(t, p.UpdatedAt)
}

func TestFindOne_EmptyResponseIsNotFound(t *testing.T) {
	conn := startUsers(t, &fakeUsers{
		findOne: func(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
			return &structpb.Struct{}, nil
		},
	})

	_, err := NewClient(conn, fastOptions(), nil).FindOne(context.Background(), "c-1")
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestFindOne_NotFoundFault(t *testing.T) {
	conn := startUsers(t, &fakeUsers{
		findOne: func(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
			return nil, rpc.NewFault(http.StatusNotFound, "user not found")
		},
	})

	_, err := NewClient(conn, fastOptions(), nil).FindOne(context.Background(), "c-1")
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestFindOne_RetriesUnavailable(t *testing.T) {
	var calls atomic.Int32
	conn := startUsers(t, &fakeUsers{
		findOne: func(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
			if calls.Add(1) < 3 {
				return nil, status.Error(codes.Unavailable, "warming up")
			}
			return structpb.NewStruct(map[string]any{"id": "c-1", "first_name": "Ada"})
		},
	})

	p, err := NewClient(conn, fastOptions(), nil).FindOne(context.Background(), "c-1")
	require.NoError(t, err)
	assert.Equal(t, "Ada", p.FirstName)
	assert.Equal(t, int32(3), calls.Load())
}

func TestFindOne_GivesUpAfterRetries(t *testing.T) {
	var calls atomic.Int32
	conn := startUsers(t, &fakeUsers{
		findOne: func(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
			calls.Add(1)
			return nil, status.Error(codes.Unavailable, "down")
		},
	})

	_, err := NewClient(conn, fastOptions(), nil).FindOne(context.Background(), "c-1")
	require.Error(t, err)
	assert.Equal(t, int32(3), calls.Load())
	assert.Equal(t, codes.Unavailable, status.Code(err))
}

func TestFindOne_DoesNotRetryFaults(t *testing.T) {
	var calls atomic.Int32
	conn := startUsers(t, &fakeUsers{
		findOne: func(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
			calls.Add(1)
			return nil, rpc.NewFault(http.StatusBadRequest, "bad id")
		},
	})

	_, err := NewClient(conn, fastOptions(), nil).FindOne(context.Background(), "c-1")
	require.Error(t, err)
	assert.Equal(t, int32(1), calls.Load())
	assert.Equal(t, http.StatusBadRequest, rpc.FaultFromError(err).Status)
}

func TestNewClient_Defaults(t *testing.T) {
	c := NewClient(nil, Options{}, nil)
	assert.Equal(t, DefaultCallTimeout, c.opts.CallTimeout)
	assert.Equal(t, defaultRetryBase, c.opts.RetryBase)
	assert.NotNil(t, c.logger)
}
