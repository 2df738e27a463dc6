// Package profiles is the auth service's client for the users service,
// which owns the profile side of every account.
package profiles

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/logging"
	"github.com/dmitrijs2005/gophauth/internal/rpc"
	"github.com/dmitrijs2005/gophauth/internal/server/models"
	"github.com/sethvargo/go-retry"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

const (
	DefaultCallTimeout = 5 * time.Second
	DefaultFindRetries = 2
	defaultRetryBase   = 100 * time.Millisecond
)

// Options tune a Client. Zero values take the defaults, except FindRetries
// where zero means a single attempt.
type Options struct {
	CallTimeout time.Duration
	FindRetries uint64
	RetryBase   time.Duration
}

// Client calls user_create and user_find_one over the command channel.
type Client struct {
	cc      grpc.ClientConnInterface
	opts    Options
	logger  logging.Logger
	service string
}

func NewClient(cc grpc.ClientConnInterface, opts Options, logger logging.Logger) *Client {
	if opts.CallTimeout <= 0 {
		opts.CallTimeout = DefaultCallTimeout
	}
	if opts.RetryBase <= 0 {
		opts.RetryBase = defaultRetryBase
	}
	if logger == nil {
		logger = logging.Nop{}
	}
	return &Client{
		cc:      cc,
		opts:    opts,
		logger:  logger.With("module", "profiles"),
		service: rpc.UsersService,
	}
}

// Create asks the users service to create the profile for p.ID. It makes a
// single attempt bounded by the call timeout.
func (c *Client) Create(ctx context.Context, p models.ProfileCreate) error {
	req, err := rpc.Encode(p)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, c.opts.CallTimeout)
	defer cancel()

	if _, err := rpc.Invoke(ctx, c.cc, c.service, rpc.CmdUserCreate, req); err != nil {
		return fmt.Errorf("%s: %w", rpc.CmdUserCreate, err)
	}
	return nil
}

// FindOne fetches the profile with the given id. A missing profile yields
// common.ErrorNotFound. Unavailable and deadline failures are retried with
// exponential backoff up to FindRetries times.
func (c *Client) FindOne(ctx context.Context, id string) (*models.Profile, error) {
	req, err := rpc.Encode(map[string]string{"id": id})
	if err != nil {
		return nil, err
	}

	var p *models.Profile
	attempt := 0

	backoff := retry.WithMaxRetries(c.opts.FindRetries, retry.NewExponential(c.opts.RetryBase))
	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempt++
		found, err := c.findOnce(ctx, req)
		if err != nil {
			if retryable(err) {
				c.logger.Debug(ctx, "profile lookup failed, retrying", "profile_id", id, "attempt", attempt, "error", err)
				return retry.RetryableError(err)
			}
			return err
		}
		p = found
		return nil
	})
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (c *Client) findOnce(ctx context.Context, req *structpb.Struct) (*models.Profile, error) {
	ctx, cancel := context.WithTimeout(ctx, c.opts.CallTimeout)
	defer cancel()

	resp, err := rpc.Invoke(ctx, c.cc, c.service, rpc.CmdUserFindOne, req)
	if err != nil {
		if f := rpc.FaultFromError(err); f.Status == http.StatusNotFound {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("%s: %w", rpc.CmdUserFindOne, err)
	}
	if rpc.IsEmpty(resp) {
		return nil, common.ErrorNotFound
	}

	p := &models.Profile{}
	if err := rpc.Decode(resp, p); err != nil {
		return nil, fmt.Errorf("%s: %w", rpc.CmdUserFindOne, err)
	}
	return p, nil
}

func retryable(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	switch status.Code(err) {
	case codes.Unavailable, codes.DeadlineExceeded:
		return true
	default:
		return false
	}
}
