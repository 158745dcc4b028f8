package rpcapi

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/BrandonDHaskell/Janus/internal/janus/store"
	"github.com/BrandonDHaskell/Janus/internal/janus/types"
)

type ClientConfig struct {
	Addr      string
	StationID string
	Token     string
	TLS       bool
}

// Client is a remote store.AttendeeStore and store.AdmissionEventStore.
// It keeps no cache: every Fetch is a round-trip.
type Client struct {
	conn *grpc.ClientConn
}

var (
	_ store.AttendeeStore       = (*Client)(nil)
	_ store.AdmissionEventStore = (*Client)(nil)
)

// Dial creates a client for cfg.Addr.  The connection is established
// lazily on the first call.
func Dial(cfg ClientConfig, opts ...grpc.DialOption) (*Client, error) {
	creds := insecure.NewCredentials()
	if cfg.TLS {
		creds = credentials.NewTLS(&tls.Config{MinVersion: tls.VersionTLS12})
	}

	base := []grpc.DialOption{
		grpc.WithTransportCredentials(creds),
		grpc.WithPerRPCCredentials(stationCredentials{
			token:     cfg.Token,
			stationID: cfg.StationID,
			secure:    cfg.TLS,
		}),
	}
	conn, err := grpc.NewClient(cfg.Addr, append(base, opts...)...)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", cfg.Addr, err)
	}
	return &Client{conn: conn}, nil
}

func (c *Client) Close() error {
	return c.conn.Close()
}

func (c *Client) Fetch(ctx context.Context, fp types.Fingerprint) (types.AttendeeRecord, error) {
	out := new(structpb.Struct)
	if err := c.conn.Invoke(ctx, methodFetch, wrapperspb.String(string(fp)), out); err != nil {
		return types.AttendeeRecord{}, fromStatus("fetch", err)
	}
	rec, err := recordFromStruct(out)
	if err != nil {
		return types.AttendeeRecord{}, err
	}
	if rec.ID != fp {
		return types.AttendeeRecord{}, &store.SchemaError{Field: "id", Reason: "does not match the requested fingerprint"}
	}
	return rec, nil
}

func (c *Client) MarkAdmitted(ctx context.Context, fp types.Fingerprint) (bool, error) {
	out := new(wrapperspb.BoolValue)
	if err := c.conn.Invoke(ctx, methodMarkAdmitted, wrapperspb.String(string(fp)), out); err != nil {
		return false, fromStatus("mark_admitted", err)
	}
	return out.GetValue(), nil
}

func (c *Client) RecordEvent(ctx context.Context, ev store.AdmissionEvent) error {
	in, err := eventToStruct(ev)
	if err != nil {
		return fmt.Errorf("record_event encode: %w", err)
	}
	if err := c.conn.Invoke(ctx, methodRecordEvent, in, new(emptypb.Empty)); err != nil {
		return fromStatus("record_event", err)
	}
	return nil
}

// ErrUnauthorized is returned when the store server rejects the station's
// credentials.
var ErrUnauthorized = errors.New("store rejected station credentials")

func fromStatus(op string, err error) error {
	switch status.Code(err) {
	case codes.NotFound:
		return store.ErrNotFound
	case codes.Unauthenticated, codes.PermissionDenied:
		return fmt.Errorf("%s: %w: %s", op, ErrUnauthorized, status.Convert(err).Message())
	}
	return fmt.Errorf("%s: %w", op, err)
}
