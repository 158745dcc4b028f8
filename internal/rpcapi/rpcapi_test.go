package rpcapi_test

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/BrandonDHaskell/Janus/internal/janus/fingerprint"
	"github.com/BrandonDHaskell/Janus/internal/janus/service"
	"github.com/BrandonDHaskell/Janus/internal/janus/store"
	"github.com/BrandonDHaskell/Janus/internal/janus/store/memory"
	"github.com/BrandonDHaskell/Janus/internal/janus/types"
	"github.com/BrandonDHaskell/Janus/internal/rpcapi"
)

const testToken = "s3cret"

var knownFP = fingerprint.MustOf("PRN123")

type harness struct {
	lis      *bufconn.Listener
	stations *memory.StationStore
	events   *memory.AdmissionEventStore
}

func serve(t *testing.T, srv *grpc.Server) *bufconn.Listener {
	t.Helper()
	lis := bufconn.Listen(1 << 20)
	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(srv.Stop)
	return lis
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		stations: memory.NewStationStore([]string{"gate-a"}),
		events:   memory.NewAdmissionEventStore(),
	}
	srv := rpcapi.NewServer(rpcapi.Dependencies{
		Attendees: memory.NewAttendeeStore(knownFP),
		Events:    h.events,
		Token:     testToken,
		Registry:  service.NewStationRegistry(h.stations),
	})
	h.lis = serve(t, srv)
	return h
}

func dial(t *testing.T, lis *bufconn.Listener, station, token string) *rpcapi.Client {
	t.Helper()
	c, err := rpcapi.Dial(rpcapi.ClientConfig{
		Addr:      "passthrough:///bufnet",
		StationID: station,
		Token:     token,
	}, grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
		return lis.DialContext(ctx)
	}))
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func ctxT(t *testing.T) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)
	return ctx
}

// ── Attendee store ───────────────────────────────────────────────────────────

func TestClient_FetchAndMarkAdmitted(t *testing.T) {
	h := newHarness(t)
	c := dial(t, h.lis, "gate-a", testToken)
	ctx := ctxT(t)

	rec, err := c.Fetch(ctx, knownFP)
	require.NoError(t, err)
	assert.Equal(t, types.AttendeeRecord{ID: knownFP, CheckedIn: false}, rec)

	changed, err := c.MarkAdmitted(ctx, knownFP)
	require.NoError(t, err)
	assert.True(t, changed)

	changed, err = c.MarkAdmitted(ctx, knownFP)
	require.NoError(t, err)
	assert.False(t, changed, "second write must be a no-op")

	rec, err = c.Fetch(ctx, knownFP)
	require.NoError(t, err)
	assert.True(t, rec.CheckedIn)
}

func TestClient_UnknownFingerprintIsNotFound(t *testing.T) {
	h := newHarness(t)
	c := dial(t, h.lis, "gate-a", testToken)

	_, err := c.Fetch(ctxT(t), fingerprint.MustOf("unknown-id"))
	assert.ErrorIs(t, err, store.ErrNotFound)

	_, err = c.MarkAdmitted(ctxT(t), fingerprint.MustOf("unknown-id"))
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestClient_MalformedFingerprintRejected(t *testing.T) {
	h := newHarness(t)
	c := dial(t, h.lis, "gate-a", testToken)

	_, err := c.Fetch(ctxT(t), types.Fingerprint("PRN123"))
	require.Error(t, err)
	assert.NotErrorIs(t, err, store.ErrNotFound)
}

// ── Audit log ────────────────────────────────────────────────────────────────

func TestClient_RecordEventUsesAuthenticatedStation(t *testing.T) {
	h := newHarness(t)
	c := dial(t, h.lis, "gate-a", testToken)

	decided := time.UnixMilli(1_700_000_000_123).UTC()
	err := c.RecordEvent(ctxT(t), store.AdmissionEvent{
		EventID:     "ev-1",
		StationID:   "someone-else",
		Fingerprint: knownFP,
		Status:      types.StatusGranted,
		Committed:   true,
		DecidedAt:   decided,
	})
	require.NoError(t, err)

	events := h.events.Events()
	require.Len(t, events, 1)
	assert.Equal(t, "gate-a", events[0].StationID)
	assert.Equal(t, "ev-1", events[0].EventID)
	assert.Equal(t, types.StatusGranted, events[0].Status)
	assert.True(t, events[0].DecidedAt.Equal(decided))
}

// ── Auth ─────────────────────────────────────────────────────────────────────

func TestAuth_BadToken(t *testing.T) {
	h := newHarness(t)
	c := dial(t, h.lis, "gate-a", "wrong")

	_, err := c.Fetch(ctxT(t), knownFP)
	assert.ErrorIs(t, err, rpcapi.ErrUnauthorized)
	assert.NotErrorIs(t, err, store.ErrNotFound)
}

func TestAuth_UnknownStation(t *testing.T) {
	h := newHarness(t)
	c := dial(t, h.lis, "rogue", testToken)

	_, err := c.Fetch(ctxT(t), knownFP)
	assert.ErrorIs(t, err, rpcapi.ErrUnauthorized)

	_, seen := h.stations.LastSeen("rogue")
	assert.True(t, seen, "rejected stations are still recorded")
}

func TestAuth_MissingStation(t *testing.T) {
	h := newHarness(t)
	c := dial(t, h.lis, "", testToken)

	_, err := c.Fetch(ctxT(t), knownFP)
	assert.ErrorIs(t, err, rpcapi.ErrUnauthorized)
}

// ── Engine over the wire ─────────────────────────────────────────────────────

func TestValidationEngine_OverRemoteStore(t *testing.T) {
	h := newHarness(t)
	c := dial(t, h.lis, "gate-a", testToken)
	engine := service.NewValidationEngine(c, c, service.EngineConfig{StationID: "gate-a"}, nil)
	ctx := ctxT(t)

	assert.Equal(t, types.StatusGranted, engine.Validate(ctx, knownFP).Status)
	assert.Equal(t, types.StatusDeniedAlreadyAdmitted, engine.Validate(ctx, knownFP).Status)
	assert.Equal(t, types.StatusDeniedUnknown, engine.Validate(ctx, fingerprint.MustOf("STU-0042")).Status)

	assert.Len(t, h.events.Events(), 3)
}

func TestValidationEngine_StoreDownIsStoreError(t *testing.T) {
	lis := bufconn.Listen(1 << 20)
	require.NoError(t, lis.Close())

	c := dial(t, lis, "gate-a", testToken)
	engine := service.NewValidationEngine(c, nil, service.EngineConfig{StoreTimeout: 200 * time.Millisecond}, nil)

	res := engine.Validate(context.Background(), knownFP)
	assert.Equal(t, types.StatusStoreError, res.Status)
}

// ── Schema checks ────────────────────────────────────────────────────────────

// malformedServer answers Fetch with a payload whose checked_in is a string.
type malformedServer struct{}

func (malformedServer) Fetch(_ context.Context, in *wrapperspb.StringValue) (*structpb.Struct, error) {
	return structpb.NewStruct(map[string]any{"id": in.GetValue(), "checked_in": "yes"})
}

func (malformedServer) MarkAdmitted(context.Context, *wrapperspb.StringValue) (*wrapperspb.BoolValue, error) {
	return wrapperspb.Bool(true), nil
}

func (malformedServer) RecordEvent(context.Context, *structpb.Struct) (*emptypb.Empty, error) {
	return &emptypb.Empty{}, nil
}

func TestClient_MalformedRecordIsSchemaError(t *testing.T) {
	srv := grpc.NewServer()
	rpcapi.RegisterAttendeeServer(srv, malformedServer{})
	lis := serve(t, srv)
	c := dial(t, lis, "gate-a", "")

	_, err := c.Fetch(ctxT(t), knownFP)
	var se *store.SchemaError
	require.True(t, errors.As(err, &se), "got %v", err)
	assert.Equal(t, "checked_in", se.Field)

	engine := service.NewValidationEngine(c, nil, service.EngineConfig{}, nil)
	assert.Equal(t, types.StatusStoreError, engine.Validate(ctxT(t), knownFP).Status)
}
