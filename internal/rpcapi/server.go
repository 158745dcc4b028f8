package rpcapi

import (
	"context"
	"errors"
	"io"
	"log"
	"strings"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/BrandonDHaskell/Janus/internal/janus/service"
	"github.com/BrandonDHaskell/Janus/internal/janus/store"
	"github.com/BrandonDHaskell/Janus/internal/janus/types"
)

type Dependencies struct {
	Logger    *log.Logger
	Attendees store.AttendeeStore
	Events    store.AdmissionEventStore

	// Token is the shared bearer token.  Empty disables the check (dev).
	Token string

	// Registry, when set, rejects stations that are not enabled.
	Registry *service.StationRegistry
}

// NewServer builds a gRPC server with the attendee service, auth and call
// logging installed.
func NewServer(d Dependencies, opts ...grpc.ServerOption) *grpc.Server {
	logger := d.Logger
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	a := &authenticator{token: d.Token, registry: d.Registry}

	opts = append(opts, grpc.ChainUnaryInterceptor(loggingInterceptor(logger), a.unary))
	s := grpc.NewServer(opts...)
	RegisterAttendeeServer(s, &storeServer{
		logger:    logger,
		attendees: d.Attendees,
		events:    d.Events,
	})
	return s
}

// storeServer adapts the local store interfaces to AttendeeServer.
type storeServer struct {
	logger    *log.Logger
	attendees store.AttendeeStore
	events    store.AdmissionEventStore
}

func (s *storeServer) Fetch(ctx context.Context, in *wrapperspb.StringValue) (*structpb.Struct, error) {
	fp, err := fingerprintArg(in)
	if err != nil {
		return nil, err
	}
	rec, err := s.attendees.Fetch(ctx, fp)
	if err != nil {
		return nil, s.toStatus("fetch", err)
	}
	out, err := recordToStruct(rec)
	if err != nil {
		return nil, s.toStatus("fetch", err)
	}
	return out, nil
}

func (s *storeServer) MarkAdmitted(ctx context.Context, in *wrapperspb.StringValue) (*wrapperspb.BoolValue, error) {
	fp, err := fingerprintArg(in)
	if err != nil {
		return nil, err
	}
	changed, err := s.attendees.MarkAdmitted(ctx, fp)
	if err != nil {
		return nil, s.toStatus("mark_admitted", err)
	}
	return wrapperspb.Bool(changed), nil
}

func (s *storeServer) RecordEvent(ctx context.Context, in *structpb.Struct) (*emptypb.Empty, error) {
	if s.events == nil {
		return nil, status.Error(codes.Unimplemented, "audit log not configured")
	}
	ev, err := eventFromStruct(in)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	// Stations may only write events under their own identity.
	if st, ok := StationFromContext(ctx); ok {
		ev.StationID = st
	}
	if err := s.events.RecordEvent(ctx, ev); err != nil {
		return nil, s.toStatus("record_event", err)
	}
	return &emptypb.Empty{}, nil
}

func (s *storeServer) toStatus(op string, err error) error {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return status.Error(codes.NotFound, store.ErrNotFound.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, err.Error())
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, err.Error())
	}
	s.logger.Printf("%s error: %v", op, err)
	return status.Error(codes.Internal, "store failure")
}

func fingerprintArg(in *wrapperspb.StringValue) (types.Fingerprint, error) {
	fp := types.Fingerprint(strings.TrimSpace(in.GetValue()))
	if !fp.Valid() {
		return "", status.Error(codes.InvalidArgument, "value must be a hex sha-256 fingerprint")
	}
	return fp, nil
}

func loggingInterceptor(logger *log.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		start := time.Now().UTC()
		resp, err := handler(ctx, req)
		logger.Printf("%s station=%s code=%s dur=%s", info.FullMethod, stationFromMetadata(ctx), status.Code(err), time.Since(start))
		return resp, err
	}
}
