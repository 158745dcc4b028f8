package rpcapi

import (
	"context"
	"crypto/subtle"
	"errors"
	"strings"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/BrandonDHaskell/Janus/internal/janus/service"
)

const (
	headerAuthorization = "authorization"
	headerStation       = "x-janus-station"
)

type stationKey struct{}

// StationFromContext returns the station a request was authenticated as.
func StationFromContext(ctx context.Context) (string, bool) {
	st, ok := ctx.Value(stationKey{}).(string)
	return st, ok
}

func stationFromMetadata(ctx context.Context) string {
	md, _ := metadata.FromIncomingContext(ctx)
	if v := md.Get(headerStation); len(v) > 0 {
		return strings.TrimSpace(v[0])
	}
	return ""
}

type authenticator struct {
	token    string
	registry *service.StationRegistry
}

func (a *authenticator) unary(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	md, _ := metadata.FromIncomingContext(ctx)

	if a.token != "" {
		var got string
		if v := md.Get(headerAuthorization); len(v) > 0 {
			got = strings.TrimPrefix(v[0], "Bearer ")
		}
		if subtle.ConstantTimeCompare([]byte(got), []byte(a.token)) != 1 {
			return nil, status.Error(codes.Unauthenticated, "invalid token")
		}
	}

	station := stationFromMetadata(ctx)
	if a.registry != nil {
		switch err := a.registry.Admit(ctx, station); {
		case err == nil:
		case errors.Is(err, service.ErrInvalidStationID):
			return nil, status.Error(codes.Unauthenticated, err.Error())
		case errors.Is(err, service.ErrUnknownStation):
			return nil, status.Error(codes.PermissionDenied, err.Error())
		default:
			return nil, status.Error(codes.Internal, "station lookup failed")
		}
	}
	if station != "" {
		ctx = context.WithValue(ctx, stationKey{}, station)
	}

	return handler(ctx, req)
}

// stationCredentials attaches the token and station id to every call.
type stationCredentials struct {
	token     string
	stationID string
	secure    bool
}

func (c stationCredentials) GetRequestMetadata(context.Context, ...string) (map[string]string, error) {
	md := map[string]string{headerStation: c.stationID}
	if c.token != "" {
		md[headerAuthorization] = "Bearer " + c.token
	}
	return md, nil
}

func (c stationCredentials) RequireTransportSecurity() bool { return c.secure }
