// Package rpcapi exposes an attendee store to remote stations over gRPC.
//
// The service is registered by hand against well-known protobuf types, so
// there is no generated code to keep in sync:
//
//	janus.v1.AttendeeStore/Fetch        StringValue -> Struct{id, checked_in}
//	janus.v1.AttendeeStore/MarkAdmitted StringValue -> BoolValue (changed)
//	janus.v1.AttendeeStore/RecordEvent  Struct      -> Empty
package rpcapi

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

const ServiceName = "janus.v1.AttendeeStore"

const (
	methodFetch        = "/" + ServiceName + "/Fetch"
	methodMarkAdmitted = "/" + ServiceName + "/MarkAdmitted"
	methodRecordEvent  = "/" + ServiceName + "/RecordEvent"
)

// AttendeeServer is the server side of janus.v1.AttendeeStore.
type AttendeeServer interface {
	Fetch(ctx context.Context, in *wrapperspb.StringValue) (*structpb.Struct, error)
	MarkAdmitted(ctx context.Context, in *wrapperspb.StringValue) (*wrapperspb.BoolValue, error)
	RecordEvent(ctx context.Context, in *structpb.Struct) (*emptypb.Empty, error)
}

var attendeeServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*AttendeeServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Fetch", Handler: fetchHandler},
		{MethodName: "MarkAdmitted", Handler: markAdmittedHandler},
		{MethodName: "RecordEvent", Handler: recordEventHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "janus/v1/attendee_store.proto",
}

// RegisterAttendeeServer registers srv on s.
func RegisterAttendeeServer(s grpc.ServiceRegistrar, srv AttendeeServer) {
	s.RegisterService(&attendeeServiceDesc, srv)
}

func fetchHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(wrapperspb.StringValue)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(AttendeeServer).Fetch(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: methodFetch}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(AttendeeServer).Fetch(ctx, req.(*wrapperspb.StringValue))
	}
	return interceptor(ctx, in, info, handler)
}

func markAdmittedHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(wrapperspb.StringValue)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(AttendeeServer).MarkAdmitted(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: methodMarkAdmitted}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(AttendeeServer).MarkAdmitted(ctx, req.(*wrapperspb.StringValue))
	}
	return interceptor(ctx, in, info, handler)
}

func recordEventHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(AttendeeServer).RecordEvent(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: methodRecordEvent}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(AttendeeServer).RecordEvent(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}
