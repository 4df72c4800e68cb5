package grpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// The session service is described by hand on top of the protobuf
// well-known types, so no generated code is needed:
//
//	service SessionService {
//	  rpc Revoke(google.protobuf.StringValue) returns (google.protobuf.Empty);
//	  rpc VerifyAccess(google.protobuf.StringValue) returns (google.protobuf.Struct);
//	}
const (
	ServiceName             = "authcore.v1.SessionService"
	RevokeFullMethod        = "/" + ServiceName + "/Revoke"
	VerifyAccessFullMethod  = "/" + ServiceName + "/VerifyAccess"
	sessionServiceProtoFile = "authcore/v1/session.proto"
)

// SessionServiceServer is implemented by GRPCServer.
type SessionServiceServer interface {
	Revoke(ctx context.Context, userID *wrapperspb.StringValue) (*emptypb.Empty, error)
	VerifyAccess(ctx context.Context, token *wrapperspb.StringValue) (*structpb.Struct, error)
}

var SessionServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*SessionServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Revoke", Handler: revokeHandler},
		{MethodName: "VerifyAccess", Handler: verifyAccessHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: sessionServiceProtoFile,
}

func RegisterSessionServiceServer(s grpc.ServiceRegistrar, srv SessionServiceServer) {
	s.RegisterService(&SessionServiceDesc, srv)
}

func revokeHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(wrapperspb.StringValue)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(SessionServiceServer).Revoke(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: RevokeFullMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(SessionServiceServer).Revoke(ctx, req.(*wrapperspb.StringValue))
	}
	return interceptor(ctx, in, info, handler)
}

func verifyAccessHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(wrapperspb.StringValue)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(SessionServiceServer).VerifyAccess(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: VerifyAccessFullMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(SessionServiceServer).VerifyAccess(ctx, req.(*wrapperspb.StringValue))
	}
	return interceptor(ctx, in, info, handler)
}

// SessionServiceClient calls the session service.
type SessionServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewSessionServiceClient(cc grpc.ClientConnInterface) *SessionServiceClient {
	return &SessionServiceClient{cc: cc}
}

func (c *SessionServiceClient) Revoke(ctx context.Context, userID string, opts ...grpc.CallOption) error {
	out := new(emptypb.Empty)
	return c.cc.Invoke(ctx, RevokeFullMethod, wrapperspb.String(userID), out, opts...)
}

func (c *SessionServiceClient) VerifyAccess(ctx context.Context, token string, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, VerifyAccessFullMethod, wrapperspb.String(token), out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
