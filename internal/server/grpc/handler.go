package grpc

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/authcore/internal/common"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

func (s *GRPCServer) Revoke(ctx context.Context, req *wrapperspb.StringValue) (*emptypb.Empty, error) {

	userID := req.GetValue()
	if userID == "" {
		return nil, status.Error(codes.InvalidArgument, "userId is required")
	}

	if err := s.svc.Revoke(ctx, userID); err != nil {
		s.logger.Error(ctx, "error revoking sessions", "user_id", userID, "error", err)
		return nil, status.Error(codes.Internal, "internal error")
	}

	return &emptypb.Empty{}, nil

}

func (s *GRPCServer) VerifyAccess(ctx context.Context, req *wrapperspb.StringValue) (*structpb.Struct, error) {

	claims, err := s.svc.VerifyAccess(ctx, req.GetValue())

	if err != nil {
		if errors.Is(err, common.ErrorUnauthorized) {
			return nil, status.Error(codes.Unauthenticated, "unauthorized")
		}
		return nil, status.Error(codes.Internal, "internal error")
	}

	out, err := structpb.NewStruct(map[string]any{
		"sub":   claims.Subject,
		"email": claims.Email,
	})
	if err != nil {
		return nil, status.Error(codes.Internal, "internal error")
	}
	return out, nil

}
