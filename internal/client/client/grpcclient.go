package client

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/authcore/internal/common"
	gs "github.com/dmitrijs2005/authcore/internal/server/grpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

// Identity is what the server knows about a valid access token.
type Identity struct {
	UserID string
	Email  string
}

type GRPCClient struct {
	endpointURL   string
	internalToken string
	conn          *grpc.ClientConn
	client        *gs.SessionServiceClient
}

func withInternalToken(ctx context.Context, token string) context.Context {
	md, _ := metadata.FromOutgoingContext(ctx)
	md = md.Copy()
	if md == nil {
		md = metadata.MD{}
	}
	md.Set(common.InternalTokenMetadataKey, token)
	return metadata.NewOutgoingContext(ctx, md)
}

func (s *GRPCClient) internalTokenInterceptor(
	ctx context.Context,
	method string,
	req, reply interface{},
	cc *grpc.ClientConn,
	invoker grpc.UnaryInvoker,
	opts ...grpc.CallOption,
) error {
	if s.internalToken != "" {
		ctx = withInternalToken(ctx, s.internalToken)
	}
	return invoker(ctx, method, req, reply, cc, opts...)
}

// NewGRPCClient prepares a lazy connection to the session service.
// Extra dial options are appended after the defaults.
func NewGRPCClient(endpointURL, internalToken string, opts ...grpc.DialOption) (*GRPCClient, error) {
	c := &GRPCClient{endpointURL: endpointURL, internalToken: internalToken}

	opts = append([]grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithUnaryInterceptor(c.internalTokenInterceptor),
	}, opts...)

	conn, err := grpc.NewClient(endpointURL, opts...)
	if err != nil {
		return nil, err
	}
	c.conn = conn
	c.client = gs.NewSessionServiceClient(conn)
	return c, nil
}

func (s *GRPCClient) Revoke(ctx context.Context, userID string) error {
	return s.mapError(s.client.Revoke(ctx, userID))
}

func (s *GRPCClient) VerifyAccess(ctx context.Context, accessToken string) (*Identity, error) {
	resp, err := s.client.VerifyAccess(ctx, accessToken)
	if err != nil {
		return nil, s.mapError(err)
	}
	f := resp.GetFields()
	return &Identity{
		UserID: f["sub"].GetStringValue(),
		Email:  f["email"].GetStringValue(),
	}, nil
}

func (s *GRPCClient) Close() error {
	return s.conn.Close()
}

func (s *GRPCClient) mapError(err error) error {
	if err == nil {
		return nil
	}
	st, _ := status.FromError(err)
	switch st.Code() {
	case codes.Unauthenticated, codes.PermissionDenied:
		return ErrUnauthorized
	case codes.Unavailable, codes.DeadlineExceeded:
		return ErrUnavailable
	default:
		return fmt.Errorf("rpc error: %w", err)
	}
}
