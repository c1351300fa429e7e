package grpcapi

import (
	"context"

	"google.golang.org/grpc"
)

const serviceName = "threads.v1.ThreadService"

// ThreadServiceServer is the server API for threads.v1.ThreadService.
type ThreadServiceServer interface {
	CreateComment(context.Context, *CreateCommentRequest) (*CommentResponse, error)
	EditComment(context.Context, *EditCommentRequest) (*CommentResponse, error)
	GetComment(context.Context, *GetCommentRequest) (*CommentResponse, error)
	ListTopLevel(context.Context, *ListTopLevelRequest) (*PageResponse, error)
	ListReplies(context.Context, *ListRepliesRequest) (*PageResponse, error)
	ReplyCount(context.Context, *ReplyCountRequest) (*ReplyCountResponse, error)
	GetPolicy(context.Context, *GetPolicyRequest) (*PolicyResponse, error)
}

// unary adapts a typed method to grpc.MethodDesc.
func unary[Req, Resp any](name string, call func(ThreadServiceServer, context.Context, *Req) (*Resp, error)) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(Req)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(ThreadServiceServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + serviceName + "/" + name}
			return interceptor(ctx, in, info, func(ctx context.Context, req any) (any, error) {
				return call(srv.(ThreadServiceServer), ctx, req.(*Req))
			})
		},
	}
}

// ServiceDesc describes threads.v1.ThreadService. Messages use the json codec.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: serviceName,
	HandlerType: (*ThreadServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		unary("CreateComment", ThreadServiceServer.CreateComment),
		unary("EditComment", ThreadServiceServer.EditComment),
		unary("GetComment", ThreadServiceServer.GetComment),
		unary("ListTopLevel", ThreadServiceServer.ListTopLevel),
		unary("ListReplies", ThreadServiceServer.ListReplies),
		unary("ReplyCount", ThreadServiceServer.ReplyCount),
		unary("GetPolicy", ThreadServiceServer.GetPolicy),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "threads/v1/threads.json",
}

// RegisterThreadServiceServer registers srv on s.
func RegisterThreadServiceServer(s grpc.ServiceRegistrar, srv ThreadServiceServer) {
	s.RegisterService(&ServiceDesc, srv)
}

// Client calls threads.v1.ThreadService with the json codec.
type Client struct {
	cc grpc.ClientConnInterface
}

func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

func invoke[Resp any](ctx context.Context, cc grpc.ClientConnInterface, method string, in any, opts []grpc.CallOption) (*Resp, error) {
	out := new(Resp)
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(CodecName)}, opts...)
	if err := cc.Invoke(ctx, "/"+serviceName+"/"+method, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) CreateComment(ctx context.Context, in *CreateCommentRequest, opts ...grpc.CallOption) (*CommentResponse, error) {
	return invoke[CommentResponse](ctx, c.cc, "CreateComment", in, opts)
}

func (c *Client) EditComment(ctx context.Context, in *EditCommentRequest, opts ...grpc.CallOption) (*CommentResponse, error) {
	return invoke[CommentResponse](ctx, c.cc, "EditComment", in, opts)
}

func (c *Client) GetComment(ctx context.Context, in *GetCommentRequest, opts ...grpc.CallOption) (*CommentResponse, error) {
	return invoke[CommentResponse](ctx, c.cc, "GetComment", in, opts)
}

func (c *Client) ListTopLevel(ctx context.Context, in *ListTopLevelRequest, opts ...grpc.CallOption) (*PageResponse, error) {
	return invoke[PageResponse](ctx, c.cc, "ListTopLevel", in, opts)
}

func (c *Client) ListReplies(ctx context.Context, in *ListRepliesRequest, opts ...grpc.CallOption) (*PageResponse, error) {
	return invoke[PageResponse](ctx, c.cc, "ListReplies", in, opts)
}

func (c *Client) ReplyCount(ctx context.Context, in *ReplyCountRequest, opts ...grpc.CallOption) (*ReplyCountResponse, error) {
	return invoke[ReplyCountResponse](ctx, c.cc, "ReplyCount", in, opts)
}

func (c *Client) GetPolicy(ctx context.Context, opts ...grpc.CallOption) (*PolicyResponse, error) {
	return invoke[PolicyResponse](ctx, c.cc, "GetPolicy", &GetPolicyRequest{}, opts)
}
