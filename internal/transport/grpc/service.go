package grpc_server

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// Описание сервиса написано вручную: сообщения: google.protobuf.Struct,
// поэтому генерация из .proto не нужна.

const ProgressServiceName = "codenest.progress.v1.ProgressService"

type ProgressServiceServer interface {
	GetProgress(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	GetCompletedTopics(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
}

func RegisterProgressServiceServer(s grpc.ServiceRegistrar, srv ProgressServiceServer) {
	s.RegisterService(&progressServiceDesc, srv)
}

var progressServiceDesc = grpc.ServiceDesc{
	ServiceName: ProgressServiceName,
	HandlerType: (*ProgressServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "GetProgress", Handler: unary("GetProgress", ProgressServiceServer.GetProgress)},
		{MethodName: "GetCompletedTopics", Handler: unary("GetCompletedTopics", ProgressServiceServer.GetCompletedTopics)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "codenest/progress/v1/progress.proto",
}

type method func(ProgressServiceServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

func unary(name string, call method) grpc.MethodHandler {
	fullMethod := "/" + ProgressServiceName + "/" + name
	return func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(ProgressServiceServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req interface{}) (interface{}, error) {
			return call(srv.(ProgressServiceServer), ctx, req.(*structpb.Struct))
		}
		return interceptor(ctx, in, info, handler)
	}
}

// ProgressClient: клиент для сервисов, которым нужен прогресс пользователя
type ProgressClient struct {
	cc grpc.ClientConnInterface
}

func NewProgressClient(cc grpc.ClientConnInterface) *ProgressClient {
	return &ProgressClient{cc: cc}
}

func (c *ProgressClient) GetProgress(ctx context.Context, userID string, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.call(ctx, "GetProgress", userID, opts...)
}

func (c *ProgressClient) GetCompletedTopics(ctx context.Context, userID string, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.call(ctx, "GetCompletedTopics", userID, opts...)
}

func (c *ProgressClient) call(ctx context.Context, name, userID string, opts ...grpc.CallOption) (*structpb.Struct, error) {
	in, err := structpb.NewStruct(map[string]interface{}{"user_id": userID})
	if err != nil {
		return nil, err
	}
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, "/"+ProgressServiceName+"/"+name, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
