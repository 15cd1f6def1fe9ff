package rpc

import (
	"context"

	"google.golang.org/grpc"
)

// ServerStream sends messages of type T to a streaming client.
type ServerStream[T any] interface {
	Send(*T) error
	Context() context.Context
}

type serverStream[T any] struct {
	grpc.ServerStream
}

func (s *serverStream[T]) Send(m *T) error {
	return s.ServerStream.SendMsg(m)
}

// ClientStream receives messages of type T from a server stream.
type ClientStream[T any] struct {
	grpc.ClientStream
}

// Recv returns the next message, or io.EOF when the server is done.
func (s *ClientStream[T]) Recv() (*T, error) {
	m := new(T)
	if err := s.ClientStream.RecvMsg(m); err != nil {
		return nil, err
	}
	return m, nil
}

func fullMethod(service, method string) string {
	return "/" + service + "/" + method
}

func unary[Req, Resp any](service, method string, call func(srv any, ctx context.Context, in *Req) (*Resp, error)) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: method,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(Req)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv, ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod(service, method)}
			return interceptor(ctx, in, info, func(ctx context.Context, req any) (any, error) {
				return call(srv, ctx, req.(*Req))
			})
		},
	}
}

func serverStreaming[Req, Resp any](method string, call func(srv any, in *Req, stream ServerStream[Resp]) error) grpc.StreamDesc {
	return grpc.StreamDesc{
		StreamName:    method,
		ServerStreams: true,
		Handler: func(srv any, stream grpc.ServerStream) error {
			in := new(Req)
			if err := stream.RecvMsg(in); err != nil {
				return err
			}
			return call(srv, in, &serverStream[Resp]{stream})
		},
	}
}

func callOptions(opts []grpc.CallOption) []grpc.CallOption {
	return append([]grpc.CallOption{grpc.CallContentSubtype(CodecName)}, opts...)
}

func invoke[Resp any](ctx context.Context, cc grpc.ClientConnInterface, service, method string, in any, opts []grpc.CallOption) (*Resp, error) {
	out := new(Resp)
	if err := cc.Invoke(ctx, fullMethod(service, method), in, out, callOptions(opts)...); err != nil {
		return nil, err
	}
	return out, nil
}

func openStream[Resp any](ctx context.Context, cc grpc.ClientConnInterface, desc *grpc.StreamDesc, service string, in any, opts []grpc.CallOption) (*ClientStream[Resp], error) {
	cs, err := cc.NewStream(ctx, desc, fullMethod(service, desc.StreamName), callOptions(opts)...)
	if err != nil {
		return nil, err
	}
	if err := cs.SendMsg(in); err != nil {
		return nil, err
	}
	if err := cs.CloseSend(); err != nil {
		return nil, err
	}
	return &ClientStream[Resp]{cs}, nil
}
