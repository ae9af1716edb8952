package rpc

import (
	"context"

	"google.golang.org/grpc"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "paracore.v1.ScriptService"

// ScriptServiceServer is the server API for ScriptService.
type ScriptServiceServer interface {
	ExtractParameters(context.Context, *SourceRequest) (*ParametersResponse, error)
	ExtractMetadata(context.Context, *SourceRequest) (*MetadataResponse, error)
	IdentifyTopLevelScript(context.Context, *FilesRequest) (*TopLevelResponse, error)
	CombineScripts(context.Context, *FilesRequest) (*CombineResponse, error)
	EvaluateRules(context.Context, *RulesRequest) (*RulesResponse, error)
	ComputeOptions(context.Context, *OptionsRequest) (*OptionsResponse, error)
	ExecuteScript(context.Context, *ExecuteRequest) (*ExecuteResponse, error)
	GetLastResult(context.Context, *Empty) (*LastResultResponse, error)
}

// FullMethod returns the invocation path of a ScriptService method.
func FullMethod(method string) string {
	return "/" + ServiceName + "/" + method
}

func unary[Req, Resp any](
	name string,
	call func(ScriptServiceServer, context.Context, *Req) (*Resp, error),
) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(
			srv any,
			ctx context.Context,
			dec func(any) error,
			interceptor grpc.UnaryServerInterceptor,
		) (any, error) {
			in := new(Req)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(ScriptServiceServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: FullMethod(name)}
			handler := func(ctx context.Context, req any) (any, error) {
				return call(srv.(ScriptServiceServer), ctx, req.(*Req))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

// ScriptServiceDesc describes ScriptService for grpc.Server registration.
var ScriptServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*ScriptServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		unary("ExtractParameters", ScriptServiceServer.ExtractParameters),
		unary("ExtractMetadata", ScriptServiceServer.ExtractMetadata),
		unary("IdentifyTopLevelScript", ScriptServiceServer.IdentifyTopLevelScript),
		unary("CombineScripts", ScriptServiceServer.CombineScripts),
		unary("EvaluateRules", ScriptServiceServer.EvaluateRules),
		unary("ComputeOptions", ScriptServiceServer.ComputeOptions),
		unary("ExecuteScript", ScriptServiceServer.ExecuteScript),
		unary("GetLastResult", ScriptServiceServer.GetLastResult),
	},
	Streams: []grpc.StreamDesc{},
}

// RegisterScriptServiceServer registers srv with s.
func RegisterScriptServiceServer(s grpc.ServiceRegistrar, srv ScriptServiceServer) {
	s.RegisterService(&ScriptServiceDesc, srv)
}
