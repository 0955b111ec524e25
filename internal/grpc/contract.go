package grpc

import (
	"context"
	"encoding/json"
	"fmt"

	gogrpc "google.golang.org/grpc"
	"google.golang.org/grpc/encoding"

	"readinghub/internal/stats"
)

// The service is described by hand and carried as JSON, so no generated
// protobuf code is needed on either side.
const (
	serviceName          = "readinghub.v1.ReadingService"
	jsonCodecName        = "json"
	methodGetSummary     = "/" + serviceName + "/GetSummary"
	methodListItems      = "/" + serviceName + "/ListItems"
	methodUpdateProgress = "/" + serviceName + "/UpdateProgress"
	methodPingStreak     = "/" + serviceName + "/PingStreak"
)

type jsonCodec struct{}

func (jsonCodec) Marshal(v any) ([]byte, error) {
	return json.Marshal(v)
}

func (jsonCodec) Unmarshal(data []byte, v any) error {
	return json.Unmarshal(data, v)
}

func (jsonCodec) Name() string {
	return jsonCodecName
}

func init() {
	encoding.RegisterCodec(jsonCodec{})
}

type Empty struct{}

type ListItemsResponse struct {
	Items []stats.ItemView `json:"items"`
}

type UpdateProgressRequest struct {
	Title       string `json:"title"`
	Author      string `json:"author"`
	Topic       string `json:"topic"`
	TotalPages  int32  `json:"total_pages"`
	CurrentPage int32  `json:"current_page"`
}

type UpdateProgressResponse struct {
	Item      stats.ItemView `json:"item"`
	PagesRead int32          `json:"pages_read"`
	LogDate   string         `json:"log_date"`
}

type StreakResponse struct {
	StreakDays       int32  `json:"streak_days"`
	RegistrationDate string `json:"registration_date"`
}

type ReadingServiceServer interface {
	GetSummary(ctx context.Context, in *Empty) (*stats.Summary, error)
	ListItems(ctx context.Context, in *Empty) (*ListItemsResponse, error)
	UpdateProgress(ctx context.Context, in *UpdateProgressRequest) (*UpdateProgressResponse, error)
	PingStreak(ctx context.Context, in *Empty) (*StreakResponse, error)
}

type ReadingServiceClient interface {
	GetSummary(ctx context.Context) (*stats.Summary, error)
	ListItems(ctx context.Context) (*ListItemsResponse, error)
	UpdateProgress(ctx context.Context, in *UpdateProgressRequest) (*UpdateProgressResponse, error)
	PingStreak(ctx context.Context) (*StreakResponse, error)
}

type readingServiceClient struct {
	conn *gogrpc.ClientConn
}

func NewReadingServiceClient(conn *gogrpc.ClientConn) ReadingServiceClient {
	return &readingServiceClient{conn: conn}
}

func (c *readingServiceClient) GetSummary(ctx context.Context) (*stats.Summary, error) {
	out := &stats.Summary{}
	if err := c.conn.Invoke(ctx, methodGetSummary, &Empty{}, out, gogrpc.CallContentSubtype(jsonCodecName)); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *readingServiceClient) ListItems(ctx context.Context) (*ListItemsResponse, error) {
	out := &ListItemsResponse{}
	if err := c.conn.Invoke(ctx, methodListItems, &Empty{}, out, gogrpc.CallContentSubtype(jsonCodecName)); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *readingServiceClient) UpdateProgress(ctx context.Context, in *UpdateProgressRequest) (*UpdateProgressResponse, error) {
	out := &UpdateProgressResponse{}
	if err := c.conn.Invoke(ctx, methodUpdateProgress, in, out, gogrpc.CallContentSubtype(jsonCodecName)); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *readingServiceClient) PingStreak(ctx context.Context) (*StreakResponse, error) {
	out := &StreakResponse{}
	if err := c.conn.Invoke(ctx, methodPingStreak, &Empty{}, out, gogrpc.CallContentSubtype(jsonCodecName)); err != nil {
		return nil, err
	}
	return out, nil
}

// unary adapts a typed method to a grpc.MethodDesc handler.
func unary[Req any, Resp any](fullMethod string, call func(context.Context, *Req) (*Resp, error)) func(srv any, ctx context.Context, dec func(any) error, interceptor gogrpc.UnaryServerInterceptor) (any, error) {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor gogrpc.UnaryServerInterceptor) (any, error) {
		in := new(Req)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(ctx, in)
		}
		info := &gogrpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req any) (any, error) {
			r, ok := req.(*Req)
			if !ok {
				return nil, fmt.Errorf("invalid request type %T", req)
			}
			return call(ctx, r)
		}
		return interceptor(ctx, in, info, handler)
	}
}

func RegisterReadingServiceServer(server gogrpc.ServiceRegistrar, impl ReadingServiceServer) {
	server.RegisterService(&gogrpc.ServiceDesc{
		ServiceName: serviceName,
		HandlerType: (*ReadingServiceServer)(nil),
		Methods: []gogrpc.MethodDesc{
			{MethodName: "GetSummary", Handler: unary(methodGetSummary, impl.GetSummary)},
			{MethodName: "ListItems", Handler: unary(methodListItems, impl.ListItems)},
			{MethodName: "UpdateProgress", Handler: unary(methodUpdateProgress, impl.UpdateProgress)},
			{MethodName: "PingStreak", Handler: unary(methodPingStreak, impl.PingStreak)},
		},
		Streams:  []gogrpc.StreamDesc{},
		Metadata: "readinghub/v1/reading.json",
	}, impl)
}
