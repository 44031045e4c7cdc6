package grpc

import (
	"context"

	gogrpc "google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/timestamppb"
)

const serviceName = "slotguard.v1.BookingsService"

const (
	createBookingMethod = "/" + serviceName + "/CreateBooking"
	listBookingsMethod  = "/" + serviceName + "/ListBookings"
	getBookingMethod    = "/" + serviceName + "/GetBooking"
	deleteBookingMethod = "/" + serviceName + "/DeleteBooking"
)

type Booking struct {
	Id        string                 `json:"id"`
	OwnerId   string                 `json:"owner_id"`
	Title     string                 `json:"title"`
	StartTime *timestamppb.Timestamp `json:"start_time"`
	EndTime   *timestamppb.Timestamp `json:"end_time"`
	CreatedAt *timestamppb.Timestamp `json:"created_at"`
	UpdatedAt *timestamppb.Timestamp `json:"updated_at"`
}

type CreateBookingRequest struct {
	Title     string                 `json:"title"`
	StartTime *timestamppb.Timestamp `json:"start_time"`
	EndTime   *timestamppb.Timestamp `json:"end_time"`
}

type CreateBookingResponse struct {
	Booking *Booking `json:"booking"`
}

type ListBookingsRequest struct{}

type ListBookingsResponse struct {
	Bookings []*Booking `json:"bookings"`
}

type GetBookingRequest struct {
	BookingId string `json:"booking_id"`
}

type GetBookingResponse struct {
	Booking *Booking `json:"booking"`
}

type DeleteBookingRequest struct {
	BookingId string `json:"booking_id"`
}

type DeleteBookingResponse struct {
	Booking *Booking `json:"booking"`
}

type BookingsServiceServer interface {
	CreateBooking(context.Context, *CreateBookingRequest) (*CreateBookingResponse, error)
	ListBookings(context.Context, *ListBookingsRequest) (*ListBookingsResponse, error)
	GetBooking(context.Context, *GetBookingRequest) (*GetBookingResponse, error)
	DeleteBooking(context.Context, *DeleteBookingRequest) (*DeleteBookingResponse, error)
}

var bookingsServiceDesc = gogrpc.ServiceDesc{
	ServiceName: serviceName,
	HandlerType: (*BookingsServiceServer)(nil),
	Methods: []gogrpc.MethodDesc{
		{MethodName: "CreateBooking", Handler: unaryHandler(createBookingMethod, BookingsServiceServer.CreateBooking)},
		{MethodName: "ListBookings", Handler: unaryHandler(listBookingsMethod, BookingsServiceServer.ListBookings)},
		{MethodName: "GetBooking", Handler: unaryHandler(getBookingMethod, BookingsServiceServer.GetBooking)},
		{MethodName: "DeleteBooking", Handler: unaryHandler(deleteBookingMethod, BookingsServiceServer.DeleteBooking)},
	},
	Streams:  []gogrpc.StreamDesc{},
	Metadata: "slotguard/v1/bookings",
}

func RegisterBookingsServiceServer(s gogrpc.ServiceRegistrar, srv BookingsServiceServer) {
	s.RegisterService(&bookingsServiceDesc, srv)
}

func unaryHandler[Req, Resp any](fullMethod string, call func(BookingsServiceServer, context.Context, *Req) (*Resp, error)) func(srv any, ctx context.Context, dec func(any) error, interceptor gogrpc.UnaryServerInterceptor) (any, error) {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor gogrpc.UnaryServerInterceptor) (any, error) {
		in := new(Req)
		if err := dec(in); err != nil {
			return nil, err
		}
		s := srv.(BookingsServiceServer)
		if interceptor == nil {
			return call(s, ctx, in)
		}
		info := &gogrpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		return interceptor(ctx, in, info, func(ctx context.Context, req any) (any, error) {
			return call(s, ctx, req.(*Req))
		})
	}
}

// BookingsClient calls BookingsService using the json codec.
type BookingsClient struct {
	cc gogrpc.ClientConnInterface
}

func NewBookingsClient(cc gogrpc.ClientConnInterface) *BookingsClient {
	return &BookingsClient{cc: cc}
}

func (c *BookingsClient) CreateBooking(ctx context.Context, in *CreateBookingRequest, opts ...gogrpc.CallOption) (*CreateBookingResponse, error) {
	out := new(CreateBookingResponse)
	if err := c.invoke(ctx, createBookingMethod, in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *BookingsClient) ListBookings(ctx context.Context, in *ListBookingsRequest, opts ...gogrpc.CallOption) (*ListBookingsResponse, error) {
	out := new(ListBookingsResponse)
	if err := c.invoke(ctx, listBookingsMethod, in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *BookingsClient) GetBooking(ctx context.Context, in *GetBookingRequest, opts ...gogrpc.CallOption) (*GetBookingResponse, error) {
	out := new(GetBookingResponse)
	if err := c.invoke(ctx, getBookingMethod, in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *BookingsClient) DeleteBooking(ctx context.Context, in *DeleteBookingRequest, opts ...gogrpc.CallOption) (*DeleteBookingResponse, error) {
	out := new(DeleteBookingResponse)
	if err := c.invoke(ctx, deleteBookingMethod, in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *BookingsClient) invoke(ctx context.Context, method string, in, out any, opts []gogrpc.CallOption) error {
	opts = append([]gogrpc.CallOption{gogrpc.CallContentSubtype(codecName)}, opts...)
	return c.cc.Invoke(ctx, method, in, out, opts...)
}
