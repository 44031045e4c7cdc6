package grpc

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/timestamppb"

	"slotguard/backend/internal/domain"
	"slotguard/backend/internal/identity"
	"slotguard/backend/internal/service/bookings"
	"slotguard/backend/internal/store"
)

type BookingsServer struct {
	svc bookingsService
	log *slog.Logger
}

type bookingsService interface {
	CreateBooking(ctx context.Context, in bookings.CreateInput) (domain.Booking, error)
	ListBookings(ctx context.Context, ownerID string) ([]domain.Booking, error)
	GetBooking(ctx context.Context, ownerID string, id uuid.UUID) (domain.Booking, error)
	DeleteBooking(ctx context.Context, ownerID string, id uuid.UUID) (domain.Booking, error)
}

func NewBookingsServer(svc bookingsService, log *slog.Logger) *BookingsServer {
	if log == nil {
		log = slog.Default()
	}
	return &BookingsServer{
		svc: svc,
		log: log.With(slog.String("component", "grpc.bookings")),
	}
}

func (s *BookingsServer) CreateBooking(ctx context.Context, req *CreateBookingRequest) (*CreateBookingResponse, error) {
	owner, _ := identity.OwnerFromContext(ctx)
	log := s.log.With(slog.String("rpc", "CreateBooking"), slog.String("owner_id", owner))

	if req == nil {
		log.Warn("invalid request", slog.String("reason", "nil_request"))
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}
	if req.StartTime == nil || req.EndTime == nil {
		log.Warn("invalid request", slog.String("reason", "missing_times"))
		return nil, status.Error(codes.InvalidArgument, "start_time and end_time are required")
	}
	if err := req.StartTime.CheckValid(); err != nil {
		return nil, status.Error(codes.InvalidArgument, "start_time is invalid")
	}
	if err := req.EndTime.CheckValid(); err != nil {
		return nil, status.Error(codes.InvalidArgument, "end_time is invalid")
	}

	b, err := s.svc.CreateBooking(ctx, bookings.CreateInput{
		OwnerID: owner,
		Title:   req.Title,
		Start:   req.StartTime.AsTime(),
		End:     req.EndTime.AsTime(),
	})
	if err != nil {
		return nil, s.statusError(log, "booking create failed", err)
	}

	log.Info(
		"booking created",
		slog.String("booking_id", b.ID.String()),
		slog.Time("start_time", b.StartTime),
		slog.Time("end_time", b.EndTime),
	)
	return &CreateBookingResponse{Booking: toProtoBooking(b)}, nil
}

func (s *BookingsServer) ListBookings(ctx context.Context, req *ListBookingsRequest) (*ListBookingsResponse, error) {
	owner, _ := identity.OwnerFromContext(ctx)
	log := s.log.With(slog.String("rpc", "ListBookings"), slog.String("owner_id", owner))

	rows, err := s.svc.ListBookings(ctx, owner)
	if err != nil {
		return nil, s.statusError(log, "booking list failed", err)
	}

	out := make([]*Booking, 0, len(rows))
	for _, b := range rows {
		out = append(out, toProtoBooking(b))
	}
	log.Debug("bookings listed", slog.Int("count", len(out)))
	return &ListBookingsResponse{Bookings: out}, nil
}

func (s *BookingsServer) GetBooking(ctx context.Context, req *GetBookingRequest) (*GetBookingResponse, error) {
	owner, _ := identity.OwnerFromContext(ctx)
	log := s.log.With(slog.String("rpc", "GetBooking"), slog.String("owner_id", owner))

	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}
	id, err := uuid.Parse(req.BookingId)
	if err != nil {
		log.Warn("invalid request", slog.String("reason", "invalid_uuid"))
		return nil, status.Error(codes.InvalidArgument, "booking_id must be a UUID")
	}

	b, err := s.svc.GetBooking(ctx, owner, id)
	if err != nil {
		return nil, s.statusError(log.With(slog.String("booking_id", id.String())), "booking get failed", err)
	}
	return &GetBookingResponse{Booking: toProtoBooking(b)}, nil
}

func (s *BookingsServer) DeleteBooking(ctx context.Context, req *DeleteBookingRequest) (*DeleteBookingResponse, error) {
	owner, _ := identity.OwnerFromContext(ctx)
	log := s.log.With(slog.String("rpc", "DeleteBooking"), slog.String("owner_id", owner))

	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}
	id, err := uuid.Parse(req.BookingId)
	if err != nil {
		log.Warn("invalid request", slog.String("reason", "invalid_uuid"))
		return nil, status.Error(codes.InvalidArgument, "booking_id must be a UUID")
	}

	b, err := s.svc.DeleteBooking(ctx, owner, id)
	if err != nil {
		return nil, s.statusError(log.With(slog.String("booking_id", id.String())), "booking delete failed", err)
	}

	log.Info("booking deleted", slog.String("booking_id", id.String()))
	return &DeleteBookingResponse{Booking: toProtoBooking(b)}, nil
}

func (s *BookingsServer) statusError(log *slog.Logger, msg string, err error) error {
	var vErr *bookings.ValidationError
	switch {
	case errors.As(err, &vErr):
		log.Warn("invalid request", slog.Any("err", err))
		return status.Error(codes.InvalidArgument, vErr.Error())
	case errors.Is(err, store.ErrInvalidRange):
		log.Warn("invalid request", slog.Any("err", err))
		return status.Error(codes.InvalidArgument, "end must be after start")
	case errors.Is(err, bookings.ErrExternalConflict):
		log.Info(msg, slog.String("reason", "external_conflict"))
		return status.Error(codes.FailedPrecondition, "Your calendar is busy during that time. Pick a different slot.")
	case errors.Is(err, store.ErrSerialization):
		log.Warn(msg, slog.String("reason", "serialization"), slog.Any("err", err))
		return status.Error(codes.Unavailable, "The booking could not be confirmed because of concurrent changes. Try again.")
	case errors.Is(err, store.ErrConflict):
		log.Info(msg, slog.String("reason", "local_conflict"))
		return status.Error(codes.FailedPrecondition, "You already have a booking during that time. Pick a different slot.")
	case errors.Is(err, store.ErrNotFound):
		log.Info("booking not found")
		return status.Error(codes.NotFound, "booking not found")
	default:
		log.Error(msg, slog.Any("err", err))
		return status.Error(codes.Internal, "internal error")
	}
}

func toProtoBooking(b domain.Booking) *Booking {
	return &Booking{
		Id:        b.ID.String(),
		OwnerId:   b.OwnerID,
		Title:     b.Title,
		StartTime: timestamppb.New(b.StartTime),
		EndTime:   timestamppb.New(b.EndTime),
		CreatedAt: timestamppb.New(b.CreatedAt),
		UpdatedAt: timestamppb.New(b.UpdatedAt),
	}
}
