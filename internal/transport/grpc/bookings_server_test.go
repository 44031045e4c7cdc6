package grpc

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/timestamppb"

	"slotguard/backend/internal/domain"
	"slotguard/backend/internal/identity"
	"slotguard/backend/internal/service/bookings"
	"slotguard/backend/internal/store"
)

type fakeBookingsService struct {
	createFn func(ctx context.Context, in bookings.CreateInput) (domain.Booking, error)
	listFn   func(ctx context.Context, ownerID string) ([]domain.Booking, error)
	getFn    func(ctx context.Context, ownerID string, id uuid.UUID) (domain.Booking, error)
	deleteFn func(ctx context.Context, ownerID string, id uuid.UUID) (domain.Booking, error)
}

func (f *fakeBookingsService) CreateBooking(ctx context.Context, in bookings.CreateInput) (domain.Booking, error) {
	if f.createFn == nil {
		panic("CreateBooking not configured")
	}
	return f.createFn(ctx, in)
}

func (f *fakeBookingsService) ListBookings(ctx context.Context, ownerID string) ([]domain.Booking, error) {
	if f.listFn == nil {
		panic("ListBookings not configured")
	}
	return f.listFn(ctx, ownerID)
}

func (f *fakeBookingsService) GetBooking(ctx context.Context, ownerID string, id uuid.UUID) (domain.Booking, error) {
	if f.getFn == nil {
		panic("GetBooking not configured")
	}
	return f.getFn(ctx, ownerID, id)
}

func (f *fakeBookingsService) DeleteBooking(ctx context.Context, ownerID string, id uuid.UUID) (domain.Booking, error) {
	if f.deleteFn == nil {
		panic("DeleteBooking not configured")
	}
	return f.deleteFn(ctx, ownerID, id)
}

func validCreateRequest() *CreateBookingRequest {
	start := time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)
	return &CreateBookingRequest{
		Title:     "t",
		StartTime: timestamppb.New(start),
		EndTime:   timestamppb.New(start.Add(time.Hour)),
	}
}

func TestCreateBooking_RejectsMissingTimes(t *testing.T) {
	srv := NewBookingsServer(&fakeBookingsService{}, slog.Default())

	_, err := srv.CreateBooking(context.Background(), &CreateBookingRequest{Title: "t"})
	if status.Code(err) != codes.InvalidArgument {
		t.Fatalf("code = %s, want %s", status.Code(err), codes.InvalidArgument)
	}
}

func TestCreateBooking_PassesOwnerFromContext(t *testing.T) {
	var got bookings.CreateInput
	srv := NewBookingsServer(&fakeBookingsService{
		createFn: func(ctx context.Context, in bookings.CreateInput) (domain.Booking, error) {
			got = in
			return domain.Booking{ID: uuid.MustParse("00000000-0000-0000-0000-000000000010"), OwnerID: in.OwnerID}, nil
		},
	}, slog.Default())

	ctx := identity.WithOwner(context.Background(), "alice")
	resp, err := srv.CreateBooking(ctx, validCreateRequest())
	if err != nil {
		t.Fatalf("CreateBooking error: %v", err)
	}
	if got.OwnerID != "alice" {
		t.Fatalf("owner = %q, want %q", got.OwnerID, "alice")
	}
	if !got.Start.Equal(time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)) {
		t.Fatalf("start = %v", got.Start)
	}
	if resp.Booking.Id != "00000000-0000-0000-0000-000000000010" {
		t.Fatalf("id = %q", resp.Booking.Id)
	}
}

func TestCreateBooking_MapsErrors(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		want    codes.Code
		message string
	}{
		{name: "validation", err: &bookings.ValidationError{}, want: codes.InvalidArgument},
		{name: "invalid range", err: store.ErrInvalidRange, want: codes.InvalidArgument},
		{name: "local conflict", err: store.ErrConflict, want: codes.FailedPrecondition, message: "You already have a booking during that time. Pick a different slot."},
		{name: "external conflict", err: bookings.ErrExternalConflict, want: codes.FailedPrecondition, message: "Your calendar is busy during that time. Pick a different slot."},
		{name: "serialization", err: errors.Join(store.ErrConflict, store.ErrSerialization), want: codes.Unavailable},
		{name: "unexpected", err: errors.New("boom"), want: codes.Internal, message: "internal error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := NewBookingsServer(&fakeBookingsService{
				createFn: func(ctx context.Context, in bookings.CreateInput) (domain.Booking, error) {
					return domain.Booking{}, tt.err
				},
			}, slog.Default())

			_, err := srv.CreateBooking(context.Background(), validCreateRequest())
			if status.Code(err) != tt.want {
				t.Fatalf("code = %s, want %s", status.Code(err), tt.want)
			}
			if tt.message != "" && status.Convert(err).Message() != tt.message {
				t.Fatalf("message = %q, want %q", status.Convert(err).Message(), tt.message)
			}
		})
	}
}

func TestGetAndDeleteBooking_RejectInvalidUUID(t *testing.T) {
	srv := NewBookingsServer(&fakeBookingsService{}, slog.Default())

	_, err := srv.GetBooking(context.Background(), &GetBookingRequest{BookingId: "not-a-uuid"})
	if status.Code(err) != codes.InvalidArgument {
		t.Fatalf("get code = %s, want %s", status.Code(err), codes.InvalidArgument)
	}
	_, err = srv.DeleteBooking(context.Background(), &DeleteBookingRequest{BookingId: "not-a-uuid"})
	if status.Code(err) != codes.InvalidArgument {
		t.Fatalf("delete code = %s, want %s", status.Code(err), codes.InvalidArgument)
	}
}

func TestDeleteBooking_MapsNotFound(t *testing.T) {
	srv := NewBookingsServer(&fakeBookingsService{
		deleteFn: func(ctx context.Context, ownerID string, id uuid.UUID) (domain.Booking, error) {
			return domain.Booking{}, store.ErrNotFound
		},
	}, slog.Default())

	_, err := srv.DeleteBooking(context.Background(), &DeleteBookingRequest{BookingId: "00000000-0000-0000-0000-000000000020"})
	if status.Code(err) != codes.NotFound {
		t.Fatalf("code = %s, want %s", status.Code(err), codes.NotFound)
	}
}

func TestListBookings_MapsRows(t *testing.T) {
	start := time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)
	srv := NewBookingsServer(&fakeBookingsService{
		listFn: func(ctx context.Context, ownerID string) ([]domain.Booking, error) {
			return []domain.Booking{{OwnerID: ownerID, StartTime: start, EndTime: start.Add(time.Hour)}}, nil
		},
	}, slog.Default())

	resp, err := srv.ListBookings(identity.WithOwner(context.Background(), "alice"), &ListBookingsRequest{})
	if err != nil {
		t.Fatalf("ListBookings error: %v", err)
	}
	if len(resp.Bookings) != 1 {
		t.Fatalf("len = %d, want 1", len(resp.Bookings))
	}
	if got := resp.Bookings[0].StartTime.AsTime(); !got.Equal(start) {
		t.Fatalf("start = %v, want %v", got, start)
	}
}

func TestRequestTimeoutInterceptor_AddsDeadline(t *testing.T) {
	interceptor := RequestTimeoutInterceptor(time.Second)

	_, err := interceptor(context.Background(), nil, nil, func(ctx context.Context, req any) (any, error) {
		if _, ok := ctx.Deadline(); !ok {
			t.Fatalf("expected deadline")
		}
		return nil, nil
	})
	if err != nil {
		t.Fatalf("interceptor error: %v", err)
	}
}
