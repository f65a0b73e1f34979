package appointment

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/agendei/agendei/internal/domain"
)

func TestStatus_CanTransition(t *testing.T) {
	tests := []struct {
		from, to Status
		want     bool
	}{
		{StatusScheduled, StatusCompleted, true},
		{StatusScheduled, StatusCancelled, true},
		{StatusCancelled, StatusCancelled, false},
		{StatusCancelled, StatusScheduled, false},
		{StatusCompleted, StatusCancelled, false},
		{StatusCompleted, StatusScheduled, false},
	}
	for _, tt := range tests {
		if got := tt.from.CanTransition(tt.to); got != tt.want {
			t.Errorf("%s -> %s = %v, want %v", tt.from, tt.to, got, tt.want)
		}
	}
	if !StatusCancelled.Terminal() || !StatusCompleted.Terminal() || StatusScheduled.Terminal() {
		t.Error("terminal states misclassified")
	}
}

func TestPaymentStatus_CanTransition(t *testing.T) {
	tests := []struct {
		from, to PaymentStatus
		want     bool
	}{
		{PaymentPending, PaymentPendingApproval, true},
		{PaymentPendingApproval, PaymentPaid, true},
		{PaymentPendingApproval, PaymentRejected, true},
		{PaymentRejected, PaymentPendingApproval, true},
		{PaymentPending, PaymentPaid, false},
		{PaymentPaid, PaymentRejected, false},
		{PaymentRejected, PaymentPaid, false},
	}
	for _, tt := range tests {
		if got := tt.from.CanTransition(tt.to); got != tt.want {
			t.Errorf("%s -> %s = %v, want %v", tt.from, tt.to, got, tt.want)
		}
	}
}

func TestPaymentStatus_Sources(t *testing.T) {
	got := PaymentPendingApproval.Sources()
	if len(got) != 2 || got[0] != PaymentPending || got[1] != PaymentRejected {
		t.Fatalf("Sources(PENDING_APPROVAL) = %v", got)
	}
	if got := PaymentPaid.Sources(); len(got) != 1 || got[0] != PaymentPendingApproval {
		t.Fatalf("Sources(PAID) = %v", got)
	}
}

func validBook() BookRequest {
	return BookRequest{
		ServiceID:      "svc",
		ProfessionalID: "pro",
		Date:           "2025-03-01",
		Time:           "14:00",
		ClientName:     "Maria",
		ClientPhone:    "+5511999990000",
	}
}

func TestBookRequest_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(r *BookRequest)
		wantMsg string
	}{
		{name: "valid", mutate: func(*BookRequest) {}},
		{name: "missing service", mutate: func(r *BookRequest) { r.ServiceID = "" }, wantMsg: "service_id"},
		{name: "missing professional", mutate: func(r *BookRequest) { r.ProfessionalID = " " }, wantMsg: "professional_id"},
		{name: "missing date", mutate: func(r *BookRequest) { r.Date = "" }, wantMsg: "date"},
		{name: "missing time", mutate: func(r *BookRequest) { r.Time = "" }, wantMsg: "time"},
		{name: "missing name", mutate: func(r *BookRequest) { r.ClientName = "" }, wantMsg: "client_name"},
		{name: "missing phone", mutate: func(r *BookRequest) { r.ClientPhone = "" }, wantMsg: "client_phone"},
		{name: "bad date", mutate: func(r *BookRequest) { r.Date = "01/03/2025" }, wantMsg: "date must match"},
		{name: "bad time", mutate: func(r *BookRequest) { r.Time = "2pm" }, wantMsg: "time must match"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := validBook()
			tt.mutate(&r)
			err := r.Validate()
			if tt.wantMsg == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, domain.ErrValidation) {
				t.Fatalf("expected ErrValidation, got %v", err)
			}
			if errors.Is(err, domain.ErrConflict) {
				t.Fatal("validation failure must not be a conflict")
			}
			if !strings.Contains(err.Error(), tt.wantMsg) {
				t.Fatalf("error %q does not mention %q", err, tt.wantMsg)
			}
		})
	}
}

func TestBookRequest_StartsAt(t *testing.T) {
	r := validBook()
	loc, err := time.LoadLocation("America/Sao_Paulo")
	if err != nil {
		t.Skipf("tzdata unavailable: %v", err)
	}
	got, err := r.StartsAt(loc)
	if err != nil {
		t.Fatalf("StartsAt: %v", err)
	}
	want := time.Date(2025, 3, 1, 17, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("StartsAt = %v, want %v", got.UTC(), want)
	}

	utc, err := r.StartsAt(nil)
	if err != nil {
		t.Fatalf("StartsAt(nil): %v", err)
	}
	if !utc.Equal(time.Date(2025, 3, 1, 14, 0, 0, 0, time.UTC)) {
		t.Fatalf("StartsAt(nil) = %v", utc)
	}
}

func TestFilter_Validate(t *testing.T) {
	f := Filter{Status: "BOGUS"}
	if err := f.Validate(); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}

	f = Filter{Limit: 10_000, Offset: -3}
	if err := f.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if f.Limit != MaxLimit || f.Offset != 0 {
		t.Fatalf("paging not normalized: %+v", f)
	}

	now := time.Now()
	f = Filter{From: now, To: now.Add(-time.Hour)}
	if err := f.Validate(); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected ErrValidation for inverted range, got %v", err)
	}
}
