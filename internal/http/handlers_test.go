package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/robertarktes/aircnc-server/internal/auth"
	"github.com/robertarktes/aircnc-server/internal/booking"
	"github.com/robertarktes/aircnc-server/internal/domain"
	"github.com/robertarktes/aircnc-server/internal/notify"
	"github.com/robertarktes/aircnc-server/internal/observability"
	"github.com/robertarktes/aircnc-server/internal/payment"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const secret = "test-secret"

type fakeBookingStore struct {
	mu    sync.Mutex
	items []domain.Booking
}

func (f *fakeBookingStore) InsertBooking(ctx context.Context, b domain.Booking) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	id := primitive.NewObjectID()
	b["_id"] = id
	f.items = append(f.items, b)
	return id.Hex(), nil
}

func (f *fakeBookingStore) BookingsByGuest(ctx context.Context, email string) ([]domain.Booking, error) {
	out := []domain.Booking{}
	for _, b := range f.items {
		if b.GuestEmail() == email {
			out = append(out, b)
		}
	}
	return out, nil
}

func (f *fakeBookingStore) BookingsByHost(ctx context.Context, email string) ([]domain.Booking, error) {
	out := []domain.Booking{}
	for _, b := range f.items {
		if b.Host() == email {
			out = append(out, b)
		}
	}
	return out, nil
}

func (f *fakeBookingStore) AllBookings(ctx context.Context) ([]domain.Booking, error) {
	return f.items, nil
}

func (f *fakeBookingStore) DeleteBooking(ctx context.Context, id string) (domain.DeleteResult, error) {
	return domain.DeleteResult{Acknowledged: true}, nil
}

type fakeRooms struct {
	byHost map[string][]domain.Document
	booked map[string]bool
}

func (f *fakeRooms) List(ctx context.Context) ([]domain.Document, error) {
	return []domain.Document{}, nil
}

func (f *fakeRooms) ListByHost(ctx context.Context, email string) ([]domain.Document, error) {
	return f.byHost[email], nil
}

func (f *fakeRooms) Get(ctx context.Context, id string) (domain.Document, error) {
	return nil, nil
}

func (f *fakeRooms) Insert(ctx context.Context, doc domain.Document) (domain.InsertResult, error) {
	return domain.InsertResult{Acknowledged: true, InsertedID: primitive.NewObjectID().Hex()}, nil
}

func (f *fakeRooms) Update(ctx context.Context, id string, doc domain.Document) (domain.UpdateResult, error) {
	return domain.UpdateResult{Acknowledged: true, MatchedCount: 1, ModifiedCount: 1}, nil
}

func (f *fakeRooms) SetBooked(ctx context.Context, id string, booked bool) (domain.UpdateResult, error) {
	f.booked[id] = booked
	return domain.UpdateResult{Acknowledged: true, MatchedCount: 1, ModifiedCount: 1}, nil
}

func (f *fakeRooms) Delete(ctx context.Context, id string) (domain.DeleteResult, error) {
	return domain.DeleteResult{Acknowledged: true}, nil
}

type fakeUsers struct{}

func (fakeUsers) Upsert(ctx context.Context, email string, doc domain.Document) (domain.UpdateResult, error) {
	return domain.UpdateResult{Acknowledged: true, UpsertedCount: 1}, nil
}

func (fakeUsers) Get(ctx context.Context, email string) (domain.Document, error) {
	return nil, nil
}

func (fakeUsers) List(ctx context.Context) ([]domain.Document, error) {
	return []domain.Document{}, nil
}

type recordingTransport struct {
	mu sync.Mutex
	to []string
}

func (r *recordingTransport) Deliver(ctx context.Context, msg notify.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.to = append(r.to, msg.To)
	return nil
}

type fakeAuthorizer struct {
	amount int64
}

func (f *fakeAuthorizer) Authorize(ctx context.Context, amount int64, currency string) (payment.Authorization, error) {
	f.amount = amount
	return payment.Authorization{ID: "pi_1", ClientSecret: "pi_1_secret"}, nil
}

func (f *fakeAuthorizer) Lookup(ctx context.Context, id string) (payment.Intent, error) {
	return payment.Intent{}, nil
}

type testServer struct {
	handler    http.Handler
	bookings   *fakeBookingStore
	dispatcher *notify.Dispatcher
	transport  *recordingTransport
	rooms      *fakeRooms
	authorizer *fakeAuthorizer
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	logger := observability.NewLoggerTo(io.Discard)
	transport := &recordingTransport{}
	dispatcher := notify.NewDispatcher(transport, logger)
	rooms := &fakeRooms{
		byHost: map[string][]domain.Document{"host@x.com": {{"title": "Loft", "host": map[string]interface{}{"email": "host@x.com"}}}},
		booked: map[string]bool{},
	}
	authorizer := &fakeAuthorizer{}
	bookings := &fakeBookingStore{}

	h := NewHandlers(Deps{
		Users:    fakeUsers{},
		Rooms:    rooms,
		Bookings: booking.NewService(bookings, dispatcher, logger),
		Payments: payment.NewService(authorizer, logger),
		Issuer:   auth.NewIssuer(secret, time.Hour),
		Verifier: auth.NewVerifier(secret),
	})
	return &testServer{
		handler:    SetupRouter(h, logger, []string{"*"}),
		bookings:   bookings,
		dispatcher: dispatcher,
		transport:  transport,
		rooms:      rooms,
		authorizer: authorizer,
	}
}

func (s *testServer) do(t *testing.T, method, path string, body interface{}, token string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func tokenFor(t *testing.T, email string) string {
	t.Helper()
	tok, err := auth.NewIssuer(secret, time.Hour).Issue(email)
	if err != nil {
		t.Fatal(err)
	}
	return tok.Token
}

func TestIssueToken(t *testing.T) {
	s := newTestServer(t)
	rec := s.do(t, http.MethodPost, "/jwt", map[string]string{"email": "a@b.com"}, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}

	claims := &auth.Claims{}
	if _, _, err := jwt.NewParser().ParseUnverified(resp.Token, claims); err != nil {
		t.Fatal(err)
	}
	if claims.Email != "a@b.com" {
		t.Errorf("expected a@b.com, got %s", claims.Email)
	}
	ttl := time.Until(claims.ExpiresAt.Time)
	if ttl < 3590*time.Second || ttl > 3600*time.Second {
		t.Errorf("expected expiry ~3600s out, got %s", ttl)
	}
}

func TestIssueToken_MissingEmail(t *testing.T) {
	s := newTestServer(t)
	rec := s.do(t, http.MethodPost, "/jwt", map[string]string{}, "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestHostRooms_Ownership(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodGet, "/rooms/host@x.com", nil, tokenFor(t, "other@x.com"))
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
	var body errorBody
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if !body.Error || body.Message == "" {
		t.Errorf("unexpected error body %+v", body)
	}

	rec = s.do(t, http.MethodGet, "/rooms/host@x.com", nil, "")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", rec.Code)
	}

	rec = s.do(t, http.MethodGet, "/rooms/host@x.com", nil, tokenFor(t, "host@x.com"))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 for owner, got %d", rec.Code)
	}
	var rooms []map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &rooms); err != nil {
		t.Fatal(err)
	}
	if len(rooms) != 1 {
		t.Errorf("expected 1 room, got %d", len(rooms))
	}
}

func TestListBookings_NoEmail(t *testing.T) {
	s := newTestServer(t)
	rec := s.do(t, http.MethodGet, "/bookings", nil, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if got := bytes.TrimSpace(rec.Body.Bytes()); string(got) != "[]" {
		t.Errorf("expected [], got %s", got)
	}
}

func TestCreateBooking(t *testing.T) {
	s := newTestServer(t)
	rec := s.do(t, http.MethodPost, "/bookings", map[string]interface{}{
		"guest":         map[string]string{"email": "g@x.com"},
		"host":          "h@x.com",
		"transactionId": "t1",
		"price":         10,
	}, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var res domain.InsertResult
	if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
		t.Fatal(err)
	}
	if !res.Acknowledged || res.InsertedID == "" {
		t.Fatalf("expected generated id, got %+v", res)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := s.dispatcher.Wait(ctx); err != nil {
		t.Fatal(err)
	}
	got := map[string]bool{}
	for _, to := range s.transport.to {
		got[to] = true
	}
	if len(s.transport.to) != 2 || !got["g@x.com"] || !got["h@x.com"] {
		t.Errorf("expected sends to g@x.com and h@x.com, got %v", s.transport.to)
	}
}

func TestCreatePaymentIntent(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodPost, "/create-payment-intent", map[string]interface{}{"price": 25.5}, "")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", rec.Code)
	}

	token := tokenFor(t, "g@x.com")
	rec = s.do(t, http.MethodPost, "/create-payment-intent", map[string]interface{}{"price": 25.5}, token)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp["clientSecret"] != "pi_1_secret" {
		t.Errorf("unexpected response %v", resp)
	}
	if s.authorizer.amount != 2550 {
		t.Errorf("expected 2550, got %d", s.authorizer.amount)
	}

	rec = s.do(t, http.MethodPost, "/create-payment-intent", map[string]interface{}{}, token)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for missing price, got %d", rec.Code)
	}
}

func TestSetRoomStatus(t *testing.T) {
	s := newTestServer(t)
	id := primitive.NewObjectID().Hex()

	rec := s.do(t, http.MethodPatch, "/rooms/status/"+id, map[string]bool{"status": true}, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !s.rooms.booked[id] {
		t.Error("expected room marked booked")
	}

	rec = s.do(t, http.MethodPatch, "/rooms/status/"+id, map[string]string{}, "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without status, got %d", rec.Code)
	}
}

func TestDeleteRoom_NotFound(t *testing.T) {
	s := newTestServer(t)
	rec := s.do(t, http.MethodDelete, "/rooms/"+primitive.NewObjectID().Hex(), nil, "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestGetMissingRecordsReturnNull(t *testing.T) {
	s := newTestServer(t)
	for _, path := range []string{"/users/none@x.com", "/room/" + primitive.NewObjectID().Hex()} {
		rec := s.do(t, http.MethodGet, path, nil, "")
		if rec.Code != http.StatusOK || string(bytes.TrimSpace(rec.Body.Bytes())) != "null" {
			t.Errorf("%s: expected 200 null, got %d %s", path, rec.Code, rec.Body.String())
		}
	}
}

func TestHome(t *testing.T) {
	s := newTestServer(t)
	rec := s.do(t, http.MethodGet, "/home", nil, "")
	if rec.Body.String() != "AirCNC Server is running.." {
		t.Errorf("unexpected body %q", rec.Body.String())
	}
}

func TestCreateBooking_TrustsCallerShape(t *testing.T) {
	s := newTestServer(t)
	rec := s.do(t, http.MethodPost, "/bookings", map[string]interface{}{
		"guest":         map[string]string{"email": "g@x.com"},
		"host":          map[string]string{"email": "h@x.com"},
		"transactionId": 123,
		"price":         "10",
	}, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := s.dispatcher.Wait(ctx); err != nil {
		t.Fatal(err)
	}
	got := map[string]bool{}
	for _, to := range s.transport.to {
		got[to] = true
	}
	if len(s.transport.to) != 2 || !got["g@x.com"] || !got["h@x.com"] {
		t.Errorf("expected sends to g@x.com and h@x.com, got %v", s.transport.to)
	}
	if len(s.bookings.items) != 1 || s.bookings.items[0]["price"] != "10" {
		t.Errorf("expected booking stored as sent, got %v", s.bookings.items)
	}
}

func TestCORSPreflight(t *testing.T) {
	s := newTestServer(t)
	req := httptest.NewRequest(http.MethodOptions, "/bookings", nil)
	req.Header.Set("Origin", "https://aircnc.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	req.Header.Set("Access-Control-Request-Headers", "Authorization, Content-Type")
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 for preflight, got %d", rec.Code)
	}
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("expected allow-origin *, got %q", got)
	}

	rec = s.do(t, http.MethodGet, "/home", nil, "")
	if rec.Header().Get("Access-Control-Allow-Origin") != "" {
		t.Error("non-CORS request should not get CORS headers")
	}
}
