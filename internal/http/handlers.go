package http

import (
	"context"
	"net/http"

	"github.com/cockroachdb/errors"
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/robertarktes/aircnc-server/internal/auth"
	"github.com/robertarktes/aircnc-server/internal/booking"
	"github.com/robertarktes/aircnc-server/internal/domain"
	"github.com/robertarktes/aircnc-server/internal/payment"
)

type UserStore interface {
	Upsert(ctx context.Context, email string, doc domain.Document) (domain.UpdateResult, error)
	Get(ctx context.Context, email string) (domain.Document, error)
	List(ctx context.Context) ([]domain.Document, error)
}

type RoomStore interface {
	List(ctx context.Context) ([]domain.Document, error)
	ListByHost(ctx context.Context, email string) ([]domain.Document, error)
	Get(ctx context.Context, id string) (domain.Document, error)
	Insert(ctx context.Context, doc domain.Document) (domain.InsertResult, error)
	Update(ctx context.Context, id string, doc domain.Document) (domain.UpdateResult, error)
	SetBooked(ctx context.Context, id string, booked bool) (domain.UpdateResult, error)
	Delete(ctx context.Context, id string) (domain.DeleteResult, error)
}

type RoomCache interface {
	Get(ctx context.Context, id string, dst interface{}) (bool, error)
	Set(ctx context.Context, id string, v interface{}) error
	Invalidate(ctx context.Context, id string) error
}

type BookingService interface {
	Create(ctx context.Context, b domain.Booking) (booking.Created, error)
	ListByGuest(ctx context.Context, email string) ([]domain.Booking, error)
	ListForHost(ctx context.Context, email string) ([]domain.Booking, error)
	Delete(ctx context.Context, id string) (domain.DeleteResult, error)
}

type PaymentService interface {
	CreateIntent(ctx context.Context, price interface{}) (payment.Authorization, error)
}

type TokenIssuer interface {
	Issue(email string) (auth.Token, error)
}

type Pinger interface {
	Ping(ctx context.Context) error
}

// Deps are the collaborators the handlers call. RoomCache and Ready are
// optional.
type Deps struct {
	Users     UserStore
	Rooms     RoomStore
	RoomCache RoomCache
	Bookings  BookingService
	Payments  PaymentService
	Issuer    TokenIssuer
	Verifier  TokenVerifier
	Ready     Pinger
}

type Handlers struct {
	users     UserStore
	rooms     RoomStore
	roomCache RoomCache
	bookings  BookingService
	payments  PaymentService
	issuer    TokenIssuer
	verifier  TokenVerifier
	ready     Pinger
	validate  *validator.Validate
}

func NewHandlers(d Deps) *Handlers {
	return &Handlers{
		users:     d.Users,
		rooms:     d.Rooms,
		roomCache: d.RoomCache,
		bookings:  d.Bookings,
		payments:  d.Payments,
		issuer:    d.Issuer,
		verifier:  d.Verifier,
		ready:     d.Ready,
		validate:  validator.New(),
	}
}

type tokenRequest struct {
	Email string `json:"email" validate:"required"`
}

type statusRequest struct {
	Status *bool `json:"status" validate:"required"`
}

func (h *Handlers) bind(r *http.Request, dst interface{}) error {
	if err := decodeJSON(r, dst); err != nil {
		return err
	}
	if err := h.validate.Struct(dst); err != nil {
		return errors.Wrap(domain.ErrInvalidInput, err.Error())
	}
	return nil
}

func (h *Handlers) IssueToken(w http.ResponseWriter, r *http.Request) {
	var req tokenRequest
	if err := h.bind(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	tok, err := h.issuer.Issue(req.Email)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"token": tok.Token})
}

func (h *Handlers) CreatePaymentIntent(w http.ResponseWriter, r *http.Request, id auth.Identity) {
	var body map[string]interface{}
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, r, err)
		return
	}
	authz, err := h.payments.CreateIntent(r.Context(), body["price"])
	if err != nil {
		writeError(w, r, err)
		return
	}
	loggerFrom(r).WithField("email", id.Email).Info("payment intent created")
	writeJSON(w, http.StatusOK, map[string]string{"clientSecret": authz.ClientSecret})
}

func (h *Handlers) PutUser(w http.ResponseWriter, r *http.Request) {
	var doc domain.Document
	if err := decodeJSON(r, &doc); err != nil {
		writeError(w, r, err)
		return
	}
	res, err := h.users.Upsert(r.Context(), chi.URLParam(r, "email"), doc)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *Handlers) GetUser(w http.ResponseWriter, r *http.Request) {
	user, err := h.users.Get(r.Context(), chi.URLParam(r, "email"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (h *Handlers) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.users.List(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, users)
}

func (h *Handlers) ListRooms(w http.ResponseWriter, r *http.Request) {
	rooms, err := h.rooms.List(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rooms)
}

func (h *Handlers) GetRoom(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	log := loggerFrom(r).WithField("room_id", id)

	if h.roomCache != nil {
		var cached domain.Document
		hit, err := h.roomCache.Get(r.Context(), id, &cached)
		if err != nil {
			log.WithError(err).Warn("room cache read failed")
		}
		if hit {
			writeJSON(w, http.StatusOK, cached)
			return
		}
	}

	room, err := h.rooms.Get(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if room != nil && h.roomCache != nil {
		if err := h.roomCache.Set(r.Context(), id, room); err != nil {
			log.WithError(err).Warn("room cache write failed")
		}
	}
	writeJSON(w, http.StatusOK, room)
}

// HostRooms runs behind RequireOwner, so the path email is the caller's.
func (h *Handlers) HostRooms(w http.ResponseWriter, r *http.Request, id auth.Identity) {
	rooms, err := h.rooms.ListByHost(r.Context(), id.Email)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rooms)
}

func (h *Handlers) CreateRoom(w http.ResponseWriter, r *http.Request) {
	var doc domain.Document
	if err := decodeJSON(r, &doc); err != nil {
		writeError(w, r, err)
		return
	}
	res, err := h.rooms.Insert(r.Context(), doc)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *Handlers) UpdateRoom(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "key")
	var doc domain.Document
	if err := decodeJSON(r, &doc); err != nil {
		writeError(w, r, err)
		return
	}
	res, err := h.rooms.Update(r.Context(), id, doc)
	if err != nil {
		writeError(w, r, err)
		return
	}
	h.invalidateRoom(r, id)
	writeJSON(w, http.StatusOK, res)
}

func (h *Handlers) DeleteRoom(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "key")
	res, err := h.rooms.Delete(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if res.DeletedCount == 0 {
		writeError(w, r, errors.Wrapf(domain.ErrNotFound, "room %s", id))
		return
	}
	h.invalidateRoom(r, id)
	writeJSON(w, http.StatusOK, res)
}

func (h *Handlers) SetRoomStatus(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req statusRequest
	if err := h.bind(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	res, err := h.rooms.SetBooked(r.Context(), id, *req.Status)
	if err != nil {
		writeError(w, r, err)
		return
	}
	h.invalidateRoom(r, id)
	writeJSON(w, http.StatusOK, res)
}

func (h *Handlers) invalidateRoom(r *http.Request, id string) {
	if h.roomCache == nil {
		return
	}
	if err := h.roomCache.Invalidate(r.Context(), id); err != nil {
		loggerFrom(r).WithError(err).WithField("room_id", id).Warn("room cache invalidation failed")
	}
}

func (h *Handlers) ListBookings(w http.ResponseWriter, r *http.Request) {
	bookings, err := h.bookings.ListByGuest(r.Context(), r.URL.Query().Get("email"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, bookings)
}

func (h *Handlers) HostBookings(w http.ResponseWriter, r *http.Request) {
	bookings, err := h.bookings.ListForHost(r.Context(), r.URL.Query().Get("email"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, bookings)
}

// CreateBooking stores the body as sent and answers as soon as it is
// persisted; confirmation mail continues in the background.
func (h *Handlers) CreateBooking(w http.ResponseWriter, r *http.Request) {
	var b domain.Booking
	if err := decodeJSON(r, &b); err != nil {
		writeError(w, r, err)
		return
	}
	created, err := h.bookings.Create(r.Context(), b)
	if err != nil {
		writeError(w, r, err)
		return
	}
	loggerFrom(r).WithField("booking_id", created.Result.InsertedID).Info("booking created")
	writeJSON(w, http.StatusOK, created.Result)
}

func (h *Handlers) DeleteBooking(w http.ResponseWriter, r *http.Request) {
	res, err := h.bookings.Delete(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *Handlers) Home(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Write([]byte("AirCNC Server is running.."))
}

func (h *Handlers) Healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

func (h *Handlers) Readyz(w http.ResponseWriter, r *http.Request) {
	if h.ready != nil {
		if err := h.ready.Ping(r.Context()); err != nil {
			loggerFrom(r).WithError(err).Warn("readiness check failed")
			http.Error(w, "not ready", http.StatusServiceUnavailable)
			return
		}
	}
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}
