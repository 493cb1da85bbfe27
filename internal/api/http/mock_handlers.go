package http

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"car-rental-client/internal/domain"
	"car-rental-client/internal/logger"

	"github.com/gorilla/mux"
	jsoniter "github.com/json-iterator/go"
	"golang.org/x/crypto/bcrypt"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

type errorResponse struct {
	Detail any `json:"detail"`
}

type fieldIssue struct {
	Loc  []string `json:"loc"`
	Msg  string   `json:"msg"`
	Type string   `json:"type"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("Failed to encode mock response", "error", err)
	}
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, errorResponse{Detail: detail})
}

func writeMissing(w http.ResponseWriter, fields ...string) {
	issues := make([]fieldIssue, 0, len(fields))
	for _, f := range fields {
		issues = append(issues, fieldIssue{Loc: []string{"body", f}, Msg: "Field required", Type: "missing"})
	}
	writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Detail: issues})
}

func decodeBody(r *http.Request, v any) error {
	data, err := io.ReadAll(r.Body)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}

func pathID(r *http.Request, name string) (int32, bool) {
	id, err := strconv.ParseInt(mux.Vars(r)[name], 10, 32)
	if err != nil {
		return 0, false
	}
	return int32(id), true
}

var errUnauthorized = errors.New("Invalid credentials")

// currentUser resolves the bearer token. Callers must hold no lock.
func (b *MockBackend) currentUser(r *http.Request) (*mockUser, error) {
	header := r.Header.Get("Authorization")
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || token == "" {
		return nil, errors.New("Not authenticated")
	}
	claims, err := b.tokens.ValidateToken(token)
	if err != nil {
		return nil, errUnauthorized
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	u := b.findUserLocked(claims.Username())
	if u == nil {
		return nil, errUnauthorized
	}
	copied := *u
	return &copied, nil
}

func (b *MockBackend) requireUser(w http.ResponseWriter, r *http.Request) (*mockUser, bool) {
	u, err := b.currentUser(r)
	if err != nil {
		w.Header().Set("WWW-Authenticate", "Bearer")
		writeDetail(w, http.StatusUnauthorized, err.Error())
		return nil, false
	}
	return u, true
}

func (b *MockBackend) requireAdmin(w http.ResponseWriter, r *http.Request) (*mockUser, bool) {
	u, ok := b.requireUser(w, r)
	if !ok {
		return nil, false
	}
	if u.Role != domain.RoleAdmin {
		writeDetail(w, http.StatusForbidden, "Admin only")
		return nil, false
	}
	return u, true
}

// --- USERS ---

func (b *MockBackend) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req domain.RegisterRequest
	if err := decodeBody(r, &req); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, "Invalid JSON body")
		return
	}
	var missing []string
	if req.Username == "" {
		missing = append(missing, "username")
	}
	if req.Email == "" {
		missing = append(missing, "email")
	}
	if req.Password == "" {
		missing = append(missing, "password")
	}
	if len(missing) > 0 {
		writeMissing(w, missing...)
		return
	}
	if req.Role == "" {
		req.Role = domain.RoleCustomer
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.MinCost)
	if err != nil {
		writeDetail(w, http.StatusInternalServerError, "Failed to hash password")
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.findUserLocked(req.Username) != nil {
		writeDetail(w, http.StatusBadRequest, "Username already registered")
		return
	}
	b.nextID.user++
	u := &mockUser{
		User: domain.User{
			ID:          b.nextID.user,
			Username:    req.Username,
			Email:       req.Email,
			FullName:    req.FullName,
			PhoneNumber: req.PhoneNumber,
			Address:     req.Address,
			Role:        req.Role,
		},
		passwordHash: hash,
	}
	b.users[u.ID] = u
	writeJSON(w, http.StatusOK, u.User)
}

func (b *MockBackend) handleToken(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, "Invalid form body")
		return
	}
	username := r.PostForm.Get("username")
	password := r.PostForm.Get("password")

	b.mu.Lock()
	u := b.findUserLocked(username)
	var copied mockUser
	if u != nil {
		copied = *u
	}
	b.mu.Unlock()

	if u == nil || bcrypt.CompareHashAndPassword(copied.passwordHash, []byte(password)) != nil {
		w.Header().Set("WWW-Authenticate", "Bearer")
		writeDetail(w, http.StatusUnauthorized, "Incorrect username or password")
		return
	}

	token, err := b.tokens.GenerateAccessToken(copied.ID, copied.Username, string(copied.Role))
	if err != nil {
		writeDetail(w, http.StatusInternalServerError, "Failed to issue token")
		return
	}
	writeJSON(w, http.StatusOK, domain.TokenResponse{
		AccessToken: token,
		TokenType:   "bearer",
		Role:        copied.Role,
		UserID:      copied.ID,
	})
}

func (b *MockBackend) handleMe(w http.ResponseWriter, r *http.Request) {
	u, ok := b.requireUser(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, u.User)
}

func (b *MockBackend) handleGetUser(w http.ResponseWriter, r *http.Request) {
	caller, ok := b.requireUser(w, r)
	if !ok {
		return
	}
	id, ok := pathID(r, "id")
	if !ok {
		writeDetail(w, http.StatusUnprocessableEntity, "Invalid user id")
		return
	}
	if caller.Role != domain.RoleAdmin && caller.ID != id {
		writeDetail(w, http.StatusForbidden, "Not allowed to view this user")
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	u, found := b.users[id]
	if !found {
		writeDetail(w, http.StatusNotFound, "User not found")
		return
	}
	writeJSON(w, http.StatusOK, u.User)
}

func (b *MockBackend) handleUpdateUser(w http.ResponseWriter, r *http.Request) {
	caller, ok := b.requireUser(w, r)
	if !ok {
		return
	}
	id, ok := pathID(r, "id")
	if !ok {
		writeDetail(w, http.StatusUnprocessableEntity, "Invalid user id")
		return
	}
	if caller.Role != domain.RoleAdmin && caller.ID != id {
		writeDetail(w, http.StatusForbidden, "Not allowed to update this user")
		return
	}
	var upd domain.ProfileUpdate
	if err := decodeBody(r, &upd); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, "Invalid JSON body")
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	u, found := b.users[id]
	if !found {
		writeDetail(w, http.StatusNotFound, "User not found")
		return
	}
	for _, other := range b.users {
		if other.ID == id {
			continue
		}
		if upd.Username != nil && other.Username == *upd.Username {
			writeDetail(w, http.StatusBadRequest, "Username already taken")
			return
		}
		if upd.Email != nil && other.Email == *upd.Email {
			writeDetail(w, http.StatusBadRequest, "Email already taken")
			return
		}
		if upd.PhoneNumber != nil && *upd.PhoneNumber != "" && other.PhoneNumber == *upd.PhoneNumber {
			writeDetail(w, http.StatusBadRequest, "Phone number already taken")
			return
		}
	}
	if upd.Username != nil {
		u.Username = *upd.Username
	}
	if upd.Email != nil {
		u.Email = *upd.Email
	}
	if upd.FullName != nil {
		u.FullName = *upd.FullName
	}
	if upd.PhoneNumber != nil {
		u.PhoneNumber = *upd.PhoneNumber
	}
	if upd.Address != nil {
		u.Address = *upd.Address
	}
	writeJSON(w, http.StatusOK, u.User)
}

// --- CARS ---

func (b *MockBackend) handleListCars(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	cars := make([]domain.Car, 0, len(b.cars))
	for id := int32(1); id <= b.nextID.car; id++ {
		if c, ok := b.cars[id]; ok {
			cars = append(cars, *c)
		}
	}
	writeJSON(w, http.StatusOK, cars)
}

func (b *MockBackend) handleCreateCar(w http.ResponseWriter, r *http.Request) {
	if _, ok := b.requireAdmin(w, r); !ok {
		return
	}
	var in domain.CarInput
	if err := decodeBody(r, &in); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, "Invalid JSON body")
		return
	}
	if in.Brand == "" || in.Model == "" {
		writeMissing(w, "brand", "model")
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	car := b.createCarLocked(in)
	writeJSON(w, http.StatusCreated, car)
}

func (b *MockBackend) handleUpdateCar(w http.ResponseWriter, r *http.Request) {
	if _, ok := b.requireAdmin(w, r); !ok {
		return
	}
	id, ok := pathID(r, "id")
	if !ok {
		writeDetail(w, http.StatusUnprocessableEntity, "Invalid car id")
		return
	}
	var in domain.CarInput
	if err := decodeBody(r, &in); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, "Invalid JSON body")
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	car, found := b.cars[id]
	if !found {
		writeDetail(w, http.StatusNotFound, "Car not found")
		return
	}
	applyCarInput(car, in)
	writeJSON(w, http.StatusOK, car)
}

func (b *MockBackend) handleDeleteCar(w http.ResponseWriter, r *http.Request) {
	if _, ok := b.requireAdmin(w, r); !ok {
		return
	}
	id, ok := pathID(r, "id")
	if !ok {
		writeDetail(w, http.StatusUnprocessableEntity, "Invalid car id")
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if _, found := b.cars[id]; !found {
		writeDetail(w, http.StatusNotFound, "Car not found")
		return
	}
	delete(b.cars, id)
	w.WriteHeader(http.StatusNoContent)
}

func (b *MockBackend) handleSetAvailability(w http.ResponseWriter, r *http.Request) {
	if _, ok := b.requireAdmin(w, r); !ok {
		return
	}
	id, ok := pathID(r, "id")
	if !ok {
		writeDetail(w, http.StatusUnprocessableEntity, "Invalid car id")
		return
	}
	var upd domain.AvailabilityUpdate
	if err := decodeBody(r, &upd); err != nil {
		writeMissing(w, "available")
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	car, found := b.cars[id]
	if !found {
		writeDetail(w, http.StatusNotFound, "Car not found")
		return
	}
	car.Available = upd.Available
	writeJSON(w, http.StatusOK, car)
}

// --- RENTALS ---

func (b *MockBackend) handleCreateRental(w http.ResponseWriter, r *http.Request) {
	caller, ok := b.requireUser(w, r)
	if !ok {
		return
	}
	if caller.Role != domain.RoleCustomer {
		writeDetail(w, http.StatusForbidden, "Only customers can rent cars.")
		return
	}
	var req domain.CreateRentalRequest
	if err := decodeBody(r, &req); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, "Invalid JSON body")
		return
	}
	start, errStart := domain.ParseTimestamp(req.StartDate)
	end, errEnd := domain.ParseTimestamp(req.EndDate)
	if errStart != nil || errEnd != nil {
		writeMissing(w, "start_date", "end_date")
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	car, found := b.cars[req.CarID]
	if !found {
		writeDetail(w, http.StatusNotFound, "Car not found.")
		return
	}
	if !car.Available {
		writeDetail(w, http.StatusBadRequest, "Car is not available.")
		return
	}
	if start.After(end.Time) {
		writeDetail(w, http.StatusBadRequest, "End date must be after start date.")
		return
	}

	b.nextID.rental++
	rental := &domain.Rental{
		ID:         b.nextID.rental,
		UserID:     caller.ID,
		CarID:      car.ID,
		StartDate:  start,
		EndDate:    end,
		TotalPrice: float64(billableDays(end.Sub(start.Time))) * car.PricePerDay,
		Status:     domain.RentalStatusPending,
	}
	b.rentals[rental.ID] = rental
	car.Available = false
	writeJSON(w, http.StatusCreated, rental)
}

func (b *MockBackend) handleMyRentals(w http.ResponseWriter, r *http.Request) {
	caller, ok := b.requireUser(w, r)
	if !ok {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	writeJSON(w, http.StatusOK, sortedRentals(b.rentals, func(rt *domain.Rental) bool { return rt.UserID == caller.ID }))
}

func (b *MockBackend) handleAllRentals(w http.ResponseWriter, r *http.Request) {
	if _, ok := b.requireAdmin(w, r); !ok {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	writeJSON(w, http.StatusOK, sortedRentals(b.rentals, nil))
}

// handleUpdateStatus mirrors the server: it does not police transitions,
// restarts the clock on acceptance, and frees the car on finish.
func (b *MockBackend) handleUpdateStatus(w http.ResponseWriter, r *http.Request) {
	if _, ok := b.requireAdmin(w, r); !ok {
		return
	}
	id, ok := pathID(r, "id")
	if !ok {
		writeDetail(w, http.StatusUnprocessableEntity, "Invalid rental id")
		return
	}
	var upd domain.StatusUpdate
	if err := decodeBody(r, &upd); err != nil || !upd.Status.IsValid() {
		writeMissing(w, "status")
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	rental, found := b.rentals[id]
	if !found {
		writeDetail(w, http.StatusNotFound, "Rental not found")
		return
	}
	car, found := b.cars[rental.CarID]
	if !found {
		writeDetail(w, http.StatusNotFound, "Car not found")
		return
	}

	if upd.Status == domain.RentalStatusOngoing && rental.Status == domain.RentalStatusPending {
		duration := rental.EndDate.Sub(rental.StartDate.Time)
		started := b.now().UTC()
		rental.StartDate = domain.Timestamp{Time: started}
		rental.EndDate = domain.Timestamp{Time: started.Add(duration)}
		rental.TotalPrice = float64(billableDays(duration)) * car.PricePerDay
	}
	if upd.Status == domain.RentalStatusFinished {
		car.Available = true
	}
	rental.Status = upd.Status
	writeJSON(w, http.StatusOK, rental)
}
