package http

import (
	"net/http"

	"car-rental-client/internal/logger"

	"github.com/gorilla/mux"
)

// Route names. Faults and call counters are keyed by these.
const (
	RouteRegister           = "Register"
	RouteLogin              = "Login"
	RouteGetMe              = "GetMe"
	RouteGetUser            = "GetUser"
	RouteUpdateUser         = "UpdateUser"
	RouteListCars           = "ListCars"
	RouteCreateCar          = "CreateCar"
	RouteUpdateCar          = "UpdateCar"
	RouteDeleteCar          = "DeleteCar"
	RouteSetCarAvailability = "SetCarAvailability"
	RouteCreateRental       = "CreateRental"
	RouteListMyRentals      = "ListMyRentals"
	RouteListRentals        = "ListRentals"
	RouteUpdateRentalStatus = "UpdateRentalStatus"
)

// RegisterMockAPIRoutes registers the rental API endpoints served by b
func RegisterMockAPIRoutes(router *mux.Router, b *MockBackend) {
	router.Use(b.faultMiddleware)

	router.HandleFunc("/users/register", b.handleRegister).Methods("POST").Name(RouteRegister)
	router.HandleFunc("/users/token", b.handleToken).Methods("POST").Name(RouteLogin)
	router.HandleFunc("/users/me", b.handleMe).Methods("GET").Name(RouteGetMe)
	router.HandleFunc("/users/{id:[0-9]+}", b.handleGetUser).Methods("GET").Name(RouteGetUser)
	router.HandleFunc("/users/{id:[0-9]+}", b.handleUpdateUser).Methods("PUT").Name(RouteUpdateUser)

	router.HandleFunc("/cars", b.handleListCars).Methods("GET").Name(RouteListCars)
	router.HandleFunc("/cars", b.handleCreateCar).Methods("POST").Name(RouteCreateCar)
	router.HandleFunc("/cars/{id:[0-9]+}", b.handleUpdateCar).Methods("PUT").Name(RouteUpdateCar)
	router.HandleFunc("/cars/{id:[0-9]+}", b.handleDeleteCar).Methods("DELETE").Name(RouteDeleteCar)
	router.HandleFunc("/cars/{id:[0-9]+}/availability", b.handleSetAvailability).Methods("PUT").Name(RouteSetCarAvailability)

	router.HandleFunc("/rentals", b.handleCreateRental).Methods("POST").Name(RouteCreateRental)
	router.HandleFunc("/rentals", b.handleAllRentals).Methods("GET").Name(RouteListRentals)
	router.HandleFunc("/rentals/me", b.handleMyRentals).Methods("GET").Name(RouteListMyRentals)
	router.HandleFunc("/rentals/{id:[0-9]+}/status", b.handleUpdateStatus).Methods("PATCH").Name(RouteUpdateRentalStatus)
}

// Router returns a fresh router serving only the mock API
func (b *MockBackend) Router() *mux.Router {
	router := mux.NewRouter()
	RegisterMockAPIRoutes(router, b)
	return router
}

func (b *MockBackend) faultMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		route := mux.CurrentRoute(r)
		if route == nil {
			next.ServeHTTP(w, r)
			return
		}
		name := route.GetName()
		logger.Debug("Mock API request", "route", name, "method", r.Method, "path", r.URL.Path, "request_id", r.Header.Get("X-Request-ID"))

		f := b.takeFault(name)
		switch {
		case f == nil:
			next.ServeHTTP(w, r)
		case f.dropConn:
			dropConnection(w)
		default:
			writeDetail(w, f.status, f.detail)
		}
	})
}

// dropConnection closes the socket without writing a response
func dropConnection(w http.ResponseWriter) {
	hj, ok := w.(http.Hijacker)
	if !ok {
		panic(http.ErrAbortHandler)
	}
	conn, _, err := hj.Hijack()
	if err != nil {
		panic(http.ErrAbortHandler)
	}
	conn.Close()
}
