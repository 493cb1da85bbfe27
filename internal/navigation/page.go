// Package navigation models the client's screens as a closed set of page
// variants and decides which screen a session may actually see.
package navigation

import (
	"fmt"
	"strconv"
	"strings"
)

type PageKind int

const (
	KindHome PageKind = iota
	KindLogin
	KindRegister
	KindVehicles
	KindOrder
	KindMyRentals
	KindProfile
	KindUpdateProfile
	KindAdminCars
	KindAdminRentals
)

var kindNames = map[PageKind]string{
	KindHome:          "home",
	KindLogin:         "login",
	KindRegister:      "register",
	KindVehicles:      "vehicles",
	KindOrder:         "order",
	KindMyRentals:     "my-rentals",
	KindProfile:       "profile",
	KindUpdateProfile: "update-profile",
	KindAdminCars:     "admin/cars",
	KindAdminRentals:  "admin/rentals",
}

func (k PageKind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("PageKind(%d)", int(k))
}

// Page is implemented only by the page structs in this package.
type Page interface {
	Kind() PageKind
	Path() string
	isPage()
}

type (
	Home          struct{}
	Login         struct{}
	Register      struct{}
	Vehicles      struct{}
	MyRentals     struct{}
	Profile       struct{}
	UpdateProfile struct{}
	AdminCars     struct{}
	AdminRentals  struct{}
)

// Order is the booking screen for one car
type Order struct {
	CarID int32
}

func (Home) Kind() PageKind          { return KindHome }
func (Login) Kind() PageKind         { return KindLogin }
func (Register) Kind() PageKind      { return KindRegister }
func (Vehicles) Kind() PageKind      { return KindVehicles }
func (Order) Kind() PageKind         { return KindOrder }
func (MyRentals) Kind() PageKind     { return KindMyRentals }
func (Profile) Kind() PageKind       { return KindProfile }
func (UpdateProfile) Kind() PageKind { return KindUpdateProfile }
func (AdminCars) Kind() PageKind     { return KindAdminCars }
func (AdminRentals) Kind() PageKind  { return KindAdminRentals }

func (p Home) Path() string          { return p.Kind().String() }
func (p Login) Path() string         { return p.Kind().String() }
func (p Register) Path() string      { return p.Kind().String() }
func (p Vehicles) Path() string      { return p.Kind().String() }
func (p MyRentals) Path() string     { return p.Kind().String() }
func (p Profile) Path() string       { return p.Kind().String() }
func (p UpdateProfile) Path() string { return p.Kind().String() }
func (p AdminCars) Path() string     { return p.Kind().String() }
func (p AdminRentals) Path() string  { return p.Kind().String() }
func (p Order) Path() string         { return fmt.Sprintf("order/%d", p.CarID) }

func (Home) isPage()          {}
func (Login) isPage()         {}
func (Register) isPage()      {}
func (Vehicles) isPage()      {}
func (Order) isPage()         {}
func (MyRentals) isPage()     {}
func (Profile) isPage()       {}
func (UpdateProfile) isPage() {}
func (AdminCars) isPage()     {}
func (AdminRentals) isPage()  {}

var simplePages = map[string]Page{
	"":               Home{},
	"home":           Home{},
	"login":          Login{},
	"register":       Register{},
	"vehicles":       Vehicles{},
	"my-rentals":     MyRentals{},
	"profile":        Profile{},
	"update-profile": UpdateProfile{},
	"admin":          AdminCars{},
	"admin/cars":     AdminCars{},
	"admin/rentals":  AdminRentals{},
}

// Parse turns a path such as "order/12" into its page variant
func Parse(path string) (Page, error) {
	path = strings.Trim(strings.TrimSpace(path), "/")
	if p, ok := simplePages[path]; ok {
		return p, nil
	}
	if rest, ok := strings.CutPrefix(path, "order/"); ok {
		id, err := strconv.ParseInt(rest, 10, 32)
		if err != nil || id <= 0 {
			return nil, fmt.Errorf("invalid car id in %q", path)
		}
		return Order{CarID: int32(id)}, nil
	}
	return nil, fmt.Errorf("unknown page %q", path)
}
