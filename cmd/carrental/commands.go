package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"strconv"

	"car-rental-client/internal/domain"
	"car-rental-client/internal/navigation"
	"car-rental-client/internal/service"
)

type command struct {
	summary string
	// page is the screen the command belongs to; Guard decides whether the
	// current session may use it.
	page func(args []string) navigation.Page
	run  func(ctx context.Context, a *app, args []string) error
}

func fixed(p navigation.Page) func([]string) navigation.Page {
	return func([]string) navigation.Page { return p }
}

var commands = map[string]command{
	"ping":           {"check that the API answers", fixed(navigation.Home{}), runPing},
	"register":       {"create a customer account", fixed(navigation.Register{}), runRegister},
	"login":          {"sign in and remember the session", fixed(navigation.Login{}), runLogin},
	"logout":         {"forget the stored session", fixed(navigation.Home{}), runLogout},
	"whoami":         {"show the signed-in user", fixed(navigation.Home{}), runWhoAmI},
	"cars":           {"list cars", fixed(navigation.Vehicles{}), runCars},
	"quote":          {"price a rental: -car ID -start DATE -end DATE", orderPage, runQuote},
	"book":           {"book a car: -car ID -start DATE -end DATE", orderPage, runBook},
	"my-rentals":     {"list your rentals", fixed(navigation.MyRentals{}), runMyRentals},
	"profile":        {"show your profile", fixed(navigation.Profile{}), runProfile},
	"update-profile": {"change profile fields", fixed(navigation.UpdateProfile{}), runUpdateProfile},
	"admin-cars":     {"manage the fleet: list|add|update|delete|availability", fixed(navigation.AdminCars{}), runAdminCars},
	"rentals":        {"list all rentals", fixed(navigation.AdminRentals{}), runRentals},
	"accept":         {"accept a pending rental: -id ID", fixed(navigation.AdminRentals{}), actionRunner("accept")},
	"decline":        {"decline a pending rental: -id ID", fixed(navigation.AdminRentals{}), actionRunner("decline")},
	"finish":         {"finish an ongoing rental: -id ID", fixed(navigation.AdminRentals{}), actionRunner("finish")},
	"transitions":    {"show recent status changes from the journal", fixed(navigation.AdminRentals{}), runTransitions},
}

// orderPage reads -car early so the guard sees the real order page
func orderPage(args []string) navigation.Page {
	fs := flag.NewFlagSet("order", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	carID := fs.Int("car", 0, "")
	fs.String("start", "", "")
	fs.String("end", "", "")
	_ = fs.Parse(args)
	return navigation.Order{CarID: int32(*carID)}
}

func (a *app) dispatch(ctx context.Context, name string, args []string) error {
	cmd, ok := commands[name]
	if !ok {
		return fmt.Errorf("unknown command %q", name)
	}

	target := cmd.page(args)
	if shown := navigation.Guard(target, a.sess); shown.Kind() != target.Kind() {
		if shown.Kind() == navigation.KindLogin {
			return domain.NewNoSessionError()
		}
		return &domain.ValidationError{
			Reason:  domain.ReasonWrongRole,
			Message: fmt.Sprintf("%s is not available to your account; try %s", target.Path(), shown.Path()),
		}
	}
	return cmd.run(ctx, a, args)
}

func newFlags(name string) *flag.FlagSet {
	return flag.NewFlagSet(name, flag.ContinueOnError)
}

func setFlags(fs *flag.FlagSet) map[string]bool {
	set := make(map[string]bool)
	fs.Visit(func(f *flag.Flag) { set[f.Name] = true })
	return set
}

func invalidInput(format string, args ...any) error {
	return &domain.ValidationError{Reason: domain.ReasonInvalidInput, Message: fmt.Sprintf(format, args...)}
}

func runPing(ctx context.Context, a *app, args []string) error {
	if err := a.client.Ping(ctx); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "API reachable at %s\n", a.client.BaseURL())
	return nil
}

func runRegister(ctx context.Context, a *app, args []string) error {
	fs := newFlags("register")
	var req domain.RegisterRequest
	fs.StringVar(&req.Username, "username", "", "username")
	fs.StringVar(&req.Email, "email", "", "email address")
	fs.StringVar(&req.Password, "password", "", "password")
	fs.StringVar(&req.FullName, "full-name", "", "full name")
	fs.StringVar(&req.PhoneNumber, "phone", "", "phone number")
	fs.StringVar(&req.Address, "address", "", "address")
	if err := fs.Parse(args); err != nil {
		return err
	}

	u, err := a.auth.Register(ctx, req)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Registered %s (id %d). Sign in with: carrental login -username %s\n", u.Username, u.ID, u.Username)
	return nil
}

func runLogin(ctx context.Context, a *app, args []string) error {
	fs := newFlags("login")
	username := fs.String("username", "", "username")
	password := fs.String("password", "", "password")
	if err := fs.Parse(args); err != nil {
		return err
	}

	sess, landing, err := a.auth.Login(ctx, *username, *password)
	if err != nil {
		return err
	}
	a.sess = sess
	fmt.Fprintf(a.out, "Signed in as %s (%s)\nNext: %s\n", sess.Username(), sess.Role(), landing.Path())
	return nil
}

func runLogout(ctx context.Context, a *app, args []string) error {
	landing, err := a.auth.Logout(ctx)
	if err != nil {
		return err
	}
	a.sess = nil
	fmt.Fprintf(a.out, "Signed out\nNext: %s\n", landing.Path())
	return nil
}

func runWhoAmI(ctx context.Context, a *app, args []string) error {
	if !a.sess.Authenticated() {
		fmt.Fprintln(a.out, "Not signed in")
		return nil
	}
	printSession(a.out, a.sess)
	return nil
}

func runCars(ctx context.Context, a *app, args []string) error {
	cars, err := a.cars.ListCars(ctx)
	if err != nil {
		return err
	}
	printCars(a.out, cars)
	return nil
}

type orderFlags struct {
	carID      int
	start, end string
}

func parseOrder(name string, args []string) (*orderFlags, error) {
	fs := newFlags(name)
	var o orderFlags
	fs.IntVar(&o.carID, "car", 0, "car id")
	fs.StringVar(&o.start, "start", "", "start date, YYYY-MM-DD")
	fs.StringVar(&o.end, "end", "", "end date, YYYY-MM-DD")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if o.carID <= 0 {
		return nil, invalidInput("-car is required")
	}
	return &o, nil
}

func runQuote(ctx context.Context, a *app, args []string) error {
	o, err := parseOrder("quote", args)
	if err != nil {
		return err
	}
	car, err := a.cars.GetCar(ctx, int32(o.carID))
	if err != nil {
		return err
	}
	q := a.booking.Quote(car, o.start, o.end)
	printQuote(a.out, car, q)
	return nil
}

func runBook(ctx context.Context, a *app, args []string) error {
	o, err := parseOrder("book", args)
	if err != nil {
		return err
	}
	car, err := a.cars.GetCar(ctx, int32(o.carID))
	if err != nil {
		return err
	}
	if !car.Available {
		return invalidInput("%s is not available", car.DisplayName())
	}

	res, err := a.booking.Submit(ctx, a.sess, car, o.start, o.end)
	if err != nil {
		if reason, ok := domain.ReasonOf(err); ok && reason == domain.ReasonIncompleteProfile {
			return fmt.Errorf("%w (run: carrental update-profile -full-name \"Your Name\")", err)
		}
		return err
	}
	printQuote(a.out, car, res.Quote)
	fmt.Fprintf(a.out, "%s\nNext: %s\n", res.Confirmation(), res.Next.Path())
	return nil
}

func runMyRentals(ctx context.Context, a *app, args []string) error {
	views, err := a.rentals.MyRentals(ctx, a.sess)
	if err != nil {
		return err
	}
	printRentalViews(a.out, views, false)
	return nil
}

func runProfile(ctx context.Context, a *app, args []string) error {
	u, err := a.users.GetProfile(ctx, a.sess)
	if err != nil {
		return err
	}
	printProfile(a.out, u)
	return nil
}

func runUpdateProfile(ctx context.Context, a *app, args []string) error {
	fs := newFlags("update-profile")
	username := fs.String("username", "", "new username")
	email := fs.String("email", "", "new email")
	fullName := fs.String("full-name", "", "new full name")
	phone := fs.String("phone", "", "new phone number")
	address := fs.String("address", "", "new address")
	if err := fs.Parse(args); err != nil {
		return err
	}

	current, err := a.users.GetProfile(ctx, a.sess)
	if err != nil {
		return err
	}
	edited := current.Editable()
	set := setFlags(fs)
	if set["username"] {
		edited.Username = *username
	}
	if set["email"] {
		edited.Email = *email
	}
	if set["full-name"] {
		edited.FullName = *fullName
	}
	if set["phone"] {
		edited.PhoneNumber = *phone
	}
	if set["address"] {
		edited.Address = *address
	}

	u, err := a.users.UpdateProfile(ctx, a.sess, current, edited)
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Profile updated")
	printProfile(a.out, u)
	return nil
}

func runAdminCars(ctx context.Context, a *app, args []string) error {
	if len(args) == 0 {
		return invalidInput("admin-cars needs an action: list, add, update, delete or availability")
	}
	action, rest := args[0], args[1:]

	fs := newFlags("admin-cars " + action)
	id := fs.Int("id", 0, "car id")
	brand := fs.String("brand", "", "brand")
	model := fs.String("model", "", "model")
	year := fs.Int("year", 0, "model year")
	price := fs.Float64("price", 0, "price per day")
	image := fs.String("image", "", "image URL")
	description := fs.String("description", "", "description")
	available := fs.Bool("available", true, "whether the car can be booked")
	if err := fs.Parse(rest); err != nil {
		return err
	}
	set := setFlags(fs)

	switch action {
	case "list":
		cars, err := a.cars.ListCars(ctx)
		if err != nil {
			return err
		}
		printCars(a.out, cars)
		return nil

	case "add":
		in := domain.CarInput{Brand: *brand, Model: *model, Year: *year, PricePerDay: *price, ImageURL: *image, Description: *description}
		if set["available"] {
			in.Available = available
		}
		car, err := a.cars.AddCar(ctx, a.sess, in)
		if err != nil {
			return err
		}
		fmt.Fprintf(a.out, "Added car %d: %s\n", car.ID, car.DisplayName())
		return nil

	case "update":
		if *id <= 0 {
			return invalidInput("-id is required")
		}
		car, err := a.cars.GetCar(ctx, int32(*id))
		if err != nil {
			return err
		}
		in := domain.CarInput{
			Brand: car.Brand, Model: car.Model, Year: car.Year, PricePerDay: car.PricePerDay,
			ImageURL: car.ImageURL, Description: car.Description,
		}
		if set["brand"] {
			in.Brand = *brand
		}
		if set["model"] {
			in.Model = *model
		}
		if set["year"] {
			in.Year = *year
		}
		if set["price"] {
			in.PricePerDay = *price
		}
		if set["image"] {
			in.ImageURL = *image
		}
		if set["description"] {
			in.Description = *description
		}
		if set["available"] {
			in.Available = available
		}
		updated, err := a.cars.UpdateCar(ctx, a.sess, car.ID, in)
		if err != nil {
			return err
		}
		fmt.Fprintf(a.out, "Updated car %d: %s\n", updated.ID, updated.DisplayName())
		return nil

	case "delete":
		if *id <= 0 {
			return invalidInput("-id is required")
		}
		if err := a.cars.DeleteCar(ctx, a.sess, int32(*id)); err != nil {
			return err
		}
		fmt.Fprintf(a.out, "Deleted car %d\n", *id)
		return nil

	case "availability":
		if *id <= 0 || !set["available"] {
			return invalidInput("-id and -available are required")
		}
		car, err := a.cars.SetAvailability(ctx, a.sess, int32(*id), *available)
		if err != nil {
			return err
		}
		fmt.Fprintf(a.out, "Car %d available: %t\n", car.ID, car.Available)
		return nil
	}
	return invalidInput("unknown admin-cars action %q", action)
}

func runRentals(ctx context.Context, a *app, args []string) error {
	views, err := a.rentals.History(ctx, a.sess)
	if err != nil {
		return err
	}
	printRentalViews(a.out, views, true)
	return nil
}

func actionRunner(action string) func(context.Context, *app, []string) error {
	return func(ctx context.Context, a *app, args []string) error {
		fs := newFlags(action)
		id := fs.Int("id", 0, "rental id")
		if err := fs.Parse(args); err != nil {
			return err
		}
		if *id <= 0 && fs.NArg() > 0 {
			n, err := strconv.Atoi(fs.Arg(0))
			if err != nil {
				return invalidInput("bad rental id %q", fs.Arg(0))
			}
			*id = n
		}
		if *id <= 0 {
			return invalidInput("-id is required")
		}

		rental, err := a.rentals.ApplyAction(ctx, a.sess, int32(*id), action)
		if err != nil {
			var vErr *domain.ValidationError
			if errors.As(err, &vErr) && vErr.Reason == domain.ReasonInvalidTransition {
				return fmt.Errorf("cannot %s rental %d: %w", action, *id, err)
			}
			return err
		}
		fmt.Fprintf(a.out, "%s (rental %d is now %s)\n", service.StatusMessage(rental.Status), rental.ID, rental.Status)
		return nil
	}
}

func runTransitions(ctx context.Context, a *app, args []string) error {
	fs := newFlags("transitions")
	limit := fs.Int("limit", 20, "number of entries")
	if err := fs.Parse(args); err != nil {
		return err
	}
	entries, err := a.rentals.RecentTransitions(ctx, *limit)
	if err != nil {
		return err
	}
	printTransitions(a.out, entries)
	return nil
}
