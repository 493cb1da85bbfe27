package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"car-rental-client/internal/domain"
	"car-rental-client/internal/service"
	"car-rental-client/internal/session"
)

const displayTime = "2006-01-02 15:04"

func newTable(out io.Writer, header ...string) *tabwriter.Writer {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, strings.Join(header, "\t"))
	return w
}

func printSession(out io.Writer, sess *session.Session) {
	fmt.Fprintf(out, "%s (id %d, %s), token expires %s\n",
		sess.Username(), sess.UserID(), sess.Role(), sess.ExpiresAt().Local().Format(displayTime))
}

func printCars(out io.Writer, cars []domain.Car) {
	if len(cars) == 0 {
		fmt.Fprintln(out, "No cars")
		return
	}
	w := newTable(out, "ID", "CAR", "PER DAY", "AVAILABLE")
	for i := range cars {
		c := &cars[i]
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", c.ID, c.DisplayName(), c.DailyRate(), yesNo(c.Available))
	}
	w.Flush()
}

func printQuote(out io.Writer, car *domain.Car, q domain.Quote) {
	if q.DayCount == 0 {
		fmt.Fprintf(out, "%s: pick a start and end date to see the price\n", car.DisplayName())
		return
	}
	fmt.Fprintf(out, "%s: %d day(s) x %s = %s\n", car.DisplayName(), q.DayCount, car.DailyRate(), q.Total)
}

func printProfile(out io.Writer, u *domain.User) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "Username:\t%s\n", u.Username)
	fmt.Fprintf(w, "Email:\t%s\n", u.Email)
	fmt.Fprintf(w, "Full name:\t%s\n", u.FullName)
	fmt.Fprintf(w, "Phone:\t%s\n", u.PhoneNumber)
	fmt.Fprintf(w, "Address:\t%s\n", u.Address)
	fmt.Fprintf(w, "Role:\t%s\n", u.Role)
	w.Flush()
}

// printRentalViews renders a rental list. The admin variant adds the renter
// and the actions still open for each rental.
func printRentalViews(out io.Writer, views []service.RentalView, admin bool) {
	if len(views) == 0 {
		fmt.Fprintln(out, "No rentals")
		return
	}
	header := []string{"ID", "CAR", "FROM", "TO", "TOTAL", "STATUS", "REMAINING"}
	if admin {
		header = append(header, "RENTER", "ACTIONS")
	}
	w := newTable(out, header...)
	for _, v := range views {
		r := v.Rental
		carName := fmt.Sprintf("car %d", r.CarID)
		if v.Car != nil {
			carName = v.Car.DisplayName()
		}
		remaining := "-"
		if v.Remaining != nil {
			remaining = v.Remaining.String()
		}
		row := []string{
			fmt.Sprint(r.ID),
			carName,
			r.StartDate.Local().Format(displayTime),
			r.EndDate.Local().Format(displayTime),
			domain.MoneyFromFloat(r.TotalPrice).String(),
			string(r.Status),
			remaining,
		}
		if admin {
			renter := fmt.Sprintf("user %d", r.UserID)
			if v.Renter != nil {
				renter = v.Renter.DisplayName()
			}
			row = append(row, renter, actionLabels(r.Status))
		}
		fmt.Fprintln(w, strings.Join(row, "\t"))
	}
	w.Flush()
}

func actionLabels(status domain.RentalStatus) string {
	var labels []string
	for _, next := range status.NextStatuses() {
		labels = append(labels, next.ActionLabel())
	}
	if len(labels) == 0 {
		return "-"
	}
	return strings.Join(labels, ", ")
}

func printTransitions(out io.Writer, entries []domain.Transition) {
	if len(entries) == 0 {
		fmt.Fprintln(out, "No transitions recorded")
		return
	}
	w := newTable(out, "WHEN", "RENTAL", "CAR", "CHANGE", "ACTOR", "CAR RELEASED")
	for _, e := range entries {
		released := "n/a"
		if e.ToStatus.IsTerminal() {
			released = yesNo(e.AvailabilitySynced)
			if e.SyncError != "" {
				released += " (" + e.SyncError + ")"
			}
		}
		fmt.Fprintf(w, "%s\t%d\t%d\t%s -> %s\t%d\t%s\n",
			e.CreatedOn.Local().Format(displayTime), e.RentalID, e.CarID, e.FromStatus, e.ToStatus, e.ActorID, released)
	}
	w.Flush()
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
