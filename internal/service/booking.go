package service

import (
	"context"
	"fmt"

	"car-rental-client/internal/booking"
	"car-rental-client/internal/domain"
	"car-rental-client/internal/logger"
	"car-rental-client/internal/navigation"
	"car-rental-client/internal/repository"
	"car-rental-client/internal/session"
	"car-rental-client/internal/utils"
)

// BookingResult is what a successful submission hands back to the caller
type BookingResult struct {
	Rental *domain.Rental
	Quote  domain.Quote // advisory; the server's total_price is authoritative
	Next   navigation.Page
}

// Confirmation is the message shown after booking
func (r *BookingResult) Confirmation() string {
	return fmt.Sprintf("Booking created. Rental ID: %d", r.Rental.ID)
}

type bookingService struct {
	rentalRepo repository.RentalRepository
	userRepo   repository.UserRepository
}

func NewBookingService(rentalRepo repository.RentalRepository, userRepo repository.UserRepository) BookingService {
	return &bookingService{rentalRepo: rentalRepo, userRepo: userRepo}
}

// Quote prices the dates at the car's daily rate. Bad or missing dates give a zero quote.
func (s *bookingService) Quote(car *domain.Car, startDate, endDate string) domain.Quote {
	if car == nil {
		return domain.Quote{}
	}
	return utils.QuoteDates(startDate, endDate, car.DailyRate())
}

// Submit runs the eligibility gate and, when it passes, creates the rental.
// The profile is only fetched once the cheaper checks have passed.
func (s *bookingService) Submit(ctx context.Context, sess *session.Session, car *domain.Car, startDate, endDate string) (*BookingResult, error) {
	logger.EnterMethod("bookingService.Submit", "startDate", startDate, "endDate", endDate)
	if car == nil {
		return nil, &domain.ValidationError{Reason: domain.ReasonInvalidInput, Message: "no car selected"}
	}

	q := s.Quote(car, startDate, endDate)
	var profile *domain.User
	if q.DayCount > 0 && sess.IsCustomer() {
		p, err := s.userRepo.GetByID(ctx, sess, sess.UserID())
		if err != nil {
			logger.ExitMethodWithError("bookingService.Submit", err, "carID", car.ID)
			return nil, err
		}
		profile = p
	}

	if d := booking.CanSubmit(q, sess, profile); !d.Allowed {
		err := d.Err()
		logger.ExitMethodWithError("bookingService.Submit", err, "carID", car.ID, "reason", d.Reason)
		return nil, err
	}

	req := domain.CreateRentalRequest{
		CarID:     car.ID,
		StartDate: utils.FormatWireDate(*utils.ParseCalendarDate(startDate)),
		EndDate:   utils.FormatWireDate(*utils.ParseCalendarDate(endDate)),
	}
	rental, err := s.rentalRepo.Create(ctx, sess, req)
	if err != nil {
		logger.ExitMethodWithError("bookingService.Submit", err, "carID", car.ID)
		return nil, err
	}

	logger.ExitMethod("bookingService.Submit", "rentalID", rental.ID, "carID", car.ID, "days", q.DayCount)
	return &BookingResult{Rental: rental, Quote: q, Next: navigation.MyRentals{}}, nil
}
