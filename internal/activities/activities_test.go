package activities

import (
	"testing"

	"github.com/Ved-panchal/fcarena-2.0/internal/activities/fakes"
	"github.com/Ved-panchal/fcarena-2.0/internal/checkout"
	"github.com/Ved-panchal/fcarena-2.0/internal/metrics"
	"github.com/Ved-panchal/fcarena-2.0/shared/models"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/suite"
	"go.temporal.io/sdk/testsuite"
)

type ActivitiesTestSuite struct {
	suite.Suite
	testsuite.WorkflowTestSuite

	env      *testsuite.TestActivityEnvironment
	slots    *fakes.Slots
	orders   *fakes.Orders
	verifier *fakes.Verifier
	bookings *fakes.Bookings
	notifier *fakes.Notifier
	session  *fakes.SessionEvents
	booked   *fakes.BookingEvents
	acts     *Activities
}

var draft = models.BookingDraft{
	Name:     "Asha",
	Contact:  "9876543210",
	Date:     "2024-05-01",
	TimeSlot: "18:00",
	Price:    500,
}

func (s *ActivitiesTestSuite) SetupTest() {
	s.env = s.NewTestActivityEnvironment()
	s.slots = &fakes.Slots{ByDate: map[string][]models.AvailableSlot{
		"2024-05-01": {{Time: "18:00", Price: 500}},
	}}
	s.orders = &fakes.Orders{Key: "rzp_test_key"}
	s.verifier = &fakes.Verifier{Success: true}
	s.bookings = &fakes.Bookings{}
	s.notifier = &fakes.Notifier{}
	s.session = &fakes.SessionEvents{}
	s.booked = &fakes.BookingEvents{}

	s.acts = NewActivities(Deps{
		Slots:     s.slots,
		Orders:    s.orders,
		Verifier:  s.verifier,
		Bookings:  s.bookings,
		Events:    s.booked,
		Notifier:  s.notifier,
		Launcher:  checkout.NewLauncher(s.session, nil),
		Presenter: checkout.NewPresenter(s.session, nil),
		Branding:  checkout.Branding{Name: "FC Arena", ThemeColor: "#121212", PublicBaseURL: "https://fcarena.in"},
		Metrics:   metrics.NewBookingMetrics(prometheus.NewRegistry()),
	})
	s.env.RegisterActivity(s.acts)
}

func TestActivitiesTestSuite(t *testing.T) {
	suite.Run(t, new(ActivitiesTestSuite))
}

func (s *ActivitiesTestSuite) TestGetAvailableSlots() {
	val, err := s.env.ExecuteActivity(s.acts.GetAvailableSlots, "2024-05-01")
	s.Require().NoError(err)

	var slots []models.AvailableSlot
	s.Require().NoError(val.Get(&slots))
	s.Equal([]models.AvailableSlot{{Time: "18:00", Price: 500}}, slots)
}

func (s *ActivitiesTestSuite) TestGetAvailableSlots_Error() {
	s.slots.Err = fakes.ErrUnavailable
	_, err := s.env.ExecuteActivity(s.acts.GetAvailableSlots, "2024-05-01")
	s.Error(err)
}

func (s *ActivitiesTestSuite) TestFetchPaymentKeyAndOrder() {
	val, err := s.env.ExecuteActivity(s.acts.FetchPaymentKey)
	s.Require().NoError(err)
	var key string
	s.Require().NoError(val.Get(&key))
	s.Equal("rzp_test_key", key)

	val, err = s.env.ExecuteActivity(s.acts.CreatePaymentOrder, 500.0)
	s.Require().NoError(err)
	var order models.PaymentOrder
	s.Require().NoError(val.Get(&order))
	s.Equal("order_1", order.ID)
	s.Equal(500.0, order.Amount)
	s.Equal(models.CurrencyINR, order.Currency)
}

func (s *ActivitiesTestSuite) TestCreatePaymentOrder_Error() {
	s.orders.OrderErr = fakes.ErrUnavailable
	_, err := s.env.ExecuteActivity(s.acts.CreatePaymentOrder, 500.0)
	s.Error(err)
}

func (s *ActivitiesTestSuite) TestLaunchCheckout() {
	in := LaunchCheckoutInput{
		SessionID: "s-1",
		Key:       "rzp_test_key",
		Order:     models.PaymentOrder{ID: "order_1", Amount: 500, Currency: models.CurrencyINR},
		Draft:     draft,
	}
	val, err := s.env.ExecuteActivity(s.acts.LaunchCheckout, in)
	s.Require().NoError(err)

	var opts models.CheckoutOptions
	s.Require().NoError(val.Get(&opts))
	s.Equal("order_1", opts.OrderID)
	s.Equal("Asha", opts.Prefill.Name)
	s.Equal("https://fcarena.in/api/sessions/s-1/payment", opts.CallbackURL)

	s.Require().Len(s.session.Events, 1)
	s.Equal(models.SessionEventCheckoutReady, s.session.Events[0].Type)
}

func (s *ActivitiesTestSuite) TestLaunchCheckout_PublishFails() {
	s.session.Err = fakes.ErrUnavailable
	in := LaunchCheckoutInput{SessionID: "s-1", Key: "k", Order: models.PaymentOrder{ID: "order_1"}, Draft: draft}
	_, err := s.env.ExecuteActivity(s.acts.LaunchCheckout, in)
	s.Error(err)
}

func (s *ActivitiesTestSuite) TestVerifyPayment() {
	result := models.PaymentResult{PaymentID: "pay_1", OrderID: "order_1", Signature: "sig"}

	val, err := s.env.ExecuteActivity(s.acts.VerifyPayment, result)
	s.Require().NoError(err)
	var ok bool
	s.Require().NoError(val.Get(&ok))
	s.True(ok)

	s.verifier.Success = false
	val, err = s.env.ExecuteActivity(s.acts.VerifyPayment, result)
	s.Require().NoError(err)
	s.Require().NoError(val.Get(&ok))
	s.False(ok)

	s.verifier.Err = fakes.ErrUnavailable
	_, err = s.env.ExecuteActivity(s.acts.VerifyPayment, result)
	s.Error(err)
}

func (s *ActivitiesTestSuite) TestPersistBooking() {
	val, err := s.env.ExecuteActivity(s.acts.PersistBooking, PersistBookingInput{SessionID: "s-1", Draft: draft})
	s.Require().NoError(err)

	var rec models.BookingRecord
	s.Require().NoError(val.Get(&rec))
	s.Equal("booking-1", rec.ID)
	s.Equal(models.BookingRecord{ID: "booking-1", Name: "Asha", Contact: "9876543210", Date: "2024-05-01", TimeSlot: "18:00"}, s.bookings.All()[0])
	s.Len(s.booked.Bookings, 1)
}

func (s *ActivitiesTestSuite) TestPersistBooking_EventFailureIgnored() {
	s.booked.Err = fakes.ErrUnavailable
	_, err := s.env.ExecuteActivity(s.acts.PersistBooking, PersistBookingInput{SessionID: "s-1", Draft: draft})
	s.NoError(err)
	s.Len(s.bookings.All(), 1)
}

func (s *ActivitiesTestSuite) TestPersistBooking_StoreFails() {
	s.bookings.Err = fakes.ErrUnavailable
	_, err := s.env.ExecuteActivity(s.acts.PersistBooking, PersistBookingInput{SessionID: "s-1", Draft: draft})
	s.Error(err)
	s.Empty(s.booked.Bookings)
}

func (s *ActivitiesTestSuite) TestSendConfirmation() {
	_, err := s.env.ExecuteActivity(s.acts.SendConfirmation, draft)
	s.Require().NoError(err)

	sent := s.notifier.All()
	s.Require().Len(sent, 1)
	s.Equal("9876543210", sent[0].Email)
	s.Equal("Booking Details:\nName: Asha\nContact: 9876543210\nDate: 2024-05-01\nTime Slot: 18:00", sent[0].Message)
}

func (s *ActivitiesTestSuite) TestSendConfirmation_Error() {
	s.notifier.Err = fakes.ErrUnavailable
	_, err := s.env.ExecuteActivity(s.acts.SendConfirmation, draft)
	s.Error(err)
}

func (s *ActivitiesTestSuite) TestPresentOutcome() {
	notice := checkout.ErrorNotice(models.ErrorKindPaymentTimeout)
	_, err := s.env.ExecuteActivity(s.acts.PresentOutcome, PresentOutcomeInput{SessionID: "s-1", Notice: notice})
	s.Require().NoError(err)

	notices := s.session.Notices()
	s.Require().Len(notices, 1)
	s.Equal(models.ErrorKindPaymentTimeout, notices[0].Kind)
}
