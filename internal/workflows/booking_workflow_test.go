package workflows

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/Ved-panchal/fcarena-2.0/internal/activities"
	"github.com/Ved-panchal/fcarena-2.0/internal/activities/fakes"
	"github.com/Ved-panchal/fcarena-2.0/internal/checkout"
	"github.com/Ved-panchal/fcarena-2.0/internal/form"
	"github.com/Ved-panchal/fcarena-2.0/internal/notify"
	"github.com/Ved-panchal/fcarena-2.0/shared/models"
	"github.com/stretchr/testify/suite"
	"go.temporal.io/sdk/testsuite"
)

type BookingSessionWorkflowTestSuite struct {
	suite.Suite
	testsuite.WorkflowTestSuite
	env *testsuite.TestWorkflowEnvironment

	slots    *fakes.Slots
	orders   *fakes.Orders
	verifier *fakes.Verifier
	bookings *fakes.Bookings
	notifier *fakes.Notifier
	session  *fakes.SessionEvents
}

func (s *BookingSessionWorkflowTestSuite) SetupTest() {
	s.env = s.NewTestWorkflowEnvironment()

	s.slots = &fakes.Slots{ByDate: map[string][]models.AvailableSlot{
		"2024-05-01": {{Time: "17:00", Price: 400}, {Time: "18:00", Price: 500}},
		"2024-05-02": {{Time: "06:00", Price: 300}},
	}}
	s.orders = &fakes.Orders{Key: "rzp_test_key"}
	s.verifier = &fakes.Verifier{Success: true}
	s.bookings = &fakes.Bookings{}
	s.notifier = &fakes.Notifier{}
	s.session = &fakes.SessionEvents{}

	s.env.RegisterWorkflow(BookingSessionWorkflow)
	s.env.RegisterActivity(activities.NewActivities(activities.Deps{
		Slots:     s.slots,
		Orders:    s.orders,
		Verifier:  s.verifier,
		Bookings:  s.bookings,
		Notifier:  s.notifier,
		Launcher:  checkout.NewLauncher(s.session, nil),
		Presenter: checkout.NewPresenter(s.session, nil),
		Branding:  checkout.Branding{Name: "FC Arena", PublicBaseURL: "https://fcarena.in"},
	}))
}

func TestBookingSessionWorkflowTestSuite(t *testing.T) {
	suite.Run(t, new(BookingSessionWorkflowTestSuite))
}

func (s *BookingSessionWorkflowTestSuite) at(d time.Duration, fn func()) {
	s.env.RegisterDelayedCallback(fn, d)
}

func (s *BookingSessionWorkflowTestSuite) setField(field models.FormField, value string) {
	s.env.SignalWorkflow(models.SignalUpdateForm, models.SetFormFieldRequest{Field: field, Value: value})
}

// fillValidForm schedules the happy-path form entries between 1s and 4s
func (s *BookingSessionWorkflowTestSuite) fillValidForm() {
	s.at(time.Second, func() { s.setField(models.FieldName, "Asha") })
	s.at(2*time.Second, func() { s.setField(models.FieldContact, "9876543210") })
	s.at(3*time.Second, func() { s.setField(models.FieldDate, "2024-05-01") })
	s.at(4*time.Second, func() { s.setField(models.FieldTimeSlot, "18:00") })
}

func (s *BookingSessionWorkflowTestSuite) submitAt(d time.Duration) {
	s.at(d, func() { s.env.SignalWorkflow(models.SignalSubmit, nil) })
}

func (s *BookingSessionWorkflowTestSuite) payAt(d time.Duration, orderID string) {
	s.at(d, func() {
		s.env.SignalWorkflow(models.SignalPaymentCompleted, models.PaymentResult{
			PaymentID: "pay_1",
			OrderID:   orderID,
			Signature: "sig",
		})
	})
}

func (s *BookingSessionWorkflowTestSuite) run() *SessionResult {
	s.env.ExecuteWorkflow(BookingSessionWorkflow, SessionInput{SessionID: "s-1"})
	s.Require().True(s.env.IsWorkflowCompleted())
	s.Require().NoError(s.env.GetWorkflowError())

	var result SessionResult
	s.Require().NoError(s.env.GetWorkflowResult(&result))
	return &result
}

func (s *BookingSessionWorkflowTestSuite) state() SessionState {
	val, err := s.env.QueryWorkflow(models.QueryGetState)
	s.Require().NoError(err)
	var st SessionState
	s.Require().NoError(val.Get(&st))
	return st
}

func (s *BookingSessionWorkflowTestSuite) TestHappyPath() {
	var awaiting SessionState
	s.fillValidForm()
	s.submitAt(5 * time.Second)
	s.at(6*time.Second, func() { awaiting = s.state() })
	s.payAt(7*time.Second, "order_1")

	result := s.run()

	s.Equal(models.SessionStatusAwaitingPayment, awaiting.Status)
	s.Require().NotNil(awaiting.Checkout)
	s.Equal("order_1", awaiting.Checkout.OrderID)
	s.Equal(500.0, awaiting.Checkout.Amount)
	s.Equal(models.CurrencyINR, awaiting.Checkout.Currency)
	s.Equal("Asha", awaiting.Checkout.Prefill.Name)
	s.Equal("9876543210", awaiting.Checkout.Prefill.Contact)
	s.NotNil(awaiting.PaymentDeadline)

	s.Equal([]float64{500}, s.orders.Amounts)
	s.Equal([]models.BookingRecord{{
		ID: "booking-1", Name: "Asha", Contact: "9876543210", Date: "2024-05-01", TimeSlot: "18:00",
	}}, s.bookings.All())

	sent := s.notifier.All()
	s.Require().Len(sent, 1)
	s.Equal("9876543210", sent[0].Email)
	s.Equal("Booking Details:\nName: Asha\nContact: 9876543210\nDate: 2024-05-01\nTime Slot: 18:00", sent[0].Message)

	st := s.state()
	s.Equal(models.SessionStatusSucceeded, st.Status)
	s.Equal(models.BookingDraft{}, st.Form.Draft)
	s.Empty(st.Form.AvailableSlots)
	s.Require().NotNil(st.Booking)
	s.Equal("booking-1", st.Booking.ID)

	notice := st.LatestNotice()
	s.Require().NotNil(notice)
	s.Equal("Booking Successful", notice.Title)
	s.Equal("Your booking has been confirmed.", notice.Description)
	s.Equal(models.NoticeSuccess, notice.Status)
	s.Equal(int64(7000), notice.DurationMS)

	s.Equal(1, result.Submissions)
	s.Equal(1, result.Bookings)
	s.Equal("idle", result.CloseReason)
}

func (s *BookingSessionWorkflowTestSuite) TestDateChangeLoadsSlots() {
	var first, second SessionState
	s.at(time.Second, func() { s.setField(models.FieldDate, "2024-05-01") })
	s.at(2*time.Second, func() { s.setField(models.FieldTimeSlot, "17:00") })
	s.at(3*time.Second, func() { first = s.state() })
	s.at(4*time.Second, func() { s.setField(models.FieldDate, "2024-05-02") })
	s.at(5*time.Second, func() { second = s.state() })

	s.run()

	s.Len(first.Form.AvailableSlots, 2)
	s.Equal(400.0, first.Form.Draft.Price)

	s.Equal([]models.AvailableSlot{{Time: "06:00", Price: 300}}, second.Form.AvailableSlots)
	s.Equal("17:00", second.Form.Draft.TimeSlot)
	s.Equal(400.0, second.Form.Draft.Price)
	s.Equal([]string{"2024-05-01", "2024-05-02"}, s.slots.Calls)
}

func (s *BookingSessionWorkflowTestSuite) TestInvalidContactMakesNoRemoteCalls() {
	s.at(time.Second, func() { s.setField(models.FieldName, "Asha") })
	s.at(2*time.Second, func() { s.setField(models.FieldContact, "12345") })
	s.at(3*time.Second, func() { s.setField(models.FieldDate, "2024-05-01") })
	s.at(4*time.Second, func() { s.setField(models.FieldTimeSlot, "18:00") })
	s.submitAt(5 * time.Second)

	result := s.run()

	st := s.state()
	s.Equal(models.SessionStatusIdle, st.Status)
	s.Equal(map[models.FormField]string{models.FieldContact: form.AlertContact}, st.Form.Alerts)
	s.Equal(0, s.orders.KeyCalls)
	s.Equal(0, s.orders.OrderCount())
	s.Empty(st.Notices)
	s.Equal(0, result.Submissions)
}

func (s *BookingSessionWorkflowTestSuite) TestUnofferedTimeSlotMakesNoRemoteCalls() {
	s.at(time.Second, func() { s.setField(models.FieldName, "Asha") })
	s.at(2*time.Second, func() { s.setField(models.FieldContact, "9876543210") })
	s.at(3*time.Second, func() { s.setField(models.FieldDate, "2024-05-01") })
	s.at(4*time.Second, func() { s.setField(models.FieldTimeSlot, "25:00") })
	s.submitAt(5 * time.Second)

	result := s.run()

	st := s.state()
	s.Equal(models.SessionStatusIdle, st.Status)
	s.Equal(map[models.FormField]string{models.FieldTimeSlot: form.AlertTimeSlot}, st.Form.Alerts)
	s.Equal(0, s.orders.KeyCalls)
	s.Empty(s.orders.Amounts)
	s.Equal(0, result.Submissions)
}

func (s *BookingSessionWorkflowTestSuite) TestTimeSlotKeptAcrossDateChangeIsNotOrdered() {
	s.fillValidForm()
	s.at(5*time.Second, func() { s.setField(models.FieldDate, "2024-05-02") })
	s.submitAt(6 * time.Second)

	result := s.run()

	st := s.state()
	s.Equal(models.SessionStatusIdle, st.Status)
	s.Equal("18:00", st.Form.Draft.TimeSlot)
	s.Equal(form.AlertTimeSlot, st.Form.Alerts[models.FieldTimeSlot])
	s.Empty(s.orders.Amounts)
	s.Equal(0, result.Submissions)
}

// deskMailer records what the production notifier hands to the email provider
type deskMailer struct {
	mu   sync.Mutex
	sent []notify.Message
}

func (m *deskMailer) Deliver(_ context.Context, msg notify.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, msg)
	return nil
}

func (s *BookingSessionWorkflowTestSuite) TestConfirmationDeliveredThroughNotifier() {
	mailer := &deskMailer{}
	notifier, err := notify.NewNotifier(mailer, "desk@fcarena.in", nil)
	s.Require().NoError(err)

	s.env = s.NewTestWorkflowEnvironment()
	s.env.RegisterWorkflow(BookingSessionWorkflow)
	s.env.RegisterActivity(activities.NewActivities(activities.Deps{
		Slots:     s.slots,
		Orders:    s.orders,
		Verifier:  s.verifier,
		Bookings:  s.bookings,
		Notifier:  notifier,
		Launcher:  checkout.NewLauncher(s.session, nil),
		Presenter: checkout.NewPresenter(s.session, nil),
		Branding:  checkout.Branding{Name: "FC Arena", PublicBaseURL: "https://fcarena.in"},
	}))

	s.fillValidForm()
	s.submitAt(5 * time.Second)
	s.payAt(6*time.Second, "order_1")

	s.run()

	s.Require().Len(mailer.sent, 1)
	s.Equal("desk@fcarena.in", mailer.sent[0].To)
	s.Contains(mailer.sent[0].Body, "Contact: 9876543210")

	st := s.state()
	s.Equal(models.SessionStatusSucceeded, st.Status)
	s.Require().Len(st.Notices, 1)
	s.Equal(models.NoticeSuccess, st.Notices[0].Status)
}

func (s *BookingSessionWorkflowTestSuite) TestVerificationDeclinedPreservesForm() {
	s.verifier.Success = false
	s.fillValidForm()
	s.submitAt(5 * time.Second)
	s.payAt(6*time.Second, "order_1")

	s.run()

	st := s.state()
	s.Equal(models.SessionStatusFailed, st.Status)
	s.Equal(models.ErrorKindPaymentDeclined, st.FailureKind)
	s.Equal("Asha", st.Form.Draft.Name)
	s.Equal("18:00", st.Form.Draft.TimeSlot)
	s.Empty(s.bookings.All())
	s.Empty(s.notifier.All())

	notice := st.LatestNotice()
	s.Require().NotNil(notice)
	s.Equal("Error", notice.Title)
	s.Equal("Something went wrong. Please try again.", notice.Description)
	s.Equal(models.NoticeError, notice.Status)
}

func (s *BookingSessionWorkflowTestSuite) TestVerificationError() {
	s.verifier.Err = fakes.ErrUnavailable
	s.fillValidForm()
	s.submitAt(5 * time.Second)
	s.payAt(6*time.Second, "order_1")

	s.run()

	st := s.state()
	s.Equal(models.SessionStatusFailed, st.Status)
	s.Equal(models.ErrorKindVerification, st.FailureKind)
	s.Empty(s.bookings.All())
}

func (s *BookingSessionWorkflowTestSuite) TestMismatchedOrderFailsVerification() {
	s.fillValidForm()
	s.submitAt(5 * time.Second)
	s.payAt(6*time.Second, "order_other")

	s.run()

	st := s.state()
	s.Equal(models.ErrorKindVerification, st.FailureKind)
	s.Empty(s.verifier.Results)
	s.Empty(s.bookings.All())
}

func (s *BookingSessionWorkflowTestSuite) TestOrderInitiationFailure() {
	s.orders.KeyErr = fakes.ErrUnavailable
	s.fillValidForm()
	s.submitAt(5 * time.Second)

	s.run()

	st := s.state()
	s.Equal(models.SessionStatusFailed, st.Status)
	s.Equal(models.ErrorKindOrderInitiation, st.FailureKind)
	s.Equal(0, s.orders.OrderCount())
	s.Nil(st.Checkout)
	s.Equal("Asha", st.Form.Draft.Name)

	s.Require().Len(s.session.Notices(), 1)
	s.Equal(models.ErrorKindOrderInitiation, s.session.Notices()[0].Kind)
}

func (s *BookingSessionWorkflowTestSuite) TestCheckoutLaunchFailure() {
	s.fillValidForm()
	s.at(4500*time.Millisecond, func() { s.session.Err = fakes.ErrUnavailable })
	s.submitAt(5 * time.Second)

	s.run()

	st := s.state()
	s.Equal(models.SessionStatusFailed, st.Status)
	s.Equal(models.ErrorKindCheckoutLaunch, st.FailureKind)
	s.Equal(1, s.orders.OrderCount())
}

func (s *BookingSessionWorkflowTestSuite) TestPaymentTimeout() {
	s.fillValidForm()
	s.submitAt(5 * time.Second)
	s.payAt(5*time.Second+DefaultPaymentWindow+time.Minute, "order_1")

	s.run()

	st := s.state()
	s.Equal(models.SessionStatusFailed, st.Status)
	s.Equal(models.ErrorKindPaymentTimeout, st.FailureKind)
	s.Empty(s.verifier.Results)
	s.Empty(s.bookings.All())
}

func (s *BookingSessionWorkflowTestSuite) TestDuplicateSubmitRejected() {
	s.fillValidForm()
	s.submitAt(5 * time.Second)
	s.submitAt(6 * time.Second)
	s.at(7*time.Second, func() { s.setField(models.FieldName, "Ravi") })

	result := s.run()

	s.Equal(1, s.orders.OrderCount())
	s.Equal(1, result.Submissions)
	s.Equal(2, result.Rejected)

	st := s.state()
	s.Equal("Asha", st.Form.Draft.Name)
}

func (s *BookingSessionWorkflowTestSuite) TestDuplicatePaymentCompletionIgnored() {
	s.fillValidForm()
	s.submitAt(5 * time.Second)
	s.payAt(6*time.Second, "order_1")
	s.payAt(7*time.Second, "order_1")

	result := s.run()

	s.Len(s.verifier.Results, 1)
	s.Len(s.bookings.All(), 1)
	s.Len(s.notifier.All(), 1)
	s.Equal(1, result.Bookings)
}

func (s *BookingSessionWorkflowTestSuite) TestResubmitAfterFailure() {
	s.orders.KeyErr = fakes.ErrUnavailable
	s.fillValidForm()
	s.submitAt(5 * time.Second)
	s.at(6*time.Second, func() { s.orders.KeyErr = nil })
	s.submitAt(7 * time.Second)
	s.payAt(8*time.Second, "order_1")

	result := s.run()

	s.Equal(2, result.Submissions)
	s.Equal(1, result.Bookings)
	s.Equal(models.SessionStatusSucceeded, result.FinalStatus)
}

func (s *BookingSessionWorkflowTestSuite) TestRedirectSuccessWithOutstandingOrder() {
	s.fillValidForm()
	s.submitAt(5 * time.Second)
	s.at(6*time.Second, func() {
		s.env.SignalWorkflow(models.SignalRedirectOutcome, models.RedirectOutcomeSignal{PaymentSuccess: true})
	})

	s.run()

	st := s.state()
	s.Equal(models.SessionStatusSucceeded, st.Status)
	s.Empty(s.verifier.Results)
	s.Len(s.bookings.All(), 1)
	s.Equal(1, s.orders.OrderCount())
}

func (s *BookingSessionWorkflowTestSuite) TestRedirectSuccessWithoutOrderIgnored() {
	s.fillValidForm()
	s.at(5*time.Second, func() {
		s.env.SignalWorkflow(models.SignalRedirectOutcome, models.RedirectOutcomeSignal{PaymentSuccess: true})
	})

	s.run()

	st := s.state()
	s.Equal(models.SessionStatusIdle, st.Status)
	s.Empty(s.bookings.All())
	s.Empty(st.Notices)
}

func (s *BookingSessionWorkflowTestSuite) TestRedirectFailure() {
	s.fillValidForm()
	s.submitAt(5 * time.Second)
	s.at(6*time.Second, func() {
		s.env.SignalWorkflow(models.SignalRedirectOutcome, models.RedirectOutcomeSignal{PaymentSuccess: false})
	})
	s.payAt(7*time.Second, "order_1")

	s.run()

	st := s.state()
	s.Equal(models.SessionStatusFailed, st.Status)
	s.Equal(models.ErrorKindRedirectFailure, st.FailureKind)
	s.Empty(s.verifier.Results)
	s.Empty(s.bookings.All())
}

func (s *BookingSessionWorkflowTestSuite) TestStaleRedirectFailureIgnored() {
	s.verifier.Success = false
	s.fillValidForm()
	s.submitAt(5 * time.Second)
	s.payAt(6*time.Second, "order_1")
	s.at(7*time.Second, func() { s.verifier.Success = true })
	s.submitAt(8 * time.Second)
	s.at(9*time.Second, func() {
		s.env.SignalWorkflow(models.SignalRedirectOutcome, models.RedirectOutcomeSignal{OrderID: "order_1"})
	})
	s.payAt(10*time.Second, "order_2")

	result := s.run()

	st := s.state()
	s.Equal(models.SessionStatusSucceeded, st.Status)
	s.Equal(2, result.Submissions)
	s.Equal(1, result.Bookings)
	s.Len(s.verifier.Results, 2)
}

func (s *BookingSessionWorkflowTestSuite) TestRedirectFailureForOutstandingOrder() {
	s.fillValidForm()
	s.submitAt(5 * time.Second)
	s.at(6*time.Second, func() {
		s.env.SignalWorkflow(models.SignalRedirectOutcome, models.RedirectOutcomeSignal{OrderID: "order_1"})
	})

	s.run()

	st := s.state()
	s.Equal(models.SessionStatusFailed, st.Status)
	s.Equal(models.ErrorKindRedirectFailure, st.FailureKind)
}

func (s *BookingSessionWorkflowTestSuite) TestNotificationFailureKeepsSuccess() {
	s.notifier.Err = fakes.ErrUnavailable
	s.fillValidForm()
	s.submitAt(5 * time.Second)
	s.payAt(6*time.Second, "order_1")

	s.run()

	st := s.state()
	s.Equal(models.SessionStatusSucceeded, st.Status)
	s.Len(s.bookings.All(), 1)
	s.Require().Len(st.Notices, 2)
	s.Equal(models.NoticeSuccess, st.Notices[0].Status)
	s.Equal(models.NoticeWarning, st.Notices[1].Status)
	s.Equal(models.ErrorKindNotification, st.Notices[1].Kind)
}

func (s *BookingSessionWorkflowTestSuite) TestPersistenceFailureKeepsSuccess() {
	s.bookings.Err = fakes.ErrUnavailable
	s.fillValidForm()
	s.submitAt(5 * time.Second)
	s.payAt(6*time.Second, "order_1")

	result := s.run()

	st := s.state()
	s.Equal(models.SessionStatusSucceeded, st.Status)
	s.Nil(st.Booking)
	s.Equal(0, result.Bookings)
	s.Len(s.notifier.All(), 1)
	s.Equal(models.ErrorKindPersistence, st.LatestNotice().Kind)
}

func (s *BookingSessionWorkflowTestSuite) TestCloseSession() {
	s.at(time.Second, func() { s.env.SignalWorkflow(models.SignalCloseSession, nil) })

	result := s.run()

	s.Equal("closed", result.CloseReason)
	s.Equal(models.SessionStatusIdle, result.FinalStatus)
}

func (s *BookingSessionWorkflowTestSuite) TestUnknownFieldIgnored() {
	s.at(time.Second, func() { s.setField("email", "asha@example.com") })

	result := s.run()

	s.Equal(0, result.Rejected)
	s.Equal(models.BookingDraft{}, s.state().Form.Draft)
}
