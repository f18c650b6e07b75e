package form

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/Ved-panchal/fcarena-2.0/shared/models"
)

// ContactLength is the exact number of characters a contact number must have
const ContactLength = 10

var (
	ErrInvalidDraft = errors.New("booking draft is invalid")
	ErrUnknownField = errors.New("unknown form field")
)

// Alert texts shown next to the offending field
const (
	AlertName     = "Please Enter Name"
	AlertContact  = "Please Enter a Valid Contact Number"
	AlertDate     = "Please Select a Date"
	AlertTimeSlot = "Please Select a Time Slot"
)

// State holds the booking form: the draft, validation alerts and the slots
// available for the selected date.
type State struct {
	Draft          models.BookingDraft         `json:"draft"`
	Alerts         map[models.FormField]string `json:"alerts,omitempty"`
	AvailableSlots []models.AvailableSlot      `json:"availableSlots"`
}

// New returns an empty form
func New() *State {
	return &State{}
}

// Set changes one field. Changing a field clears its alert.
func (s *State) Set(field models.FormField, value string) error {
	switch field {
	case models.FieldName:
		s.Draft.Name = value
	case models.FieldContact:
		s.Draft.Contact = value
	case models.FieldDate:
		s.Draft.Date = value
	case models.FieldTimeSlot:
		s.SelectTimeSlot(value)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownField, field)
	}
	delete(s.Alerts, field)
	return nil
}

// SetAvailableSlots replaces the slots offered for the selected date
func (s *State) SetAvailableSlots(slots []models.AvailableSlot) {
	s.AvailableSlots = slots
}

// SelectTimeSlot sets the time slot and, when the time matches an available
// slot exactly, its price. An unknown time leaves the price untouched.
func (s *State) SelectTimeSlot(time string) bool {
	s.Draft.TimeSlot = time
	for _, slot := range s.AvailableSlots {
		if slot.Time == time {
			s.Draft.Price = slot.Price
			return true
		}
	}
	return false
}

// SlotOffered reports whether the drafted time slot is offered for the
// selected date at the drafted price. A slot kept across a date change, or a
// time that never matched, is not.
func (s *State) SlotOffered() bool {
	for _, slot := range s.AvailableSlots {
		if slot.Time == s.Draft.TimeSlot {
			return slot.Price == s.Draft.Price
		}
	}
	return false
}

// Validate reports the alert for every field that fails validation
func (s *State) Validate() map[models.FormField]string {
	alerts := make(map[models.FormField]string)
	if utf8.RuneCountInString(s.Draft.Contact) != ContactLength {
		alerts[models.FieldContact] = AlertContact
	}
	if strings.TrimSpace(s.Draft.Name) == "" {
		alerts[models.FieldName] = AlertName
	}
	if s.Draft.Date == "" {
		alerts[models.FieldDate] = AlertDate
	}
	if s.Draft.TimeSlot == "" || !s.SlotOffered() {
		alerts[models.FieldTimeSlot] = AlertTimeSlot
	}
	return alerts
}

// Submit validates the draft. On failure the alerts stay set until the
// offending fields change.
func (s *State) Submit() (models.BookingDraft, error) {
	alerts := s.Validate()
	if len(alerts) > 0 {
		s.Alerts = alerts
		return models.BookingDraft{}, ErrInvalidDraft
	}
	s.Alerts = nil
	return s.Draft, nil
}

// ShowAlert reports whether any validation alert is pending
func (s *State) ShowAlert() bool {
	return len(s.Alerts) > 0
}

// Reset clears every field
func (s *State) Reset() {
	s.Draft = models.BookingDraft{}
	s.Alerts = nil
	s.AvailableSlots = nil
}

// Clone returns a deep copy, safe to hand out of the workflow
func (s *State) Clone() *State {
	c := &State{Draft: s.Draft}
	if len(s.Alerts) > 0 {
		c.Alerts = make(map[models.FormField]string, len(s.Alerts))
		for k, v := range s.Alerts {
			c.Alerts[k] = v
		}
	}
	if s.AvailableSlots != nil {
		c.AvailableSlots = append([]models.AvailableSlot(nil), s.AvailableSlots...)
	}
	return c
}

// Record derives the booking record for a submitted draft
func Record(d models.BookingDraft) models.BookingRecord {
	return models.BookingRecord{
		Name:     d.Name,
		Contact:  d.Contact,
		Date:     d.Date,
		TimeSlot: d.TimeSlot,
	}
}

// Confirmation builds the notification payload for a submitted draft.
// The notification service names the recipient field "email"; it receives
// the contact number.
func Confirmation(d models.BookingDraft) models.ConfirmationRequest {
	return models.ConfirmationRequest{
		Name:     d.Name,
		Email:    d.Contact,
		Message:  fmt.Sprintf("Booking Details:\nName: %s\nContact: %s\nDate: %s\nTime Slot: %s", d.Name, d.Contact, d.Date, d.TimeSlot),
		Date:     d.Date,
		TimeSlot: d.TimeSlot,
	}
}
