package api

import (
	"strconv"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/corvand/remedy/internal/record"
	"github.com/corvand/remedy/internal/session"
)

// CredentialsRequest is the body of login and signup.
type CredentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Validate checks the credentials shape before any work is done.
func (r CredentialsRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required),
		validation.Field(&r.Password, validation.Required),
	)
}

// TokenResponse is returned after a successful login.
type TokenResponse struct {
	Token    string `json:"token"`
	Identity string `json:"identity"`
}

// SessionResponse is the gate snapshot read by routing chrome.
type SessionResponse = session.State

// validPrice rejects price values that cannot be coerced to a number.
func validPrice(value any) error {
	s, _ := value.(string)
	if s == "" {
		return nil
	}
	if _, err := strconv.ParseFloat(s, 64); err != nil {
		return validation.NewError("validation_price", "must be a number")
	}
	return nil
}

// CreateMedicineRequest carries the scalar fields of a new catalog item;
// the image travels alongside as a multipart file.
type CreateMedicineRequest struct {
	MedicineName string
	Indications  string
	Doses        string
	Weight       string
	Price        string
	Category     string
}

// Validate enforces the upload form contract.
func (r CreateMedicineRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.MedicineName, validation.Required),
		validation.Field(&r.Indications, validation.Required),
		validation.Field(&r.Doses, validation.Required),
		validation.Field(&r.Weight, validation.Required),
		validation.Field(&r.Price, validation.Required, validation.By(validPrice)),
	)
}

// Fields converts the request into the create field set.
func (r CreateMedicineRequest) Fields() record.FieldSet {
	return record.NewMedicineFields(record.Medicine{
		MedicineName: r.MedicineName,
		Indications:  r.Indications,
		Doses:        r.Doses,
		Weight:       r.Weight,
		Price:        record.Scalar(r.Price),
		Category:     r.Category,
	})
}

// UpdateStatusRequest is the restricted order mutation body.
type UpdateStatusRequest struct {
	DeliveryStatus string `json:"deliveryStatus"`
}

// Validate requires a non-empty status.
func (r UpdateStatusRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.DeliveryStatus, validation.Required),
	)
}

// MedicineResponse is one catalog item as served to the view, with the
// display price coerced when possible.
type MedicineResponse struct {
	ID           string `json:"id"`
	MedicineName string `json:"medicineName"`
	Indications  string `json:"indications"`
	Doses        string `json:"doses"`
	Weight       string `json:"weight"`
	Price        string `json:"price"`
	DisplayPrice string `json:"displayPrice"`
	ImageURL     string `json:"imageUrl,omitempty"`
	Category     string `json:"category,omitempty"`
}

func toMedicineResponse(m record.Medicine) MedicineResponse {
	return MedicineResponse{
		ID:           m.ID,
		MedicineName: m.MedicineName,
		Indications:  m.Indications,
		Doses:        m.Doses,
		Weight:       m.Weight,
		Price:        string(m.Price),
		DisplayPrice: record.FormatAmount(m.Price),
		ImageURL:     m.ImageURL,
		Category:     m.Category,
	}
}

// OrderResponse is one order as served to the view.
type OrderResponse struct {
	ID             string             `json:"id"`
	OrderID        string             `json:"orderId"`
	Name           string             `json:"name"`
	Address        string             `json:"address"`
	City           string             `json:"city"`
	PostalCode     string             `json:"postalCode"`
	Country        string             `json:"country"`
	PhoneNumber    string             `json:"phoneNumber"`
	Email          string             `json:"email"`
	PaymentMethod  string             `json:"paymentMethod"`
	TotalAmount    string             `json:"totalAmount"`
	DisplayTotal   string             `json:"displayTotal"`
	DeliveryStatus string             `json:"deliveryStatus"`
	Items          []record.OrderItem `json:"items"`
}

func toOrderResponse(o record.Order) OrderResponse {
	return OrderResponse{
		ID:             o.ID,
		OrderID:        o.OrderID,
		Name:           o.Name,
		Address:        o.Address,
		City:           o.City,
		PostalCode:     o.PostalCode,
		Country:        o.Country,
		PhoneNumber:    o.PhoneNumber,
		Email:          o.Email,
		PaymentMethod:  o.PaymentMethod,
		TotalAmount:    string(o.TotalAmount),
		DisplayTotal:   record.FormatAmount(o.TotalAmount),
		DeliveryStatus: o.DeliveryStatus,
		Items:          o.Items,
	}
}
