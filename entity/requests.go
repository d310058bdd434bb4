package entity

import (
	"admitgate/lib/validate"
	"net/http"
)

type RegisterRequest struct {
	EventId string `json:"eventId" validate:"required"`
}

func (r *RegisterRequest) Bind(_ *http.Request) error {
	return validate.Struct(r)
}

type VerifyRequest struct {
	EncodedData string `json:"encodedData" validate:"required"`
	EventId     string `json:"eventId" validate:"required"`
}

func (r *VerifyRequest) Bind(_ *http.Request) error {
	return validate.Struct(r)
}

type ApprovalRequestBody struct {
	EventId string `json:"eventId" validate:"required"`
}

func (r *ApprovalRequestBody) Bind(_ *http.Request) error {
	return validate.Struct(r)
}

type DecisionRequest struct {
	Approve *bool `json:"approve" validate:"required"`
}

func (r *DecisionRequest) Bind(_ *http.Request) error {
	return validate.Struct(r)
}

type RoleRequest struct {
	Role string `json:"role" validate:"required,oneof=user admin security"`
}

func (r *RoleRequest) Bind(_ *http.Request) error {
	return validate.Struct(r)
}
