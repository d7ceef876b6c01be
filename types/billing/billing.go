package billing

import "facility-booking/types"

type BillingCreateRequest struct {
	Amount *float64 `json:"amount" validate:"omitempty,gte=0"`
}

func (b BillingCreateRequest) Validate() error {
	return types.ValidateStruct(b)
}

type BillingVerifyRequest struct {
	Decision string `json:"decision" validate:"required,oneof=confirm reject"`
	Reason   string `json:"reason" validate:"omitempty,max=1000"`
}

func (b BillingVerifyRequest) Validate() error {
	return types.ValidateStruct(b)
}
