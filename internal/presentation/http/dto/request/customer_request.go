package request

// CreateCustomerRequest represents the create customer request body
type CreateCustomerRequest struct {
	Name              string  `json:"name" binding:"required,max=255"`
	Company           *string `json:"company" binding:"omitempty,max=255"`
	Email             *string `json:"email" binding:"omitempty,email"`
	Phone             *string `json:"phone" binding:"omitempty,max=50"`
	KRAPin            *string `json:"kra_pin" binding:"omitempty,max=50"`
	Address           *string `json:"address"`
	GatewayCustomerID *string `json:"gateway_customer_id" binding:"omitempty,max=255"`
}

// UpdateCustomerRequest carries only the fields being changed
type UpdateCustomerRequest struct {
	Name              *string `json:"name" binding:"omitempty,min=1,max=255"`
	Company           *string `json:"company" binding:"omitempty,max=255"`
	Email             *string `json:"email" binding:"omitempty,email"`
	Phone             *string `json:"phone" binding:"omitempty,max=50"`
	KRAPin            *string `json:"kra_pin" binding:"omitempty,max=50"`
	Address           *string `json:"address"`
	GatewayCustomerID *string `json:"gateway_customer_id" binding:"omitempty,max=255"`
}
