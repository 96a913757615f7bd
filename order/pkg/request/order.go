package request

type Customer struct {
	Name    string `validate:"required"         json:"name"`
	Phone   string `validate:"required,e164"    json:"phone"`
	Address string `validate:"required,max=500" json:"address"`
}

type Checkout struct {
	Customer Customer `validate:"required" json:"customer"`
	Note     string   `validate:"max=500"  json:"note,omitempty"`
}

type UpdateStatus struct {
	Status string `validate:"required" json:"status"`
}
