package structs

type DeliveryAddress struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Phone       string `json:"phone"`
	Pincode     string `json:"pincode"`
	Locality    string `json:"locality"`
	Address     string `json:"address"`
	City        string `json:"city"`
	State       string `json:"state"`
	AddressType string `json:"addressType"`
}

type CreateAddress struct {
	Name        string `json:"name"`
	Phone       string `json:"phone"`
	Pincode     string `json:"pincode"`
	Locality    string `json:"locality"`
	Address     string `json:"address"`
	City        string `json:"city"`
	State       string `json:"state"`
	AddressType string `json:"addressType"`
}
