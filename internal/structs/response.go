package structs

type Response struct {
	Status  string `json:"status"`
	Code    int    `json:"code"`
	Message string `json:"message,omitempty"`
	Payload any    `json:"payload,omitempty"`
}
