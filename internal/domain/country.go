package domain

type Country struct {
	ID        int32  `json:"id"`
	Name      string `json:"name"`
	ISOCode   string `json:"iso_code"`
	PhoneCode string `json:"phone_code"`
	Currency  string `json:"currency"`
	IsActive  bool   `json:"is_active"`
}
