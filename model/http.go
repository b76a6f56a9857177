package model

type ConvertRequestBody struct {
	Source string `json:"source"`
	Beam   string `json:"beam,omitempty"`
	Format string `json:"format,omitempty"`
	Indent string `json:"indent,omitempty"`
}

type ErrorResponse struct {
	Error string `json:"detail"`
}
