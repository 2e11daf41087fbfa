package models

// SendReportRequest payload naming the report recipient
type SendReportRequest struct {
	Email string `json:"email" binding:"required,email"`
}

// ReportResponse describes what was sent
type ReportResponse struct {
	Sent      bool   `json:"sent"`
	Recipient string `json:"recipient,omitempty"`
	Products  int    `json:"products"`
	Message   string `json:"message"`
}
