package api

type ErrorResponse struct {
	Error string `json:"error" example:"something went wrong"`
}

type MessageResponse struct {
	Message string `json:"message" example:"ok"`
}

type HealthResponse struct {
	Status string `json:"status" example:"ok"`
}

// InsufficientBalanceResponse reports how many coins the action needed
// versus what the account holds.
type InsufficientBalanceResponse struct {
	Error     string `json:"error" example:"insufficient balance"`
	Required  int    `json:"required" example:"5"`
	Available int    `json:"available" example:"3"`
}
