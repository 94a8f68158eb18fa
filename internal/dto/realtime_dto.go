package dto

type TaskUpdateRequest struct {
	SessionId uint                   `json:"session_id" validate:"required"`
	TaskId    string                 `json:"task_id" validate:"max=100"`
	Status    string                 `json:"status" validate:"required,oneof=running complete failed"`
	Progress  int                    `json:"progress" validate:"min=0,max=100"`
	Message   string                 `json:"message" validate:"max=500"`
	Data      map[string]interface{} `json:"data,omitempty"`
}

type TaskUpdateResponse struct {
	TaskId    string `json:"task_id"`
	Queued    bool   `json:"queued"`
	Delivered int    `json:"delivered"`
}

type RealtimeStatsResponse struct {
	Connections   int `json:"connections"`
	Sessions      int `json:"sessions"`
	Subscriptions int `json:"subscriptions"`
}
