package user

type RegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"full_name"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type AuthResponse struct {
	Token string `json:"token"`
	User  *User  `json:"user"`
}

type UpdateProfileRequest struct {
	FullName *string `json:"full_name,omitempty"`
	Email    *string `json:"email,omitempty"`
}

type UpdatePreferencesRequest struct {
	DateFormat             *string `json:"date_format,omitempty"`
	DefaultWeightUnit      *string `json:"default_weight_unit,omitempty"`
	DefaultMeasurementUnit *string `json:"default_measurement_unit,omitempty"`
	Timezone               *string `json:"timezone,omitempty"`
	AutoClearHistory       *string `json:"auto_clear_history,omitempty"`
	SystemPrompt           *string `json:"system_prompt,omitempty"`
}
