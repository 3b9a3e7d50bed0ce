package helpers

type SignupRequest struct {
	Email       string `json:"email" binding:"required"`
	Password    string `json:"password" binding:"required"`
	DisplayName string `json:"displayName" binding:"required"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type ProfileRequest struct {
	DisplayName string  `json:"displayName" binding:"max=100"`
	PhotoURL    *string `json:"photoURL" binding:"omitempty,max=2048"`
}

type FavoritesResponse struct {
	Favorites []string `json:"favorites"`
}
