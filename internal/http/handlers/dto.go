package handlers

// registerCourierRequest is the body of POST /courier.
type registerCourierRequest struct {
	ID        int64  `json:"id"`
	Username  string `json:"username"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// locationRequest is the body of POST /courier/{id}/location.
type locationRequest struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// closeRequest is the body of POST /courier/{id}/close.
type closeRequest struct {
	Status int `json:"status"`
}

// rangeRequest is the body of POST /working-range.
type rangeRequest struct {
	DeltaKm float64 `json:"delta_km"`
}
