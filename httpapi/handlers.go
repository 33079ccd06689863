package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"fleetrent/auth"
	"fleetrent/catalog"
	"fleetrent/rental"
)

type messageResponse struct {
	Message string `json:"message"`
}

func respondJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, messageResponse{Message: message})
}

// respondServiceError maps domain errors onto the HTTP taxonomy. Anything
// unrecognised is a persistence or programming failure: logged server-side,
// generic message to the caller.
func (s *Server) respondServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, auth.ErrDuplicateEmail):
		respondError(w, http.StatusBadRequest, "Username already exists")
	case errors.Is(err, auth.ErrInvalidCredentials):
		respondError(w, http.StatusBadRequest, "Invalid credentials")
	case errors.Is(err, rental.ErrUserNotFound):
		respondError(w, http.StatusNotFound, "User not found")
	case errors.Is(err, rental.ErrVehicleNotFound):
		respondError(w, http.StatusNotFound, "Vehicle not found")
	case errors.Is(err, rental.ErrRequestNotFound):
		respondError(w, http.StatusNotFound, "Rental request not found")
	case errors.Is(err, catalog.ErrNotFound):
		respondError(w, http.StatusNotFound, "Vehicle not found")
	case errors.Is(err, rental.ErrNotPending):
		respondError(w, http.StatusBadRequest, "Only pending requests can be updated")
	case errors.Is(err, rental.ErrInvalidInput), errors.Is(err, catalog.ErrInvalidInput):
		respondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, catalog.ErrVehicleInUse):
		respondError(w, http.StatusBadRequest, "Vehicle has rental history and cannot be deleted")
	default:
		s.log.Error().Err(err).Str("method", r.Method).Str("path", r.URL.Path).Msg("request failed")
		respondError(w, http.StatusInternalServerError, "Internal server error")
	}
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req auth.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Username == "" || req.Password == "" {
		respondError(w, http.StatusBadRequest, "Username and password are required")
		return
	}

	user, err := s.auth.Register(r.Context(), req)
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusCreated, struct {
		Message  string `json:"message"`
		Username string `json:"username"`
	}{
		Message:  "User created successfully",
		Username: user.Email,
	})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req auth.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Username == "" || req.Password == "" {
		respondError(w, http.StatusBadRequest, "Username and password are required")
		return
	}

	result, err := s.auth.Login(r.Context(), req)
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, struct {
		Message  string `json:"message"`
		Username string `json:"username"`
		Role     string `json:"role"`
		Token    string `json:"token"`
	}{
		Message:  "Login successful",
		Username: result.User.Email,
		Role:     string(result.User.Role),
		Token:    result.Token,
	})
}

// vehicleDTO uses the abbreviated field names the SPA expects.
type vehicleDTO struct {
	ID       string  `json:"id"`
	Title    string  `json:"title"`
	Price    int     `json:"price"`
	Seats    int     `json:"seats"`
	Loc      string  `json:"loc"`
	Featured bool    `json:"featured"`
	Category string  `json:"category"`
	Rating   float64 `json:"rating"`
	Img      string  `json:"img"`
}

func toVehicleDTO(v catalog.Vehicle) vehicleDTO {
	return vehicleDTO{
		ID:       v.ID,
		Title:    v.Title,
		Price:    v.Price,
		Seats:    v.Seats,
		Loc:      v.Location,
		Featured: v.Featured,
		Category: v.Category,
		Rating:   v.Rating,
		Img:      v.ImageURL,
	}
}

func (s *Server) handleListVehicles(w http.ResponseWriter, r *http.Request) {
	vehicles, err := s.vehicles.List(r.Context())
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}

	dtos := make([]vehicleDTO, 0, len(vehicles))
	for _, v := range vehicles {
		dtos = append(dtos, toVehicleDTO(v))
	}
	respondJSON(w, http.StatusOK, dtos)
}

func (s *Server) handleCreateVehicle(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Title    string `json:"title"`
		Price    int    `json:"price"`
		Seats    int    `json:"seats"`
		Location string `json:"location"`
		Featured bool   `json:"featured"`
		Category string `json:"category"`
		Img      string `json:"img"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	vehicle, err := s.vehicles.Create(r.Context(), catalog.CreateParams{
		Title:    body.Title,
		Price:    body.Price,
		Seats:    body.Seats,
		Location: body.Location,
		Category: body.Category,
		ImageURL: body.Img,
		Featured: body.Featured,
	})
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusCreated, struct {
		Message string     `json:"message"`
		Vehicle vehicleDTO `json:"vehicle"`
	}{
		Message: "Vehicle added successfully",
		Vehicle: toVehicleDTO(vehicle),
	})
}

func (s *Server) handleDeleteVehicle(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if err := s.vehicles.Delete(r.Context(), id); err != nil {
		s.respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, messageResponse{Message: "Vehicle deleted successfully"})
}

func (s *Server) handleSubmitRequest(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Username   string `json:"username"`
		VehicleID  string `json:"vehicleId"`
		StartDate  string `json:"startDate"`
		EndDate    string `json:"endDate"`
		TotalPrice int    `json:"totalPrice"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if body.Username == "" || body.VehicleID == "" || body.StartDate == "" || body.EndDate == "" || body.TotalPrice == 0 {
		respondError(w, http.StatusBadRequest, "All fields are required")
		return
	}

	req, err := s.rentals.Submit(r.Context(), rental.SubmitParams{
		Username:   body.Username,
		VehicleID:  body.VehicleID,
		StartDate:  body.StartDate,
		EndDate:    body.EndDate,
		TotalPrice: body.TotalPrice,
	})
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusCreated, struct {
		Message string `json:"message"`
		Request struct {
			ID          string    `json:"id"`
			Status      string    `json:"status"`
			RequestedAt time.Time `json:"requestedAt"`
		} `json:"request"`
	}{
		Message: "Rental request submitted successfully. Waiting for admin approval.",
		Request: struct {
			ID          string    `json:"id"`
			Status      string    `json:"status"`
			RequestedAt time.Time `json:"requestedAt"`
		}{
			ID:          req.ID,
			Status:      string(req.Status),
			RequestedAt: req.RequestedAt,
		},
	})
}

// requestDTO is a request joined with display fields, dates in wire format.
type requestDTO struct {
	ID              string     `json:"id"`
	Username        string     `json:"username"`
	UserName        string     `json:"userName,omitempty"`
	VehicleID       string     `json:"vehicleId"`
	VehicleTitle    string     `json:"vehicleTitle"`
	VehicleCategory string     `json:"vehicleCategory,omitempty"`
	VehicleImage    string     `json:"vehicleImage,omitempty"`
	StartDate       string     `json:"startDate"`
	EndDate         string     `json:"endDate"`
	TotalPrice      int        `json:"totalPrice"`
	Status          string     `json:"status"`
	RejectionReason *string    `json:"rejectionReason,omitempty"`
	RequestedAt     time.Time  `json:"requestedAt"`
	RespondedAt     *time.Time `json:"respondedAt,omitempty"`
}

func toRequestDTO(v rental.RequestView, adminView bool) requestDTO {
	dto := requestDTO{
		ID:              v.ID,
		Username:        v.Username,
		VehicleID:       v.VehicleID,
		VehicleTitle:    v.VehicleTitle,
		StartDate:       v.StartDate.Format(rental.DateLayout),
		EndDate:         v.EndDate.Format(rental.DateLayout),
		TotalPrice:      v.TotalPrice,
		Status:          string(v.Status),
		RejectionReason: v.RejectionReason,
		RequestedAt:     v.RequestedAt,
		RespondedAt:     v.RespondedAt,
	}
	if adminView {
		dto.UserName = v.UserName
		dto.VehicleCategory = v.VehicleCategory
		dto.VehicleImage = v.VehicleImage
	}
	return dto
}

func (s *Server) handleUserRequests(w http.ResponseWriter, r *http.Request) {
	username := mux.Vars(r)["username"]

	views, err := s.rentals.ListForUser(r.Context(), username)
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}

	dtos := make([]requestDTO, 0, len(views))
	for _, v := range views {
		dtos = append(dtos, toRequestDTO(v, false))
	}
	respondJSON(w, http.StatusOK, dtos)
}

func (s *Server) handlePendingRequests(w http.ResponseWriter, r *http.Request) {
	views, err := s.rentals.ListPending(r.Context())
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}

	dtos := make([]requestDTO, 0, len(views))
	for _, v := range views {
		dtos = append(dtos, toRequestDTO(v, true))
	}
	respondJSON(w, http.StatusOK, dtos)
}

func (s *Server) handleAllRequests(w http.ResponseWriter, r *http.Request) {
	views, err := s.rentals.ListAll(r.Context())
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}

	dtos := make([]requestDTO, 0, len(views))
	for _, v := range views {
		dtos = append(dtos, toRequestDTO(v, true))
	}
	respondJSON(w, http.StatusOK, dtos)
}

type settledRequestDTO struct {
	ID              string     `json:"id"`
	UserID          string     `json:"userId"`
	VehicleID       string     `json:"vehicleId"`
	StartDate       string     `json:"startDate"`
	EndDate         string     `json:"endDate"`
	TotalPrice      int        `json:"totalPrice"`
	Status          string     `json:"status"`
	RejectionReason *string    `json:"rejectionReason,omitempty"`
	RequestedAt     time.Time  `json:"requestedAt"`
	RespondedAt     *time.Time `json:"respondedAt,omitempty"`
}

func toSettledRequestDTO(req rental.Request) settledRequestDTO {
	return settledRequestDTO{
		ID:              req.ID,
		UserID:          req.UserID,
		VehicleID:       req.VehicleID,
		StartDate:       req.StartDate.Format(rental.DateLayout),
		EndDate:         req.EndDate.Format(rental.DateLayout),
		TotalPrice:      req.TotalPrice,
		Status:          string(req.Status),
		RejectionReason: req.RejectionReason,
		RequestedAt:     req.RequestedAt,
		RespondedAt:     req.RespondedAt,
	}
}

type rentalDTO struct {
	ID           string    `json:"id"`
	Username     string    `json:"username,omitempty"`
	VehicleID    string    `json:"vehicleId"`
	VehicleTitle string    `json:"vehicleTitle,omitempty"`
	StartDate    string    `json:"startDate"`
	EndDate      string    `json:"endDate"`
	TotalPrice   int       `json:"totalPrice"`
	Status       string    `json:"status"`
	CreatedAt    time.Time `json:"createdAt"`
}

func (s *Server) handleAcceptRequest(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	result, err := s.rentals.Accept(r.Context(), id)
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, struct {
		Message string            `json:"message"`
		Request settledRequestDTO `json:"request"`
		Rental  rentalDTO         `json:"rental"`
	}{
		Message: "Rental request accepted successfully",
		Request: toSettledRequestDTO(result.Request),
		Rental: rentalDTO{
			ID:         result.Rental.ID,
			VehicleID:  result.Rental.VehicleID,
			StartDate:  result.Rental.StartDate.Format(rental.DateLayout),
			EndDate:    result.Rental.EndDate.Format(rental.DateLayout),
			TotalPrice: result.Rental.TotalPrice,
			Status:     result.Rental.Status,
			CreatedAt:  result.Rental.CreatedAt,
		},
	})
}

func (s *Server) handleRejectRequest(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	var body struct {
		Reason string `json:"reason"`
	}
	// A missing body means no reason given.
	_ = json.NewDecoder(r.Body).Decode(&body)

	req, err := s.rentals.Reject(r.Context(), id, body.Reason)
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}

	// Echo what was persisted, not the raw input, so the two cannot disagree.
	reason := "No reason provided"
	if req.RejectionReason != nil {
		reason = *req.RejectionReason
	}

	respondJSON(w, http.StatusOK, struct {
		Message string            `json:"message"`
		Request settledRequestDTO `json:"request"`
		Reason  string            `json:"reason"`
	}{
		Message: "Rental request rejected",
		Request: toSettledRequestDTO(req),
		Reason:  reason,
	})
}

func toRentalDTO(v rental.RentalView) rentalDTO {
	return rentalDTO{
		ID:           v.ID,
		Username:     v.Username,
		VehicleID:    v.VehicleID,
		VehicleTitle: v.VehicleTitle,
		StartDate:    v.StartDate.Format(rental.DateLayout),
		EndDate:      v.EndDate.Format(rental.DateLayout),
		TotalPrice:   v.TotalPrice,
		Status:       v.Status,
		CreatedAt:    v.CreatedAt,
	}
}

func (s *Server) handleUserRentals(w http.ResponseWriter, r *http.Request) {
	username := mux.Vars(r)["username"]

	views, err := s.rentals.RentalsForUser(r.Context(), username)
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}

	dtos := make([]rentalDTO, 0, len(views))
	for _, v := range views {
		dtos = append(dtos, toRentalDTO(v))
	}
	respondJSON(w, http.StatusOK, dtos)
}

func (s *Server) handleAllRentals(w http.ResponseWriter, r *http.Request) {
	views, err := s.rentals.AllRentals(r.Context())
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}

	dtos := make([]rentalDTO, 0, len(views))
	for _, v := range views {
		dtos = append(dtos, toRentalDTO(v))
	}
	respondJSON(w, http.StatusOK, dtos)
}
