package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"portfolio-api/internal/models"
	"portfolio-api/internal/service"
)

// ContactHandler serves the contact form endpoint.
type ContactHandler struct {
	contactService *service.ContactService
}

func NewContactHandler(contactService *service.ContactService) *ContactHandler {
	return &ContactHandler{contactService: contactService}
}

// Submit handles POST /api/v1/contact. A triggered honeypot still returns
// 200 so the bot cannot tell it was caught.
func (h *ContactHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var form models.ContactForm
	if err := json.NewDecoder(r.Body).Decode(&form); err != nil {
		respondWithError(w, http.StatusBadRequest, err, "Invalid request format")
		return
	}

	honeypot, err := h.contactService.Submit(ClientIP(r), r.UserAgent(), form)
	if honeypot {
		respondWithJSON(w, http.StatusOK, successResponse(nil, "Message sent"))
		return
	}
	if err != nil {
		switch {
		case errors.Is(err, service.ErrMissingFields):
			respondWithError(w, http.StatusBadRequest, err, "All fields are required")
		case errors.Is(err, service.ErrSuspiciousInput):
			respondWithError(w, http.StatusBadRequest, err, "Invalid input detected")
		default:
			respondWithError(w, http.StatusBadRequest, err, "Invalid input")
		}
		return
	}

	respondWithJSON(w, http.StatusOK, successResponse(nil, "Message sent"))
}
