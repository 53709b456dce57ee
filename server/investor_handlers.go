package server

import (
	"net/http"

	"investa/domain"
	"investa/domain/entities"
	"investa/domain/services"
)

type registerInvestorBody struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

type profileBody struct {
	Name            *string `json:"name"`
	Email           *string `json:"email"`
	ProfileComplete *bool   `json:"profile_complete"`
}

type activeBody struct {
	Active *bool `json:"active"`
}

func (s *Server) registerInvestor(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.authorize(w, r, services.OpRegister, 0); !ok {
		return
	}

	var body registerInvestorBody
	if err := decodeBody(r, &body, false); err != nil {
		writeError(w, err)
		return
	}
	role := entities.Role(body.Role)
	if role == "" {
		role = entities.RoleInvestor
	}

	investor, err := s.deps.Investors.Register(r.Context(), body.Name, body.Email, role)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, newInvestorResponse(investor))
}

func (s *Server) getInvestor(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	if _, ok := s.authorize(w, r, services.OpInvestorRead, id); !ok {
		return
	}

	investor, err := s.deps.Investors.GetInvestor(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newInvestorResponse(investor))
}

func (s *Server) updateProfile(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	if _, ok := s.authorize(w, r, services.OpProfileUpdate, id); !ok {
		return
	}

	var body profileBody
	if err := decodeBody(r, &body, false); err != nil {
		writeError(w, err)
		return
	}

	investor, err := s.deps.Investors.UpdateProfile(r.Context(), id, entities.ProfileUpdate{
		Name:            body.Name,
		Email:           body.Email,
		ProfileComplete: body.ProfileComplete,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newInvestorResponse(investor))
}

func (s *Server) setActive(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	if _, ok := s.authorize(w, r, services.OpInvestorActivate, id); !ok {
		return
	}

	var body activeBody
	if err := decodeBody(r, &body, false); err != nil {
		writeError(w, err)
		return
	}
	if body.Active == nil {
		writeError(w, domain.NewValidationError("active", "is required"))
		return
	}

	investor, err := s.deps.Investors.SetActive(r.Context(), id, *body.Active)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newInvestorResponse(investor))
}
