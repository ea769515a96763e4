package server

import (
	"net/http"

	"jawara/internal/auth"
)

type loginForm struct {
	Email    string `form:"email"`
	Password string `form:"password"`
}

func (s *Service) handleRegister(w http.ResponseWriter, r *http.Request) {
	var input auth.RegisterInput
	if _, err := s.decodeBody(r, &input); err != nil {
		s.writeError(w, r, err)
		return
	}

	session, err := s.auth.Register(r.Context(), input)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.created(w, "User registered successfully", session)
}

func (s *Service) handleLogin(w http.ResponseWriter, r *http.Request) {
	var input loginForm
	if _, err := s.decodeBody(r, &input); err != nil {
		s.writeError(w, r, err)
		return
	}

	session, err := s.auth.Login(r.Context(), input.Email, input.Password)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.ok(w, "Login successful", session)
}

func (s *Service) handleProfile(w http.ResponseWriter, r *http.Request) {
	claims, _ := claimsFromContext(r.Context())

	user, err := s.auth.Profile(r.Context(), claims.UserID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.ok(w, "Profile retrieved successfully", user)
}
