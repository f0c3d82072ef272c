package devserver

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/mail"
	"path"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/felixgeelhaar/gemora/internal/portal"
)

// maxImageSize bounds each uploaded image.
const maxImageSize = 5 << 20

type messageBody struct {
	Message string `json:"message"`
}

type authResponse struct {
	Token string      `json:"token"`
	Role  string      `json:"role"`
	User  portal.User `json:"user"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, messageBody{Message: msg})
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20))
	if err := dec.Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "Malformed request body")
		return false
	}
	return true
}

func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "Invalid id")
		return 0, false
	}
	return id, true
}

func (s *Server) respondWithToken(w http.ResponseWriter, status int, u portal.User, version int) {
	token, err := s.tokens.issue(u.ID, u.Role, version)
	if err != nil {
		s.logger.WithError(err).Error("failed to issue token")
		writeError(w, http.StatusInternalServerError, "Could not issue token")
		return
	}
	writeJSON(w, status, authResponse{Token: token, Role: u.Role, User: u})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	u, version, ok := s.data.authenticate(strings.TrimSpace(req.Email), req.Password)
	if !ok {
		writeError(w, http.StatusUnauthorized, "Invalid email or password")
		return
	}
	s.respondWithToken(w, http.StatusOK, u, version)
}

var registerImages = []string{"idFrontImage", "idBackImage", "selfieImage"}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, int64(len(registerImages)+1)*maxImageSize)
	if err := r.ParseMultipartForm(8 << 20); err != nil {
		writeError(w, http.StatusBadRequest, "Malformed registration form")
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	name := strings.TrimSpace(r.FormValue("name"))
	email := strings.TrimSpace(r.FormValue("email"))
	password := r.FormValue("password")
	if name == "" || password == "" {
		writeError(w, http.StatusBadRequest, "Name and password are required")
		return
	}
	if _, err := mail.ParseAddress(email); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid email address")
		return
	}

	u := portal.User{
		Name:          name,
		Email:         email,
		ContactNumber: strings.TrimSpace(r.FormValue("contactNumber")),
		Role:          roleUser,
	}
	for _, field := range registerImages {
		files := r.MultipartForm.File[field]
		if len(files) == 0 {
			continue
		}
		if files[0].Size > maxImageSize {
			writeError(w, http.StatusBadRequest, "Image exceeds 5 MB: "+field)
			return
		}
		url := "/uploads/" + uuid.NewString() + path.Ext(files[0].Filename)
		switch field {
		case "idFrontImage":
			u.IDFrontImageURL = url
		case "idBackImage":
			u.IDBackImageURL = url
		case "selfieImage":
			u.SelfieImageURL = url
		}
	}

	created, ok, err := s.data.addUser(u, password)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Registration failed")
		return
	}
	if !ok {
		writeError(w, http.StatusConflict, "Email is already registered")
		return
	}
	s.respondWithToken(w, http.StatusCreated, created, 0)
}

func (s *Server) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	u, _, ok := s.data.user(principalFrom(r.Context()).UserID)
	if !ok {
		writeError(w, http.StatusNotFound, "User not found")
		return
	}
	writeJSON(w, http.StatusOK, u)
}

func (s *Server) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	var upd portal.ProfileUpdate
	if !decodeBody(w, r, &upd) {
		return
	}
	u, ok := s.data.updateUser(principalFrom(r.Context()).UserID, func(a *account) {
		applyUpdate(a, upd.Name, upd.ContactNumber)
	})
	if !ok {
		writeError(w, http.StatusNotFound, "User not found")
		return
	}
	writeJSON(w, http.StatusOK, u)
}

func applyUpdate(a *account, name, contact string) {
	if name = strings.TrimSpace(name); name != "" {
		a.Name = name
	}
	if contact = strings.TrimSpace(contact); contact != "" {
		a.ContactNumber = contact
	}
}

func (s *Server) handleAvatar(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxImageSize+(1<<20))
	file, header, err := r.FormFile("avatar")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusBadRequest, "Image exceeds 5 MB")
			return
		}
		writeError(w, http.StatusBadRequest, "Missing avatar file")
		return
	}
	_ = file.Close()
	if header.Size > maxImageSize {
		writeError(w, http.StatusBadRequest, "Image exceeds 5 MB")
		return
	}

	url := "/uploads/avatars/" + uuid.NewString() + path.Ext(header.Filename)
	u, ok := s.data.updateUser(principalFrom(r.Context()).UserID, func(a *account) {
		a.AvatarURL = url
	})
	if !ok {
		writeError(w, http.StatusNotFound, "User not found")
		return
	}
	writeJSON(w, http.StatusOK, u)
}

func (s *Server) handleChangePassword(w http.ResponseWriter, r *http.Request) {
	var req portal.PasswordChange
	if !decodeBody(w, r, &req) {
		return
	}
	if len(req.NewPassword) < 6 {
		writeError(w, http.StatusBadRequest, "New password must be at least 6 characters")
		return
	}
	ok, found, err := s.data.changePassword(principalFrom(r.Context()).UserID, req.CurrentPassword, req.NewPassword)
	switch {
	case err != nil:
		writeError(w, http.StatusInternalServerError, "Password change failed")
	case !found:
		writeError(w, http.StatusNotFound, "User not found")
	case !ok:
		writeError(w, http.StatusBadRequest, "Current password is incorrect")
	default:
		writeJSON(w, http.StatusOK, messageBody{Message: "Password changed"})
	}
}

func (s *Server) handleSearchUsers(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, nonNil(s.data.searchUsers(r.URL.Query().Get("q"))))
}

func (s *Server) handleListUsers(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.data.listUsers())
}

func (s *Server) handleGetUser(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	u, _, found := s.data.user(id)
	if !found {
		writeError(w, http.StatusNotFound, "User not found")
		return
	}
	writeJSON(w, http.StatusOK, u)
}

func (s *Server) handleUpdateUser(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var upd portal.UserUpdate
	if !decodeBody(w, r, &upd) {
		return
	}
	u, found := s.data.updateUser(id, func(a *account) {
		applyUpdate(a, upd.Name, upd.ContactNumber)
	})
	if !found {
		writeError(w, http.StatusNotFound, "User not found")
		return
	}
	writeJSON(w, http.StatusOK, u)
}

func (s *Server) handleDeleteUser(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if id == principalFrom(r.Context()).UserID {
		writeError(w, http.StatusConflict, "Administrators cannot delete their own account")
		return
	}
	if !s.data.deleteUser(id) {
		writeError(w, http.StatusNotFound, "User not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handlePendingGems(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.data.gemsWithStatus(portal.GemPending))
}

func (s *Server) handleApprovedGems(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.data.gemsWithStatus(portal.GemApproved))
}

func (s *Server) handleApproveGem(w http.ResponseWriter, r *http.Request) {
	s.moderate(w, r, portal.GemApproved, "")
}

func (s *Server) handleRejectGem(w http.ResponseWriter, r *http.Request) {
	s.moderate(w, r, portal.GemRejected, r.URL.Query().Get("reason"))
}

func (s *Server) moderate(w http.ResponseWriter, r *http.Request, status, reason string) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	g, found, pending := s.data.setGemStatus(id, status, reason)
	switch {
	case !found:
		writeError(w, http.StatusNotFound, "Gem not found")
	case !pending:
		writeError(w, http.StatusConflict, "Gem is not pending review")
	default:
		writeJSON(w, http.StatusOK, g)
	}
}

func (s *Server) handleDeleteGem(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if !s.data.deleteGem(id) {
		writeError(w, http.StatusNotFound, "Gem not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListTickets(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.data.listTickets())
}

func (s *Server) handleReplyTicket(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var reply portal.TicketReply
	if !decodeBody(w, r, &reply) {
		return
	}
	if !validTicketStatus(reply.Status) {
		writeError(w, http.StatusBadRequest, "Invalid ticket status")
		return
	}
	t, found := s.data.replyTicket(id, reply)
	if !found {
		writeError(w, http.StatusNotFound, "Ticket not found")
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func validTicketStatus(status string) bool {
	for _, s := range portal.TicketStatuses() {
		if s == status {
			return true
		}
	}
	return false
}

func nonNil[T any](v []T) []T {
	if v == nil {
		return []T{}
	}
	return v
}
