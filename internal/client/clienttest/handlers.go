package clienttest

import (
	"context"
	"encoding/json"
	"net/http"
	"net/mail"
	"strconv"
	"strings"

	"github.com/dmitrijs2005/contactbook/internal/client/models"
	"github.com/dmitrijs2005/contactbook/internal/common"
	"github.com/dmitrijs2005/contactbook/internal/timex"
	"github.com/go-chi/chi/v5"
	"golang.org/x/crypto/bcrypt"
)

type ctxKey struct{}

func (s *Server) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.requests = append(s.requests, RecordedRequest{
			Method:        r.Method,
			Path:          r.URL.Path,
			RawQuery:      r.URL.RawQuery,
			Authorization: r.Header.Get("Authorization"),
			RequestID:     r.Header.Get(common.RequestIDHeaderName),
		})
		s.mu.Unlock()
		next.ServeHTTP(w, r)
	})
}

// injected answers with a queued failure for op, if any.
func (s *Server) injected(w http.ResponseWriter, op string) bool {
	s.mu.Lock()
	queue := s.failures[op]
	if len(queue) == 0 {
		s.mu.Unlock()
		return false
	}
	f := queue[0]
	s.failures[op] = queue[1:]
	s.mu.Unlock()

	writeDetail(w, f.status, f.detail)
	return true
}

func (s *Server) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !ok || raw == "" {
			writeDetail(w, http.StatusForbidden, "Not authenticated")
			return
		}

		s.mu.Lock()
		u, ok := s.userFromToken(raw)
		s.mu.Unlock()
		if !ok {
			writeDetail(w, http.StatusUnauthorized, "Could not validate credentials")
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxKey{}, u.Id)))
	})
}

func currentUserID(r *http.Request) string {
	id, _ := r.Context().Value(ctxKey{}).(string)
	return id
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeValidation(w, []fieldError{{Loc: []string{"body"}, Msg: "JSON decode error", Type: "json_invalid"}})
		return false
	}
	return true
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	if s.injected(w, "register") {
		return
	}
	var in struct {
		Name     string `json:"name"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if !decode(w, r, &in) {
		return
	}

	var errs []fieldError
	if _, err := mail.ParseAddress(in.Email); err != nil {
		errs = append(errs, fieldError{Loc: []string{"body", "email"}, Msg: "value is not a valid email address", Type: "value_error"})
	}
	if len(in.Password) < 6 {
		errs = append(errs, fieldError{Loc: []string{"body", "password"}, Msg: "String should have at least 6 characters", Type: "string_too_short"})
	}
	if len(errs) > 0 {
		writeValidation(w, errs)
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.MinCost)
	if err != nil {
		writeDetail(w, http.StatusInternalServerError, err.Error())
		return
	}

	id := strings.ToLower(in.Email)
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.users[id]; exists {
		writeDetail(w, http.StatusBadRequest, "User with this email already exists")
		return
	}
	u := &user{User: models.User{Id: id, Name: in.Name, Email: id, CreatedAt: timex.NewTime(s.now())}, passwordHash: hash}
	s.users[id] = u
	writeJSON(w, http.StatusOK, u.User)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if s.injected(w, "login") {
		return
	}
	var in struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if !decode(w, r, &in) {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[strings.ToLower(in.Email)]
	if !ok || bcrypt.CompareHashAndPassword(u.passwordHash, []byte(in.Password)) != nil {
		writeDetail(w, http.StatusUnauthorized, "Incorrect email or password")
		return
	}
	token, err := s.issueToken(u.Id)
	if err != nil {
		writeDetail(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, models.TokenResponse{AccessToken: token, TokenType: "bearer"})
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	if s.injected(w, "me") {
		return
	}
	s.mu.Lock()
	u := s.users[currentUserID(r)]
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, storedUserOf(u.User))
}

func matches(c models.Contact, search, tag string, favorite *bool) bool {
	if favorite != nil && c.IsFavorite != *favorite {
		return false
	}
	if tag != "" && !c.HasTag(tag) {
		return false
	}
	if search == "" {
		return true
	}
	needle := strings.ToLower(search)
	for _, field := range []string{c.Name, c.Phone, c.Email} {
		if strings.Contains(strings.ToLower(field), needle) {
			return true
		}
	}
	return false
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	if s.injected(w, "list") {
		return
	}
	q := r.URL.Query()
	var favorite *bool
	if raw := q.Get("favorite"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			writeValidation(w, []fieldError{{Loc: []string{"query", "favorite"}, Msg: "Input should be a valid boolean", Type: "bool_parsing"}})
			return
		}
		favorite = &v
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]storedContact, 0)
	for _, rec := range s.contactsOf(currentUserID(r)) {
		if matches(rec.Contact, q.Get("search"), q.Get("tag"), favorite) {
			out = append(out, stored(rec.Contact.Clone()))
		}
	}
	writeJSON(w, http.StatusOK, out)
}

func validatePayload(p models.ContactPayload) []fieldError {
	var errs []fieldError
	if strings.TrimSpace(p.Name) == "" {
		errs = append(errs, fieldError{Loc: []string{"body", "name"}, Msg: "String should have at least 1 character", Type: "string_too_short"})
	}
	if strings.TrimSpace(p.Phone) == "" {
		errs = append(errs, fieldError{Loc: []string{"body", "phone"}, Msg: "String should have at least 1 character", Type: "string_too_short"})
	}
	if _, err := mail.ParseAddress(p.Email); err != nil {
		errs = append(errs, fieldError{Loc: []string{"body", "email"}, Msg: "value is not a valid email address", Type: "value_error"})
	}
	return errs
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	if s.injected(w, "create") {
		return
	}
	var p models.ContactPayload
	if !decode(w, r, &p) {
		return
	}
	if errs := validatePayload(p); len(errs) > 0 {
		writeValidation(w, errs)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	rec := s.insert(currentUserID(r), p)
	writeJSON(w, http.StatusOK, rec.Contact)
}

// owned returns the caller's record for the route's id or writes a 404.
func (s *Server) owned(w http.ResponseWriter, r *http.Request) (*record, bool) {
	rec, ok := s.contacts[chi.URLParam(r, "id")]
	if !ok || rec.UserID != currentUserID(r) {
		writeDetail(w, http.StatusNotFound, "Not found")
		return nil, false
	}
	return rec, true
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	if s.injected(w, "get") {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if rec, ok := s.owned(w, r); ok {
		writeJSON(w, http.StatusOK, stored(rec.Contact))
	}
}

func (s *Server) handleUpdate(w http.ResponseWriter, r *http.Request) {
	if s.injected(w, "update") {
		return
	}
	var p models.ContactPayload
	if !decode(w, r, &p) {
		return
	}
	if errs := validatePayload(p); len(errs) > 0 {
		writeValidation(w, errs)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.owned(w, r)
	if !ok {
		return
	}
	tags := p.Tags
	if tags == nil {
		tags = []string{}
	}
	rec.Name, rec.Phone, rec.Email, rec.Notes = p.Name, p.Phone, p.Email, p.Notes
	rec.Tags = append([]string(nil), tags...)
	rec.IsFavorite = p.IsFavorite
	rec.UpdatedAt = timex.NewTime(s.now())
	writeJSON(w, http.StatusOK, stored(rec.Contact))
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	if s.injected(w, "delete") {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.owned(w, r)
	if !ok {
		return
	}
	delete(s.contacts, rec.Id)
	writeJSON(w, http.StatusOK, nil)
}

func (s *Server) handleToggleFavorite(w http.ResponseWriter, r *http.Request) {
	if s.injected(w, "favorite") {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.owned(w, r)
	if !ok {
		return
	}
	rec.IsFavorite = !rec.IsFavorite
	rec.UpdatedAt = timex.NewTime(s.now())
	writeJSON(w, http.StatusOK, stored(rec.Contact))
}
