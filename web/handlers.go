package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/tasknest/tasknest"
	"github.com/tasknest/tasknest/middleware"
	"github.com/tasknest/tasknest/validate"
)

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprint(w, "server is up and running")
}

func (s *Server) handleRegisterPage(w http.ResponseWriter, r *http.Request) {
	writePage(w, registerPage)
}

func (s *Server) handleLoginPage(w http.ResponseWriter, r *http.Request) {
	writePage(w, loginPage)
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	body, err := parseBody(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, "Malformed request body")
		return
	}

	fields := make(map[string]string, 4)
	for _, key := range []string{"name", "email", "username", "password"} {
		value, ok := body.text(key)
		if !ok {
			writeJSON(w, http.StatusBadRequest, titleCase(key)+" is not a text")
			return
		}
		fields[key] = value
	}

	_, err = s.engine.Register(r.Context(), tasknest.RegisterRequest{
		Name:     fields["name"],
		Email:    fields["email"],
		Username: fields["username"],
		Password: fields["password"],
	})
	if err != nil {
		s.log.Info("register rejected", "username", fields["username"], "error", err)
		writeJSON(w, clientStatus(err), registerMessage(err))
		return
	}

	s.log.Info("user registered", "username", fields["username"])
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	body, err := parseBody(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, "Malformed request body")
		return
	}

	loginID, loginOK := body.text("loginId")
	password, passwordOK := body.text("password")
	if (loginOK && loginID == "") || (passwordOK && password == "") {
		writeJSON(w, http.StatusBadRequest, "Missing user loginId/Password")
		return
	}
	if !loginOK {
		writeJSON(w, http.StatusBadRequest, "LoginId is not a text")
		return
	}
	if !passwordOK {
		writeJSON(w, http.StatusBadRequest, "Password is not a text")
		return
	}

	sess, err := s.engine.Login(r.Context(), loginID, password)
	if err != nil {
		s.log.Info("login rejected", "login_id", loginID, "error", err)
		writeJSON(w, clientStatus(err), loginMessage(err))
		return
	}

	s.setSessionCookie(w, sess.SessionID)
	s.log.Info("login succeeded", "username", sess.Username)
	http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	sess, _ := middleware.SessionFromContext(r.Context())
	writePage(w, fmt.Sprintf(dashboardPage, sess.Username))
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	var token string
	if cookie, err := r.Cookie(middleware.SessionCookieName); err == nil {
		token = cookie.Value
	}

	if err := s.engine.Logout(r.Context(), token); err != nil {
		s.log.Error("logout failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	s.clearSessionCookie(w)
	writeJSON(w, http.StatusOK, "Logout successful")
}

func (s *Server) handleLogoutAll(w http.ResponseWriter, r *http.Request) {
	sess, _ := middleware.SessionFromContext(r.Context())

	count, err := s.engine.LogoutAll(r.Context(), sess.Username)
	if err != nil {
		s.log.Error("logout-all failed", "username", sess.Username, "error", err)
		writeJSON(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	s.log.Info("logout-all", "username", sess.Username, "destroyed", count)
	writeJSON(w, http.StatusOK, fmt.Sprintf("Logout from %d all devices successful", count))
}

func (s *Server) handleCreateItem(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprint(w, "all ok")
}

// body is a decoded request body. Form values are always text; JSON values
// keep their decoded type so non-string fields can be rejected.
type body map[string]any

// text returns the named field as a string. ok is false when the field is
// present with a non-string type; an absent field is ("", true) so presence
// checks stay with the caller.
func (b body) text(key string) (string, bool) {
	value, present := b[key]
	if !present {
		return "", true
	}
	s, ok := value.(string)
	return s, ok
}

func parseBody(r *http.Request) (body, error) {
	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		var decoded map[string]any
		if err := json.NewDecoder(r.Body).Decode(&decoded); err != nil {
			return nil, err
		}
		return body(decoded), nil
	}

	if err := r.ParseForm(); err != nil {
		return nil, err
	}
	decoded := make(body, len(r.PostForm))
	for key := range r.PostForm {
		decoded[key] = r.PostForm.Get(key)
	}
	return decoded, nil
}

func (s *Server) setSessionCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(s.engine.SessionTTL().Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func (s *Server) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// clientStatus maps engine errors onto HTTP status codes. Unknown identifier
// and wrong password are distinct inside the engine; both are client faults
// here.
func clientStatus(err error) int {
	var verr *validate.Error
	switch {
	case errors.As(err, &verr),
		errors.Is(err, tasknest.ErrDuplicateKey),
		errors.Is(err, tasknest.ErrNotFound),
		errors.Is(err, tasknest.ErrMismatch):
		return http.StatusBadRequest
	case errors.Is(err, tasknest.ErrUnauthenticated):
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

func registerMessage(err error) string {
	var dup *tasknest.DuplicateKeyError
	if errors.As(err, &dup) {
		switch dup.Field {
		case "email":
			return "Email already exists."
		case "username":
			return "Username already exists."
		}
		return "Account already exists."
	}

	var verr *validate.Error
	if errors.As(err, &verr) {
		return verr.Error()
	}

	return "Internal server error"
}

func loginMessage(err error) string {
	switch {
	case errors.Is(err, tasknest.ErrNotFound):
		return "User not found, please register first"
	case errors.Is(err, tasknest.ErrMismatch):
		return "Incorrect Password"
	}

	var verr *validate.Error
	if errors.As(err, &verr) {
		return "Missing user loginId/Password"
	}

	return "Internal server error"
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writePage(w http.ResponseWriter, page string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprint(w, page)
}

func titleCase(field string) string {
	if field == "" {
		return field
	}
	return strings.ToUpper(field[:1]) + field[1:]
}
