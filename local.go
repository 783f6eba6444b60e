package linkauth

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
)

// HandleUserFunc is called after a successful authentication with the
// resolved user. Typical implementations create the session and redirect.
type HandleUserFunc func(user *User, w http.ResponseWriter, r *http.Request)

// AuthErrorHandler lets applications take over error rendering. Return true
// if the response was written.
type AuthErrorHandler func(err *AuthError, w http.ResponseWriter, r *http.Request) bool

var validate = validator.New()

type localCredentialsForm struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

// LocalAuth serves email/password signup and login over forms or JSON.
type LocalAuth struct {
	Resolver *Resolver

	// Handler called after successful authentication
	HandleUser HandleUserFunc

	// Optional error hooks. When nil, errors render as JSON.
	OnLoginError  AuthErrorHandler
	OnSignupError AuthErrorHandler

	// Form field names, defaulting to "email" and "password"
	EmailField    string
	PasswordField string
}

// HandleLogin processes a local login request.
func (a *LocalAuth) HandleLogin(w http.ResponseWriter, r *http.Request) {
	form, authErr := a.parseForm(r)
	if authErr != nil {
		a.renderError(authErr, a.OnLoginError, w, r)
		return
	}

	user, err := a.Resolver.Login(r.Context(), form.Email, form.Password)
	if err != nil {
		if !errors.Is(err, ErrNoSuchUser) && !errors.Is(err, ErrBadPassword) {
			slog.Error("local login failed", "error", err)
		}
		a.renderError(authErrorFor(err), a.OnLoginError, w, r)
		return
	}
	a.HandleUser(user, w, r)
}

// HandleSignup processes a local registration request.
func (a *LocalAuth) HandleSignup(w http.ResponseWriter, r *http.Request) {
	form, authErr := a.parseForm(r)
	if authErr != nil {
		a.renderError(authErr, a.OnSignupError, w, r)
		return
	}
	if authErr := a.validateSignup(form); authErr != nil {
		a.renderError(authErr, a.OnSignupError, w, r)
		return
	}

	user, err := a.Resolver.Signup(r.Context(), form.Email, form.Password)
	if err != nil {
		if !errors.Is(err, ErrEmailTaken) {
			slog.Error("local signup failed", "error", err)
		}
		a.renderError(authErrorFor(err), a.OnSignupError, w, r)
		return
	}
	a.HandleUser(user, w, r)
}

func (a *LocalAuth) validateSignup(form *localCredentialsForm) *AuthError {
	if err := validate.Struct(form); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			fe := fieldErrs[0]
			switch fe.Field() {
			case "Email":
				if fe.Tag() == "required" {
					return NewAuthError(ErrCodeMissingField, "Email is required", "email")
				}
				return NewAuthError(ErrCodeInvalidEmail, "Invalid email format", "email")
			case "Password":
				if fe.Tag() == "required" {
					return NewAuthError(ErrCodeMissingField, "Password is required", "password")
				}
				return NewAuthError(ErrCodeWeakPassword, "Password must be at least 8 characters", "password")
			}
		}
		return NewAuthError("validation_error", err.Error(), "")
	}
	return nil
}

func (a *LocalAuth) parseForm(r *http.Request) (*localCredentialsForm, *AuthError) {
	emailField := a.EmailField
	if emailField == "" {
		emailField = "email"
	}
	passwordField := a.PasswordField
	if passwordField == "" {
		passwordField = "password"
	}

	form := &localCredentialsForm{}
	contentType := r.Header.Get("Content-Type")
	if strings.HasPrefix(contentType, "application/x-www-form-urlencoded") ||
		strings.HasPrefix(contentType, "multipart/form-data") {
		if err := r.ParseForm(); err != nil {
			return nil, NewAuthError("parse_error", "Error parsing form", "")
		}
		form.Email = r.FormValue(emailField)
		form.Password = r.FormValue(passwordField)
	} else {
		var data map[string]any
		if err := json.NewDecoder(r.Body).Decode(&data); err != nil || data == nil {
			return nil, NewAuthError("parse_error", "Invalid post body", "")
		}
		if v, ok := data[emailField].(string); ok {
			form.Email = v
		}
		if v, ok := data[passwordField].(string); ok {
			form.Password = v
		}
	}

	if form.Email == "" || form.Password == "" {
		return nil, NewAuthError(ErrCodeMissingField, "Email and password required", "")
	}
	return form, nil
}

func (a *LocalAuth) renderError(authErr *AuthError, hook AuthErrorHandler, w http.ResponseWriter, r *http.Request) {
	if hook != nil && hook(authErr, w, r) {
		return
	}
	status := http.StatusBadRequest
	switch authErr.Code {
	case ErrCodeNoSuchUser, ErrCodeBadPassword:
		status = http.StatusUnauthorized
	case ErrCodeEmailTaken:
		status = http.StatusConflict
	case ErrCodeStoreFailure:
		status = http.StatusServiceUnavailable
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(authErr)
}
