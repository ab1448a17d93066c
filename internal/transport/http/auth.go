package http

import (
	"errors"
	"log/slog"
	"net/http"

	"memorial/internal/domain/models"
	"memorial/internal/lib/logger/sl"
	"memorial/internal/services/auth"
	"memorial/internal/transport/http/dto/request"
	"memorial/internal/transport/http/dto/response"

	"github.com/gorilla/sessions"
	"github.com/labstack/echo-contrib/session"
	"github.com/labstack/echo/v4"
)

const (
	SessionName = "session"
	// TokenContextKey - ключ, под которым echo-jwt кладет пользователя из bearer-токена
	TokenContextKey = "user"
)

// Login godoc
// @Summary Вход в систему
// @Description Проверяет учетные данные, открывает cookie-сессию и возвращает JWT для API-клиентов
// @Tags auth
// @Accept json
// @Produce json
// @Param request body request.LoginRequest true "Учетные данные"
// @Success 200 {object} response.SessionResponse
// @Failure 400 {object} response.ErrorResponse
// @Failure 401 {object} response.ErrorResponse
// @Router /api/login [post]
func (r *Routers) Login(c echo.Context) error {
	const op = "http.routers.Login"

	log := r.log.With(slog.String("op", op))

	var req request.LoginRequest
	if err := c.Bind(&req); err != nil {
		log.Warn("failed to bind request", sl.Err(err))
		return c.JSON(http.StatusBadRequest, response.ErrInvalidRequestFormat)
	}

	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, response.ErrorWithDetails(response.ErrInvalidRequestFormat.Error, err.Error()))
	}

	user, token, err := r.AuthService.Login(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			return c.JSON(http.StatusUnauthorized, response.ErrAuthenticationFailed)
		}
		log.Error("login failed", sl.Err(err))
		return c.JSON(http.StatusInternalServerError, response.ErrInternal)
	}

	if err := SetSessionUser(c, user); err != nil {
		log.Error("failed to save session", sl.Err(err))
		return c.JSON(http.StatusInternalServerError, response.ErrInternal)
	}

	return c.JSON(http.StatusOK, response.SessionResponse{
		Success: true,
		User:    user,
		Token:   token,
	})
}

// Logout godoc
// @Summary Выход из системы
// @Tags auth
// @Produce json
// @Success 200 {object} response.MessageResponse
// @Router /api/logout [post]
func (r *Routers) Logout(c echo.Context) error {
	const op = "http.routers.Logout"

	sess, err := session.Get(SessionName, c)
	if err == nil {
		sess.Options = &sessions.Options{Path: "/", MaxAge: -1, HttpOnly: true}
		sess.Values = map[interface{}]interface{}{}
		if err := sess.Save(c.Request(), c.Response()); err != nil {
			r.log.Warn("failed to drop session", slog.String("op", op), sl.Err(err))
		}
	}

	return c.JSON(http.StatusOK, response.MessageResponse{Success: true, Message: "Logged out"})
}

// Session godoc
// @Summary Текущий пользователь
// @Tags auth
// @Produce json
// @Success 200 {object} response.SessionResponse
// @Failure 401 {object} response.ErrorResponse
// @Router /api/session [get]
func (r *Routers) Session(c echo.Context) error {
	user, ok := CurrentUser(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, response.ErrAuthRequired)
	}

	return c.JSON(http.StatusOK, response.SessionResponse{Success: true, User: user})
}

// SetSessionUser сохраняет пользователя в cookie-сессии
func SetSessionUser(c echo.Context, user models.SessionUser) error {
	sess, err := session.Get(SessionName, c)
	if err != nil {
		return err
	}

	sess.Options = &sessions.Options{Path: "/", MaxAge: 86400 * 7, HttpOnly: true}
	sess.Values["user_id"] = user.ID
	sess.Values["email"] = user.Email
	sess.Values["name"] = user.Name
	sess.Values["role"] = user.Role

	return sess.Save(c.Request(), c.Response())
}

// CurrentUser возвращает пользователя из cookie-сессии, а при ее отсутствии из bearer-токена
func CurrentUser(c echo.Context) (models.SessionUser, bool) {
	if sess, err := session.Get(SessionName, c); err == nil {
		if id, ok := sess.Values["user_id"].(string); ok && id != "" {
			email, _ := sess.Values["email"].(string)
			name, _ := sess.Values["name"].(string)
			role, _ := sess.Values["role"].(string)

			return models.SessionUser{ID: id, Email: email, Name: name, Role: role}, true
		}
	}

	if user, ok := c.Get(TokenContextKey).(models.SessionUser); ok && user.ID != "" {
		return user, true
	}

	return models.SessionUser{}, false
}
