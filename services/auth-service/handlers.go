package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"police-dispatch-system/pkg/dispatch"
	"police-dispatch-system/pkg/middleware"
	"police-dispatch-system/pkg/response"
	"police-dispatch-system/services/auth-service/models"
	"police-dispatch-system/services/auth-service/utils"

	"github.com/apex/log"
	"github.com/prometheus/client_golang/prometheus"
	"gorm.io/gorm"
)

var loginsTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "auth_logins_total",
		Help: "Login attempts by outcome",
	},
	[]string{"outcome"},
)

type server struct {
	db          *gorm.DB
	secret      []byte
	limiter     middleware.Counter
	loginLimit  int
	loginWindow time.Duration
	trustedHops int
}

func (s *server) routes() http.Handler {
	mux := http.NewServeMux()

	login := http.Handler(http.HandlerFunc(s.login))
	if s.limiter != nil {
		login = middleware.RateLimit(s.limiter, "login", s.loginLimit, s.loginWindow, s.trustedHops)(login)
	}

	mux.HandleFunc("POST /api/auth/register", s.register)
	mux.Handle("POST /api/auth/login", login)
	mux.Handle("GET /api/auth/me", middleware.AuthMiddleware(s.secret)(http.HandlerFunc(s.me)))

	mux.HandleFunc("GET /health", s.health)
	mux.Handle("GET /metrics", middleware.GetMetricsHandler())

	return middleware.Chain(mux,
		middleware.TraceMiddleware,
		middleware.LoggerMiddleware,
		middleware.MetricsMiddleware,
	)
}

func (s *server) register(w http.ResponseWriter, r *http.Request) {
	var input registration
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		log.Warn("Invalid registration payload")
		response.Error(w, http.StatusBadRequest, "Invalid request payload", "")
		return
	}
	if msg := input.validate(); msg != "" {
		response.Error(w, http.StatusBadRequest, msg, "")
		return
	}

	hash, err := utils.HashPassword(input.Password)
	if err != nil {
		log.WithError(err).Error("Failed to hash password")
		response.Error(w, http.StatusInternalServerError, "Failed to process registration", "")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	user := models.User{
		Email:        input.Email,
		PasswordHash: hash,
		Role:         input.Role,
		Phone:        input.phone(),
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&user).Error; err != nil {
			return err
		}

		if input.Role == middleware.RoleStation {
			return tx.Create(input.station(user.ID)).Error
		}

		var station dispatch.Station
		if err := tx.Select("id").Take(&station, "id = ?", input.StationID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return errInvalidStation
			}
			return err
		}
		return tx.Create(input.officer(user.ID)).Error
	})
	switch {
	case errors.Is(err, errInvalidStation):
		response.Error(w, http.StatusBadRequest, "Invalid station ID", "")
		return
	case errors.Is(err, gorm.ErrDuplicatedKey):
		log.Warn("Registration attempt with existing email")
		response.Error(w, http.StatusConflict, "Email already registered", "")
		return
	case err != nil:
		log.WithError(err).Error("Failed to save registration")
		response.Error(w, http.StatusInternalServerError, "Registration failed", "")
		return
	}

	log.WithFields(log.Fields{"user_id": user.ID, "role": user.Role}).Info("User registered")

	token, err := utils.GenerateJWT(s.secret, user.ID, user.Email, user.Role)
	if err != nil {
		log.WithError(err).WithField("user_id", user.ID).Error("Failed to generate JWT")
		response.Error(w, http.StatusInternalServerError, "Failed to generate token", "")
		return
	}

	response.Success(w, http.StatusCreated, "User registered successfully", map[string]interface{}{
		"id":    user.ID,
		"token": token,
		"role":  user.Role,
	})
}

func (s *server) login(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		log.Warn("Invalid login request format")
		response.Error(w, http.StatusBadRequest, "Invalid request payload", "")
		return
	}
	input.Email = strings.ToLower(strings.TrimSpace(input.Email))
	if input.Email == "" || input.Password == "" {
		response.Error(w, http.StatusBadRequest, "Email and Password are required", "")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	var user models.User
	if err := s.db.WithContext(ctx).Where("email = ?", input.Email).First(&user).Error; err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			log.WithError(err).Error("Login lookup failed")
			loginsTotal.WithLabelValues("error").Inc()
			response.Error(w, http.StatusServiceUnavailable, "Login temporarily unavailable", "")
			return
		}
		log.Warn("Failed login attempt")
		loginsTotal.WithLabelValues("rejected").Inc()
		response.Error(w, http.StatusUnauthorized, "Invalid email or password", "")
		return
	}

	if !utils.CheckPasswordHash(input.Password, user.PasswordHash) {
		log.WithField("user_id", user.ID).Warn("Invalid password attempt")
		loginsTotal.WithLabelValues("rejected").Inc()
		response.Error(w, http.StatusUnauthorized, "Invalid email or password", "")
		return
	}

	token, err := utils.GenerateJWT(s.secret, user.ID, user.Email, user.Role)
	if err != nil {
		log.WithError(err).WithField("user_id", user.ID).Error("Failed to generate JWT")
		response.Error(w, http.StatusInternalServerError, "Failed to generate token", "")
		return
	}

	loginsTotal.WithLabelValues("success").Inc()
	log.WithFields(log.Fields{"user_id": user.ID, "role": user.Role}).Info("User logged in")

	response.Success(w, http.StatusOK, "Login successful", map[string]interface{}{
		"id":    user.ID,
		"token": token,
		"email": user.Email,
		"role":  user.Role,
	})
}

func (s *server) me(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		response.Error(w, http.StatusInternalServerError, "Failed to retrieve user context", "")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	var user models.User
	if err := s.db.WithContext(ctx).First(&user, "id = ?", claims.UserID).Error; err != nil {
		response.Error(w, http.StatusNotFound, "User not found", "")
		return
	}
	response.Success(w, http.StatusOK, "User profile fetched", user)
}

func (s *server) health(w http.ResponseWriter, r *http.Request) {
	health := map[string]interface{}{
		"status":  "UP",
		"service": "auth-service",
	}

	status := http.StatusOK
	sqlDB, err := s.db.DB()
	if err != nil || sqlDB.PingContext(r.Context()) != nil {
		health["status"] = "DOWN"
		health["database"] = "disconnected"
		status = http.StatusServiceUnavailable
	} else {
		health["database"] = "connected"
	}
	response.JSON(w, status, health)
}
