package devserver

import (
	"errors"
	"net/http"

	"github.com/MKhiriev/go-sync-cache/internal/logger"
	"github.com/MKhiriev/go-sync-cache/internal/utils"
	"github.com/golang-jwt/jwt/v5"
)

// auth rejects requests without a valid bearer token signed with the
// configured key and issuer.
func (h *Handler) auth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		log := logger.FromRequest(r)

		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			log.Err(ErrEmptyAuthorizationHeader).Send()
			utils.WriteError(w, ErrEmptyAuthorizationHeader.Error(), http.StatusUnauthorized)
			return
		}

		tokenString, err := utils.ParseBearerToken(authHeader)
		if err != nil {
			log.Err(err).Send()
			utils.WriteError(w, err.Error(), http.StatusUnauthorized)
			return
		}

		claims, err := utils.ValidateJWTToken(tokenString, h.signKey, h.issuer)
		if err != nil {
			if errors.Is(err, jwt.ErrTokenExpired) {
				log.Err(err).Msg("token expired")
				utils.WriteError(w, utils.ErrTokenExpired.Error(), http.StatusUnauthorized)
				return
			}
			log.Err(err).Msg("error occurred during parsing token")
			utils.WriteError(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
			return
		}

		log.Debug().Str("subject", claims.Subject).Msg("request authorized")
		next.ServeHTTP(w, r)
	})
}
