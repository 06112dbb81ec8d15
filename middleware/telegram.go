package middleware

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"time"

	initdata "github.com/telegram-mini-apps/init-data-golang"
)

var (
	ErrInitDataMissingHash = errors.New("init data has no hash")
	ErrInitDataSignature   = errors.New("init data signature mismatch")
	ErrInitDataExpired     = errors.New("init data expired")
	ErrInitDataNoUser      = errors.New("init data has no user")
)

// TelegramUser is the "user" object inside Mini App init data.
type TelegramUser struct {
	ID           int64  `json:"id"`
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name,omitempty"`
	Username     string `json:"username,omitempty"`
	LanguageCode string `json:"language_code,omitempty"`
}

// SignInitData computes the hash Telegram attaches to init data built from vals.
func SignInitData(vals url.Values, botToken string) string {
	payload := make(map[string]string, len(vals))
	for k := range vals {
		payload[k] = vals.Get(k)
	}
	ts, _ := strconv.ParseInt(vals.Get("auth_date"), 10, 64)
	return initdata.Sign(payload, botToken, time.Unix(ts, 0))
}

// ValidateInitData verifies a Telegram Web App init data string and returns its user.
// maxAge <= 0 disables the freshness check.
func ValidateInitData(initData, botToken string, maxAge time.Duration, now time.Time) (TelegramUser, error) {
	var u TelegramUser

	// freshness is checked below against the caller's clock
	if err := initdata.Validate(initData, botToken, 0); err != nil {
		switch {
		case errors.Is(err, initdata.ErrSignMissing):
			return u, ErrInitDataMissingHash
		case errors.Is(err, initdata.ErrSignInvalid):
			return u, ErrInitDataSignature
		}
		return u, fmt.Errorf("invalid init data: %w", err)
	}

	data, err := initdata.Parse(initData)
	if err != nil {
		return u, fmt.Errorf("parse init data: %w", err)
	}
	if maxAge > 0 && now.Sub(data.AuthDate()) > maxAge {
		return u, ErrInitDataExpired
	}
	if data.User.ID == 0 {
		return u, ErrInitDataNoUser
	}
	return TelegramUser{
		ID:           data.User.ID,
		FirstName:    data.User.FirstName,
		LastName:     data.User.LastName,
		Username:     data.User.Username,
		LanguageCode: data.User.LanguageCode,
	}, nil
}
