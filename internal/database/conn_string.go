package database

import (
	"net"
	"net/url"
	"strconv"

	"github.com/rickgao/deribit-marks/internal/config"
)

// ApplicationName tags sessions in pg_stat_activity.
const ApplicationName = "deribit-marks"

// BuildConnString builds a PostgreSQL connection URL from config. The password
// is escaped; an empty ssl mode falls back to prefer.
func BuildConnString(cfg config.DBConfig) string {
	sslMode := cfg.SSLMode
	if sslMode == "" {
		sslMode = "prefer"
	}

	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(cfg.User, cfg.Password),
		Host:   net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)),
		Path:   "/" + cfg.Name,
		RawQuery: url.Values{
			"sslmode":          {sslMode},
			"application_name": {ApplicationName},
		}.Encode(),
	}
	return u.String()
}
