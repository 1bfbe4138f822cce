package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/mithrel/msgbus/internal/logging"
)

// CheckConfigValidity reports every invalid setting at once.
func CheckConfigValidity(v *viper.Viper) error {
	var errs []error
	if strings.TrimSpace(v.GetString("data_dir")) == "" {
		errs = append(errs, errors.New("data_dir is required"))
	}
	if v.GetInt("search.default_limit") <= 0 {
		errs = append(errs, errors.New("search.default_limit must be greater than 0"))
	}
	if d, err := time.ParseDuration(v.GetString("features.update_interval")); err != nil || d < 0 {
		errs = append(errs, fmt.Errorf("features.update_interval %q is not a duration", v.GetString("features.update_interval")))
	}
	if _, ok := logging.ParseLevel(v.GetString("log.level")); !ok {
		errs = append(errs, fmt.Errorf("log.level %q is not a level", v.GetString("log.level")))
	}
	if v.GetBool("quic.enabled") {
		switch v.GetString("quic.tls") {
		case "self":
		case "file":
			if v.GetString("quic.cert_file") == "" || v.GetString("quic.key_file") == "" {
				errs = append(errs, errors.New("quic.tls = file needs quic.cert_file and quic.key_file"))
			}
		case "acme":
			if v.GetString("quic.domain") == "" {
				errs = append(errs, errors.New("quic.tls = acme needs quic.domain"))
			}
		default:
			errs = append(errs, fmt.Errorf("quic.tls %q is not one of self, file, acme", v.GetString("quic.tls")))
		}
	}
	return errors.Join(errs...)
}
