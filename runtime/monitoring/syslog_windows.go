package monitoring

import (
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

func setupSyslog(logger *logrus.Logger, syslogName string) error {
	return errors.Errorf("syslog forwarding to '%s' is not supported on windows", syslogName)
}
