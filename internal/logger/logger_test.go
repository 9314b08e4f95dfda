package logger

import (
	"testing"

	"github.com/sirupsen/logrus"
)

func TestConfigure_SetsLevel(t *testing.T) {
	defer Logger.SetLevel(logrus.InfoLevel)

	Configure("debug")
	if Logger.GetLevel() != logrus.DebugLevel {
		t.Errorf("expected debug level, got %s", Logger.GetLevel())
	}

	Configure("error")
	if Logger.GetLevel() != logrus.ErrorLevel {
		t.Errorf("expected error level, got %s", Logger.GetLevel())
	}
}

func TestConfigure_UnknownLevelKeepsCurrent(t *testing.T) {
	defer Logger.SetLevel(logrus.InfoLevel)

	Logger.SetLevel(logrus.WarnLevel)
	Configure("verbose-ish")
	if Logger.GetLevel() != logrus.WarnLevel {
		t.Errorf("expected level to stay warn, got %s", Logger.GetLevel())
	}

	Configure("")
	if Logger.GetLevel() != logrus.WarnLevel {
		t.Errorf("expected empty name to keep level, got %s", Logger.GetLevel())
	}
}
