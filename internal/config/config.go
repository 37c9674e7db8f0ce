// Package config validates the command line configuration before any AWS
// call is made.
package config

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/rs/zerolog"
)

// Depth selects how much of the tree is shown.
type Depth string

const (
	DepthOU      Depth = "ou"
	DepthAccount Depth = "account"
)

const (
	// MaxProfileNameLength caps the AWS CLI profile name.
	MaxProfileNameLength = 250
	// MaxRoleNameLength is the IAM role name quota.
	MaxRoleNameLength = 64

	OutputExtension = ".html"
)

// roleNamePattern is the character set IAM allows in role names.
var roleNamePattern = regexp.MustCompile(`^[a-zA-Z0-9+=,.@_-]+$`)

// ConfigurationError reports an invalid option. It is raised before any
// discovery starts.
type ConfigurationError struct {
	Option string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Option, e.Reason)
}

// ValidateDepth checks the depth selector.
func ValidateDepth(depth string) error {
	switch Depth(depth) {
	case DepthOU, DepthAccount:
		return nil
	default:
		return &ConfigurationError{Option: "depth", Reason: fmt.Sprintf("%q must be one of ou, account", depth)}
	}
}

// ValidateOutputPath checks the output file name ends in .html.
func ValidateOutputPath(path string) error {
	base := filepath.Base(path)
	if !strings.HasSuffix(base, OutputExtension) || len(base) == len(OutputExtension) {
		return &ConfigurationError{Option: "output file name", Reason: "please make sure it ends with '.html'"}
	}
	return nil
}

// ValidateProfile checks the AWS profile name length.
func ValidateProfile(profile string) error {
	if len(profile) > MaxProfileNameLength {
		return &ConfigurationError{Option: "AWS profile name", Reason: fmt.Sprintf("too long, it should not exceed %d characters", MaxProfileNameLength)}
	}
	return nil
}

// ValidateRoleName checks an IAM role name. An empty name means no role is
// assumed.
func ValidateRoleName(role string) error {
	if role == "" {
		return nil
	}
	if len(role) > MaxRoleNameLength {
		return &ConfigurationError{Option: "IAM role name", Reason: fmt.Sprintf("too long, it should not exceed %d characters", MaxRoleNameLength)}
	}
	if !roleNamePattern.MatchString(role) {
		return &ConfigurationError{Option: "IAM role name", Reason: "only alphanumeric characters and +=,.@_- are allowed"}
	}
	return nil
}

// ParseLogLevel maps the log level names accepted on the command line to
// zerolog levels.
func ParseLogLevel(level string) (zerolog.Level, error) {
	switch strings.ToUpper(level) {
	case "DEBUG":
		return zerolog.DebugLevel, nil
	case "INFO":
		return zerolog.InfoLevel, nil
	case "WARNING", "WARN":
		return zerolog.WarnLevel, nil
	case "ERROR":
		return zerolog.ErrorLevel, nil
	case "CRITICAL":
		return zerolog.FatalLevel, nil
	default:
		return zerolog.NoLevel, &ConfigurationError{Option: "log level", Reason: fmt.Sprintf("%q must be one of DEBUG, INFO, WARNING, ERROR, CRITICAL", level)}
	}
}
