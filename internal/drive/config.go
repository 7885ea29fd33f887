package drive

import (
	"fmt"
	"strings"
	"time"

	"github.com/charlesng35/sftpdrive/internal/sftp"
	"github.com/charlesng35/sftpdrive/pkg/validator"
)

const defaultTimeout = 10 * time.Second

// ConnectionConfig describes how to reach and authenticate against the remote server.
// Either Password or PrivateKey must be supplied.
type ConnectionConfig struct {
	Host           string        `json:"host" validate:"required,hostname_rfc1123|ip"`
	Port           int           `json:"port" validate:"min=1,max=65535"`
	Username       string        `json:"username" validate:"required"`
	Password       string        `json:"password" validate:"required_without=PrivateKey"`
	PrivateKey     string        `json:"private_key"`
	Passphrase     string        `json:"passphrase"`
	Timeout        time.Duration `json:"timeout"`
	KnownHostsFile string        `json:"known_hosts"`
}

// withDefaults fills optional settings left at their zero value.
func (c ConnectionConfig) withDefaults() ConnectionConfig {
	c.Host = strings.TrimSpace(c.Host)
	c.Username = strings.TrimSpace(c.Username)
	if c.Port == 0 {
		c.Port = sftp.DefaultPort
	}
	if c.Timeout == 0 {
		c.Timeout = defaultTimeout
	}
	return c
}

// Validate reports whether the configuration can be used to dial.
func (c ConnectionConfig) Validate() error {
	if err := validator.ValidateStruct(c); err != nil {
		return fmt.Errorf("drive: invalid connection config: %w", err)
	}
	return nil
}

func (c ConnectionConfig) dialOptions() sftp.Options {
	opts := sftp.Options{
		Host:           c.Host,
		Port:           c.Port,
		Username:       c.Username,
		Password:       c.Password,
		Passphrase:     c.Passphrase,
		Timeout:        c.Timeout,
		KnownHostsFile: c.KnownHostsFile,
	}
	if c.PrivateKey != "" {
		opts.PrivateKey = []byte(c.PrivateKey)
	}
	return opts
}
