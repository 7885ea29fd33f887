package app

import (
	"encoding/base64"
	"fmt"
	"os"
	"strings"

	"github.com/charlesng35/sftpdrive/internal/drive"
)

// ConnectionConfig converts SFTPConfig into the settings accepted by drive.New.
func (c SFTPConfig) ConnectionConfig() (drive.ConnectionConfig, error) {
	key, err := c.privateKey()
	if err != nil {
		return drive.ConnectionConfig{}, err
	}

	return drive.ConnectionConfig{
		Host:           c.Host,
		Port:           c.Port,
		Username:       c.Username,
		Password:       c.Password,
		PrivateKey:     string(key),
		Passphrase:     c.Passphrase,
		Timeout:        c.Timeout,
		KnownHostsFile: c.KnownHosts,
	}, nil
}

func (c SFTPConfig) privateKey() ([]byte, error) {
	if path := strings.TrimSpace(c.PrivateKeyFile); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("config: read sftp.private_key_file: %w", err)
		}
		return data, nil
	}
	if strings.TrimSpace(c.PrivateKey) == "" {
		return nil, nil
	}
	return DecodePrivateKey(c.PrivateKey)
}

// DecodePrivateKey accepts a PEM block as-is, or the same block base64 encoded so it can
// travel through a single-line environment variable.
func DecodePrivateKey(value string) ([]byte, error) {
	v := strings.TrimSpace(value)
	if v == "" {
		return nil, fmt.Errorf("key value is empty")
	}

	if strings.HasPrefix(v, "-----BEGIN ") {
		return []byte(v + "\n"), nil
	}

	// Support both standard and raw base64 encodings
	for _, enc := range []*base64.Encoding{base64.StdEncoding, base64.RawStdEncoding} {
		decoded, err := enc.DecodeString(v)
		if err != nil {
			continue
		}
		if strings.HasPrefix(strings.TrimSpace(string(decoded)), "-----BEGIN ") {
			return decoded, nil
		}
	}

	return nil, fmt.Errorf("config: sftp.private_key is neither PEM nor base64-encoded PEM")
}
