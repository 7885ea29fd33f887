package sftp

import (
	"errors"
	"os"

	pkgsftp "github.com/pkg/sftp"
)

// IsNotExist reports whether err means the remote path does not exist.
func IsNotExist(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, os.ErrNotExist) {
		return true
	}
	var statusErr *pkgsftp.StatusError
	if errors.As(err, &statusErr) {
		return statusErr.FxCode() == pkgsftp.ErrSSHFxNoSuchFile
	}
	return false
}

// IsPermission reports whether err means the server refused access to the path.
func IsPermission(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, os.ErrPermission) {
		return true
	}
	var statusErr *pkgsftp.StatusError
	if errors.As(err, &statusErr) {
		return statusErr.FxCode() == pkgsftp.ErrSSHFxPermissionDenied
	}
	return false
}
