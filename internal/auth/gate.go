package auth

import (
	"github.com/cockroachdb/errors"
	"github.com/robertarktes/aircnc-server/internal/domain"
)

// Authorize allows access only when the verified email and the path email
// are byte-for-byte equal.
func Authorize(claimEmail, pathEmail string) error {
	if claimEmail != pathEmail {
		return errors.Wrap(domain.ErrForbidden, "identity does not own this resource")
	}
	return nil
}
