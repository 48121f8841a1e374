package provisioning

import "errors"

var (
	// ErrInvalidToken is returned when the invitation token is absent,
	// expired, or already consumed. Not retryable.
	ErrInvalidToken = errors.New("provisioning: invalid invitation token")

	// ErrInvalidName is returned when the organization label sanitizes to
	// an empty or reserved database identifier. Retryable with a different
	// label.
	ErrInvalidName = errors.New("provisioning: organization label yields no valid database name")

	// ErrNameConflict is returned when the derived database name is already
	// registered, which can legitimately happen on retry after a partial
	// prior failure. Retryable with an adjusted label.
	ErrNameConflict = errors.New("provisioning: database name already taken")

	// ErrProvisioningFailed is returned for physical failures creating the
	// database or applying the baseline schema. Retryable after the
	// operator inspects or drops the orphaned database.
	ErrProvisioningFailed = errors.New("provisioning: failed to provision tenant database")
)
