package domain

import "errors"

var (
	ErrProvisioningFailed = errors.New("collection provisioning failed")
	ErrStaleHandle        = errors.New("collection handle no longer resolves")
)
