package pkg

import "errors"

var (
	// ErrInvalidArgument marks bad retention counts and conflicting modes.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrUnreadablePackage marks a file that could not be turned into a Record.
	ErrUnreadablePackage = errors.New("unreadable package")

	// ErrDirectoryAccess marks a directory that could not be listed.
	ErrDirectoryAccess = errors.New("directory access error")

	// ErrTransfer marks a single failed download.
	ErrTransfer = errors.New("transfer error")

	// ErrVerificationFailed marks a downloaded file rejected by signature checking.
	ErrVerificationFailed = errors.New("verification failed")
)
