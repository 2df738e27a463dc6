// Package cli is the interactive operator console for the auth service.
//
// It registers accounts, logs in, and shows the identity carried by the
// current session token:
//
//	auth> register
//	auth> login
//	auth (a@b.com)> whoami
package cli
