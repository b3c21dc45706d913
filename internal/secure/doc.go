// Package secure keeps account secrets out of ordinary Go memory.
//
// A SecureBuffer wraps a memguard enclave: the plaintext is encrypted at
// rest, mlocked while open and wiped when the locked view is destroyed.
// The client keeps the account password in one for its whole lifetime and
// only opens it while building the login request body.
//
//	buf := secure.NewSecureString(password)
//	defer buf.Destroy()
//
//	err := buf.Use(func(plain []byte) error {
//	    return send(plain)
//	})
//
// Callers should run memguard.Purge (or secure.Purge) before exiting.
package secure
