// Package cryptox provides password hashing for credential storage.
package cryptox

import "golang.org/x/crypto/bcrypt"

// BcryptCost is the work factor for all new password hashes. Raising it
// trades login latency for brute-force resistance; existing hashes keep the
// cost they were created with and still verify.
const BcryptCost = 12

// HashPassword returns a bcrypt hash of the password. Each call generates a
// fresh random salt, so equal plaintexts produce different hash strings;
// never compare hashes directly, use VerifyPassword.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), BcryptCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// VerifyPassword reports whether password matches the stored bcrypt hash.
// bcrypt's comparison is constant-time with respect to where a mismatch
// occurs. A malformed or corrupt hash fails closed (returns false).
func VerifyPassword(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// dummyHash is a valid cost-12 hash of an unguessable throwaway string,
// used to equalize timing on the user-not-found path.
const dummyHash = "$2a$12$R9h/cIPz0gi.URNNX3kh2OPST9/PgBkqquzi.Ss7KIUgO2t0jWMUW"

// DummyVerify burns one bcrypt comparison against a fixed hash. Call it on
// the lookup-miss path of authentication so a missing username costs the
// same as a wrong password.
func DummyVerify(password string) {
	_ = bcrypt.CompareHashAndPassword([]byte(dummyHash), []byte(password))
}
