package game

import (
	"fmt"

	"github.com/google/uuid"
)

var idSpace = uuid.NewSHA1(uuid.NameSpaceOID, []byte("dealersim"))

// newID derives a stable id from the run seed and a kind-specific key, so a
// replay with the same seed reproduces the same ids.
func newID(kind string, seed int64, key ...any) string {
	name := fmt.Sprintf("%s/%d/%v", kind, seed, key)
	return uuid.NewSHA1(idSpace, []byte(name)).String()
}

func stockNumber(n int) string {
	return fmt.Sprintf("D%05d", n)
}

func staffID(prefix string, n int) string {
	return fmt.Sprintf("%s-%03d", prefix, n)
}
