package utils

import (
	"github.com/google/uuid"
)

// UUID generates new random UUID with Go's crypto package, and returns value
// as string. All DIDComm message IDs are made with it.
func UUID() string {
	return uuid.New().String()
}
