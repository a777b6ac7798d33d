package auth

import "golang.org/x/crypto/scrypt"

var scryptKeyForTest = scrypt.Key
