package auth

import (
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestHashPassword(t *testing.T) {
	t.Run("unique hashes", func(t *testing.T) {
		pw := "password1234"
		hash, err := HashPassword(pw)
		if err != nil {
			t.Fatalf("password hash fail #1: %+v", err)
		}

		hash2, err := HashPassword(pw)
		if err != nil {
			t.Fatalf("password hash fail #2: %+v", err)
		}

		if hash == hash2 {
			t.Fatalf("hash and hash2 are the same hashes; should be different: %s, %s", hash, hash2)
		}
	})

	t.Run("empty password", func(t *testing.T) {
		_, err := HashPassword("")
		if err != nil {
			t.Errorf("HashPassword() failed on empty string: %+v", err)
		}
	})
}

func TestCheckPasswordHash(t *testing.T) {
	tests := []struct {
		name      string
		password  string
		checkPw   string
		hash      string
		wantErr   bool
		wantMatch bool
	}{
		{"correct pw", "mypassword1234", "mypassword1234", "", false, true},
		{"incorrect pw", "mypassword1234", "passwordDD1234", "", false, false},
		{"wrong hash", "mypassword1234", "passwordDD1234", "not-a-hash", true, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var hash string
			var err error

			if tt.hash != "" {
				hash = tt.hash
			} else {
				hash, err = HashPassword(tt.password)
				if err != nil {
					t.Fatalf("%+v", err)
				}
			}

			isMatch, err := CheckPasswordHash(tt.checkPw, hash)
			if (err != nil) != tt.wantErr {
				t.Fatalf("CheckPasswordHash() error = %+v", err)
			}
			if isMatch != tt.wantMatch {
				t.Errorf("password and hash don't match")
			}
		})
	}
}

func TestJWT(t *testing.T) {
	principal := Principal{UID: uuid.New(), Email: "jdoe@campus.edu"}
	tokenSecret := "validtokensecret"

	t.Run("Valid_JWT", func(t *testing.T) {
		tokenString, err := MakeJWT(principal, "campusmart", tokenSecret, 15*time.Second)
		if err != nil {
			t.Fatalf("MakeJWT() error = %+v", err)
		}

		got, err := ValidateJWT(tokenString, tokenSecret)
		if err != nil {
			t.Fatalf("ValidateJWT() error = %+v", err)
		}
		if got.UID != principal.UID {
			t.Errorf("want = %+v, got = %+v", principal.UID, got.UID)
		}
		if got.Email != principal.Email {
			t.Errorf("want = %+v, got = %+v", principal.Email, got.Email)
		}
	})

	t.Run("Incorrect_secret", func(t *testing.T) {
		tokenString, err := MakeJWT(principal, "campusmart", tokenSecret, 15*time.Second)
		if err != nil {
			t.Fatalf("MakeJWT() error = %+v", err)
		}

		_, err = ValidateJWT(tokenString, "fakesecret")
		if err == nil {
			t.Fatal("ValidateJWT() should reject a token signed with another secret")
		}
	})

	t.Run("Expired_token", func(t *testing.T) {
		tokenString, err := MakeJWT(principal, "campusmart", tokenSecret, -1*time.Second)
		if err != nil {
			t.Fatalf("MakeJWT() error = %+v", err)
		}

		_, err = ValidateJWT(tokenString, tokenSecret)
		if err == nil {
			t.Fatal("ValidateJWT() should reject an expired token")
		}
	})

	t.Run("Garbage_token", func(t *testing.T) {
		_, err := ValidateJWT("not-a-jwt", tokenSecret)
		if err == nil {
			t.Fatal("ValidateJWT() should reject a malformed token")
		}
	})
}
