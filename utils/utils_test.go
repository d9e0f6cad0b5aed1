package utils

import (
	"strings"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pquerna/otp/totp"
	"github.com/shopspring/decimal"
)

const testKey = "0123456789abcdef0123456789abcdef"

func TestEncryptDecrypt(t *testing.T) {
	sealed, err := Encrypt(testKey, []byte("JBSWY3DPEHPK3PXP"))
	if err != nil {
		t.Fatalf("Encrypt failed: %v", err)
	}
	if strings.Contains(sealed, "JBSWY3DPEHPK3PXP") {
		t.Error("ciphertext contains the plaintext")
	}

	plain, err := Decrypt(testKey, sealed)
	if err != nil {
		t.Fatalf("Decrypt failed: %v", err)
	}
	if string(plain) != "JBSWY3DPEHPK3PXP" {
		t.Errorf("Expected round trip, got %q", plain)
	}

	if _, err := Decrypt("ffffffffffffffffffffffffffffffff", sealed); err == nil {
		t.Error("Expected decrypt with another key to fail")
	}
	if _, err := Encrypt("short", []byte("x")); err != ErrInvalidEncryptionKey {
		t.Errorf("Expected ErrInvalidEncryptionKey, got %v", err)
	}
	if _, err := Decrypt(testKey, "AAAA"); err == nil {
		t.Error("Expected short ciphertext to fail")
	}
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("correct horse")
	if err != nil {
		t.Fatalf("HashPassword failed: %v", err)
	}
	if !CheckPassword(hash, "correct horse") {
		t.Error("Expected password to match")
	}
	if CheckPassword(hash, "wrong horse") {
		t.Error("Expected wrong password to fail")
	}
}

func TestTokenManager(t *testing.T) {
	tm := NewTokenManager("secret", time.Hour)

	token, expiresAt, err := tm.GenerateAccessToken("acc-1", "sess-1", "olivia@example.com")
	if err != nil {
		t.Fatalf("GenerateAccessToken failed: %v", err)
	}
	if time.Until(expiresAt) <= 59*time.Minute {
		t.Errorf("Expected expiry about an hour ahead, got %v", expiresAt)
	}

	claims, err := tm.Validate(token)
	if err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
	if claims.AccountID != "acc-1" || claims.SessionID != "sess-1" || claims.Email != "olivia@example.com" {
		t.Errorf("unexpected claims %+v", claims)
	}

	if _, err := NewTokenManager("other", time.Hour).Validate(token); err == nil {
		t.Error("Expected a token signed with another secret to fail")
	}

	expired, _, err := NewTokenManager("secret", -time.Minute).GenerateAccessToken("acc-1", "sess-1", "")
	if err != nil {
		t.Fatalf("GenerateAccessToken failed: %v", err)
	}
	if _, err := tm.Validate(expired); err == nil {
		t.Error("Expected an expired token to fail")
	}

	if a, b := GenerateRefreshToken(), GenerateRefreshToken(); a == b || len(a) != 64 {
		t.Errorf("Expected distinct 64-char refresh tokens, got %q and %q", a, b)
	}
}

func TestTOTP(t *testing.T) {
	secret, url, err := GenerateTOTPSecret("olivia@example.com")
	if err != nil {
		t.Fatalf("GenerateTOTPSecret failed: %v", err)
	}
	if !strings.HasPrefix(url, "otpauth://totp/") || !strings.Contains(url, "issuer="+TOTPIssuer) {
		t.Errorf("unexpected otpauth URL %q", url)
	}

	code, err := totp.GenerateCode(secret, time.Now())
	if err != nil {
		t.Fatalf("GenerateCode failed: %v", err)
	}
	if !VerifyTOTP(secret, code) {
		t.Error("Expected current code to verify")
	}
	if VerifyTOTP(secret, "000000") && code != "000000" {
		t.Error("Expected a wrong code to fail")
	}
}

func TestToSnakeCase(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Name", "name"},
		{"TargetAmount", "target_amount"},
		{"PhotoURL", "photo_url"},
		{"ID", "id"},
		{"URLPath", "url_path"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := toSnakeCase(tt.in); got != tt.want {
				t.Errorf("Expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestBindingErrorMessage(t *testing.T) {
	type request struct {
		Name        string `validate:"required"`
		Email       string `validate:"email"`
		Role        string `validate:"oneof=admin joiner"`
		AvatarColor string `validate:"hexcolor"`
	}

	err := validator.New().Struct(request{Email: "nope", Role: "guest", AvatarColor: "blue"})
	got := BindingErrorMessage(err)

	for _, want := range []string{
		"name is required",
		"Please enter a valid email address",
		"role must be one of: admin, joiner",
		"avatar_color must be a hex color",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("Expected %q in %q", want, got)
		}
	}

	if got := BindingErrorMessage(nil); got != "Invalid request body" {
		t.Errorf("Expected generic message, got %q", got)
	}
}

func TestMasking(t *testing.T) {
	defer func(prev bool) { IsProduction = prev }(IsProduction)

	id := "3f1c2b9e-8d4a-4c5e-9f7a-0b1c2d3e4f5a"
	line := "olivia@example.com opened /trips/" + id + "?token=" + strings.Repeat("ab", 32)

	IsProduction = false
	if MaskString(line) != line || MaskID(id) != id || MaskEmail("a@b.co") != "a@b.co" {
		t.Error("Expected development mode to leave values untouched")
	}
	if MaskAmount(decimal.RequireFromString("12.5")) != "12.50" {
		t.Error("Expected amounts with two decimals in development")
	}

	IsProduction = true
	masked := MaskString(line)
	for _, leaked := range []string{"olivia@example.com", id, strings.Repeat("ab", 32)} {
		if strings.Contains(masked, leaked) {
			t.Errorf("Expected %q to be masked in %q", leaked, masked)
		}
	}
	if !strings.Contains(masked, "3f1c2b9e...") {
		t.Errorf("Expected id prefix kept, got %q", masked)
	}
	if MaskID(id) != "3f1c2b9e..." || MaskID("short") != "***" {
		t.Errorf("unexpected id masks %q %q", MaskID(id), MaskID("short"))
	}
	if MaskAmount(decimal.NewFromInt(5)) != "***" {
		t.Error("Expected amounts hidden in production")
	}
}
