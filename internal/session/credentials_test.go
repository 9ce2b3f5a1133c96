package session

import "testing"

func TestValidateLogin(t *testing.T) {
	tests := []struct {
		email, password string
		want            FieldErrors
	}{
		{"ada@example.com", "12345678", FieldErrors{}},
		{"", "12345678", FieldErrors{"email": "Email is required"}},
		{"   ", "12345678", FieldErrors{"email": "Email is required"}},
		{"ada.example.com", "12345678", FieldErrors{"email": "Enter a valid email"}},
		{"ada@example.com", "", FieldErrors{"password": "Password is required"}},
		{"ada@example.com", "short", FieldErrors{"password": "Min 8 characters"}},
	}

	for _, tt := range tests {
		got := ValidateLogin(tt.email, tt.password)
		if len(got) != len(tt.want) {
			t.Errorf("ValidateLogin(%q, %q) = %v, want %v", tt.email, tt.password, got, tt.want)
			continue
		}
		for k, v := range tt.want {
			if got[k] != v {
				t.Errorf("ValidateLogin(%q, %q)[%s] = %q, want %q", tt.email, tt.password, k, got[k], v)
			}
		}
	}
}

func TestValidateSignup_Confirmation(t *testing.T) {
	if errs := ValidateSignup("ada@example.com", "12345678", ""); errs["confirmPassword"] != "Please confirm your password" {
		t.Errorf("expected missing confirmation error, got %v", errs)
	}
	if errs := ValidateSignup("ada@example.com", "12345678", "87654321"); errs["confirmPassword"] != "Passwords do not match" {
		t.Errorf("expected mismatch error, got %v", errs)
	}
	if errs := ValidateSignup("ada@example.com", "12345678", "12345678"); len(errs) != 0 {
		t.Errorf("expected no errors, got %v", errs)
	}
}
