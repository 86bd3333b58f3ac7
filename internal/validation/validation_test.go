package validation

import (
	"testing"
)

func TestValidateEmail(t *testing.T) {
	tests := []struct {
		name    string
		email   string
		wantErr bool
	}{
		{"valid email", "member@example.com", false},
		{"valid with plus", "member+tag@example.co.za", false},
		{"empty", "", true},
		{"missing domain", "member@", true},
		{"missing at", "member.example.com", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateEmail(tt.email)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateEmail(%q) error = %v, wantErr %v", tt.email, err, tt.wantErr)
			}
		})
	}
}

func TestValidatePhone(t *testing.T) {
	tests := []struct {
		name    string
		phone   string
		wantErr bool
	}{
		{"empty is allowed", "", false},
		{"local format", "0821234567", false},
		{"international format", "+27821234567", false},
		{"too short", "082123", true},
		{"letters", "08212345ab", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePhone(tt.phone)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidatePhone(%q) error = %v, wantErr %v", tt.phone, err, tt.wantErr)
			}
		})
	}
}

func TestParseAmount(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    string
		wantErr bool
	}{
		{"whole amount", "100", "100", false},
		{"two decimals", "99.95", "99.95", false},
		{"zero rejected", "0", "", true},
		{"negative rejected", "-5", "", true},
		{"three decimals rejected", "10.999", "", true},
		{"empty rejected", "", "", true},
		{"garbage rejected", "ten rand", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			amount, err := ParseAmount("amount", tt.raw)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseAmount(%q) error = %v, wantErr %v", tt.raw, err, tt.wantErr)
			}
			if !tt.wantErr && amount.String() != tt.want {
				t.Errorf("ParseAmount(%q) = %s, want %s", tt.raw, amount, tt.want)
			}
		})
	}
}
